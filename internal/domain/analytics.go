package domain

// OccupancyPoint là một điểm dự đoán occupancy trong tương lai gần.
type OccupancyPoint struct {
	Time          string  `json:"time"`
	HourOffset    int     `json:"hour_offset"`
	OccupancyRate float64 `json:"occupancy_rate"`
}

// LotAnalyticsDTO tổng hợp doanh thu và booking của một bãi cho owner.
// Predictions rỗng khi AI service không cấu hình hoặc lỗi.
type LotAnalyticsDTO struct {
	Lot             ParkingLot       `json:"lot"`
	TotalSpots      int              `json:"total_spots"`
	TotalBookings   int              `json:"total_bookings"`
	ActiveBookings  int              `json:"active_bookings"`
	TotalRevenue    float64          `json:"total_revenue"`
	AvgBookingValue float64          `json:"avg_booking_value"`
	Predictions     []OccupancyPoint `json:"predictions,omitempty"`
}

// PriceSuggestionDTO là đề xuất giá từ AI service cho một chỗ đỗ.
type PriceSuggestionDTO struct {
	SpotID        int     `json:"spot_id"`
	CurrentPrice  float64 `json:"current_price"`
	OptimalPrice  float64 `json:"optimal_price"`
	OccupancyRate float64 `json:"occupancy_rate"`
}
