package domain

import "time"

type ParkingLot struct {
	ID        int       `json:"id"`
	OwnerID   int       `json:"owner_id"`
	Location  string    `json:"location"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ParkingLotDTO struct {
	Location  string  `json:"location" binding:"required"`
	Latitude  float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"min=-180,max=180"`
}

// LotSummaryDTO là dữ liệu trả về cho dashboard của owner.
type LotSummaryDTO struct {
	ParkingLot
	TotalSpots     int                `json:"total_spots"`
	SpotsByType    map[string]int     `json:"spots"`
	OccupiedSpots  int                `json:"occupied_spots"`
	AveragePrice   float64            `json:"average_price_per_hour"`
	PriceByType    map[string]float64 `json:"price_by_type"`
	ActiveBookings int                `json:"active_bookings"`
}

// LotDetailDTO là một bãi đỗ kèm toàn bộ chỗ đỗ của nó.
type LotDetailDTO struct {
	ParkingLot
	TotalSpots int           `json:"total_spots"`
	Spots      []ParkingSpot `json:"spots"`
}

// SearchCandidate là một bãi đỗ kèm số chỗ trống theo loại xe,
// dùng làm đầu vào cho matcher.
type SearchCandidate struct {
	Lot             ParkingLot     `json:"lot"`
	AvailableByType map[string]int `json:"available_by_type"`
}
