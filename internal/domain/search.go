package domain

type SearchRequestDTO struct {
	Query string `json:"query" binding:"required"`
}

// SearchMatch là một bãi đỗ được matcher chấm điểm.
type SearchMatch struct {
	Lot             ParkingLot     `json:"lot"`
	Score           int            `json:"score"`
	VehicleType     string         `json:"vehicle_type,omitempty"` // Loại xe trích được từ câu truy vấn
	AvailableByType map[string]int `json:"available_by_type"`
}
