package domain

import "time"

type SpotStatus string

const (
	StatusAvailable SpotStatus = "available"
	StatusOccupied  SpotStatus = "occupied"
)

type SpotType string

const (
	TypeCar        SpotType = "car"
	TypeBike       SpotType = "bike"
	TypeMotorcycle SpotType = "motorcycle"
	TypeLarge      SpotType = "large"
	TypeTruck      SpotType = "truck"
)

// DefaultPricing là giá mặc định theo loại chỗ đỗ khi owner không nhập giá.
var DefaultPricing = map[SpotType]float64{
	TypeLarge:      50.0,
	TypeCar:        40.0,
	TypeMotorcycle: 15.0,
	TypeBike:       15.0,
	TypeTruck:      75.0,
}

func DefaultPriceFor(t SpotType) float64 {
	if price, ok := DefaultPricing[t]; ok {
		return price
	}
	return DefaultPricing[TypeCar]
}

func ValidSpotType(t SpotType) bool {
	_, ok := DefaultPricing[t]
	return ok
}

type ParkingSpot struct {
	ID           int        `json:"id"`
	LotID        int        `json:"lot_id"`
	SpotNumber   int        `json:"spot_number"`
	Type         SpotType   `json:"type"`
	Status       SpotStatus `json:"status"`
	PricePerHour float64    `json:"price_per_hour"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type ParkingSpotDTO struct {
	Type         string   `json:"type" binding:"required"`
	PricePerHour *float64 `json:"price_per_hour"` // nil thì dùng giá mặc định theo loại
}
