package domain

import (
	"math"
	"time"

	"gopkg.in/guregu/null.v4"
)

type Booking struct {
	ID           int        `json:"id"`
	UserID       int        `json:"user_id"`
	LotID        int        `json:"lot_id"`
	SpotID       int        `json:"spot_id"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      null.Time  `json:"end_time"` // NULL khi booking đang active
	PricePerHour float64    `json:"price_per_hour"`
	TotalCost    null.Float `json:"total_cost"` // Tính khi kết thúc booking
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Location string   `json:"location,omitempty"` // Join từ lots, chỉ để trả về API
	SpotType SpotType `json:"spot_type,omitempty"`
}

func (b *Booking) Active() bool {
	return !b.EndTime.Valid
}

// CostFor tính tiền cho khoảng thời gian đỗ thực tế: số giờ × đơn giá,
// làm tròn 2 chữ số. Thời lượng âm coi như 0.
func CostFor(pricePerHour float64, start, end time.Time) float64 {
	hours := end.Sub(start).Hours()
	if hours < 0 {
		hours = 0
	}
	return math.Round(pricePerHour*hours*100) / 100
}

type CreateBookingDTO struct {
	SpotID    int    `json:"spot_id" binding:"required"`
	StartTime string `json:"start_time,omitempty"` // RFC3339, để trống thì dùng thời gian server
}
