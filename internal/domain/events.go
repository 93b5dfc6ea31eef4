package domain

import "time"

// SpotStatusEvent được publish lên kênh real-time sau mỗi lần
// chuyển trạng thái chỗ đỗ. Fire-and-forget, không chờ ack.
type SpotStatusEvent struct {
	EventID    string     `json:"event_id"`
	LotID      int        `json:"lot_id"`
	SpotID     int        `json:"spot_id"`
	Status     SpotStatus `json:"status"`
	BookingID  int        `json:"booking_id,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}
