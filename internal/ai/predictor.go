// Package ai wraps the external occupancy/price prediction service as an
// explicit capability-checked dependency. When the service is not
// configured a Noop implementation takes its place, so call sites check
// Available() instead of scattering nil checks.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrUnavailable = errors.New("AI service is not available")

// Features là đặc trưng theo thời gian của một bãi đỗ, gửi cho AI service.
type Features struct {
	LotID      int  `json:"lot_id"`
	Hour       int  `json:"hour"`
	DayOfWeek  int  `json:"day_of_week"`
	Month      int  `json:"month"`
	IsWeekend  bool `json:"is_weekend"`
	IsRushHour bool `json:"is_rush_hour"`
	TotalSpots int  `json:"total_spots"`
}

func FeaturesAt(lotID, totalSpots int, at time.Time) Features {
	hour := at.Hour()
	weekday := int(at.Weekday())
	return Features{
		LotID:      lotID,
		Hour:       hour,
		DayOfWeek:  weekday,
		Month:      int(at.Month()),
		IsWeekend:  weekday == 0 || weekday == 6,
		IsRushHour: (hour >= 7 && hour <= 9) || (hour >= 17 && hour <= 19),
		TotalSpots: totalSpots,
	}
}

type OccupancyPrediction struct {
	OccupancyRate      float64 `json:"occupancy_rate"`
	PredictedOccupied  int     `json:"predicted_occupied"`
	PredictedAvailable int     `json:"predicted_available"`
}

type PriceQuery struct {
	Features      Features `json:"features"`
	SpotType      string   `json:"spot_type"`
	BasePrice     float64  `json:"base_price"`
	OccupancyRate float64  `json:"occupancy_rate"`
}

type PriceRecommendation struct {
	OptimalPrice float64 `json:"optimal_price"`
}

type Predictor interface {
	Available() bool
	PredictOccupancy(ctx context.Context, features Features) (*OccupancyPrediction, error)
	OptimizePrice(ctx context.Context, query PriceQuery) (*PriceRecommendation, error)
}

// Noop is the null predictor used when AI_SERVICE_URL is not set.
type Noop struct{}

func (Noop) Available() bool { return false }

func (Noop) PredictOccupancy(ctx context.Context, features Features) (*OccupancyPrediction, error) {
	return nil, ErrUnavailable
}

func (Noop) OptimizePrice(ctx context.Context, query PriceQuery) (*PriceRecommendation, error) {
	return nil, ErrUnavailable
}

// HTTPPredictor calls the external prediction service with a bounded
// timeout. Callers treat every error as a degraded feature, never fatal.
type HTTPPredictor struct {
	baseURL string
	client  *http.Client
}

func NewHTTPPredictor(baseURL string, timeout time.Duration) *HTTPPredictor {
	return &HTTPPredictor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPPredictor) Available() bool { return true }

func (p *HTTPPredictor) PredictOccupancy(ctx context.Context, features Features) (*OccupancyPrediction, error) {
	prediction := &OccupancyPrediction{}
	if err := p.post(ctx, "/predict/occupancy", features, prediction); err != nil {
		return nil, err
	}
	return prediction, nil
}

func (p *HTTPPredictor) OptimizePrice(ctx context.Context, query PriceQuery) (*PriceRecommendation, error) {
	recommendation := &PriceRecommendation{}
	if err := p.post(ctx, "/predict/price", query, recommendation); err != nil {
		return nil, err
	}
	return recommendation, nil
}

func (p *HTTPPredictor) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal predict request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: predict service returned %d", ErrUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode predict response: %w", err)
	}
	return nil
}
