package service

import (
	"context"
	"errors"
	"testing"

	"parkease/internal/ai"
	"parkease/internal/domain"
	"parkease/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPredictor trả về dữ liệu cố định hoặc lỗi, tùy cấu hình.
type stubPredictor struct {
	occupancy *ai.OccupancyPrediction
	price     *ai.PriceRecommendation
	err       error
}

func (p *stubPredictor) Available() bool { return true }

func (p *stubPredictor) PredictOccupancy(ctx context.Context, features ai.Features) (*ai.OccupancyPrediction, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.occupancy, nil
}

func (p *stubPredictor) OptimizePrice(ctx context.Context, query ai.PriceQuery) (*ai.PriceRecommendation, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.price, nil
}

func newParkingFixture(t *testing.T, predictor ai.Predictor) (*ParkingService, *BookingService) {
	t.Helper()
	_, lots, spots, bookings := newTestRepos()
	if predictor == nil {
		predictor = ai.Noop{}
	}
	ps := NewParkingService(lots, spots, bookings, predictor)
	bs := NewBookingService(bookings, spots, lots, &recordingNotifier{})
	return ps, bs
}

func TestLotManagementIsolation(t *testing.T) {
	ps, _ := newParkingFixture(t, nil)
	ctx := context.Background()
	otherOwner := domain.Principal{ID: 9, Role: domain.RoleOwner}

	lot, err := ps.CreateLot(ctx, owner, domain.ParkingLotDTO{Location: "Phoenix Mall", Latitude: 12.99, Longitude: 77.69})
	require.NoError(t, err)

	// Owner khác không thấy, không sửa và không xóa được lot này.
	_, err = ps.GetLot(ctx, otherOwner, lot.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = ps.UpdateLot(ctx, otherOwner, lot.ID, domain.ParkingLotDTO{Location: "Hijacked"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = ps.DeleteLot(ctx, otherOwner, lot.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	lots, err := ps.ListLots(ctx, otherOwner)
	require.NoError(t, err)
	assert.Empty(t, lots)

	// Chủ thật vẫn thấy lot nguyên vẹn.
	got, err := ps.GetLot(ctx, owner, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, "Phoenix Mall", got.Location)
}

func TestSpotManagementIsolation(t *testing.T) {
	ps, _ := newParkingFixture(t, nil)
	ctx := context.Background()
	otherOwner := domain.Principal{ID: 9, Role: domain.RoleOwner}

	lot, err := ps.CreateLot(ctx, owner, domain.ParkingLotDTO{Location: "Phoenix Mall"})
	require.NoError(t, err)
	spot, err := ps.AddSpot(ctx, owner, lot.ID, domain.ParkingSpotDTO{Type: "car"})
	require.NoError(t, err)

	// Thêm spot vào lot của người khác bị chặn ngay ở repository.
	_, err = ps.AddSpot(ctx, otherOwner, lot.ID, domain.ParkingSpotDTO{Type: "car"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = ps.UpdateSpot(ctx, otherOwner, spot.ID, domain.ParkingSpotDTO{Type: "truck"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = ps.DeleteSpot(ctx, otherOwner, spot.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRoleGuards(t *testing.T) {
	ps, _ := newParkingFixture(t, nil)
	ctx := context.Background()

	_, err := ps.CreateLot(ctx, customer, domain.ParkingLotDTO{Location: "X"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = ps.ListLots(ctx, domain.Principal{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAddSpotDefaultsAndValidation(t *testing.T) {
	ps, _ := newParkingFixture(t, nil)
	ctx := context.Background()

	lot, err := ps.CreateLot(ctx, owner, domain.ParkingLotDTO{Location: "Phoenix Mall"})
	require.NoError(t, err)

	car, err := ps.AddSpot(ctx, owner, lot.ID, domain.ParkingSpotDTO{Type: "car"})
	require.NoError(t, err)
	assert.Equal(t, 40.0, car.PricePerHour)
	assert.Equal(t, domain.StatusAvailable, car.Status)
	assert.Equal(t, 1, car.SpotNumber)

	truck, err := ps.AddSpot(ctx, owner, lot.ID, domain.ParkingSpotDTO{Type: "truck"})
	require.NoError(t, err)
	assert.Equal(t, 75.0, truck.PricePerHour)
	assert.Equal(t, 2, truck.SpotNumber)

	// "small" là alias cũ của motorcycle.
	small, err := ps.AddSpot(ctx, owner, lot.ID, domain.ParkingSpotDTO{Type: "small"})
	require.NoError(t, err)
	assert.Equal(t, domain.TypeMotorcycle, small.Type)
	assert.Equal(t, 15.0, small.PricePerHour)

	custom := 99.999
	priced, err := ps.AddSpot(ctx, owner, lot.ID, domain.ParkingSpotDTO{Type: "bike", PricePerHour: &custom})
	require.NoError(t, err)
	assert.Equal(t, 100.0, priced.PricePerHour) // làm tròn 2 chữ số

	_, err = ps.AddSpot(ctx, owner, lot.ID, domain.ParkingSpotDTO{Type: "spaceship"})
	assert.ErrorIs(t, err, ErrValidation)

	negative := -1.0
	_, err = ps.AddSpot(ctx, owner, lot.ID, domain.ParkingSpotDTO{Type: "car", PricePerHour: &negative})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListLotsSummary(t *testing.T) {
	ps, bs := newParkingFixture(t, nil)
	ctx := context.Background()

	lot, err := ps.CreateLot(ctx, owner, domain.ParkingLotDTO{Location: "Phoenix Mall"})
	require.NoError(t, err)
	carSpot, err := ps.AddSpot(ctx, owner, lot.ID, domain.ParkingSpotDTO{Type: "car"})
	require.NoError(t, err)
	_, err = ps.AddSpot(ctx, owner, lot.ID, domain.ParkingSpotDTO{Type: "bike"})
	require.NoError(t, err)

	_, err = bs.BookSpot(ctx, customer, domain.CreateBookingDTO{SpotID: carSpot.ID})
	require.NoError(t, err)

	summaries, err := ps.ListLots(ctx, owner)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, 2, s.TotalSpots)
	assert.Equal(t, 1, s.OccupiedSpots)
	assert.Equal(t, map[string]int{"car": 1, "bike": 1}, s.SpotsByType)
	assert.Equal(t, 27.5, s.AveragePrice) // (40 + 15) / 2
	assert.Equal(t, 40.0, s.PriceByType["car"])
	assert.Equal(t, 15.0, s.PriceByType["bike"])
}

func TestLotAnalyticsAIFailureNonFatal(t *testing.T) {
	ps, bs := newParkingFixture(t, &stubPredictor{err: errors.New("timeout")})
	ctx := context.Background()

	lot, err := ps.CreateLot(ctx, owner, domain.ParkingLotDTO{Location: "Phoenix Mall"})
	require.NoError(t, err)
	spot, err := ps.AddSpot(ctx, owner, lot.ID, domain.ParkingSpotDTO{Type: "car"})
	require.NoError(t, err)

	booking, err := bs.BookSpot(ctx, customer, domain.CreateBookingDTO{SpotID: spot.ID})
	require.NoError(t, err)
	_, err = bs.EndBooking(ctx, customer, booking.ID)
	require.NoError(t, err)

	// AI chết không được làm hỏng analytics, chỉ thiếu predictions.
	analytics, err := ps.LotAnalytics(ctx, owner, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, analytics.TotalBookings)
	assert.Equal(t, 0, analytics.ActiveBookings)
	assert.Empty(t, analytics.Predictions)
}

func TestLotAnalyticsWithPredictions(t *testing.T) {
	ps, _ := newParkingFixture(t, &stubPredictor{occupancy: &ai.OccupancyPrediction{OccupancyRate: 0.42}})
	ctx := context.Background()

	lot, err := ps.CreateLot(ctx, owner, domain.ParkingLotDTO{Location: "Phoenix Mall"})
	require.NoError(t, err)
	_, err = ps.AddSpot(ctx, owner, lot.ID, domain.ParkingSpotDTO{Type: "car"})
	require.NoError(t, err)

	analytics, err := ps.LotAnalytics(ctx, owner, lot.ID)
	require.NoError(t, err)
	require.Len(t, analytics.Predictions, 8) // 24h / 3h
	assert.Equal(t, 0.42, analytics.Predictions[0].OccupancyRate)
}

func TestSuggestSpotPrice(t *testing.T) {
	ps, _ := newParkingFixture(t, &stubPredictor{price: &ai.PriceRecommendation{OptimalPrice: 47.777}})
	ctx := context.Background()

	lot, err := ps.CreateLot(ctx, owner, domain.ParkingLotDTO{Location: "Phoenix Mall"})
	require.NoError(t, err)
	spot, err := ps.AddSpot(ctx, owner, lot.ID, domain.ParkingSpotDTO{Type: "car"})
	require.NoError(t, err)

	suggestion, err := ps.SuggestSpotPrice(ctx, owner, spot.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, suggestion.CurrentPrice)
	assert.Equal(t, 47.78, suggestion.OptimalPrice)

	// Owner khác không gợi ý giá được cho spot không thuộc về mình.
	otherOwner := domain.Principal{ID: 9, Role: domain.RoleOwner}
	_, err = ps.SuggestSpotPrice(ctx, otherOwner, spot.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSuggestSpotPriceWithoutAI(t *testing.T) {
	ps, _ := newParkingFixture(t, ai.Noop{})
	ctx := context.Background()

	lot, err := ps.CreateLot(ctx, owner, domain.ParkingLotDTO{Location: "Phoenix Mall"})
	require.NoError(t, err)
	spot, err := ps.AddSpot(ctx, owner, lot.ID, domain.ParkingSpotDTO{Type: "car"})
	require.NoError(t, err)

	_, err = ps.SuggestSpotPrice(ctx, owner, spot.ID)
	assert.ErrorIs(t, err, ai.ErrUnavailable)
}
