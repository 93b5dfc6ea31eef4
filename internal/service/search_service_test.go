package service

import (
	"context"
	"testing"

	"parkease/internal/ai"
	"parkease/internal/domain"
	"parkease/internal/nlp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSearchFixture(t *testing.T) (*SearchService, *ParkingService, *BookingService) {
	t.Helper()
	_, lots, spots, bookings := newTestRepos()
	ps := NewParkingService(lots, spots, bookings, ai.Noop{})
	bs := NewBookingService(bookings, spots, lots, &recordingNotifier{})
	ss := NewSearchService(lots, nlp.NewMatcher(1))

	ctx := context.Background()
	amc, err := ps.CreateLot(ctx, owner, domain.ParkingLotDTO{Location: "AMC Engineering College"})
	require.NoError(t, err)
	mall, err := ps.CreateLot(ctx, owner, domain.ParkingLotDTO{Location: "Phoenix Mall Whitefield"})
	require.NoError(t, err)

	_, err = ps.AddSpot(ctx, owner, amc.ID, domain.ParkingSpotDTO{Type: "car"})
	require.NoError(t, err)
	_, err = ps.AddSpot(ctx, owner, mall.ID, domain.ParkingSpotDTO{Type: "bike"})
	require.NoError(t, err)

	return ss, ps, bs
}

func TestSearchMatchesLocation(t *testing.T) {
	ss, _, _ := newSearchFixture(t)

	matches, err := ss.Search(context.Background(), customer, domain.SearchRequestDTO{Query: "car parking near AMC engineering college"})
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "AMC Engineering College", matches[0].Lot.Location)
	assert.Equal(t, "car", matches[0].VehicleType)
}

func TestSearchEmptyResultIsNotError(t *testing.T) {
	ss, _, _ := newSearchFixture(t)

	matches, err := ss.Search(context.Background(), customer, domain.SearchRequestDTO{Query: "airport terminal"})
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestSearchRequiresPrincipal(t *testing.T) {
	ss, _, _ := newSearchFixture(t)

	_, err := ss.Search(context.Background(), domain.Principal{}, domain.SearchRequestDTO{Query: "mall"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSearchReflectsAvailability(t *testing.T) {
	ss, _, bs := newSearchFixture(t)
	ctx := context.Background()

	// Trước khi đặt: chỉ bãi có chỗ bike trống xuất hiện với query bike.
	matches, err := ss.Search(ctx, customer, domain.SearchRequestDTO{Query: "bike parking"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	spotID := 0
	for _, count := range matches[0].AvailableByType {
		assert.Greater(t, count, 0)
	}
	assert.Equal(t, "Phoenix Mall Whitefield", matches[0].Lot.Location)

	// Đặt chỗ bike duy nhất rồi search lại: bãi biến mất khỏi kết quả.
	detail, err := bs.BrowseLot(ctx, customer, matches[0].Lot.ID)
	require.NoError(t, err)
	spotID = detail.Spots[0].ID
	_, err = bs.BookSpot(ctx, customer, domain.CreateBookingDTO{SpotID: spotID})
	require.NoError(t, err)

	matches, err = ss.Search(ctx, customer, domain.SearchRequestDTO{Query: "bike parking"})
	require.NoError(t, err)
	assert.Empty(t, matches)
}
