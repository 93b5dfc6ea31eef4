package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parkease/internal/domain"
	"parkease/internal/metrics"
	"parkease/internal/notify"
	"parkease/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CustomerOperations là các thao tác của khách đặt chỗ. Lots là inventory
// công khai nên BrowseLot không cần ownership; bookings thì luôn filter
// theo user_id của principal.
type CustomerOperations interface {
	BrowseLot(ctx context.Context, principal domain.Principal, lotID int) (*domain.LotDetailDTO, error)
	BookSpot(ctx context.Context, principal domain.Principal, dto domain.CreateBookingDTO) (*domain.Booking, error)
	EndBooking(ctx context.Context, principal domain.Principal, bookingID int) (*domain.Booking, error)
	ListBookings(ctx context.Context, principal domain.Principal) ([]domain.Booking, error)
	GetBooking(ctx context.Context, principal domain.Principal, bookingID int) (*domain.Booking, error)
}

type BookingService struct {
	bookingRepo repository.BookingRepository
	spotRepo    repository.ParkingSpotRepository
	lotRepo     repository.ParkingLotRepository
	notifier    notify.Notifier
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	spotRepo repository.ParkingSpotRepository,
	lotRepo repository.ParkingLotRepository,
	notifier notify.Notifier,
) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		spotRepo:    spotRepo,
		lotRepo:     lotRepo,
		notifier:    notifier,
	}
}

func requireCustomer(principal domain.Principal) error {
	if principal.IsZero() {
		return ErrUnauthorized
	}
	if !principal.IsCustomer() {
		return ErrForbidden
	}
	return nil
}

// BrowseLot cho khách xem chi tiết một bãi kèm trạng thái từng chỗ đỗ.
func (s *BookingService) BrowseLot(ctx context.Context, principal domain.Principal, lotID int) (*domain.LotDetailDTO, error) {
	if principal.IsZero() {
		return nil, ErrUnauthorized
	}
	lot, err := s.lotRepo.FindByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	spots, err := s.spotRepo.FindByLotID(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("lỗi khi lấy chỗ đỗ của bãi %d: %w", lotID, err)
	}
	return &domain.LotDetailDTO{
		ParkingLot: *lot,
		TotalSpots: len(spots),
		Spots:      spots,
	}, nil
}

// BookSpot đặt chỗ nguyên tử: chuyển spot available→occupied và tạo
// booking active trong cùng transaction. Thua cuộc đua → ErrConflict,
// không retry, không tạo booking.
func (s *BookingService) BookSpot(ctx context.Context, principal domain.Principal, dto domain.CreateBookingDTO) (*domain.Booking, error) {
	if err := requireCustomer(principal); err != nil {
		return nil, err
	}

	startTime := time.Now().In(time.UTC)
	if dto.StartTime != "" {
		parsed, err := time.Parse(time.RFC3339, dto.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%w: start_time phải theo định dạng RFC3339", ErrValidation)
		}
		startTime = parsed.In(time.UTC)
	}

	spot, err := s.spotRepo.FindByID(ctx, dto.SpotID)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		UserID:       principal.ID,
		LotID:        spot.LotID,
		SpotID:       spot.ID,
		StartTime:    startTime,
		PricePerHour: spot.PricePerHour, // chốt giá tại thời điểm đặt
	}
	created, err := s.bookingRepo.CreateActive(ctx, booking)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			metrics.IncBookingConflict()
		}
		return nil, err
	}
	metrics.IncBookingCreated()

	s.publishSpotEvent(ctx, spot.LotID, spot.ID, domain.StatusOccupied, created.ID)
	return created, nil
}

// EndBooking kết thúc booking active: tính tiền theo thời gian thực tế,
// đóng booking và trả spot về available. Customer chỉ đóng được booking
// của mình; owner được đóng booking trong bãi của mình (override).
func (s *BookingService) EndBooking(ctx context.Context, principal domain.Principal, bookingID int) (*domain.Booking, error) {
	if principal.IsZero() {
		return nil, ErrUnauthorized
	}

	var booking *domain.Booking
	var err error
	switch {
	case principal.IsCustomer():
		booking, err = s.bookingRepo.FindByIDForUser(ctx, bookingID, principal.ID)
	case principal.IsOwner():
		booking, err = s.bookingRepo.FindByIDForOwner(ctx, bookingID, principal.ID)
	default:
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	if !booking.Active() {
		return nil, fmt.Errorf("%w: booking đã kết thúc", repository.ErrConflict)
	}

	endTime := time.Now().In(time.UTC)
	totalCost := domain.CostFor(booking.PricePerHour, booking.StartTime, endTime)
	closed, err := s.bookingRepo.Close(ctx, bookingID, endTime, totalCost)
	if err != nil {
		return nil, err
	}

	s.publishSpotEvent(ctx, closed.LotID, closed.SpotID, domain.StatusAvailable, closed.ID)
	return closed, nil
}

func (s *BookingService) ListBookings(ctx context.Context, principal domain.Principal) ([]domain.Booking, error) {
	if err := requireCustomer(principal); err != nil {
		return nil, err
	}
	return s.bookingRepo.FindAllByUser(ctx, principal.ID)
}

func (s *BookingService) GetBooking(ctx context.Context, principal domain.Principal, bookingID int) (*domain.Booking, error) {
	if principal.IsZero() {
		return nil, ErrUnauthorized
	}
	if principal.IsOwner() {
		return s.bookingRepo.FindByIDForOwner(ctx, bookingID, principal.ID)
	}
	return s.bookingRepo.FindByIDForUser(ctx, bookingID, principal.ID)
}

// publishSpotEvent bắn event trạng thái chỗ đỗ, fire-and-forget.
func (s *BookingService) publishSpotEvent(ctx context.Context, lotID, spotID int, status domain.SpotStatus, bookingID int) {
	event := domain.SpotStatusEvent{
		EventID:    uuid.NewString(),
		LotID:      lotID,
		SpotID:     spotID,
		Status:     status,
		BookingID:  bookingID,
		OccurredAt: time.Now().In(time.UTC),
	}
	if err := s.notifier.PublishSpotStatus(ctx, event); err != nil {
		log.Warn().Err(err).Int("spot_id", spotID).Msg("Không publish được spot event")
	}
}
