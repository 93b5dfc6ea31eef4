package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"parkease/internal/ai"
	"parkease/internal/domain"
	"parkease/internal/repository"

	"github.com/rs/zerolog/log"
)

// OwnerOperations là toàn bộ thao tác dashboard của chủ bãi đỗ.
// Mọi method nhận Principal tường minh; dữ liệu trả về luôn được filter
// theo owner_id của principal.
type OwnerOperations interface {
	CreateLot(ctx context.Context, principal domain.Principal, dto domain.ParkingLotDTO) (*domain.ParkingLot, error)
	ListLots(ctx context.Context, principal domain.Principal) ([]domain.LotSummaryDTO, error)
	GetLot(ctx context.Context, principal domain.Principal, lotID int) (*domain.LotDetailDTO, error)
	UpdateLot(ctx context.Context, principal domain.Principal, lotID int, dto domain.ParkingLotDTO) (*domain.ParkingLot, error)
	DeleteLot(ctx context.Context, principal domain.Principal, lotID int) error
	AddSpot(ctx context.Context, principal domain.Principal, lotID int, dto domain.ParkingSpotDTO) (*domain.ParkingSpot, error)
	UpdateSpot(ctx context.Context, principal domain.Principal, spotID int, dto domain.ParkingSpotDTO) (*domain.ParkingSpot, error)
	DeleteSpot(ctx context.Context, principal domain.Principal, spotID int) error
	ListLotBookings(ctx context.Context, principal domain.Principal, lotID int) ([]domain.Booking, error)
	LotAnalytics(ctx context.Context, principal domain.Principal, lotID int) (*domain.LotAnalyticsDTO, error)
	SuggestSpotPrice(ctx context.Context, principal domain.Principal, spotID int) (*domain.PriceSuggestionDTO, error)
}

type ParkingService struct {
	lotRepo     repository.ParkingLotRepository
	spotRepo    repository.ParkingSpotRepository
	bookingRepo repository.BookingRepository
	predictor   ai.Predictor
}

func NewParkingService(
	lotRepo repository.ParkingLotRepository,
	spotRepo repository.ParkingSpotRepository,
	bookingRepo repository.BookingRepository,
	predictor ai.Predictor,
) *ParkingService {
	return &ParkingService{
		lotRepo:     lotRepo,
		spotRepo:    spotRepo,
		bookingRepo: bookingRepo,
		predictor:   predictor,
	}
}

// requireOwner là guard chung: principal rỗng → ErrUnauthorized,
// sai vai trò → ErrForbidden. Không bao giờ rơi về query không filter.
func requireOwner(principal domain.Principal) error {
	if principal.IsZero() {
		return ErrUnauthorized
	}
	if !principal.IsOwner() {
		return ErrForbidden
	}
	return nil
}

func (s *ParkingService) CreateLot(ctx context.Context, principal domain.Principal, dto domain.ParkingLotDTO) (*domain.ParkingLot, error) {
	if err := requireOwner(principal); err != nil {
		return nil, err
	}
	lot := &domain.ParkingLot{
		OwnerID:   principal.ID,
		Location:  dto.Location,
		Latitude:  dto.Latitude,
		Longitude: dto.Longitude,
	}
	return s.lotRepo.Create(ctx, lot)
}

func (s *ParkingService) ListLots(ctx context.Context, principal domain.Principal) ([]domain.LotSummaryDTO, error) {
	if err := requireOwner(principal); err != nil {
		return nil, err
	}
	lots, err := s.lotRepo.FindAllByOwner(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.LotSummaryDTO, 0, len(lots))
	for _, lot := range lots {
		spots, err := s.spotRepo.FindByLotID(ctx, lot.ID)
		if err != nil {
			return nil, fmt.Errorf("lỗi khi lấy chỗ đỗ của bãi %d: %w", lot.ID, err)
		}
		summary := domain.LotSummaryDTO{
			ParkingLot:  lot,
			TotalSpots:  len(spots),
			SpotsByType: map[string]int{},
			PriceByType: map[string]float64{},
		}
		priceSums := map[string]float64{}
		totalPrice := 0.0
		for _, spot := range spots {
			t := string(spot.Type)
			summary.SpotsByType[t]++
			priceSums[t] += spot.PricePerHour
			totalPrice += spot.PricePerHour
			if spot.Status == domain.StatusOccupied {
				summary.OccupiedSpots++
			}
		}
		if len(spots) > 0 {
			summary.AveragePrice = math.Round(totalPrice/float64(len(spots))*100) / 100
		}
		for t, sum := range priceSums {
			summary.PriceByType[t] = math.Round(sum/float64(summary.SpotsByType[t])*100) / 100
		}
		summary.ActiveBookings = summary.OccupiedSpots
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *ParkingService) GetLot(ctx context.Context, principal domain.Principal, lotID int) (*domain.LotDetailDTO, error) {
	if err := requireOwner(principal); err != nil {
		return nil, err
	}
	lot, err := s.lotRepo.FindByIDForOwner(ctx, lotID, principal.ID)
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

func (s *ParkingService) UpdateLot(ctx context.Context, principal domain.Principal, lotID int, dto domain.ParkingLotDTO) (*domain.ParkingLot, error) {
	if err := requireOwner(principal); err != nil {
		return nil, err
	}
	lot := &domain.ParkingLot{
		ID:        lotID,
		OwnerID:   principal.ID,
		Location:  dto.Location,
		Latitude:  dto.Latitude,
		Longitude: dto.Longitude,
	}
	return s.lotRepo.Update(ctx, lot, principal.ID)
}

func (s *ParkingService) DeleteLot(ctx context.Context, principal domain.Principal, lotID int) error {
	if err := requireOwner(principal); err != nil {
		return err
	}
	return s.lotRepo.Delete(ctx, lotID, principal.ID)
}

func (s *ParkingService) AddSpot(ctx context.Context, principal domain.Principal, lotID int, dto domain.ParkingSpotDTO) (*domain.ParkingSpot, error) {
	if err := requireOwner(principal); err != nil {
		return nil, err
	}
	spotType := domain.SpotType(dto.Type)
	if spotType == "small" {
		spotType = domain.TypeMotorcycle
	}
	if !domain.ValidSpotType(spotType) {
		return nil, fmt.Errorf("%w: loại chỗ đỗ không hợp lệ: %s", ErrValidation, dto.Type)
	}
	price := domain.DefaultPriceFor(spotType)
	if dto.PricePerHour != nil {
		if *dto.PricePerHour < 0 {
			return nil, fmt.Errorf("%w: giá theo giờ phải không âm", ErrValidation)
		}
		price = math.Round(*dto.PricePerHour*100) / 100
	}
	spot := &domain.ParkingSpot{
		LotID:        lotID,
		Type:         spotType,
		PricePerHour: price,
	}
	return s.spotRepo.Create(ctx, spot, principal.ID)
}

func (s *ParkingService) UpdateSpot(ctx context.Context, principal domain.Principal, spotID int, dto domain.ParkingSpotDTO) (*domain.ParkingSpot, error) {
	if err := requireOwner(principal); err != nil {
		return nil, err
	}
	spotType := domain.SpotType(dto.Type)
	if spotType == "small" {
		spotType = domain.TypeMotorcycle
	}
	if !domain.ValidSpotType(spotType) {
		return nil, fmt.Errorf("%w: loại chỗ đỗ không hợp lệ: %s", ErrValidation, dto.Type)
	}
	price := domain.DefaultPriceFor(spotType)
	if dto.PricePerHour != nil {
		if *dto.PricePerHour < 0 {
			return nil, fmt.Errorf("%w: giá theo giờ phải không âm", ErrValidation)
		}
		price = math.Round(*dto.PricePerHour*100) / 100
	}
	spot := &domain.ParkingSpot{
		ID:           spotID,
		Type:         spotType,
		PricePerHour: price,
	}
	return s.spotRepo.Update(ctx, spot, principal.ID)
}

func (s *ParkingService) DeleteSpot(ctx context.Context, principal domain.Principal, spotID int) error {
	if err := requireOwner(principal); err != nil {
		return err
	}
	return s.spotRepo.Delete(ctx, spotID, principal.ID)
}

func (s *ParkingService) ListLotBookings(ctx context.Context, principal domain.Principal, lotID int) ([]domain.Booking, error) {
	if err := requireOwner(principal); err != nil {
		return nil, err
	}
	// Xác nhận lot thuộc owner trước, để phân biệt 404 với danh sách rỗng.
	if _, err := s.lotRepo.FindByIDForOwner(ctx, lotID, principal.ID); err != nil {
		return nil, err
	}
	return s.bookingRepo.FindAllByLotForOwner(ctx, lotID, principal.ID)
}

// LotAnalytics tổng hợp thống kê booking của một bãi, kèm dự đoán AI
// best-effort: AI lỗi hay không cấu hình thì chỉ thiếu phần dự đoán.
func (s *ParkingService) LotAnalytics(ctx context.Context, principal domain.Principal, lotID int) (*domain.LotAnalyticsDTO, error) {
	if err := requireOwner(principal); err != nil {
		return nil, err
	}
	lot, err := s.lotRepo.FindByIDForOwner(ctx, lotID, principal.ID)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookingRepo.FindAllByLotForOwner(ctx, lotID, principal.ID)
	if err != nil {
		return nil, err
	}
	spots, err := s.spotRepo.FindByLotID(ctx, lotID)
	if err != nil {
		return nil, err
	}

	analytics := &domain.LotAnalyticsDTO{Lot: *lot, TotalSpots: len(spots)}
	for _, b := range bookings {
		analytics.TotalBookings++
		if b.Active() {
			analytics.ActiveBookings++
			continue
		}
		analytics.TotalRevenue += b.TotalCost.Float64
	}
	analytics.TotalRevenue = math.Round(analytics.TotalRevenue*100) / 100
	if closed := analytics.TotalBookings - analytics.ActiveBookings; closed > 0 {
		analytics.AvgBookingValue = math.Round(analytics.TotalRevenue/float64(closed)*100) / 100
	}

	if !s.predictor.Available() {
		return analytics, nil
	}
	// Dự đoán occupancy cho 24h tới, mỗi 3 giờ một điểm.
	now := time.Now()
	for offset := 0; offset < 24; offset += 3 {
		at := now.Add(time.Duration(offset) * time.Hour)
		prediction, err := s.predictor.PredictOccupancy(ctx, ai.FeaturesAt(lotID, len(spots), at))
		if err != nil {
			log.Warn().Err(err).Int("lot_id", lotID).Msg("Bỏ qua dự đoán occupancy: AI service lỗi")
			break
		}
		analytics.Predictions = append(analytics.Predictions, domain.OccupancyPoint{
			Time:          at.Format("15:04"),
			HourOffset:    offset,
			OccupancyRate: prediction.OccupancyRate,
		})
	}
	return analytics, nil
}

// SuggestSpotPrice hỏi AI service giá tối ưu cho một chỗ đỗ dựa trên
// occupancy hiện tại của bãi. Yêu cầu AI service phải được cấu hình.
func (s *ParkingService) SuggestSpotPrice(ctx context.Context, principal domain.Principal, spotID int) (*domain.PriceSuggestionDTO, error) {
	if err := requireOwner(principal); err != nil {
		return nil, err
	}
	spot, err := s.spotRepo.FindByID(ctx, spotID)
	if err != nil {
		return nil, err
	}
	// Xác nhận ownership qua lot, spot repo không filter FindByID.
	if _, err := s.lotRepo.FindByIDForOwner(ctx, spot.LotID, principal.ID); err != nil {
		return nil, err
	}
	if !s.predictor.Available() {
		return nil, ai.ErrUnavailable
	}

	spots, err := s.spotRepo.FindByLotID(ctx, spot.LotID)
	if err != nil {
		return nil, err
	}
	occupied := 0
	for _, sp := range spots {
		if sp.Status == domain.StatusOccupied {
			occupied++
		}
	}
	occupancyRate := 0.0
	if len(spots) > 0 {
		occupancyRate = float64(occupied) / float64(len(spots))
	}

	recommendation, err := s.predictor.OptimizePrice(ctx, ai.PriceQuery{
		Features:      ai.FeaturesAt(spot.LotID, len(spots), time.Now()),
		SpotType:      string(spot.Type),
		BasePrice:     spot.PricePerHour,
		OccupancyRate: occupancyRate,
	})
	if err != nil {
		return nil, err
	}
	return &domain.PriceSuggestionDTO{
		SpotID:        spot.ID,
		CurrentPrice:  spot.PricePerHour,
		OptimalPrice:  math.Round(recommendation.OptimalPrice*100) / 100,
		OccupancyRate: occupancyRate,
	}, nil
}
