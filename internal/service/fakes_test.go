package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"parkease/internal/domain"
	"parkease/internal/repository"

	"gopkg.in/guregu/null.v4"
)

// In-memory repositories dùng cho test service layer. memBookingRepo khóa
// bằng mutex để giữ đúng tính nguyên tử của CreateActive/Close như bản
// Postgres thật.

type memUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1, users: map[int]domain.User{}}
}

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return nil, repository.ErrDuplicateEntry
		}
	}
	stored := *user
	stored.ID = r.nextID
	stored.CreatedAt = time.Now().In(time.UTC)
	r.nextID++
	r.users[stored.ID] = stored
	out := stored
	return &out, nil
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) FindByID(ctx context.Context, id int) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := u
	return &out, nil
}

type memLotRepo struct {
	mu     sync.Mutex
	nextID int
	lots   map[int]domain.ParkingLot
	spots  *memSpotRepo // để SearchCandidates tính availability
}

func newMemLotRepo(spots *memSpotRepo) *memLotRepo {
	return &memLotRepo{nextID: 1, lots: map[int]domain.ParkingLot{}, spots: spots}
}

func (r *memLotRepo) Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *lot
	stored.ID = r.nextID
	stored.CreatedAt = time.Now().In(time.UTC)
	stored.UpdatedAt = stored.CreatedAt
	r.nextID++
	r.lots[stored.ID] = stored
	out := stored
	return &out, nil
}

func (r *memLotRepo) FindByIDForOwner(ctx context.Context, id, ownerID int) (*domain.ParkingLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot, ok := r.lots[id]
	if !ok || lot.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	out := lot
	return &out, nil
}

func (r *memLotRepo) FindAllByOwner(ctx context.Context, ownerID int) ([]domain.ParkingLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ParkingLot
	for id := 1; id < r.nextID; id++ {
		if lot, ok := r.lots[id]; ok && lot.OwnerID == ownerID {
			out = append(out, lot)
		}
	}
	return out, nil
}

func (r *memLotRepo) Update(ctx context.Context, lot *domain.ParkingLot, ownerID int) (*domain.ParkingLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.lots[lot.ID]
	if !ok || existing.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	existing.Location = lot.Location
	existing.Latitude = lot.Latitude
	existing.Longitude = lot.Longitude
	existing.UpdatedAt = time.Now().In(time.UTC)
	r.lots[lot.ID] = existing
	out := existing
	return &out, nil
}

func (r *memLotRepo) Delete(ctx context.Context, id, ownerID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot, ok := r.lots[id]
	if !ok || lot.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.lots, id)
	return nil
}

func (r *memLotRepo) FindByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot, ok := r.lots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := lot
	return &out, nil
}

func (r *memLotRepo) SearchCandidates(ctx context.Context) ([]domain.SearchCandidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SearchCandidate
	for id := 1; id < r.nextID; id++ {
		lot, ok := r.lots[id]
		if !ok {
			continue
		}
		available := map[string]int{}
		if r.spots != nil {
			for _, spot := range r.spots.byLot(id) {
				if spot.Status == domain.StatusAvailable {
					available[string(spot.Type)]++
				}
			}
		}
		out = append(out, domain.SearchCandidate{Lot: lot, AvailableByType: available})
	}
	return out, nil
}

type memSpotRepo struct {
	mu     sync.Mutex
	nextID int
	spots  map[int]domain.ParkingSpot
	lots   *memLotRepo // set sau khi cả hai được tạo
}

func newMemSpotRepo() *memSpotRepo {
	return &memSpotRepo{nextID: 1, spots: map[int]domain.ParkingSpot{}}
}

func (r *memSpotRepo) byLot(lotID int) []domain.ParkingSpot {
	var out []domain.ParkingSpot
	for id := 1; id < r.nextID; id++ {
		if spot, ok := r.spots[id]; ok && spot.LotID == lotID {
			out = append(out, spot)
		}
	}
	return out
}

func (r *memSpotRepo) Create(ctx context.Context, spot *domain.ParkingSpot, ownerID int) (*domain.ParkingSpot, error) {
	if r.lots != nil {
		if _, err := r.lots.FindByIDForOwner(ctx, spot.LotID, ownerID); err != nil {
			return nil, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *spot
	stored.ID = r.nextID
	stored.SpotNumber = len(r.byLot(spot.LotID)) + 1
	stored.Status = domain.StatusAvailable
	r.nextID++
	r.spots[stored.ID] = stored
	out := stored
	return &out, nil
}

func (r *memSpotRepo) FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	spot, ok := r.spots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := spot
	return &out, nil
}

func (r *memSpotRepo) FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byLot(lotID), nil
}

func (r *memSpotRepo) Update(ctx context.Context, spot *domain.ParkingSpot, ownerID int) (*domain.ParkingSpot, error) {
	r.mu.Lock()
	existing, ok := r.spots[spot.ID]
	r.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	if r.lots != nil {
		if _, err := r.lots.FindByIDForOwner(ctx, existing.LotID, ownerID); err != nil {
			return nil, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing.Type = spot.Type
	existing.PricePerHour = spot.PricePerHour
	r.spots[spot.ID] = existing
	out := existing
	return &out, nil
}

func (r *memSpotRepo) Delete(ctx context.Context, id, ownerID int) error {
	r.mu.Lock()
	existing, ok := r.spots[id]
	r.mu.Unlock()
	if !ok {
		return repository.ErrNotFound
	}
	if r.lots != nil {
		if _, err := r.lots.FindByIDForOwner(ctx, existing.LotID, ownerID); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.spots, id)
	return nil
}

func (r *memSpotRepo) SetStatusIf(ctx context.Context, id int, from, to domain.SpotStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	spot, ok := r.spots[id]
	if !ok {
		return repository.ErrNotFound
	}
	if spot.Status != from {
		return repository.ErrConflict
	}
	spot.Status = to
	r.spots[id] = spot
	return nil
}

type memBookingRepo struct {
	mu       sync.Mutex
	nextID   int
	bookings map[int]domain.Booking
	spots    *memSpotRepo
	lots     *memLotRepo
}

func newMemBookingRepo(spots *memSpotRepo, lots *memLotRepo) *memBookingRepo {
	return &memBookingRepo{nextID: 1, bookings: map[int]domain.Booking{}, spots: spots, lots: lots}
}

func (r *memBookingRepo) CreateActive(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// CAS trên spot và insert booking trong cùng critical section,
	// mô phỏng transaction của bản Postgres.
	if err := r.spots.SetStatusIf(ctx, booking.SpotID, domain.StatusAvailable, domain.StatusOccupied); err != nil {
		return nil, err
	}
	stored := *booking
	stored.ID = r.nextID
	stored.CreatedAt = time.Now().In(time.UTC)
	stored.UpdatedAt = stored.CreatedAt
	r.nextID++
	r.bookings[stored.ID] = stored
	out := stored
	return &out, nil
}

func (r *memBookingRepo) Close(ctx context.Context, bookingID int, endTime time.Time, totalCost float64) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[bookingID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if booking.EndTime.Valid {
		return nil, repository.ErrConflict
	}
	booking.EndTime = null.TimeFrom(endTime)
	booking.TotalCost = null.FloatFrom(totalCost)
	booking.UpdatedAt = time.Now().In(time.UTC)
	r.bookings[bookingID] = booking

	_ = r.spots.SetStatusIf(ctx, booking.SpotID, domain.StatusOccupied, domain.StatusAvailable)
	out := booking
	return &out, nil
}

func (r *memBookingRepo) FindByIDForUser(ctx context.Context, id, userID int) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok || booking.UserID != userID {
		return nil, repository.ErrNotFound
	}
	out := booking
	return &out, nil
}

func (r *memBookingRepo) FindByIDForOwner(ctx context.Context, id, ownerID int) (*domain.Booking, error) {
	r.mu.Lock()
	booking, ok := r.bookings[id]
	r.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	if _, err := r.lots.FindByIDForOwner(ctx, booking.LotID, ownerID); err != nil {
		return nil, repository.ErrNotFound
	}
	out := booking
	return &out, nil
}

func (r *memBookingRepo) FindAllByUser(ctx context.Context, userID int) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Booking
	for id := 1; id < r.nextID; id++ {
		if b, ok := r.bookings[id]; ok && b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) FindAllByLotForOwner(ctx context.Context, lotID, ownerID int) ([]domain.Booking, error) {
	if _, err := r.lots.FindByIDForOwner(ctx, lotID, ownerID); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Booking
	for id := 1; id < r.nextID; id++ {
		if b, ok := r.bookings[id]; ok && b.LotID == lotID {
			out = append(out, b)
		}
	}
	return out, nil
}

// recordingNotifier gom lại mọi event đã publish.
type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.SpotStatusEvent
}

func (n *recordingNotifier) PublishSpotStatus(ctx context.Context, event domain.SpotStatusEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) published() []domain.SpotStatusEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.SpotStatusEvent, len(n.events))
	copy(out, n.events)
	return out
}

func newTestRepos() (*memUserRepo, *memLotRepo, *memSpotRepo, *memBookingRepo) {
	users := newMemUserRepo()
	spots := newMemSpotRepo()
	lots := newMemLotRepo(spots)
	spots.lots = lots
	bookings := newMemBookingRepo(spots, lots)
	return users, lots, spots, bookings
}
