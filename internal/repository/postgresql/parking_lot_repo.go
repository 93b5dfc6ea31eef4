package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parkease/internal/domain"
	"parkease/internal/repository"

	"github.com/lib/pq"
)

type pgParkingLotRepository struct {
	db *sql.DB
}

func NewPgParkingLotRepository(db *sql.DB) repository.ParkingLotRepository {
	return &pgParkingLotRepository{db: db}
}

func (r *pgParkingLotRepository) Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	query := `INSERT INTO parking_lots (owner_id, location, latitude, longitude)
	           VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, lot.OwnerID, lot.Location, lot.Latitude, lot.Longitude).
		Scan(&lot.ID, &lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" {
				return nil, fmt.Errorf("%w: bãi đỗ xe '%s' đã tồn tại", repository.ErrDuplicateEntry, lot.Location)
			}
		}
		return nil, fmt.Errorf("ParkingLotRepository.Create: %w", err)
	}
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) FindByIDForOwner(ctx context.Context, id int, ownerID int) (*domain.ParkingLot, error) {
	lot := &domain.ParkingLot{}
	query := `SELECT id, owner_id, location, latitude, longitude, created_at, updated_at
	           FROM parking_lots WHERE id = $1 AND owner_id = $2`
	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&lot.ID, &lot.OwnerID, &lot.Location, &lot.Latitude, &lot.Longitude, &lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.FindByIDForOwner: %w", err)
	}
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) FindAllByOwner(ctx context.Context, ownerID int) ([]domain.ParkingLot, error) {
	query := `SELECT id, owner_id, location, latitude, longitude, created_at, updated_at
	           FROM parking_lots WHERE owner_id = $1 ORDER BY location`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindAllByOwner: %w", err)
	}
	defer rows.Close()

	var lots []domain.ParkingLot
	for rows.Next() {
		var lot domain.ParkingLot
		if err := rows.Scan(&lot.ID, &lot.OwnerID, &lot.Location, &lot.Latitude, &lot.Longitude, &lot.CreatedAt, &lot.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ParkingLotRepository.FindAllByOwner (scanning row): %w", err)
		}
		lot.CreatedAt = lot.CreatedAt.In(time.UTC)
		lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
		lots = append(lots, lot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindAllByOwner (rows error): %w", err)
	}
	return lots, nil
}

func (r *pgParkingLotRepository) Update(ctx context.Context, lot *domain.ParkingLot, ownerID int) (*domain.ParkingLot, error) {
	query := `UPDATE parking_lots SET location = $1, latitude = $2, longitude = $3, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $4 AND owner_id = $5 RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, lot.Location, lot.Latitude, lot.Longitude, lot.ID, ownerID).
		Scan(&lot.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.Update: %w", err)
	}
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

// Delete xóa bookings, spots rồi đến lot trong 1 transaction.
// Predicate owner_id nằm ngay trong câu DELETE đầu tiên: lot không thuộc
// owner thì không có gì bị xóa.
func (r *pgParkingLotRepository) Delete(ctx context.Context, id int, ownerID int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.Delete (begin tx): %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM parking_lots WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	// Spots xóa theo ON DELETE CASCADE; bookings giữ lại làm lịch sử
	// nhưng phải đóng để không còn active booking trỏ tới spot đã xóa.
	_, err = tx.ExecContext(ctx,
		`UPDATE bookings SET end_time = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		  WHERE lot_id = $1 AND end_time IS NULL`, id)
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.Delete (closing bookings): %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ParkingLotRepository.Delete (commit): %w", err)
	}
	return nil
}

func (r *pgParkingLotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	lot := &domain.ParkingLot{}
	query := `SELECT id, owner_id, location, latitude, longitude, created_at, updated_at
	           FROM parking_lots WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&lot.ID, &lot.OwnerID, &lot.Location, &lot.Latitude, &lot.Longitude, &lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.FindByID: %w", err)
	}
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) SearchCandidates(ctx context.Context) ([]domain.SearchCandidate, error) {
	query := `SELECT l.id, l.owner_id, l.location, l.latitude, l.longitude, l.created_at, l.updated_at,
	                 s.type, COUNT(s.id)
	           FROM parking_lots l
	           JOIN parking_spots s ON s.lot_id = l.id AND s.status = $1
	           GROUP BY l.id, s.type
	           ORDER BY l.id`
	rows, err := r.db.QueryContext(ctx, query, domain.StatusAvailable)
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.SearchCandidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.SearchCandidate
	index := map[int]int{}
	for rows.Next() {
		var lot domain.ParkingLot
		var spotType string
		var count int
		if err := rows.Scan(&lot.ID, &lot.OwnerID, &lot.Location, &lot.Latitude, &lot.Longitude,
			&lot.CreatedAt, &lot.UpdatedAt, &spotType, &count); err != nil {
			return nil, fmt.Errorf("ParkingLotRepository.SearchCandidates (scanning row): %w", err)
		}
		lot.CreatedAt = lot.CreatedAt.In(time.UTC)
		lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
		pos, seen := index[lot.ID]
		if !seen {
			candidates = append(candidates, domain.SearchCandidate{
				Lot:             lot,
				AvailableByType: map[string]int{},
			})
			pos = len(candidates) - 1
			index[lot.ID] = pos
		}
		candidates[pos].AvailableByType[spotType] = count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.SearchCandidates (rows error): %w", err)
	}
	return candidates, nil
}
