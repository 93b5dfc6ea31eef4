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

type pgParkingSpotRepository struct {
	db *sql.DB
}

func NewPgParkingSpotRepository(db *sql.DB) repository.ParkingSpotRepository {
	return &pgParkingSpotRepository{db: db}
}

// Create đánh số spot kế tiếp trong lot và chèn với predicate ownership:
// subquery chỉ trả về lot_id khi lot thuộc owner, nên INSERT không chèn gì
// nếu owner không sở hữu lot.
func (r *pgParkingSpotRepository) Create(ctx context.Context, spot *domain.ParkingSpot, ownerID int) (*domain.ParkingSpot, error) {
	query := `INSERT INTO parking_spots (lot_id, spot_number, type, status, price_per_hour, created_at, updated_at)
	           SELECT l.id,
	                  COALESCE((SELECT MAX(spot_number) FROM parking_spots WHERE lot_id = l.id), 0) + 1,
	                  $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
	           FROM parking_lots l WHERE l.id = $1 AND l.owner_id = $2
	           RETURNING id, spot_number, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		spot.LotID, ownerID, spot.Type, domain.StatusAvailable, spot.PricePerHour,
	).Scan(&spot.ID, &spot.SpotNumber, &spot.CreatedAt, &spot.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" {
				return nil, fmt.Errorf("%w: chỗ đỗ đã tồn tại trong bãi %d", repository.ErrDuplicateEntry, spot.LotID)
			}
		}
		return nil, fmt.Errorf("ParkingSpotRepository.Create: %w", err)
	}
	spot.Status = domain.StatusAvailable
	spot.CreatedAt = spot.CreatedAt.In(time.UTC)
	spot.UpdatedAt = spot.UpdatedAt.In(time.UTC)
	return spot, nil
}

func (r *pgParkingSpotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error) {
	spot := &domain.ParkingSpot{}
	query := `SELECT id, lot_id, spot_number, type, status, price_per_hour, created_at, updated_at
	           FROM parking_spots WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&spot.ID, &spot.LotID, &spot.SpotNumber, &spot.Type, &spot.Status,
		&spot.PricePerHour, &spot.CreatedAt, &spot.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSpotRepository.FindByID: %w", err)
	}
	spot.CreatedAt = spot.CreatedAt.In(time.UTC)
	spot.UpdatedAt = spot.UpdatedAt.In(time.UTC)
	return spot, nil
}

func (r *pgParkingSpotRepository) FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	query := `SELECT id, lot_id, spot_number, type, status, price_per_hour, created_at, updated_at
	           FROM parking_spots WHERE lot_id = $1 ORDER BY spot_number`
	rows, err := r.db.QueryContext(ctx, query, lotID)
	if err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.FindByLotID: %w", err)
	}
	defer rows.Close()

	var spots []domain.ParkingSpot
	for rows.Next() {
		var spot domain.ParkingSpot
		if err := rows.Scan(&spot.ID, &spot.LotID, &spot.SpotNumber, &spot.Type, &spot.Status,
			&spot.PricePerHour, &spot.CreatedAt, &spot.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ParkingSpotRepository.FindByLotID (scanning row): %w", err)
		}
		spot.CreatedAt = spot.CreatedAt.In(time.UTC)
		spot.UpdatedAt = spot.UpdatedAt.In(time.UTC)
		spots = append(spots, spot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.FindByLotID (rows error): %w", err)
	}
	return spots, nil
}

func (r *pgParkingSpotRepository) Update(ctx context.Context, spot *domain.ParkingSpot, ownerID int) (*domain.ParkingSpot, error) {
	query := `UPDATE parking_spots s SET type = $1, price_per_hour = $2, updated_at = CURRENT_TIMESTAMP
	           FROM parking_lots l
	           WHERE s.id = $3 AND s.lot_id = l.id AND l.owner_id = $4
	           RETURNING s.lot_id, s.spot_number, s.status, s.updated_at`
	err := r.db.QueryRowContext(ctx, query, spot.Type, spot.PricePerHour, spot.ID, ownerID).
		Scan(&spot.LotID, &spot.SpotNumber, &spot.Status, &spot.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSpotRepository.Update: %w", err)
	}
	spot.UpdatedAt = spot.UpdatedAt.In(time.UTC)
	return spot, nil
}

func (r *pgParkingSpotRepository) Delete(ctx context.Context, id int, ownerID int) error {
	query := `DELETE FROM parking_spots s USING parking_lots l
	           WHERE s.id = $1 AND s.lot_id = l.id AND l.owner_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetStatusIf là compare-and-set một câu lệnh duy nhất, không phải
// read-then-write: hai request đặt cùng một chỗ thì đúng một request thắng.
func (r *pgParkingSpotRepository) SetStatusIf(ctx context.Context, id int, from, to domain.SpotStatus) error {
	query := `UPDATE parking_spots SET status = $1, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.SetStatusIf: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.SetStatusIf (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrConflict
	}
	return nil
}
