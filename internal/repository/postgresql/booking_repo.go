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

type pgBookingRepository struct {
	db *sql.DB
}

func NewPgBookingRepository(db *sql.DB) repository.BookingRepository {
	return &pgBookingRepository{db: db}
}

// CreateActive thực hiện chuyển trạng thái Available→Occupied và chèn
// booking trong cùng 1 transaction. Bước UPDATE là check-and-set: điều kiện
// status = 'available' nằm ngay trong câu lệnh, nên N request đặt cùng một
// chỗ thì đúng 1 request thắng, các request còn lại nhận ErrConflict.
func (r *pgBookingRepository) CreateActive(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("BookingRepository.CreateActive (begin tx): %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE parking_spots SET status = $1, updated_at = CURRENT_TIMESTAMP
		  WHERE id = $2 AND status = $3`,
		domain.StatusOccupied, booking.SpotID, domain.StatusAvailable)
	if err != nil {
		return nil, fmt.Errorf("BookingRepository.CreateActive (occupying spot): %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("BookingRepository.CreateActive (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: chỗ đỗ %d không còn trống", repository.ErrConflict, booking.SpotID)
	}

	query := `INSERT INTO bookings (user_id, lot_id, spot_id, start_time, price_per_hour, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`
	err = tx.QueryRowContext(ctx, query,
		booking.UserID, booking.LotID, booking.SpotID, booking.StartTime, booking.PricePerHour,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			// Partial unique index: 1 active booking mỗi spot.
			if pqErr.Code.Name() == "unique_violation" {
				return nil, fmt.Errorf("%w: chỗ đỗ %d đã có booking đang hoạt động", repository.ErrConflict, booking.SpotID)
			}
		}
		return nil, fmt.Errorf("BookingRepository.CreateActive: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("BookingRepository.CreateActive (commit): %w", err)
	}
	booking.CreatedAt = booking.CreatedAt.In(time.UTC)
	booking.UpdatedAt = booking.UpdatedAt.In(time.UTC)
	return booking, nil
}

// Close đóng booking active và trả spot về available. Điều kiện
// end_time IS NULL đảm bảo đóng 2 lần thì lần sau nhận ErrConflict.
func (r *pgBookingRepository) Close(ctx context.Context, bookingID int, endTime time.Time, totalCost float64) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("BookingRepository.Close (begin tx): %w", err)
	}
	defer tx.Rollback()

	booking := &domain.Booking{}
	query := `UPDATE bookings SET end_time = $1, total_cost = $2, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $3 AND end_time IS NULL
	           RETURNING id, user_id, lot_id, spot_id, start_time, end_time, price_per_hour, total_cost, created_at, updated_at`
	err = tx.QueryRowContext(ctx, query, endTime, totalCost, bookingID).Scan(
		&booking.ID, &booking.UserID, &booking.LotID, &booking.SpotID, &booking.StartTime,
		&booking.EndTime, &booking.PricePerHour, &booking.TotalCost, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Phân biệt: booking không tồn tại hay đã đóng rồi.
			var exists bool
			checkErr := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, bookingID).Scan(&exists)
			if checkErr != nil {
				return nil, fmt.Errorf("BookingRepository.Close (checking existence): %w", checkErr)
			}
			if exists {
				return nil, fmt.Errorf("%w: booking %d đã được kết thúc trước đó", repository.ErrConflict, bookingID)
			}
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("BookingRepository.Close: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE parking_spots SET status = $1, updated_at = CURRENT_TIMESTAMP
		  WHERE id = $2 AND status = $3`,
		domain.StatusAvailable, booking.SpotID, domain.StatusOccupied)
	if err != nil {
		return nil, fmt.Errorf("BookingRepository.Close (releasing spot): %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("BookingRepository.Close (commit): %w", err)
	}
	booking.StartTime = booking.StartTime.In(time.UTC)
	booking.CreatedAt = booking.CreatedAt.In(time.UTC)
	booking.UpdatedAt = booking.UpdatedAt.In(time.UTC)
	return booking, nil
}

const bookingColumns = `b.id, b.user_id, b.lot_id, b.spot_id, b.start_time, b.end_time,
	b.price_per_hour, b.total_cost, b.created_at, b.updated_at, l.location, s.type`

func scanBooking(row interface{ Scan(...any) error }) (*domain.Booking, error) {
	booking := &domain.Booking{}
	err := row.Scan(
		&booking.ID, &booking.UserID, &booking.LotID, &booking.SpotID, &booking.StartTime,
		&booking.EndTime, &booking.PricePerHour, &booking.TotalCost,
		&booking.CreatedAt, &booking.UpdatedAt, &booking.Location, &booking.SpotType)
	if err != nil {
		return nil, err
	}
	booking.StartTime = booking.StartTime.In(time.UTC)
	booking.CreatedAt = booking.CreatedAt.In(time.UTC)
	booking.UpdatedAt = booking.UpdatedAt.In(time.UTC)
	return booking, nil
}

func (r *pgBookingRepository) FindByIDForUser(ctx context.Context, id int, userID int) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + `
	           FROM bookings b
	           JOIN parking_lots l ON l.id = b.lot_id
	           JOIN parking_spots s ON s.id = b.spot_id
	           WHERE b.id = $1 AND b.user_id = $2`
	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("BookingRepository.FindByIDForUser: %w", err)
	}
	return booking, nil
}

func (r *pgBookingRepository) FindByIDForOwner(ctx context.Context, id int, ownerID int) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + `
	           FROM bookings b
	           JOIN parking_lots l ON l.id = b.lot_id
	           JOIN parking_spots s ON s.id = b.spot_id
	           WHERE b.id = $1 AND l.owner_id = $2`
	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("BookingRepository.FindByIDForOwner: %w", err)
	}
	return booking, nil
}

func (r *pgBookingRepository) FindAllByUser(ctx context.Context, userID int) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + `
	           FROM bookings b
	           JOIN parking_lots l ON l.id = b.lot_id
	           JOIN parking_spots s ON s.id = b.spot_id
	           WHERE b.user_id = $1
	           ORDER BY b.start_time DESC`
	return r.queryBookings(ctx, query, "FindAllByUser", userID)
}

func (r *pgBookingRepository) FindAllByLotForOwner(ctx context.Context, lotID int, ownerID int) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + `
	           FROM bookings b
	           JOIN parking_lots l ON l.id = b.lot_id
	           JOIN parking_spots s ON s.id = b.spot_id
	           WHERE b.lot_id = $1 AND l.owner_id = $2
	           ORDER BY b.start_time ASC`
	return r.queryBookings(ctx, query, "FindAllByLotForOwner", lotID, ownerID)
}

func (r *pgBookingRepository) queryBookings(ctx context.Context, query, op string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("BookingRepository.%s: %w", op, err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("BookingRepository.%s (scanning row): %w", op, err)
		}
		bookings = append(bookings, *booking)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("BookingRepository.%s (rows error): %w", op, err)
	}
	return bookings, nil
}
