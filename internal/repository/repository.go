package repository

import (
	"context"
	"errors"
	"time"

	"parkease/internal/domain"
)

var ErrNotFound = errors.New("không tìm thấy bản ghi")
var ErrDuplicateEntry = errors.New("bản ghi đã tồn tại")

// ErrConflict báo hiệu thua cuộc đua đặt chỗ: chỗ đỗ đã occupied hoặc
// booking đã được kết thúc trước đó. Không bao giờ retry tự động.
var ErrConflict = errors.New("xung đột trạng thái chỗ đỗ")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
}

// ParkingLotRepository chỉ expose accessor có filter theo principal cho
// các thao tác quản lý. Lots là inventory công khai với customer nên
// FindByID và SearchCandidates không cần ownerID.
type ParkingLotRepository interface {
	Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	FindByIDForOwner(ctx context.Context, id int, ownerID int) (*domain.ParkingLot, error)
	FindAllByOwner(ctx context.Context, ownerID int) ([]domain.ParkingLot, error)
	Update(ctx context.Context, lot *domain.ParkingLot, ownerID int) (*domain.ParkingLot, error)
	// Delete xóa lot cùng spots và bookings liên quan trong 1 transaction.
	Delete(ctx context.Context, id int, ownerID int) error

	FindByID(ctx context.Context, id int) (*domain.ParkingLot, error)
	// SearchCandidates trả về mọi lot kèm số chỗ trống theo loại xe.
	SearchCandidates(ctx context.Context) ([]domain.SearchCandidate, error)
}

type ParkingSpotRepository interface {
	// Create chèn spot sau khi xác nhận lot thuộc về owner; spot mới luôn available.
	Create(ctx context.Context, spot *domain.ParkingSpot, ownerID int) (*domain.ParkingSpot, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error)
	FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error)
	Update(ctx context.Context, spot *domain.ParkingSpot, ownerID int) (*domain.ParkingSpot, error)
	Delete(ctx context.Context, id int, ownerID int) error
	// SetStatusIf là check-and-set nguyên tử: chỉ đổi trạng thái khi trạng
	// thái hiện tại đúng bằng from. Trả về ErrConflict khi thua cuộc đua.
	SetStatusIf(ctx context.Context, id int, from, to domain.SpotStatus) error
}

type BookingRepository interface {
	// CreateActive chuyển spot available→occupied và chèn booking active
	// trong cùng 1 transaction. ErrConflict nếu spot đã occupied.
	CreateActive(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	// Close đóng booking đang active (set end_time, total_cost) và trả spot
	// về available trong cùng 1 transaction. ErrConflict nếu đã đóng rồi.
	Close(ctx context.Context, bookingID int, endTime time.Time, totalCost float64) (*domain.Booking, error)

	FindByIDForUser(ctx context.Context, id int, userID int) (*domain.Booking, error)
	// FindByIDForOwner join qua lots: administrative override cho chủ bãi.
	FindByIDForOwner(ctx context.Context, id int, ownerID int) (*domain.Booking, error)
	FindAllByUser(ctx context.Context, userID int) ([]domain.Booking, error)
	FindAllByLotForOwner(ctx context.Context, lotID int, ownerID int) ([]domain.Booking, error)
}
