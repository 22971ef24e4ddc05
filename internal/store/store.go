package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"hotel-ops-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	// WithTx runs fn inside one database transaction. fn must only use
	// the Store it is given.
	WithTx(ctx context.Context, fn func(tx Store) error) error
	DB() *gorm.DB

	ListRooms(ctx context.Context, hotelID int64) ([]model.Room, error)
	GetRoom(ctx context.Context, hotelID, roomID int64) (model.Room, error)
	CountRooms(ctx context.Context, hotelID int64) (int64, error)
	CreateRooms(ctx context.Context, rooms []model.Room) error
	UpdateRoom(ctx context.Context, hotelID, roomID, expectedVersion int64, expectedState model.RoomState, set map[string]any) error
	DeleteRoom(ctx context.Context, hotelID, roomID int64) error
	AvailableRooms(ctx context.Context, hotelID int64, start, end time.Time) ([]model.Room, error)

	CreateReservation(ctx context.Context, r *model.Reservation) error
	GetReservation(ctx context.Context, hotelID int64, id string) (model.Reservation, error)
	ListReservations(ctx context.Context, hotelID int64, start, end time.Time) ([]model.Reservation, error)
	CountOverlapping(ctx context.Context, roomID int64, start, end time.Time, excludeID string) (int64, error)
	CountActiveReservations(ctx context.Context, roomID int64, excludeID string) (int64, error)
	UpdateReservationStatus(ctx context.Context, id string, expectedVersion int64, from, to model.ReservationStatus) error

	SaveAttendanceCode(ctx context.Context, code model.AttendanceCode) error
	ExpireAttendanceCodes(ctx context.Context, hotelID int64, at time.Time) error
	LatestAttendanceCode(ctx context.Context, hotelID int64) (model.AttendanceCode, error)
	OpenAttendance(ctx context.Context, employeeID int64) (model.AttendanceRecord, error)
	CreateAttendance(ctx context.Context, rec *model.AttendanceRecord) error
	CloseAttendance(ctx context.Context, id string, at time.Time) error
	ListAttendance(ctx context.Context, f AttendanceFilter) ([]model.AttendanceRecord, error)

	CreateGuestAccount(ctx context.Context, acc *model.GuestAccount) error

	SaveSubscription(ctx context.Context, sub model.PushSubscription, states []model.RoomState) error
	GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsFor(ctx context.Context, hotelID int64, state model.RoomState) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// isUniqueViolation recognises duplicate-key and exclusion-constraint
// failures from both postgres and sqlite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505 unique_violation, 23P01 exclusion_violation
		return pgErr.Code == "23505" || pgErr.Code == "23P01"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
