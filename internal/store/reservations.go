package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/occ"
)

// CreateReservation inserts a reservation. When the postgres exclusion
// constraint is enabled, an overlap detected by the database surfaces
// as a Conflict.
func (s *gormStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	err := s.db.WithContext(ctx).Create(r).Error
	if isUniqueViolation(err) {
		return apperr.Wrap(apperr.KindConflict, err, "room %d is already booked for an overlapping period", r.RoomID)
	}
	if err != nil {
		return fmt.Errorf("failed to create reservation for room %d: %w", r.RoomID, err)
	}
	return nil
}

func (s *gormStore) GetReservation(ctx context.Context, hotelID int64, id string) (model.Reservation, error) {
	var r model.Reservation
	err := s.db.WithContext(ctx).Where("id = ? AND hotel_id = ?", id, hotelID).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Reservation{}, apperr.NotFound("reservation %s not found", id)
	}
	if err != nil {
		return model.Reservation{}, fmt.Errorf("failed to load reservation %s: %w", id, err)
	}
	return r, nil
}

// ListReservations returns the reservations of a hotel overlapping
// [start, end), whatever their status.
func (s *gormStore) ListReservations(ctx context.Context, hotelID int64, start, end time.Time) ([]model.Reservation, error) {
	var rs []model.Reservation
	err := s.db.WithContext(ctx).
		Where("hotel_id = ? AND start_at < ? AND end_at > ?", hotelID, end, start).
		Order("start_at").Order("room_id").
		Find(&rs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations of hotel %d: %w", hotelID, err)
	}
	return rs, nil
}

// CountOverlapping counts active reservations of a room whose period
// overlaps [start, end): max(a.start, start) < min(a.end, end).
func (s *gormStore) CountOverlapping(ctx context.Context, roomID int64, start, end time.Time, excludeID string) (int64, error) {
	q := s.db.WithContext(ctx).Model(&model.Reservation{}).
		Where("room_id = ? AND status IN ? AND start_at < ? AND end_at > ?",
			roomID, model.ActiveReservationStatuses, end, start)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to check overlaps for room %d: %w", roomID, err)
	}
	return n, nil
}

func (s *gormStore) CountActiveReservations(ctx context.Context, roomID int64, excludeID string) (int64, error) {
	q := s.db.WithContext(ctx).Model(&model.Reservation{}).
		Where("room_id = ? AND status IN ?", roomID, model.ActiveReservationStatuses)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count reservations of room %d: %w", roomID, err)
	}
	return n, nil
}

// UpdateReservationStatus is the compare-and-swap write for reservations.
func (s *gormStore) UpdateReservationStatus(ctx context.Context, id string, expectedVersion int64, from, to model.ReservationStatus) error {
	return occ.Apply(s.db.WithContext(ctx), occ.Update{
		Model:    &model.Reservation{},
		Where:    map[string]any{"id": id, "status": from},
		Expected: expectedVersion,
		Set:      map[string]any{"status": to},
	})
}
