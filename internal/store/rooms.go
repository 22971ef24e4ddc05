package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/occ"
	"hotel-ops-backend/internal/parse"
)

func sortRooms(rooms []model.Room) {
	sort.SliceStable(rooms, func(i, j int) bool {
		return parse.LessRoomNumber(rooms[i].RoomNumber, rooms[j].RoomNumber)
	})
}

// ListRooms returns all rooms of a hotel in room-number order.
func (s *gormStore) ListRooms(ctx context.Context, hotelID int64) ([]model.Room, error) {
	var rooms []model.Room
	if err := s.db.WithContext(ctx).Where("hotel_id = ?", hotelID).Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to list rooms of hotel %d: %w", hotelID, err)
	}
	sortRooms(rooms)
	return rooms, nil
}

func (s *gormStore) GetRoom(ctx context.Context, hotelID, roomID int64) (model.Room, error) {
	var room model.Room
	err := s.db.WithContext(ctx).Where("id = ? AND hotel_id = ?", roomID, hotelID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Room{}, apperr.NotFound("room %d not found", roomID)
	}
	if err != nil {
		return model.Room{}, fmt.Errorf("failed to load room %d: %w", roomID, err)
	}
	return room, nil
}

func (s *gormStore) CountRooms(ctx context.Context, hotelID int64) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Room{}).Where("hotel_id = ?", hotelID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count rooms of hotel %d: %w", hotelID, err)
	}
	return n, nil
}

// CreateRooms inserts rooms in one batch. A duplicate room number yields a
// Conflict.
func (s *gormStore) CreateRooms(ctx context.Context, rooms []model.Room) error {
	if len(rooms) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).CreateInBatches(&rooms, 200).Error
	if isUniqueViolation(err) {
		return apperr.Wrap(apperr.KindConflict, err, "room numbers already exist for hotel %d", rooms[0].HotelID)
	}
	if err != nil {
		return fmt.Errorf("batch insert rooms failed: %w", err)
	}
	return nil
}

// UpdateRoom is the compare-and-swap write for rooms. When expectedState
// is non-empty the row must also still be in that state. Returns
// occ.ErrStale when nothing matched.
func (s *gormStore) UpdateRoom(ctx context.Context, hotelID, roomID, expectedVersion int64, expectedState model.RoomState, set map[string]any) error {
	where := map[string]any{"id": roomID, "hotel_id": hotelID}
	if expectedState != "" {
		where["state"] = expectedState
	}
	return occ.Apply(s.db.WithContext(ctx), occ.Update{
		Model:    &model.Room{},
		Where:    where,
		Expected: expectedVersion,
		Set:      set,
	})
}

// DeleteRoom removes an inactive room that no open reservation refers to.
func (s *gormStore) DeleteRoom(ctx context.Context, hotelID, roomID int64) error {
	active := s.db.Model(&model.Reservation{}).Select("1").
		Where("room_id = ? AND status IN ?", roomID, model.ActiveReservationStatuses)
	res := s.db.WithContext(ctx).
		Where("id = ? AND hotel_id = ? AND active = ?", roomID, hotelID, false).
		Where("NOT EXISTS (?)", active).
		Delete(&model.Room{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete room %d: %w", roomID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("room %d must be inactive and free of open reservations to be deleted", roomID)
	}
	return nil
}

// AvailableRooms returns the bookable rooms of a hotel that no active
// reservation overlaps on [start, end).
func (s *gormStore) AvailableRooms(ctx context.Context, hotelID int64, start, end time.Time) ([]model.Room, error) {
	busy := s.db.Model(&model.Reservation{}).Select("room_id").
		Where("hotel_id = ? AND status IN ? AND start_at < ? AND end_at > ?",
			hotelID, model.ActiveReservationStatuses, end, start)

	var rooms []model.Room
	err := s.db.WithContext(ctx).
		Where("hotel_id = ? AND active = ? AND state <> ?", hotelID, true, model.RoomInactive).
		Where("id NOT IN (?)", busy).
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute availability for hotel %d: %w", hotelID, err)
	}
	sortRooms(rooms)
	return rooms, nil
}
