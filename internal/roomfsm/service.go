package roomfsm

import (
	"context"
	"log"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/occ"
	"hotel-ops-backend/internal/parse"
	"hotel-ops-backend/internal/store"
)

// Event describes a committed room transition.
type Event struct {
	HotelID    int64
	RoomID     int64
	RoomNumber string
	From       model.RoomState
	To         model.RoomState
	Version    int64
}

// Notifier receives committed transitions. Implementations must not block.
type Notifier interface {
	RoomStateChanged(ev Event)
}

// Service applies room lifecycle operations.
type Service struct {
	store    store.Store
	notifier Notifier
}

// NewService creates a room service. notifier may be nil.
func NewService(s store.Store, notifier Notifier) *Service {
	return &Service{store: s, notifier: notifier}
}

func (s *Service) List(ctx context.Context, hotelID int64) ([]model.Room, error) {
	return s.store.ListRooms(ctx, hotelID)
}

func (s *Service) Get(ctx context.Context, hotelID, roomID int64) (model.Room, error) {
	return s.store.GetRoom(ctx, hotelID, roomID)
}

// AllowedTargets returns the states the room may move to next.
func (s *Service) AllowedTargets(ctx context.Context, hotelID, roomID int64) ([]model.RoomState, error) {
	room, err := s.store.GetRoom(ctx, hotelID, roomID)
	if err != nil {
		return nil, err
	}
	return AllowedTargets(room.State), nil
}

// RequestTransition moves a room to target if the table allows it and
// the caller's version is still current.
func (s *Service) RequestTransition(ctx context.Context, hotelID, roomID int64, target model.RoomState, expectedVersion int64) (model.Room, error) {
	room, err := s.store.GetRoom(ctx, hotelID, roomID)
	if err != nil {
		return model.Room{}, err
	}

	updated, ev, err := Apply(ctx, s.store, room, target, expectedVersion)
	if err != nil {
		return model.Room{}, err
	}
	s.Publish(ev)
	return updated, nil
}

// Apply validates and writes one transition through st, which may be a
// transaction. The write only lands if the row still has the state and
// version that were validated. Callers publish the event after commit.
func Apply(ctx context.Context, st store.Store, room model.Room, target model.RoomState, expectedVersion int64) (model.Room, Event, error) {
	if !Valid(target) {
		return model.Room{}, Event{}, apperr.Validation("unknown room state %q", target)
	}
	if !CanTransition(room.State, target) {
		return model.Room{}, Event{}, apperr.InvalidTransition("room %s cannot go from %s to %s", room.RoomNumber, room.State, target)
	}
	if err := occ.Verify("room", room.ID, expectedVersion, room.Version); err != nil {
		return model.Room{}, Event{}, err
	}

	err := st.UpdateRoom(ctx, room.HotelID, room.ID, expectedVersion, room.State, map[string]any{"state": target})
	if err != nil {
		return model.Room{}, Event{}, occ.Conflict(err, "room", room.ID)
	}

	updated, err := st.GetRoom(ctx, room.HotelID, room.ID)
	if err != nil {
		return model.Room{}, Event{}, err
	}
	return updated, Event{
		HotelID:    room.HotelID,
		RoomID:     room.ID,
		RoomNumber: room.RoomNumber,
		From:       room.State,
		To:         target,
		Version:    updated.Version,
	}, nil
}

// Publish forwards committed transitions to the notifier.
func (s *Service) Publish(events ...Event) {
	if s.notifier == nil {
		return
	}
	for _, ev := range events {
		s.notifier.RoomStateChanged(ev)
	}
}

// Structure is the physical layout of a hotel.
type Structure struct {
	Floors        int
	RoomsPerFloor int
	// RoomTypes are assigned round-robin along each floor.
	RoomTypes []string
}

const (
	maxFloors        = 200
	maxRoomsPerFloor = 99
	defaultRoomType  = "STANDARD"
)

// SetupStructure creates Floors x RoomsPerFloor rooms in LIBRE. The
// structure is immutable once any room exists for the hotel.
func (s *Service) SetupStructure(ctx context.Context, hotelID int64, st Structure) ([]model.Room, error) {
	if st.Floors < 1 || st.Floors > maxFloors {
		return nil, apperr.Validation("floors must be between 1 and %d", maxFloors)
	}
	if st.RoomsPerFloor < 1 || st.RoomsPerFloor > maxRoomsPerFloor {
		return nil, apperr.Validation("roomsPerFloor must be between 1 and %d", maxRoomsPerFloor)
	}
	types := st.RoomTypes
	if len(types) == 0 {
		types = []string{defaultRoomType}
	}
	for _, t := range types {
		if t == "" {
			return nil, apperr.Validation("room types must not be empty")
		}
	}

	rooms := make([]model.Room, 0, st.Floors*st.RoomsPerFloor)
	for floor := 1; floor <= st.Floors; floor++ {
		for seq := 1; seq <= st.RoomsPerFloor; seq++ {
			rooms = append(rooms, model.Room{
				HotelID:    hotelID,
				RoomNumber: parse.RoomNumber(floor, seq),
				Floor:      floor,
				RoomType:   types[(seq-1)%len(types)],
				State:      model.RoomLibre,
				Version:    1,
				Active:     true,
			})
		}
	}

	err := s.store.WithTx(ctx, func(tx store.Store) error {
		n, err := tx.CountRooms(ctx, hotelID)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflict("hotel %d already has %d rooms; its structure can no longer change", hotelID, n)
		}
		return tx.CreateRooms(ctx, rooms)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("hotel %d structure created: %d floors x %d rooms", hotelID, st.Floors, st.RoomsPerFloor)
	return s.store.ListRooms(ctx, hotelID)
}

// SetActive flips the structural active flag of a room.
func (s *Service) SetActive(ctx context.Context, hotelID, roomID int64, active bool, expectedVersion int64) (model.Room, error) {
	room, err := s.store.GetRoom(ctx, hotelID, roomID)
	if err != nil {
		return model.Room{}, err
	}
	if err := occ.Verify("room", room.ID, expectedVersion, room.Version); err != nil {
		return model.Room{}, err
	}
	if err := s.store.UpdateRoom(ctx, hotelID, roomID, expectedVersion, "", map[string]any{"active": active}); err != nil {
		return model.Room{}, occ.Conflict(err, "room", roomID)
	}
	return s.store.GetRoom(ctx, hotelID, roomID)
}

// Delete destroys an inactive room that no open reservation refers to.
func (s *Service) Delete(ctx context.Context, hotelID, roomID int64) error {
	if _, err := s.store.GetRoom(ctx, hotelID, roomID); err != nil {
		return err
	}
	return s.store.DeleteRoom(ctx, hotelID, roomID)
}
