// Package booking allocates rooms for guest stays. Availability listings
// are advisory; Reserve re-checks overlaps inside its own transaction and
// serializes concurrent bookings of a room on the room's version.
package booking

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/clock"
	"hotel-ops-backend/internal/identity"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/occ"
	"hotel-ops-backend/internal/roomfsm"
	"hotel-ops-backend/internal/store"
)

// Request is a booking for one room.
type Request struct {
	HotelID   int64
	RoomID    int64
	FirstName string
	LastName  string
	Start     time.Time
	End       time.Time
	// Channel is model.ChannelPublic or model.ChannelStaff (the default).
	Channel string
}

// Result is a created reservation. Credentials is only set for public
// bookings.
type Result struct {
	Reservation model.Reservation
	Credentials *identity.Credentials
}

type Engine struct {
	store       store.Store
	rooms       *roomfsm.Service
	provisioner identity.Provisioner
	clock       clock.Clock
}

// NewEngine wires the engine. rooms publishes the room transitions driven
// by bookings after they commit.
func NewEngine(s store.Store, rooms *roomfsm.Service, provisioner identity.Provisioner, c clock.Clock) *Engine {
	if c == nil {
		c = clock.Real()
	}
	return &Engine{store: s, rooms: rooms, provisioner: provisioner, clock: c}
}

func normalizePeriod(start, end time.Time) (time.Time, time.Time, error) {
	if start.IsZero() || end.IsZero() {
		return time.Time{}, time.Time{}, apperr.Validation("start and end are required")
	}
	start = start.UTC().Truncate(time.Second)
	end = end.UTC().Truncate(time.Second)
	if !start.Before(end) {
		return time.Time{}, time.Time{}, apperr.Validation("start %s must be before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return start, end, nil
}

// ListAvailable returns the rooms no active reservation overlaps on
// [start, end).
func (e *Engine) ListAvailable(ctx context.Context, hotelID int64, start, end time.Time) ([]model.Room, error) {
	start, end, err := normalizePeriod(start, end)
	if err != nil {
		return nil, err
	}
	return e.store.AvailableRooms(ctx, hotelID, start, end)
}

// Reserve books a room for [req.Start, req.End).
func (e *Engine) Reserve(ctx context.Context, req Request) (Result, error) {
	start, end, err := normalizePeriod(req.Start, req.End)
	if err != nil {
		return Result{}, err
	}
	if !end.After(e.clock.Now()) {
		return Result{}, apperr.Validation("stay must end in the future")
	}
	first, last := strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)
	if first == "" || last == "" {
		return Result{}, apperr.Validation("firstName and lastName are required")
	}

	channel := req.Channel
	status := model.ReservationPending
	switch channel {
	case "", model.ChannelStaff:
		channel = model.ChannelStaff
	case model.ChannelPublic:
		status = model.ReservationConfirmed
	default:
		return Result{}, apperr.Validation("unknown booking channel %q", req.Channel)
	}

	res := model.Reservation{
		ID:        uuid.NewString(),
		HotelID:   req.HotelID,
		RoomID:    req.RoomID,
		FirstName: first,
		LastName:  last,
		Channel:   channel,
		StartAt:   start,
		EndAt:     end,
		Status:    status,
		Version:   1,
	}

	var (
		events []roomfsm.Event
		creds  *identity.Credentials
	)
	err = e.store.WithTx(ctx, func(tx store.Store) error {
		room, err := tx.GetRoom(ctx, req.HotelID, req.RoomID)
		if err != nil {
			return err
		}
		if !room.Active || room.State == model.RoomInactive {
			return apperr.Conflict("room %s is not bookable", room.RoomNumber)
		}

		n, err := tx.CountOverlapping(ctx, room.ID, start, end, "")
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflict("room %s is already booked between %s and %s",
				room.RoomNumber, start.Format(time.RFC3339), end.Format(time.RFC3339))
		}

		if err := tx.CreateReservation(ctx, &res); err != nil {
			return err
		}

		// Every booking bumps the room version so that two transactions
		// that both saw no overlap cannot both commit.
		if roomfsm.CanTransition(room.State, model.RoomReservee) {
			_, ev, err := roomfsm.Apply(ctx, tx, room, model.RoomReservee, room.Version)
			if err != nil {
				return bookingRace(err, room)
			}
			events = append(events, ev)
		} else if err := tx.UpdateRoom(ctx, room.HotelID, room.ID, room.Version, "", map[string]any{}); err != nil {
			return bookingRace(occ.Conflict(err, "room", room.ID), room)
		}

		if channel == model.ChannelPublic && e.provisioner != nil {
			c, err := e.provisioner.Provision(ctx, tx, identity.GuestRequest{
				HotelID:       res.HotelID,
				ReservationID: res.ID,
				FirstName:     first,
				LastName:      last,
			})
			if err != nil {
				return err
			}
			creds = &c
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	log.Printf("reservation %s created for room %d (%s, %s)", res.ID, res.RoomID, channel, status)
	e.publish(events)
	saved, err := e.store.GetReservation(ctx, req.HotelID, res.ID)
	if err != nil {
		return Result{}, err
	}
	return Result{Reservation: saved, Credentials: creds}, nil
}

// bookingRace turns a lost room compare-and-swap into a booking Conflict:
// the caller should refresh availability rather than retry blindly.
func bookingRace(err error, room model.Room) error {
	if apperr.Is(err, apperr.KindOptimisticLock) {
		return apperr.Wrap(apperr.KindConflict, err, "room %s was booked or changed concurrently; refresh availability and retry", room.RoomNumber)
	}
	return err
}

func (e *Engine) Get(ctx context.Context, hotelID int64, id string) (model.Reservation, error) {
	return e.store.GetReservation(ctx, hotelID, id)
}

// List returns reservations of any status overlapping [start, end).
func (e *Engine) List(ctx context.Context, hotelID int64, start, end time.Time) ([]model.Reservation, error) {
	start, end, err := normalizePeriod(start, end)
	if err != nil {
		return nil, err
	}
	return e.store.ListReservations(ctx, hotelID, start, end)
}

// AllowedStatuses looks the reservation up and returns its next statuses.
func (e *Engine) AllowedStatuses(ctx context.Context, hotelID int64, id string) ([]model.ReservationStatus, error) {
	r, err := e.store.GetReservation(ctx, hotelID, id)
	if err != nil {
		return nil, err
	}
	return AllowedStatuses(r.Status), nil
}

// UpdateStatus moves a reservation to target and applies the matching
// room transition in the same transaction when the room allows it.
func (e *Engine) UpdateStatus(ctx context.Context, hotelID int64, id string, target model.ReservationStatus, expectedVersion int64) (model.Reservation, error) {
	if !ValidStatus(target) {
		return model.Reservation{}, apperr.Validation("unknown reservation status %q", target)
	}

	var events []roomfsm.Event
	err := e.store.WithTx(ctx, func(tx store.Store) error {
		r, err := tx.GetReservation(ctx, hotelID, id)
		if err != nil {
			return err
		}
		if !CanChangeStatus(r.Status, target) {
			return apperr.InvalidTransition("reservation %s cannot go from %s to %s", r.ID, r.Status, target)
		}
		if err := occ.Verify("reservation", r.ID, expectedVersion, r.Version); err != nil {
			return err
		}
		if err := tx.UpdateReservationStatus(ctx, r.ID, expectedVersion, r.Status, target); err != nil {
			return occ.Conflict(err, "reservation", r.ID)
		}

		ev, ok, err := e.applyRoomEffect(ctx, tx, r, target)
		if err != nil {
			return err
		}
		if ok {
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}

	e.publish(events)
	return e.store.GetReservation(ctx, hotelID, id)
}

func (e *Engine) applyRoomEffect(ctx context.Context, tx store.Store, r model.Reservation, to model.ReservationStatus) (roomfsm.Event, bool, error) {
	roomTarget, ok := roomEffect(to)
	if !ok {
		return roomfsm.Event{}, false, nil
	}
	room, err := tx.GetRoom(ctx, r.HotelID, r.RoomID)
	if err != nil {
		return roomfsm.Event{}, false, err
	}
	if !roomfsm.CanTransition(room.State, roomTarget) {
		return roomfsm.Event{}, false, nil
	}

	if roomTarget == model.RoomLibre {
		// Only release a room this booking was holding, and only when no
		// other booking still holds it.
		if room.State != model.RoomReservee {
			return roomfsm.Event{}, false, nil
		}
		n, err := tx.CountActiveReservations(ctx, room.ID, r.ID)
		if err != nil {
			return roomfsm.Event{}, false, err
		}
		if n > 0 {
			return roomfsm.Event{}, false, nil
		}
	}

	_, ev, err := roomfsm.Apply(ctx, tx, room, roomTarget, room.Version)
	if err != nil {
		return roomfsm.Event{}, false, err
	}
	return ev, true, nil
}

func (e *Engine) publish(events []roomfsm.Event) {
	if e.rooms != nil && len(events) > 0 {
		e.rooms.Publish(events...)
	}
}
