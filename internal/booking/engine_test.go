package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/clock"
	"hotel-ops-backend/internal/identity"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/roomfsm"
	"hotel-ops-backend/internal/store"
	"hotel-ops-backend/internal/store/storetest"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []roomfsm.Event
}

func (n *recordingNotifier) RoomStateChanged(ev roomfsm.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

type stubProvisioner struct {
	err   error
	calls []identity.GuestRequest
}

func (p *stubProvisioner) Provision(ctx context.Context, st store.Store, req identity.GuestRequest) (identity.Credentials, error) {
	p.calls = append(p.calls, req)
	if p.err != nil {
		return identity.Credentials{}, p.err
	}
	return identity.Credentials{Email: "guest@hotel.test", Password: "s3cret-once"}, nil
}

type fixture struct {
	store    store.Store
	engine   *Engine
	notifier *recordingNotifier
	prov     *stubProvisioner
	rooms    map[string]model.Room
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := storetest.Open(t)
	notifier := &recordingNotifier{}
	svc := roomfsm.NewService(s, notifier)
	rooms, err := svc.SetupStructure(context.Background(), 1, roomfsm.Structure{Floors: 1, RoomsPerFloor: 2})
	require.NoError(t, err)

	f := &fixture{store: s, notifier: notifier, prov: &stubProvisioner{}, rooms: map[string]model.Room{}}
	for _, r := range rooms {
		f.rooms[r.RoomNumber] = r
	}
	f.engine = NewEngine(s, svc, f.prov, clock.NewFake(at("2024-06-01T08:00:00Z")))
	return f
}

func (f *fixture) room(t *testing.T, number string) model.Room {
	t.Helper()
	r, err := f.store.GetRoom(context.Background(), 1, f.rooms[number].ID)
	require.NoError(t, err)
	return r
}

func (f *fixture) reserve(number, start, end string) (Result, error) {
	return f.engine.Reserve(context.Background(), Request{
		HotelID: 1, RoomID: f.rooms[number].ID, FirstName: "Ada", LastName: "Lovelace",
		Start: at(start), End: at(end),
	})
}

func TestReserve_OverlapConflict(t *testing.T) {
	f := newFixture(t)

	res, err := f.reserve("101", "2024-07-01T15:00:00Z", "2024-07-03T11:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPending, res.Reservation.Status)
	assert.Equal(t, int64(1), res.Reservation.Version)
	assert.Nil(t, res.Credentials)
	assert.Equal(t, model.RoomReservee, f.room(t, "101").State)

	_, err = f.reserve("101", "2024-07-02T10:00:00Z", "2024-07-04T10:00:00Z")
	assert.True(t, apperr.Is(err, apperr.KindConflict), "got %v", err)

	// The other room is unaffected.
	_, err = f.reserve("102", "2024-07-02T10:00:00Z", "2024-07-04T10:00:00Z")
	assert.NoError(t, err)
}

func TestReserve_AdjacentStaysDoNotOverlap(t *testing.T) {
	f := newFixture(t)

	_, err := f.reserve("101", "2024-07-01T15:00:00Z", "2024-07-03T11:00:00Z")
	require.NoError(t, err)
	before := f.room(t, "101")

	_, err = f.reserve("101", "2024-07-03T11:00:00Z", "2024-07-05T11:00:00Z")
	require.NoError(t, err)
	_, err = f.reserve("101", "2024-06-29T11:00:00Z", "2024-07-01T15:00:00Z")
	require.NoError(t, err)

	after := f.room(t, "101")
	assert.Equal(t, model.RoomReservee, after.State)
	assert.Equal(t, before.Version+2, after.Version)
	assert.Len(t, f.notifier.events, 1)
}

func TestListAvailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.reserve("101", "2024-07-01T15:00:00Z", "2024-07-03T11:00:00Z")
	require.NoError(t, err)

	rooms, err := f.engine.ListAvailable(ctx, 1, at("2024-07-02T00:00:00Z"), at("2024-07-02T12:00:00Z"))
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "102", rooms[0].RoomNumber)

	rooms, err = f.engine.ListAvailable(ctx, 1, at("2024-07-03T11:00:00Z"), at("2024-07-04T11:00:00Z"))
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	_, err = f.engine.ListAvailable(ctx, 1, at("2024-07-04T11:00:00Z"), at("2024-07-04T11:00:00Z"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestReserve_Validation(t *testing.T) {
	f := newFixture(t)

	testCases := []struct {
		name string
		req  Request
	}{
		{"empty period", Request{FirstName: "A", LastName: "B", Start: at("2024-07-02T00:00:00Z"), End: at("2024-07-02T00:00:00Z")}},
		{"reversed period", Request{FirstName: "A", LastName: "B", Start: at("2024-07-03T00:00:00Z"), End: at("2024-07-02T00:00:00Z")}},
		{"in the past", Request{FirstName: "A", LastName: "B", Start: at("2024-05-01T00:00:00Z"), End: at("2024-05-02T00:00:00Z")}},
		{"missing name", Request{FirstName: " ", LastName: "B", Start: at("2024-07-01T00:00:00Z"), End: at("2024-07-02T00:00:00Z")}},
		{"unknown channel", Request{FirstName: "A", LastName: "B", Channel: "FAX", Start: at("2024-07-01T00:00:00Z"), End: at("2024-07-02T00:00:00Z")}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.HotelID = 1
			tc.req.RoomID = f.rooms["101"].ID
			_, err := f.engine.Reserve(context.Background(), tc.req)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		})
	}
}

func TestReserve_RoomNotBookable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room := f.rooms["101"]
	require.NoError(t, f.store.UpdateRoom(ctx, 1, room.ID, room.Version, "", map[string]any{"active": false}))

	_, err := f.reserve("101", "2024-07-01T15:00:00Z", "2024-07-03T11:00:00Z")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.engine.Reserve(ctx, Request{HotelID: 1, RoomID: 9999, FirstName: "A", LastName: "B",
		Start: at("2024-07-01T15:00:00Z"), End: at("2024-07-03T11:00:00Z")})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestReserve_PublicBooking(t *testing.T) {
	f := newFixture(t)
	res, err := f.engine.Reserve(context.Background(), Request{
		HotelID: 1, RoomID: f.rooms["102"].ID, FirstName: "Hélène", LastName: "Dupont",
		Start: at("2024-07-01T15:00:00Z"), End: at("2024-07-03T11:00:00Z"), Channel: model.ChannelPublic,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ReservationConfirmed, res.Reservation.Status)
	require.NotNil(t, res.Credentials)
	assert.Equal(t, "s3cret-once", res.Credentials.Password)
	require.Len(t, f.prov.calls, 1)
	assert.Equal(t, res.Reservation.ID, f.prov.calls[0].ReservationID)
}

func TestReserve_ProvisioningFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.prov.err = errors.New("identity down")

	_, err := f.engine.Reserve(context.Background(), Request{
		HotelID: 1, RoomID: f.rooms["101"].ID, FirstName: "A", LastName: "B",
		Start: at("2024-07-01T15:00:00Z"), End: at("2024-07-03T11:00:00Z"), Channel: model.ChannelPublic,
	})
	require.Error(t, err)

	list, err := f.engine.List(context.Background(), 1, at("2024-01-01T00:00:00Z"), at("2025-01-01T00:00:00Z"))
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, model.RoomLibre, f.room(t, "101").State)
	assert.Empty(t, f.notifier.events)
}

// racingStore lets a competing writer bump the room version right after
// the booking transaction has read it.
type racingStore struct{ store.Store }

func (s racingStore) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	return s.Store.WithTx(ctx, func(tx store.Store) error {
		return fn(&racingTx{Store: tx})
	})
}

type racingTx struct {
	store.Store
	raced bool
}

func (t *racingTx) GetRoom(ctx context.Context, hotelID, roomID int64) (model.Room, error) {
	room, err := t.Store.GetRoom(ctx, hotelID, roomID)
	if err == nil && !t.raced {
		t.raced = true
		if err := t.Store.UpdateRoom(ctx, hotelID, roomID, room.Version, "", map[string]any{}); err != nil {
			return model.Room{}, err
		}
	}
	return room, err
}

func TestReserve_LostRoomRaceIsConflict(t *testing.T) {
	for _, state := range []model.RoomState{model.RoomLibre, model.RoomCheckin} {
		t.Run(string(state), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			room := f.rooms["101"]
			require.NoError(t, f.store.UpdateRoom(ctx, 1, room.ID, room.Version, "", map[string]any{"state": state}))

			engine := NewEngine(racingStore{f.store}, nil, nil, clock.NewFake(at("2024-06-01T08:00:00Z")))
			_, err := engine.Reserve(ctx, Request{HotelID: 1, RoomID: room.ID, FirstName: "A", LastName: "B",
				Start: at("2024-07-01T15:00:00Z"), End: at("2024-07-03T11:00:00Z")})
			assert.True(t, apperr.Is(err, apperr.KindConflict), "got %v", err)

			n, err := f.store.CountActiveReservations(ctx, room.ID, "")
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestUpdateStatus_EveryPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	statuses := []model.ReservationStatus{
		model.ReservationPending, model.ReservationConfirmed, model.ReservationCheckedIn,
		model.ReservationNoShow, model.ReservationCanceled, model.ReservationCompleted,
	}
	i := 0
	for _, from := range statuses {
		for _, to := range statuses {
			i++
			r := model.Reservation{
				ID: "res-" + string(from) + "-" + string(to), HotelID: 1, RoomID: f.rooms["102"].ID,
				FirstName: "A", LastName: "B", Channel: model.ChannelStaff,
				StartAt: at("2024-07-01T00:00:00Z").AddDate(0, 0, i), EndAt: at("2024-07-02T00:00:00Z").AddDate(0, 0, i),
				Status: from, Version: 1,
			}
			require.NoError(t, f.store.CreateReservation(ctx, &r))

			updated, err := f.engine.UpdateStatus(ctx, 1, r.ID, to, 1)
			if CanChangeStatus(from, to) {
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, updated.Status)
				assert.Equal(t, int64(2), updated.Version)
			} else {
				assert.True(t, apperr.Is(err, apperr.KindInvalidTransition), "%s -> %s: %v", from, to, err)
			}
		}
	}
}

func TestUpdateStatus_DrivesRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.reserve("101", "2024-07-01T15:00:00Z", "2024-07-03T11:00:00Z")
	require.NoError(t, err)
	id := res.Reservation.ID

	r, err := f.engine.UpdateStatus(ctx, 1, id, model.ReservationConfirmed, 1)
	require.NoError(t, err)
	assert.Equal(t, model.RoomReservee, f.room(t, "101").State)

	r, err = f.engine.UpdateStatus(ctx, 1, id, model.ReservationCheckedIn, r.Version)
	require.NoError(t, err)
	assert.Equal(t, model.RoomCheckin, f.room(t, "101").State)

	_, err = f.engine.UpdateStatus(ctx, 1, id, model.ReservationCompleted, r.Version)
	require.NoError(t, err)
	assert.Equal(t, model.RoomCheckout, f.room(t, "101").State)

	var targets []model.RoomState
	for _, ev := range f.notifier.events {
		targets = append(targets, ev.To)
	}
	assert.Equal(t, []model.RoomState{model.RoomReservee, model.RoomCheckin, model.RoomCheckout}, targets)
}

func TestUpdateStatus_CancelReleasesRoomOnlyWhenLastHold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.reserve("101", "2024-07-01T15:00:00Z", "2024-07-03T11:00:00Z")
	require.NoError(t, err)
	second, err := f.reserve("101", "2024-07-10T15:00:00Z", "2024-07-12T11:00:00Z")
	require.NoError(t, err)

	_, err = f.engine.UpdateStatus(ctx, 1, first.Reservation.ID, model.ReservationCanceled, 1)
	require.NoError(t, err)
	assert.Equal(t, model.RoomReservee, f.room(t, "101").State)

	_, err = f.engine.UpdateStatus(ctx, 1, second.Reservation.ID, model.ReservationCanceled, 1)
	require.NoError(t, err)
	assert.Equal(t, model.RoomLibre, f.room(t, "101").State)

	// A canceled stay no longer blocks the period.
	_, err = f.reserve("101", "2024-07-01T15:00:00Z", "2024-07-03T11:00:00Z")
	assert.NoError(t, err)
}

func TestUpdateStatus_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.reserve("101", "2024-07-01T15:00:00Z", "2024-07-03T11:00:00Z")
	require.NoError(t, err)

	_, err = f.engine.UpdateStatus(ctx, 1, res.Reservation.ID, model.ReservationConfirmed, 7)
	assert.True(t, apperr.Is(err, apperr.KindOptimisticLock))

	_, err = f.engine.UpdateStatus(ctx, 1, res.Reservation.ID, "ARCHIVED", 1)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.engine.UpdateStatus(ctx, 1, "missing", model.ReservationConfirmed, 1)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.engine.UpdateStatus(ctx, 2, res.Reservation.ID, model.ReservationConfirmed, 1)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAllowedStatuses(t *testing.T) {
	assert.Equal(t, []model.ReservationStatus{model.ReservationConfirmed, model.ReservationCanceled}, AllowedStatuses(model.ReservationPending))
	assert.Empty(t, AllowedStatuses(model.ReservationCompleted))
	assert.Empty(t, AllowedStatuses("UNKNOWN"))

	got := AllowedStatuses(model.ReservationConfirmed)
	got[0] = "MUTATED"
	assert.Equal(t, []model.ReservationStatus{model.ReservationCheckedIn, model.ReservationNoShow, model.ReservationCanceled}, AllowedStatuses(model.ReservationConfirmed))

	f := newFixture(t)
	res, err := f.reserve("101", "2024-07-01T15:00:00Z", "2024-07-03T11:00:00Z")
	require.NoError(t, err)
	a, err := f.engine.AllowedStatuses(context.Background(), 1, res.Reservation.ID)
	require.NoError(t, err)
	b, err := f.engine.AllowedStatuses(context.Background(), 1, res.Reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
