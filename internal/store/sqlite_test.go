package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/occ"
	"hotel-ops-backend/internal/store"
	"hotel-ops-backend/internal/store/storetest"
)

var day0 = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

func seedRooms(t *testing.T, s store.Store, hotelID int64, numbers ...string) []model.Room {
	t.Helper()
	rooms := make([]model.Room, 0, len(numbers))
	for _, n := range numbers {
		rooms = append(rooms, model.Room{HotelID: hotelID, RoomNumber: n, Floor: 1, RoomType: "STANDARD", State: model.RoomLibre, Version: 1, Active: true})
	}
	require.NoError(t, s.CreateRooms(context.Background(), rooms))
	out, err := s.ListRooms(context.Background(), hotelID)
	require.NoError(t, err)
	return out
}

func book(t *testing.T, s store.Store, room model.Room, id string, start, end time.Time, status model.ReservationStatus) {
	t.Helper()
	require.NoError(t, s.CreateReservation(context.Background(), &model.Reservation{
		ID: id, HotelID: room.HotelID, RoomID: room.ID, FirstName: "A", LastName: "B",
		Channel: model.ChannelStaff, StartAt: start, EndAt: end, Status: status, Version: 1,
	}))
}

func TestListRooms_NaturalOrder(t *testing.T) {
	s := storetest.Open(t)
	rooms := seedRooms(t, s, 1, "1001", "201", "101")

	var numbers []string
	for _, r := range rooms {
		numbers = append(numbers, r.RoomNumber)
	}
	assert.Equal(t, []string{"101", "201", "1001"}, numbers)
}

func TestCreateRooms_DuplicateNumberIsConflict(t *testing.T) {
	s := storetest.Open(t)
	seedRooms(t, s, 1, "101")

	err := s.CreateRooms(context.Background(), []model.Room{{HotelID: 1, RoomNumber: "101", State: model.RoomLibre, Version: 1, Active: true}})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	// Same number in another hotel is fine.
	assert.NoError(t, s.CreateRooms(context.Background(), []model.Room{{HotelID: 2, RoomNumber: "101", State: model.RoomLibre, Version: 1, Active: true}}))
}

func TestAvailableRooms_HalfOpenOverlap(t *testing.T) {
	s := storetest.Open(t)
	rooms := seedRooms(t, s, 1, "101", "102", "103")
	r101, r102, r103 := rooms[0], rooms[1], rooms[2]

	checkIn := day0.Add(15 * time.Hour)
	checkOut := day0.Add(2*24*time.Hour + 11*time.Hour)
	book(t, s, r101, "res-101", checkIn, checkOut, model.ReservationConfirmed)
	book(t, s, r102, "res-102", checkIn, checkOut, model.ReservationCanceled)

	ctx := context.Background()

	overlapping, err := s.AvailableRooms(ctx, 1, day0.Add(24*time.Hour), day0.Add(3*24*time.Hour))
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{r102.ID, r103.ID}, roomIDs(overlapping))

	// Adjacent stays do not overlap.
	adjacent, err := s.AvailableRooms(ctx, 1, checkOut, checkOut.Add(24*time.Hour))
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{r101.ID, r102.ID, r103.ID}, roomIDs(adjacent))

	before, err := s.AvailableRooms(ctx, 1, checkIn.Add(-24*time.Hour), checkIn)
	require.NoError(t, err)
	assert.Len(t, before, 3)

	n, err := s.CountOverlapping(ctx, r101.ID, checkIn.Add(-time.Hour), checkIn.Add(time.Second), "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.CountOverlapping(ctx, r101.ID, checkIn.Add(-time.Hour), checkIn.Add(time.Second), "res-101")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestAvailableRooms_SkipsInactive(t *testing.T) {
	s := storetest.Open(t)
	rooms := seedRooms(t, s, 1, "101", "102", "103")
	ctx := context.Background()

	require.NoError(t, s.UpdateRoom(ctx, 1, rooms[0].ID, 1, "", map[string]any{"active": false}))
	require.NoError(t, s.UpdateRoom(ctx, 1, rooms[1].ID, 1, model.RoomLibre, map[string]any{"state": model.RoomInactive}))

	available, err := s.AvailableRooms(ctx, 1, day0, day0.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []int64{rooms[2].ID}, roomIDs(available))
}

func TestUpdateRoom_VersionAndStateGuard(t *testing.T) {
	s := storetest.Open(t)
	room := seedRooms(t, s, 1, "101")[0]
	ctx := context.Background()

	require.NoError(t, s.UpdateRoom(ctx, 1, room.ID, 1, model.RoomLibre, map[string]any{"state": model.RoomReservee}))

	got, err := s.GetRoom(ctx, 1, room.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoomReservee, got.State)
	assert.Equal(t, int64(2), got.Version)

	// Stale version.
	assert.ErrorIs(t, s.UpdateRoom(ctx, 1, room.ID, 1, "", map[string]any{"state": model.RoomLibre}), occ.ErrStale)
	// Right version, wrong state.
	assert.ErrorIs(t, s.UpdateRoom(ctx, 1, room.ID, 2, model.RoomLibre, map[string]any{"state": model.RoomCheckin}), occ.ErrStale)
	// Other hotel.
	assert.ErrorIs(t, s.UpdateRoom(ctx, 2, room.ID, 2, "", map[string]any{"state": model.RoomCheckin}), occ.ErrStale)
}

func TestDeleteRoom(t *testing.T) {
	s := storetest.Open(t)
	room := seedRooms(t, s, 1, "101")[0]
	ctx := context.Background()

	err := s.DeleteRoom(ctx, 1, room.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "active room must not be deleted")

	require.NoError(t, s.UpdateRoom(ctx, 1, room.ID, 1, "", map[string]any{"active": false}))
	book(t, s, room, "res-1", day0, day0.Add(24*time.Hour), model.ReservationPending)

	err = s.DeleteRoom(ctx, 1, room.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "room with an open reservation must not be deleted")

	require.NoError(t, s.UpdateReservationStatus(ctx, "res-1", 1, model.ReservationPending, model.ReservationCanceled))
	assert.NoError(t, s.DeleteRoom(ctx, 1, room.ID))

	_, err = s.GetRoom(ctx, 1, room.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAttendance_SingleOpenRecordIndex(t *testing.T) {
	s := storetest.Open(t)
	ctx := context.Background()
	at := day0.Add(9 * time.Hour)

	first := &model.AttendanceRecord{ID: "a-1", EmployeeID: 7, HotelID: 1, Date: "2024-07-01", CheckInAt: at, Status: model.AttendancePresent, Source: model.SourceCode}
	require.NoError(t, s.CreateAttendance(ctx, first))

	second := &model.AttendanceRecord{ID: "a-2", EmployeeID: 7, HotelID: 1, Date: "2024-07-01", CheckInAt: at.Add(30 * time.Minute), Status: model.AttendancePresent, Source: model.SourceCode}
	err := s.CreateAttendance(ctx, second)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	require.NoError(t, s.CloseAttendance(ctx, "a-1", at.Add(8*time.Hour)))
	assert.True(t, apperr.Is(s.CloseAttendance(ctx, "a-1", at.Add(9*time.Hour)), apperr.KindConflict))

	// A closed record no longer blocks a new one.
	require.NoError(t, s.CreateAttendance(ctx, second))
	open, err := s.OpenAttendance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "a-2", open.ID)

	emp := int64(7)
	recs, err := s.ListAttendance(ctx, store.AttendanceFilter{HotelID: 1, EmployeeID: &emp, From: "2024-07-01", To: "2024-07-01"})
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	recs, err = s.ListAttendance(ctx, store.AttendanceFilter{HotelID: 1, From: "2024-07-02"})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestAttendanceCodes_ReplaceAndExpire(t *testing.T) {
	s := storetest.Open(t)
	ctx := context.Background()
	t0 := day0.Add(10 * time.Hour)

	require.NoError(t, s.SaveAttendanceCode(ctx, model.AttendanceCode{HotelID: 1, Date: "2024-07-01", Code: "AAAAAA", ValidFrom: t0, ValidUntil: t0.Add(15 * time.Minute)}))
	require.NoError(t, s.SaveAttendanceCode(ctx, model.AttendanceCode{HotelID: 1, Date: "2024-07-01", Code: "BBBBBB", ValidFrom: t0.Add(time.Minute), ValidUntil: t0.Add(16 * time.Minute)}))

	latest, err := s.LatestAttendanceCode(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", latest.Code)

	require.NoError(t, s.ExpireAttendanceCodes(ctx, 1, t0.Add(2*time.Minute)))
	latest, err = s.LatestAttendanceCode(ctx, 1)
	require.NoError(t, err)
	assert.True(t, latest.ValidUntil.Equal(t0.Add(2*time.Minute)))

	_, err = s.LatestAttendanceCode(ctx, 2)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestSubscriptions(t *testing.T) {
	s := storetest.Open(t)
	ctx := context.Background()

	sub := model.PushSubscription{Endpoint: "https://push.example/1", P256DH: "k", Auth: "a", HotelID: 1, EmployeeID: 9}
	require.NoError(t, s.SaveSubscription(ctx, sub, []model.RoomState{model.RoomANettoyer, model.RoomAValiderClean}))

	subs, err := s.SubscriptionsFor(ctx, 1, model.RoomANettoyer)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, sub.Endpoint, subs[0].Endpoint)

	// Replacing topics drops the old ones.
	require.NoError(t, s.SaveSubscription(ctx, sub, []model.RoomState{model.RoomMaintenance}))
	subs, err = s.SubscriptionsFor(ctx, 1, model.RoomANettoyer)
	require.NoError(t, err)
	assert.Empty(t, subs)

	got, err := s.GetSubscription(ctx, sub.Endpoint)
	require.NoError(t, err)
	require.Len(t, got.Topics, 1)
	assert.Equal(t, model.RoomMaintenance, got.Topics[0].State)

	require.NoError(t, s.DeleteSubscription(ctx, sub.Endpoint))
	_, err = s.GetSubscription(ctx, sub.Endpoint)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func roomIDs(rooms []model.Room) []int64 {
	ids := make([]int64, 0, len(rooms))
	for _, r := range rooms {
		ids = append(ids, r.ID)
	}
	return ids
}
