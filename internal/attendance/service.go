// Package attendance issues the rotating clock-in code of each hotel and
// records staff check-ins and check-outs against it.
package attendance

import (
	"context"
	"crypto/subtle"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/clock"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/planning"
	"hotel-ops-backend/internal/randcode"
	"hotel-ops-backend/internal/store"
)

const dayLayout = "2006-01-02"

// Options tune code issuance and lateness.
type Options struct {
	CodeWindow            time.Duration
	CodeLength            int
	RequireCodeOnCheckout bool
	LateGrace             time.Duration
	// Location decides which calendar day an instant belongs to.
	Location *time.Location
}

type Service struct {
	store  store.Store
	shifts planning.ShiftSource
	clock  clock.Clock
	opts   Options
}

func NewService(s store.Store, shifts planning.ShiftSource, c clock.Clock, opts Options) *Service {
	if shifts == nil {
		shifts = planning.None{}
	}
	if c == nil {
		c = clock.Real()
	}
	if opts.CodeWindow <= 0 {
		opts.CodeWindow = 15 * time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{store: s, shifts: shifts, clock: c, opts: opts}
}

func (s *Service) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Microsecond)
}

func (s *Service) day(t time.Time) string {
	return t.In(s.opts.Location).Format(dayLayout)
}

// Generate issues a fresh code valid on [now, now+window). Any code of
// the hotel that is still running stops being accepted immediately.
func (s *Service) Generate(ctx context.Context, hotelID int64) (model.AttendanceCode, error) {
	token, err := randcode.Code(s.opts.CodeLength)
	if err != nil {
		return model.AttendanceCode{}, apperr.Wrap(apperr.KindInternal, err, "failed to generate attendance code")
	}
	now := s.now()
	code := model.AttendanceCode{
		HotelID:    hotelID,
		Date:       s.day(now),
		Code:       token,
		ValidFrom:  now,
		ValidUntil: now.Add(s.opts.CodeWindow),
		CreatedAt:  now,
	}

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.ExpireAttendanceCodes(ctx, hotelID, now); err != nil {
			return err
		}
		return tx.SaveAttendanceCode(ctx, code)
	})
	if err != nil {
		return model.AttendanceCode{}, err
	}
	log.Printf("attendance code regenerated for hotel %d, valid until %s", hotelID, code.ValidUntil.Format(time.RFC3339))
	return code, nil
}

// Current returns the code of the hotel if it is usable right now.
func (s *Service) Current(ctx context.Context, hotelID int64) (model.AttendanceCode, error) {
	return s.activeCode(ctx, hotelID, s.now())
}

func (s *Service) activeCode(ctx context.Context, hotelID int64, now time.Time) (model.AttendanceCode, error) {
	code, err := s.store.LatestAttendanceCode(ctx, hotelID)
	if err != nil {
		return model.AttendanceCode{}, err
	}
	if now.Before(code.ValidFrom) || !now.Before(code.ValidUntil) {
		return model.AttendanceCode{}, apperr.NotFound("no attendance code is active for hotel %d", hotelID)
	}
	return code, nil
}

func (s *Service) verify(ctx context.Context, hotelID int64, presented string, now time.Time) error {
	active, err := s.activeCode(ctx, hotelID, now)
	if err != nil {
		return err
	}
	got := strings.ToUpper(strings.TrimSpace(presented))
	if subtle.ConstantTimeCompare([]byte(got), []byte(active.Code)) != 1 {
		return apperr.Invalid("attendance code does not match")
	}
	return nil
}

// Geo is an optional clock-in position.
type Geo struct {
	Lat float64
	Lng float64
}

// CheckIn opens an attendance record for the employee.
func (s *Service) CheckIn(ctx context.Context, hotelID, employeeID int64, code string, geo *Geo) (model.AttendanceRecord, error) {
	if strings.TrimSpace(code) == "" {
		return model.AttendanceRecord{}, apperr.Validation("code is required")
	}
	if geo != nil && (geo.Lat < -90 || geo.Lat > 90 || geo.Lng < -180 || geo.Lng > 180) {
		return model.AttendanceRecord{}, apperr.Validation("lat/lng out of range")
	}

	now := s.now()
	if err := s.verify(ctx, hotelID, code, now); err != nil {
		return model.AttendanceRecord{}, err
	}

	_, err := s.store.OpenAttendance(ctx, employeeID)
	switch {
	case err == nil:
		return model.AttendanceRecord{}, apperr.Conflict("employee %d is already checked in", employeeID)
	case !apperr.Is(err, apperr.KindNotFound):
		return model.AttendanceRecord{}, err
	}

	rec := model.AttendanceRecord{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		HotelID:    hotelID,
		Date:       s.day(now),
		CheckInAt:  now,
		Status:     s.statusFor(ctx, hotelID, employeeID, now),
		Source:     model.SourceCode,
	}
	if geo != nil {
		lat, lng := geo.Lat, geo.Lng
		rec.Latitude, rec.Longitude = &lat, &lng
	}
	// The partial unique index catches a concurrent check-in that passed
	// the read above.
	if err := s.store.CreateAttendance(ctx, &rec); err != nil {
		return model.AttendanceRecord{}, err
	}
	return rec, nil
}

// statusFor classifies a check-in. Planning failures never block it.
func (s *Service) statusFor(ctx context.Context, hotelID, employeeID int64, now time.Time) model.AttendanceStatus {
	start, ok, err := s.shifts.ShiftStart(ctx, hotelID, employeeID, s.day(now))
	if err != nil {
		log.Printf("Warning: shift lookup failed for employee %d: %v. Recording as present.", employeeID, err)
		return model.AttendancePresent
	}
	if ok && now.After(start.Add(s.opts.LateGrace)) {
		return model.AttendanceRetard
	}
	return model.AttendancePresent
}

// CheckOut closes the employee's open record.
func (s *Service) CheckOut(ctx context.Context, hotelID, employeeID int64, code string) (model.AttendanceRecord, error) {
	now := s.now()
	if s.opts.RequireCodeOnCheckout {
		if strings.TrimSpace(code) == "" {
			return model.AttendanceRecord{}, apperr.Validation("code is required to check out")
		}
		if err := s.verify(ctx, hotelID, code, now); err != nil {
			return model.AttendanceRecord{}, err
		}
	}

	rec, err := s.store.OpenAttendance(ctx, employeeID)
	if apperr.Is(err, apperr.KindNotFound) || (err == nil && rec.HotelID != hotelID) {
		return model.AttendanceRecord{}, apperr.Conflict("employee %d has no open attendance record", employeeID)
	}
	if err != nil {
		return model.AttendanceRecord{}, err
	}

	if err := s.store.CloseAttendance(ctx, rec.ID, now); err != nil {
		return model.AttendanceRecord{}, err
	}
	rec.CheckOutAt = &now
	return rec, nil
}

// List returns records of the hotel, optionally for one employee, whose
// day falls within [from, to]. Empty bounds are open.
func (s *Service) List(ctx context.Context, hotelID int64, employeeID *int64, from, to string) ([]model.AttendanceRecord, error) {
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(dayLayout, d); err != nil {
			return nil, apperr.Validation("invalid date %q, expected YYYY-MM-DD", d)
		}
	}
	if from != "" && to != "" && from > to {
		return nil, apperr.Validation("start %s must not be after end %s", from, to)
	}
	return s.store.ListAttendance(ctx, store.AttendanceFilter{
		HotelID:    hotelID,
		EmployeeID: employeeID,
		From:       from,
		To:         to,
	})
}

// Day returns the calendar day of t in the attendance timezone.
func (s *Service) Day(t time.Time) string {
	return s.day(t)
}
