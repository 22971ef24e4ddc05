package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
)

// AttendanceFilter selects attendance records. Dates are inclusive
// "2006-01-02" calendar days.
type AttendanceFilter struct {
	HotelID    int64
	EmployeeID *int64
	From       string
	To         string
}

// SaveAttendanceCode inserts or replaces the code of a hotel for its day.
func (s *gormStore) SaveAttendanceCode(ctx context.Context, code model.AttendanceCode) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hotel_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "valid_from", "valid_until", "created_at"}),
	}).Create(&code).Error
	if err != nil {
		return fmt.Errorf("failed to save attendance code for hotel %d: %w", code.HotelID, err)
	}
	return nil
}

// ExpireAttendanceCodes ends the validity of every code of the hotel that
// is still running at the given instant.
func (s *gormStore) ExpireAttendanceCodes(ctx context.Context, hotelID int64, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&model.AttendanceCode{}).
		Where("hotel_id = ? AND valid_until > ?", hotelID, at).
		Update("valid_until", at).Error
	if err != nil {
		return fmt.Errorf("failed to expire attendance codes for hotel %d: %w", hotelID, err)
	}
	return nil
}

// LatestAttendanceCode returns the most recently issued code of a hotel,
// regardless of whether it is still valid.
func (s *gormStore) LatestAttendanceCode(ctx context.Context, hotelID int64) (model.AttendanceCode, error) {
	var code model.AttendanceCode
	err := s.db.WithContext(ctx).Where("hotel_id = ?", hotelID).
		Order("valid_from DESC").
		First(&code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.AttendanceCode{}, apperr.NotFound("no attendance code issued for hotel %d", hotelID)
	}
	if err != nil {
		return model.AttendanceCode{}, fmt.Errorf("failed to load attendance code for hotel %d: %w", hotelID, err)
	}
	return code, nil
}

func (s *gormStore) OpenAttendance(ctx context.Context, employeeID int64) (model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	err := s.db.WithContext(ctx).Where("employee_id = ? AND check_out_at IS NULL", employeeID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.AttendanceRecord{}, apperr.NotFound("employee %d has no open attendance record", employeeID)
	}
	if err != nil {
		return model.AttendanceRecord{}, fmt.Errorf("failed to load open attendance of employee %d: %w", employeeID, err)
	}
	return rec, nil
}

// CreateAttendance inserts an open record. The partial unique index on
// open records turns a concurrent second check-in into a Conflict.
func (s *gormStore) CreateAttendance(ctx context.Context, rec *model.AttendanceRecord) error {
	err := s.db.WithContext(ctx).Create(rec).Error
	if isUniqueViolation(err) {
		return apperr.Wrap(apperr.KindConflict, err, "employee %d already has an open attendance record", rec.EmployeeID)
	}
	if err != nil {
		return fmt.Errorf("failed to create attendance for employee %d: %w", rec.EmployeeID, err)
	}
	return nil
}

// CloseAttendance sets the check-out time of a record that is still open.
func (s *gormStore) CloseAttendance(ctx context.Context, id string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&model.AttendanceRecord{}).
		Where("id = ? AND check_out_at IS NULL", id).
		Update("check_out_at", at)
	if res.Error != nil {
		return fmt.Errorf("failed to close attendance %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("attendance record %s is already closed", id)
	}
	return nil
}

func (s *gormStore) ListAttendance(ctx context.Context, f AttendanceFilter) ([]model.AttendanceRecord, error) {
	q := s.db.WithContext(ctx).Where("hotel_id = ?", f.HotelID)
	if f.EmployeeID != nil {
		q = q.Where("employee_id = ?", *f.EmployeeID)
	}
	if f.From != "" {
		q = q.Where("date >= ?", f.From)
	}
	if f.To != "" {
		q = q.Where("date <= ?", f.To)
	}

	var recs []model.AttendanceRecord
	if err := q.Order("check_in_at").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list attendance of hotel %d: %w", f.HotelID, err)
	}
	return recs, nil
}
