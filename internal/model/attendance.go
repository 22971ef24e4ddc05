package model

import "time"

// AttendanceStatus classifies a clock-in.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceRetard  AttendanceStatus = "RETARD"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
)

// Record sources.
const (
	SourceCode = "CODE"
)

// AttendanceCode is the rotating clock-in code of a hotel for one calendar
// day. It is usable while ValidFrom <= now < ValidUntil.
type AttendanceCode struct {
	HotelID    int64     `gorm:"primaryKey;autoIncrement:false" json:"-"`
	Date       string    `gorm:"primaryKey;size:10" json:"-"`
	Code       string    `gorm:"size:32;not null" json:"code"` // config.MaxCodeLength
	ValidFrom  time.Time `gorm:"not null" json:"validFrom"`
	ValidUntil time.Time `gorm:"index;not null" json:"validUntil"`
	CreatedAt  time.Time `json:"-"`
}

// AttendanceRecord is one clock-in/clock-out pair. A nil CheckOutAt marks
// the record as open; the partial unique index keeps at most one open
// record per employee.
type AttendanceRecord struct {
	ID         string           `gorm:"primaryKey;size:36" json:"id"`
	EmployeeID int64            `gorm:"index;uniqueIndex:idx_attendance_open,where:check_out_at IS NULL;not null" json:"employeeId"`
	HotelID    int64            `gorm:"index;not null" json:"hotelId"`
	Date       string           `gorm:"size:10;index;not null" json:"date"`
	CheckInAt  time.Time        `gorm:"not null" json:"checkInAt"`
	CheckOutAt *time.Time       `json:"checkOutAt"`
	Status     AttendanceStatus `gorm:"size:16;not null" json:"status"`
	Source     string           `gorm:"size:16;not null" json:"source"`
	Latitude   *float64         `json:"lat,omitempty"`
	Longitude  *float64         `json:"lng,omitempty"`
	CreatedAt  time.Time        `json:"-"`
	UpdatedAt  time.Time        `json:"-"`
}
