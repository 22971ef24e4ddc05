package model

import "time"

// GuestAccount is the login provisioned for a public booking. Only the
// bcrypt hash of the password is kept.
type GuestAccount struct {
	ID            string    `gorm:"primaryKey;size:36"`
	HotelID       int64     `gorm:"index;not null"`
	ReservationID string    `gorm:"uniqueIndex;size:36;not null"`
	Email         string    `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash  string    `gorm:"size:255;not null"`
	CreatedAt     time.Time `gorm:"not null"`
}
