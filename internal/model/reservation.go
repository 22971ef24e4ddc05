package model

import "time"

// ReservationStatus is the lifecycle status of a reservation.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCheckedIn ReservationStatus = "CHECKED_IN"
	ReservationNoShow    ReservationStatus = "NO_SHOW"
	ReservationCanceled  ReservationStatus = "CANCELED"
	ReservationCompleted ReservationStatus = "COMPLETED"
)

// ActiveReservationStatuses are the statuses that hold a room for their period.
var ActiveReservationStatuses = []ReservationStatus{
	ReservationPending,
	ReservationConfirmed,
	ReservationCheckedIn,
}

// Booking channels.
const (
	ChannelPublic = "PUBLIC"
	ChannelStaff  = "STAFF"
)

// Reservation holds a room for the half-open period [StartAt, EndAt).
type Reservation struct {
	ID        string            `gorm:"primaryKey;size:36" json:"id"`
	HotelID   int64             `gorm:"index;not null" json:"hotelId"`
	RoomID    int64             `gorm:"index:idx_reservations_room_period;not null" json:"roomId"`
	FirstName string            `gorm:"size:128;not null" json:"firstName"`
	LastName  string            `gorm:"size:128;not null" json:"lastName"`
	Channel   string            `gorm:"size:16;not null" json:"channel"`
	StartAt   time.Time         `gorm:"index:idx_reservations_room_period;not null" json:"startAt"`
	EndAt     time.Time         `gorm:"not null" json:"endAt"`
	Status    ReservationStatus `gorm:"size:16;index;not null" json:"status"`
	Version   int64             `gorm:"not null" json:"version"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
