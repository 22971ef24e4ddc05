package model

import "time"

// RoomState is the lifecycle state of a room.
type RoomState string

const (
	RoomLibre         RoomState = "LIBRE"
	RoomReservee      RoomState = "RESERVEE"
	RoomCheckin       RoomState = "CHECKIN"
	RoomRoomService   RoomState = "ROOM_SERVICE"
	RoomCheckout      RoomState = "CHECKOUT"
	RoomAValiderLibre RoomState = "A_VALIDER_LIBRE"
	RoomANettoyer     RoomState = "A_NETTOYER"
	RoomEnNettoyage   RoomState = "EN_NETTOYAGE"
	RoomAValiderClean RoomState = "A_VALIDER_CLEAN"
	RoomMaintenance   RoomState = "MAINTENANCE"
	RoomInactive      RoomState = "INACTIVE"
)

// Room is a bookable unit of a hotel. State and Active only change through
// version-checked writes.
type Room struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	HotelID    int64     `gorm:"uniqueIndex:idx_rooms_hotel_number;not null" json:"hotelId"`
	RoomNumber string    `gorm:"uniqueIndex:idx_rooms_hotel_number;size:16;not null" json:"roomNumber"`
	Floor      int       `gorm:"not null" json:"floor"`
	RoomType   string    `gorm:"size:64;not null" json:"roomType"`
	State      RoomState `gorm:"size:32;not null" json:"state"`
	Version    int64     `gorm:"not null" json:"version"`
	Active     bool      `gorm:"not null" json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
