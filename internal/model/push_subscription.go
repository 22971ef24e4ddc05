package model

import "time"

// PushSubscription holds the information for a browser push subscription
// of a staff member.
type PushSubscription struct {
	Endpoint   string    `gorm:"primaryKey"`
	P256DH     string    `gorm:"column:p256dh;not null"`
	Auth       string    `gorm:"not null"`
	HotelID    int64     `gorm:"index;not null"`
	EmployeeID int64     `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`

	// Associations
	Topics []SubscriptionTopic `gorm:"foreignKey:Endpoint;references:Endpoint;constraint:OnDelete:CASCADE"`
}

// SubscriptionTopic subscribes an endpoint to rooms entering State.
type SubscriptionTopic struct {
	ID       int64     `gorm:"primaryKey"`
	Endpoint string    `gorm:"index;not null"`
	HotelID  int64     `gorm:"index:idx_topic_hotel_state;not null"`
	State    RoomState `gorm:"index:idx_topic_hotel_state;size:32;not null"`
}
