package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
)

// SaveSubscription creates or replaces a push subscription together with
// the room states it listens to.
func (s *gormStore) SaveSubscription(ctx context.Context, sub model.PushSubscription, states []model.RoomState) error {
	sub.Topics = nil
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "hotel_id", "employee_id"}),
		}).Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}

		if err := tx.Where("endpoint = ?", sub.Endpoint).Delete(&model.SubscriptionTopic{}).Error; err != nil {
			return fmt.Errorf("failed to clear subscription topics: %w", err)
		}

		if len(states) == 0 {
			return nil
		}
		topics := make([]model.SubscriptionTopic, 0, len(states))
		for _, st := range states {
			topics = append(topics, model.SubscriptionTopic{Endpoint: sub.Endpoint, HotelID: sub.HotelID, State: st})
		}
		if err := tx.Create(&topics).Error; err != nil {
			return fmt.Errorf("failed to save subscription topics: %w", err)
		}
		return nil
	})
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).Preload("Topics").First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PushSubscription{}, apperr.NotFound("subscription not found")
	}
	if err != nil {
		return model.PushSubscription{}, fmt.Errorf("failed to load subscription: %w", err)
	}
	return sub, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("endpoint = ?", endpoint).Delete(&model.SubscriptionTopic{}).Error; err != nil {
			return fmt.Errorf("failed to delete subscription topics: %w", err)
		}
		if err := tx.Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
			return fmt.Errorf("failed to delete subscription: %w", err)
		}
		return nil
	})
}

// SubscriptionsFor returns the subscriptions of a hotel listening for rooms
// entering state.
func (s *gormStore) SubscriptionsFor(ctx context.Context, hotelID int64, state model.RoomState) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_topics st ON st.endpoint = push_subscriptions.endpoint").
		Where("st.hotel_id = ? AND st.state = ?", hotelID, state).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for hotel %d state %s: %w", hotelID, state, err)
	}
	return subs, nil
}
