package store

import (
	"context"
	"fmt"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
)

func (s *gormStore) CreateGuestAccount(ctx context.Context, acc *model.GuestAccount) error {
	err := s.db.WithContext(ctx).Create(acc).Error
	if isUniqueViolation(err) {
		return apperr.Wrap(apperr.KindConflict, err, "guest login %s already exists", acc.Email)
	}
	if err != nil {
		return fmt.Errorf("failed to create guest account for reservation %s: %w", acc.ReservationID, err)
	}
	return nil
}
