package repository

import (
	"context"
	"errors"
	"fmt"
	"somplus/domain"
	"time"

	"gorm.io/gorm"
)

type errorDigestRepository struct {
	db *gorm.DB
}

func NewErrorDigestRepository(db *gorm.DB) domain.ErrorDigestRepo {
	return &errorDigestRepository{
		db: db,
	}
}

// Record adds one error occurrence to the hour bucket. A repeat of the
// same message for the same user bumps the counter instead of adding a
// row, so a flapping upstream produces one digest line, not hundreds.
func (er *errorDigestRepository) Record(ctx context.Context, hourKey, username, message, detail string) error {
	timeShort := time.Now().Format("15:04:05")

	var event domain.ErrorEvent
	err := er.db.WithContext(ctx).
		Where("hour_key = ? AND username = ? AND message = ?", hourKey, username, message).
		First(&event).Error

	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("error looking up error event: %w", err)
		}
		event = domain.ErrorEvent{
			HourKey:   hourKey,
			Username:  username,
			Message:   message,
			Detail:    detail,
			Count:     1,
			FirstSeen: timeShort,
			LastSeen:  timeShort,
		}
		if err := er.db.WithContext(ctx).Create(&event).Error; err != nil {
			return fmt.Errorf("failed to record error event: %w", err)
		}
		return nil
	}

	updates := map[string]any{
		"count":     event.Count + 1,
		"last_seen": timeShort,
	}
	if detail != "" {
		updates["detail"] = detail
	}
	if err := er.db.WithContext(ctx).Model(&event).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update error event: %w", err)
	}
	return nil
}

func (er *errorDigestRepository) HourErrors(ctx context.Context, hourKey string) (map[string][]domain.ErrorEvent, error) {
	var events []domain.ErrorEvent
	err := er.db.WithContext(ctx).
		Where("hour_key = ?", hourKey).
		Order("event_id asc").
		Find(&events).Error

	if err != nil {
		return nil, fmt.Errorf("failed to retrieve error events: %w", err)
	}

	byUser := make(map[string][]domain.ErrorEvent)
	for _, event := range events {
		byUser[event.Username] = append(byUser[event.Username], event)
	}
	return byUser, nil
}

func (er *errorDigestRepository) Clear(ctx context.Context, hourKey string) error {
	err := er.db.WithContext(ctx).
		Where("hour_key = ?", hourKey).
		Delete(&domain.ErrorEvent{}).Error

	if err != nil {
		return fmt.Errorf("failed to clear error events: %w", err)
	}
	return nil
}
