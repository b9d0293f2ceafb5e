package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"somplus/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type snapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) domain.SnapshotRepo {
	return &snapshotRepository{
		db: db,
	}
}

func (sr *snapshotRepository) LoadGrades(ctx context.Context, userID int) ([]domain.Grade, bool, error) {
	snap, found, err := sr.load(ctx, userID, domain.DomainGrades)
	if err != nil || !found {
		return nil, found, err
	}

	var grades []domain.Grade
	if err := json.Unmarshal(snap.Payload, &grades); err != nil {
		return nil, false, fmt.Errorf("corrupt grade snapshot for user %d: %w", userID, err)
	}
	return grades, true, nil
}

func (sr *snapshotRepository) SaveGrades(ctx context.Context, userID int, grades []domain.Grade) error {
	payload, err := json.Marshal(grades)
	if err != nil {
		return fmt.Errorf("failed to marshal grade snapshot: %w", err)
	}
	return sr.save(ctx, userID, domain.DomainGrades, payload, 0)
}

func (sr *snapshotRepository) LoadSchedule(ctx context.Context, userID int) ([]domain.Lesson, int, bool, error) {
	snap, found, err := sr.load(ctx, userID, domain.DomainSchedule)
	if err != nil || !found {
		return nil, 0, found, err
	}

	var lessons []domain.Lesson
	if err := json.Unmarshal(snap.Payload, &lessons); err != nil {
		return nil, 0, false, fmt.Errorf("corrupt schedule snapshot for user %d: %w", userID, err)
	}
	return lessons, snap.WeekNumber, true, nil
}

func (sr *snapshotRepository) SaveSchedule(ctx context.Context, userID int, lessons []domain.Lesson, weekNumber int) error {
	payload, err := json.Marshal(lessons)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule snapshot: %w", err)
	}
	return sr.save(ctx, userID, domain.DomainSchedule, payload, weekNumber)
}

func (sr *snapshotRepository) load(ctx context.Context, userID int, dom string) (*domain.Snapshot, bool, error) {
	var snap domain.Snapshot
	err := sr.db.WithContext(ctx).
		Where("user_id = ? AND domain = ?", userID, dom).
		First(&snap).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("error fetching %s snapshot: %w", dom, err)
	}
	return &snap, true, nil
}

// save overwrites the single snapshot row for (user, domain); the store
// always holds the full last-known state, never a history.
func (sr *snapshotRepository) save(ctx context.Context, userID int, dom string, payload []byte, weekNumber int) error {
	snap := domain.Snapshot{
		UserID:     userID,
		Domain:     dom,
		Payload:    payload,
		WeekNumber: weekNumber,
	}

	err := sr.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "domain"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "week_number", "updated_at"}),
		}).
		Create(&snap).Error

	if err != nil {
		return fmt.Errorf("failed to save %s snapshot: %w", dom, err)
	}
	return nil
}
