package domain

import (
	"context"
	"time"
)

// Monitored data domains.
const (
	DomainGrades   = "grades"
	DomainSchedule = "schedule"
)

// Snapshot is the persisted full state of one domain for one user. The
// payload is the canonical entity list of the last successful run; a
// save always overwrites the previous row, never appends.
type Snapshot struct {
	SnapshotID int       `gorm:"primaryKey;autoIncrement" json:"snapshot_id"`
	UserID     int       `gorm:"not null;uniqueIndex:idx_snapshots_user_domain" json:"user_id"`
	Domain     string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_snapshots_user_domain" json:"domain"`
	Payload    []byte    `gorm:"type:jsonb;not null" json:"payload"`
	WeekNumber int       `gorm:"not null;default:0" json:"week_number"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type SnapshotRepo interface {
	LoadGrades(ctx context.Context, userID int) ([]Grade, bool, error)
	SaveGrades(ctx context.Context, userID int, grades []Grade) error
	LoadSchedule(ctx context.Context, userID int) ([]Lesson, int, bool, error)
	SaveSchedule(ctx context.Context, userID int, lessons []Lesson, weekNumber int) error
}
