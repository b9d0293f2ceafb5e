package domain

import (
	"context"
	"time"
)

// Notifier is one outbound message sink. Each implementation checks the
// per-user settings itself and returns nil when it is disabled for that
// user, so the orchestrator can fan out to every sink unconditionally.
type Notifier interface {
	Name() string
	NotifyGradeChange(ctx context.Context, user *MonitorUser, change GradeChange) error
	NotifyScheduleChanges(ctx context.Context, user *MonitorUser, changes []ScheduleChange, current ScheduleDisplay) error
	NotifyErrorDigest(ctx context.Context, user *MonitorUser, entries []ErrorEvent) error
}

// ErrorEvent is one aggregated error line in the rolling hourly digest.
// Repeated occurrences of the same message within an hour bump Count
// instead of adding rows.
type ErrorEvent struct {
	EventID   int       `gorm:"primaryKey;autoIncrement" json:"event_id"`
	HourKey   string    `gorm:"type:varchar(25);not null;index" json:"hour_key"`
	Username  string    `gorm:"type:varchar(50);not null" json:"username"`
	Message   string    `gorm:"type:varchar(255);not null" json:"message"`
	Detail    string    `gorm:"type:text" json:"detail,omitempty"`
	Count     int       `gorm:"not null;default:1" json:"count"`
	FirstSeen string    `gorm:"type:varchar(10)" json:"first_seen"`
	LastSeen  string    `gorm:"type:varchar(10)" json:"last_seen"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ErrorEvent) TableName() string { return "error_events" }

type ErrorDigestRepo interface {
	Record(ctx context.Context, hourKey, username, message, detail string) error
	HourErrors(ctx context.Context, hourKey string) (map[string][]ErrorEvent, error)
	Clear(ctx context.Context, hourKey string) error
}
