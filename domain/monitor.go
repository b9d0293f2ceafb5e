package domain

import (
	"context"
	"time"
)

// Run states for one user/domain pass.
const (
	StateIdle         = "IDLE"
	StateFetching     = "FETCHING"
	StateNormalizing  = "NORMALIZING"
	StateLoadingCache = "LOADING_CACHE"
	StateInitializing = "INITIALIZING"
	StateComparing    = "COMPARING"
	StateNotifying    = "NOTIFYING"
	StateSaving       = "SAVING"
)

// RunStatus is the last observed state of one user/domain pass, kept
// in memory for the ops API.
type RunStatus struct {
	Username  string    `json:"username"`
	Domain    string    `json:"domain"`
	State     string    `json:"state"`
	Changes   int       `json:"changes"`
	LastError string    `json:"last_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SchoolAPI is the upstream Somtoday data source. Responses are
// semi-structured; absent fields are normal, not errors.
type SchoolAPI interface {
	RefreshToken(ctx context.Context, refreshToken string) (accessToken, newRefreshToken string, err error)
	FetchGrades(ctx context.Context, accessToken, studentID string) ([]Record, error)
	FetchSchedule(ctx context.Context, accessToken string, start, end time.Time) ([]Record, error)
}

type MonitorUseCase interface {
	RunCycle(ctx context.Context) error
	Statuses() []RunStatus
}
