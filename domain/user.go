package domain

import (
	"context"
	"time"
)

// MonitorUser is one monitored student account. The Somtoday refresh
// token rotates on every use and is written back after each refresh.
type MonitorUser struct {
	UserID       int          `gorm:"primaryKey;autoIncrement" json:"user_id"`
	Username     string       `gorm:"type:varchar(50);not null;unique" json:"username" valid:"required~Username is required"`
	DisplayName  string       `gorm:"type:varchar(100);not null" json:"display_name" valid:"required~Display name is required"`
	Enabled      bool         `gorm:"not null;default:true" json:"enabled"`
	RefreshToken string       `gorm:"type:text;not null" json:"-" valid:"required~Refresh token is required"`
	StudentID    string       `gorm:"type:varchar(40);not null" json:"student_id" valid:"required~Student ID is required"`
	Settings     UserSettings `gorm:"serializer:json" json:"settings"`
	LastRunAt    *time.Time   `json:"last_run_at,omitempty"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (MonitorUser) TableName() string { return "monitor_users" }

// UserSettings is the per-user configuration blob, stored as JSON.
type UserSettings struct {
	Grades   GradeSettings    `json:"grades"`
	Schedule ScheduleSettings `json:"schedule"`
	Notify   NotifySettings   `json:"notifications"`
}

type GradeSettings struct {
	Enabled         bool     `json:"enabled"`
	ExcludeTypes    []string `json:"exclude_types,omitempty"`
	ExcludeSubjects []string `json:"exclude_subjects,omitempty"`
}

// Missing-baseline policies for the schedule domain (spec'd per user so
// noisy first weeks can be silenced without a redeploy).
const (
	BaselineEmpty = "empty"
	BaselineSkip  = "skip"
)

type ScheduleSettings struct {
	Enabled         bool     `json:"enabled"`
	ExcludeSubjects []string `json:"exclude_subjects,omitempty"`
	// RolloverDay/RolloverHour: once this weekday+hour is reached the
	// monitored window advances to next week (Somtoday publishes next
	// week's schedule before the current week ends).
	RolloverDay       *int   `json:"rollover_day,omitempty"`
	RolloverHour      *int   `json:"rollover_hour,omitempty"`
	FetchEndDay       *int   `json:"fetch_end_day,omitempty"`
	LookaheadWeeks    *int   `json:"lookahead_weeks,omitempty"`
	OnMissingBaseline string `json:"on_missing_baseline,omitempty" valid:"in(empty|skip),optional"`
}

func (s ScheduleSettings) GetRolloverDay() int {
	if s.RolloverDay != nil {
		return *s.RolloverDay
	}
	return 4 // Friday
}

func (s ScheduleSettings) GetRolloverHour() int {
	if s.RolloverHour != nil {
		return *s.RolloverHour
	}
	return 16
}

func (s ScheduleSettings) GetFetchEndDay() int {
	if s.FetchEndDay != nil {
		return *s.FetchEndDay
	}
	return 5 // Saturday
}

func (s ScheduleSettings) GetLookaheadWeeks() int {
	if s.LookaheadWeeks != nil {
		return *s.LookaheadWeeks
	}
	return 8
}

func (s ScheduleSettings) GetOnMissingBaseline() string {
	if s.OnMissingBaseline == BaselineSkip {
		return BaselineSkip
	}
	return BaselineEmpty
}

type NotifySettings struct {
	Discord   DiscordSettings   `json:"discord"`
	Pushsafer PushsaferSettings `json:"pushsafer"`
	Whatsapp  WhatsappSettings  `json:"whatsapp"`
}

type DiscordSettings struct {
	GradesEnabled      bool     `json:"grades_enabled"`
	ScheduleEnabled    bool     `json:"schedule_enabled"`
	ErrorsEnabled      bool     `json:"errors_enabled"`
	GradesWebhookURL   string   `json:"grades_webhook_url,omitempty" valid:"url,optional"`
	ScheduleWebhookURL string   `json:"schedule_webhook_url,omitempty" valid:"url,optional"`
	ErrorsWebhookURL   string   `json:"errors_webhook_url,omitempty" valid:"url,optional"`
	MentionRoleID      string   `json:"mention_role_id,omitempty"`
	TTS                bool     `json:"tts"`
	BreakpointHigh     *float64 `json:"breakpoint_high,omitempty"`
	BreakpointMedium   *float64 `json:"breakpoint_medium,omitempty"`
	ColorHigh          *int     `json:"color_high,omitempty"`
	ColorMedium        *int     `json:"color_medium,omitempty"`
	ColorLow           *int     `json:"color_low,omitempty"`
	ColorDefault       *int     `json:"color_default,omitempty"`
}

func (s DiscordSettings) GetBreakpointHigh() float64 {
	if s.BreakpointHigh != nil {
		return *s.BreakpointHigh
	}
	return 7.5
}

func (s DiscordSettings) GetBreakpointMedium() float64 {
	if s.BreakpointMedium != nil {
		return *s.BreakpointMedium
	}
	return 5.5
}

func (s DiscordSettings) GetColorHigh() int {
	if s.ColorHigh != nil {
		return *s.ColorHigh
	}
	return 5763719
}

func (s DiscordSettings) GetColorMedium() int {
	if s.ColorMedium != nil {
		return *s.ColorMedium
	}
	return 3447003
}

func (s DiscordSettings) GetColorLow() int {
	if s.ColorLow != nil {
		return *s.ColorLow
	}
	return 15158332
}

func (s DiscordSettings) GetColorDefault() int {
	if s.ColorDefault != nil {
		return *s.ColorDefault
	}
	return 16730652
}

type PushsaferSettings struct {
	GradesEnabled    bool     `json:"grades_enabled"`
	ScheduleEnabled  bool     `json:"schedule_enabled"`
	ErrorsEnabled    bool     `json:"errors_enabled"`
	APIKey           string   `json:"api_key,omitempty"`
	DeviceID         string   `json:"device_id,omitempty"`
	SoundHigh        *int     `json:"sound_high,omitempty"`
	SoundMedium      *int     `json:"sound_medium,omitempty"`
	SoundLow         *int     `json:"sound_low,omitempty"`
	Icon             *int     `json:"icon,omitempty"`
	Priority         *int     `json:"priority,omitempty"`
	BreakpointHigh   *float64 `json:"breakpoint_high,omitempty"`
	BreakpointMedium *float64 `json:"breakpoint_medium,omitempty"`
}

func (s PushsaferSettings) GetSoundHigh() int {
	if s.SoundHigh != nil {
		return *s.SoundHigh
	}
	return 21
}

func (s PushsaferSettings) GetSoundMedium() int {
	if s.SoundMedium != nil {
		return *s.SoundMedium
	}
	return 18
}

func (s PushsaferSettings) GetSoundLow() int {
	if s.SoundLow != nil {
		return *s.SoundLow
	}
	return 42
}

func (s PushsaferSettings) GetIcon() int {
	if s.Icon != nil {
		return *s.Icon
	}
	return 2
}

func (s PushsaferSettings) GetPriority() int {
	if s.Priority != nil {
		return *s.Priority
	}
	return 2
}

func (s PushsaferSettings) GetBreakpointHigh() float64 {
	if s.BreakpointHigh != nil {
		return *s.BreakpointHigh
	}
	return 7.5
}

func (s PushsaferSettings) GetBreakpointMedium() float64 {
	if s.BreakpointMedium != nil {
		return *s.BreakpointMedium
	}
	return 5.5
}

type WhatsappSettings struct {
	GradesEnabled   bool   `json:"grades_enabled"`
	ScheduleEnabled bool   `json:"schedule_enabled"`
	ErrorsEnabled   bool   `json:"errors_enabled"`
	Telephone       string `json:"telephone,omitempty" valid:"numeric,optional"`
}

type UserRepo interface {
	GetActiveUsers(ctx context.Context) (*[]MonitorUser, error)
	GetUserByUsername(ctx context.Context, username string) (*MonitorUser, error)
	UpdateRefreshToken(ctx context.Context, userID int, token string) error
	TouchLastRun(ctx context.Context, userID int) error
}
