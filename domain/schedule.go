package domain

import "time"

// Schedule change kinds.
const (
	ScheduleCancelled         = "CANCELLED"
	ScheduleCompleteCancelled = "COMPLETE_CANCELLED"
	SchedulePartialCancelled  = "PARTIAL_CANCELLED"
	ScheduleAddedLesson       = "ADDED_LESSON"
	ScheduleSubjectChange     = "SUBJECT_CHANGE"
	ScheduleTeacherChange     = "TEACHER_CHANGE"
	ScheduleLocationChange    = "LOCATION_CHANGE"
	ScheduleMoved             = "MOVED"
)

// Weekdays maps the lesson day index (0 = Monday) to a short label.
var Weekdays = [7]string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}

// Lesson is the canonical form of one lesson occurrence. A lesson can
// span multiple periods; StartPeriod through EndPeriod is inclusive.
type Lesson struct {
	Subject     string    `json:"subject"`
	Teachers    []string  `json:"teachers,omitempty"`
	Location    string    `json:"location,omitempty"`
	Day         int       `json:"day"`
	StartPeriod int       `json:"start_period"`
	EndPeriod   int       `json:"end_period"`
	StartsAt    time.Time `json:"starts_at,omitempty"`
	EndsAt      time.Time `json:"ends_at,omitempty"`
}

// Duration is the number of periods the lesson occupies.
func (l Lesson) Duration() int {
	return l.EndPeriod - l.StartPeriod + 1
}

// Periods lists every period number the lesson occupies.
func (l Lesson) Periods() []int {
	periods := make([]int, 0, l.Duration())
	for p := l.StartPeriod; p <= l.EndPeriod; p++ {
		periods = append(periods, p)
	}
	return periods
}

// ScheduleChange is one detected difference between two schedule
// snapshots. Which fields are set depends on the kind: cancellation
// kinds carry Count (hours), MOVED carries the period sets, the field
// changes carry Old/New.
type ScheduleChange struct {
	Kind       string `json:"kind"`
	Day        int    `json:"day"`
	Subject    string `json:"subject,omitempty"`
	Count      int    `json:"count,omitempty"`
	Period     int    `json:"period,omitempty"`
	Old        string `json:"old,omitempty"`
	New        string `json:"new,omitempty"`
	OldPeriods []int  `json:"old_periods,omitempty"`
	NewPeriods []int  `json:"new_periods,omitempty"`
}

// IsCancellation reports whether the change is a cancellation-like kind.
// Sinks surface these first.
func (c ScheduleChange) IsCancellation() bool {
	switch c.Kind {
	case ScheduleCancelled, ScheduleCompleteCancelled, SchedulePartialCancelled, ScheduleAddedLesson:
		return true
	}
	return false
}

// ScheduleDisplay is the rendering context handed to sinks next to a
// schedule change set: the full current week as it now stands.
type ScheduleDisplay struct {
	WeekNumber int      `json:"week_number"`
	Lessons    []Lesson `json:"lessons"`
}
