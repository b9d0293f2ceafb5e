package config

import (
	"fmt"
	"os"
	"time"

	"github.com/bytedance/sonic"
)

// SleepWindow maps a time-of-day range to a polling interval in seconds.
// Start and end are [hour, minute] pairs; a window may wrap past
// midnight.
type SleepWindow struct {
	Start [2]int `json:"start"`
	End   [2]int `json:"end"`
	Sleep int    `json:"sleep"`
}

const defaultSleepSeconds = 300

var defaultSleepSchedule = []SleepWindow{
	{Start: [2]int{7, 30}, End: [2]int{17, 0}, Sleep: 300},
	{Start: [2]int{17, 0}, End: [2]int{23, 0}, Sleep: 900},
	{Start: [2]int{23, 0}, End: [2]int{7, 30}, Sleep: 3600},
}

// GetSleepSchedule reads the polling windows from SCHEDULER_WINDOWS
// (JSON array) and falls back to the built-in school-hours table.
func GetSleepSchedule() ([]SleepWindow, error) {
	v := os.Getenv("SCHEDULER_WINDOWS")
	if v == "" {
		return defaultSleepSchedule, nil
	}

	var windows []SleepWindow
	if err := sonic.Unmarshal([]byte(v), &windows); err != nil {
		return nil, fmt.Errorf("failed to parse SCHEDULER_WINDOWS: %w", err)
	}
	if len(windows) == 0 {
		return defaultSleepSchedule, nil
	}
	return windows, nil
}

// CurrentSleepInterval picks the interval whose window contains now.
func CurrentSleepInterval(windows []SleepWindow, now time.Time) time.Duration {
	current := now.Hour()*60 + now.Minute()

	for _, window := range windows {
		start := window.Start[0]*60 + window.Start[1]
		end := window.End[0]*60 + window.End[1]

		if start > end {
			// Window wraps past midnight.
			if current >= start || current < end {
				return time.Duration(window.Sleep) * time.Second
			}
		} else if start <= current && current < end {
			return time.Duration(window.Sleep) * time.Second
		}
	}
	return defaultSleepSeconds * time.Second
}
