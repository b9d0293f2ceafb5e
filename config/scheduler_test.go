package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSleepScheduleDefault(t *testing.T) {
	t.Setenv("SCHEDULER_WINDOWS", "")

	windows, err := GetSleepSchedule()
	require.NoError(t, err)
	assert.Len(t, windows, 3)
}

func TestGetSleepScheduleFromEnv(t *testing.T) {
	t.Setenv("SCHEDULER_WINDOWS", `[{"start":[8,0],"end":[16,0],"sleep":120}]`)

	windows, err := GetSleepSchedule()
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, 120, windows[0].Sleep)
}

func TestGetSleepScheduleInvalidJSON(t *testing.T) {
	t.Setenv("SCHEDULER_WINDOWS", "not json")

	_, err := GetSleepSchedule()
	assert.Error(t, err)
}

func TestCurrentSleepInterval(t *testing.T) {
	windows := []SleepWindow{
		{Start: [2]int{7, 30}, End: [2]int{17, 0}, Sleep: 300},
		{Start: [2]int{23, 0}, End: [2]int{7, 30}, Sleep: 3600},
	}

	at := func(hour, minute int) time.Time {
		return time.Date(2026, 3, 9, hour, minute, 0, 0, time.UTC)
	}

	assert.Equal(t, 300*time.Second, CurrentSleepInterval(windows, at(9, 0)))
	assert.Equal(t, 300*time.Second, CurrentSleepInterval(windows, at(7, 30)))
	// The night window wraps past midnight.
	assert.Equal(t, 3600*time.Second, CurrentSleepInterval(windows, at(23, 30)))
	assert.Equal(t, 3600*time.Second, CurrentSleepInterval(windows, at(2, 0)))
	// A gap between windows falls back to the default.
	assert.Equal(t, 300*time.Second, CurrentSleepInterval(windows, at(18, 0)))
}
