package usecase

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"somplus/domain"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04", value)
	require.NoError(t, err)
	return parsed
}

func TestTargetWeekMidweek(t *testing.T) {
	// Thursday stays inside the current week.
	now := mustTime(t, "2026-01-15 10:00")

	window := TargetWeek(now, domain.ScheduleSettings{})

	assert.Equal(t, "2026-01-12", window.Monday.Format("2006-01-02"))
	assert.Equal(t, "2026-01-17", window.End.Format("2006-01-02"))
	_, week := window.Monday.ISOWeek()
	assert.Equal(t, week, window.Week)
}

func TestTargetWeekFridayBeforeRollover(t *testing.T) {
	now := mustTime(t, "2026-01-16 15:59")

	window := TargetWeek(now, domain.ScheduleSettings{})

	assert.Equal(t, "2026-01-12", window.Monday.Format("2006-01-02"))
}

func TestTargetWeekFridayAfterRollover(t *testing.T) {
	now := mustTime(t, "2026-01-16 16:00")

	window := TargetWeek(now, domain.ScheduleSettings{})

	assert.Equal(t, "2026-01-19", window.Monday.Format("2006-01-02"))
}

func TestTargetWeekWeekend(t *testing.T) {
	now := mustTime(t, "2026-01-17 09:00")

	window := TargetWeek(now, domain.ScheduleSettings{})

	assert.Equal(t, "2026-01-19", window.Monday.Format("2006-01-02"))
}

func TestTargetWeekCustomRollover(t *testing.T) {
	// Rollover configured at Wednesday 12:00.
	day := 2
	hour := 12
	settings := domain.ScheduleSettings{RolloverDay: &day, RolloverHour: &hour}

	window := TargetWeek(mustTime(t, "2026-01-14 13:00"), settings)
	assert.Equal(t, "2026-01-19", window.Monday.Format("2006-01-02"))

	window = TargetWeek(mustTime(t, "2026-01-14 11:00"), settings)
	assert.Equal(t, "2026-01-12", window.Monday.Format("2006-01-02"))
}

func TestFindStandardSchedulePicksDensestWeek(t *testing.T) {
	// Three probe weeks: a holiday week, a full week, a partial week.
	weeks := [][]domain.Record{
		{},
		{
			rawLesson("WISB", "2026-03-09", 3, 3),
			rawLesson("NAT", "2026-03-09", 4, 4),
			rawLesson("ENG", "2026-03-10", 1, 1),
		},
		{
			rawLesson("WISB", "2026-03-16", 3, 3),
		},
	}

	calls := 0
	api := &fakeSchoolAPI{
		fetchSchedule: func(start, end time.Time) ([]domain.Record, error) {
			raw := weeks[calls%len(weeks)]
			calls++
			return raw, nil
		},
	}

	lookahead := 3
	settings := domain.ScheduleSettings{LookaheadWeeks: &lookahead}

	best := FindStandardSchedule(context.Background(), api, "token", settings, mustTime(t, "2026-03-02 08:00"), testLogger())

	require.Len(t, best, 3)
	assert.Equal(t, 3, calls)
}

func TestFindStandardScheduleSkipsFailedProbes(t *testing.T) {
	calls := 0
	api := &fakeSchoolAPI{
		fetchSchedule: func(start, end time.Time) ([]domain.Record, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("upstream 500")
			}
			return []domain.Record{rawLesson("WISB", "2026-03-09", 3, 3)}, nil
		},
	}

	lookahead := 2
	settings := domain.ScheduleSettings{LookaheadWeeks: &lookahead}

	best := FindStandardSchedule(context.Background(), api, "token", settings, mustTime(t, "2026-03-02 08:00"), testLogger())

	require.Len(t, best, 1)
}

func TestFindStandardScheduleNothingFetched(t *testing.T) {
	api := &fakeSchoolAPI{
		fetchSchedule: func(start, end time.Time) ([]domain.Record, error) {
			return nil, errors.New("upstream 500")
		},
	}

	lookahead := 2
	settings := domain.ScheduleSettings{LookaheadWeeks: &lookahead}

	best := FindStandardSchedule(context.Background(), api, "token", settings, mustTime(t, "2026-03-02 08:00"), testLogger())

	assert.Nil(t, best)
}

func TestMondayIndex(t *testing.T) {
	assert.Equal(t, 0, mondayIndex(mustTime(t, "2026-03-09 08:00")))
	assert.Equal(t, 4, mondayIndex(mustTime(t, "2026-03-13 08:00")))
	assert.Equal(t, 6, mondayIndex(mustTime(t, "2026-03-15 08:00")))
}
