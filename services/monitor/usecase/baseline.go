package usecase

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"somplus/domain"
)

// WeekWindow is the Monday-to-end date window the schedule monitor is
// currently watching, with its ISO week number.
type WeekWindow struct {
	Monday time.Time
	End    time.Time
	Week   int
}

// TargetWeek computes the monitored window. Once the configured
// rollover moment is reached (Friday 16:00 by default) the window
// advances to next week, because Somtoday starts publishing next week's
// schedule before the current one ends.
func TargetWeek(now time.Time, settings domain.ScheduleSettings) WeekWindow {
	rolloverDay := settings.GetRolloverDay()
	day := mondayIndex(now)

	if day == rolloverDay && now.Hour() >= settings.GetRolloverHour() {
		now = now.AddDate(0, 0, 7-rolloverDay)
	} else if day > rolloverDay {
		now = now.AddDate(0, 0, 7-day)
	}

	monday := now.AddDate(0, 0, -mondayIndex(now))
	monday = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, monday.Location())
	end := monday.AddDate(0, 0, settings.GetFetchEndDay())
	_, week := monday.ISOWeek()

	return WeekWindow{Monday: monday, End: end, Week: week}
}

// FindStandardSchedule synthesizes a baseline when no week-aligned
// snapshot exists: it probes the next few weeks and keeps the one with
// the most normalized lessons. Cancellations and holidays make weeks
// sparser, so the densest week is the best proxy for an unmodified one.
// Returns nil when no week could be fetched at all.
func FindStandardSchedule(ctx context.Context, api domain.SchoolAPI, accessToken string, settings domain.ScheduleSettings, now time.Time, log *logrus.Logger) []domain.Lesson {
	var best []domain.Lesson
	bestCount := 0
	bestWeek := 0

	for offset := 0; offset < settings.GetLookaheadWeeks(); offset++ {
		check := now.AddDate(0, 0, 7*offset)
		monday := check.AddDate(0, 0, -mondayIndex(check))
		saturday := monday.AddDate(0, 0, 5)
		_, week := monday.ISOWeek()

		raw, err := api.FetchSchedule(ctx, accessToken, monday, saturday)
		if err != nil {
			log.WithField("week", week).WithError(err).Warn("Standard schedule probe failed")
			continue
		}

		lessons := NormalizeSchedule(raw, settings)
		log.WithFields(logrus.Fields{"week": week, "lessons": len(lessons)}).Debug("Probed week for standard schedule")

		if len(lessons) > bestCount {
			best = lessons
			bestCount = len(lessons)
			bestWeek = week
		}
	}

	if best != nil {
		log.WithFields(logrus.Fields{"week": bestWeek, "lessons": bestCount}).Info("Selected standard schedule")
	}
	return best
}

// mondayIndex maps time.Weekday to the 0=Monday indexing used across
// the schedule domain.
func mondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
