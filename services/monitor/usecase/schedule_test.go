package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"somplus/domain"
)

func rawLesson(subject string, day string, start, end float64) domain.Record {
	return domain.Record{
		"beginLesuur":    start,
		"eindLesuur":     end,
		"beginDatumTijd": day + "T09:00:00.000000+01:00",
		"eindDatumTijd":  day + "T09:50:00.000000+01:00",
		"vakken": []any{
			map[string]any{"afkorting": subject},
		},
		"docenten": []any{
			map[string]any{"afkorting": "JAN"},
		},
		"locatie": "A101",
	}
}

func TestNormalizeScheduleDropsRecordsWithoutPeriods(t *testing.T) {
	raw := []domain.Record{
		rawLesson("WISB", "2026-03-09", 3, 3),
		{
			"beginDatumTijd": "2026-03-09T09:00:00.000000+01:00",
			"vakken":         []any{map[string]any{"afkorting": "NAT"}},
		},
	}

	lessons := NormalizeSchedule(raw, domain.ScheduleSettings{})

	require.Len(t, lessons, 1)
	assert.Equal(t, "WISB", lessons[0].Subject)
}

func TestNormalizeScheduleStructuredFields(t *testing.T) {
	// 2026-03-09 is a Monday.
	raw := []domain.Record{rawLesson("WISB", "2026-03-09", 3, 4)}

	lessons := NormalizeSchedule(raw, domain.ScheduleSettings{})

	require.Len(t, lessons, 1)
	lesson := lessons[0]
	assert.Equal(t, "WISB", lesson.Subject)
	assert.Equal(t, []string{"JAN"}, lesson.Teachers)
	assert.Equal(t, "A101", lesson.Location)
	assert.Equal(t, 0, lesson.Day)
	assert.Equal(t, 3, lesson.StartPeriod)
	assert.Equal(t, 4, lesson.EndPeriod)
	assert.Equal(t, 2, lesson.Duration())
}

func TestNormalizeScheduleAdditionalObjectsFallback(t *testing.T) {
	raw := []domain.Record{{
		"beginLesuur":    2.0,
		"eindLesuur":     2.0,
		"beginDatumTijd": "2026-03-10T10:00:00.000000+01:00",
		"additionalObjects": map[string]any{
			"vak":               map[string]any{"afkorting": "NAT"},
			"docentAfkortingen": "pie, jan",
		},
	}}

	lessons := NormalizeSchedule(raw, domain.ScheduleSettings{})

	require.Len(t, lessons, 1)
	assert.Equal(t, "NAT", lessons[0].Subject)
	assert.Equal(t, []string{"PIE", "JAN"}, lessons[0].Teachers)
	assert.Equal(t, 1, lessons[0].Day)
}

func TestNormalizeScheduleTitleFallback(t *testing.T) {
	raw := []domain.Record{{
		"beginLesuur": 5.0,
		"eindLesuur":  5.0,
		"titel":       "A101 - WISB - Jansen",
	}}

	lessons := NormalizeSchedule(raw, domain.ScheduleSettings{})

	require.Len(t, lessons, 1)
	assert.Equal(t, "WISB", lessons[0].Subject)
	assert.Equal(t, []string{"Jansen"}, lessons[0].Teachers)
	assert.Equal(t, "A101", lessons[0].Location)
}

func TestNormalizeScheduleTwoSegmentTitle(t *testing.T) {
	raw := []domain.Record{{
		"beginLesuur": 5.0,
		"eindLesuur":  5.0,
		"titel":       "WISB - Jansen",
	}}

	lessons := NormalizeSchedule(raw, domain.ScheduleSettings{})

	require.Len(t, lessons, 1)
	assert.Equal(t, "WISB", lessons[0].Subject)
	assert.Equal(t, []string{"Jansen"}, lessons[0].Teachers)
	assert.Equal(t, "", lessons[0].Location)
}

func TestNormalizeScheduleDropsSubjectlessRecords(t *testing.T) {
	raw := []domain.Record{{
		"beginLesuur": 1.0,
		"eindLesuur":  1.0,
		"titel":       "Studieuur",
	}}

	assert.Empty(t, NormalizeSchedule(raw, domain.ScheduleSettings{}))
}

func TestNormalizeScheduleExcludesSubjects(t *testing.T) {
	raw := []domain.Record{
		rawLesson("WISB", "2026-03-09", 3, 3),
		rawLesson("LO", "2026-03-09", 5, 6),
	}

	lessons := NormalizeSchedule(raw, domain.ScheduleSettings{
		ExcludeSubjects: []string{"LO"},
	})

	require.Len(t, lessons, 1)
	assert.Equal(t, "WISB", lessons[0].Subject)
}
