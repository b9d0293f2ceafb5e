package delivery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"somplus/domain"
)

func pushsaferUser() *domain.MonitorUser {
	return &domain.MonitorUser{
		Username:    "alice",
		DisplayName: "Alice",
		Settings: domain.UserSettings{
			Notify: domain.NotifySettings{
				Pushsafer: domain.PushsaferSettings{
					GradesEnabled:   true,
					ScheduleEnabled: true,
					ErrorsEnabled:   true,
					APIKey:          "key-1",
					DeviceID:        "device-1",
				},
			},
		},
	}
}

func capturePushsafer(t *testing.T) (*pushsaferNotifier, *url.Values) {
	t.Helper()
	var captured url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		captured = r.PostForm
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	notifier := NewPushsaferNotifier(testLogger()).(*pushsaferNotifier)
	notifier.endpoint = server.URL
	return notifier, &captured
}

func TestPushsaferNewGrade(t *testing.T) {
	notifier, captured := capturePushsafer(t)

	change := domain.GradeChange{
		Kind: domain.GradeNew,
		Grade: domain.Grade{
			SubjectAbbr: "WISB",
			Description: "Toets 1",
			Result:      "8,0",
			Weighting:   2,
			Period:      1,
		},
	}

	require.NoError(t, notifier.NotifyGradeChange(context.Background(), pushsaferUser(), change))

	form := *captured
	assert.Equal(t, "key-1", form.Get("k"))
	assert.Equal(t, "device-1", form.Get("d"))
	assert.Equal(t, "Nieuw cijfer: 8,0", form.Get("t"))
	assert.Contains(t, form.Get("m"), "WISB")
	assert.Contains(t, form.Get("m"), "Periode 1")
	// High result picks the high sound.
	assert.Equal(t, "21", form.Get("s"))
	assert.Equal(t, "2", form.Get("i"))
	assert.Equal(t, "2", form.Get("pr"))
	assert.Equal(t, "somtoday://", form.Get("u"))
}

func TestPushsaferLowGradeSound(t *testing.T) {
	notifier, captured := capturePushsafer(t)

	change := domain.GradeChange{
		Kind:  domain.GradeNew,
		Grade: domain.Grade{SubjectAbbr: "WISB", Result: "4,5"},
	}

	require.NoError(t, notifier.NotifyGradeChange(context.Background(), pushsaferUser(), change))
	assert.Equal(t, "42", (*captured).Get("s"))
}

func TestPushsaferScheduleChanges(t *testing.T) {
	notifier, captured := capturePushsafer(t)

	changes := []domain.ScheduleChange{
		{Kind: domain.SchedulePartialCancelled, Day: 2, Subject: "NAT", Count: 2},
	}
	display := domain.ScheduleDisplay{
		Lessons: []domain.Lesson{
			{Subject: "WISB", Teachers: []string{"JAN"}, Location: "A101", Day: 0, StartPeriod: 3, EndPeriod: 3},
		},
	}

	require.NoError(t, notifier.NotifyScheduleChanges(context.Background(), pushsaferUser(), changes, display))

	form := *captured
	assert.Equal(t, "Rooster gewijzigd (1 wijziging)", form.Get("t"))
	assert.Contains(t, form.Get("m"), "wo: gedeeltelijke uitval NAT (-2 lessen)")
	assert.Contains(t, form.Get("m"), "vandaag:")
	assert.Contains(t, form.Get("m"), "3e: WISB (JAN, A101)")
}

func TestPushsaferErrorDigest(t *testing.T) {
	notifier, captured := capturePushsafer(t)

	entries := []domain.ErrorEvent{
		{Message: "Failed to fetch schedule", Count: 2},
	}

	require.NoError(t, notifier.NotifyErrorDigest(context.Background(), pushsaferUser(), entries))

	form := *captured
	assert.Equal(t, "Fouten (2)", form.Get("t"))
	assert.Contains(t, form.Get("m"), "Failed to fetch schedule (x2)")
}

func TestPushsaferDisabledSinkIsSilent(t *testing.T) {
	notifier, captured := capturePushsafer(t)

	user := pushsaferUser()
	user.Settings.Notify.Pushsafer.GradesEnabled = false

	change := domain.GradeChange{Kind: domain.GradeNew, Grade: domain.Grade{SubjectAbbr: "WISB"}}
	require.NoError(t, notifier.NotifyGradeChange(context.Background(), user, change))
	assert.Empty(t, *captured)
}
