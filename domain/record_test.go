package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordAccessors(t *testing.T) {
	r := Record{
		"name":    "WISB",
		"weging":  3.0,
		"periode": 2.0,
		"actief":  true,
		"leeg":    nil,
	}

	assert.Equal(t, "WISB", r.Str("name"))
	assert.Equal(t, "", r.Str("missing"))
	assert.Equal(t, "fallback", r.StrOr("missing", "fallback"))

	w, ok := r.Float("weging")
	assert.True(t, ok)
	assert.Equal(t, 3.0, w)

	p, ok := r.Int("periode")
	assert.True(t, ok)
	assert.Equal(t, 2, p)

	_, ok = r.Int("name")
	assert.False(t, ok)

	assert.True(t, r.Bool("actief"))
	assert.True(t, r.Has("name"))
	assert.False(t, r.Has("leeg"))
	assert.False(t, r.Has("missing"))
}

func TestRecordTime(t *testing.T) {
	r := Record{
		"micro":   "2026-03-10T14:30:00.000000+01:00",
		"rfc":     "2026-03-10T14:30:00+01:00",
		"naive":   "2026-03-10T14:30:00",
		"garbage": "yesterday",
	}

	parsed, ok := r.Time("micro")
	assert.True(t, ok)
	assert.Equal(t, 14, parsed.Hour())

	_, ok = r.Time("rfc")
	assert.True(t, ok)

	naive, ok := r.Time("naive")
	assert.True(t, ok)
	assert.Equal(t, time.March, naive.Month())

	_, ok = r.Time("garbage")
	assert.False(t, ok)
	_, ok = r.Time("missing")
	assert.False(t, ok)
}

func TestRecordClean(t *testing.T) {
	r := Record{
		"links":       []any{map[string]any{"id": 1.0}},
		"permissions": []any{},
		"$type":       "resultaat.RResultaat",
		"omschrijving": "Toets 1",
		"additionalObjects": map[string]any{
			"vaknaam": "Wiskunde B",
			"links":   []any{},
		},
		"vak": map[string]any{
			"afkorting": "WISB",
			"$type":     "onderwijs.RVak",
		},
	}

	cleaned := r.Clean()

	assert.False(t, cleaned.Has("links"))
	assert.False(t, cleaned.Has("permissions"))
	assert.False(t, cleaned.Has("$type"))
	assert.Equal(t, "Toets 1", cleaned.Str("omschrijving"))
	assert.Equal(t, "Wiskunde B", cleaned.Map("additionalObjects").Str("vaknaam"))
	assert.False(t, cleaned.Map("additionalObjects").Has("links"))
	assert.Equal(t, "WISB", cleaned.Map("vak").Str("afkorting"))
	assert.False(t, cleaned.Map("vak").Has("$type"))
}

func TestRecordCleanDropsEmptyAdditionalObjects(t *testing.T) {
	r := Record{
		"omschrijving":      "Toets 1",
		"additionalObjects": map[string]any{},
	}

	cleaned := r.Clean()
	assert.False(t, cleaned.Has("additionalObjects"))
}

func TestRecordList(t *testing.T) {
	r := Record{
		"vakken": []any{
			map[string]any{"afkorting": "WISB"},
			map[string]any{"afkorting": "NAT"},
		},
	}

	vakken := r.List("vakken")
	assert.Len(t, vakken, 2)
	assert.Equal(t, "WISB", vakken[0].Str("afkorting"))
	assert.Nil(t, r.List("missing"))
}
