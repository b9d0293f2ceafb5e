package domain

import (
	"time"
)

// Record is a single semi-structured item as returned by the Somtoday
// REST API. Fields may be missing or carry another type than expected,
// so reads go through defaulting getters instead of struct decoding.
type Record map[string]any

// transport-only keys that never carry schedule or grade content
var transportKeys = map[string]bool{
	"links":       true,
	"permissions": true,
	"$type":       true,
}

func (r Record) Str(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

func (r Record) StrOr(key, def string) string {
	if v, ok := r[key].(string); ok && v != "" {
		return v
	}
	return def
}

// Int reads a numeric field. JSON decoding yields float64 for all
// numbers, but cached payloads may round-trip as int.
func (r Record) Int(key string) (int, bool) {
	switch v := r[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func (r Record) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func (r Record) Bool(key string) bool {
	v, _ := r[key].(bool)
	return v
}

func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

func (r Record) Map(key string) Record {
	switch v := r[key].(type) {
	case Record:
		return v
	case map[string]any:
		return Record(v)
	}
	return nil
}

func (r Record) List(key string) []Record {
	raw, ok := r[key].([]any)
	if !ok {
		return nil
	}
	out := make([]Record, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case Record:
			out = append(out, v)
		case map[string]any:
			out = append(out, Record(v))
		}
	}
	return out
}

// somtodayTimeLayouts covers the microsecond timestamps the API sends
// and the plain RFC3339 form found in older cached payloads.
var somtodayTimeLayouts = []string{
	"2006-01-02T15:04:05.000000-07:00",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

func (r Record) Time(key string) (time.Time, bool) {
	s := r.Str(key)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range somtodayTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Clean returns a copy with transport-only fields stripped at every
// nesting level, and empty additionalObjects containers dropped.
func (r Record) Clean() Record {
	cleaned := make(Record, len(r))
	for k, v := range r {
		if transportKeys[k] {
			continue
		}
		if k == "additionalObjects" {
			m, ok := v.(map[string]any)
			if !ok || len(m) == 0 {
				continue
			}
		}
		cleaned[k] = cleanValue(v)
	}
	return cleaned
}

func cleanValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return map[string]any(Record(val).Clean())
	case Record:
		return val.Clean()
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			out = append(out, cleanValue(item))
		}
		return out
	default:
		return v
	}
}
