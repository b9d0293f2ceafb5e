package delivery

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"somplus/domain"
)

var (
	dayNamesLong  = [5]string{"maandag", "dinsdag", "woensdag", "donderdag", "vrijdag"}
	dayNamesShort = [5]string{"ma", "di", "wo", "do", "vr"}
)

// parseResult turns a Dutch-formatted result ("7,5") into a float.
func parseResult(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// resultDelta renders the difference between two numeric results, with a
// percentage when the old value allows one. Returns "?" when either side
// is not numeric.
func resultDelta(oldResult, newResult string) string {
	oldNum, okOld := parseResult(oldResult)
	newNum, okNew := parseResult(newResult)
	if !okOld || !okNew {
		return "?"
	}

	diff := newNum - oldNum
	pct := ""
	if oldNum != 0 {
		pct = fmt.Sprintf(", %+.1f%%", diff/oldNum*100)
	}
	if diff == 0 {
		return "±0.0"
	}
	return fmt.Sprintf("%+.1f%s", diff, pct)
}

func subjectName(g domain.Grade) string {
	if g.SubjectName != "" {
		return g.SubjectName
	}
	return g.SubjectAbbr
}

func testName(g domain.Grade) string {
	if g.Description != "" {
		return g.Description
	}
	return "onbekend"
}

// gradeFlags lists the status markers on a grade, in the order they are
// shown.
func gradeFlags(g domain.Grade) []string {
	var flags []string
	if g.Result == "" && g.ResultLabel != "" {
		flags = append(flags, "label cijfer")
	}
	if g.DoesNotCount {
		flags = append(flags, "telt niet mee")
	}
	if g.Exemption {
		flags = append(flags, "vrijstelling")
	}
	if g.NotTaken {
		flags = append(flags, "niet gemaakt")
	}
	return flags
}

// fieldOrder fixes the rendering order of grade field diffs.
var fieldOrder = []string{
	domain.FieldResult,
	domain.FieldRetakeResult,
	domain.FieldWeighting,
	domain.FieldExamWeight,
	domain.FieldPeriod,
	domain.FieldDoesNotCount,
	domain.FieldExemption,
	domain.FieldNotTaken,
}

var fieldLabels = map[string]string{
	domain.FieldResult:       "Cijfer",
	domain.FieldRetakeResult: "Herkansing",
	domain.FieldWeighting:    "weging",
	domain.FieldExamWeight:   "examen weging",
	domain.FieldPeriod:       "periode",
	domain.FieldDoesNotCount: "telt niet mee",
	domain.FieldExemption:    "vrijstelling",
	domain.FieldNotTaken:     "niet gemaakt",
}

// scheduleChangeLine renders one schedule change as a single line. The
// bold marker wraps emphasized fragments for Discord and stays empty for
// plain-text sinks.
func scheduleChangeLine(c domain.ScheduleChange, bold, day string) string {
	switch c.Kind {
	case domain.ScheduleCancelled:
		return fmt.Sprintf("%s%s%s: uitval %s%s%s", bold, day, bold, bold, c.Subject, bold)
	case domain.ScheduleCompleteCancelled:
		return fmt.Sprintf("%s%s%s: complete uitval %s%s%s (%d lessen)", bold, day, bold, bold, c.Subject, bold, c.Count)
	case domain.SchedulePartialCancelled:
		return fmt.Sprintf("%s%s%s: gedeeltelijke uitval %s%s%s (-%d %s)", bold, day, bold, bold, c.Subject, bold, c.Count, lessonWord(c.Count))
	case domain.ScheduleAddedLesson:
		return fmt.Sprintf("%s%s%s: extra les %s%s%s (+%d)", bold, day, bold, bold, c.Subject, bold, c.Count)
	case domain.ScheduleMoved:
		return fmt.Sprintf("%s%s%s: %s%s%s verplaatst van %s naar %s", bold, day, bold, bold, c.Subject, bold, joinPeriods(c.OldPeriods), joinPeriods(c.NewPeriods))
	case domain.ScheduleSubjectChange:
		return fmt.Sprintf("%s%s%s %de uur: %s%s%s -> %s%s%s", bold, day, bold, c.Period, bold, c.Old, bold, bold, c.New, bold)
	case domain.ScheduleTeacherChange:
		return fmt.Sprintf("%s%s%s %s%s%s: docent %s -> %s", bold, day, bold, bold, c.Subject, bold, c.Old, c.New)
	case domain.ScheduleLocationChange:
		return fmt.Sprintf("%s%s%s %s%s%s: lokaal %s -> %s", bold, day, bold, bold, c.Subject, bold, c.Old, c.New)
	}
	return ""
}

// orderChanges puts cancellation-like changes ahead of field-level ones,
// keeping the differ's order inside each group.
func orderChanges(changes []domain.ScheduleChange) []domain.ScheduleChange {
	ordered := make([]domain.ScheduleChange, len(changes))
	copy(ordered, changes)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].IsCancellation() && !ordered[j].IsCancellation()
	})
	return ordered
}

func formatScheduleChanges(changes []domain.ScheduleChange, bold string) string {
	var lines []string
	for _, c := range orderChanges(changes) {
		if line := scheduleChangeLine(c, bold, dayLong(c.Day)); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return "Geen wijzigingen"
	}
	return strings.Join(lines, "\n")
}

func dayLong(day int) string {
	if day >= 0 && day < len(dayNamesLong) {
		return dayNamesLong[day]
	}
	return "?"
}

func dayShort(day int) string {
	if day >= 0 && day < len(dayNamesShort) {
		return dayNamesShort[day]
	}
	return "?"
}

func lessonWord(count int) string {
	if count == 1 {
		return "les"
	}
	return "lessen"
}

func changeWord(count int) string {
	if count == 1 {
		return "wijziging"
	}
	return "wijzigingen"
}

func joinPeriods(periods []int) string {
	parts := make([]string, len(periods))
	for i, p := range periods {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

func lessonsByDay(display domain.ScheduleDisplay) map[int][]domain.Lesson {
	byDay := make(map[int][]domain.Lesson)
	for _, lesson := range display.Lessons {
		byDay[lesson.Day] = append(byDay[lesson.Day], lesson)
	}
	return byDay
}

// formatDaySchedule lists a day's lessons ordered by start period.
func formatDaySchedule(lessons []domain.Lesson, withDetails bool) string {
	if len(lessons) == 0 {
		return "Geen lessen"
	}

	sorted := make([]domain.Lesson, len(lessons))
	copy(sorted, lessons)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartPeriod < sorted[j].StartPeriod })

	var lines []string
	for _, lesson := range sorted {
		if lesson.Subject == "" {
			continue
		}
		line := fmt.Sprintf("%de: %s", lesson.StartPeriod, lesson.Subject)
		if withDetails {
			line += fmt.Sprintf(" (%s, %s)", strings.Join(lesson.Teachers, ", "), lesson.Location)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "Geen lessen"
	}
	return strings.Join(lines, "\n")
}

// affectedDays lists the distinct days touched by a change set, sorted.
func affectedDays(changes []domain.ScheduleChange) []int {
	seen := make(map[int]bool)
	for _, c := range changes {
		seen[c.Day] = true
	}
	days := make([]int, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Ints(days)
	return days
}

// digestLines renders the hourly error digest, one line per distinct
// message with its repeat count.
func digestLines(entries []domain.ErrorEvent) (int, []string) {
	total := 0
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		total += entry.Count
		line := entry.Message
		if entry.Count > 1 {
			line += fmt.Sprintf(" (x%d)", entry.Count)
		}
		lines = append(lines, line)
	}
	return total, lines
}

func errorWord(count int) string {
	if count == 1 {
		return "error"
	}
	return "errors"
}
