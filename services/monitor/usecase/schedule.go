package usecase

import (
	"strings"

	"somplus/domain"
)

// NormalizeSchedule converts raw lesson occurrences into canonical
// lessons. Records that cannot be placed in the weekly grid (no period
// numbers) or carry no identifiable subject are dropped.
func NormalizeSchedule(raw []domain.Record, settings domain.ScheduleSettings) []domain.Lesson {
	excludeSubjects := toSet(settings.ExcludeSubjects)

	lessons := make([]domain.Lesson, 0, len(raw))
	for _, entry := range raw {
		entry = entry.Clean()

		startPeriod, ok := entry.Int("beginLesuur")
		if !ok {
			continue
		}
		endPeriod, ok := entry.Int("eindLesuur")
		if !ok {
			continue
		}

		lesson, ok := toLesson(entry, startPeriod, endPeriod)
		if !ok {
			continue
		}
		if excludeSubjects[lesson.Subject] {
			continue
		}
		lessons = append(lessons, lesson)
	}
	return lessons
}

func toLesson(entry domain.Record, startPeriod, endPeriod int) (domain.Lesson, bool) {
	subject := structuredSubject(entry)
	teachers := structuredTeachers(entry)
	location := entry.Str("locatie")

	// Appointments without structured subject data usually still encode
	// "location - subject - teacher" (or "subject - teacher") in the
	// free-text title.
	if subject == "" || len(teachers) == 0 {
		titleLocation, titleSubject, titleTeacher := splitTitle(entry.Str("titel"))
		if subject == "" {
			subject = titleSubject
		}
		if len(teachers) == 0 && titleTeacher != "" {
			teachers = []string{titleTeacher}
		}
		if location == "" {
			location = titleLocation
		}
	}

	if subject == "" {
		return domain.Lesson{}, false
	}

	lesson := domain.Lesson{
		Subject:     subject,
		Teachers:    teachers,
		Location:    location,
		StartPeriod: startPeriod,
		EndPeriod:   endPeriod,
	}

	if t, ok := entry.Time("beginDatumTijd"); ok {
		lesson.StartsAt = t
		lesson.Day = mondayIndex(t)
	}
	if t, ok := entry.Time("eindDatumTijd"); ok {
		lesson.EndsAt = t
	}
	return lesson, true
}

func structuredSubject(entry domain.Record) string {
	if vakken := entry.List("vakken"); len(vakken) > 0 {
		if abbr := vakken[0].Str("afkorting"); abbr != "" {
			return abbr
		}
	}
	return entry.Map("additionalObjects").Map("vak").Str("afkorting")
}

func structuredTeachers(entry domain.Record) []string {
	var teachers []string
	for _, docent := range entry.List("docenten") {
		if abbr := docent.Str("afkorting"); abbr != "" {
			teachers = append(teachers, abbr)
		}
	}
	if len(teachers) > 0 {
		return teachers
	}

	joined := entry.Map("additionalObjects").Str("docentAfkortingen")
	if joined == "" {
		return nil
	}
	for _, abbr := range strings.Split(strings.ToUpper(joined), ",") {
		if abbr = strings.TrimSpace(abbr); abbr != "" {
			teachers = append(teachers, abbr)
		}
	}
	return teachers
}

// splitTitle parses the free-text appointment title on "-". Three or
// more segments mean location/subject/teacher, two mean subject/teacher
// only; anything else is unusable.
func splitTitle(title string) (location, subject, teacher string) {
	if title == "" {
		return "", "", ""
	}
	parts := strings.Split(title, "-")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	switch {
	case len(parts) >= 3:
		return parts[0], parts[1], parts[2]
	case len(parts) == 2:
		return "", parts[0], parts[1]
	}
	return "", "", ""
}
