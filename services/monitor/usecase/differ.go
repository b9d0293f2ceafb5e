package usecase

import (
	"sort"
	"strings"

	"somplus/domain"
)

// DiffSchedules compares two canonical lesson lists day by day
// (Monday through Friday) and reports cancellations, additions, moves,
// teacher/location changes and period-aligned substitutions.
func DiffSchedules(oldLessons, newLessons []domain.Lesson) []domain.ScheduleChange {
	var changes []domain.ScheduleChange
	for day := 0; day < 5; day++ {
		changes = append(changes, diffDay(day, lessonsOn(oldLessons, day), lessonsOn(newLessons, day))...)
	}
	return changes
}

func diffDay(day int, oldDay, newDay []domain.Lesson) []domain.ScheduleChange {
	var changes []domain.ScheduleChange

	// Pass 1: hour accounting. Occupied periods are summed per subject
	// (a double lesson counts as two hours); the old/new deficit decides
	// the cancellation taxonomy. Equal nonzero totals fall through to
	// the rearrangement check.
	oldHours := hoursBySubject(oldDay)
	newHours := hoursBySubject(newDay)

	for _, subject := range sortedSubjects(oldHours, newHours) {
		oh := oldHours[subject]
		nh := newHours[subject]

		switch {
		case oh > nh && nh == 0 && oh == 1:
			changes = append(changes, domain.ScheduleChange{
				Kind: domain.ScheduleCancelled, Day: day, Subject: subject,
			})
		case oh > nh && nh == 0:
			changes = append(changes, domain.ScheduleChange{
				Kind: domain.ScheduleCompleteCancelled, Day: day, Subject: subject, Count: oh,
			})
		case oh > nh:
			changes = append(changes, domain.ScheduleChange{
				Kind: domain.SchedulePartialCancelled, Day: day, Subject: subject, Count: oh - nh,
			})
		case oh < nh:
			changes = append(changes, domain.ScheduleChange{
				Kind: domain.ScheduleAddedLesson, Day: day, Subject: subject, Count: nh - oh,
			})
		default:
			// Pass 2: same total hours but different slots means the
			// subject moved within the day.
			if oh == 0 {
				continue
			}
			oldPeriods := occupiedPeriods(oldDay, subject)
			newPeriods := occupiedPeriods(newDay, subject)
			if !equalIntSets(oldPeriods, newPeriods) {
				changes = append(changes, domain.ScheduleChange{
					Kind: domain.ScheduleMoved, Day: day, Subject: subject,
					OldPeriods: oldPeriods, NewPeriods: newPeriods,
				})
			}
		}
	}

	// Pass 3: teacher/location changes, set-level per subject per day.
	// Comparing sets rather than individual lessons avoids noise when
	// lessons merely swap order within the day.
	for _, subject := range sortedSubjects(oldHours, newHours) {
		if oldHours[subject] == 0 || newHours[subject] == 0 {
			continue
		}
		oldTeachers := teacherSet(oldDay, subject)
		newTeachers := teacherSet(newDay, subject)
		if len(oldTeachers) > 0 && len(newTeachers) > 0 && !equalStringSets(oldTeachers, newTeachers) {
			changes = append(changes, domain.ScheduleChange{
				Kind: domain.ScheduleTeacherChange, Day: day, Subject: subject,
				Old: strings.Join(oldTeachers, ", "), New: strings.Join(newTeachers, ", "),
			})
		}

		oldLocations := locationSet(oldDay, subject)
		newLocations := locationSet(newDay, subject)
		if len(oldLocations) > 0 && len(newLocations) > 0 && !equalStringSets(oldLocations, newLocations) {
			changes = append(changes, domain.ScheduleChange{
				Kind: domain.ScheduleLocationChange, Day: day, Subject: subject,
				Old: strings.Join(oldLocations, ", "), New: strings.Join(newLocations, ", "),
			})
		}
	}

	// Pass 4: period-aligned substitutions. For periods occupied in both
	// weeks, an old subject with no counterpart at that period has been
	// replaced by whichever new subject sits there.
	oldByPeriod := groupByStartPeriod(oldDay)
	newByPeriod := groupByStartPeriod(newDay)

	for _, period := range sortedCommonPeriods(oldByPeriod, newByPeriod) {
		for _, oldLesson := range oldByPeriod[period] {
			if subjectAtPeriod(newByPeriod[period], oldLesson.Subject) {
				continue
			}
			for _, newLesson := range newByPeriod[period] {
				if newLesson.Subject != "" && newLesson.Subject != oldLesson.Subject {
					changes = append(changes, domain.ScheduleChange{
						Kind: domain.ScheduleSubjectChange, Day: day, Period: period,
						Old: oldLesson.Subject, New: newLesson.Subject,
					})
					break
				}
			}
		}
	}

	return changes
}

func lessonsOn(lessons []domain.Lesson, day int) []domain.Lesson {
	var out []domain.Lesson
	for _, l := range lessons {
		if l.Day == day {
			out = append(out, l)
		}
	}
	return out
}

func hoursBySubject(lessons []domain.Lesson) map[string]int {
	hours := make(map[string]int)
	for _, l := range lessons {
		if l.Subject == "" {
			continue
		}
		hours[l.Subject] += l.Duration()
	}
	return hours
}

func sortedSubjects(oldHours, newHours map[string]int) []string {
	seen := make(map[string]bool, len(oldHours)+len(newHours))
	var subjects []string
	for s := range oldHours {
		if !seen[s] {
			seen[s] = true
			subjects = append(subjects, s)
		}
	}
	for s := range newHours {
		if !seen[s] {
			seen[s] = true
			subjects = append(subjects, s)
		}
	}
	sort.Strings(subjects)
	return subjects
}

func occupiedPeriods(lessons []domain.Lesson, subject string) []int {
	seen := make(map[int]bool)
	var periods []int
	for _, l := range lessons {
		if l.Subject != subject {
			continue
		}
		for _, p := range l.Periods() {
			if !seen[p] {
				seen[p] = true
				periods = append(periods, p)
			}
		}
	}
	sort.Ints(periods)
	return periods
}

func teacherSet(lessons []domain.Lesson, subject string) []string {
	seen := make(map[string]bool)
	var teachers []string
	for _, l := range lessons {
		if l.Subject != subject {
			continue
		}
		for _, t := range l.Teachers {
			if t != "" && !seen[t] {
				seen[t] = true
				teachers = append(teachers, t)
			}
		}
	}
	sort.Strings(teachers)
	return teachers
}

func locationSet(lessons []domain.Lesson, subject string) []string {
	seen := make(map[string]bool)
	var locations []string
	for _, l := range lessons {
		if l.Subject != subject || l.Location == "" {
			continue
		}
		if !seen[l.Location] {
			seen[l.Location] = true
			locations = append(locations, l.Location)
		}
	}
	sort.Strings(locations)
	return locations
}

func groupByStartPeriod(lessons []domain.Lesson) map[int][]domain.Lesson {
	byPeriod := make(map[int][]domain.Lesson)
	for _, l := range lessons {
		byPeriod[l.StartPeriod] = append(byPeriod[l.StartPeriod], l)
	}
	return byPeriod
}

func sortedCommonPeriods(oldByPeriod, newByPeriod map[int][]domain.Lesson) []int {
	var periods []int
	for p := range oldByPeriod {
		if _, ok := newByPeriod[p]; ok {
			periods = append(periods, p)
		}
	}
	sort.Ints(periods)
	return periods
}

func subjectAtPeriod(lessons []domain.Lesson, subject string) bool {
	for _, l := range lessons {
		if l.Subject == subject {
			return true
		}
	}
	return false
}

func equalIntSets(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalStringSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
