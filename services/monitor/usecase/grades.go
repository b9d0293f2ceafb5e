package usecase

import (
	"sort"
	"strconv"
	"strings"

	"somplus/domain"
)

// NormalizeGrades converts the raw result columns into canonical grade
// entities, applying the user's exclusion filters. Records without a
// usable result are dropped; output is sorted most recent first.
func NormalizeGrades(raw []domain.Record, settings domain.GradeSettings) []domain.Grade {
	excludeTypes := toSet(settings.ExcludeTypes)
	excludeSubjects := toSet(settings.ExcludeSubjects)

	grades := make([]domain.Grade, 0, len(raw))
	for _, entry := range raw {
		entry = entry.Clean()

		if !hasValidResult(entry) {
			continue
		}
		if excludeTypes[entry.Str("type")] {
			continue
		}

		grade := toGrade(entry)
		if excludeSubjects[grade.SubjectAbbr] || excludeSubjects[grade.SubjectName] {
			continue
		}
		grades = append(grades, grade)
	}

	sort.SliceStable(grades, func(i, j int) bool {
		return grades[i].EnteredAt.After(grades[j].EnteredAt)
	})
	return grades
}

// hasValidResult gates out rows that carry no result at all: no numeric
// grade, no label, and no formatted string (legacy cached shape).
func hasValidResult(entry domain.Record) bool {
	if entry.Has("cijfer") || entry.Has("geldendResultaat") {
		return true
	}
	if entry.Str("formattedResultaat") != "" {
		return true
	}
	if entry.Str("label") != "" || entry.Str("resultaatLabelAfkorting") != "" {
		return true
	}
	return false
}

func toGrade(entry domain.Record) domain.Grade {
	additional := entry.Map("additionalObjects")
	vak := entry.Map("vak")

	subjectAbbr := vak.Str("afkorting")
	subjectName := vak.Str("naam")
	if subjectAbbr == "" {
		subjectAbbr = additional.Str("vaknaam")
	}
	if subjectName == "" {
		subjectName = additional.Str("vaknaam")
	}

	result := entry.Str("formattedResultaat")
	if result == "" {
		if v, ok := entry.Float("geldendResultaat"); ok {
			result = formatResult(v)
		} else if v, ok := entry.Float("cijfer"); ok {
			result = formatResult(v)
		}
	}

	label := entry.Str("label")
	if label == "" {
		label = entry.Str("resultaatLabelAfkorting")
	}

	weighting, _ := entry.Float("weging")
	examWeighting, _ := entry.Float("examenWeging")
	period, _ := entry.Int("periode")

	grade := domain.Grade{
		SubjectAbbr:   subjectAbbr,
		SubjectName:   subjectName,
		Description:   entry.Str("omschrijving"),
		Result:        result,
		ResultLabel:   label,
		FirstAttempt:  entry.Str("formattedEerstePoging"),
		TestType:      entry.Str("toetssoort"),
		Weighting:     weighting,
		ExamWeighting: examWeighting,
		Period:        period,
		DoesNotCount:  entry.Bool("teltNietMee"),
		Exemption:     entry.Bool("vrijstelling"),
		NotTaken:      entry.Bool("nietGemaakt"),
	}

	if retakeResult := entry.Str("formattedHerkansing1"); retakeResult != "" || entry.Has("cijferHerkansing1") {
		if retakeResult == "" {
			if v, ok := entry.Float("cijferHerkansing1"); ok {
				retakeResult = formatResult(v)
			}
		}
		grade.Retake = &domain.Retake{
			Result: retakeResult,
			Type:   entry.Str("herkansing"),
		}
	}

	if t, ok := entry.Time("datumInvoerEerstePoging"); ok {
		grade.EnteredAt = t
	} else if t, ok := entry.Time("datumInvoer"); ok {
		grade.EnteredAt = t
	}
	return grade
}

// formatResult renders a numeric grade the way Somtoday formats it,
// with a decimal comma.
func formatResult(v float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(v, 'f', 1, 64), ".", ",")
}

// DiffGrades compares two canonical grade lists and reports every
// meaningful difference. Every key in the union of both lists yields at
// most one change record; output is sorted most recent first.
func DiffGrades(oldGrades, newGrades []domain.Grade) []domain.GradeChange {
	oldByKey := indexGrades(oldGrades)
	newByKey := indexGrades(newGrades)

	var changes []domain.GradeChange

	for key, grade := range newByKey {
		oldGrade, exists := oldByKey[key]
		if !exists {
			changes = append(changes, domain.GradeChange{
				Kind:  domain.GradeNew,
				Grade: grade,
			})
			continue
		}
		if change, ok := diffGradePair(oldGrade, grade); ok {
			changes = append(changes, change)
		}
	}

	for key, grade := range oldByKey {
		if _, exists := newByKey[key]; !exists {
			changes = append(changes, domain.GradeChange{
				Kind:  domain.GradeRemoved,
				Grade: grade,
			})
		}
	}

	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Grade.EnteredAt.After(changes[j].Grade.EnteredAt)
	})
	return changes
}

// diffGradePair compares two grades sharing a key. A newly appeared
// retake wins over a CHANGED record for the same key, since the result
// flip it causes is implied by the retake itself.
func diffGradePair(oldGrade, newGrade domain.Grade) (domain.GradeChange, bool) {
	if newGrade.Retake != nil && oldGrade.Retake == nil {
		original := oldGrade.FirstAttempt
		if original == "" {
			original = oldGrade.DisplayResult()
		}
		return domain.GradeChange{
			Kind:           domain.GradeNewRetake,
			Grade:          newGrade,
			Old:            &oldGrade,
			OriginalResult: original,
			RetakeResult:   newGrade.Retake.Result,
		}, true
	}

	fields := map[string]domain.FieldDiff{}

	if newGrade.Retake != nil && oldGrade.Retake != nil && oldGrade.Retake.Result != newGrade.Retake.Result {
		fields[domain.FieldRetakeResult] = domain.FieldDiff{Old: oldGrade.Retake.Result, New: newGrade.Retake.Result}
	}
	if oldGrade.DisplayResult() != newGrade.DisplayResult() {
		fields[domain.FieldResult] = domain.FieldDiff{Old: oldGrade.DisplayResult(), New: newGrade.DisplayResult()}
	}
	if oldGrade.Weighting != newGrade.Weighting {
		fields[domain.FieldWeighting] = domain.FieldDiff{Old: formatWeight(oldGrade.Weighting), New: formatWeight(newGrade.Weighting)}
	}
	if oldGrade.ExamWeighting != newGrade.ExamWeighting {
		fields[domain.FieldExamWeight] = domain.FieldDiff{Old: formatWeight(oldGrade.ExamWeighting), New: formatWeight(newGrade.ExamWeighting)}
	}
	if oldGrade.Period != newGrade.Period {
		fields[domain.FieldPeriod] = domain.FieldDiff{Old: strconv.Itoa(oldGrade.Period), New: strconv.Itoa(newGrade.Period)}
	}
	if oldGrade.DoesNotCount != newGrade.DoesNotCount {
		fields[domain.FieldDoesNotCount] = domain.FieldDiff{Old: strconv.FormatBool(oldGrade.DoesNotCount), New: strconv.FormatBool(newGrade.DoesNotCount)}
	}
	if oldGrade.Exemption != newGrade.Exemption {
		fields[domain.FieldExemption] = domain.FieldDiff{Old: strconv.FormatBool(oldGrade.Exemption), New: strconv.FormatBool(newGrade.Exemption)}
	}
	if oldGrade.NotTaken != newGrade.NotTaken {
		fields[domain.FieldNotTaken] = domain.FieldDiff{Old: strconv.FormatBool(oldGrade.NotTaken), New: strconv.FormatBool(newGrade.NotTaken)}
	}

	if len(fields) == 0 {
		return domain.GradeChange{}, false
	}
	return domain.GradeChange{
		Kind:   domain.GradeChanged,
		Grade:  newGrade,
		Old:    &oldGrade,
		Fields: fields,
	}, true
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}

// indexGrades keys a grade list by (subject, description). Duplicate
// keys collapse; the later entry wins.
func indexGrades(grades []domain.Grade) map[domain.GradeKey]domain.Grade {
	byKey := make(map[domain.GradeKey]domain.Grade, len(grades))
	for _, g := range grades {
		byKey[g.Key()] = g
	}
	return byKey
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
