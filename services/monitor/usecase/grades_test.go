package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"somplus/domain"
)

func rawGrade(subject, description, result string) domain.Record {
	return domain.Record{
		"vak": map[string]any{
			"afkorting": subject,
			"naam":      subject,
		},
		"omschrijving":            description,
		"formattedResultaat":      result,
		"weging":                  2.0,
		"periode":                 1.0,
		"datumInvoerEerstePoging": "2026-03-10T14:30:00.000000+01:00",
	}
}

func TestNormalizeGradesDropsRecordsWithoutResult(t *testing.T) {
	raw := []domain.Record{
		rawGrade("WISB", "Toets 1", "7,5"),
		{
			"vak":          map[string]any{"afkorting": "NAT"},
			"omschrijving": "Toets 2",
		},
	}

	grades := NormalizeGrades(raw, domain.GradeSettings{})

	require.Len(t, grades, 1)
	assert.Equal(t, "WISB", grades[0].SubjectAbbr)
}

func TestNormalizeGradesKeepsLabelOnlyResults(t *testing.T) {
	raw := []domain.Record{{
		"vak":          map[string]any{"afkorting": "LO"},
		"omschrijving": "Sporttoets",
		"label":        "V",
	}}

	grades := NormalizeGrades(raw, domain.GradeSettings{})

	require.Len(t, grades, 1)
	assert.Equal(t, "", grades[0].Result)
	assert.Equal(t, "V", grades[0].ResultLabel)
	assert.Equal(t, "V", grades[0].DisplayResult())
}

func TestNormalizeGradesExcludesTypes(t *testing.T) {
	raw := []domain.Record{
		rawGrade("WISB", "Toets 1", "7,5"),
	}
	raw[0]["type"] = "RapportGemiddeldeKolom"

	grades := NormalizeGrades(raw, domain.GradeSettings{
		ExcludeTypes: []string{"RapportGemiddeldeKolom"},
	})

	assert.Empty(t, grades)
}

func TestNormalizeGradesExcludesSubjects(t *testing.T) {
	raw := []domain.Record{
		rawGrade("WISB", "Toets 1", "7,5"),
		rawGrade("LO", "Sporttoets", "8,0"),
	}

	grades := NormalizeGrades(raw, domain.GradeSettings{
		ExcludeSubjects: []string{"LO"},
	})

	require.Len(t, grades, 1)
	assert.Equal(t, "WISB", grades[0].SubjectAbbr)
}

func TestNormalizeGradesFormatsNumericResult(t *testing.T) {
	raw := []domain.Record{{
		"vak":              map[string]any{"afkorting": "NAT"},
		"omschrijving":     "SO 2",
		"geldendResultaat": 6.5,
	}}

	grades := NormalizeGrades(raw, domain.GradeSettings{})

	require.Len(t, grades, 1)
	assert.Equal(t, "6,5", grades[0].Result)
}

func TestNormalizeGradesExtractsRetake(t *testing.T) {
	raw := []domain.Record{{
		"vak":                   map[string]any{"afkorting": "WISB"},
		"omschrijving":          "Toets 1",
		"formattedResultaat":    "7,0",
		"formattedEerstePoging": "5,5",
		"formattedHerkansing1":  "7,0",
		"herkansing":            "1x herkansbaar",
	}}

	grades := NormalizeGrades(raw, domain.GradeSettings{})

	require.Len(t, grades, 1)
	require.NotNil(t, grades[0].Retake)
	assert.Equal(t, "7,0", grades[0].Retake.Result)
	assert.Equal(t, "1x herkansbaar", grades[0].Retake.Type)
	assert.Equal(t, "5,5", grades[0].FirstAttempt)
}

func grade(subject, description, result string) domain.Grade {
	return domain.Grade{
		SubjectAbbr: subject,
		SubjectName: subject,
		Description: description,
		Result:      result,
		Weighting:   2,
		Period:      1,
	}
}

func TestDiffGradesIdenticalSnapshots(t *testing.T) {
	grades := []domain.Grade{
		grade("WISB", "Toets 1", "6,5"),
		grade("NAT", "SO 2", "8,0"),
	}

	assert.Empty(t, DiffGrades(grades, grades))
}

func TestDiffGradesNewAndRemoved(t *testing.T) {
	oldGrades := []domain.Grade{grade("WISB", "Toets 1", "6,5")}
	newGrades := []domain.Grade{grade("NAT", "SO 2", "8,0")}

	changes := DiffGrades(oldGrades, newGrades)

	require.Len(t, changes, 2)
	kinds := map[string]string{}
	for _, c := range changes {
		kinds[c.Kind] = c.Grade.SubjectAbbr
	}
	assert.Equal(t, "NAT", kinds[domain.GradeNew])
	assert.Equal(t, "WISB", kinds[domain.GradeRemoved])
}

func TestDiffGradesResultChange(t *testing.T) {
	oldGrades := []domain.Grade{grade("WISB", "Toets 1", "6,5")}
	newGrades := []domain.Grade{grade("WISB", "Toets 1", "8,0")}

	changes := DiffGrades(oldGrades, newGrades)

	require.Len(t, changes, 1)
	change := changes[0]
	assert.Equal(t, domain.GradeChanged, change.Kind)
	require.Contains(t, change.Fields, domain.FieldResult)
	assert.Equal(t, "6,5", change.Fields[domain.FieldResult].Old)
	assert.Equal(t, "8,0", change.Fields[domain.FieldResult].New)
	require.NotNil(t, change.Old)
	assert.Equal(t, "6,5", change.Old.Result)
}

func TestDiffGradesFieldDiffs(t *testing.T) {
	oldGrade := grade("WISB", "Toets 1", "6,5")
	newGrade := oldGrade
	newGrade.Weighting = 3
	newGrade.Period = 2
	newGrade.DoesNotCount = true

	changes := DiffGrades([]domain.Grade{oldGrade}, []domain.Grade{newGrade})

	require.Len(t, changes, 1)
	fields := changes[0].Fields
	assert.Equal(t, domain.FieldDiff{Old: "2", New: "3"}, fields[domain.FieldWeighting])
	assert.Equal(t, domain.FieldDiff{Old: "1", New: "2"}, fields[domain.FieldPeriod])
	assert.Equal(t, domain.FieldDiff{Old: "false", New: "true"}, fields[domain.FieldDoesNotCount])
	assert.NotContains(t, fields, domain.FieldResult)
}

func TestDiffGradesNewRetakeWinsOverChanged(t *testing.T) {
	oldGrade := grade("WISB", "Toets 1", "5,5")
	newGrade := grade("WISB", "Toets 1", "7,0")
	newGrade.FirstAttempt = "5,5"
	newGrade.Retake = &domain.Retake{Result: "7,0"}

	changes := DiffGrades([]domain.Grade{oldGrade}, []domain.Grade{newGrade})

	require.Len(t, changes, 1)
	change := changes[0]
	assert.Equal(t, domain.GradeNewRetake, change.Kind)
	assert.Equal(t, "5,5", change.OriginalResult)
	assert.Equal(t, "7,0", change.RetakeResult)
	assert.Empty(t, change.Fields)
}

func TestDiffGradesRetakeResultChange(t *testing.T) {
	oldGrade := grade("WISB", "Toets 1", "7,0")
	oldGrade.Retake = &domain.Retake{Result: "7,0"}
	newGrade := grade("WISB", "Toets 1", "7,0")
	newGrade.Retake = &domain.Retake{Result: "7,5"}

	changes := DiffGrades([]domain.Grade{oldGrade}, []domain.Grade{newGrade})

	require.Len(t, changes, 1)
	assert.Equal(t, domain.GradeChanged, changes[0].Kind)
	assert.Equal(t, domain.FieldDiff{Old: "7,0", New: "7,5"}, changes[0].Fields[domain.FieldRetakeResult])
}

func TestDiffGradesDuplicateKeysCollapse(t *testing.T) {
	oldGrades := []domain.Grade{
		grade("WISB", "Toets 1", "6,0"),
		grade("WISB", "Toets 1", "6,5"),
	}
	newGrades := []domain.Grade{grade("WISB", "Toets 1", "6,5")}

	assert.Empty(t, DiffGrades(oldGrades, newGrades))
}
