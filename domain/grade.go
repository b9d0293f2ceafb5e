package domain

import "time"

// Grade change kinds.
const (
	GradeNew       = "NEW"
	GradeRemoved   = "REMOVED"
	GradeChanged   = "CHANGED"
	GradeNewRetake = "NEW_RETAKE"
)

// Field-diff keys used in GradeChange.Fields.
const (
	FieldResult       = "resultaat"
	FieldRetakeResult = "herkansing_resultaat"
	FieldWeighting    = "weging"
	FieldExamWeight   = "examenweging"
	FieldPeriod       = "periode"
	FieldDoesNotCount = "telt_niet_mee"
	FieldExemption    = "vrijstelling"
	FieldNotTaken     = "niet_gemaakt"
)

// Retake is the optional resit attached to a grade.
type Retake struct {
	Result string `json:"result"`
	Type   string `json:"type,omitempty"`
}

// Grade is the canonical form of one result column for one student.
type Grade struct {
	SubjectAbbr   string    `json:"subject_abbr"`
	SubjectName   string    `json:"subject_name,omitempty"`
	Description   string    `json:"description"`
	Result        string    `json:"result,omitempty"`
	ResultLabel   string    `json:"result_label,omitempty"`
	FirstAttempt  string    `json:"first_attempt,omitempty"`
	TestType      string    `json:"test_type,omitempty"`
	Weighting     float64   `json:"weighting"`
	ExamWeighting float64   `json:"exam_weighting"`
	Period        int       `json:"period"`
	DoesNotCount  bool      `json:"does_not_count,omitempty"`
	Exemption     bool      `json:"exemption,omitempty"`
	NotTaken      bool      `json:"not_taken,omitempty"`
	Retake        *Retake   `json:"retake,omitempty"`
	EnteredAt     time.Time `json:"entered_at"`
}

// GradeKey identifies a grade within a snapshot. Duplicate keys collapse
// to a single entry during comparison; the upstream UI keeps column
// descriptions unique per subject in practice.
type GradeKey struct {
	Subject     string
	Description string
}

func (g Grade) Key() GradeKey {
	return GradeKey{Subject: g.SubjectAbbr, Description: g.Description}
}

// DisplayResult prefers the numeric result and falls back to the label.
func (g Grade) DisplayResult() string {
	if g.Result != "" {
		return g.Result
	}
	return g.ResultLabel
}

// FieldDiff holds the old and new rendering of one changed field.
type FieldDiff struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// GradeChange is one detected difference between two grade snapshots.
// Grade carries the new entity, except for REMOVED where it carries the
// entity that disappeared.
type GradeChange struct {
	Kind           string               `json:"kind"`
	Grade          Grade                `json:"grade"`
	Old            *Grade               `json:"old,omitempty"`
	Fields         map[string]FieldDiff `json:"fields,omitempty"`
	OriginalResult string               `json:"original_result,omitempty"`
	RetakeResult   string               `json:"retake_result,omitempty"`
}
