package models

import "time"

// PrerequisiteKind distinguishes the two prerequisite flavours.
type PrerequisiteKind string

const (
	// PrerequisiteEnroll gates taking the coursework of a subject.
	PrerequisiteEnroll PrerequisiteKind = "ENROLL"
	// PrerequisiteFinal gates sitting the final exam of a subject.
	PrerequisiteFinal PrerequisiteKind = "FINAL"
)

// Valid reports whether k is a known kind.
func (k PrerequisiteKind) Valid() bool {
	return k == PrerequisiteEnroll || k == PrerequisiteFinal
}

// UnknownSubjectName labels a referenced subject whose record is gone.
const UnknownSubjectName = "Unknown subject"

// PrerequisiteEdge states that SubjectID requires RequiredSubjectID. Edges with
// a StudyPlanID override the base edges of that kind for students of the plan.
type PrerequisiteEdge struct {
	ID                string           `db:"id" json:"id"`
	SubjectID         string           `db:"subject_id" json:"subject_id"`
	RequiredSubjectID string           `db:"required_subject_id" json:"required_subject_id"`
	Kind              PrerequisiteKind `db:"kind" json:"kind"`
	StudyPlanID       *string          `db:"study_plan_id" json:"study_plan_id,omitempty"`
	RequiredLevel     *int             `db:"required_level" json:"required_level,omitempty"`
	Position          int              `db:"position" json:"position"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
}

// SubjectRef points at a subject in a prerequisite report. Unknown is set when
// the subject record could not be resolved.
type SubjectRef struct {
	ID            string `json:"id"`
	Name          string `json:"nombre"`
	Unknown       bool   `json:"unknown,omitempty"`
	RequiredLevel *int   `json:"required_level,omitempty"`
}

// PrerequisiteResult is the outcome of checking one prerequisite kind.
type PrerequisiteResult struct {
	Satisfied bool         `json:"cumple"`
	Missing   []SubjectRef `json:"faltantes"`
}

// MissingNames lists the names of the missing subjects in declaration order.
func (r PrerequisiteResult) MissingNames() []string {
	names := make([]string, 0, len(r.Missing))
	for _, ref := range r.Missing {
		names = append(names, ref.Name)
	}
	return names
}

// PrerequisiteReport combines both kinds for a student and subject.
type PrerequisiteReport struct {
	Cursada PrerequisiteResult `json:"cursada"`
	Final   PrerequisiteResult `json:"final"`
	Passed  bool               `json:"aprobado"`
}

// CreatePrerequisiteRequest adds an edge to a subject.
type CreatePrerequisiteRequest struct {
	RequiredSubjectID string           `json:"required_subject_id" validate:"required"`
	Kind              PrerequisiteKind `json:"kind" validate:"required,oneof=ENROLL FINAL"`
	StudyPlanID       *string          `json:"study_plan_id,omitempty" validate:"omitempty,min=1"`
	RequiredLevel     *int             `json:"required_level,omitempty" validate:"omitempty,min=1"`
}
