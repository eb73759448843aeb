package models

import "time"

// EnrollmentStatus represents the standing of a student in a subject.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusInProgress EnrollmentStatus = "IN_PROGRESS"
	EnrollmentStatusPassed     EnrollmentStatus = "PASSED"
	EnrollmentStatusFailed     EnrollmentStatus = "FAILED"
	EnrollmentStatusExempt     EnrollmentStatus = "EXEMPT"
	EnrollmentStatusDropped    EnrollmentStatus = "DROPPED"
)

// rank orders statuses so the best outcome wins when a student took a subject
// more than once.
func (s EnrollmentStatus) rank() int {
	switch s {
	case EnrollmentStatusPassed:
		return 4
	case EnrollmentStatusInProgress:
		return 3
	case EnrollmentStatusExempt:
		return 2
	case EnrollmentStatusFailed:
		return 1
	default:
		return 0
	}
}

// Enrollment captures a student's registration to a subject, optionally in a commission.
type Enrollment struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	SubjectID    string           `db:"subject_id" json:"subject_id"`
	CommissionID *string          `db:"commission_id" json:"commission_id,omitempty"`
	Status       EnrollmentStatus `db:"status" json:"status"`
	Absences     int              `db:"absences" json:"absences"`
	FinalGrade   *float64         `db:"final_grade" json:"final_grade,omitempty"`
	EnrolledAt   time.Time        `db:"enrolled_at" json:"enrolled_at"`
	FinishedAt   *time.Time       `db:"finished_at" json:"finished_at,omitempty"`
}

// EnrollmentDetail enriches Enrollment with subject and commission info.
type EnrollmentDetail struct {
	Enrollment
	SubjectCode    string  `db:"subject_code" json:"subject_code"`
	SubjectName    string  `db:"subject_name" json:"subject_name"`
	CommissionName *string `db:"commission_name" json:"commission_name,omitempty"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID string
	SubjectID string
	Status    EnrollmentStatus
}

// Standing is a snapshot of a student's best status per subject id.
type Standing map[string]EnrollmentStatus

// Record keeps the better of the stored and given status for subjectID.
func (s Standing) Record(subjectID string, status EnrollmentStatus) {
	if current, ok := s[subjectID]; ok && current.rank() >= status.rank() {
		return
	}
	s[subjectID] = status
}

// CreateEnrollmentRequest is the payload for enrolling in a subject.
type CreateEnrollmentRequest struct {
	StudentID    string  `json:"student_id"`
	SubjectID    string  `json:"subject_id" validate:"required"`
	CommissionID *string `json:"commission_id,omitempty" validate:"omitempty,min=1"`
}

// Commission is a section of a subject with its own capacity.
type Commission struct {
	ID           string    `db:"id" json:"id"`
	SubjectID    string    `db:"subject_id" json:"subject_id"`
	Name         string    `db:"name" json:"name"`
	Capacity     int       `db:"capacity" json:"capacity"`
	InstructorID *string   `db:"instructor_id" json:"instructor_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
