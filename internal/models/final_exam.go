package models

import "time"

// FinalExam is a scheduled final examination of a subject.
type FinalExam struct {
	ID              string    `db:"id" json:"id"`
	SubjectID       string    `db:"subject_id" json:"subject_id"`
	InstructorID    string    `db:"instructor_id" json:"instructor_id"`
	ExamDate        time.Time `db:"exam_date" json:"exam_date"`
	Start           string    `db:"start_time" json:"start"`
	End             string    `db:"end_time" json:"end"`
	Room            string    `db:"room" json:"room"`
	Capacity        int       `db:"capacity" json:"capacity"`
	RegisteredCount int       `db:"registered_count" json:"registered_count"`
}

// HasSeats reports whether the exam still accepts registrations.
func (e FinalExam) HasSeats() bool {
	return e.RegisteredCount < e.Capacity
}

// ExamRegistrationStatus tracks a registration after the exam is held.
type ExamRegistrationStatus string

const (
	ExamRegistrationRegistered ExamRegistrationStatus = "REGISTERED"
	ExamRegistrationPresent    ExamRegistrationStatus = "PRESENT"
	ExamRegistrationAbsent     ExamRegistrationStatus = "ABSENT"
	ExamRegistrationPassed     ExamRegistrationStatus = "PASSED"
	ExamRegistrationFailed     ExamRegistrationStatus = "FAILED"
)

// ExamRegistration links an enrollment to a final exam.
type ExamRegistration struct {
	ID           string                 `db:"id" json:"id"`
	EnrollmentID string                 `db:"enrollment_id" json:"enrollment_id"`
	FinalExamID  string                 `db:"final_exam_id" json:"final_exam_id"`
	Status       ExamRegistrationStatus `db:"status" json:"status"`
	Grade        *float64               `db:"grade" json:"grade,omitempty"`
	CreatedAt    time.Time              `db:"created_at" json:"created_at"`
}

// ExamRegistrationDetail carries the owner and exam data of a registration.
type ExamRegistrationDetail struct {
	ExamRegistration
	StudentID   string    `db:"student_id" json:"student_id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	SubjectName string    `db:"subject_name" json:"subject_name"`
	ExamDate    time.Time `db:"exam_date" json:"exam_date"`
	Start       string    `db:"start_time" json:"start"`
	End         string    `db:"end_time" json:"end"`
	Room        string    `db:"room" json:"room"`
}

// RegisterFinalRequest is the payload for registering to a final exam.
type RegisterFinalRequest struct {
	EnrollmentID string `json:"enrollment_id" validate:"required"`
	FinalExamID  string `json:"final_exam_id" validate:"required"`
}
