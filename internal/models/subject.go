package models

import "time"

// Department groups subjects. Universal departments are open to every career.
type Department struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Universal bool   `db:"universal" json:"universal"`
}

// Subject represents an academic subject.
type Subject struct {
	ID             string    `db:"id" json:"id"`
	Code           string    `db:"code" json:"code"`
	Name           string    `db:"name" json:"name"`
	DepartmentID   string    `db:"department_id" json:"department_id"`
	DepartmentName string    `db:"department_name" json:"department_name,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Career is a degree programme.
type Career struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// StudyPlan is a versioned curriculum of a career.
type StudyPlan struct {
	ID       string `db:"id" json:"id"`
	CareerID string `db:"career_id" json:"career_id"`
	Name     string `db:"name" json:"name"`
}

// SubjectPlanMembership places a subject at a level of a study plan.
type SubjectPlanMembership struct {
	SubjectID   string `db:"subject_id" json:"subject_id"`
	StudyPlanID string `db:"study_plan_id" json:"study_plan_id"`
	Level       int    `db:"level" json:"level"`
}

// SubjectScope carries what the enrollment scope rule needs to know about a subject.
type SubjectScope struct {
	DepartmentName      string   `db:"department_name"`
	DepartmentUniversal bool     `db:"department_universal"`
	CareerIDs           []string `db:"-"`
}
