package models

import "time"

// DateLayout is the civil date format used by agenda queries.
const DateLayout = "2006-01-02"

// AgendaBlock is a time block as shown on a personal agenda.
type AgendaBlock struct {
	BlockID        string  `json:"block_id"`
	SubjectID      string  `json:"subject_id"`
	SubjectName    string  `json:"subject_name"`
	CommissionID   *string `json:"commission_id,omitempty"`
	CommissionName *string `json:"commission_name,omitempty"`
	Start          string  `json:"start"`
	End            string  `json:"end"`
	Room           string  `json:"room"`
	IsInstructor   bool    `json:"is_instructor"`
}

// DayAgenda lists the blocks applicable on one calendar day.
type DayAgenda struct {
	Date    string        `json:"date"`
	Weekday Weekday       `json:"weekday"`
	Blocks  []AgendaBlock `json:"blocks"`
}

// AgendaQuery selects whose agenda to build and for which dates. Zero dates
// fall back to configured defaults.
type AgendaQuery struct {
	UserID string
	From   time.Time
	To     time.Time
}
