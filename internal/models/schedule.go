package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday tags a time block or an agenda day.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

var weekdays = [...]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// WeekdayOf maps a calendar weekday to its tag.
func WeekdayOf(d time.Weekday) Weekday {
	return weekdays[d]
}

// ParseWeekday accepts a weekday tag in any letter case.
func ParseWeekday(raw string) (Weekday, bool) {
	candidate := Weekday(strings.ToUpper(strings.TrimSpace(raw)))
	for _, day := range weekdays {
		if day == candidate {
			return day, true
		}
	}
	return "", false
}

// ParseClock converts "HH:MM" into minutes after midnight.
func ParseClock(raw string) (int, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hours*60 + minutes, nil
}

// TimeBlock is a weekly recurring slot of a subject, or of one of its
// commissions when CommissionID is set.
type TimeBlock struct {
	ID           string    `db:"id" json:"id"`
	SubjectID    string    `db:"subject_id" json:"subject_id"`
	CommissionID *string   `db:"commission_id" json:"commission_id,omitempty"`
	InstructorID *string   `db:"instructor_id" json:"instructor_id,omitempty"`
	Day          Weekday   `db:"day" json:"day"`
	Start        string    `db:"start_time" json:"start"`
	End          string    `db:"end_time" json:"end"`
	Room         string    `db:"room" json:"room"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// TimeBlockDetail adds display names used by the agenda.
type TimeBlockDetail struct {
	TimeBlock
	SubjectName    string  `db:"subject_name" json:"subject_name"`
	CommissionName *string `db:"commission_name" json:"commission_name,omitempty"`
}

// TimeBlockFilter narrows block listings.
type TimeBlockFilter struct {
	SubjectID    string
	CommissionID string
	Day          Weekday
}

// TimeBlockRequest creates or replaces a time block.
type TimeBlockRequest struct {
	SubjectID    string  `json:"subject_id" validate:"required"`
	CommissionID *string `json:"commission_id,omitempty" validate:"omitempty,min=1"`
	InstructorID *string `json:"instructor_id,omitempty" validate:"omitempty,min=1"`
	Day          Weekday `json:"day" validate:"required,weekday"`
	Start        string  `json:"start" validate:"required,hhmm"`
	End          string  `json:"end" validate:"required,hhmm"`
	Room         string  `json:"room" validate:"max=64"`
}

// ScheduleConflict describes the existing block a proposal collides with.
type ScheduleConflict struct {
	BlockID      string  `json:"block_id"`
	SubjectID    string  `json:"subject_id"`
	CommissionID *string `json:"commission_id,omitempty"`
	Day          Weekday `json:"day"`
	Start        string  `json:"start"`
	End          string  `json:"end"`
	Room         string  `json:"room,omitempty"`
}
