package attendance

import (
	"time"

	"github.com/trezcool/swimschool/core"
)

// Status is decided once per user and day.
type Status int

const (
	StatusAbsent Status = iota
	StatusPresent
	StatusNoClass
)

var statusLabels = map[Status]string{
	StatusAbsent:  "No asistió",
	StatusPresent: "Asistió",
	StatusNoClass: "Sin clase asignada",
}

func (s Status) Label() string {
	return statusLabels[s]
}

type Attendance struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Date      core.Date `json:"attendance_date" db:"attendance_date"`
	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Entry is an Attendance as shown in the monthly lists.
type Entry struct {
	Attendance
	StatusLabel      string `json:"status_label"`
	TranslatedFormat string `json:"translated_format"` // e.g. "Martes 03"
	FormattedDate    string `json:"formatted_date"`
}

func NewEntry(a Attendance) Entry {
	return Entry{
		Attendance:       a,
		StatusLabel:      a.Status.Label(),
		TranslatedFormat: core.DayLabel(a.Date.Time),
		FormattedDate:    a.Date.String(),
	}
}

// CheckIn is the payload of an explicit check-in.
type CheckIn struct {
	UserID int `json:"user_id" validate:"required,min=1"`
}

// MonthQuery selects the attendances of a user during a month.
type MonthQuery struct {
	UserID int    `query:"user_id" validate:"required,min=1"`
	Month  string `query:"date" validate:"required,yearmonth"`
}

// Summary counts the outcome of a daily pass. NoClass and Absent count the rows written by the pass,
// Present counts the students already checked in.
type Summary struct {
	NoClass int `json:"no_class"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
}

func (s Summary) Total() int { return s.NoClass + s.Present + s.Absent }
