package schedule

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/swimschool/core"
)

type Status int

const (
	StatusInactive Status = iota
	StatusActive
)

// Schedule is a weekly class of a user. Only one active row exists per user and day.
type Schedule struct {
	ID            int       `json:"id" db:"id"`
	UserID        int       `json:"user_id" db:"user_id"`
	Day           string    `json:"day" db:"day"` // upper-cased Spanish weekday name
	EntryTime     string    `json:"entry_time" db:"entry_time"`
	DepartureTime string    `json:"departure_time" db:"departure_time"`
	Status        Status    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

func (s Schedule) IsActive() bool { return s.Status == StatusActive }

// NewSchedule assigns the same class hours to a set of weekdays.
type NewSchedule struct {
	UserID        int      `json:"user_id" validate:"required,min=1"`
	Days          []string `json:"days" validate:"required,min=1,max=7,unique,dive,weekday"`
	EntryTime     string   `json:"entry_time" validate:"required,hhmm"`
	DepartureTime string   `json:"departure_time" validate:"required,hhmm"`
}

func (ns *NewSchedule) Validate(validate *validator.Validate) error {
	for i, day := range ns.Days {
		ns.Days[i] = core.CleanString(day)
	}
	ns.EntryTime = core.CleanString(ns.EntryTime)
	ns.DepartureTime = core.CleanString(ns.DepartureTime)
	return validate.Struct(ns)
}

var (
	departureTag  = "aftentry"
	departureText = "{0} must be after the entry time"
)

// InitValidators registers the schedule validators & translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(newScheduleStructValidation, NewSchedule{})
	core.RegisterCustomTranslation(validate, translator, departureTag, departureText)
}

func newScheduleStructValidation(sl validator.StructLevel) {
	ns, ok := sl.Current().Interface().(NewSchedule)
	if !ok || !core.IsClockTime(ns.EntryTime) || !core.IsClockTime(ns.DepartureTime) {
		return
	}
	// HH:MM compares lexically
	if ns.DepartureTime <= ns.EntryTime {
		sl.ReportError(ns.DepartureTime, "departure_time", "DepartureTime", departureTag, "")
	}
}
