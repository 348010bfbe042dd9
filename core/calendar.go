package core

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // containers ship without a zoneinfo database

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/es"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
	CodeLayout  = "20060102150405"
)

var (
	NowFunc = time.Now // mockable

	schoolLocale locales.Translator = es.New()
)

// Now returns the current time in the school's timezone.
func Now() time.Time {
	loc := time.UTC
	if Conf != nil && Conf.Location != nil {
		loc = Conf.Location
	}
	return NowFunc().In(loc)
}

// Today returns midnight of the current day in the school's timezone.
func Today() time.Time {
	return StartOfDay(Now())
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MonthRange returns the first day of the month of t and the first day of the next one.
func MonthRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// ParseMonth parses a YYYY-MM value in the school's timezone.
func ParseMonth(s string) (time.Time, error) {
	loc := time.UTC
	if Conf != nil && Conf.Location != nil {
		loc = Conf.Location
	}
	return time.ParseInLocation(MonthLayout, strings.TrimSpace(s), loc)
}

// WeekdayName returns the upper-cased Spanish name of d, the way schedules store it (e.g. MIÉRCOLES).
func WeekdayName(d time.Weekday) string {
	return cases.Upper(language.Spanish).String(schoolLocale.WeekdayWide(d))
}

// WeekdayNames lists every schedule day name, Monday first.
func WeekdayNames() []string {
	names := make([]string, 0, 7)
	for i := 1; i <= 7; i++ {
		names = append(names, WeekdayName(time.Weekday(i%7)))
	}
	return names
}

// IsWeekdayName reports whether s is a valid schedule day name.
func IsWeekdayName(s string) bool {
	for _, name := range WeekdayNames() {
		if s == name {
			return true
		}
	}
	return false
}

// DayLabel renders t as "<Weekday> <DD>" in Spanish, e.g. "Martes 03".
func DayLabel(t time.Time) string {
	day := cases.Title(language.Spanish).String(schoolLocale.WeekdayWide(t.Weekday()))
	return fmt.Sprintf("%s %02d", day, t.Day())
}

// Age returns the number of full years between birth and now.
func Age(birth, now time.Time) int {
	if birth.IsZero() || now.Before(birth) {
		return 0
	}
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

func IsBirthday(birth, now time.Time) bool {
	return !birth.IsZero() && birth.Month() == now.Month() && birth.Day() == now.Day()
}

// Date is a calendar day without time of day. It is stored as a DATE column and rendered as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Equal reports whether both dates fall on the same calendar day.
func (d Date) Equal(o Date) bool {
	return d.String() == o.String()
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = NewDate(v)
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("core.Date: cannot scan %T", src)
	}
	return nil
}

func (d *Date) scanString(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
