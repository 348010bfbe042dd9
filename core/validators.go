package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	weekdayTag  = "weekday"
	weekdayText = "{0} must be a day of the week (" + strings.Join(WeekdayNames(), ", ") + ")"

	clockTimeTag   = "hhmm"
	clockTimeText  = "{0} must be a time of day formatted as HH:MM"
	clockTimeRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	yearMonthTag   = "yearmonth"
	yearMonthText  = "{0} must be a month formatted as YYYY-MM"
	yearMonthRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(weekdayTag, weekdayValidation)
	RegisterCustomTranslation(validate, translator, weekdayTag, weekdayText)

	_ = validate.RegisterValidation(clockTimeTag, clockTimeValidation)
	RegisterCustomTranslation(validate, translator, clockTimeTag, clockTimeText)

	_ = validate.RegisterValidation(yearMonthTag, yearMonthValidation)
	RegisterCustomTranslation(validate, translator, yearMonthTag, yearMonthText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// weekdayValidation only allows upper-cased Spanish day names.
func weekdayValidation(fl validator.FieldLevel) bool {
	return IsWeekdayName(fl.Field().String())
}

func clockTimeValidation(fl validator.FieldLevel) bool {
	return IsClockTime(fl.Field().String())
}

// IsClockTime reports whether s is a time of day formatted as HH:MM.
func IsClockTime(s string) bool {
	return clockTimeRegex.MatchString(s)
}

func yearMonthValidation(fl validator.FieldLevel) bool {
	return yearMonthRegex.MatchString(fl.Field().String())
}
