package content

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/swimschool/core"
)

// Type discriminates the contents sharing the contents table.
type Type int

const (
	TypeNotice Type = iota + 1
	TypeEvent
	TypeTip
)

var typeNames = map[Type]string{
	TypeNotice: "Aviso",
	TypeEvent:  "Evento",
	TypeTip:    "Tip",
}

func (t Type) IsValid() bool {
	_, ok := typeNames[t]
	return ok
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// DefaultCover is shared by every content created without a cover; it is never deleted.
const DefaultCover = "uploads/swimming-categories/swimmer.png"

type Content struct {
	ID         int        `json:"id" db:"id"`
	Type       Type       `json:"content_type_id" db:"content_type_id"`
	Title      string     `json:"title" db:"title"`
	Body       string     `json:"content" db:"content"`
	Slug       string     `json:"slug" db:"slug"`
	CoverImage string     `json:"cover_image" db:"cover_image"`
	Location   string     `json:"location" db:"location"`
	StartDate  *time.Time `json:"start_date" db:"start_date"`
	EndDate    *time.Time `json:"end_date" db:"end_date"`
	Active     bool       `json:"active" db:"active"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

func (c Content) StatusLabel() string {
	if c.Active {
		return "Activado"
	}
	return "Desactivado"
}

// NewContent is the payload used to create or update a content.
type NewContent struct {
	Title      string     `json:"title" validate:"required,max=120"`
	Body       string     `json:"content" validate:"required"`
	CoverImage string     `json:"cover_image" validate:"omitempty,max=255"`
	Location   string     `json:"location" validate:"omitempty,max=255"`
	StartDate  *time.Time `json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
	Active     *bool      `json:"active" validate:"required"`
}

// Validate checks nc for a content of type typ. Events need a location and a time span.
func (nc *NewContent) Validate(validate *validator.Validate, typ Type) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Body = core.CleanString(nc.Body)
	nc.CoverImage = core.CleanString(nc.CoverImage)
	nc.Location = core.CleanString(nc.Location)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	if typ != TypeEvent {
		return nil
	}

	var flds []core.FieldError
	if nc.Location == "" {
		flds = append(flds, core.FieldError{Field: "location", Error: "this field is required"})
	}
	if nc.StartDate == nil {
		flds = append(flds, core.FieldError{Field: "start_date", Error: "this field is required"})
	}
	if nc.EndDate == nil {
		flds = append(flds, core.FieldError{Field: "end_date", Error: "this field is required"})
	} else if nc.StartDate != nil && nc.EndDate.Before(*nc.StartDate) {
		flds = append(flds, core.FieldError{Field: "end_date", Error: "end_date must be after start_date"})
	}
	if flds != nil {
		return core.NewValidationError(errInvalidEvent, flds...)
	}
	return nil
}

// StatusChange toggles the visibility of a content.
type StatusChange struct {
	Active *bool `json:"active" validate:"required"`
}

// ListFilter selects contents; the zero value lists everything.
type ListFilter struct {
	Type       Type
	ActiveOnly bool
}
