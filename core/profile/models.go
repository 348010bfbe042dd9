package profile

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/user"
)

type (
	Type       string
	Visibility string
)

const (
	TypeBiography      Type = "biography"
	TypeAchievements   Type = "achievements"
	TypeExperience     Type = "experience"
	TypeEducation      Type = "education"
	TypeCertifications Type = "certifications"
	TypeHobbies        Type = "hobbies"

	VisibilityPublic   Visibility = "public"
	VisibilityStudents Visibility = "students"
	VisibilityStaff    Visibility = "staff"
	VisibilityPrivate  Visibility = "private"
)

// typeCaps limits how many entries of a type a user can hold. Types not listed are unlimited.
var typeCaps = map[Type]int{
	TypeBiography:    1,
	TypeAchievements: 3,
	TypeHobbies:      3,
}

// Cap returns the entry limit of t, 0 when unlimited.
func (t Type) Cap() int {
	return typeCaps[t]
}

type Entry struct {
	ID        int        `json:"id" db:"id"`
	UserID    int        `json:"user_id" db:"user_id"`
	Type      Type       `json:"type" db:"type"`
	Content   string     `json:"content" db:"content"`
	VisibleTo Visibility `json:"visible_to" db:"visible_to"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Info is a user along with the profile entries a viewer can see.
type Info struct {
	User    user.User `json:"user"`
	Entries []Entry   `json:"profile"`
}

type NewEntry struct {
	UserID    int        `json:"user_id" validate:"required,min=1"`
	Type      Type       `json:"type" validate:"required,oneof=biography achievements experience education certifications hobbies"`
	Content   string     `json:"content" validate:"required,max=5000"`
	VisibleTo Visibility `json:"visible_to" validate:"required,oneof=public students staff private"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.Content = core.CleanString(ne.Content)
	return validate.Struct(ne)
}

type UpdateEntry struct {
	UserID  int    `json:"user_id" validate:"required,min=1"`
	Content string `json:"content" validate:"required,max=5000"`
}

func (ue *UpdateEntry) Validate(validate *validator.Validate) error {
	ue.Content = core.CleanString(ue.Content)
	return validate.Struct(ue)
}

// VisibleTo lists the visibilities of ownerID's entries that viewer can see.
func VisibleTo(viewer user.User, ownerID int) []Visibility {
	switch {
	case viewer.ID == ownerID || viewer.IsAdmin():
		return []Visibility{VisibilityPublic, VisibilityStudents, VisibilityStaff, VisibilityPrivate}
	case viewer.IsTeacher():
		return []Visibility{VisibilityPublic, VisibilityStudents, VisibilityStaff}
	case viewer.IsStudent():
		return []Visibility{VisibilityPublic, VisibilityStudents}
	}
	return []Visibility{VisibilityPublic}
}

// CanSee reports whether viewer can see e.
func CanSee(viewer user.User, e Entry) bool {
	for _, v := range VisibleTo(viewer, e.UserID) {
		if v == e.VisibleTo {
			return true
		}
	}
	return false
}
