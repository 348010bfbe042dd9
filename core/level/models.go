package level

import (
	"math"
	"time"
)

// Level is an entry of the ordered swimming level catalogue. Level N+1 is the one with ID N+1.
type Level struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Image       string    `json:"image" db:"image"`
	Skill1      string    `json:"skill_1" db:"skill_1"`
	Skill2      string    `json:"skill_2" db:"skill_2"`
	Skill3      string    `json:"skill_3" db:"skill_3"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// UserLevel is a level held by a user.
type UserLevel struct {
	Level
	UserID     int       `json:"user_id" db:"user_id"`
	AssignedAt time.Time `json:"assigned_at" db:"assigned_at"`
}

// Assignment is the payload of a level assignment.
type Assignment struct {
	UserID  int `json:"user_id" validate:"required,min=1"`
	LevelID int `json:"swimming_level_id" validate:"required,min=1"`
}

// Progress summarizes where a user stands in the catalogue.
type Progress struct {
	CurrentLevel       *Level      `json:"current_level"`
	ProgressPercentage int         `json:"progress_percentage"`
	UserLevels         []UserLevel `json:"user_levels"`
	CompletedLevels    int         `json:"completed_levels"`
	TotalLevels        int         `json:"total_levels"`
	RemainingLevels    int         `json:"remaining_levels"`
	NextLevel          *Level      `json:"next_level"`
}

// ProgressPercentage returns completed/total as a rounded percentage, 0 when there are no levels.
func ProgressPercentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// RemainingLevels returns how many levels are left, 0 when there are no levels.
func RemainingLevels(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return total - completed
}

// Current returns the highest held level ID, 0 when none is held.
func Current(held []UserLevel) int {
	var current int
	for _, ul := range held {
		if ul.ID > current {
			current = ul.ID
		}
	}
	return current
}
