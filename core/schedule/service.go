package schedule

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
)

var (
	// errors
	ErrNotFound    = errors.New("schedule not found")
	ErrNoSchedules = errors.New("the user has no classes assigned")
)

type (
	Repository interface {
		// ActiveSchedules lists the active rows of a user ordered by ID.
		ActiveSchedules(ctx context.Context, userID int) ([]Schedule, error)
		// ActiveScheduleOn fails with ErrNotFound when the user has no active class on day.
		ActiveScheduleOn(ctx context.Context, userID int, day string) (Schedule, error)
		// ReplaceActive deactivates the user's active rows and inserts scheds in one transaction.
		// It fails with user.ErrNotFound when the user does not exist.
		ReplaceActive(ctx context.Context, userID int, scheds []Schedule, at time.Time) ([]Schedule, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ForUser fails with ErrNoSchedules when the user has no active class.
func (svc *Service) ForUser(ctx context.Context, userID int) ([]Schedule, error) {
	scheds, err := svc.repo.ActiveSchedules(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "listing schedules")
	}
	if len(scheds) == 0 {
		return nil, ErrNoSchedules
	}
	return scheds, nil
}

// Assign replaces the user's weekly classes. Previous rows are deactivated, not deleted.
func (svc *Service) Assign(ctx context.Context, ns NewSchedule) ([]Schedule, error) {
	now := core.NowFunc().UTC()
	scheds := make([]Schedule, 0, len(ns.Days))
	for _, day := range ns.Days {
		scheds = append(scheds, Schedule{
			UserID:        ns.UserID,
			Day:           day,
			EntryTime:     ns.EntryTime,
			DepartureTime: ns.DepartureTime,
			Status:        StatusActive,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	return svc.repo.ReplaceActive(ctx, ns.UserID, scheds, now)
}

// On returns the active class of the user on t's weekday.
func (svc *Service) On(ctx context.Context, userID int, t time.Time) (Schedule, error) {
	return svc.repo.ActiveScheduleOn(ctx, userID, core.WeekdayName(t.Weekday()))
}
