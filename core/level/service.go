package level

import (
	"context"
	"errors"
	"sort"

	pkgerrors "github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound        = errors.New("swimming level not found")
	ErrNoLevels        = errors.New("no swimming levels found")
	ErrNoProgress      = errors.New("the user has no swimming level yet")
	ErrLimitReached    = errors.New("the student already reached the last swimming level")
	ErrAlreadyAssigned = errors.New("the student already holds this swimming level")
	ErrInvalidSequence = errors.New("only the level right after the current one can be assigned")
)

type (
	Repository interface {
		// ListLevels returns the catalogue ordered by ID.
		ListLevels(ctx context.Context) ([]Level, error)
		GetLevel(ctx context.Context, id int) (Level, error)
		CountLevels(ctx context.Context) (int, error)
		// UserLevels returns the levels held by a user ordered by level ID.
		UserLevels(ctx context.Context, userID int) ([]UserLevel, error)
		// AddUserLevel fails with ErrAlreadyAssigned when the pair exists.
		AddUserLevel(ctx context.Context, userID, levelID int) error
		// WithUserLock runs fn while holding the lock of the user, fn's repository shares the lock's transaction.
		// It fails with user.ErrNotFound when the user does not exist.
		WithUserLock(ctx context.Context, userID int, fn func(Repository) error) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Levels returns the catalogue, highest level first.
func (svc *Service) Levels(ctx context.Context) ([]Level, error) {
	levels, err := svc.repo.ListLevels(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "listing levels")
	}
	if len(levels) == 0 {
		return nil, ErrNoLevels
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].ID > levels[j].ID })
	return levels, nil
}

// Assign gives levelID to the user. Held levels always form the prefix 1..n of the catalogue,
// so only the level following the current one can be assigned.
func (svc *Service) Assign(ctx context.Context, userID, levelID int) error {
	return svc.repo.WithUserLock(ctx, userID, func(repo Repository) error {
		held, err := repo.UserLevels(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(err, "listing user levels")
		}
		total, err := repo.CountLevels(ctx)
		if err != nil {
			return pkgerrors.Wrap(err, "counting levels")
		}

		if len(held) >= total {
			return ErrLimitReached
		}
		for _, ul := range held {
			if ul.ID == levelID {
				return ErrAlreadyAssigned
			}
		}
		if levelID != Current(held)+1 {
			return ErrInvalidSequence
		}
		if _, err = repo.GetLevel(ctx, levelID); err != nil {
			return err
		}
		return repo.AddUserLevel(ctx, userID, levelID)
	})
}

// NextLevel returns the level following currentID, nil when currentID is the last one.
func (svc *Service) NextLevel(ctx context.Context, currentID int) (*Level, error) {
	total, err := svc.repo.CountLevels(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "counting levels")
	}
	if currentID >= total {
		return nil, nil
	}
	lvl, err := svc.repo.GetLevel(ctx, currentID+1)
	switch {
	case err == ErrNotFound:
		return nil, nil
	case err != nil:
		return nil, pkgerrors.Wrap(err, "getting next level")
	}
	return &lvl, nil
}

// Progress fails with ErrNoProgress when the user holds no level.
func (svc *Service) Progress(ctx context.Context, userID int) (Progress, error) {
	held, err := svc.repo.UserLevels(ctx, userID)
	if err != nil {
		return Progress{}, pkgerrors.Wrap(err, "listing user levels")
	}
	if len(held) == 0 {
		return Progress{}, ErrNoProgress
	}
	total, err := svc.repo.CountLevels(ctx)
	if err != nil {
		return Progress{}, pkgerrors.Wrap(err, "counting levels")
	}

	completed := len(held)
	currentID := Current(held)
	prog := Progress{
		ProgressPercentage: ProgressPercentage(completed, total),
		UserLevels:         held,
		CompletedLevels:    completed,
		TotalLevels:        total,
		RemainingLevels:    RemainingLevels(completed, total),
	}
	for i := range held {
		if held[i].ID == currentID {
			lvl := held[i].Level
			prog.CurrentLevel = &lvl
		}
	}
	if prog.NextLevel, err = svc.NextLevel(ctx, completed); err != nil {
		return Progress{}, err
	}
	return prog, nil
}

// Held returns the user's levels and the current one; both are empty when none is held.
func (svc *Service) Held(ctx context.Context, userID int) ([]UserLevel, *Level, error) {
	held, err := svc.repo.UserLevels(ctx, userID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(err, "listing user levels")
	}
	currentID := Current(held)
	for i := range held {
		if held[i].ID == currentID {
			lvl := held[i].Level
			return held, &lvl, nil
		}
	}
	return held, nil, nil
}
