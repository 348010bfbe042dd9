package profile

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("profile entry not found")
	ErrTypeLimitReached = errors.New("the user reached the limit of entries of this type")
	ErrNotOwned         = errors.New("the profile entry does not belong to the selected user")
	ErrForbidden        = errors.New("only the owner or an administrator can edit a profile")
)

type (
	Repository interface {
		// UserEntries lists the entries of a user ordered by ID.
		UserEntries(ctx context.Context, userID int) ([]Entry, error)
		// ListEntries lists the entries of every user that is not deleted, ordered by user and ID.
		ListEntries(ctx context.Context) ([]Entry, error)
		// GetEntry fails with ErrNotFound.
		GetEntry(ctx context.Context, id int) (Entry, error)
		CountEntries(ctx context.Context, userID int, typ Type) (int, error)
		CreateEntry(ctx context.Context, e Entry) (Entry, error)
		UpdateEntry(ctx context.Context, e Entry) (Entry, error)
		// WithUserLock runs fn while holding the lock of the user, fn's repository shares the lock's transaction.
		// It fails with user.ErrNotFound when the user does not exist.
		WithUserLock(ctx context.Context, userID int, fn func(Repository) error) error
	}

	UserFinder interface {
		GetByID(ctx context.Context, id int) (user.User, error)
	}

	Service struct {
		repo  Repository
		users UserFinder
	}
)

func NewService(repo Repository, users UserFinder) *Service {
	return &Service{repo: repo, users: users}
}

// Info returns the user and the entries viewer can see.
func (svc *Service) Info(ctx context.Context, viewer user.User, userID int) (Info, error) {
	usr, err := svc.users.GetByID(ctx, userID)
	if err != nil {
		return Info{}, err
	}
	entries, err := svc.repo.UserEntries(ctx, userID)
	if err != nil {
		return Info{}, pkgerrors.Wrap(err, "listing profile entries")
	}

	visible := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if CanSee(viewer, e) {
			visible = append(visible, e)
		}
	}
	return Info{User: usr, Entries: visible}, nil
}

// Assign adds an entry to a profile, within the cap of its type.
func (svc *Service) Assign(ctx context.Context, actor user.User, ne NewEntry) (Entry, error) {
	if actor.ID != ne.UserID && !actor.IsAdmin() {
		return Entry{}, ErrForbidden
	}

	var entry Entry
	err := svc.repo.WithUserLock(ctx, ne.UserID, func(repo Repository) error {
		if limit := ne.Type.Cap(); limit > 0 {
			n, err := repo.CountEntries(ctx, ne.UserID, ne.Type)
			if err != nil {
				return pkgerrors.Wrap(err, "counting profile entries")
			}
			if n >= limit {
				return ErrTypeLimitReached
			}
		}

		now := core.NowFunc().UTC()
		var err error
		entry, err = repo.CreateEntry(ctx, Entry{
			UserID:    ne.UserID,
			Type:      ne.Type,
			Content:   ne.Content,
			VisibleTo: ne.VisibleTo,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return pkgerrors.Wrap(err, "creating profile entry")
	})
	return entry, err
}

// Update overwrites the content of an entry owned by ue.UserID.
func (svc *Service) Update(ctx context.Context, actor user.User, id int, ue UpdateEntry) (Entry, error) {
	entry, err := svc.repo.GetEntry(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if entry.UserID != ue.UserID {
		return Entry{}, ErrNotOwned
	}
	if actor.ID != entry.UserID && !actor.IsAdmin() {
		return Entry{}, ErrForbidden
	}

	entry.Content = ue.Content
	entry.UpdatedAt = core.NowFunc().UTC()
	if entry, err = svc.repo.UpdateEntry(ctx, entry); err != nil {
		return Entry{}, pkgerrors.Wrap(err, "updating profile entry")
	}
	return entry, nil
}

// Visible lists the entries of every user that viewer can see.
func (svc *Service) Visible(ctx context.Context, viewer user.User) ([]Entry, error) {
	entries, err := svc.repo.ListEntries(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "listing profile entries")
	}
	visible := entries[:0]
	for _, e := range entries {
		if CanSee(viewer, e) {
			visible = append(visible, e)
		}
	}
	return visible, nil
}
