package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/swimschool/core/profile"
)

type profileRepository struct {
	db *DB
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) *profileRepository {
	return &profileRepository{db: db}
}

// entries must be called with the lock held.
func (repo *profileRepository) entries(keep func(profile.Entry) bool) []profile.Entry {
	entries := make([]profile.Entry, 0)
	for _, e := range repo.db.profiles {
		if usr, ok := repo.db.users[e.UserID]; ok && usr.DeletedAt == nil && keep(*e) {
			entries = append(entries, *e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].UserID != entries[j].UserID {
			return entries[i].UserID < entries[j].UserID
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}

func (repo *profileRepository) UserEntries(_ context.Context, userID int) ([]profile.Entry, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.entries(func(e profile.Entry) bool { return e.UserID == userID }), nil
}

func (repo *profileRepository) ListEntries(_ context.Context) ([]profile.Entry, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.entries(func(profile.Entry) bool { return true }), nil
}

func (repo *profileRepository) GetEntry(_ context.Context, id int) (profile.Entry, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if e, ok := repo.db.profiles[id]; ok {
		return *e, nil
	}
	return profile.Entry{}, profile.ErrNotFound
}

func (repo *profileRepository) CountEntries(_ context.Context, userID int, typ profile.Type) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var n int
	for _, e := range repo.db.profiles {
		if e.UserID == userID && e.Type == typ {
			n++
		}
	}
	return n, nil
}

func (repo *profileRepository) CreateEntry(_ context.Context, e profile.Entry) (profile.Entry, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	e.ID = repo.db.nextID("profiles")
	repo.db.profiles[e.ID] = &e
	return e, nil
}

func (repo *profileRepository) UpdateEntry(_ context.Context, e profile.Entry) (profile.Entry, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.profiles[e.ID]; !ok {
		return profile.Entry{}, profile.ErrNotFound
	}
	repo.db.profiles[e.ID] = &e
	return e, nil
}

func (repo *profileRepository) WithUserLock(_ context.Context, userID int, fn func(profile.Repository) error) error {
	return repo.db.withUserLock(userID, func() error { return fn(repo) })
}
