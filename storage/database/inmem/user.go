package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

// query must be called with the lock held.
func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.users))
	for _, u := range repo.db.users {
		if u.DeletedAt == nil {
			users = append(users, *u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, u := range repo.db.users {
		if u.Email == usr.Email && u.DeletedAt == nil {
			return user.User{}, user.ErrEmailExists
		}
		if u.UserCode == usr.UserCode {
			return user.User{}, user.ErrUserCodeExists
		}
	}
	usr.ID = repo.db.nextID("users")
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.query() {
		switch {
		case filter.ID != 0:
			if usr.ID == filter.ID {
				return usr, nil
			}
		case filter.Email != "":
			if usr.Email == filter.Email {
				return usr, nil
			}
		case filter.UserCode != "":
			if usr.UserCode == filter.UserCode {
				return usr, nil
			}
		case filter.Token != "":
			if usr.Token != nil && *usr.Token == filter.Token {
				return usr, nil
			}
		default:
			return user.User{}, user.ErrNotFound
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) FilterUsers(_ context.Context, filter user.QueryFilter, orderings ...core.DBOrdering) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	users := make([]user.User, 0)
	for _, usr := range repo.query() {
		if search != "" && !matchesSearch(usr, search) {
			continue
		}
		if filter.Roles != nil && !hasRole(usr, filter.Roles) {
			continue
		}
		users = append(users, usr)
	}
	sortUsers(users, orderings)
	return users, nil
}

func matchesSearch(usr user.User, search string) bool {
	for _, fld := range []string{usr.Name, usr.LastName, usr.MothersName, usr.Email, usr.UserCode} {
		if strings.Contains(strings.ToLower(fld), search) {
			return true
		}
	}
	return false
}

func hasRole(usr user.User, roles []user.Role) bool {
	for _, role := range roles {
		if usr.Role == role {
			return true
		}
	}
	return false
}

func sortUsers(users []user.User, orderings []core.DBOrdering) {
	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range orderings {
			a, b := users[i], users[j]
			var cmp int
			switch ord.Field {
			case "name":
				cmp = strings.Compare(a.Name, b.Name)
			case "last_name":
				cmp = strings.Compare(a.LastName, b.LastName)
			case "email":
				cmp = strings.Compare(a.Email, b.Email)
			case "created_at":
				cmp = a.CreatedAt.Compare(b.CreatedAt)
			case "id":
				cmp = a.ID - b.ID
			}
			if cmp != 0 {
				return (cmp < 0) == ord.Ascending
			}
		}
		return false
	})
}

func (repo *userRepository) ListByRole(_ context.Context, role user.Role, limit, offset int) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := make([]user.User, 0, limit)
	for _, usr := range repo.query() {
		if usr.Role == role {
			users = append(users, usr)
		}
	}
	if offset >= len(users) {
		return []user.User{}, nil
	}
	users = users[offset:]
	if limit > 0 && limit < len(users) {
		users = users[:limit]
	}
	return users, nil
}

func (repo *userRepository) BirthdaysOn(_ context.Context, month time.Month, day int) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := make([]user.User, 0)
	for _, usr := range repo.query() {
		if usr.BirthDate.Month() == month && usr.BirthDate.Day() == day {
			users = append(users, usr)
		}
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	origUsr, ok := repo.db.users[usr.ID]
	if !ok || origUsr.DeletedAt != nil {
		return user.User{}, user.ErrNotFound
	}
	for id, u := range repo.db.users {
		if id != usr.ID && u.Email == usr.Email && u.DeletedAt == nil {
			return user.User{}, user.ErrEmailExists
		}
	}
	usr.CreatedAt = origUsr.CreatedAt
	usr.UserCode = origUsr.UserCode
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) DeleteUser(_ context.Context, id int, at time.Time) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr, ok := repo.db.users[id]
	if !ok || usr.DeletedAt != nil {
		return user.ErrNotFound
	}
	usr.DeletedAt = &at
	return nil
}
