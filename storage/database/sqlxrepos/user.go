package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/user"
)

const userColumns = `id, role_id, name, last_name, mothers_name, birth_date, email, phone_number, user_code,
	profile_image, password, token, created_at, updated_at, deleted_at`

var userOrderingFields = map[string]bool{"id": true, "name": true, "last_name": true, "email": true, "created_at": true}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

func (repo *userRepository) trapUniqueErr(err error, msg string) error {
	switch uniqueViolationOn(err) {
	case "users_email_key":
		return user.ErrEmailExists
	case "users_user_code_key":
		return user.ErrUserCodeExists
	}
	return errors.Wrap(err, msg)
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `INSERT INTO users (role_id, name, last_name, mothers_name, birth_date, email, phone_number, user_code,
		profile_image, password, token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	err := repo.exec.QueryRowxContext(ctx, q,
		usr.Role, usr.Name, usr.LastName, usr.MothersName, usr.BirthDate, usr.Email, usr.PhoneNumber, usr.UserCode,
		usr.ProfileImage, usr.PasswordHash, usr.Token, usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(),
	).Scan(&usr.ID)
	if err != nil {
		return user.User{}, repo.trapUniqueErr(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		where string
		arg   interface{}
	)
	switch {
	case filter.ID != 0:
		where, arg = "id = $1", filter.ID
	case filter.Email != "":
		where, arg = "email = $1", filter.Email
	case filter.UserCode != "":
		where, arg = "user_code = $1", filter.UserCode
	case filter.Token != "":
		where, arg = "token = $1", filter.Token
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr user.User
	q := fmt.Sprintf(`SELECT %s FROM users WHERE %s AND deleted_at IS NULL`, userColumns, where)
	if err := repo.exec.GetContext(ctx, &usr, q, arg); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return usr, nil
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, orderings ...core.DBOrdering) ([]user.User, error) {
	conds := []string{"deleted_at IS NULL"}
	var args []interface{}

	// users with a name, email or user code matching the search keyword
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(name ILIKE $%d OR last_name ILIKE $%d OR mothers_name ILIKE $%d OR email ILIKE $%d OR user_code ILIKE $%d)",
			n, n, n, n, n))
	}
	if filter.Roles != nil {
		roles := make([]int64, 0, len(filter.Roles))
		for _, role := range filter.Roles {
			roles = append(roles, int64(role))
		}
		args = append(args, pq.Array(roles))
		conds = append(conds, fmt.Sprintf("role_id = ANY($%d)", len(args)))
	}

	orderList := make([]string, 0, len(orderings)+1)
	for _, ord := range orderings {
		if userOrderingFields[ord.Field] {
			orderList = append(orderList, ord.String())
		}
	}
	orderList = append(orderList, "id ASC")

	q := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY %s`,
		userColumns, strings.Join(conds, " AND "), strings.Join(orderList, ", "))
	users := make([]user.User, 0)
	if err := repo.exec.SelectContext(ctx, &users, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	return users, nil
}

func (repo *userRepository) ListByRole(ctx context.Context, role user.Role, limit, offset int) ([]user.User, error) {
	q := fmt.Sprintf(`SELECT %s FROM users WHERE role_id = $1 AND deleted_at IS NULL ORDER BY id LIMIT $2 OFFSET $3`, userColumns)
	users := make([]user.User, 0, limit)
	if err := repo.exec.SelectContext(ctx, &users, q, role, limit, offset); err != nil {
		return nil, errors.Wrap(err, "listing users by role")
	}
	return users, nil
}

func (repo *userRepository) BirthdaysOn(ctx context.Context, month time.Month, day int) ([]user.User, error) {
	q := fmt.Sprintf(`SELECT %s FROM users
		WHERE EXTRACT(MONTH FROM birth_date) = $1 AND EXTRACT(DAY FROM birth_date) = $2 AND deleted_at IS NULL
		ORDER BY id`, userColumns)
	users := make([]user.User, 0)
	if err := repo.exec.SelectContext(ctx, &users, q, int(month), day); err != nil {
		return nil, errors.Wrap(err, "listing birthdays")
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := fmt.Sprintf(`UPDATE users SET role_id = $2, name = $3, last_name = $4, mothers_name = $5, birth_date = $6,
		email = $7, phone_number = $8, profile_image = $9, password = $10, token = $11, updated_at = $12
		WHERE id = $1 AND deleted_at IS NULL RETURNING %s`, userColumns)
	var updated user.User
	err := repo.exec.GetContext(ctx, &updated, q,
		usr.ID, usr.Role, usr.Name, usr.LastName, usr.MothersName, usr.BirthDate, usr.Email, usr.PhoneNumber,
		usr.ProfileImage, usr.PasswordHash, usr.Token, usr.UpdatedAt.UTC(),
	)
	if err != nil {
		if uniqueViolationOn(err) != "" {
			return user.User{}, repo.trapUniqueErr(err, "updating user")
		}
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "updating user")
	}
	return updated, nil
}

func (repo *userRepository) DeleteUser(ctx context.Context, id int, at time.Time) error {
	res, err := repo.exec.ExecContext(ctx, `UPDATE users SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, at.UTC())
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}
	return nil
}
