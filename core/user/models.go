package user

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/swimschool/core"
)

// Role of a User. The values match the roles table.
type Role int

const (
	RoleAdmin Role = iota + 1
	RoleTeacher
	RoleStudent
)

var roleNames = map[Role]string{
	RoleAdmin:   "Administrador",
	RoleTeacher: "Maestro",
	RoleStudent: "Alumno",
}

func (r Role) IsValid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

type User struct {
	ID           int        `json:"id" db:"id"`
	Role         Role       `json:"role_id" db:"role_id"`
	Name         string     `json:"name" db:"name"`
	LastName     string     `json:"last_name" db:"last_name"`
	MothersName  string     `json:"mothers_name" db:"mothers_name"`
	BirthDate    core.Date  `json:"birth_date" db:"birth_date"`
	Email        string     `json:"email" db:"email"`
	PhoneNumber  string     `json:"phone_number" db:"phone_number"`
	UserCode     string     `json:"user_code" db:"user_code"`
	ProfileImage string     `json:"profile_image" db:"profile_image"`
	PasswordHash []byte     `json:"-" db:"password"`
	Token        *string    `json:"-" db:"token"` // email verification marker, nil once verified
	CreatedAt    time.Time  `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"` // UTC
	DeletedAt    *time.Time `json:"-" db:"deleted_at"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u User) IsStudent() bool { return u.Role == RoleStudent }
func (u User) IsStaff() bool   { return u.IsAdmin() || u.IsTeacher() }
func (u User) IsVerified() bool {
	return u.Token == nil
}

func (u User) FullName() string {
	return strings.Join(strings.Fields(u.Name+" "+u.LastName+" "+u.MothersName), " ")
}

func (u User) Age(now time.Time) int {
	return core.Age(u.BirthDate.Time, now)
}

func (u User) IsBirthday(now time.Time) bool {
	return core.IsBirthday(u.BirthDate.Time, now)
}

// NewCode returns the user code for a user created at t: its YYYYMMDDhhmmss timestamp.
// Retries after a collision get a two digit suffix.
func NewCode(t time.Time, attempt int) string {
	code := t.Format(core.CodeLayout)
	if attempt > 0 {
		code += fmt.Sprintf("%02d", attempt)
	}
	return code
}

const (
	passwordLower   = "abcdefghijklmnopqrstuvwxyz"
	passwordUpper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	passwordDigits  = "0123456789"
	passwordSymbols = "!@#$%^&*()_+-=[]{}|;:,.<>?"
	passwordChars   = passwordDigits + passwordLower + passwordUpper + passwordSymbols
)

func randomIndex(n int) (int, error) {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(idx.Int64()), nil
}

// RandomPassword returns a random password of length n (at least 4) holding a lower case letter,
// an upper case letter, a digit and a symbol.
func RandomPassword(n int) (string, error) {
	if n < 4 {
		n = 4
	}
	pwd := make([]byte, 0, n)
	for _, set := range []string{passwordLower, passwordUpper, passwordDigits, passwordSymbols} {
		idx, err := randomIndex(len(set))
		if err != nil {
			return "", err
		}
		pwd = append(pwd, set[idx])
	}
	for len(pwd) < n {
		idx, err := randomIndex(len(passwordChars))
		if err != nil {
			return "", err
		}
		pwd = append(pwd, passwordChars[idx])
	}

	// Fisher-Yates
	for i := len(pwd) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return "", err
		}
		pwd[i], pwd[j] = pwd[j], pwd[i]
	}
	return string(pwd), nil
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name        string `json:"name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	MothersName string `json:"mothers_name" validate:"omitempty,max=100"`
	BirthDate   string `json:"birth_date" validate:"required,datetime=2006-01-02"`
	Email       string `json:"email" validate:"required,email,max=255"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=20"`
	Role        Role   `json:"role_id" validate:"required,oneof=1 2 3"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.LastName = core.CleanString(nu.LastName)
	nu.MothersName = core.CleanString(nu.MothersName)
	nu.BirthDate = core.CleanString(nu.BirthDate)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.PhoneNumber = core.CleanString(nu.PhoneNumber)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkEmailUniqueness(ctx, nu.Email)
}

// NewPassword is a password change, identified by the account's email.
type NewPassword struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (np *NewPassword) Validate(validate *validator.Validate) error {
	np.Email = core.CleanString(np.Email, true /* lower */)
	return validate.Struct(np)
}

// GetFilter selects a single user; the first non-empty field wins.
type GetFilter struct {
	ID       int
	Email    string
	UserCode string
	Token    string
}

type QueryFilter struct {
	Search string `query:"search"`
	Roles  []Role `query:"role"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
