package user

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
)

const (
	generatedPasswordLen = 10
	maxCodeAttempts      = 10
)

var (
	// errors
	ErrNotFound          = errors.New("user not found")
	ErrEmailExists       = errors.New("a user with this email already exists")
	ErrUserCodeExists    = errors.New("a user with this user code already exists")
	ErrCannotDeleteSelf  = errors.New("users cannot delete their own account")
	errCodeRetryExceeded = errors.New("could not generate a unique user code")
)

type (
	Repository interface {
		// CreateUser fails with ErrEmailExists or ErrUserCodeExists when a unique key is taken.
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on the name fields, email and user code.
		FilterUsers(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]User, error)
		// ListByRole pages through users of a role, ordered by ID.
		ListByRole(ctx context.Context, role Role, limit, offset int) ([]User, error)
		BirthdaysOn(ctx context.Context, month time.Month, day int) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		// DeleteUser soft deletes a user.
		DeleteUser(ctx context.Context, id int, at time.Time) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}

	// Created is a freshly created user along with the generated password sent to them.
	Created struct {
		User     User
		Password string
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, conf: conf}
}

func (svc *Service) checkEmailUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: email})
	switch {
	case err == ErrNotFound:
		return nil
	case err != nil:
		return pkgerrors.Wrap(err, "checking email uniqueness")
	}
	for _, excl := range exclUsers {
		if excl.ID == usr.ID {
			return nil
		}
	}
	return core.NewFieldError("email", ErrEmailExists)
}

// Create registers a user with a random password and a verification token, then sends them a welcome email.
func (svc *Service) Create(ctx context.Context, nu NewUser) (Created, error) {
	birth, err := core.ParseDate(nu.BirthDate)
	if err != nil {
		return Created{}, core.NewFieldError("birth_date", err)
	}
	pwd, err := RandomPassword(generatedPasswordLen)
	if err != nil {
		return Created{}, pkgerrors.Wrap(err, "generating password")
	}
	token := uuid.NewString()

	now := core.NowFunc().UTC()
	usr := User{
		Role:        nu.Role,
		Name:        nu.Name,
		LastName:    nu.LastName,
		MothersName: nu.MothersName,
		BirthDate:   birth,
		Email:       nu.Email,
		PhoneNumber: nu.PhoneNumber,
		Token:       &token,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = usr.SetPassword(pwd); err != nil {
		return Created{}, pkgerrors.Wrap(err, "setting password")
	}

	if usr, err = svc.insert(ctx, usr); err != nil {
		return Created{}, err
	}
	svc.sendWelcomeMail(usr, pwd)
	return Created{User: usr, Password: pwd}, nil
}

// Register creates a verified user with a known password. No email is sent.
func (svc *Service) Register(ctx context.Context, nu NewUser, pwd string) (User, error) {
	birth, err := core.ParseDate(nu.BirthDate)
	if err != nil {
		return User{}, core.NewFieldError("birth_date", err)
	}
	now := core.NowFunc().UTC()
	usr := User{
		Role:        nu.Role,
		Name:        nu.Name,
		LastName:    nu.LastName,
		MothersName: nu.MothersName,
		BirthDate:   birth,
		Email:       core.CleanString(nu.Email, true /* lower */),
		PhoneNumber: nu.PhoneNumber,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = usr.SetPassword(pwd); err != nil {
		return User{}, pkgerrors.Wrap(err, "setting password")
	}
	return svc.insert(ctx, usr)
}

// insert stores usr under the first free user code of the day.
func (svc *Service) insert(ctx context.Context, usr User) (User, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		usr.UserCode = NewCode(usr.CreatedAt.In(svc.location()), attempt)
		created, err := svc.repo.CreateUser(ctx, usr)
		switch {
		case err == ErrUserCodeExists:
			continue
		case err == ErrEmailExists:
			return User{}, core.NewFieldError("email", err)
		case err != nil:
			return User{}, pkgerrors.Wrap(err, "creating user")
		}
		return created, nil
	}
	return User{}, errCodeRetryExceeded
}

func (svc *Service) location() *time.Location {
	if svc.conf != nil && svc.conf.Location != nil {
		return svc.conf.Location
	}
	return time.UTC
}

func (svc *Service) sendWelcomeMail(usr User, pwd string) {
	var token string
	if usr.Token != nil {
		token = *usr.Token
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      "Bienvenido",
		TemplateName: "welcome",
		TemplateData: map[string]interface{}{
			"Name":     usr.Name,
			"UserCode": usr.UserCode,
			"Password": pwd,
			"Token":    token,
		},
	})
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]User, error) {
	return svc.repo.FilterUsers(ctx, filter, orderings...)
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) GetByCode(ctx context.Context, code string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{UserCode: core.CleanString(code)})
}

// Students pages through students, ordered by ID.
func (svc *Service) Students(ctx context.Context, limit, offset int) ([]User, error) {
	return svc.repo.ListByRole(ctx, RoleStudent, limit, offset)
}

// BirthdaysToday lists users born on today's day and month.
func (svc *Service) BirthdaysToday(ctx context.Context) ([]User, error) {
	today := core.Today()
	return svc.repo.BirthdaysOn(ctx, today.Month(), today.Day())
}

// Verify clears the verification marker of the user holding token.
func (svc *Service) Verify(ctx context.Context, token string) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Token: core.CleanString(token)})
	if err != nil {
		return User{}, err
	}
	usr.Token = nil
	usr.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// SetPassword overwrites the password of usr. Proving access to the account's mailbox also verifies it.
func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string, verify bool) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, pkgerrors.Wrap(err, "setting password")
	}
	if verify {
		usr.Token = nil
	}
	usr.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) Delete(ctx context.Context, actor User, id int) error {
	if actor.ID == id {
		return ErrCannotDeleteSelf
	}
	if _, err := svc.repo.GetUser(ctx, GetFilter{ID: id}); err != nil {
		return err
	}
	return svc.repo.DeleteUser(ctx, id, core.NowFunc().UTC())
}
