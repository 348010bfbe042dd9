package passwordreset

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/user"
)

var (
	// errors
	ErrInvalidToken  = errors.New("invalid password reset token")
	ErrTokenNotFound = errors.New("password reset token not found")
	ErrTokenExpired  = errors.New("password reset token has expired")
)

type (
	Token struct {
		Email     string    `db:"email"`
		Token     string    `db:"token"`
		CreatedAt time.Time `db:"created_at"`
	}

	// Validation is the outcome of a successful token validation.
	Validation struct {
		Valid bool   `json:"valid"`
		Email string `json:"email"`
	}

	Repository interface {
		// ReplaceToken deletes the tokens of the email and inserts tkn in one transaction.
		ReplaceToken(ctx context.Context, tkn Token) error
		// GetToken fails with ErrTokenNotFound.
		GetToken(ctx context.Context, token string) (Token, error)
		DeleteTokens(ctx context.Context, email string) error
	}

	UserStore interface {
		GetByEmail(ctx context.Context, email string) (user.User, error)
		SetPassword(ctx context.Context, usr user.User, pwd string, verify bool) (user.User, error)
	}

	Service struct {
		repo    Repository
		users   UserStore
		mailSvc core.EmailService
		conf    *core.Config
	}
)

func NewService(repo Repository, users UserStore, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, users: users, mailSvc: mailSvc, conf: conf}
}

// Generate issues a new token for the email, invalidating the previous ones, and mails it.
func (svc *Service) Generate(ctx context.Context, email string) error {
	usr, err := svc.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	tkn := Token{Email: usr.Email, Token: uuid.NewString(), CreatedAt: core.NowFunc().UTC()}
	if err = svc.repo.ReplaceToken(ctx, tkn); err != nil {
		return pkgerrors.Wrap(err, "replacing password reset token")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      "Restablecer contraseña",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Name":     usr.Name,
			"Token":    tkn.Token,
			"ValidFor": int(svc.conf.PasswordResetTimeout.Minutes()),
		},
	})
	return nil
}

// Validate returns the email a live token was issued for.
func (svc *Service) Validate(ctx context.Context, token string) (Validation, error) {
	token = core.CleanString(token)
	if _, err := uuid.Parse(token); err != nil {
		return Validation{}, ErrInvalidToken
	}

	tkn, err := svc.repo.GetToken(ctx, token)
	if err != nil {
		return Validation{}, err
	}
	if core.NowFunc().UTC().Sub(tkn.CreatedAt) > svc.conf.PasswordResetTimeout {
		return Validation{}, ErrTokenExpired
	}
	return Validation{Valid: true, Email: tkn.Email}, nil
}

// ChangePassword overwrites the password of the account and consumes its reset tokens.
// The token is not checked again here: clients validate it before showing the form.
// The account keeps its verification state.
func (svc *Service) ChangePassword(ctx context.Context, np user.NewPassword) (user.User, error) {
	usr, err := svc.users.GetByEmail(ctx, np.Email)
	if err != nil {
		return user.User{}, err
	}
	if usr, err = svc.users.SetPassword(ctx, usr, np.Password, false /* verify */); err != nil {
		return user.User{}, err
	}
	if err = svc.repo.DeleteTokens(ctx, usr.Email); err != nil {
		return user.User{}, pkgerrors.Wrap(err, "deleting password reset tokens")
	}
	return usr, nil
}
