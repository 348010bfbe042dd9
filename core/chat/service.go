package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/profile"
	"github.com/trezcool/swimschool/core/user"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ia"
)

var (
	// errors
	ErrUnavailable = errors.New("we are under maintenance, please try again later")
	ErrNoHistory   = errors.New("no conversation history")
)

type (
	Message struct {
		ID        int       `json:"id" db:"id"`
		UserID    int       `json:"user_id" db:"user_id"`
		Sender    Sender    `json:"sender" db:"sender"`
		Message   string    `json:"message" db:"message"`
		CreatedAt time.Time `json:"created_at" db:"created_at"`
	}

	Question struct {
		Message string `json:"message" validate:"required,max=2000"`
	}

	Repository interface {
		// AddMessages stores msgs in one transaction.
		AddMessages(ctx context.Context, msgs ...Message) error
		// History lists the messages of a user, oldest first.
		History(ctx context.Context, userID int) ([]Message, error)
	}

	// Completer answers a prompt with a model completion.
	Completer interface {
		Complete(ctx context.Context, prompt string) (string, error)
	}

	UserLister interface {
		Query(ctx context.Context, filter user.QueryFilter, orderings ...core.DBOrdering) ([]user.User, error)
	}

	ProfileLister interface {
		Visible(ctx context.Context, viewer user.User) ([]profile.Entry, error)
	}

	Service struct {
		repo      Repository
		completer Completer
		users     UserLister
		profiles  ProfileLister
		logger    core.Logger
	}
)

func (q *Question) Validate(validate *validator.Validate) error {
	q.Message = core.CleanString(q.Message)
	return validate.Struct(q)
}

func NewService(repo Repository, completer Completer, users UserLister, profiles ProfileLister, logger core.Logger) *Service {
	return &Service{repo: repo, completer: completer, users: users, profiles: profiles, logger: logger}
}

// Ask forwards the question of usr to the assistant and logs both sides of the exchange.
// Completion failures surface as ErrUnavailable.
func (svc *Service) Ask(ctx context.Context, usr user.User, q Question) (string, error) {
	users, err := svc.users.Query(ctx, user.QueryFilter{})
	if err != nil {
		return "", pkgerrors.Wrap(err, "listing users")
	}
	entries, err := svc.profiles.Visible(ctx, usr)
	if err != nil {
		return "", pkgerrors.Wrap(err, "listing profiles")
	}

	prompt, err := BuildPrompt(NewContext(usr, users, entries, core.Now()), q.Message)
	if err != nil {
		return "", pkgerrors.Wrap(err, "building prompt")
	}

	answer, err := svc.completer.Complete(ctx, prompt)
	answer = strings.TrimSpace(answer)
	if err != nil || answer == "" {
		if err == nil {
			err = errors.New("empty completion")
		}
		svc.logger.Error(fmt.Sprintf("completing chat message: %v", err), err, usr)
		return "", ErrUnavailable
	}

	now := core.NowFunc().UTC()
	err = svc.repo.AddMessages(ctx,
		Message{UserID: usr.ID, Sender: SenderUser, Message: q.Message, CreatedAt: now},
		Message{UserID: usr.ID, Sender: SenderAI, Message: answer, CreatedAt: now},
	)
	if err != nil {
		return "", pkgerrors.Wrap(err, "logging chat messages")
	}
	return answer, nil
}

func (svc *Service) History(ctx context.Context, userID int) ([]Message, error) {
	msgs, err := svc.repo.History(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "listing chat history")
	}
	if len(msgs) == 0 {
		return nil, ErrNoHistory
	}
	return msgs, nil
}
