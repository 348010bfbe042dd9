package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/chat"
)

type chatRepository struct {
	db core.DB
}

var _ chat.Repository = (*chatRepository)(nil) // interface compliance check

func NewChatRepository(db core.DB) *chatRepository {
	return &chatRepository{db: db}
}

func (repo *chatRepository) AddMessages(ctx context.Context, msgs ...chat.Message) error {
	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		for _, msg := range msgs {
			_, err := tx.NamedExecContext(ctx,
				`INSERT INTO chat_messages (user_id, sender, message, created_at) VALUES (:user_id, :sender, :message, :created_at)`,
				msg)
			if err != nil {
				return errors.Wrap(err, "inserting chat message")
			}
		}
		return nil
	})
}

func (repo *chatRepository) History(ctx context.Context, userID int) ([]chat.Message, error) {
	msgs := make([]chat.Message, 0)
	err := repo.db.SelectContext(ctx, &msgs,
		`SELECT id, user_id, sender, message, created_at FROM chat_messages WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "listing chat messages")
	}
	return msgs, nil
}
