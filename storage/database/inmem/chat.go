package inmemdb

import (
	"context"

	"github.com/trezcool/swimschool/core/chat"
)

type chatRepository struct {
	db *DB
}

var _ chat.Repository = (*chatRepository)(nil) // interface compliance check

func NewChatRepository(db *DB) *chatRepository {
	return &chatRepository{db: db}
}

func (repo *chatRepository) AddMessages(_ context.Context, msgs ...chat.Message) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, msg := range msgs {
		msg.ID = repo.db.nextID("messages")
		repo.db.messages = append(repo.db.messages, msg)
	}
	return nil
}

func (repo *chatRepository) History(_ context.Context, userID int) ([]chat.Message, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	msgs := make([]chat.Message, 0)
	for _, msg := range repo.db.messages {
		if msg.UserID == userID {
			msgs = append(msgs, msg)
		}
	}
	return msgs, nil
}
