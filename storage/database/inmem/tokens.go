package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/swimschool/core/passwordreset"
	"github.com/trezcool/swimschool/core/session"
)

type passwordResetRepository struct {
	db *DB
}

var _ passwordreset.Repository = (*passwordResetRepository)(nil) // interface compliance check

func NewPasswordResetRepository(db *DB) *passwordResetRepository {
	return &passwordResetRepository{db: db}
}

func (repo *passwordResetRepository) deleteTokens(email string) {
	for key, tkn := range repo.db.resetTokens {
		if tkn.Email == email {
			delete(repo.db.resetTokens, key)
		}
	}
}

func (repo *passwordResetRepository) ReplaceToken(_ context.Context, tkn passwordreset.Token) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	repo.deleteTokens(tkn.Email)
	repo.db.resetTokens[tkn.Token] = tkn
	return nil
}

func (repo *passwordResetRepository) GetToken(_ context.Context, token string) (passwordreset.Token, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if tkn, ok := repo.db.resetTokens[token]; ok {
		return tkn, nil
	}
	return passwordreset.Token{}, passwordreset.ErrTokenNotFound
}

func (repo *passwordResetRepository) DeleteTokens(_ context.Context, email string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.deleteTokens(email)
	return nil
}

type sessionRepository struct {
	db *DB
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) RevokeToken(_ context.Context, hash string, expiresAt time.Time) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.revoked[hash] = expiresAt
	return nil
}

func (repo *sessionRepository) IsTokenRevoked(_ context.Context, hash string, now time.Time) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	exp, ok := repo.db.revoked[hash]
	return ok && exp.After(now), nil
}

func (repo *sessionRepository) PurgeRevokedTokens(_ context.Context, now time.Time) (int64, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	var n int64
	for hash, exp := range repo.db.revoked {
		if !exp.After(now) {
			delete(repo.db.revoked, hash)
			n++
		}
	}
	return n, nil
}
