package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
)

type (
	// Repository stores revoked access tokens by their HMAC, never the raw token.
	Repository interface {
		// RevokeToken is idempotent.
		RevokeToken(ctx context.Context, hash string, expiresAt time.Time) error
		IsTokenRevoked(ctx context.Context, hash string, now time.Time) (bool, error)
		// PurgeRevokedTokens deletes the entries that expired before now.
		PurgeRevokedTokens(ctx context.Context, now time.Time) (int64, error)
	}

	Service struct {
		repo   Repository
		secret []byte
	}
)

func NewService(repo Repository, secret string) *Service {
	return &Service{repo: repo, secret: []byte(secret)}
}

func (svc *Service) hash(token string) string {
	mac := hmac.New(sha256.New, svc.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// Revoke blacklists token until it expires on its own.
func (svc *Service) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	if token == "" {
		return nil
	}
	if err := svc.repo.RevokeToken(ctx, svc.hash(token), expiresAt.UTC()); err != nil {
		return errors.Wrap(err, "revoking token")
	}
	return nil
}

func (svc *Service) IsRevoked(ctx context.Context, token string) (bool, error) {
	revoked, err := svc.repo.IsTokenRevoked(ctx, svc.hash(token), core.NowFunc().UTC())
	if err != nil {
		return false, errors.Wrap(err, "checking revoked token")
	}
	return revoked, nil
}

// Purge drops the revoked tokens that have expired anyway.
func (svc *Service) Purge(ctx context.Context) (int64, error) {
	n, err := svc.repo.PurgeRevokedTokens(ctx, core.NowFunc().UTC())
	if err != nil {
		return 0, errors.Wrap(err, "purging revoked tokens")
	}
	return n, nil
}
