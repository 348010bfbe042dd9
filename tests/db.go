//go:build integration

package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/trezcool/swimschool/storage/database"
)

// DBHandle is a migrated postgres running in a container.
type DBHandle struct {
	DB        *sqlx.DB
	container *postgres.PostgresContainer
}

// StartDB starts a postgres container and applies the migrations.
func StartDB(ctx context.Context) (*DBHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("swimschool"),
		postgres.WithUsername("swimschool"),
		postgres.WithPassword("swimschool"),
		tc.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "starting postgres")
	}
	h := &DBHandle{container: pg}

	uri, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		h.Close()
		return nil, errors.Wrap(err, "getting connection string")
	}
	if h.DB, err = database.OpenURL(uri); err != nil {
		h.Close()
		return nil, errors.Wrap(err, "opening database")
	}
	if err = database.Ping(ctx, h.DB); err != nil {
		h.Close()
		return nil, err
	}
	if err = database.Migrate(ctx, h.DB.DB); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

func (h *DBHandle) Close() {
	if h.DB != nil {
		_ = h.DB.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = h.container.Terminate(ctx)
}

// ResetDB empties every table but the seeded catalogues.
func ResetDB(t *testing.T, db *sqlx.DB) {
	t.Helper()
	q := `TRUNCATE users, user_swimming_levels, user_schedules, user_attendances, contents, user_profiles,
		chat_messages, password_reset_tokens, revoked_tokens RESTART IDENTITY CASCADE`
	if _, err := db.Exec(q); err != nil {
		t.Fatalf("ResetDB() failed: %v", err)
	}
}
