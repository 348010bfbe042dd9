//go:build integration

package sqlxrepos

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/attendance"
	"github.com/trezcool/swimschool/core/content"
	"github.com/trezcool/swimschool/core/level"
	"github.com/trezcool/swimschool/core/user"
	"github.com/trezcool/swimschool/tests"
)

var testDB *sqlx.DB

func TestMain(m *testing.M) {
	h, err := testutil.StartDB(context.Background())
	if err != nil {
		fmt.Printf("testutil.StartDB(): %v\n", err)
		os.Exit(1)
	}
	testDB = h.DB

	code := m.Run()
	h.Close()
	os.Exit(code)
}

func prepare(t *testing.T) user.Repository {
	testutil.ResetDB(t, testDB)
	return NewUserRepository(testDB)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := prepare(t)

	usr := testutil.CreateUser(t, repo, "Ana", "ana@test.mx", testutil.UserOpts{
		BirthDate: time.Date(2010, time.March, 9, 0, 0, 0, 0, time.UTC),
	})
	other := testutil.CreateUser(t, repo, "Beto", "beto@test.mx", testutil.UserOpts{Role: user.RoleTeacher})

	t.Run("unique keys", func(t *testing.T) {
		dup := usr
		dup.UserCode = "other-code"
		_, err := repo.CreateUser(ctx, dup)
		assert.Equal(t, user.ErrEmailExists, err)

		dup = usr
		dup.Email = "other@test.mx"
		_, err = repo.CreateUser(ctx, dup)
		assert.Equal(t, user.ErrUserCodeExists, err)
	})

	t.Run("get", func(t *testing.T) {
		for _, filter := range []user.GetFilter{{ID: usr.ID}, {Email: usr.Email}, {UserCode: usr.UserCode}} {
			got, err := repo.GetUser(ctx, filter)
			require.NoError(t, err)
			assert.Equal(t, usr.ID, got.ID)
		}
		_, err := repo.GetUser(ctx, user.GetFilter{Email: "nobody@test.mx"})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("filter", func(t *testing.T) {
		got, err := repo.FilterUsers(ctx, user.QueryFilter{Search: "BETO"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, other.ID, got[0].ID)

		got, err = repo.FilterUsers(ctx, user.QueryFilter{Roles: []user.Role{user.RoleStudent}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, usr.ID, got[0].ID)
	})

	t.Run("birthdays", func(t *testing.T) {
		got, err := repo.BirthdaysOn(ctx, time.March, 9)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, usr.ID, got[0].ID)
	})

	t.Run("soft delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteUser(ctx, other.ID, time.Now()))
		_, err := repo.GetUser(ctx, user.GetFilter{ID: other.ID})
		assert.Equal(t, user.ErrNotFound, err)

		// the email is free again, the user code is not
		again := other
		again.UserCode = "other-code-2"
		created, err := repo.CreateUser(ctx, again)
		require.NoError(t, err)
		got, err := repo.GetUser(ctx, user.GetFilter{Email: other.Email})
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)

		again.Email = "beto2@test.mx"
		again.UserCode = other.UserCode
		_, err = repo.CreateUser(ctx, again)
		assert.Equal(t, user.ErrUserCodeExists, err)
	})
}

func TestLevelRepository_concurrentAssign(t *testing.T) {
	ctx := context.Background()
	usr := testutil.CreateUser(t, prepare(t), "Ana", "ana@test.mx")
	svc := level.NewService(NewLevelRepository(testDB))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.Assign(ctx, usr.ID, 1); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	held, err := NewLevelRepository(testDB).UserLevels(ctx, usr.ID)
	require.NoError(t, err)
	assert.Len(t, held, 1)

	err = NewLevelRepository(testDB).WithUserLock(ctx, usr.ID+100, func(level.Repository) error { return nil })
	assert.Equal(t, user.ErrNotFound, err)
}

func TestAttendanceRepository_insertOncePerDay(t *testing.T) {
	ctx := context.Background()
	usr := testutil.CreateUser(t, prepare(t), "Ana", "ana@test.mx")
	repo := NewAttendanceRepository(testDB)

	day := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	att := attendance.Attendance{UserID: usr.ID, Date: core.NewDate(day), Status: attendance.StatusPresent, CreatedAt: now, UpdatedAt: now}

	inserted, err := repo.Insert(ctx, att)
	require.NoError(t, err)
	assert.True(t, inserted)

	att.Status = attendance.StatusAbsent
	inserted, err = repo.Insert(ctx, att)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := repo.GetOn(ctx, usr.ID, day)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, got.Status)

	rows, err := repo.Between(ctx, usr.ID, day, day.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestContentRepository_slugCollision(t *testing.T) {
	ctx := context.Background()
	prepare(t)
	repo := NewContentRepository(testDB)

	now := time.Now().UTC()
	c := content.Content{Type: content.TypeNotice, Title: "Cierre", Body: "Sin clases", Active: true, CreatedAt: now, UpdatedAt: now}

	first, err := repo.CreateContent(ctx, c, "cierre")
	require.NoError(t, err)
	assert.Equal(t, "cierre", first.Slug)

	second, err := repo.CreateContent(ctx, c, "cierre")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("cierre-%d", second.ID), second.Slug)

	got, err := repo.GetContent(ctx, second.Slug)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	require.NoError(t, repo.DeleteContent(ctx, first.ID))
	_, err = repo.GetContent(ctx, "cierre")
	assert.Equal(t, content.ErrNotFound, err)
}

func TestContentRepository_concurrentSlugs(t *testing.T) {
	ctx := context.Background()
	prepare(t)
	repo := NewContentRepository(testDB)

	now := time.Now().UTC()
	c := content.Content{Type: content.TypeEvent, Title: "Torneo", Body: "Sábado", Active: true, CreatedAt: now, UpdatedAt: now}

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created []content.Content
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := repo.CreateContent(ctx, c, "torneo")
			if assert.NoError(t, err) {
				mu.Lock()
				created = append(created, got)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Len(t, created, workers)

	slugs := make(map[string]bool)
	var plain int
	for _, got := range created {
		assert.False(t, slugs[got.Slug], "duplicated slug %s", got.Slug)
		slugs[got.Slug] = true
		if got.Slug == "torneo" {
			plain++
		} else {
			assert.Equal(t, fmt.Sprintf("torneo-%d", got.ID), got.Slug)
		}
	}
	assert.Equal(t, 1, plain)
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	prepare(t)
	repo := NewSessionRepository(testDB)
	now := time.Now().UTC()

	require.NoError(t, repo.RevokeToken(ctx, "live", now.Add(time.Hour)))
	require.NoError(t, repo.RevokeToken(ctx, "stale", now.Add(-time.Hour)))

	revoked, err := repo.IsTokenRevoked(ctx, "live", now)
	require.NoError(t, err)
	assert.True(t, revoked)

	n, err := repo.PurgeRevokedTokens(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	revoked, err = repo.IsTokenRevoked(ctx, "stale", now)
	require.NoError(t, err)
	assert.False(t, revoked)
}
