package content_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/swimschool/core/content"
	"github.com/trezcool/swimschool/core/user"
	logsvc "github.com/trezcool/swimschool/services/logger"
	inmemdb "github.com/trezcool/swimschool/storage/database/inmem"
)

type fakeNotifier struct {
	mu       sync.Mutex
	notified []content.Content
}

func (n *fakeNotifier) Notify(_ context.Context, c content.Content) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notified = append(n.notified, c)
}

type fakeStorage struct {
	deleted []string
}

func (s *fakeStorage) Store(context.Context, string, io.Reader) (string, error) {
	return "", nil
}

func (s *fakeStorage) Delete(_ context.Context, path string) (bool, error) {
	s.deleted = append(s.deleted, path)
	return true, nil
}

func setup() (*content.Service, *fakeNotifier, *fakeStorage) {
	notifier := &fakeNotifier{}
	storage := &fakeStorage{}
	svc := content.NewService(inmemdb.NewContentRepository(inmemdb.Open()), storage, notifier, logsvc.NewNopLogger())
	return svc, notifier, storage
}

func boolPtr(b bool) *bool { return &b }

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc, notifier, _ := setup()

	_, err := svc.Create(ctx, content.Type(9), content.NewContent{Title: "Lol", Body: "Lol", Active: boolPtr(true)})
	assert.Equal(t, content.ErrInvalidType, err)

	active, err := svc.Create(ctx, content.TypeNotice, content.NewContent{Title: "Cierre de alberca", Body: "Mantenimiento", Active: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, "cierre-de-alberca", active.Slug)
	assert.Equal(t, content.DefaultCover, active.CoverImage)

	inactive, err := svc.Create(ctx, content.TypeNotice, content.NewContent{Title: "Cierre de Alberca!", Body: "Otra vez", Active: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("cierre-de-alberca-%d", inactive.ID), inactive.Slug)

	// only active contents are announced, once
	_, err = svc.SetStatus(ctx, inactive.Slug, true)
	require.NoError(t, err)
	_, err = svc.Update(ctx, content.TypeNotice, active.Slug, content.NewContent{Title: "Cierre", Body: "Editado", Active: boolPtr(true)})
	require.NoError(t, err)
	require.Len(t, notifier.notified, 1)
	assert.Equal(t, active.ID, notifier.notified[0].ID)
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setup()
	admin := user.User{ID: 1, Role: user.RoleAdmin}
	student := user.User{ID: 2, Role: user.RoleStudent}

	_, err := svc.List(ctx, admin, content.TypeTip)
	assert.Equal(t, content.ErrNoContents, err)

	_, err = svc.Create(ctx, content.TypeTip, content.NewContent{Title: "Respira", Body: "Cada 3 brazadas", Active: boolPtr(false)})
	require.NoError(t, err)

	got, err := svc.List(ctx, admin, content.TypeTip)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.List(ctx, student, content.TypeTip)
	assert.Equal(t, content.ErrNoContents, err)

	latest, err := svc.Latest(ctx, content.TypeTip)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, _, storage := setup()

	c, err := svc.Create(ctx, content.TypeEvent, content.NewContent{
		Title: "Campeonato", Body: "Estatal", CoverImage: "uploads/a.png", Location: "Alberca olímpica", Active: boolPtr(true),
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, content.TypeNotice, c.Slug, content.NewContent{Title: "Campeonato", Body: "Estatal", Active: boolPtr(true)})
	assert.Equal(t, content.ErrInvalidType, err)

	c, err = svc.Update(ctx, content.TypeEvent, c.Slug, content.NewContent{
		Title: "Campeonato", Body: "Nacional", CoverImage: "uploads/b.png", Location: "Alberca olímpica", Active: boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "Nacional", c.Body)
	assert.Equal(t, []string{"uploads/a.png"}, storage.deleted)

	require.NoError(t, svc.Delete(ctx, c.Slug))
	assert.Equal(t, []string{"uploads/a.png", "uploads/b.png"}, storage.deleted)
	_, err = svc.Get(ctx, c.Slug)
	assert.Equal(t, content.ErrNotFound, err)
	assert.Equal(t, content.ErrNotFound, svc.Delete(ctx, c.Slug))
}
