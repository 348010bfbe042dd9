package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/swimschool/core/content"
)

type contentRepository struct {
	db *DB
}

var _ content.Repository = (*contentRepository)(nil) // interface compliance check

func NewContentRepository(db *DB) *contentRepository {
	return &contentRepository{db: db}
}

func (repo *contentRepository) slugTaken(slug string, exclID int) bool {
	for id, c := range repo.db.contents {
		if id != exclID && c.Slug == slug {
			return true
		}
	}
	return false
}

func (repo *contentRepository) CreateContent(_ context.Context, c content.Content, baseSlug string) (content.Content, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	c.ID = repo.db.nextID("contents")
	c.Slug = content.UniqueSlug(baseSlug, c.ID, repo.slugTaken(baseSlug, c.ID))
	repo.db.contents[c.ID] = &c
	return c, nil
}

func (repo *contentRepository) GetContent(_ context.Context, slug string) (content.Content, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, c := range repo.db.contents {
		if c.Slug == slug {
			return *c, nil
		}
	}
	return content.Content{}, content.ErrNotFound
}

func (repo *contentRepository) ListContents(_ context.Context, filter content.ListFilter) ([]content.Content, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	contents := make([]content.Content, 0)
	for _, c := range repo.db.contents {
		if filter.Type != 0 && c.Type != filter.Type {
			continue
		}
		if filter.ActiveOnly && !c.Active {
			continue
		}
		contents = append(contents, *c)
	}
	sort.Slice(contents, func(i, j int) bool { return contents[i].ID > contents[j].ID })
	return contents, nil
}

func (repo *contentRepository) UpdateContent(_ context.Context, c content.Content) (content.Content, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.contents[c.ID]; !ok {
		return content.Content{}, content.ErrNotFound
	}
	repo.db.contents[c.ID] = &c
	return c, nil
}

func (repo *contentRepository) DeleteContent(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	delete(repo.db.contents, id)
	return nil
}
