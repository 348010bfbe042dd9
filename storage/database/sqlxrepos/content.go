package sqlxrepos

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/content"
)

const contentSlugKey = "contents_slug_key"

const contentColumns = `id, content_type_id, title, content, slug, cover_image, location, start_date, end_date, active,
	created_at, updated_at`

type contentRepository struct {
	db core.DB
}

var _ content.Repository = (*contentRepository)(nil) // interface compliance check

func NewContentRepository(db core.DB) *contentRepository {
	return &contentRepository{db: db}
}

// CreateContent inserts without a slug first: the fallback slug needs the row ID.
// Concurrent creations with the same base slug serialize on the slug's unique index.
func (repo *contentRepository) CreateContent(ctx context.Context, c content.Content, baseSlug string) (content.Content, error) {
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `INSERT INTO contents (content_type_id, title, content, slug, cover_image, location, start_date, end_date,
			active, created_at, updated_at)
			VALUES ($1, $2, $3, NULL, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
		err := tx.QueryRowxContext(ctx, q,
			c.Type, c.Title, c.Body, c.CoverImage, c.Location, c.StartDate, c.EndDate, c.Active,
			c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
		).Scan(&c.ID)
		if err != nil {
			return errors.Wrap(err, "inserting content")
		}

		c.Slug, err = claimSlug(ctx, tx, c.ID, baseSlug)
		return err
	})
	if err != nil {
		return content.Content{}, err
	}
	return c, nil
}

// claimSlug gives the content base as slug, or base-<id> when another content holds base.
// The first attempt runs under a savepoint so that a unique violation only aborts the attempt.
func claimSlug(ctx context.Context, tx *sqlx.Tx, id int, base string) (string, error) {
	setSlug := `UPDATE contents SET slug = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, `SAVEPOINT content_slug`); err != nil {
		return "", errors.Wrap(err, "creating slug savepoint")
	}

	_, err := tx.ExecContext(ctx, setSlug, id, base)
	if err == nil {
		_, err = tx.ExecContext(ctx, `RELEASE SAVEPOINT content_slug`)
		return base, errors.Wrap(err, "releasing slug savepoint")
	}
	if uniqueViolationOn(err) != contentSlugKey {
		return "", errors.Wrap(err, "setting slug")
	}

	if _, err = tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT content_slug`); err != nil {
		return "", errors.Wrap(err, "rolling back slug savepoint")
	}
	slug := content.UniqueSlug(base, id, true)
	if _, err = tx.ExecContext(ctx, setSlug, id, slug); err != nil {
		return "", errors.Wrap(err, "setting slug")
	}
	return slug, nil
}

func (repo *contentRepository) GetContent(ctx context.Context, slug string) (content.Content, error) {
	var c content.Content
	if err := repo.db.GetContext(ctx, &c, `SELECT `+contentColumns+` FROM contents WHERE slug = $1`, slug); err != nil {
		return content.Content{}, trapNoRowsErr(err, content.ErrNotFound, "getting content")
	}
	return c, nil
}

func (repo *contentRepository) ListContents(ctx context.Context, filter content.ListFilter) ([]content.Content, error) {
	conds := []string{"slug IS NOT NULL"}
	var args []interface{}
	if filter.Type != 0 {
		args = append(args, filter.Type)
		conds = append(conds, fmt.Sprintf("content_type_id = $%d", len(args)))
	}
	if filter.ActiveOnly {
		conds = append(conds, "active")
	}

	q := fmt.Sprintf(`SELECT %s FROM contents WHERE %s ORDER BY id DESC`, contentColumns, strings.Join(conds, " AND "))
	contents := make([]content.Content, 0)
	if err := repo.db.SelectContext(ctx, &contents, q, args...); err != nil {
		return nil, errors.Wrap(err, "listing contents")
	}
	return contents, nil
}

func (repo *contentRepository) UpdateContent(ctx context.Context, c content.Content) (content.Content, error) {
	q := `UPDATE contents SET title = :title, content = :content, cover_image = :cover_image, location = :location,
		start_date = :start_date, end_date = :end_date, active = :active, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, c)
	if err != nil {
		return content.Content{}, errors.Wrap(err, "updating content")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return content.Content{}, content.ErrNotFound
	}
	return c, nil
}

func (repo *contentRepository) DeleteContent(ctx context.Context, id int) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM contents WHERE id = $1`, id)
	return errors.Wrap(err, "deleting content")
}
