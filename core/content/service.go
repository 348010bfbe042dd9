package content

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/user"
)

var (
	// errors
	ErrNotFound     = errors.New("content not found")
	ErrNoContents   = errors.New("no contents found")
	ErrInvalidType  = errors.New("invalid content type")
	errInvalidEvent = errors.New("invalid event")
)

type (
	Repository interface {
		// CreateContent inserts c and sets its slug to UniqueSlug(baseSlug, id, taken) in the same transaction.
		CreateContent(ctx context.Context, c Content, baseSlug string) (Content, error)
		// GetContent fails with ErrNotFound.
		GetContent(ctx context.Context, slug string) (Content, error)
		// ListContents returns the newest first.
		ListContents(ctx context.Context, filter ListFilter) ([]Content, error)
		UpdateContent(ctx context.Context, c Content) (Content, error)
		DeleteContent(ctx context.Context, id int) error
	}

	// Notifier is told about every content published on creation.
	Notifier interface {
		Notify(ctx context.Context, c Content)
	}

	Service struct {
		repo     Repository
		storage  core.FileStorage
		notifier Notifier
		logger   core.Logger
	}
)

func NewService(repo Repository, storage core.FileStorage, notifier Notifier, logger core.Logger) *Service {
	return &Service{repo: repo, storage: storage, notifier: notifier, logger: logger}
}

// Create stores a content of type typ. Active contents are announced exactly once.
func (svc *Service) Create(ctx context.Context, typ Type, nc NewContent) (Content, error) {
	if !typ.IsValid() {
		return Content{}, ErrInvalidType
	}
	now := core.NowFunc().UTC()
	c := Content{
		Type:       typ,
		Title:      nc.Title,
		Body:       nc.Body,
		CoverImage: nc.CoverImage,
		Location:   nc.Location,
		StartDate:  nc.StartDate,
		EndDate:    nc.EndDate,
		Active:     nc.Active != nil && *nc.Active,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if c.CoverImage == "" {
		c.CoverImage = DefaultCover
	}

	c, err := svc.repo.CreateContent(ctx, c, Slugify(c.Title))
	if err != nil {
		return Content{}, pkgerrors.Wrap(err, "creating content")
	}
	if c.Active {
		svc.notifier.Notify(ctx, c)
	}
	return c, nil
}

func (svc *Service) Get(ctx context.Context, slug string) (Content, error) {
	return svc.repo.GetContent(ctx, core.CleanString(slug))
}

// List returns every content to admins and the active ones to everybody else.
func (svc *Service) List(ctx context.Context, viewer user.User, typ Type) ([]Content, error) {
	contents, err := svc.repo.ListContents(ctx, ListFilter{Type: typ, ActiveOnly: !viewer.IsAdmin()})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "listing contents")
	}
	if len(contents) == 0 {
		return nil, ErrNoContents
	}
	return contents, nil
}

// Latest returns the newest active content of type typ, nil when there is none.
func (svc *Service) Latest(ctx context.Context, typ Type) (*Content, error) {
	contents, err := svc.repo.ListContents(ctx, ListFilter{Type: typ, ActiveOnly: true})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "listing contents")
	}
	if len(contents) == 0 {
		return nil, nil
	}
	return &contents[0], nil
}

// Update overwrites the content identified by slug, which must be of type typ.
// A replaced cover image is removed from the storage.
func (svc *Service) Update(ctx context.Context, typ Type, slug string, nc NewContent) (Content, error) {
	c, err := svc.Get(ctx, slug)
	if err != nil {
		return Content{}, err
	}
	if c.Type != typ {
		return Content{}, ErrInvalidType
	}

	oldCover := c.CoverImage
	c.Title = nc.Title
	c.Body = nc.Body
	c.CoverImage = nc.CoverImage
	if c.CoverImage == "" {
		c.CoverImage = DefaultCover
	}
	c.Location = nc.Location
	c.StartDate = nc.StartDate
	c.EndDate = nc.EndDate
	c.Active = nc.Active != nil && *nc.Active
	c.UpdatedAt = core.NowFunc().UTC()

	if c, err = svc.repo.UpdateContent(ctx, c); err != nil {
		return Content{}, pkgerrors.Wrap(err, "updating content")
	}
	if oldCover != c.CoverImage {
		svc.deleteCover(ctx, oldCover)
	}
	return c, nil
}

func (svc *Service) SetStatus(ctx context.Context, slug string, active bool) (Content, error) {
	c, err := svc.Get(ctx, slug)
	if err != nil {
		return Content{}, err
	}
	c.Active = active
	c.UpdatedAt = core.NowFunc().UTC()
	if c, err = svc.repo.UpdateContent(ctx, c); err != nil {
		return Content{}, pkgerrors.Wrap(err, "updating content status")
	}
	return c, nil
}

// Delete removes the content and its cover image.
func (svc *Service) Delete(ctx context.Context, slug string) error {
	c, err := svc.Get(ctx, slug)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteContent(ctx, c.ID); err != nil {
		return pkgerrors.Wrap(err, "deleting content")
	}
	svc.deleteCover(ctx, c.CoverImage)
	return nil
}

// deleteCover is best effort: the row is already gone.
func (svc *Service) deleteCover(ctx context.Context, path string) {
	if path == "" || path == DefaultCover {
		return
	}
	if _, err := svc.storage.Delete(ctx, path); err != nil {
		svc.logger.Error(fmt.Sprintf("deleting cover image %s: %v", path, err), err)
	}
}
