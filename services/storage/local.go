// Package storagesvc keeps uploaded files on the local disk.
package storagesvc

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
)

const uploadsDir = "uploads"

var ErrInvalidPath = errors.New("invalid file path")

type LocalStorage struct {
	root string
	now  func() time.Time
}

var _ core.FileStorage = (*LocalStorage)(nil)

// NewLocalStorage stores files below root. Paths are partitioned by the day of upload in loc.
func NewLocalStorage(root string, loc *time.Location) *LocalStorage {
	if loc == nil {
		loc = time.UTC
	}
	return &LocalStorage{
		root: root,
		now:  func() time.Time { return core.NowFunc().In(loc) },
	}
}

// Store saves r as uploads/YYYY/MM/D/<uuid><ext>.
func (s *LocalStorage) Store(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	now := s.now()
	ext := strings.ToLower(path.Ext(filepath.Base(name)))
	rel := path.Join(uploadsDir, fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())),
		fmt.Sprintf("%d", now.Day()), uuid.NewString()+ext)

	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", errors.Wrap(err, "creating upload directory")
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "creating upload file")
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", errors.Wrap(err, "writing upload file")
	}
	if err = f.Close(); err != nil {
		return "", errors.Wrap(err, "closing upload file")
	}
	return rel, nil
}

// Delete removes the file at the relative path p. Paths escaping the uploads directory are rejected.
func (s *LocalStorage) Delete(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	clean := path.Clean("/" + strings.TrimSpace(p))[1:]
	if clean == "" || !strings.HasPrefix(clean, uploadsDir+"/") {
		return false, ErrInvalidPath
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(clean)))
	switch {
	case os.IsNotExist(err):
		return false, nil
	case err != nil:
		return false, errors.Wrap(err, "deleting file")
	}
	return true, nil
}
