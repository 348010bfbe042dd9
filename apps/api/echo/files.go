package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
)

type (
	fileApi struct {
		storage  core.FileStorage
		validate *validator.Validate
	}

	FileDeletion struct {
		Path string `json:"file_path" validate:"required"`
	}

	StoredFile struct {
		Path string `json:"path"`
	}
)

func registerFileAPI(authed *echo.Group, deps ServerDeps) {
	api := fileApi{storage: deps.Storage, validate: deps.Validate}

	fg := authed.Group("/files", adminOnly)
	fg.POST("", api.upload)
	fg.DELETE("", api.destroy)
}

func (api *fileApi) upload(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewFieldError("file", errors.New("this field is required"))
	}
	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer src.Close()

	path, err := api.storage.Store(ctx.Request().Context(), fh.Filename, src)
	if err != nil {
		return errors.Wrap(err, "storing file")
	}
	return respond(ctx, http.StatusCreated, "file uploaded", StoredFile{Path: path})
}

func (api *fileApi) destroy(ctx echo.Context) error {
	var data FileDeletion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FileDeletion")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	deleted, err := api.storage.Delete(ctx.Request().Context(), data.Path)
	if err != nil {
		return errors.Wrap(err, "deleting file")
	}
	if !deleted {
		return errFileNotFound
	}
	return respond(ctx, http.StatusOK, "file deleted", nil)
}
