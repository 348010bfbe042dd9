package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core/level"
)

type levelApi struct {
	svc      *level.Service
	validate *validator.Validate
}

func registerLevelAPI(authed *echo.Group, deps ServerDeps) {
	api := levelApi{svc: deps.LevelSvc, validate: deps.Validate}

	lg := authed.Group("/swimming-levels")
	lg.GET("", api.query)
	lg.GET("/by-user", api.progress)
	lg.GET("/by-user/:id", api.userProgress, staffOnly)
	lg.POST("/assign-to-user", api.assign, staffOnly)
}

func (api *levelApi) query(ctx echo.Context) error {
	levels, err := api.svc.Levels(ctx.Request().Context())
	if err != nil {
		return err
	}
	return respondData(ctx, http.StatusOK, levels)
}

func (api *levelApi) progress(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return api.respondProgress(ctx, usr.ID)
}

func (api *levelApi) userProgress(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	return api.respondProgress(ctx, id)
}

func (api *levelApi) respondProgress(ctx echo.Context, userID int) error {
	prog, err := api.svc.Progress(ctx.Request().Context(), userID)
	if err != nil {
		return err
	}
	return respondData(ctx, http.StatusOK, prog)
}

func (api *levelApi) assign(ctx echo.Context) error {
	var data level.Assignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Assignment")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	if err := api.svc.Assign(ctx.Request().Context(), data.UserID, data.LevelID); err != nil {
		return errors.Wrap(err, "assigning level")
	}
	return respond(ctx, http.StatusCreated, "swimming level assigned", data)
}
