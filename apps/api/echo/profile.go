package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core/profile"
)

type profileApi struct {
	svc      *profile.Service
	validate *validator.Validate
}

func registerProfileAPI(authed *echo.Group, deps ServerDeps) {
	api := profileApi{svc: deps.ProfileSvc, validate: deps.Validate}

	pg := authed.Group("/profiles")
	pg.GET("/:user_id", api.retrieve)
	pg.POST("", api.create)
	pg.PUT("/:id", api.update)
}

func (api *profileApi) retrieve(ctx echo.Context) error {
	userID, err := intParam(ctx, "user_id")
	if err != nil {
		return err
	}
	viewer, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	info, err := api.svc.Info(ctx.Request().Context(), viewer, userID)
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	return respondData(ctx, http.StatusOK, info)
}

func (api *profileApi) create(ctx echo.Context) error {
	var data profile.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	actor, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	entry, err := api.svc.Assign(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "adding profile entry")
	}
	return respond(ctx, http.StatusCreated, "profile updated", entry)
}

func (api *profileApi) update(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	var data profile.UpdateEntry
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEntry")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	actor, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	entry, err := api.svc.Update(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return errors.Wrap(err, "updating profile entry")
	}
	return respond(ctx, http.StatusOK, "profile updated", entry)
}
