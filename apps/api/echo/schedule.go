package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core/schedule"
)

type scheduleApi struct {
	svc      *schedule.Service
	validate *validator.Validate
}

func registerScheduleAPI(authed *echo.Group, deps ServerDeps) {
	api := scheduleApi{svc: deps.ScheduleSvc, validate: deps.Validate}

	sg := authed.Group("/schedules")
	sg.GET("/:user_id", api.query)
	sg.POST("", api.assign, staffOnly)
}

func (api *scheduleApi) query(ctx echo.Context) error {
	userID, err := intParam(ctx, "user_id")
	if err != nil {
		return err
	}
	scheds, err := api.svc.ForUser(ctx.Request().Context(), userID)
	if err != nil {
		return err
	}
	return respondData(ctx, http.StatusOK, scheds)
}

func (api *scheduleApi) assign(ctx echo.Context) error {
	var data schedule.NewSchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchedule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	scheds, err := api.svc.Assign(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "assigning schedules")
	}
	return respond(ctx, http.StatusCreated, "schedule assigned", scheds)
}
