package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core/attendance"
	"github.com/trezcool/swimschool/core/user"
)

type (
	attendanceApi struct {
		svc      *attendance.Service
		validate *validator.Validate
	}

	// History is a user along with their attendances of a month.
	History struct {
		User        user.User          `json:"user"`
		Attendances []attendance.Entry `json:"attendances"`
	}
)

func registerAttendanceAPI(authed *echo.Group, deps ServerDeps) {
	api := attendanceApi{svc: deps.AttendanceSvc, validate: deps.Validate}

	ag := authed.Group("/attendances")
	ag.GET("/user", api.currentMonth)
	ag.POST("/user", api.checkIn, staffOnly)
	ag.GET("/history", api.history, staffOnly)
	ag.GET("/report", api.report, staffOnly)
}

func (api *attendanceApi) currentMonth(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	entries, err := api.svc.CurrentMonth(ctx.Request().Context(), usr.ID)
	if err != nil {
		return err
	}
	return respondData(ctx, http.StatusOK, entries)
}

func (api *attendanceApi) checkIn(ctx echo.Context) error {
	var data attendance.CheckIn
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckIn")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	att, usr, err := api.svc.CheckIn(ctx.Request().Context(), data.UserID)
	if err != nil {
		return errors.Wrap(err, "checking in")
	}
	return respond(ctx, http.StatusCreated, "attendance recorded for "+usr.FullName(), attendance.NewEntry(att))
}

func (api *attendanceApi) bindMonthQuery(ctx echo.Context) (attendance.MonthQuery, error) {
	var q attendance.MonthQuery
	if err := ctx.Bind(&q); err != nil {
		return q, errors.Wrap(err, "binding to MonthQuery")
	}
	return q, api.validate.Struct(q)
}

func (api *attendanceApi) history(ctx echo.Context) error {
	q, err := api.bindMonthQuery(ctx)
	if err != nil {
		return err
	}
	usr, entries, err := api.svc.History(ctx.Request().Context(), q)
	if err != nil {
		return err
	}
	return respondData(ctx, http.StatusOK, History{User: usr, Attendances: entries})
}

func (api *attendanceApi) report(ctx echo.Context) error {
	q, err := api.bindMonthQuery(ctx)
	if err != nil {
		return err
	}
	rep, err := api.svc.Report(ctx.Request().Context(), q)
	if err != nil {
		return err
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", rep.Filename))
	return ctx.Stream(http.StatusOK, rep.ContentType, bytes.NewReader(rep.Content))
}
