package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core/passwordreset"
	"github.com/trezcool/swimschool/core/user"
)

type (
	passwordApi struct {
		svc      *passwordreset.Service
		validate *validator.Validate
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}
)

func registerPasswordAPI(public *echo.Group, deps ServerDeps) {
	api := passwordApi{svc: deps.ResetSvc, validate: deps.Validate}

	// TODO: rate limit `/token` once the API sits behind a shared cache
	pg := public.Group("/password")
	pg.POST("/token", api.requestToken)
	pg.GET("/token/:token", api.validateToken)
	pg.POST("/change", api.change)
}

func (api *passwordApi) requestToken(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	if err := api.svc.Generate(ctx.Request().Context(), data.Email); err != nil {
		return errors.Wrap(err, "generating password reset token")
	}
	return respond(ctx, http.StatusCreated, "we sent you an email with the instructions to reset your password", nil)
}

func (api *passwordApi) validateToken(ctx echo.Context) error {
	v, err := api.svc.Validate(ctx.Request().Context(), ctx.Param("token"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *passwordApi) change(ctx echo.Context) error {
	var data user.NewPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if _, err := api.svc.ChangePassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "changing password")
	}
	return respond(ctx, http.StatusOK, "password has been changed", nil)
}
