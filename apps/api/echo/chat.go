package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core/chat"
)

type chatApi struct {
	svc      *chat.Service
	validate *validator.Validate
}

func registerChatAPI(authed *echo.Group, deps ServerDeps) {
	api := chatApi{svc: deps.ChatSvc, validate: deps.Validate}

	cg := authed.Group("/ia/chat")
	cg.POST("", api.ask)
	cg.GET("/history", api.history)
}

func (api *chatApi) ask(ctx echo.Context) error {
	var data chat.Question
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Question")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	answer, err := api.svc.Ask(ctx.Request().Context(), usr, data)
	if err != nil {
		return err
	}
	return respondData(ctx, http.StatusCreated, answer)
}

func (api *chatApi) history(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	msgs, err := api.svc.History(ctx.Request().Context(), usr.ID)
	if err != nil {
		return err
	}
	return respondData(ctx, http.StatusOK, msgs)
}
