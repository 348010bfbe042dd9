package echoapi

import (
	"github.com/labstack/echo/v4"
)

// Response is the envelope of every successful JSON response.
type Response struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respond(ctx echo.Context, code int, msg string, data interface{}) error {
	return ctx.JSON(code, Response{Message: msg, Data: data})
}

func respondData(ctx echo.Context, code int, data interface{}) error {
	return respond(ctx, code, "", data)
}
