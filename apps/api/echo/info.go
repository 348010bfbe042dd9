package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/content"
	"github.com/trezcool/swimschool/core/user"
)

type (
	infoApi struct {
		users    *user.Service
		contents *content.Service
	}

	Birthday struct {
		user.User
		Age int `json:"age"`
	}

	// Info is the home screen of the current user.
	Info struct {
		User         user.User        `json:"user"`
		Age          int              `json:"age"`
		IsBirthday   bool             `json:"is_birthday"`
		Birthdays    []Birthday       `json:"birthdays"`
		LatestNotice *content.Content `json:"latest_notice"`
		LatestEvent  *content.Content `json:"latest_event"`
	}
)

func registerInfoAPI(authed *echo.Group, deps ServerDeps) {
	api := infoApi{users: deps.UserSvc, contents: deps.ContentSvc}
	authed.GET("/info", api.retrieve)
}

func (api *infoApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	now := core.Now()

	bdays, err := api.users.BirthdaysToday(reqCtx)
	if err != nil {
		return errors.Wrap(err, "listing birthdays")
	}
	info := Info{
		User:       usr,
		Age:        usr.Age(now),
		IsBirthday: usr.IsBirthday(now),
		Birthdays:  make([]Birthday, 0, len(bdays)),
	}
	for _, b := range bdays {
		info.Birthdays = append(info.Birthdays, Birthday{User: b, Age: b.Age(now)})
	}

	if info.LatestNotice, err = api.contents.Latest(reqCtx, content.TypeNotice); err != nil {
		return errors.Wrap(err, "getting latest notice")
	}
	if info.LatestEvent, err = api.contents.Latest(reqCtx, content.TypeEvent); err != nil {
		return errors.Wrap(err, "getting latest event")
	}
	return respondData(ctx, http.StatusOK, info)
}
