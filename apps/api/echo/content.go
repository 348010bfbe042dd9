package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core/content"
	"github.com/trezcool/swimschool/services/notify"
)

type (
	contentApi struct {
		svc         *content.Service
		broadcaster *notify.Broadcaster
		validate    *validator.Validate
	}

	ContentFilter struct {
		Type content.Type `query:"type"`
	}

	// StatusResponse is a content after a status change.
	StatusResponse struct {
		Content     content.Content `json:"content"`
		StatusLabel string          `json:"status_label"`
	}
)

// contentPaths maps the typed collections to their content type.
var contentPaths = map[string]content.Type{
	"/notices": content.TypeNotice,
	"/events":  content.TypeEvent,
	"/tips":    content.TypeTip,
}

func registerContentAPI(authed *echo.Group, deps ServerDeps) {
	api := contentApi{svc: deps.ContentSvc, broadcaster: deps.Broadcaster, validate: deps.Validate}

	cg := authed.Group("/contents")
	cg.GET("", api.query)
	cg.GET("/:slug/detail", api.retrieve)
	for path, typ := range contentPaths {
		cg.POST(path, api.create(typ), adminOnly)
		cg.PUT(path+"/:slug", api.update(typ), adminOnly)
	}
	cg.PATCH("/:slug/status", api.setStatus, adminOnly)
	cg.DELETE("/:slug", api.destroy, adminOnly)

	authed.GET("/notifications/stream", api.stream)
}

func (api *contentApi) query(ctx echo.Context) error {
	var filter ContentFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to ContentFilter")
	}
	if filter.Type != 0 && !filter.Type.IsValid() {
		return content.ErrInvalidType
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	contents, err := api.svc.List(ctx.Request().Context(), usr, filter.Type)
	if err != nil {
		return err
	}
	return respondData(ctx, http.StatusOK, contents)
}

func (api *contentApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.Get(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		return err
	}
	return respondData(ctx, http.StatusOK, c)
}

func (api *contentApi) bindContent(ctx echo.Context, typ content.Type) (content.NewContent, error) {
	var data content.NewContent
	if err := ctx.Bind(&data); err != nil {
		return data, errors.Wrap(err, "binding to NewContent")
	}
	return data, data.Validate(api.validate, typ)
}

func (api *contentApi) create(typ content.Type) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		data, err := api.bindContent(ctx, typ)
		if err != nil {
			return err
		}
		c, err := api.svc.Create(ctx.Request().Context(), typ, data)
		if err != nil {
			return errors.Wrap(err, "creating content")
		}
		return respond(ctx, http.StatusCreated, typ.String()+" created", c)
	}
}

func (api *contentApi) update(typ content.Type) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		data, err := api.bindContent(ctx, typ)
		if err != nil {
			return err
		}
		c, err := api.svc.Update(ctx.Request().Context(), typ, ctx.Param("slug"), data)
		if err != nil {
			return errors.Wrap(err, "updating content")
		}
		return respond(ctx, http.StatusOK, typ.String()+" updated", c)
	}
}

func (api *contentApi) setStatus(ctx echo.Context) error {
	var data content.StatusChange
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusChange")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	c, err := api.svc.SetStatus(ctx.Request().Context(), ctx.Param("slug"), *data.Active)
	if err != nil {
		return errors.Wrap(err, "changing content status")
	}
	return respondData(ctx, http.StatusOK, StatusResponse{Content: c, StatusLabel: c.StatusLabel()})
}

func (api *contentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("slug")); err != nil {
		return errors.Wrap(err, "deleting content")
	}
	return respond(ctx, http.StatusOK, "content deleted", nil)
}

// stream pushes every new content to the client as Server-Sent Events until it disconnects.
func (api *contentApi) stream(ctx echo.Context) error {
	events, release := api.broadcaster.Subscribe()
	defer release()

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	done := ctx.Request().Context().Done()
	for {
		select {
		case <-done:
			return nil
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			data, err := json.Marshal(evt)
			if err != nil {
				return errors.Wrap(err, "encoding event")
			}
			if _, err = fmt.Fprintf(res, "event: %s\ndata: %s\n\n", evt.Name, data); err != nil {
				return nil // client went away
			}
			res.Flush()
		}
	}
}
