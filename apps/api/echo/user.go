package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/swimschool/core/level"
	"github.com/trezcool/swimschool/core/schedule"
	"github.com/trezcool/swimschool/core/user"
)

type (
	userApi struct {
		svc       *user.Service
		levels    *level.Service
		schedules *schedule.Service
		auth      *authenticator
		validate  *validator.Validate
	}

	// UserDetail is a user along with their swimming progress and weekly classes.
	UserDetail struct {
		User         user.User           `json:"user"`
		Levels       []level.UserLevel   `json:"swimming_levels"`
		CurrentLevel *level.Level        `json:"current_level"`
		Schedules    []schedule.Schedule `json:"schedules"`
	}
)

func registerUserAPI(public, authed *echo.Group, deps ServerDeps, auth *authenticator) {
	api := userApi{
		svc:       deps.UserSvc,
		levels:    deps.LevelSvc,
		schedules: deps.ScheduleSvc,
		auth:      auth,
		validate:  deps.Validate,
	}

	// un-authed endpoints
	public.POST("/login", api.login)
	public.GET("/users/verify/:token", api.verify)

	// authed endpoints
	ag := authed.Group("/auth")
	ag.GET("/user", api.me)
	ag.POST("/logout", api.logout)
	ag.POST("/refresh", api.refreshToken)

	ug := authed.Group("/users")
	ug.GET("", api.query, adminOnly)
	ug.POST("", api.create, adminOnly)
	ug.GET("/search/:email", api.searchByEmail, adminOnly)
	ug.GET("/:id", api.retrieve)
	ug.DELETE("/:id", api.destroy, adminOnly)
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	// the email field also accepts a user code
	isEmail := api.validate.Var(data.Email, "email") == nil
	token, err := api.auth.login(ctx, data.Email, data.Password, isEmail)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "success", newTokenResponse(token))
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return respondData(ctx, http.StatusOK, usr)
}

func (api *userApi) logout(ctx echo.Context) error {
	if err := api.auth.logout(ctx); err != nil {
		return errors.Wrap(err, "revoking token")
	}
	return respond(ctx, http.StatusOK, "successfully logged out", nil)
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refresh(ctx)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "success", newTokenResponse(token))
}

func (api *userApi) verify(ctx echo.Context) error {
	if _, err := api.svc.Verify(ctx.Request().Context(), ctx.Param("token")); err != nil {
		return errors.Wrap(err, "verifying user")
	}
	return respond(ctx, http.StatusOK, "account verified", nil)
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return respondData(ctx, http.StatusOK, []user.User{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	users, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return respondData(ctx, http.StatusOK, users)
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	created, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return respond(ctx, http.StatusCreated, "user created, the access details were sent by email", created.User)
}

func (api *userApi) searchByEmail(ctx echo.Context) error {
	usr, err := api.svc.GetByEmail(ctx.Request().Context(), ctx.Param("email"))
	if err != nil {
		return errors.Wrap(err, "finding user by email")
	}
	return respondData(ctx, http.StatusOK, usr)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if !ctxUsr.IsStaff() && ctxUsr.ID != id {
		return errHttpForbidden
	}

	reqCtx := ctx.Request().Context()
	usr, err := api.svc.GetByID(reqCtx, id)
	if err != nil {
		return errors.Wrap(err, "finding user")
	}
	held, current, err := api.levels.Held(reqCtx, id)
	if err != nil {
		return err
	}
	scheds, err := api.schedules.ForUser(reqCtx, id)
	if err != nil && errors.Cause(err) != schedule.ErrNoSchedules {
		return err
	}

	if held == nil {
		held = []level.UserLevel{}
	}
	if scheds == nil {
		scheds = []schedule.Schedule{}
	}
	return respondData(ctx, http.StatusOK, UserDetail{User: usr, Levels: held, CurrentLevel: current, Schedules: scheds})
}

func (api *userApi) destroy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), ctxUsr, id); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return respond(ctx, http.StatusOK, "user deleted", nil)
}
