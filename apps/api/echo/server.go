package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/attendance"
	"github.com/trezcool/swimschool/core/chat"
	"github.com/trezcool/swimschool/core/content"
	"github.com/trezcool/swimschool/core/level"
	"github.com/trezcool/swimschool/core/passwordreset"
	"github.com/trezcool/swimschool/core/profile"
	"github.com/trezcool/swimschool/core/schedule"
	"github.com/trezcool/swimschool/core/session"
	"github.com/trezcool/swimschool/core/user"
	"github.com/trezcool/swimschool/services/metrics"
	"github.com/trezcool/swimschool/services/notify"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool

		UserSvc       *user.Service
		SessionSvc    *session.Service
		LevelSvc      *level.Service
		ScheduleSvc   *schedule.Service
		AttendanceSvc *attendance.Service
		ResetSvc      *passwordreset.Service
		ContentSvc    *content.Service
		ProfileSvc    *profile.Service
		ChatSvc       *chat.Service
		Storage       core.FileStorage
		Broadcaster   *notify.Broadcaster
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		auth     *authenticator
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		auth:     newAuthenticator(deps.Conf, deps.UserSvc, deps.SessionSvc),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug && !conf.TestMode
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(metrics.Middleware())

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	authed := v1.Group("", s.auth.middleware()...)

	registerUserAPI(v1, authed, s.deps, s.auth)
	registerInfoAPI(authed, s.deps)
	registerLevelAPI(authed, s.deps)
	registerScheduleAPI(authed, s.deps)
	registerAttendanceAPI(authed, s.deps)
	registerPasswordAPI(v1, s.deps)
	registerContentAPI(authed, s.deps)
	registerProfileAPI(authed, s.deps)
	registerChatAPI(authed, s.deps)
	registerFileAPI(authed, s.deps)
}

// Start blocks while serving. Failures are sent to Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
