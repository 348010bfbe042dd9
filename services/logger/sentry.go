package logsvc

import (
	"errors"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap/zapcore"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/user"
)

const sentryFlushTimeout = 2 * time.Second

type SentryReporter struct {
	hub *sentry.Hub
}

var _ Reporter = (*SentryReporter)(nil)

// NewSentryReporter returns nil when no DSN is configured.
func NewSentryReporter(conf *core.Config) (*SentryReporter, error) {
	if conf.SentryDSN == "" {
		return nil, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         conf.SentryDSN,
		Environment: conf.Env,
		Release:     conf.Build,
		ServerName:  conf.Server.Host,
	})
	if err != nil {
		return nil, err
	}
	return &SentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

func (r *SentryReporter) Report(level zapcore.Level, msg string, err error, usr *user.User, extras map[string]interface{}) {
	r.hub.WithScope(func(scope *sentry.Scope) {
		if level >= zapcore.FatalLevel {
			scope.SetLevel(sentry.LevelFatal)
		}
		if usr != nil {
			scope.SetUser(sentry.User{ID: fmtID(usr.ID), Email: usr.Email, Name: usr.FullName()})
		}
		for k, v := range extras {
			scope.SetExtra(k, v)
		}
		scope.SetExtra("message", msg)
		if err == nil {
			err = errors.New(msg)
		}
		r.hub.CaptureException(err)
	})
}

func (r *SentryReporter) Flush() {
	r.hub.Flush(sentryFlushTimeout)
}

func fmtID(id int) string {
	return strconv.Itoa(id)
}
