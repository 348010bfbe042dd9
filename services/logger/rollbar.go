package logsvc

import (
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap/zapcore"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/user"
)

type RollbarReporter struct{}

var _ Reporter = (*RollbarReporter)(nil)

// NewRollbarReporter returns nil when no token is configured.
func NewRollbarReporter(conf *core.Config) *RollbarReporter {
	if conf.RollbarToken == "" {
		return nil
	}
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(!conf.Debug)
	return &RollbarReporter{}
}

func (RollbarReporter) Report(level zapcore.Level, msg string, err error, usr *user.User, extras map[string]interface{}) {
	if usr != nil {
		rollbar.SetPerson(fmtID(usr.ID), usr.FullName(), usr.Email)
	} else {
		rollbar.ClearPerson()
	}

	args := []interface{}{msg}
	if err != nil {
		args = append(args, err)
	}
	if extras != nil {
		args = append(args, extras)
	}
	if level >= zapcore.FatalLevel {
		rollbar.Critical(args...)
		return
	}
	rollbar.Error(args...)
}

func (RollbarReporter) Flush() {
	rollbar.Wait()
}
