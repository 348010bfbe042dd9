package logsvc

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trezcool/swimschool/core"
	"github.com/trezcool/swimschool/core/user"
)

// Reporter forwards error level logs to an external error tracker.
type Reporter interface {
	Report(level zapcore.Level, msg string, err error, usr *user.User, extras map[string]interface{})
	Flush()
}

type Logger struct {
	base      *zap.Logger
	level     zap.AtomicLevel
	reporters []Reporter
}

var _ core.Logger = (*Logger)(nil)

// NewLogger builds a zap logger named name. PROD gets the JSON production encoder, other envs the console one.
func NewLogger(name string, conf *core.Config, reporters ...Reporter) (*Logger, error) {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(strings.ToLower(conf.LogLevel))); err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	var cfg zap.Config
	if conf.Env == "PROD" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build(zap.AddCallerSkip(2), zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, err
	}
	return &Logger{base: base.Named(name), level: lvl, reporters: reporters}, nil
}

// NewNopLogger discards everything. Used by tests.
func NewNopLogger() *Logger {
	return &Logger{base: zap.NewNop(), level: zap.NewAtomicLevelAt(zap.FatalLevel)}
}

// Sync flushes the zap buffers and the reporters.
func (l *Logger) Sync() {
	_ = l.base.Sync()
	for _, r := range l.reporters {
		r.Flush()
	}
}

type entry struct {
	fields []zap.Field
	err    error
	usr    *user.User
	extras map[string]interface{}
}

// parseArgs expects args of type error, map[string]interface{} or user.User; only one user is kept.
func parseArgs(args []interface{}) entry {
	var e entry
	for i, arg := range args {
		switch v := arg.(type) {
		case error:
			if e.err == nil {
				e.err = v
			}
			e.fields = append(e.fields, zap.Error(v))
		case user.User:
			if e.usr == nil {
				u := v
				e.usr = &u
				e.fields = append(e.fields, zap.Int("user_id", v.ID), zap.String("user_email", v.Email))
			}
		case map[string]interface{}:
			e.extras = v
			for k, val := range v {
				e.fields = append(e.fields, zap.Any(k, val))
			}
		default:
			e.fields = append(e.fields, zap.Any(fmt.Sprintf("arg%d", i), v))
		}
	}
	return e
}

func (l *Logger) log(level zapcore.Level, msg string, args []interface{}) {
	e := parseArgs(args)
	if ce := l.base.Check(level, msg); ce != nil {
		ce.Write(e.fields...)
	}
	if level >= zapcore.ErrorLevel {
		for _, r := range l.reporters {
			r.Report(level, msg, e.err, e.usr, e.extras)
		}
	}
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log(zapcore.DebugLevel, msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log(zapcore.InfoLevel, msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log(zapcore.WarnLevel, msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log(zapcore.ErrorLevel, msg, args) }

// Fatal reports and flushes before exiting.
func (l *Logger) Fatal(msg string, args ...interface{}) {
	e := parseArgs(args)
	for _, r := range l.reporters {
		r.Report(zapcore.FatalLevel, msg, e.err, e.usr, e.extras)
		r.Flush()
	}
	l.base.Fatal(msg, e.fields...)
}
