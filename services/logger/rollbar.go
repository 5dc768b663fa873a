package logsvc

import (
	"fmt"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"

	"github.com/trezcool/tutorbook/core"
)

// RollbarLogger writes structured logs with zap and reports them to Rollbar.
type RollbarLogger struct {
	sugar  *zap.SugaredLogger
	token  string
	report bool
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewZap builds the zap logger: JSON output in production, console output otherwise.
func NewZap(conf *core.Config) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(conf.Env) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	if conf.Debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func NewRollbarLogger(zl *zap.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{
		sugar:  zl.Sugar().With("app", conf.AppName),
		token:  conf.RollbarToken,
		report: conf.RollbarToken != "",
	}
}

// NewNopLogger discards everything. Used in tests.
func NewNopLogger() *RollbarLogger {
	return &RollbarLogger{sugar: zap.NewNop().Sugar()}
}

// Enable turns Rollbar reporting on or off. Reporting stays off without a token.
func (l *RollbarLogger) Enable(enabled bool) {
	l.report = enabled && l.token != ""
	rollbar.SetEnabled(l.report)
}

// Sync flushes buffered logs and waits for pending Rollbar items.
func (l *RollbarLogger) Sync() {
	_ = l.sugar.Sync()
	if l.report {
		rollbar.Wait()
	}
}

// expected fmt: msg | error, map[string]interface{}, anything else
func (l *RollbarLogger) prepare(msg string, args []interface{}) (items, keysAndValues []interface{}) {
	items = make([]interface{}, 0, len(args)+1)
	items = append(items, msg)
	for i, arg := range args {
		switch v := arg.(type) {
		case error:
			items = append(items, v)
			keysAndValues = append(keysAndValues, "error", v)
		case map[string]interface{}:
			items = append(items, v)
			for k, val := range v {
				keysAndValues = append(keysAndValues, k, val)
			}
		default:
			keysAndValues = append(keysAndValues, fmt.Sprintf("arg%d", i), v)
		}
	}
	return items, keysAndValues
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	items, kv := l.prepare(msg, args)
	if l.report {
		rollbar.Debug(items...)
	}
	l.sugar.Debugw(msg, kv...)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	items, kv := l.prepare(msg, args)
	if l.report {
		rollbar.Info(items...)
	}
	l.sugar.Infow(msg, kv...)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	items, kv := l.prepare(msg, args)
	if l.report {
		rollbar.Warning(items...)
	}
	l.sugar.Warnw(msg, kv...)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	items, kv := l.prepare(msg, args)
	if l.report {
		rollbar.Error(items...)
	}
	l.sugar.Errorw(msg, kv...)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	items, kv := l.prepare(msg, args)
	if l.report {
		rollbar.Critical(items...)
		rollbar.Wait()
	}
	l.sugar.Fatalw(msg, kv...)
}
