package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/hansei/chulseok/core"
	"github.com/hansei/chulseok/core/user"
)

// RollbarLogger reports to Rollbar and mirrors every entry to std, so local
// output survives when remote reporting is disabled.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// report sends msg and args through one of the rollbar level functions.
// args may carry an error, extra context values and at most one user.User;
// the first user found becomes the report's affected person.
func (l RollbarLogger) report(send func(...interface{}), msg string, args []interface{}) {
	payload := make([]interface{}, 0, len(args)+1)
	payload = append(payload, msg)

	var person bool
	for _, arg := range args {
		if usr, ok := arg.(user.User); ok && !person {
			rollbar.SetPerson(usr.ID, usr.Name, usr.Email)
			person = true
			continue
		}
		payload = append(payload, arg)
	}
	if !person {
		rollbar.ClearPerson()
	}
	send(payload...)

	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.report(rollbar.Debug, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.report(rollbar.Info, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.report(rollbar.Warning, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.report(rollbar.Error, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.Critical, msg, args)
	l.std.Fatal(msg)
}
