package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/crewdesk/core"
	"github.com/trezcool/crewdesk/core/account"
	"github.com/trezcool/crewdesk/core/user"
)

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

type person struct {
	id, name, email string
}

// personOf extracts the identity carried by a log argument.
func personOf(arg interface{}) (person, bool) {
	switch v := arg.(type) {
	case user.User:
		return person{id: v.ID, name: v.Username, email: v.Email}, true
	case account.Caller:
		return person{id: v.UserID, name: v.Name, email: v.Email}, true
	}
	return person{}, false
}

// prepare splits args into rollbar extras and the first identity (user.User or account.Caller),
// which becomes the rollbar person of the report.
// expected fmt: msg | error, map[string]interface{}, user.User | account.Caller
func (l RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, *person) {
	var who *person
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		if p, ok := personOf(arg); ok {
			if who == nil {
				who = &p
			}
			continue
		}
		newArgs = append(newArgs, arg)
	}
	return newArgs, who
}

func (l RollbarLogger) report(send func(...interface{}), msg string, args []interface{}) {
	extras, who := l.prepare(msg, args)
	if who != nil {
		rollbar.SetPerson(who.id, who.name, who.email)
	} else {
		rollbar.ClearPerson()
	}
	send(extras...)
}

func (l RollbarLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	l.report(rollbar.Debug, msg, args)
	l.print(msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.report(rollbar.Info, msg, args)
	l.print(msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.report(rollbar.Warning, msg, args)
	l.print(msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.report(rollbar.Error, msg, args)
	l.print(msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.Critical, msg, args)
	l.print(msg, args)
	l.std.Fatal(msg)
}
