// Package container wires the API dependencies with dig.
package container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/crewdesk/apps/api/echo"
	"github.com/trezcool/crewdesk/core"
	"github.com/trezcool/crewdesk/core/account"
	"github.com/trezcool/crewdesk/core/job"
	"github.com/trezcool/crewdesk/core/schedule"
	"github.com/trezcool/crewdesk/core/training"
	"github.com/trezcool/crewdesk/core/user"
	emailsvc "github.com/trezcool/crewdesk/services/email"
	logsvc "github.com/trezcool/crewdesk/services/logger"
	"github.com/trezcool/crewdesk/storage/database"
	sqlxrepos "github.com/trezcool/crewdesk/storage/database/sqlx"
)

// DBLoggerParam resolves the logger dedicated to the database.
type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newRollbarLogger(conf *core.Config, prefix string) core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, prefix, log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newLogger(conf *core.Config) core.Logger {
	return newRollbarLogger(conf, "API : ")
}

func newDBLogger(conf *core.Config) core.Logger {
	return newRollbarLogger(conf, "DB : ")
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB) {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, log.New(os.Stdout, "EMAIL : ", log.LstdFlags))
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// newValidator registers every package's validators on a single instance.
func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	job.InitValidators(validate, translator)
	training.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)
	return validate
}

func newTrainingService(repo training.Repository, jobs job.Service, mailer core.EmailService, logger core.Logger) training.Service {
	return training.NewService(repo, jobs, mailer, logger)
}

func newScheduleService(repo schedule.Repository, jobs job.Service) schedule.Service {
	return schedule.NewService(repo, jobs)
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository))
	must(c.Provide(sqlxrepos.NewAccountRepository))
	must(c.Provide(sqlxrepos.NewJobRepository))
	must(c.Provide(sqlxrepos.NewTrainingRepository))
	must(c.Provide(sqlxrepos.NewScheduleRepository))

	// services
	must(c.Provide(user.NewService))
	must(c.Provide(account.NewService))
	must(c.Provide(job.NewService))
	must(c.Provide(newTrainingService))
	must(c.Provide(newScheduleService))

	must(c.Provide(echoapi.NewServer))
	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
