package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/crewdesk/core"
	"github.com/trezcool/crewdesk/core/account"
	"github.com/trezcool/crewdesk/core/job"
	"github.com/trezcool/crewdesk/core/training"
	"github.com/trezcool/crewdesk/core/user"
	logsvc "github.com/trezcool/crewdesk/services/logger"
	"github.com/trezcool/crewdesk/storage/database"
	sqlxrepos "github.com/trezcool/crewdesk/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer db.Close()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	job.InitValidators(validate, translator)
	training.InitValidators(validate, translator)

	// set up services
	jobSvc := job.NewService(sqlxrepos.NewJobRepository(db))
	cli := commandLine{
		db:          db,
		usrSvc:      user.NewService(sqlxrepos.NewUserRepository(db)),
		accSvc:      account.NewService(sqlxrepos.NewAccountRepository(db)),
		jobSvc:      jobSvc,
		trainingSvc: training.NewService(sqlxrepos.NewTrainingRepository(db), jobSvc, nil, logger),
		validate:    validate,
	}

	if err := cli.run(os.Args[1:]); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		_ = db.Close()
		os.Exit(1)
	}
}
