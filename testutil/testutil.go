// Package testutil wires the core services over the in-memory store for tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/crewdesk/core"
	"github.com/trezcool/crewdesk/core/account"
	"github.com/trezcool/crewdesk/core/job"
	"github.com/trezcool/crewdesk/core/schedule"
	"github.com/trezcool/crewdesk/core/training"
	"github.com/trezcool/crewdesk/core/user"
	emailsvc "github.com/trezcool/crewdesk/services/email"
	inmemdb "github.com/trezcool/crewdesk/storage/database/inmem"
)

// Manager is a caller with manager capabilities and no profile.
var Manager = account.Caller{Name: "Manager", IsManager: true}

// NewValidator returns a validator with every package's custom tags registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	job.InitValidators(validate, translator)
	training.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)
	return validate, translator
}

// Logger forwards log calls to the test log.
type Logger struct {
	T testing.TB
}

var _ core.Logger = Logger{}

func (l Logger) Debug(msg string, args ...interface{}) { l.T.Log(append([]interface{}{"DEBUG", msg}, args...)...) }
func (l Logger) Info(msg string, args ...interface{})  { l.T.Log(append([]interface{}{"INFO", msg}, args...)...) }
func (l Logger) Warn(msg string, args ...interface{})  { l.T.Log(append([]interface{}{"WARN", msg}, args...)...) }
func (l Logger) Error(msg string, args ...interface{}) { l.T.Error(append([]interface{}{msg}, args...)...) }
func (l Logger) Fatal(msg string, args ...interface{}) { l.T.Error(append([]interface{}{msg}, args...)...) }

// Env holds a fresh in-memory store and the services built on it.
type Env struct {
	DB         *inmemdb.DB
	Conf       *core.Config
	Mailer     *emailsvc.ConsoleServiceMock
	Validate   *validator.Validate
	Translator ut.Translator

	UserRepo     user.Repository
	AccountRepo  account.Repository
	JobRepo      job.Repository
	TrainingRepo training.Repository
	ScheduleRepo schedule.Repository

	UserSvc     user.Service
	AccountSvc  account.Service
	JobSvc      job.Service
	TrainingSvc training.Service
	ScheduleSvc schedule.Service
}

func NewEnv(t *testing.T) *Env {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	conf := core.NewTestConfig()
	env := &Env{
		DB:           db,
		Conf:         conf,
		Mailer:       emailsvc.NewConsoleServiceMock(conf),
		UserRepo:     inmemdb.NewUserRepository(db),
		AccountRepo:  inmemdb.NewAccountRepository(db),
		JobRepo:      inmemdb.NewJobRepository(db),
		TrainingRepo: inmemdb.NewTrainingRepository(db),
		ScheduleRepo: inmemdb.NewScheduleRepository(db),
	}
	env.Validate, env.Translator = NewValidator()

	env.UserSvc = user.NewService(env.UserRepo)
	env.AccountSvc = account.NewService(env.AccountRepo)
	env.JobSvc = job.NewService(env.JobRepo)
	env.TrainingSvc = training.NewService(env.TrainingRepo, env.JobSvc, env.Mailer, Logger{T: t})
	env.ScheduleSvc = schedule.NewService(env.ScheduleRepo, env.JobSvc)
	return env
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// Staff creates an active user with a profile and returns it with its caller.
func (env *Env) Staff(t *testing.T, uname string, roles ...string) (user.User, account.Caller) {
	if len(roles) == 0 {
		roles = []string{user.RoleEmployee}
	}
	ctx := context.Background()
	usr := CreateUser(t, env.UserRepo, uname, uname, uname+"@test.cd", "", roles, true)
	if _, err := env.AccountSvc.EnsureProfile(ctx, usr.ID); err != nil {
		t.Fatalf("EnsureProfile() failed: %v", err)
	}
	caller, err := env.AccountSvc.Caller(ctx, usr)
	if err != nil {
		t.Fatalf("Caller() failed: %v", err)
	}
	return usr, caller
}

func (env *Env) Job(t *testing.T, title string) job.Job {
	j, err := env.JobSvc.CreateJob(context.Background(), Manager, job.NewJob{Title: title})
	if err != nil {
		t.Fatalf("CreateJob() failed: %v", err)
	}
	return j
}

func (env *Env) Assign(t *testing.T, profileID, jobID int64, primary bool) job.EmployeeJob {
	ej, err := env.JobSvc.Assign(context.Background(), Manager, job.NewEmployeeJob{
		ProfileID: profileID,
		JobID:     jobID,
		StartDate: time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC),
		IsPrimary: primary,
	})
	if err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
	return ej
}

func (env *Env) Exam(t *testing.T, jobID int64, season string, year, passingScore int) training.Exam {
	e, err := env.TrainingSvc.CreateExam(context.Background(), Manager, training.NewExam{
		JobID:        jobID,
		Title:        fmt.Sprintf("%s %d", training.SeasonLabel(season), year),
		Season:       season,
		Year:         year,
		PassingScore: &passingScore,
	})
	if err != nil {
		t.Fatalf("CreateExam() failed: %v", err)
	}
	return e
}

// Question adds a question whose choice at index `correct` is the right one.
func (env *Env) Question(t *testing.T, examID int64, text string, correct int, choices ...string) training.Question {
	nq := training.NewQuestion{Text: text}
	for i, c := range choices {
		nq.Choices = append(nq.Choices, training.NewChoice{Text: c, IsCorrect: i == correct})
	}
	q, err := env.TrainingSvc.AddQuestion(context.Background(), Manager, examID, nq)
	if err != nil {
		t.Fatalf("AddQuestion() failed: %v", err)
	}
	return q
}

// Submit grades the given answers on behalf of caller.
func (env *Env) Submit(t *testing.T, caller account.Caller, examID int64, answers training.Answers) training.Grade {
	g, err := env.TrainingSvc.Grade(context.Background(), caller, examID, answers)
	if err != nil {
		t.Fatalf("Grade() failed: %v", err)
	}
	return g
}
