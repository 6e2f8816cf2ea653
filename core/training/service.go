package training

import (
	"context"
	"fmt"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/crewdesk/core"
	"github.com/trezcool/crewdesk/core/account"
	"github.com/trezcool/crewdesk/core/job"
)

var (
	// errors
	ErrExamNotFound = errors.New("exam not found")
	ErrExamExists   = errors.New("an exam already exists for this job, season and year")

	errTooFewChoices = errors.New("a question needs at least 2 choices")
	errOneCorrect    = errors.New("exactly one choice must be correct")
	errUnknownJob    = errors.New("job not found")

	msgNoProfile    = "No profile attached to this account. Please contact admin."
	msgNoPrimaryJob = "No primary job assigned. Please contact admin."

	seasonTag = "season"
)

type (
	Repository interface {
		// QueryExams returns exams ordered by year then season, both descending.
		QueryExams(ctx context.Context, filter ExamFilter) ([]Exam, error)
		GetExam(ctx context.Context, id int64) (Exam, error)
		// CreateExam returns ErrExamExists when (job, season, year) is taken.
		CreateExam(ctx context.Context, e Exam) (Exam, error)
		UpdateExam(ctx context.Context, e Exam) (Exam, error)
		DeleteExam(ctx context.Context, id int64) error

		// CreateQuestion saves the question and its choices atomically.
		CreateQuestion(ctx context.Context, q Question) (Question, error)
		// QueryQuestions returns the exam's questions by order then id, each with its choices by id.
		QueryQuestions(ctx context.Context, examID int64) ([]Question, error)

		// CreateResult always inserts.
		CreateResult(ctx context.Context, r ExamResult) (ExamResult, error)
		// QueryResults returns the profile's results, most recent first.
		QueryResults(ctx context.Context, profileID int64) ([]ExamResult, error)
		// PassedExamIDs returns the ids of exams the profile passed at least once.
		PassedExamIDs(ctx context.Context, profileID int64) ([]int64, error)
		// LatestResults returns, per exam id, the profile's result with the greatest
		// submitted_at (ties go to the greatest id). Exams without results are absent.
		LatestResults(ctx context.Context, profileID int64, examIDs []int64) (map[int64]ExamResult, error)
		// ExamStats counts takers and passes for every exam of every job.
		ExamStats(ctx context.Context) ([]ExamStat, error)
	}

	// JobProvider is the part of job.Service training depends on.
	JobProvider interface {
		GetJob(ctx context.Context, id int64) (job.Job, error)
		ProfileJobIDs(ctx context.Context, profileID int64) ([]int64, error)
		PrimaryJob(ctx context.Context, profileID int64) (job.EmployeeJob, error)
	}

	Service interface {
		QueryExams(ctx context.Context, filter ExamFilter) ([]Exam, error)
		GetExam(ctx context.Context, id int64) (Exam, error)
		CreateExam(ctx context.Context, caller account.Caller, ne NewExam) (Exam, error)
		UpdateExam(ctx context.Context, caller account.Caller, id int64, ne NewExam) (Exam, error)
		DeleteExam(ctx context.Context, caller account.Caller, id int64) error

		// AddQuestion rejects questions without exactly one correct choice among at least two.
		AddQuestion(ctx context.Context, caller account.Caller, examID int64, nq NewQuestion) (Question, error)
		// Questions returns the exam's questions; correct flags are cleared unless the caller is a manager.
		Questions(ctx context.Context, caller account.Caller, examID int64) ([]Question, error)
		// ImportExam creates an exam with all of its questions.
		ImportExam(ctx context.Context, caller account.Caller, ne NewExam, nqs []NewQuestion) (Exam, error)

		Grade(ctx context.Context, caller account.Caller, examID int64, answers Answers) (Grade, error)
		Results(ctx context.Context, caller account.Caller) ([]ExamResult, error)

		AvailableExams(ctx context.Context, caller account.Caller) (Availability, error)
		ExamStats(ctx context.Context) ([]ExamStat, error)
		ProfileProgress(ctx context.Context, caller account.Caller) (Progress, error)
	}

	service struct {
		repo   Repository
		jobs   JobProvider
		mailer core.EmailService
		logger core.Logger
		now    func() time.Time
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, jobs JobProvider, mailer core.EmailService, logger core.Logger) Service {
	return &service{
		repo:   repo,
		jobs:   jobs,
		mailer: mailer,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// InitValidators registers the training validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterChoiceValidation(validate, translator, seasonTag, Seasons)
}

func (svc *service) QueryExams(ctx context.Context, filter ExamFilter) ([]Exam, error) {
	return svc.repo.QueryExams(ctx, filter)
}

func (svc *service) GetExam(ctx context.Context, id int64) (Exam, error) {
	return svc.repo.GetExam(ctx, id)
}

func (svc *service) checkJob(ctx context.Context, jobID int64) error {
	if _, err := svc.jobs.GetJob(ctx, jobID); err != nil {
		if errors.Cause(err) == job.ErrJobNotFound {
			return core.NewValidationError(errUnknownJob, core.FieldError{Field: "job_id", Error: errUnknownJob.Error()})
		}
		return errors.Wrap(err, "finding job")
	}
	return nil
}

func (svc *service) examExistsErr(err error) error {
	if errors.Cause(err) == ErrExamExists {
		return core.NewValidationError(err, core.FieldError{Field: "year", Error: err.Error()})
	}
	return err
}

func (svc *service) CreateExam(ctx context.Context, caller account.Caller, ne NewExam) (Exam, error) {
	if err := caller.RequireManager(); err != nil {
		return Exam{}, err
	}
	if err := svc.checkJob(ctx, ne.JobID); err != nil {
		return Exam{}, err
	}

	e := Exam{
		JobID:        ne.JobID,
		Title:        ne.Title,
		Description:  ne.Description,
		Season:       ne.Season,
		Year:         ne.Year,
		PassingScore: DefaultPassingScore,
		CreatedAt:    svc.now(),
	}
	if ne.PassingScore != nil {
		e.PassingScore = *ne.PassingScore
	}
	e, err := svc.repo.CreateExam(ctx, e)
	if err != nil {
		return Exam{}, svc.examExistsErr(err)
	}
	return e, nil
}

func (svc *service) UpdateExam(ctx context.Context, caller account.Caller, id int64, ne NewExam) (Exam, error) {
	if err := caller.RequireManager(); err != nil {
		return Exam{}, err
	}
	e, err := svc.repo.GetExam(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	if ne.JobID != e.JobID {
		if err := svc.checkJob(ctx, ne.JobID); err != nil {
			return Exam{}, err
		}
	}

	e.JobID = ne.JobID
	e.Title = ne.Title
	e.Description = ne.Description
	e.Season = ne.Season
	e.Year = ne.Year
	if ne.PassingScore != nil {
		// applies to future attempts only
		e.PassingScore = *ne.PassingScore
	}
	e, err = svc.repo.UpdateExam(ctx, e)
	if err != nil {
		return Exam{}, svc.examExistsErr(err)
	}
	return e, nil
}

func (svc *service) DeleteExam(ctx context.Context, caller account.Caller, id int64) error {
	if err := caller.RequireManager(); err != nil {
		return err
	}
	return svc.repo.DeleteExam(ctx, id)
}

// checkChoices enforces the single correct choice rule.
func checkChoices(choices []NewChoice) error {
	if len(choices) < 2 {
		return core.NewValidationError(errTooFewChoices, core.FieldError{Field: "choices", Error: errTooFewChoices.Error()})
	}
	var correct int
	for _, c := range choices {
		if c.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return core.NewValidationError(errOneCorrect, core.FieldError{Field: "choices", Error: errOneCorrect.Error()})
	}
	return nil
}

func (svc *service) AddQuestion(ctx context.Context, caller account.Caller, examID int64, nq NewQuestion) (Question, error) {
	if err := caller.RequireManager(); err != nil {
		return Question{}, err
	}
	if err := checkChoices(nq.Choices); err != nil {
		return Question{}, err
	}
	if _, err := svc.repo.GetExam(ctx, examID); err != nil {
		return Question{}, err
	}

	q := Question{ExamID: examID, Text: nq.Text, Order: nq.Order, Choices: make([]Choice, 0, len(nq.Choices))}
	for _, nc := range nq.Choices {
		q.Choices = append(q.Choices, Choice{Text: nc.Text, IsCorrect: nc.IsCorrect})
	}
	return svc.repo.CreateQuestion(ctx, q)
}

func (svc *service) Questions(ctx context.Context, caller account.Caller, examID int64) ([]Question, error) {
	if _, err := svc.repo.GetExam(ctx, examID); err != nil {
		return nil, err
	}
	questions, err := svc.repo.QueryQuestions(ctx, examID)
	if err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	if !caller.IsManager {
		for i := range questions {
			for j := range questions[i].Choices {
				questions[i].Choices[j].IsCorrect = false
			}
		}
	}
	return questions, nil
}

func (svc *service) ImportExam(ctx context.Context, caller account.Caller, ne NewExam, nqs []NewQuestion) (Exam, error) {
	for _, nq := range nqs {
		if err := checkChoices(nq.Choices); err != nil {
			return Exam{}, err
		}
	}
	e, err := svc.CreateExam(ctx, caller, ne)
	if err != nil {
		return Exam{}, err
	}
	for i, nq := range nqs {
		if nq.Order == 0 {
			nq.Order = i + 1
		}
		if _, err := svc.AddQuestion(ctx, caller, e.ID, nq); err != nil {
			// questions cascade with the exam
			if delErr := svc.repo.DeleteExam(ctx, e.ID); delErr != nil {
				svc.logger.Error(fmt.Sprintf("rolling back exam %d import: %v", e.ID, delErr), delErr, caller)
			}
			return Exam{}, errors.Wrapf(err, "adding question %d", i+1)
		}
	}
	return e, nil
}

func (svc *service) Results(ctx context.Context, caller account.Caller) ([]ExamResult, error) {
	profID, err := caller.RequireProfile()
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryResults(ctx, profID)
}
