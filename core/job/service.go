package job

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/crewdesk/core"
	"github.com/trezcool/crewdesk/core/account"
)

var (
	// errors
	ErrJobNotFound         = errors.New("job not found")
	ErrEmployeeJobNotFound = errors.New("employee job not found")
	ErrEmployeeJobExists   = errors.New("this job is already assigned to this profile")
	ErrNoPrimaryJob        = errors.New("no primary job assigned")

	departmentTag = "department"
)

type (
	Repository interface {
		// QueryJobs returns all jobs ordered by title.
		QueryJobs(ctx context.Context) ([]Job, error)
		GetJob(ctx context.Context, id int64) (Job, error)
		CreateJob(ctx context.Context, j Job) (Job, error)
		UpdateJob(ctx context.Context, j Job) (Job, error)
		DeleteJob(ctx context.Context, id int64) error

		// CreateEmployeeJob returns ErrEmployeeJobExists when the (profile, job) pair is taken.
		CreateEmployeeJob(ctx context.Context, ej EmployeeJob) (EmployeeJob, error)
		QueryEmployeeJobs(ctx context.Context, filter EmployeeJobFilter) ([]EmployeeJob, error)
		GetEmployeeJob(ctx context.Context, id int64) (EmployeeJob, error)
		DeleteEmployeeJob(ctx context.Context, id int64) error
		// SetPrimaryJob points the profile's primary job at employeeJobID in a single write,
		// replacing any prior one. A zero employeeJobID clears it.
		// Returns ErrEmployeeJobNotFound unless employeeJobID belongs to the profile.
		SetPrimaryJob(ctx context.Context, profileID, employeeJobID int64) error
		// GetPrimaryJob returns ErrNoPrimaryJob when the profile has none.
		GetPrimaryJob(ctx context.Context, profileID int64) (EmployeeJob, error)
	}

	Service interface {
		QueryJobs(ctx context.Context) ([]Job, error)
		GetJob(ctx context.Context, id int64) (Job, error)
		CreateJob(ctx context.Context, caller account.Caller, nj NewJob) (Job, error)
		UpdateJob(ctx context.Context, caller account.Caller, id int64, nj NewJob) (Job, error)
		DeleteJob(ctx context.Context, caller account.Caller, id int64) error

		Assign(ctx context.Context, caller account.Caller, ne NewEmployeeJob) (EmployeeJob, error)
		QueryEmployeeJobs(ctx context.Context, filter EmployeeJobFilter) ([]EmployeeJob, error)
		GetEmployeeJob(ctx context.Context, id int64) (EmployeeJob, error)
		// SetPrimary is open to managers and to the profile owner.
		SetPrimary(ctx context.Context, caller account.Caller, profileID, employeeJobID int64) error
		Unassign(ctx context.Context, caller account.Caller, employeeJobID int64) error

		// ProfileJobIDs returns the ids of every job assigned to the profile.
		ProfileJobIDs(ctx context.Context, profileID int64) ([]int64, error)
		PrimaryJob(ctx context.Context, profileID int64) (EmployeeJob, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// InitValidators registers the job validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterChoiceValidation(validate, translator, departmentTag, Departments)
}

func (svc *service) QueryJobs(ctx context.Context) ([]Job, error) {
	return svc.repo.QueryJobs(ctx)
}

func (svc *service) GetJob(ctx context.Context, id int64) (Job, error) {
	return svc.repo.GetJob(ctx, id)
}

func (svc *service) CreateJob(ctx context.Context, caller account.Caller, nj NewJob) (Job, error) {
	if err := caller.RequireManager(); err != nil {
		return Job{}, err
	}
	return svc.repo.CreateJob(ctx, Job{Title: nj.Title, Description: nj.Description, Department: nj.Department})
}

func (svc *service) UpdateJob(ctx context.Context, caller account.Caller, id int64, nj NewJob) (Job, error) {
	if err := caller.RequireManager(); err != nil {
		return Job{}, err
	}
	j, err := svc.repo.GetJob(ctx, id)
	if err != nil {
		return Job{}, err
	}
	j.Title = nj.Title
	j.Description = nj.Description
	j.Department = nj.Department
	return svc.repo.UpdateJob(ctx, j)
}

func (svc *service) DeleteJob(ctx context.Context, caller account.Caller, id int64) error {
	if err := caller.RequireManager(); err != nil {
		return err
	}
	return svc.repo.DeleteJob(ctx, id)
}

func (svc *service) Assign(ctx context.Context, caller account.Caller, ne NewEmployeeJob) (EmployeeJob, error) {
	if err := caller.RequireManager(); err != nil {
		return EmployeeJob{}, err
	}
	if _, err := svc.repo.GetJob(ctx, ne.JobID); err != nil {
		if errors.Cause(err) == ErrJobNotFound {
			return EmployeeJob{}, core.NewValidationError(err, core.FieldError{Field: "job_id", Error: err.Error()})
		}
		return EmployeeJob{}, errors.Wrap(err, "finding job")
	}

	ej, err := svc.repo.CreateEmployeeJob(ctx, EmployeeJob{
		ProfileID: ne.ProfileID,
		JobID:     ne.JobID,
		StartDate: ne.StartDate,
		PayRate:   ne.PayRate,
	})
	if err != nil {
		switch errors.Cause(err) {
		case ErrEmployeeJobExists:
			return EmployeeJob{}, core.NewValidationError(err, core.FieldError{Field: "job_id", Error: err.Error()})
		case account.ErrProfileNotFound:
			return EmployeeJob{}, core.NewValidationError(err, core.FieldError{Field: "profile_id", Error: err.Error()})
		}
		return EmployeeJob{}, err
	}

	if ne.IsPrimary {
		if err := svc.repo.SetPrimaryJob(ctx, ej.ProfileID, ej.ID); err != nil {
			return EmployeeJob{}, errors.Wrap(err, "setting primary job")
		}
		ej.IsPrimary = true
	}
	return ej, nil
}

func (svc *service) QueryEmployeeJobs(ctx context.Context, filter EmployeeJobFilter) ([]EmployeeJob, error) {
	return svc.repo.QueryEmployeeJobs(ctx, filter)
}

func (svc *service) GetEmployeeJob(ctx context.Context, id int64) (EmployeeJob, error) {
	return svc.repo.GetEmployeeJob(ctx, id)
}

func (svc *service) SetPrimary(ctx context.Context, caller account.Caller, profileID, employeeJobID int64) error {
	if caller.ProfileID != profileID {
		if err := caller.RequireManager(); err != nil {
			return err
		}
	}
	if err := svc.repo.SetPrimaryJob(ctx, profileID, employeeJobID); err != nil {
		if errors.Cause(err) == ErrEmployeeJobNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "employee_job_id", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Unassign(ctx context.Context, caller account.Caller, employeeJobID int64) error {
	if err := caller.RequireManager(); err != nil {
		return err
	}
	return svc.repo.DeleteEmployeeJob(ctx, employeeJobID)
}

func (svc *service) ProfileJobIDs(ctx context.Context, profileID int64) ([]int64, error) {
	ejs, err := svc.repo.QueryEmployeeJobs(ctx, EmployeeJobFilter{ProfileID: profileID})
	if err != nil {
		return nil, errors.Wrap(err, "querying employee jobs")
	}
	ids := make([]int64, 0, len(ejs))
	for _, ej := range ejs {
		ids = append(ids, ej.JobID)
	}
	return ids, nil
}

func (svc *service) PrimaryJob(ctx context.Context, profileID int64) (EmployeeJob, error) {
	return svc.repo.GetPrimaryJob(ctx, profileID)
}
