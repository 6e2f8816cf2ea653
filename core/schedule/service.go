package schedule

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/crewdesk/core"
	"github.com/trezcool/crewdesk/core/account"
	"github.com/trezcool/crewdesk/core/job"
)

var (
	// errors
	ErrDayNotFound   = errors.New("schedule day not found")
	ErrDayExists     = errors.New("a schedule already exists for this date")
	ErrShiftNotFound = errors.New("shift not found")

	shiftTypeTag = "shifttype"
)

type (
	Repository interface {
		// CreateDay returns ErrDayExists when the date is taken.
		CreateDay(ctx context.Context, d Day) (Day, error)
		// GetDay returns the day with its shifts.
		GetDay(ctx context.Context, id int64) (Day, error)
		QueryDays(ctx context.Context, filter DayFilter) ([]Day, error)
		CreateShift(ctx context.Context, s Shift) (Shift, error)
		DeleteShift(ctx context.Context, id int64) error
		// QueryShifts returns the shifts of the given employee jobs ordered by date then start time.
		QueryShifts(ctx context.Context, employeeJobIDs []int64, filter DayFilter) ([]Shift, error)
	}

	// EmployeeJobProvider is the part of job.Service scheduling depends on.
	EmployeeJobProvider interface {
		GetEmployeeJob(ctx context.Context, id int64) (job.EmployeeJob, error)
		QueryEmployeeJobs(ctx context.Context, filter job.EmployeeJobFilter) ([]job.EmployeeJob, error)
	}

	Service interface {
		CreateDay(ctx context.Context, caller account.Caller, nd NewDay) (Day, error)
		GetDay(ctx context.Context, id int64) (Day, error)
		QueryDays(ctx context.Context, filter DayFilter) ([]Day, error)
		AddShift(ctx context.Context, caller account.Caller, dayID int64, ns NewShift) (Shift, error)
		DeleteShift(ctx context.Context, caller account.Caller, id int64) error
		// ProfileShifts lists the caller's shifts across all of its jobs.
		ProfileShifts(ctx context.Context, caller account.Caller, filter DayFilter) (ProfileSchedule, error)
	}

	service struct {
		repo Repository
		jobs EmployeeJobProvider
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, jobs EmployeeJobProvider) Service {
	return &service{repo: repo, jobs: jobs}
}

// InitValidators registers the schedule validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterChoiceValidation(validate, translator, shiftTypeTag, ShiftTypes)
}

func (svc *service) CreateDay(ctx context.Context, caller account.Caller, nd NewDay) (Day, error) {
	if err := caller.RequireManager(); err != nil {
		return Day{}, err
	}
	d := Day{Date: nd.date(), ProjectedSales: core.Round2(nd.ProjectedSales)}
	if caller.HasProfile() {
		profID := caller.ProfileID
		d.CreatedBy = &profID
	}

	d, err := svc.repo.CreateDay(ctx, d)
	if err != nil {
		if errors.Cause(err) == ErrDayExists {
			return Day{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: err.Error()})
		}
		return Day{}, err
	}
	return d, nil
}

func (svc *service) GetDay(ctx context.Context, id int64) (Day, error) {
	return svc.repo.GetDay(ctx, id)
}

func (svc *service) QueryDays(ctx context.Context, filter DayFilter) ([]Day, error) {
	return svc.repo.QueryDays(ctx, filter)
}

func (svc *service) AddShift(ctx context.Context, caller account.Caller, dayID int64, ns NewShift) (Shift, error) {
	if err := caller.RequireManager(); err != nil {
		return Shift{}, err
	}
	day, err := svc.repo.GetDay(ctx, dayID)
	if err != nil {
		return Shift{}, err
	}
	if _, err := svc.jobs.GetEmployeeJob(ctx, ns.EmployeeJobID); err != nil {
		if errors.Cause(err) == job.ErrEmployeeJobNotFound {
			return Shift{}, core.NewValidationError(err, core.FieldError{Field: "employee_job_id", Error: err.Error()})
		}
		return Shift{}, errors.Wrap(err, "finding employee job")
	}

	start, err := ParseClock(ns.StartTime)
	if err != nil {
		return Shift{}, core.NewValidationError(err, core.FieldError{Field: "start_time", Error: err.Error()})
	}
	end, err := ParseClock(ns.EndTime)
	if err != nil {
		return Shift{}, core.NewValidationError(err, core.FieldError{Field: "end_time", Error: err.Error()})
	}

	ejID := ns.EmployeeJobID
	return svc.repo.CreateShift(ctx, Shift{
		DayID:         day.ID,
		Date:          day.Date,
		EmployeeJobID: &ejID,
		ShiftType:     ns.ShiftType,
		SectionNumber: ns.SectionNumber,
		StartTime:     start,
		EndTime:       end,
	})
}

func (svc *service) DeleteShift(ctx context.Context, caller account.Caller, id int64) error {
	if err := caller.RequireManager(); err != nil {
		return err
	}
	return svc.repo.DeleteShift(ctx, id)
}

func (svc *service) ProfileShifts(ctx context.Context, caller account.Caller, filter DayFilter) (ProfileSchedule, error) {
	profID, err := caller.RequireProfile()
	if err != nil {
		return ProfileSchedule{}, err
	}
	ejs, err := svc.jobs.QueryEmployeeJobs(ctx, job.EmployeeJobFilter{ProfileID: profID})
	if err != nil {
		return ProfileSchedule{}, errors.Wrap(err, "querying employee jobs")
	}

	sched := ProfileSchedule{Shifts: []Shift{}}
	if len(ejs) == 0 {
		return sched, nil
	}
	ids := make([]int64, 0, len(ejs))
	for _, ej := range ejs {
		ids = append(ids, ej.ID)
	}

	shifts, err := svc.repo.QueryShifts(ctx, ids, filter)
	if err != nil {
		return ProfileSchedule{}, errors.Wrap(err, "querying shifts")
	}
	var total float64
	for _, s := range shifts {
		total += s.Hours()
	}
	sched.Shifts = append(sched.Shifts, shifts...)
	sched.TotalHours = core.Round2(total)
	return sched, nil
}
