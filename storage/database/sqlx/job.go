package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/crewdesk/core"
	"github.com/trezcool/crewdesk/core/account"
	"github.com/trezcool/crewdesk/core/job"
	"github.com/trezcool/crewdesk/storage/database"
)

var employeeJobColumns = []string{
	"ej.id", "ej.profile_id", "ej.job_id", "j.title AS job_title", "ej.start_date", "ej.pay_rate",
	"(p.primary_job_id IS NOT DISTINCT FROM ej.id) AS is_primary",
}

type jobRow struct {
	ID          int64       `db:"id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	Department  null.String `db:"department"`
}

func toJobRow(j job.Job) jobRow {
	return jobRow{
		ID:          j.ID,
		Title:       j.Title,
		Description: null.NewString(j.Description, j.Description != ""),
		Department:  null.NewString(j.Department, j.Department != ""),
	}
}

func (r jobRow) job() job.Job {
	return job.Job{ID: r.ID, Title: r.Title, Description: r.Description.String, Department: r.Department.String}
}

type employeeJobRow struct {
	ID        int64        `db:"id"`
	ProfileID int64        `db:"profile_id"`
	JobID     int64        `db:"job_id"`
	JobTitle  string       `db:"job_title"`
	StartDate time.Time    `db:"start_date"`
	PayRate   null.Float64 `db:"pay_rate"`
	IsPrimary bool         `db:"is_primary"`
}

func (r employeeJobRow) employeeJob() job.EmployeeJob {
	return job.EmployeeJob{
		ID:        r.ID,
		ProfileID: r.ProfileID,
		JobID:     r.JobID,
		JobTitle:  r.JobTitle,
		StartDate: r.StartDate,
		PayRate:   r.PayRate.Ptr(),
		IsPrimary: r.IsPrimary,
	}
}

type jobRepository struct {
	db core.DB
}

var _ job.Repository = (*jobRepository)(nil) // interface compliance check

func NewJobRepository(db core.DB) job.Repository {
	return &jobRepository{db: db}
}

func (repo *jobRepository) QueryJobs(ctx context.Context) ([]job.Job, error) {
	var rows []jobRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, "SELECT id, title, description, department FROM job ORDER BY title, id"); err != nil {
		return nil, errors.Wrap(err, "querying jobs")
	}
	jobs := make([]job.Job, 0, len(rows))
	for _, r := range rows {
		jobs = append(jobs, r.job())
	}
	return jobs, nil
}

func (repo *jobRepository) GetJob(ctx context.Context, id int64) (job.Job, error) {
	var row jobRow
	if err := sqlx.GetContext(ctx, repo.db, &row, "SELECT id, title, description, department FROM job WHERE id = $1", id); err != nil {
		return job.Job{}, trapNoRowsErr(err, job.ErrJobNotFound, "getting job")
	}
	return row.job(), nil
}

func (repo *jobRepository) CreateJob(ctx context.Context, j job.Job) (job.Job, error) {
	row := toJobRow(j)
	err := sqlx.GetContext(ctx, repo.db, &row.ID,
		"INSERT INTO job (title, description, department) VALUES ($1, $2, $3) RETURNING id",
		row.Title, row.Description, row.Department)
	if err != nil {
		return job.Job{}, errors.Wrap(err, "inserting job")
	}
	return row.job(), nil
}

func (repo *jobRepository) UpdateJob(ctx context.Context, j job.Job) (job.Job, error) {
	row := toJobRow(j)
	res, err := sqlx.NamedExecContext(ctx, repo.db,
		"UPDATE job SET title = :title, description = :description, department = :department WHERE id = :id", row)
	if err != nil {
		return job.Job{}, errors.Wrap(err, "updating job")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return job.Job{}, job.ErrJobNotFound
	}
	return row.job(), nil
}

func (repo *jobRepository) DeleteJob(ctx context.Context, id int64) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM job WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting job")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return job.ErrJobNotFound
	}
	return nil
}

func (repo *jobRepository) CreateEmployeeJob(ctx context.Context, ej job.EmployeeJob) (job.EmployeeJob, error) {
	var id int64
	err := sqlx.GetContext(ctx, repo.db, &id, `
		INSERT INTO employee_job (profile_id, job_id, start_date, pay_rate)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		ej.ProfileID, ej.JobID, ej.StartDate, null.Float64FromPtr(ej.PayRate))
	if err != nil {
		switch {
		case database.IsUniqueViolation(err, "employee_job_profile_job_key"):
			return job.EmployeeJob{}, job.ErrEmployeeJobExists
		case database.IsForeignKeyViolation(err, "employee_job_job_id_fkey"):
			return job.EmployeeJob{}, job.ErrJobNotFound
		case database.IsForeignKeyViolation(err, "employee_job_profile_id_fkey"):
			return job.EmployeeJob{}, account.ErrProfileNotFound
		}
		return job.EmployeeJob{}, errors.Wrap(err, "inserting employee job")
	}
	return repo.GetEmployeeJob(ctx, id)
}

func (repo *jobRepository) employeeJobsQuery() sq.SelectBuilder {
	return psql.Select(employeeJobColumns...).
		From("employee_job ej").
		Join("job j ON j.id = ej.job_id").
		Join("profile p ON p.id = ej.profile_id")
}

func (repo *jobRepository) QueryEmployeeJobs(ctx context.Context, filter job.EmployeeJobFilter) ([]job.EmployeeJob, error) {
	b := repo.employeeJobsQuery().OrderBy("ej.start_date", "ej.id")
	if filter.ProfileID != 0 {
		b = b.Where(sq.Eq{"ej.profile_id": filter.ProfileID})
	}
	if filter.JobID != 0 {
		b = b.Where(sq.Eq{"ej.job_id": filter.JobID})
	}

	var rows []employeeJobRow
	if err := selectBuilt(ctx, repo.db, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying employee jobs")
	}
	ejs := make([]job.EmployeeJob, 0, len(rows))
	for _, r := range rows {
		ejs = append(ejs, r.employeeJob())
	}
	return ejs, nil
}

func (repo *jobRepository) GetEmployeeJob(ctx context.Context, id int64) (job.EmployeeJob, error) {
	var row employeeJobRow
	if err := getBuilt(ctx, repo.db, &row, repo.employeeJobsQuery().Where(sq.Eq{"ej.id": id})); err != nil {
		return job.EmployeeJob{}, trapNoRowsErr(err, job.ErrEmployeeJobNotFound, "getting employee job")
	}
	return row.employeeJob(), nil
}

func (repo *jobRepository) DeleteEmployeeJob(ctx context.Context, id int64) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM employee_job WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting employee job")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return job.ErrEmployeeJobNotFound
	}
	return nil
}

func (repo *jobRepository) SetPrimaryJob(ctx context.Context, profileID, employeeJobID int64) error {
	var (
		res sql.Result
		err error
	)
	if employeeJobID == 0 {
		res, err = repo.db.ExecContext(ctx, "UPDATE profile SET primary_job_id = NULL WHERE id = $1", profileID)
	} else {
		// one statement: the ownership check and the swap happen together
		res, err = repo.db.ExecContext(ctx, `
			UPDATE profile SET primary_job_id = $1
			WHERE id = $2 AND EXISTS (SELECT 1 FROM employee_job WHERE id = $1 AND profile_id = $2)`,
			employeeJobID, profileID)
	}
	if err != nil {
		return errors.Wrap(err, "setting primary job")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return job.ErrEmployeeJobNotFound
	}
	return nil
}

func (repo *jobRepository) GetPrimaryJob(ctx context.Context, profileID int64) (job.EmployeeJob, error) {
	var row employeeJobRow
	b := repo.employeeJobsQuery().Where("ej.id = p.primary_job_id").Where(sq.Eq{"p.id": profileID})
	if err := getBuilt(ctx, repo.db, &row, b); err != nil {
		return job.EmployeeJob{}, trapNoRowsErr(err, job.ErrNoPrimaryJob, "getting primary job")
	}
	return row.employeeJob(), nil
}
