package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/crewdesk/core"
	"github.com/trezcool/crewdesk/core/schedule"
	"github.com/trezcool/crewdesk/storage/database"
)

var shiftColumns = []string{
	"s.id", "s.day_id", "d.date", "s.employee_job_id", "s.shift_type", "s.section_number", "s.start_time", "s.end_time",
}

type dayRow struct {
	ID             int64      `db:"id"`
	Date           time.Time  `db:"date"`
	ProjectedSales float64    `db:"projected_sales"`
	CreatedAt      time.Time  `db:"created_at"`
	CreatedBy      null.Int64 `db:"created_by"`
}

func (r dayRow) day() schedule.Day {
	return schedule.Day{
		ID:             r.ID,
		Date:           r.Date,
		ProjectedSales: r.ProjectedSales,
		CreatedAt:      r.CreatedAt.UTC(),
		CreatedBy:      r.CreatedBy.Ptr(),
	}
}

type shiftRow struct {
	ID            int64          `db:"id"`
	DayID         int64          `db:"day_id"`
	Date          time.Time      `db:"date"`
	EmployeeJobID null.Int64     `db:"employee_job_id"`
	ShiftType     string         `db:"shift_type"`
	SectionNumber null.Int       `db:"section_number"`
	StartTime     schedule.Clock `db:"start_time"`
	EndTime       schedule.Clock `db:"end_time"`
}

func (r shiftRow) shift() schedule.Shift {
	return schedule.Shift{
		ID:            r.ID,
		DayID:         r.DayID,
		Date:          r.Date,
		EmployeeJobID: r.EmployeeJobID.Ptr(),
		ShiftType:     r.ShiftType,
		SectionNumber: r.SectionNumber.Ptr(),
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
	}
}

type scheduleRepository struct {
	db core.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db core.DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) CreateDay(ctx context.Context, d schedule.Day) (schedule.Day, error) {
	var row dayRow
	err := sqlx.GetContext(ctx, repo.db, &row, `
		INSERT INTO schedule_day (date, projected_sales, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, date, projected_sales, created_at, created_by`,
		d.Date, d.ProjectedSales, null.Int64FromPtr(d.CreatedBy))
	if err != nil {
		if database.IsUniqueViolation(err, "schedule_day_date_key") {
			return schedule.Day{}, schedule.ErrDayExists
		}
		return schedule.Day{}, errors.Wrap(err, "inserting schedule day")
	}
	return row.day(), nil
}

func (repo *scheduleRepository) shiftsQuery() sq.SelectBuilder {
	return psql.Select(shiftColumns...).From("shift s").Join("schedule_day d ON d.id = s.day_id")
}

func (repo *scheduleRepository) selectShifts(ctx context.Context, b sq.SelectBuilder) ([]schedule.Shift, error) {
	var rows []shiftRow
	if err := selectBuilt(ctx, repo.db, &rows, b); err != nil {
		return nil, err
	}
	shifts := make([]schedule.Shift, 0, len(rows))
	for _, r := range rows {
		shifts = append(shifts, r.shift())
	}
	return shifts, nil
}

func (repo *scheduleRepository) GetDay(ctx context.Context, id int64) (schedule.Day, error) {
	var row dayRow
	err := sqlx.GetContext(ctx, repo.db, &row,
		"SELECT id, date, projected_sales, created_at, created_by FROM schedule_day WHERE id = $1", id)
	if err != nil {
		return schedule.Day{}, trapNoRowsErr(err, schedule.ErrDayNotFound, "getting schedule day")
	}

	d := row.day()
	d.Shifts, err = repo.selectShifts(ctx, repo.shiftsQuery().Where(sq.Eq{"s.day_id": id}).OrderBy("s.start_time", "s.id"))
	if err != nil {
		return schedule.Day{}, errors.Wrap(err, "querying shifts")
	}
	return d, nil
}

func dateBounds(b sq.SelectBuilder, col string, filter schedule.DayFilter) sq.SelectBuilder {
	if !filter.From.IsZero() {
		b = b.Where(sq.GtOrEq{col: filter.From})
	}
	if !filter.To.IsZero() {
		b = b.Where(sq.LtOrEq{col: filter.To})
	}
	return b
}

func (repo *scheduleRepository) QueryDays(ctx context.Context, filter schedule.DayFilter) ([]schedule.Day, error) {
	b := psql.Select("id", "date", "projected_sales", "created_at", "created_by").From("schedule_day").OrderBy("date")
	b = dateBounds(b, "date", filter)

	var rows []dayRow
	if err := selectBuilt(ctx, repo.db, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying schedule days")
	}
	days := make([]schedule.Day, 0, len(rows))
	for _, r := range rows {
		days = append(days, r.day())
	}
	return days, nil
}

func (repo *scheduleRepository) CreateShift(ctx context.Context, s schedule.Shift) (schedule.Shift, error) {
	err := sqlx.GetContext(ctx, repo.db, &s.ID, `
		INSERT INTO shift (day_id, employee_job_id, shift_type, section_number, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		s.DayID, null.Int64FromPtr(s.EmployeeJobID), s.ShiftType, null.IntFromPtr(s.SectionNumber), s.StartTime, s.EndTime)
	if err != nil {
		if database.IsForeignKeyViolation(err, "shift_day_id_fkey") {
			return schedule.Shift{}, schedule.ErrDayNotFound
		}
		return schedule.Shift{}, errors.Wrap(err, "inserting shift")
	}
	return s, nil
}

func (repo *scheduleRepository) DeleteShift(ctx context.Context, id int64) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM shift WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting shift")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ErrShiftNotFound
	}
	return nil
}

func (repo *scheduleRepository) QueryShifts(ctx context.Context, employeeJobIDs []int64, filter schedule.DayFilter) ([]schedule.Shift, error) {
	b := repo.shiftsQuery().Where(sq.Eq{"s.employee_job_id": employeeJobIDs}).OrderBy("d.date", "s.start_time", "s.id")
	b = dateBounds(b, "d.date", filter)

	shifts, err := repo.selectShifts(ctx, b)
	return shifts, errors.Wrap(err, "querying shifts")
}
