package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/crewdesk/core/schedule"
)

type scheduleRepository struct {
	db *DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) CreateDay(_ context.Context, d schedule.Day) (schedule.Day, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, other := range repo.db.days {
		if other.Date.Equal(d.Date) {
			return schedule.Day{}, schedule.ErrDayExists
		}
	}
	d.ID = repo.db.nextPK()
	d.CreatedAt = time.Now().UTC()
	d.Shifts = nil
	repo.db.days[d.ID] = &d
	return d, nil
}

func earlierShift(a, b schedule.Shift) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if a.StartTime != b.StartTime {
		if a.StartTime.Hour != b.StartTime.Hour {
			return a.StartTime.Hour < b.StartTime.Hour
		}
		return a.StartTime.Minute < b.StartTime.Minute
	}
	return a.ID < b.ID
}

// shift fills the derived fields. Requires the read lock.
func (db *DB) shift(s schedule.Shift) schedule.Shift {
	if d, ok := db.days[s.DayID]; ok {
		s.Date = d.Date
	}
	return s
}

func (repo *scheduleRepository) GetDay(_ context.Context, id int64) (schedule.Day, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	d, ok := repo.db.days[id]
	if !ok {
		return schedule.Day{}, schedule.ErrDayNotFound
	}
	day := *d
	day.Shifts = make([]schedule.Shift, 0)
	for _, s := range repo.db.shifts {
		if s.DayID == id {
			day.Shifts = append(day.Shifts, repo.db.shift(*s))
		}
	}
	sort.Slice(day.Shifts, func(i, j int) bool { return earlierShift(day.Shifts[i], day.Shifts[j]) })
	return day, nil
}

func inBounds(date time.Time, filter schedule.DayFilter) bool {
	if !filter.From.IsZero() && date.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && date.After(filter.To) {
		return false
	}
	return true
}

func (repo *scheduleRepository) QueryDays(_ context.Context, filter schedule.DayFilter) ([]schedule.Day, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	days := make([]schedule.Day, 0)
	for _, d := range repo.db.days {
		if inBounds(d.Date, filter) {
			days = append(days, *d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days, nil
}

func (repo *scheduleRepository) CreateShift(_ context.Context, s schedule.Shift) (schedule.Shift, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.days[s.DayID]; !ok {
		return schedule.Shift{}, schedule.ErrDayNotFound
	}
	s.ID = repo.db.nextPK()
	repo.db.shifts[s.ID] = &s
	return repo.db.shift(s), nil
}

func (repo *scheduleRepository) DeleteShift(_ context.Context, id int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.shifts[id]; !ok {
		return schedule.ErrShiftNotFound
	}
	delete(repo.db.shifts, id)
	return nil
}

func (repo *scheduleRepository) QueryShifts(_ context.Context, employeeJobIDs []int64, filter schedule.DayFilter) ([]schedule.Shift, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	wanted := make(map[int64]bool, len(employeeJobIDs))
	for _, id := range employeeJobIDs {
		wanted[id] = true
	}
	shifts := make([]schedule.Shift, 0)
	for _, s := range repo.db.shifts {
		if s.EmployeeJobID == nil || !wanted[*s.EmployeeJobID] {
			continue
		}
		sh := repo.db.shift(*s)
		if inBounds(sh.Date, filter) {
			shifts = append(shifts, sh)
		}
	}
	sort.Slice(shifts, func(i, j int) bool { return earlierShift(shifts[i], shifts[j]) })
	return shifts, nil
}
