package inmemdb

import (
	"sync"

	"github.com/trezcool/crewdesk/core/account"
	"github.com/trezcool/crewdesk/core/job"
	"github.com/trezcool/crewdesk/core/schedule"
	"github.com/trezcool/crewdesk/core/training"
	"github.com/trezcool/crewdesk/core/user"
)

// DB is an in-memory store shared by the in-memory repositories.
// A single lock guards every table so cross-table reads stay consistent.
type DB struct {
	mutex sync.RWMutex
	pk    int64

	users        map[string]*user.User
	locations    map[int64]*account.Location
	profiles     map[int64]*account.Profile
	jobs         map[int64]*job.Job
	employeeJobs map[int64]*job.EmployeeJob
	exams        map[int64]*training.Exam
	questions    map[int64]*training.Question
	results      []training.ExamResult // append-only
	days         map[int64]*schedule.Day
	shifts       map[int64]*schedule.Shift
}

func Open() (*DB, error) {
	db := &DB{
		users:        make(map[string]*user.User),
		locations:    make(map[int64]*account.Location),
		profiles:     make(map[int64]*account.Profile),
		jobs:         make(map[int64]*job.Job),
		employeeJobs: make(map[int64]*job.EmployeeJob),
		exams:        make(map[int64]*training.Exam),
		questions:    make(map[int64]*training.Question),
		days:         make(map[int64]*schedule.Day),
		shifts:       make(map[int64]*schedule.Shift),
	}
	return db, nil
}

// nextPK must be called with the write lock held.
func (db *DB) nextPK() int64 {
	db.pk++
	return db.pk
}
