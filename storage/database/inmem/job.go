package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/crewdesk/core/account"
	"github.com/trezcool/crewdesk/core/job"
)

type jobRepository struct {
	db *DB
}

var _ job.Repository = (*jobRepository)(nil) // interface compliance check

func NewJobRepository(db *DB) job.Repository {
	return &jobRepository{db: db}
}

func (repo *jobRepository) QueryJobs(_ context.Context) ([]job.Job, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	jobs := make([]job.Job, 0, len(repo.db.jobs))
	for _, j := range repo.db.jobs {
		jobs = append(jobs, *j)
	}
	sort.Slice(jobs, func(i, k int) bool {
		if jobs[i].Title == jobs[k].Title {
			return jobs[i].ID < jobs[k].ID
		}
		return jobs[i].Title < jobs[k].Title
	})
	return jobs, nil
}

func (repo *jobRepository) GetJob(_ context.Context, id int64) (job.Job, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if j, ok := repo.db.jobs[id]; ok {
		return *j, nil
	}
	return job.Job{}, job.ErrJobNotFound
}

func (repo *jobRepository) CreateJob(_ context.Context, j job.Job) (job.Job, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	j.ID = repo.db.nextPK()
	repo.db.jobs[j.ID] = &j
	return j, nil
}

func (repo *jobRepository) UpdateJob(_ context.Context, j job.Job) (job.Job, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.jobs[j.ID]; !ok {
		return job.Job{}, job.ErrJobNotFound
	}
	repo.db.jobs[j.ID] = &j
	return j, nil
}

func (repo *jobRepository) DeleteJob(_ context.Context, id int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.jobs[id]; !ok {
		return job.ErrJobNotFound
	}
	delete(repo.db.jobs, id)
	for ejID, ej := range repo.db.employeeJobs {
		if ej.JobID == id {
			repo.db.deleteEmployeeJob(ejID)
		}
	}
	for examID, e := range repo.db.exams {
		if e.JobID == id {
			repo.db.deleteExam(examID)
		}
	}
	return nil
}

// employeeJob fills the derived fields. Requires the read lock.
func (db *DB) employeeJob(ej job.EmployeeJob) job.EmployeeJob {
	if j, ok := db.jobs[ej.JobID]; ok {
		ej.JobTitle = j.Title
	}
	if p, ok := db.profiles[ej.ProfileID]; ok {
		ej.IsPrimary = p.PrimaryJobID != nil && *p.PrimaryJobID == ej.ID
	}
	return ej
}

func (repo *jobRepository) CreateEmployeeJob(_ context.Context, ej job.EmployeeJob) (job.EmployeeJob, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.jobs[ej.JobID]; !ok {
		return job.EmployeeJob{}, job.ErrJobNotFound
	}
	if _, ok := repo.db.profiles[ej.ProfileID]; !ok {
		return job.EmployeeJob{}, account.ErrProfileNotFound
	}
	for _, other := range repo.db.employeeJobs {
		if other.ProfileID == ej.ProfileID && other.JobID == ej.JobID {
			return job.EmployeeJob{}, job.ErrEmployeeJobExists
		}
	}

	ej.ID = repo.db.nextPK()
	ej.IsPrimary = false
	repo.db.employeeJobs[ej.ID] = &ej
	return repo.db.employeeJob(ej), nil
}

func (repo *jobRepository) QueryEmployeeJobs(_ context.Context, filter job.EmployeeJobFilter) ([]job.EmployeeJob, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ejs := make([]job.EmployeeJob, 0)
	for _, ej := range repo.db.employeeJobs {
		if filter.ProfileID != 0 && ej.ProfileID != filter.ProfileID {
			continue
		}
		if filter.JobID != 0 && ej.JobID != filter.JobID {
			continue
		}
		ejs = append(ejs, repo.db.employeeJob(*ej))
	}
	sort.Slice(ejs, func(i, k int) bool {
		if ejs[i].StartDate.Equal(ejs[k].StartDate) {
			return ejs[i].ID < ejs[k].ID
		}
		return ejs[i].StartDate.Before(ejs[k].StartDate)
	})
	return ejs, nil
}

func (repo *jobRepository) GetEmployeeJob(_ context.Context, id int64) (job.EmployeeJob, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if ej, ok := repo.db.employeeJobs[id]; ok {
		return repo.db.employeeJob(*ej), nil
	}
	return job.EmployeeJob{}, job.ErrEmployeeJobNotFound
}

// deleteEmployeeJob clears references to the employee job. Requires the write lock.
func (db *DB) deleteEmployeeJob(id int64) {
	ej, ok := db.employeeJobs[id]
	if !ok {
		return
	}
	delete(db.employeeJobs, id)
	if p, ok := db.profiles[ej.ProfileID]; ok && p.PrimaryJobID != nil && *p.PrimaryJobID == id {
		p.PrimaryJobID = nil
	}
	for _, s := range db.shifts {
		if s.EmployeeJobID != nil && *s.EmployeeJobID == id {
			s.EmployeeJobID = nil
		}
	}
}

func (repo *jobRepository) DeleteEmployeeJob(_ context.Context, id int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.employeeJobs[id]; !ok {
		return job.ErrEmployeeJobNotFound
	}
	repo.db.deleteEmployeeJob(id)
	return nil
}

func (repo *jobRepository) SetPrimaryJob(_ context.Context, profileID, employeeJobID int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	prof, ok := repo.db.profiles[profileID]
	if !ok {
		return job.ErrEmployeeJobNotFound
	}
	if employeeJobID == 0 {
		prof.PrimaryJobID = nil
		return nil
	}
	ej, ok := repo.db.employeeJobs[employeeJobID]
	if !ok || ej.ProfileID != profileID {
		return job.ErrEmployeeJobNotFound
	}
	id := employeeJobID
	prof.PrimaryJobID = &id
	return nil
}

func (repo *jobRepository) GetPrimaryJob(_ context.Context, profileID int64) (job.EmployeeJob, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	prof, ok := repo.db.profiles[profileID]
	if !ok || prof.PrimaryJobID == nil {
		return job.EmployeeJob{}, job.ErrNoPrimaryJob
	}
	ej, ok := repo.db.employeeJobs[*prof.PrimaryJobID]
	if !ok {
		return job.EmployeeJob{}, job.ErrNoPrimaryJob
	}
	return repo.db.employeeJob(*ej), nil
}
