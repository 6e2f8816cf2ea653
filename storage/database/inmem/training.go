package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/crewdesk/core/job"
	"github.com/trezcool/crewdesk/core/training"
)

type trainingRepository struct {
	db *DB
}

var _ training.Repository = (*trainingRepository)(nil) // interface compliance check

func NewTrainingRepository(db *DB) training.Repository {
	return &trainingRepository{db: db}
}

// exam fills the derived fields. Requires the read lock.
func (db *DB) exam(e training.Exam) training.Exam {
	if j, ok := db.jobs[e.JobID]; ok {
		e.JobTitle = j.Title
	}
	return e
}

// deleteExam cascades to questions and results. Requires the write lock.
func (db *DB) deleteExam(id int64) {
	delete(db.exams, id)
	for qID, q := range db.questions {
		if q.ExamID == id {
			delete(db.questions, qID)
		}
	}
	kept := db.results[:0]
	for _, r := range db.results {
		if r.ExamID != id {
			kept = append(kept, r)
		}
	}
	db.results = kept
}

func (repo *trainingRepository) QueryExams(_ context.Context, filter training.ExamFilter) ([]training.Exam, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var jobIDs map[int64]bool
	if filter.JobIDs != nil {
		jobIDs = make(map[int64]bool, len(filter.JobIDs))
		for _, id := range filter.JobIDs {
			jobIDs[id] = true
		}
	}

	exams := make([]training.Exam, 0)
	for _, e := range repo.db.exams {
		if jobIDs != nil && !jobIDs[e.JobID] {
			continue
		}
		exams = append(exams, repo.db.exam(*e))
	}
	sort.Slice(exams, func(i, j int) bool {
		a, b := exams[i], exams[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Season != b.Season {
			return a.Season > b.Season
		}
		return a.ID < b.ID
	})
	return exams, nil
}

func (repo *trainingRepository) GetExam(_ context.Context, id int64) (training.Exam, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if e, ok := repo.db.exams[id]; ok {
		return repo.db.exam(*e), nil
	}
	return training.Exam{}, training.ErrExamNotFound
}

// checkExam enforces the job reference and the (job, season, year) key. Requires the read lock.
func (db *DB) checkExam(e training.Exam) error {
	if _, ok := db.jobs[e.JobID]; !ok {
		return job.ErrJobNotFound
	}
	for _, other := range db.exams {
		if other.ID != e.ID && other.JobID == e.JobID && other.Season == e.Season && other.Year == e.Year {
			return training.ErrExamExists
		}
	}
	return nil
}

func (repo *trainingRepository) CreateExam(_ context.Context, e training.Exam) (training.Exam, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.db.checkExam(e); err != nil {
		return training.Exam{}, err
	}
	e.ID = repo.db.nextPK()
	repo.db.exams[e.ID] = &e
	return repo.db.exam(e), nil
}

func (repo *trainingRepository) UpdateExam(_ context.Context, e training.Exam) (training.Exam, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.exams[e.ID]
	if !ok {
		return training.Exam{}, training.ErrExamNotFound
	}
	if err := repo.db.checkExam(e); err != nil {
		return training.Exam{}, err
	}
	e.CreatedAt = orig.CreatedAt
	repo.db.exams[e.ID] = &e
	return repo.db.exam(e), nil
}

func (repo *trainingRepository) DeleteExam(_ context.Context, id int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.exams[id]; !ok {
		return training.ErrExamNotFound
	}
	repo.db.deleteExam(id)
	return nil
}

func (repo *trainingRepository) CreateQuestion(_ context.Context, q training.Question) (training.Question, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.exams[q.ExamID]; !ok {
		return training.Question{}, training.ErrExamNotFound
	}
	q.ID = repo.db.nextPK()
	choices := make([]training.Choice, 0, len(q.Choices))
	for _, c := range q.Choices {
		c.ID = repo.db.nextPK()
		c.QuestionID = q.ID
		choices = append(choices, c)
	}
	q.Choices = choices

	stored := q
	stored.Choices = append([]training.Choice(nil), choices...)
	repo.db.questions[q.ID] = &stored
	return q, nil
}

func (repo *trainingRepository) QueryQuestions(_ context.Context, examID int64) ([]training.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	questions := make([]training.Question, 0)
	for _, q := range repo.db.questions {
		if q.ExamID != examID {
			continue
		}
		cp := *q
		cp.Choices = append([]training.Choice{}, q.Choices...)
		questions = append(questions, cp)
	}
	sort.Slice(questions, func(i, j int) bool {
		if questions[i].Order == questions[j].Order {
			return questions[i].ID < questions[j].ID
		}
		return questions[i].Order < questions[j].Order
	})
	return questions, nil
}

func (repo *trainingRepository) CreateResult(_ context.Context, r training.ExamResult) (training.ExamResult, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.exams[r.ExamID]; !ok {
		return training.ExamResult{}, training.ErrExamNotFound
	}
	r.ID = repo.db.nextPK()
	repo.db.results = append(repo.db.results, r)
	return r, nil
}

// newerResult orders results by submitted_at then id.
func newerResult(a, b training.ExamResult) bool {
	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.SubmittedAt.After(b.SubmittedAt)
	}
	return a.ID > b.ID
}

func (repo *trainingRepository) QueryResults(_ context.Context, profileID int64) ([]training.ExamResult, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	results := make([]training.ExamResult, 0)
	for _, r := range repo.db.results {
		if r.ProfileID == profileID {
			results = append(results, r)
		}
	}
	sort.Slice(results, func(i, j int) bool { return newerResult(results[i], results[j]) })
	return results, nil
}

func (repo *trainingRepository) PassedExamIDs(_ context.Context, profileID int64) ([]int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	seen := make(map[int64]bool)
	ids := make([]int64, 0)
	for _, r := range repo.db.results {
		if r.ProfileID == profileID && r.Passed && !seen[r.ExamID] {
			seen[r.ExamID] = true
			ids = append(ids, r.ExamID)
		}
	}
	return ids, nil
}

func (repo *trainingRepository) LatestResults(_ context.Context, profileID int64, examIDs []int64) (map[int64]training.ExamResult, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	wanted := make(map[int64]bool, len(examIDs))
	for _, id := range examIDs {
		wanted[id] = true
	}
	latest := make(map[int64]training.ExamResult, len(examIDs))
	for _, r := range repo.db.results {
		if r.ProfileID != profileID || !wanted[r.ExamID] {
			continue
		}
		if cur, ok := latest[r.ExamID]; !ok || newerResult(r, cur) {
			latest[r.ExamID] = r
		}
	}
	return latest, nil
}

func (repo *trainingRepository) ExamStats(_ context.Context) ([]training.ExamStat, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	stats := make([]training.ExamStat, 0, len(repo.db.exams))
	for _, e := range repo.db.exams {
		j, ok := repo.db.jobs[e.JobID]
		if !ok {
			continue
		}
		st := training.ExamStat{
			JobID:     j.ID,
			JobTitle:  j.Title,
			ExamID:    e.ID,
			ExamTitle: e.Title,
			Season:    e.Season,
			Year:      e.Year,
		}
		for _, r := range repo.db.results {
			if r.ExamID == e.ID {
				st.TotalTakers++
				if r.Passed {
					st.Passed++
				}
			}
		}
		stats = append(stats, st)
	}
	sort.Slice(stats, func(i, k int) bool {
		a, b := stats[i], stats[k]
		switch {
		case a.JobTitle != b.JobTitle:
			return a.JobTitle < b.JobTitle
		case a.JobID != b.JobID:
			return a.JobID < b.JobID
		case a.Year != b.Year:
			return a.Year > b.Year
		case a.Season != b.Season:
			return a.Season > b.Season
		}
		return a.ExamID < b.ExamID
	})
	return stats, nil
}
