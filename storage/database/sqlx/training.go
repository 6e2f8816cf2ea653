package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/crewdesk/core"
	"github.com/trezcool/crewdesk/core/job"
	"github.com/trezcool/crewdesk/core/training"
	"github.com/trezcool/crewdesk/storage/database"
)

const resultColumns = "id, profile_id, exam_id, score, passed, submitted_at"

var examColumns = []string{
	"e.id", "e.job_id", "j.title AS job_title", "e.title", "e.description", "e.season", "e.year",
	"e.passing_score", "e.created_at",
}

type examRow struct {
	ID           int64       `db:"id"`
	JobID        int64       `db:"job_id"`
	JobTitle     string      `db:"job_title"`
	Title        string      `db:"title"`
	Description  null.String `db:"description"`
	Season       string      `db:"season"`
	Year         int         `db:"year"`
	PassingScore int         `db:"passing_score"`
	CreatedAt    time.Time   `db:"created_at"`
}

func toExamRow(e training.Exam) examRow {
	return examRow{
		ID:           e.ID,
		JobID:        e.JobID,
		JobTitle:     e.JobTitle,
		Title:        e.Title,
		Description:  null.NewString(e.Description, e.Description != ""),
		Season:       e.Season,
		Year:         e.Year,
		PassingScore: e.PassingScore,
		CreatedAt:    e.CreatedAt.UTC(),
	}
}

func (r examRow) exam() training.Exam {
	return training.Exam{
		ID:           r.ID,
		JobID:        r.JobID,
		JobTitle:     r.JobTitle,
		Title:        r.Title,
		Description:  r.Description.String,
		Season:       r.Season,
		Year:         r.Year,
		PassingScore: r.PassingScore,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

type questionRow struct {
	ID     int64  `db:"id"`
	ExamID int64  `db:"exam_id"`
	Text   string `db:"text"`
	Order  int    `db:"position"`
}

type choiceRow struct {
	ID         int64  `db:"id"`
	QuestionID int64  `db:"question_id"`
	Text       string `db:"text"`
	IsCorrect  bool   `db:"is_correct"`
}

type resultRow struct {
	ID          int64     `db:"id"`
	ProfileID   int64     `db:"profile_id"`
	ExamID      int64     `db:"exam_id"`
	Score       float64   `db:"score"`
	Passed      bool      `db:"passed"`
	SubmittedAt time.Time `db:"submitted_at"`
}

func (r resultRow) result() training.ExamResult {
	return training.ExamResult{
		ID:          r.ID,
		ProfileID:   r.ProfileID,
		ExamID:      r.ExamID,
		Score:       r.Score,
		Passed:      r.Passed,
		SubmittedAt: r.SubmittedAt.UTC(),
	}
}

type trainingRepository struct {
	db core.DB
}

var _ training.Repository = (*trainingRepository)(nil) // interface compliance check

func NewTrainingRepository(db core.DB) training.Repository {
	return &trainingRepository{db: db}
}

func (repo *trainingRepository) examsQuery() sq.SelectBuilder {
	return psql.Select(examColumns...).From("exam e").Join("job j ON j.id = e.job_id")
}

func (repo *trainingRepository) QueryExams(ctx context.Context, filter training.ExamFilter) ([]training.Exam, error) {
	b := repo.examsQuery().OrderBy("e.year DESC", "e.season DESC", "e.id")
	if filter.JobIDs != nil {
		b = b.Where(sq.Eq{"e.job_id": filter.JobIDs})
	}

	var rows []examRow
	if err := selectBuilt(ctx, repo.db, &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying exams")
	}
	exams := make([]training.Exam, 0, len(rows))
	for _, r := range rows {
		exams = append(exams, r.exam())
	}
	return exams, nil
}

func (repo *trainingRepository) GetExam(ctx context.Context, id int64) (training.Exam, error) {
	var row examRow
	if err := getBuilt(ctx, repo.db, &row, repo.examsQuery().Where(sq.Eq{"e.id": id})); err != nil {
		return training.Exam{}, trapNoRowsErr(err, training.ErrExamNotFound, "getting exam")
	}
	return row.exam(), nil
}

func (repo *trainingRepository) trapExamErr(err error, msg string) error {
	switch {
	case database.IsUniqueViolation(err, "exam_job_season_year_key"):
		return training.ErrExamExists
	case database.IsForeignKeyViolation(err, "exam_job_id_fkey"):
		return job.ErrJobNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *trainingRepository) CreateExam(ctx context.Context, e training.Exam) (training.Exam, error) {
	row := toExamRow(e)
	err := sqlx.GetContext(ctx, repo.db, &row.ID, `
		INSERT INTO exam (title, description, job_id, season, year, passing_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		row.Title, row.Description, row.JobID, row.Season, row.Year, row.PassingScore, row.CreatedAt)
	if err != nil {
		return training.Exam{}, repo.trapExamErr(err, "inserting exam")
	}
	return repo.GetExam(ctx, row.ID)
}

func (repo *trainingRepository) UpdateExam(ctx context.Context, e training.Exam) (training.Exam, error) {
	row := toExamRow(e)
	res, err := sqlx.NamedExecContext(ctx, repo.db, `
		UPDATE exam SET
			title = :title, description = :description, job_id = :job_id, season = :season,
			year = :year, passing_score = :passing_score
		WHERE id = :id`,
		row)
	if err != nil {
		return training.Exam{}, repo.trapExamErr(err, "updating exam")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return training.Exam{}, training.ErrExamNotFound
	}
	return repo.GetExam(ctx, row.ID)
}

func (repo *trainingRepository) DeleteExam(ctx context.Context, id int64) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM exam WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting exam")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return training.ErrExamNotFound
	}
	return nil
}

func (repo *trainingRepository) CreateQuestion(ctx context.Context, q training.Question) (training.Question, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &q.ID,
			"INSERT INTO question (exam_id, text, position) VALUES ($1, $2, $3) RETURNING id",
			q.ExamID, q.Text, q.Order)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return training.ErrExamNotFound
			}
			return errors.Wrap(err, "inserting question")
		}
		for i := range q.Choices {
			q.Choices[i].QuestionID = q.ID
			err = tx.GetContext(ctx, &q.Choices[i].ID,
				"INSERT INTO choice (question_id, text, is_correct) VALUES ($1, $2, $3) RETURNING id",
				q.ID, q.Choices[i].Text, q.Choices[i].IsCorrect)
			if err != nil {
				return errors.Wrap(err, "inserting choice")
			}
		}
		return nil
	})
	if err != nil {
		return training.Question{}, err
	}
	return q, nil
}

func (repo *trainingRepository) QueryQuestions(ctx context.Context, examID int64) ([]training.Question, error) {
	var qRows []questionRow
	err := sqlx.SelectContext(ctx, repo.db, &qRows,
		"SELECT id, exam_id, text, position FROM question WHERE exam_id = $1 ORDER BY position, id", examID)
	if err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}

	var cRows []choiceRow
	err = sqlx.SelectContext(ctx, repo.db, &cRows, `
		SELECT c.id, c.question_id, c.text, c.is_correct
		FROM choice c JOIN question q ON q.id = c.question_id
		WHERE q.exam_id = $1
		ORDER BY c.id`,
		examID)
	if err != nil {
		return nil, errors.Wrap(err, "querying choices")
	}
	choices := make(map[int64][]training.Choice, len(qRows))
	for _, c := range cRows {
		choices[c.QuestionID] = append(choices[c.QuestionID], training.Choice{
			ID:         c.ID,
			QuestionID: c.QuestionID,
			Text:       c.Text,
			IsCorrect:  c.IsCorrect,
		})
	}

	questions := make([]training.Question, 0, len(qRows))
	for _, r := range qRows {
		q := training.Question{ID: r.ID, ExamID: r.ExamID, Text: r.Text, Order: r.Order, Choices: choices[r.ID]}
		if q.Choices == nil {
			q.Choices = []training.Choice{}
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (repo *trainingRepository) CreateResult(ctx context.Context, r training.ExamResult) (training.ExamResult, error) {
	err := sqlx.GetContext(ctx, repo.db, &r.ID, `
		INSERT INTO exam_result (profile_id, exam_id, score, passed, submitted_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		r.ProfileID, r.ExamID, r.Score, r.Passed, r.SubmittedAt.UTC())
	if err != nil {
		return training.ExamResult{}, errors.Wrap(err, "inserting exam result")
	}
	return r, nil
}

func (repo *trainingRepository) queryResults(ctx context.Context, query string, args ...interface{}) ([]training.ExamResult, error) {
	var rows []resultRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, query, args...); err != nil {
		return nil, err
	}
	results := make([]training.ExamResult, 0, len(rows))
	for _, r := range rows {
		results = append(results, r.result())
	}
	return results, nil
}

func (repo *trainingRepository) QueryResults(ctx context.Context, profileID int64) ([]training.ExamResult, error) {
	results, err := repo.queryResults(ctx,
		"SELECT "+resultColumns+" FROM exam_result WHERE profile_id = $1 ORDER BY submitted_at DESC, id DESC",
		profileID)
	return results, errors.Wrap(err, "querying exam results")
}

func (repo *trainingRepository) PassedExamIDs(ctx context.Context, profileID int64) ([]int64, error) {
	ids := make([]int64, 0)
	err := sqlx.SelectContext(ctx, repo.db, &ids,
		"SELECT DISTINCT exam_id FROM exam_result WHERE profile_id = $1 AND passed", profileID)
	if err != nil {
		return nil, errors.Wrap(err, "querying passed exams")
	}
	return ids, nil
}

func (repo *trainingRepository) LatestResults(ctx context.Context, profileID int64, examIDs []int64) (map[int64]training.ExamResult, error) {
	latest := make(map[int64]training.ExamResult, len(examIDs))
	if len(examIDs) == 0 {
		return latest, nil
	}
	results, err := repo.queryResults(ctx, `
		SELECT DISTINCT ON (exam_id) `+resultColumns+`
		FROM exam_result
		WHERE profile_id = $1 AND exam_id = ANY($2)
		ORDER BY exam_id, submitted_at DESC, id DESC`,
		profileID, pq.Array(examIDs))
	if err != nil {
		return nil, errors.Wrap(err, "querying latest results")
	}
	for _, r := range results {
		latest[r.ExamID] = r
	}
	return latest, nil
}

func (repo *trainingRepository) ExamStats(ctx context.Context) ([]training.ExamStat, error) {
	stats := make([]training.ExamStat, 0)
	err := sqlx.SelectContext(ctx, repo.db, &stats, `
		SELECT
			j.id AS job_id, j.title AS job_title, e.id AS exam_id, e.title AS exam_title, e.season, e.year,
			COUNT(r.id) AS total_takers,
			COUNT(r.id) FILTER (WHERE r.passed) AS passed
		FROM job j
		JOIN exam e ON e.job_id = j.id
		LEFT JOIN exam_result r ON r.exam_id = e.id
		GROUP BY j.id, e.id
		ORDER BY j.title, j.id, e.year DESC, e.season DESC, e.id`)
	if err != nil {
		return nil, errors.Wrap(err, "querying exam stats")
	}
	return stats, nil
}
