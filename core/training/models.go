package training

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/crewdesk/core"
)

// Seasons
const (
	SeasonSpring = "SPRING"
	SeasonSummer = "SUMMER"
	SeasonFall   = "FALL"
	SeasonWinter = "WINTER"
)

var (
	Seasons = []string{SeasonSpring, SeasonSummer, SeasonFall, SeasonWinter}

	DefaultPassingScore = 90
)

// SeasonLabel returns the display form of a season, e.g. "Spring".
func SeasonLabel(season string) string {
	if season == "" {
		return ""
	}
	return season[:1] + strings.ToLower(season[1:])
}

type Exam struct {
	ID           int64     `json:"id"`
	JobID        int64     `json:"job_id"`
	JobTitle     string    `json:"job_title,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Season       string    `json:"season"`
	Year         int       `json:"year"`
	PassingScore int       `json:"passing_score"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

func (e Exam) SeasonLabel() string {
	return SeasonLabel(e.Season)
}

func (e Exam) String() string {
	return fmt.Sprintf("%s Exam - (%s %d)", e.JobTitle, e.SeasonLabel(), e.Year)
}

type Question struct {
	ID      int64    `json:"id"`
	ExamID  int64    `json:"exam_id"`
	Text    string   `json:"text"`
	Order   int      `json:"order"`
	Choices []Choice `json:"choices"`
}

type Choice struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct"`
}

// ExamResult is one graded attempt. Results are never updated; retakes add rows.
type ExamResult struct {
	ID          int64     `json:"id"`
	ProfileID   int64     `json:"profile_id"`
	ExamID      int64     `json:"exam_id"`
	Score       float64   `json:"score"`
	Passed      bool      `json:"passed"`
	SubmittedAt time.Time `json:"submitted_at"` // UTC
}

// Answers maps question ids to the selected choice id.
type Answers map[int64]int64

// Grade is the outcome of grading one submission.
type Grade struct {
	Score   float64    `json:"score"`
	Passed  bool       `json:"passed"`
	Correct int        `json:"correct"`
	Total   int        `json:"total"`
	Result  ExamResult `json:"result"`
}

// AvailableExam is an exam a profile may attempt, annotated with its latest attempt.
type AvailableExam struct {
	Exam
	HasTaken    bool       `json:"has_taken"`
	Passed      bool       `json:"passed"`
	Score       *float64   `json:"score"`
	LastAttempt *time.Time `json:"last_attempt"`
	CanRetake   bool       `json:"can_retake"`
}

type Availability struct {
	Exams []AvailableExam `json:"exams"`
	Error string          `json:"error,omitempty"`
}

// ExamStat holds the attempt counts of one exam.
type ExamStat struct {
	JobID       int64  `json:"job_id" db:"job_id"`
	JobTitle    string `json:"job" db:"job_title"`
	ExamID      int64  `json:"exam_id" db:"exam_id"`
	ExamTitle   string `json:"exam_title" db:"exam_title"`
	Season      string `json:"-" db:"season"`
	SeasonLabel string `json:"season" db:"-"`
	Year        int    `json:"year" db:"year"`
	TotalTakers int    `json:"total_takers" db:"total_takers"`
	Passed      int    `json:"passed" db:"passed"`
}

// ExamProgress pairs an exam with the latest result of a profile.
type ExamProgress struct {
	Exam   Exam       `json:"exam"`
	Result ExamResult `json:"result"`
}

// Progress is a profile's standing on the exams of its primary job.
// Total == Taken + RemainingCount and Taken == PassedCount + FailedCount.
type Progress struct {
	PrimaryJobID    int64          `json:"primary_job_id,omitempty"`
	PrimaryJobTitle string         `json:"primary_job,omitempty"`
	Total           int            `json:"total_exams"`
	Taken           int            `json:"taken_count"`
	PassedCount     int            `json:"passed_count"`
	FailedCount     int            `json:"failed_count"`
	RemainingCount  int            `json:"remaining_count"`
	Passed          []ExamProgress `json:"passed"`
	Failed          []ExamProgress `json:"failed"`
	Remaining       []Exam         `json:"remaining"`
	Error           string         `json:"error,omitempty"`
}

type NewExam struct {
	JobID        int64  `json:"job_id" yaml:"job_id" validate:"required"`
	Title        string `json:"title" yaml:"title" validate:"required,max=100"`
	Description  string `json:"description" yaml:"description" validate:"max=500"`
	Season       string `json:"season" yaml:"season" validate:"required,season"`
	Year         int    `json:"year" yaml:"year" validate:"required,min=2000,max=2100"`
	PassingScore *int   `json:"passing_score" yaml:"passing_score" validate:"omitempty,min=0,max=100"`
}

func (ne *NewExam) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)
	ne.Season = core.CleanString(ne.Season)
	ne.Season = strings.ToUpper(ne.Season)
	return validate.Struct(ne)
}

type NewChoice struct {
	Text      string `json:"text" yaml:"text" validate:"required,max=500"`
	IsCorrect bool   `json:"is_correct" yaml:"is_correct"`
}

type NewQuestion struct {
	Text    string      `json:"text" yaml:"text" validate:"required"`
	Order   int         `json:"order" yaml:"order" validate:"min=0"`
	Choices []NewChoice `json:"choices" yaml:"choices" validate:"required,dive"`
}

func (nq *NewQuestion) Validate(validate *validator.Validate) error {
	nq.Text = core.CleanString(nq.Text)
	for i := range nq.Choices {
		nq.Choices[i].Text = core.CleanString(nq.Choices[i].Text)
	}
	return validate.Struct(nq)
}

type ExamFilter struct {
	JobIDs []int64 `query:"job"`
}
