package job

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/crewdesk/core"
)

// Departments
const (
	DeptManagement  = "Management"
	DeptFOH         = "FOH"
	DeptBOH         = "BOH"
	DeptMaintenance = "Maintenance"
)

var Departments = []string{DeptManagement, DeptFOH, DeptBOH, DeptMaintenance}

// Job is a named role in a department, e.g. "Server" in FOH.
type Job struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Department  string `json:"department,omitempty"`
}

func (j Job) String() string {
	return j.Title
}

// EmployeeJob assigns a Job to a profile. (ProfileID, JobID) pairs are unique.
type EmployeeJob struct {
	ID        int64     `json:"id"`
	ProfileID int64     `json:"profile_id"`
	JobID     int64     `json:"job_id"`
	JobTitle  string    `json:"job_title"`
	StartDate time.Time `json:"start_date"`
	PayRate   *float64  `json:"pay_rate"`
	// IsPrimary is derived from the owning profile's primary job.
	IsPrimary bool `json:"is_primary"`
}

type NewJob struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description"`
	Department  string `json:"department" validate:"omitempty,department"`
}

func (nj *NewJob) Validate(validate *validator.Validate) error {
	nj.Title = core.CleanString(nj.Title)
	nj.Description = core.CleanString(nj.Description)
	nj.Department = core.CleanString(nj.Department)
	return validate.Struct(nj)
}

// NewEmployeeJob contains information needed to assign a job to a profile.
type NewEmployeeJob struct {
	ProfileID int64     `json:"profile_id" validate:"required"`
	JobID     int64     `json:"job_id" validate:"required"`
	StartDate time.Time `json:"start_date"`
	PayRate   *float64  `json:"pay_rate" validate:"omitempty,min=0"`
	IsPrimary bool      `json:"is_primary"`
}

func (ne *NewEmployeeJob) Validate(validate *validator.Validate) error {
	if ne.StartDate.IsZero() {
		ne.StartDate = time.Now().UTC().Truncate(24 * time.Hour)
	}
	return validate.Struct(ne)
}

type EmployeeJobFilter struct {
	ProfileID int64 `query:"profile_id"`
	JobID     int64 `query:"job_id"`
}
