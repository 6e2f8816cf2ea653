package schedule

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/crewdesk/core"
)

// Shift types
const (
	ShiftAM  = "AM"
	ShiftMID = "MID"
	ShiftPM  = "PM"
)

const dateLayout = "2006-01-02"

var ShiftTypes = []string{ShiftAM, ShiftMID, ShiftPM}

type Day struct {
	ID             int64     `json:"id"`
	Date           time.Time `json:"date"`
	ProjectedSales float64   `json:"projected_sales"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	CreatedBy      *int64    `json:"created_by"` // profile
	Shifts         []Shift   `json:"shifts,omitempty"`
}

type Shift struct {
	ID            int64     `json:"id"`
	DayID         int64     `json:"day_id"`
	Date          time.Time `json:"date"`
	EmployeeJobID *int64    `json:"employee_job_id"`
	ShiftType     string    `json:"shift_type"`
	SectionNumber *int      `json:"section_number"`
	StartTime     Clock     `json:"start_time"`
	EndTime       Clock     `json:"end_time"`
}

// Hours is the shift length in hours, rounded to 2 decimals.
// A shift ending before it starts runs past midnight.
func (s Shift) Hours() float64 {
	mins := s.EndTime.minutes() - s.StartTime.minutes()
	if mins < 0 {
		mins += 24 * 60
	}
	return core.Round2(float64(mins) / 60)
}

// ProfileSchedule lists a profile's shifts with their total hours.
type ProfileSchedule struct {
	Shifts     []Shift `json:"shifts"`
	TotalHours float64 `json:"total_hours"`
}

type NewDay struct {
	Date           string  `json:"date" validate:"required,datetime=2006-01-02"`
	ProjectedSales float64 `json:"projected_sales" validate:"min=0"`
}

func (nd *NewDay) Validate(validate *validator.Validate) error {
	nd.Date = core.CleanString(nd.Date)
	return validate.Struct(nd)
}

func (nd NewDay) date() time.Time {
	d, _ := time.Parse(dateLayout, nd.Date)
	return d
}

type NewShift struct {
	EmployeeJobID int64  `json:"employee_job_id" validate:"required"`
	ShiftType     string `json:"shift_type" validate:"omitempty,shifttype"`
	SectionNumber *int   `json:"section_number" validate:"omitempty,min=0"`
	StartTime     string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime       string `json:"end_time" validate:"required,datetime=15:04"`
}

func (ns *NewShift) Validate(validate *validator.Validate) error {
	ns.ShiftType = core.CleanString(ns.ShiftType)
	ns.StartTime = core.CleanString(ns.StartTime)
	ns.EndTime = core.CleanString(ns.EndTime)
	return validate.Struct(ns)
}

// DayFilter bounds days by date, both ends inclusive. Zero values are open ends.
type DayFilter struct {
	From time.Time `query:"from"`
	To   time.Time `query:"to"`
}
