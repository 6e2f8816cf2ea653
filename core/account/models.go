package account

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/crewdesk/core"
)

var ShirtSizes = []string{"XS", "S", "M", "L", "XL", "XXL"}

const DefaultPhone = "0000000000"

type Location struct {
	ID      int64  `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Address string `json:"address" db:"address"`
}

// Profile is a staff member's identity record, distinct from their login (user.User).
type Profile struct {
	ID           int64  `json:"id"`
	UserID       string `json:"user_id"`
	Phone        string `json:"phone"`
	ShirtSize    string `json:"shirt_size,omitempty"`
	LocationID   *int64 `json:"location_id"`
	PrimaryJobID *int64 `json:"primary_job_id"` // -> job.EmployeeJob of this profile
}

type NewLocation struct {
	Name    string `json:"name" validate:"required,max=100"`
	Address string `json:"address"`
}

func (nl *NewLocation) Validate(validate *validator.Validate) error {
	nl.Name = core.CleanString(nl.Name)
	nl.Address = core.CleanString(nl.Address)
	return validate.Struct(nl)
}

// UpdateProfile defines what a staff member may change on their own profile.
// nil fields are left unchanged; a zero LocationID clears the location.
type UpdateProfile struct {
	Phone      *string `json:"phone" validate:"omitempty,len=10,numeric"`
	ShirtSize  *string `json:"shirt_size" validate:"omitempty,shirtsize"`
	LocationID *int64  `json:"location_id" validate:"omitempty,min=0"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	if up.Phone != nil {
		phone := core.CleanString(*up.Phone)
		up.Phone = &phone
	}
	if up.ShirtSize != nil {
		size := core.CleanString(*up.ShirtSize)
		up.ShirtSize = &size
	}
	return validate.Struct(up)
}

// ProfileFilter selects a single Profile. The first non-empty field wins.
type ProfileFilter struct {
	ID        int64
	UserID    string
	UserEmail string
}
