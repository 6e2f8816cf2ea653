package account

import (
	"github.com/pkg/errors"

	"github.com/trezcool/crewdesk/core"
)

// ErrNoProfile is returned when an operation needs a profile and the caller has none.
var ErrNoProfile = errors.New("no profile attached to this account")

// Caller is the authenticated identity an operation runs on behalf of.
// Operations check the capabilities they need explicitly.
type Caller struct {
	UserID    string
	Name      string
	Email     string
	ProfileID int64 // 0: no profile
	IsManager bool
}

func (c Caller) HasProfile() bool {
	return c.ProfileID != 0
}

// RequireProfile returns the caller's profile ID or ErrNoProfile.
func (c Caller) RequireProfile() (int64, error) {
	if !c.HasProfile() {
		return 0, ErrNoProfile
	}
	return c.ProfileID, nil
}

// RequireManager returns core.ErrForbidden unless the caller is a manager (or admin).
func (c Caller) RequireManager() error {
	if !c.IsManager {
		return core.ErrForbidden
	}
	return nil
}
