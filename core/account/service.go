package account

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/crewdesk/core"
	"github.com/trezcool/crewdesk/core/user"
)

var (
	// errors
	ErrProfileNotFound  = errors.New("profile not found")
	ErrLocationNotFound = errors.New("location not found")

	shirtSizeTag = "shirtsize"
)

type (
	Repository interface {
		CreateProfile(ctx context.Context, prof Profile) (Profile, error)
		GetProfile(ctx context.Context, filter ProfileFilter) (Profile, error)
		// UpdateProfile saves phone, shirt size and location; the primary job is owned by job.Repository.
		UpdateProfile(ctx context.Context, prof Profile) (Profile, error)
		QueryLocations(ctx context.Context) ([]Location, error)
		GetLocation(ctx context.Context, id int64) (Location, error)
		CreateLocation(ctx context.Context, loc Location) (Location, error)
	}

	Service interface {
		// EnsureProfile returns the profile of the given user, creating an empty one if needed.
		EnsureProfile(ctx context.Context, userID string) (Profile, error)
		GetByID(ctx context.Context, id int64) (Profile, error)
		GetByUserID(ctx context.Context, userID string) (Profile, error)
		GetByEmail(ctx context.Context, email string) (Profile, error)
		Update(ctx context.Context, caller Caller, up UpdateProfile) (Profile, error)
		QueryLocations(ctx context.Context) ([]Location, error)
		CreateLocation(ctx context.Context, caller Caller, nl NewLocation) (Location, error)
		// Caller resolves the capabilities of an authenticated user.
		Caller(ctx context.Context, usr user.User) (Caller, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// InitValidators registers the account validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterChoiceValidation(validate, translator, shirtSizeTag, ShirtSizes)
}

func (svc *service) EnsureProfile(ctx context.Context, userID string) (Profile, error) {
	prof, err := svc.repo.GetProfile(ctx, ProfileFilter{UserID: userID})
	if err == nil {
		return prof, nil
	}
	if errors.Cause(err) != ErrProfileNotFound {
		return Profile{}, errors.Wrap(err, "finding profile")
	}
	return svc.repo.CreateProfile(ctx, Profile{UserID: userID, Phone: DefaultPhone})
}

func (svc *service) GetByID(ctx context.Context, id int64) (Profile, error) {
	return svc.repo.GetProfile(ctx, ProfileFilter{ID: id})
}

func (svc *service) GetByUserID(ctx context.Context, userID string) (Profile, error) {
	return svc.repo.GetProfile(ctx, ProfileFilter{UserID: userID})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (Profile, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return Profile{}, ErrProfileNotFound
	}
	return svc.repo.GetProfile(ctx, ProfileFilter{UserEmail: email})
}

func (svc *service) Update(ctx context.Context, caller Caller, up UpdateProfile) (Profile, error) {
	profID, err := caller.RequireProfile()
	if err != nil {
		return Profile{}, err
	}
	prof, err := svc.repo.GetProfile(ctx, ProfileFilter{ID: profID})
	if err != nil {
		return Profile{}, errors.Wrap(err, "finding profile")
	}

	if up.Phone != nil {
		prof.Phone = *up.Phone
		if prof.Phone == "" {
			prof.Phone = DefaultPhone
		}
	}
	if up.ShirtSize != nil {
		prof.ShirtSize = *up.ShirtSize
	}
	if up.LocationID != nil {
		if *up.LocationID == 0 {
			prof.LocationID = nil
		} else {
			if _, err := svc.repo.GetLocation(ctx, *up.LocationID); err != nil {
				if errors.Cause(err) == ErrLocationNotFound {
					return Profile{}, core.NewValidationError(err, core.FieldError{Field: "location_id", Error: err.Error()})
				}
				return Profile{}, errors.Wrap(err, "finding location")
			}
			locID := *up.LocationID
			prof.LocationID = &locID
		}
	}
	return svc.repo.UpdateProfile(ctx, prof)
}

func (svc *service) QueryLocations(ctx context.Context) ([]Location, error) {
	return svc.repo.QueryLocations(ctx)
}

func (svc *service) CreateLocation(ctx context.Context, caller Caller, nl NewLocation) (Location, error) {
	if err := caller.RequireManager(); err != nil {
		return Location{}, err
	}
	return svc.repo.CreateLocation(ctx, Location{Name: nl.Name, Address: nl.Address})
}

func (svc *service) Caller(ctx context.Context, usr user.User) (Caller, error) {
	caller := Caller{
		UserID:    usr.ID,
		Name:      usr.Name,
		Email:     usr.Email,
		IsManager: usr.IsManager(),
	}
	prof, err := svc.repo.GetProfile(ctx, ProfileFilter{UserID: usr.ID})
	switch errors.Cause(err) {
	case nil:
		caller.ProfileID = prof.ID
	case ErrProfileNotFound: // an account without a profile is still a valid caller
	default:
		return Caller{}, errors.Wrap(err, "finding profile")
	}
	return caller, nil
}
