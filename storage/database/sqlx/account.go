package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/crewdesk/core"
	"github.com/trezcool/crewdesk/core/account"
	"github.com/trezcool/crewdesk/storage/database"
)

var profileColumns = []string{"p.id", "p.user_id", "p.phone", "p.shirt_size", "p.location_id", "p.primary_job_id"}

type profileRow struct {
	ID           int64       `db:"id"`
	UserID       string      `db:"user_id"`
	Phone        string      `db:"phone"`
	ShirtSize    null.String `db:"shirt_size"`
	LocationID   null.Int64  `db:"location_id"`
	PrimaryJobID null.Int64  `db:"primary_job_id"`
}

func toProfileRow(prof account.Profile) profileRow {
	return profileRow{
		ID:           prof.ID,
		UserID:       prof.UserID,
		Phone:        prof.Phone,
		ShirtSize:    null.NewString(prof.ShirtSize, prof.ShirtSize != ""),
		LocationID:   null.Int64FromPtr(prof.LocationID),
		PrimaryJobID: null.Int64FromPtr(prof.PrimaryJobID),
	}
}

func (r profileRow) profile() account.Profile {
	return account.Profile{
		ID:           r.ID,
		UserID:       r.UserID,
		Phone:        r.Phone,
		ShirtSize:    r.ShirtSize.String,
		LocationID:   r.LocationID.Ptr(),
		PrimaryJobID: r.PrimaryJobID.Ptr(),
	}
}

type accountRepository struct {
	db core.DB
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db core.DB) account.Repository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) CreateProfile(ctx context.Context, prof account.Profile) (account.Profile, error) {
	row := toProfileRow(prof)
	query, args, err := sqlx.Named(`
		INSERT INTO profile (user_id, phone, shirt_size, location_id)
		VALUES (:user_id, :phone, :shirt_size, :location_id)
		RETURNING id`,
		row)
	if err != nil {
		return account.Profile{}, errors.Wrap(err, "binding profile")
	}
	if err = sqlx.GetContext(ctx, repo.db, &row.ID, repo.db.Rebind(query), args...); err != nil {
		if database.IsUniqueViolation(err, "profile_user_id_key") {
			// created concurrently
			return repo.GetProfile(ctx, account.ProfileFilter{UserID: prof.UserID})
		}
		return account.Profile{}, errors.Wrap(err, "inserting profile")
	}
	return row.profile(), nil
}

func (repo *accountRepository) GetProfile(ctx context.Context, filter account.ProfileFilter) (account.Profile, error) {
	b := psql.Select(profileColumns...).From("profile p")
	switch {
	case filter.ID != 0:
		b = b.Where(sq.Eq{"p.id": filter.ID})
	case filter.UserID != "":
		b = b.Where("p.user_id::text = ?", filter.UserID)
	case filter.UserEmail != "":
		b = b.Join(`"user" u ON u.id = p.user_id`).Where(sq.Eq{"u.email": filter.UserEmail})
	default:
		return account.Profile{}, account.ErrProfileNotFound
	}

	var row profileRow
	if err := getBuilt(ctx, repo.db, &row, b); err != nil {
		return account.Profile{}, trapNoRowsErr(err, account.ErrProfileNotFound, "getting profile")
	}
	return row.profile(), nil
}

func (repo *accountRepository) UpdateProfile(ctx context.Context, prof account.Profile) (account.Profile, error) {
	row := toProfileRow(prof)
	res, err := sqlx.NamedExecContext(ctx, repo.db, `
		UPDATE profile SET phone = :phone, shirt_size = :shirt_size, location_id = :location_id
		WHERE id = :id`,
		row)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return account.Profile{}, account.ErrLocationNotFound
		}
		return account.Profile{}, errors.Wrap(err, "updating profile")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return account.Profile{}, account.ErrProfileNotFound
	}
	// primary_job_id is owned by the job repository; re-read it
	return repo.GetProfile(ctx, account.ProfileFilter{ID: prof.ID})
}

func (repo *accountRepository) QueryLocations(ctx context.Context) ([]account.Location, error) {
	locs := make([]account.Location, 0)
	if err := sqlx.SelectContext(ctx, repo.db, &locs, "SELECT id, name, address FROM location ORDER BY name, id"); err != nil {
		return nil, errors.Wrap(err, "querying locations")
	}
	return locs, nil
}

func (repo *accountRepository) GetLocation(ctx context.Context, id int64) (account.Location, error) {
	var loc account.Location
	if err := sqlx.GetContext(ctx, repo.db, &loc, "SELECT id, name, address FROM location WHERE id = $1", id); err != nil {
		return account.Location{}, trapNoRowsErr(err, account.ErrLocationNotFound, "getting location")
	}
	return loc, nil
}

func (repo *accountRepository) CreateLocation(ctx context.Context, loc account.Location) (account.Location, error) {
	err := sqlx.GetContext(ctx, repo.db, &loc.ID,
		"INSERT INTO location (name, address) VALUES ($1, $2) RETURNING id", loc.Name, loc.Address)
	if err != nil {
		return account.Location{}, errors.Wrap(err, "inserting location")
	}
	return loc, nil
}
