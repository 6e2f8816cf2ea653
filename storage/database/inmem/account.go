package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/crewdesk/core/account"
)

type accountRepository struct {
	db *DB
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) account.Repository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) CreateProfile(_ context.Context, prof account.Profile) (account.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, p := range repo.db.profiles {
		if p.UserID == prof.UserID {
			return *p, nil
		}
	}
	prof.ID = repo.db.nextPK()
	prof.PrimaryJobID = nil
	repo.db.profiles[prof.ID] = &prof
	return prof, nil
}

func (repo *accountRepository) GetProfile(_ context.Context, filter account.ProfileFilter) (account.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != 0 {
		if p, ok := repo.db.profiles[filter.ID]; ok {
			return *p, nil
		}
		return account.Profile{}, account.ErrProfileNotFound
	}

	userID := filter.UserID
	if userID == "" && filter.UserEmail != "" {
		for _, u := range repo.db.users {
			if u.Email == filter.UserEmail {
				userID = u.ID
				break
			}
		}
	}
	if userID != "" {
		for _, p := range repo.db.profiles {
			if p.UserID == userID {
				return *p, nil
			}
		}
	}
	return account.Profile{}, account.ErrProfileNotFound
}

func (repo *accountRepository) UpdateProfile(_ context.Context, prof account.Profile) (account.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.profiles[prof.ID]
	if !ok {
		return account.Profile{}, account.ErrProfileNotFound
	}
	if prof.LocationID != nil {
		if _, ok := repo.db.locations[*prof.LocationID]; !ok {
			return account.Profile{}, account.ErrLocationNotFound
		}
	}
	orig.Phone = prof.Phone
	orig.ShirtSize = prof.ShirtSize
	orig.LocationID = prof.LocationID
	return *orig, nil
}

func (repo *accountRepository) QueryLocations(_ context.Context) ([]account.Location, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	locs := make([]account.Location, 0, len(repo.db.locations))
	for _, l := range repo.db.locations {
		locs = append(locs, *l)
	}
	sort.Slice(locs, func(i, j int) bool {
		if locs[i].Name == locs[j].Name {
			return locs[i].ID < locs[j].ID
		}
		return locs[i].Name < locs[j].Name
	})
	return locs, nil
}

func (repo *accountRepository) GetLocation(_ context.Context, id int64) (account.Location, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if l, ok := repo.db.locations[id]; ok {
		return *l, nil
	}
	return account.Location{}, account.ErrLocationNotFound
}

func (repo *accountRepository) CreateLocation(_ context.Context, loc account.Location) (account.Location, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	loc.ID = repo.db.nextPK()
	repo.db.locations[loc.ID] = &loc
	return loc, nil
}

// deleteProfileOf cascades a user deletion to its profile. Requires the write lock.
func (db *DB) deleteProfileOf(userID string) {
	for id, p := range db.profiles {
		if p.UserID != userID {
			continue
		}
		delete(db.profiles, id)
		for ejID, ej := range db.employeeJobs {
			if ej.ProfileID == id {
				db.deleteEmployeeJob(ejID)
			}
		}
		kept := db.results[:0]
		for _, r := range db.results {
			if r.ProfileID != id {
				kept = append(kept, r)
			}
		}
		db.results = kept
		for _, d := range db.days {
			if d.CreatedBy != nil && *d.CreatedBy == id {
				d.CreatedBy = nil
			}
		}
	}
}
