package echoapi_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/crewdesk/apps/api/echo"
	"github.com/trezcool/crewdesk/core/account"
	"github.com/trezcool/crewdesk/core/job"
	"github.com/trezcool/crewdesk/core/user"
)

func Test_jobApi(t *testing.T) {
	srv, env := setup(t)
	staffUsr, staff := env.Staff(t, "staff01")
	_, other := env.Staff(t, "staff02")
	mgrUsr, _ := env.Staff(t, "boss01", user.RoleManager)
	staffToken, mgrToken := getToken(t, env, staffUsr), getToken(t, env, mgrUsr)

	server, host := env.Job(t, "Server"), env.Job(t, "Host")
	serverEJ := env.Assign(t, staff.ProfileID, server.ID, true)
	hostEJ := env.Assign(t, staff.ProfileID, host.ID, false)
	otherEJ := env.Assign(t, other.ProfileID, host.ID, false)

	assign := func(profID, jobID int64) []byte {
		return marshalObj(t, job.NewEmployeeJob{ProfileID: profID, JobID: jobID})
	}
	primary := func(ejID int64) []byte {
		return marshalObj(t, echoapi.PrimaryJobRequest{EmployeeJobID: ejID})
	}
	primaryPath := func(profID int64) string { return fmt.Sprintf("/v1/profiles/%d/primary-job", profID) }

	runTests(t, srv, []httpTest{
		{name: "create job: manager required", method: http.MethodPost, path: "/v1/jobs", token: staffToken, body: marshalObj(t, job.NewJob{Title: "Cook"}), wantCode: http.StatusForbidden},
		{
			name: "create job: no title", method: http.MethodPost, path: "/v1/jobs", token: mgrToken, body: marshalObj(t, job.NewJob{}),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"title": "this field is required"}`),
		},
		{name: "create job", method: http.MethodPost, path: "/v1/jobs", token: mgrToken, body: marshalObj(t, job.NewJob{Title: "Cook"}), wantCode: http.StatusCreated},
		{name: "retrieve job: unknown", path: "/v1/jobs/9999", token: staffToken, wantCode: http.StatusNotFound},
		{name: "assign: manager required", method: http.MethodPost, path: "/v1/employee-jobs", token: staffToken, body: assign(other.ProfileID, server.ID), wantCode: http.StatusForbidden},
		{name: "assign: duplicate", method: http.MethodPost, path: "/v1/employee-jobs", token: mgrToken, body: assign(staff.ProfileID, server.ID), wantCode: http.StatusBadRequest},
		{name: "assign", method: http.MethodPost, path: "/v1/employee-jobs", token: mgrToken, body: assign(other.ProfileID, server.ID), wantCode: http.StatusCreated},
		{name: "primary: other's profile", method: http.MethodPut, path: primaryPath(other.ProfileID), token: staffToken, body: primary(otherEJ.ID), wantCode: http.StatusForbidden},
		{
			name: "primary: other's employee job", method: http.MethodPut, path: primaryPath(staff.ProfileID), token: staffToken, body: primary(otherEJ.ID),
			wantCode: http.StatusBadRequest,
		},
	})

	t.Run("list jobs", func(t *testing.T) {
		rec := serve(t, srv, httpTest{path: "/v1/jobs", token: staffToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var jobs []job.Job
		unmarshal(t, rec, &jobs)
		require.Len(t, jobs, 3)
		assert.Equal(t, "Cook", jobs[0].Title)
	})

	t.Run("employees only see their own jobs", func(t *testing.T) {
		rec := serve(t, srv, httpTest{path: fmt.Sprintf("/v1/employee-jobs?profile_id=%d", other.ProfileID), token: staffToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var ejs []job.EmployeeJob
		unmarshal(t, rec, &ejs)
		require.Len(t, ejs, 2)
		for _, ej := range ejs {
			assert.Equal(t, staff.ProfileID, ej.ProfileID)
		}
	})

	t.Run("primary: own job", func(t *testing.T) {
		rec := serve(t, srv, httpTest{method: http.MethodPut, path: primaryPath(staff.ProfileID), token: staffToken, body: primary(hostEJ.ID)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var ejs []job.EmployeeJob
		unmarshal(t, rec, &ejs)
		var primaries []int64
		for _, ej := range ejs {
			if ej.IsPrimary {
				primaries = append(primaries, ej.ID)
			}
		}
		assert.Equal(t, []int64{hostEJ.ID}, primaries)
	})

	t.Run("primary: manager clears", func(t *testing.T) {
		rec := serve(t, srv, httpTest{method: http.MethodPut, path: primaryPath(staff.ProfileID), token: mgrToken, body: primary(0)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var ejs []job.EmployeeJob
		unmarshal(t, rec, &ejs)
		for _, ej := range ejs {
			assert.False(t, ej.IsPrimary, ej.JobTitle)
		}
	})

	t.Run("unassign", func(t *testing.T) {
		path := fmt.Sprintf("/v1/employee-jobs/%d", serverEJ.ID)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden}, serve(t, srv, httpTest{method: http.MethodDelete, path: path, token: staffToken}))
		checkCodeAndData(t, httpTest{wantCode: http.StatusNoContent}, serve(t, srv, httpTest{method: http.MethodDelete, path: path, token: mgrToken}))
	})
}

func Test_accountApi(t *testing.T) {
	srv, env := setup(t)
	staffUsr, staff := env.Staff(t, "staff01")
	mgrUsr, _ := env.Staff(t, "boss01", user.RoleManager)
	staffToken, mgrToken := getToken(t, env, staffUsr), getToken(t, env, mgrUsr)

	phone := func(p string) []byte { return marshalObj(t, account.UpdateProfile{Phone: &p}) }

	runTests(t, srv, []httpTest{
		{name: "update me: bad phone", method: http.MethodPut, path: "/v1/profiles/me", token: staffToken, body: phone("12ab"), wantCode: http.StatusBadRequest},
		{name: "find by email: manager required", path: "/v1/profiles?email=staff01@test.cd", token: staffToken, wantCode: http.StatusForbidden},
		{name: "retrieve: unknown", path: "/v1/profiles/9999", token: mgrToken, wantCode: http.StatusNotFound},
		{name: "create location: manager required", method: http.MethodPost, path: "/v1/locations", token: staffToken, body: marshalObj(t, account.NewLocation{Name: "Downtown"}), wantCode: http.StatusForbidden},
		{name: "create location", method: http.MethodPost, path: "/v1/locations", token: mgrToken, body: marshalObj(t, account.NewLocation{Name: "Downtown"}), wantCode: http.StatusCreated},
	})

	t.Run("me", func(t *testing.T) {
		rec := serve(t, srv, httpTest{path: "/v1/profiles/me", token: staffToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var prof account.Profile
		unmarshal(t, rec, &prof)
		assert.Equal(t, staff.ProfileID, prof.ID)
		assert.Equal(t, staffUsr.ID, prof.UserID)
	})

	t.Run("update me", func(t *testing.T) {
		rec := serve(t, srv, httpTest{method: http.MethodPut, path: "/v1/profiles/me", token: staffToken, body: phone("0812345678")})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var prof account.Profile
		unmarshal(t, rec, &prof)
		assert.Equal(t, "0812345678", prof.Phone)
	})

	t.Run("find by email", func(t *testing.T) {
		rec := serve(t, srv, httpTest{path: "/v1/profiles?email=%20STAFF01@test.cd", token: mgrToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var prof account.Profile
		unmarshal(t, rec, &prof)
		assert.Equal(t, staff.ProfileID, prof.ID)
	})

	t.Run("locations", func(t *testing.T) {
		rec := serve(t, srv, httpTest{path: "/v1/locations", token: staffToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var locs []account.Location
		unmarshal(t, rec, &locs)
		require.Len(t, locs, 1)
		assert.Equal(t, "Downtown", locs[0].Name)
	})
}
