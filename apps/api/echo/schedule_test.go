package echoapi_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/crewdesk/core/schedule"
	"github.com/trezcool/crewdesk/core/user"
)

func Test_scheduleApi(t *testing.T) {
	srv, env := setup(t)
	staffUsr, staff := env.Staff(t, "staff01")
	mgrUsr, mgr := env.Staff(t, "boss01", user.RoleManager)
	staffToken, mgrToken := getToken(t, env, staffUsr), getToken(t, env, mgrUsr)

	server := env.Job(t, "Server")
	ej := env.Assign(t, staff.ProfileID, server.ID, true)

	newDay := func(date string, sales float64) []byte {
		return marshalObj(t, schedule.NewDay{Date: date, ProjectedSales: sales})
	}
	newShift := func(ejID int64, shiftType, start, end string) []byte {
		return marshalObj(t, schedule.NewShift{EmployeeJobID: ejID, ShiftType: shiftType, StartTime: start, EndTime: end})
	}

	runTests(t, srv, []httpTest{
		{name: "create day: manager required", method: http.MethodPost, path: "/v1/schedule/days", token: staffToken, body: newDay("2020-01-07", 100), wantCode: http.StatusForbidden},
		{name: "create day: bad date", method: http.MethodPost, path: "/v1/schedule/days", token: mgrToken, body: newDay("07/01/2020", 100), wantCode: http.StatusBadRequest},
	})

	var day schedule.Day
	t.Run("create day", func(t *testing.T) {
		rec := serve(t, srv, httpTest{method: http.MethodPost, path: "/v1/schedule/days", token: mgrToken, body: newDay("2020-01-07", 1234.567)})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshal(t, rec, &day)
		assert.Equal(t, 1234.57, day.ProjectedSales)
		if assert.NotNil(t, day.CreatedBy) {
			assert.Equal(t, mgr.ProfileID, *day.CreatedBy)
		}
	})
	require.NotZero(t, day.ID)
	shiftsPath := fmt.Sprintf("/v1/schedule/days/%d/shifts", day.ID)

	runTests(t, srv, []httpTest{
		{
			name: "create day: duplicate", method: http.MethodPost, path: "/v1/schedule/days", token: mgrToken, body: newDay("2020-01-07", 1),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"date": "a schedule already exists for this date"}`),
		},
		{name: "add shift: manager required", method: http.MethodPost, path: shiftsPath, token: staffToken, body: newShift(ej.ID, "AM", "09:00", "17:30"), wantCode: http.StatusForbidden},
		{
			name: "add shift: bad type", method: http.MethodPost, path: shiftsPath, token: mgrToken, body: newShift(ej.ID, "LOL", "09:00", "17:30"),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"shift_type": "must be one of: AM, MID, PM"}`),
		},
		{name: "add shift: unknown employee job", method: http.MethodPost, path: shiftsPath, token: mgrToken, body: newShift(ej.ID+100, "AM", "09:00", "17:30"), wantCode: http.StatusBadRequest},
		{name: "add shift: unknown day", method: http.MethodPost, path: "/v1/schedule/days/9999/shifts", token: mgrToken, body: newShift(ej.ID, "AM", "09:00", "17:30"), wantCode: http.StatusNotFound},
		{name: "add shift", method: http.MethodPost, path: shiftsPath, token: mgrToken, body: newShift(ej.ID, "AM", "09:00", "17:30"), wantCode: http.StatusCreated},
		{name: "add overnight shift", method: http.MethodPost, path: shiftsPath, token: mgrToken, body: newShift(ej.ID, "PM", "22:00", "02:30"), wantCode: http.StatusCreated},
		{name: "retrieve day: unknown", path: "/v1/schedule/days/9999", token: staffToken, wantCode: http.StatusNotFound},
		{
			name: "my shifts: bad from", path: "/v1/schedule/me?from=lol", token: staffToken,
			wantCode: http.StatusBadRequest, wantData: []byte(`{"from": "invalid date, expected YYYY-MM-DD"}`),
		},
		{name: "my shifts: no jobs", path: "/v1/schedule/me", token: mgrToken, wantData: []byte(`{"shifts": [], "total_hours": 0}`)},
	})

	t.Run("retrieve day", func(t *testing.T) {
		rec := serve(t, srv, httpTest{path: fmt.Sprintf("/v1/schedule/days/%d", day.ID), token: staffToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var d schedule.Day
		unmarshal(t, rec, &d)
		assert.Len(t, d.Shifts, 2)
	})

	t.Run("query days", func(t *testing.T) {
		for path, want := range map[string]int{
			"/v1/schedule/days":                 1,
			"/v1/schedule/days?from=2020-01-07": 1,
			"/v1/schedule/days?to=2020-01-06":   0,
		} {
			rec := serve(t, srv, httpTest{path: path, token: staffToken})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var days []schedule.Day
			unmarshal(t, rec, &days)
			assert.Len(t, days, want, path)
		}
	})

	var mine schedule.ProfileSchedule
	t.Run("my shifts", func(t *testing.T) {
		rec := serve(t, srv, httpTest{path: "/v1/schedule/me?from=2020-01-01&to=2020-01-31", token: staffToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		unmarshal(t, rec, &mine)
		require.Len(t, mine.Shifts, 2)
		assert.Equal(t, 13.0, mine.TotalHours)
		assert.Equal(t, "09:00", mine.Shifts[0].StartTime.String())
	})

	t.Run("delete shift", func(t *testing.T) {
		require.NotEmpty(t, mine.Shifts)
		path := fmt.Sprintf("/v1/schedule/shifts/%d", mine.Shifts[0].ID)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden}, serve(t, srv, httpTest{method: http.MethodDelete, path: path, token: staffToken}))
		checkCodeAndData(t, httpTest{wantCode: http.StatusNoContent}, serve(t, srv, httpTest{method: http.MethodDelete, path: path, token: mgrToken}))
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound}, serve(t, srv, httpTest{method: http.MethodDelete, path: path, token: mgrToken}))
	})
}
