package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/crewdesk/core/training"
	"github.com/trezcool/crewdesk/core/user"
	"github.com/trezcool/crewdesk/testutil"
)

func Test_dashboardApi(t *testing.T) {
	srv, env := setup(t)
	staffUsr, staff := env.Staff(t, "staff01")
	mgrUsr, _ := env.Staff(t, "boss01", user.RoleManager)
	newbieUsr, _ := env.Staff(t, "newbie01")
	boss := testutil.CreateUser(t, env.UserRepo, "Owner", "owner01", "owner01@test.cd", "Secret-123!", []string{user.RoleManager}, true)
	staffToken := getToken(t, env, staffUsr)

	server, host, bar := env.Job(t, "Server"), env.Job(t, "Host"), env.Job(t, "Bartender")
	env.Assign(t, staff.ProfileID, server.ID, true)
	env.Assign(t, staff.ProfileID, host.ID, false)

	passedExam := env.Exam(t, server.ID, training.SeasonSpring, 2020, 50)
	pq := env.Question(t, passedExam.ID, "Q1", 0, "yes", "no")
	failedExam := env.Exam(t, server.ID, training.SeasonFall, 2020, 50)
	fq := env.Question(t, failedExam.ID, "Q1", 0, "yes", "no")
	hostExam := env.Exam(t, host.ID, training.SeasonSpring, 2020, 90)
	env.Exam(t, bar.ID, training.SeasonSpring, 2020, 90)

	env.Submit(t, staff, passedExam.ID, training.Answers{pq.ID: pq.Choices[0].ID})
	env.Submit(t, staff, failedExam.ID, training.Answers{fq.ID: fq.Choices[1].ID})

	t.Run("available exams", func(t *testing.T) {
		rec := serve(t, srv, httpTest{path: "/v1/dashboard/exams", token: staffToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var avail training.Availability
		unmarshal(t, rec, &avail)
		assert.Empty(t, avail.Error)
		byID := make(map[int64]training.AvailableExam, len(avail.Exams))
		for _, ae := range avail.Exams {
			byID[ae.ID] = ae
		}
		require.Len(t, byID, 2)
		assert.NotContains(t, byID, passedExam.ID)

		failed := byID[failedExam.ID]
		assert.True(t, failed.HasTaken)
		assert.False(t, failed.Passed)
		assert.True(t, failed.CanRetake)
		if assert.NotNil(t, failed.Score) {
			assert.Equal(t, 0.0, *failed.Score)
		}
		untaken := byID[hostExam.ID]
		assert.False(t, untaken.HasTaken)
		assert.Nil(t, untaken.Score)
		assert.Nil(t, untaken.LastAttempt)
	})

	t.Run("available exams: no profile", func(t *testing.T) {
		rec := serve(t, srv, httpTest{path: "/v1/dashboard/exams", token: getToken(t, env, boss)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var avail training.Availability
		unmarshal(t, rec, &avail)
		assert.Empty(t, avail.Exams)
		assert.NotEmpty(t, avail.Error)
	})

	t.Run("progress", func(t *testing.T) {
		rec := serve(t, srv, httpTest{path: "/v1/dashboard/progress", token: staffToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var prog training.Progress
		unmarshal(t, rec, &prog)
		assert.Empty(t, prog.Error)
		assert.Equal(t, server.ID, prog.PrimaryJobID)
		assert.Equal(t, "Server", prog.PrimaryJobTitle)
		assert.Equal(t, 2, prog.Total)
		assert.Equal(t, 2, prog.Taken)
		assert.Equal(t, 1, prog.PassedCount)
		assert.Equal(t, 1, prog.FailedCount)
		assert.Equal(t, 0, prog.RemainingCount)
		require.Len(t, prog.Passed, 1)
		assert.Equal(t, passedExam.ID, prog.Passed[0].Exam.ID)
		require.Len(t, prog.Failed, 1)
		assert.Equal(t, failedExam.ID, prog.Failed[0].Exam.ID)
	})

	t.Run("progress: no primary job", func(t *testing.T) {
		rec := serve(t, srv, httpTest{path: "/v1/dashboard/progress", token: getToken(t, env, newbieUsr)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var prog training.Progress
		unmarshal(t, rec, &prog)
		assert.NotEmpty(t, prog.Error)
		assert.Zero(t, prog.Total)
		assert.Empty(t, prog.Remaining)
	})

	runTests(t, srv, []httpTest{
		{name: "stats: manager required", path: "/v1/dashboard/stats", token: staffToken, wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden)},
		{name: "stats: no token", path: "/v1/dashboard/stats", wantCode: http.StatusUnauthorized},
	})

	t.Run("stats", func(t *testing.T) {
		rec := serve(t, srv, httpTest{path: "/v1/dashboard/stats", token: getToken(t, env, mgrUsr)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var stats []training.ExamStat
		unmarshal(t, rec, &stats)
		require.Len(t, stats, 4)
		byID := make(map[int64]training.ExamStat, len(stats))
		for _, s := range stats {
			byID[s.ExamID] = s
		}
		assert.Equal(t, 1, byID[passedExam.ID].TotalTakers)
		assert.Equal(t, 1, byID[passedExam.ID].Passed)
		assert.Equal(t, 1, byID[failedExam.ID].TotalTakers)
		assert.Equal(t, 0, byID[failedExam.ID].Passed)
		assert.Equal(t, 0, byID[hostExam.ID].TotalTakers)
		assert.Equal(t, "Spring", byID[hostExam.ID].SeasonLabel)
		assert.Equal(t, "Host", byID[hostExam.ID].JobTitle)
	})
}
