package echoapi_test

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/crewdesk/apps/api/echo"
	"github.com/trezcool/crewdesk/core/training"
	"github.com/trezcool/crewdesk/core/user"
	"github.com/trezcool/crewdesk/testutil"
)

func Test_trainingApi_exams(t *testing.T) {
	srv, env := setup(t)
	staffUsr, _ := env.Staff(t, "staff01")
	mgrUsr, _ := env.Staff(t, "boss01", user.RoleManager)
	staffToken, mgrToken := getToken(t, env, staffUsr), getToken(t, env, mgrUsr)

	j := env.Job(t, "Server")
	exam := env.Exam(t, j.ID, training.SeasonSpring, 2020, 90)
	env.Question(t, exam.ID, "Minimum internal temperature for chicken?", 1, "140°F", "155°F", "165°F")

	newExam := func(season string) []byte {
		return marshalObj(t, training.NewExam{JobID: j.ID, Title: "Server Knowledge", Season: season, Year: 2021})
	}
	newQuestion := func(correct ...bool) []byte {
		nq := training.NewQuestion{Text: "Pick one"}
		for i, c := range correct {
			nq.Choices = append(nq.Choices, training.NewChoice{Text: strconv.Itoa(i), IsCorrect: c})
		}
		return marshalObj(t, nq)
	}
	examPath := fmt.Sprintf("/v1/exams/%d", exam.ID)

	tests := []httpTest{
		{name: "list by unknown job", path: fmt.Sprintf("/v1/exams?job=%d", j.ID+100), token: staffToken, wantData: []byte(`[]`)},
		{
			name: "create: manager required", method: http.MethodPost, path: "/v1/exams", token: staffToken, body: newExam("summer"),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden),
		},
		{
			name: "create: bad season", method: http.MethodPost, path: "/v1/exams", token: mgrToken, body: newExam("monsoon"),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"season": "must be one of: SPRING, SUMMER, FALL, WINTER"}`),
		},
		{name: "create", method: http.MethodPost, path: "/v1/exams", token: mgrToken, body: newExam("summer"), wantCode: http.StatusCreated},
		{name: "create: duplicate", method: http.MethodPost, path: "/v1/exams", token: mgrToken, body: newExam("summer"), wantCode: http.StatusBadRequest},
		{name: "retrieve: invalid id", path: "/v1/exams/abc", token: staffToken, wantCode: http.StatusNotFound, wantData: marshalObj(t, errNotFound)},
		{
			name: "retrieve: unknown", path: "/v1/exams/9999", token: staffToken,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "exam not found"}),
		},
		{
			name: "add question: manager required", method: http.MethodPost, path: examPath + "/questions", token: staffToken,
			body: newQuestion(true, false), wantCode: http.StatusForbidden,
		},
		{
			name: "add question: two correct", method: http.MethodPost, path: examPath + "/questions", token: mgrToken,
			body: newQuestion(true, true), wantCode: http.StatusBadRequest, wantData: []byte(`{"choices": "exactly one choice must be correct"}`),
		},
		{
			name: "add question: one choice", method: http.MethodPost, path: examPath + "/questions", token: mgrToken,
			body: newQuestion(true), wantCode: http.StatusBadRequest, wantData: []byte(`{"choices": "a question needs at least 2 choices"}`),
		},
		{name: "add question", method: http.MethodPost, path: examPath + "/questions", token: mgrToken, body: newQuestion(false, true), wantCode: http.StatusCreated},
		{name: "delete: manager required", method: http.MethodDelete, path: examPath, token: staffToken, wantCode: http.StatusForbidden},
	}
	runTests(t, srv, tests)

	t.Run("list", func(t *testing.T) {
		rec := serve(t, srv, httpTest{path: "/v1/exams", token: staffToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var exams []training.Exam
		unmarshal(t, rec, &exams)
		require.Len(t, exams, 2)
		assert.Equal(t, 2021, exams[0].Year)
		assert.Equal(t, exam.ID, exams[1].ID)
	})
	t.Run("retrieve hides correct choices", func(t *testing.T) {
		rec := serve(t, srv, httpTest{path: examPath, token: staffToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var detail echoapi.ExamDetail
		unmarshal(t, rec, &detail)
		assert.Equal(t, exam.ID, detail.ID)
		assert.Equal(t, "Server", detail.JobTitle)
		require.Len(t, detail.Questions, 2)
		for _, q := range detail.Questions {
			for _, c := range q.Choices {
				assert.False(t, c.IsCorrect)
			}
		}
	})
	t.Run("managers see correct choices", func(t *testing.T) {
		rec := serve(t, srv, httpTest{path: examPath + "/questions", token: mgrToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var qs []training.Question
		unmarshal(t, rec, &qs)
		require.Len(t, qs, 2)
		for _, q := range qs {
			var correct int
			for _, c := range q.Choices {
				if c.IsCorrect {
					correct++
				}
			}
			assert.Equal(t, 1, correct, q.Text)
		}
	})
	t.Run("delete", func(t *testing.T) {
		checkCodeAndData(t, httpTest{wantCode: http.StatusNoContent}, serve(t, srv, httpTest{method: http.MethodDelete, path: examPath, token: mgrToken}))
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound}, serve(t, srv, httpTest{path: examPath, token: mgrToken}))
	})
}

func Test_trainingApi_submit(t *testing.T) {
	srv, env := setup(t)
	staffUsr, staff := env.Staff(t, "staff01")
	staffToken := getToken(t, env, staffUsr)

	j := env.Job(t, "Server")
	env.Assign(t, staff.ProfileID, j.ID, true)
	exam := env.Exam(t, j.ID, training.SeasonSpring, 2020, 90)
	q := env.Question(t, exam.ID, "Minimum internal temperature for chicken?", 1, "140°F", "155°F", "165°F")
	submitPath := fmt.Sprintf("/v1/exams/%d/submit", exam.ID)
	questionKey := fmt.Sprintf("question_%d", q.ID)
	choice := func(i int) string { return strconv.FormatInt(q.Choices[i].ID, 10) }

	formTests := []struct {
		name       string
		path       string
		form       url.Values
		wantCode   int
		wantScore  float64
		wantPassed bool
	}{
		{name: "form: correct", path: submitPath, form: url.Values{questionKey: {choice(1)}}, wantCode: http.StatusCreated, wantScore: 100, wantPassed: true},
		{name: "form: wrong", path: submitPath, form: url.Values{questionKey: {choice(0)}}, wantCode: http.StatusCreated},
		{name: "form: empty", path: submitPath, form: url.Values{}, wantCode: http.StatusCreated},
		{name: "form: garbage", path: submitPath, form: url.Values{questionKey: {"lol"}, "question_x": {choice(1)}}, wantCode: http.StatusCreated},
		{name: "form: unknown exam", path: "/v1/exams/9999/submit", form: url.Values{}, wantCode: http.StatusNotFound},
	}
	for _, tt := range formTests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newFormRequest(tt.path, staffToken, tt.form)
			srv.ServeHTTP(rec, req)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if rec.Code != http.StatusCreated {
				return
			}
			var g training.Grade
			unmarshal(t, rec, &g)
			assert.Equal(t, tt.wantScore, g.Score)
			assert.Equal(t, tt.wantPassed, g.Passed)
			assert.Equal(t, 1, g.Total)
			assert.Equal(t, staff.ProfileID, g.Result.ProfileID)
		})
	}

	jsonTests := []httpTest{
		{name: "json: numeric keys", body: []byte(fmt.Sprintf(`{"answers": {"%d": %s}}`, q.ID, choice(1))), extra: true},
		{name: "json: prefixed keys", body: []byte(fmt.Sprintf(`{"answers": {"%s": %s}}`, questionKey, choice(2))), extra: false},
		{name: "json: no answers", body: []byte(`{}`), extra: false},
	}
	for _, tt := range jsonTests {
		tt.method = http.MethodPost
		tt.path = submitPath
		tt.token = staffToken
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, srv, tt)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			var g training.Grade
			unmarshal(t, rec, &g)
			assert.Equal(t, tt.extra.(bool), g.Passed)
		})
	}

	t.Run("results", func(t *testing.T) {
		rec := serve(t, srv, httpTest{path: "/v1/results", token: staffToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var results []training.ExamResult
		unmarshal(t, rec, &results)
		require.Len(t, results, 7)
		assert.False(t, results[0].Passed, "latest first")
	})
}

func Test_trainingApi_submitWithoutProfile(t *testing.T) {
	srv, env := setup(t)
	j := env.Job(t, "Server")
	exam := env.Exam(t, j.ID, training.SeasonSpring, 2020, 90)
	boss := testutil.CreateUser(t, env.UserRepo, "Boss", "boss01", "boss01@test.cd", "Secret-123!", []string{user.RoleManager}, true)
	token := getToken(t, env, boss)

	req, rec := newFormRequest(fmt.Sprintf("/v1/exams/%d/submit", exam.ID), token, url.Values{})
	srv.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "no profile attached to this account"})}, rec)

	runTests(t, srv, []httpTest{
		{name: "results", path: "/v1/results", token: token, wantCode: http.StatusForbidden},
		{name: "manager reads exams", path: fmt.Sprintf("/v1/exams/%d", exam.ID), token: token},
	})
}
