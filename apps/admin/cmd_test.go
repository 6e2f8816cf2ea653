package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/crewdesk/core"
	"github.com/trezcool/crewdesk/core/job"
	"github.com/trezcool/crewdesk/core/training"
	"github.com/trezcool/crewdesk/core/user"
	"github.com/trezcool/crewdesk/testutil"
)

func setup(t *testing.T) (*commandLine, *testutil.Env) {
	env := testutil.NewEnv(t)
	return &commandLine{
		usrSvc:      env.UserSvc,
		accSvc:      env.AccountSvc,
		jobSvc:      env.JobSvc,
		trainingSvc: env.TrainingSvc,
		validate:    env.Validate,
	}, env
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), tt.wantErrStr)
		}
	default:
		assert.NoError(t, err)
	}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_root(t *testing.T) {
	cli, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErrStr: `unknown command "lol"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(tt.args))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	var ran []string
	gooseRunFunc = func(db *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		ran = append(ran, command)
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "seed_jobs", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(tt.args))
		})
	}
	assert.Equal(t, []string{"up", "up-to", "down-to", "status", "create"}, ran)
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, env := setup(t)
	usr := testutil.CreateUser(t, env.UserRepo, "User", "awe", "awe@test.cd", "Mdr-1234!", nil, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "no password", args: []string{"resetpassword", "--username", usr.Username}, wantErr: errNoPasswd},
		{name: "user not found", args: []string{"resetpassword", "--username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "--username", usr.Username}, extra: extra{pwd: "Lol-9876!"}},
		{name: "reset with email", args: []string{"resetpassword", "--username", usr.Email}, extra: extra{pwd: "Lmao-5432!"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pwd string
			if e, ok := tt.extra.(extra); ok {
				pwd = e.pwd
			}
			mockPassword(pwd)

			before, err := env.UserSvc.GetByID(context.Background(), usr.ID)
			require.NoError(t, err)

			err = cli.run(tt.args)
			checkErr(t, tt, err)

			after, gerr := env.UserSvc.GetByID(context.Background(), usr.ID)
			require.NoError(t, gerr)
			if err == nil {
				assert.False(t, bytes.Equal(before.PasswordHash, after.PasswordHash), "password not updated")
				assert.NoError(t, after.CheckPassword(pwd))
			} else {
				assert.Equal(t, before.PasswordHash, after.PasswordHash)
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, env := setup(t)
	ctx := context.Background()
	existing := testutil.CreateUser(t, env.UserRepo, "Old Name", "olduser", "old@test.cd", "Old-pass1!", nil, false)

	type extra struct {
		pwd       string
		uname     string
		wantRoles []string
		wantName  string
	}
	tests := []cliTest{
		{name: "no identity", args: []string{"adduser", "--name", "Nobody"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "--username", "newbie"}, wantErr: errNoPasswd},
		{
			name: "unknown role", args: []string{"adduser", "--username", "newbie", "--role", "chef:"},
			extra: extra{pwd: "New-pass1!"}, wantErrStr: `unknown role "chef:"`,
		},
		{
			name: "create employee", args: []string{"adduser", "--username", "Newbie", "--email", "newbie@test.cd"},
			extra: extra{pwd: "New-pass1!", uname: "newbie", wantRoles: []string{user.RoleEmployee}, wantName: "newbie"},
		},
		{
			name: "create manager", args: []string{"adduser", "--name", "The Boss", "--email", "boss@test.cd", "--role", user.RoleManager},
			extra: extra{pwd: "Boss-pass1!", uname: "boss@test.cd", wantRoles: []string{user.RoleManager}, wantName: "The Boss"},
		},
		{
			name: "update existing", args: []string{"adduser", "--username", "olduser", "--role", user.RoleAdmin},
			extra: extra{pwd: "Upd-pass1!", uname: "olduser", wantRoles: []string{user.RoleAdmin}, wantName: "Old Name"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := tt.extra.(extra)
			mockPassword(e.pwd)

			err := cli.run(tt.args)
			checkErr(t, tt, err)
			if err != nil {
				return
			}

			usr, err := env.UserSvc.GetByUsernameOrEmail(ctx, e.uname)
			require.NoError(t, err)
			assert.True(t, usr.IsActive)
			assert.Equal(t, e.wantRoles, usr.Roles)
			assert.Equal(t, e.wantName, usr.Name)
			assert.NoError(t, usr.CheckPassword(e.pwd))

			_, err = env.AccountSvc.GetByUserID(ctx, usr.ID)
			assert.NoError(t, err, "profile not created")
		})
	}

	usr, err := env.UserSvc.GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "olduser", usr.Username)
}

const serverExamYAML = `
job: server
title: Server Knowledge
season: spring
year: 2021
passing_score: 80
questions:
  - text: Minimum internal temperature for chicken?
    choices:
      - text: 140°F
      - text: 155°F
        is_correct: true
      - text: 165°F
  - text: Greet a new table within?
    choices:
      - text: 1 minute
        is_correct: true
      - text: 10 minutes
`

func Test_commandLine_importExam(t *testing.T) {
	cli, env := setup(t)
	ctx := context.Background()
	server, err := env.JobSvc.CreateJob(ctx, testutil.Manager, job.NewJob{Title: "Server"})
	require.NoError(t, err)

	dir := t.TempDir()
	writeFile := func(name, content string) string {
		fp := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(fp, []byte(content), 0o600))
		return fp
	}

	t.Run("no file", func(t *testing.T) {
		checkErr(t, cliTest{wantErrStr: "accepts 1 arg(s)"}, cli.run([]string{"import-exam"}))
	})
	t.Run("missing file", func(t *testing.T) {
		checkErr(t, cliTest{wantErrStr: "reading exam file"}, cli.run([]string{"import-exam", filepath.Join(dir, "nope.yaml")}))
	})
	t.Run("invalid yaml", func(t *testing.T) {
		fp := writeFile("bad.yaml", "title: [unclosed")
		checkErr(t, cliTest{wantErrStr: "parsing exam file"}, cli.run([]string{"import-exam", fp}))
	})
	t.Run("unknown job", func(t *testing.T) {
		_, err := cli.importExam(ctx, []byte("job: Sommelier\ntitle: Wine\nseason: FALL\nyear: 2021\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `no job titled "Sommelier"`)
	})
	t.Run("invalid season", func(t *testing.T) {
		_, err := cli.importExam(ctx, []byte("job: Server\ntitle: Wine\nseason: MONSOON\nyear: 2021\n"))
		assert.Error(t, err)
	})
	t.Run("two correct choices", func(t *testing.T) {
		data := "job: Server\ntitle: Bad\nseason: FALL\nyear: 2021\nquestions:\n" +
			"  - text: Q\n    choices:\n      - text: A\n        is_correct: true\n      - text: B\n        is_correct: true\n"
		_, err := cli.importExam(ctx, []byte(data))
		assert.True(t, core.IsValidationError(err), "got %v", err)
	})
	t.Run("ok", func(t *testing.T) {
		fp := writeFile("server.yaml", serverExamYAML)
		require.NoError(t, cli.run([]string{"import-exam", fp}))

		exams, err := env.TrainingSvc.QueryExams(ctx, training.ExamFilter{JobIDs: []int64{server.ID}})
		require.NoError(t, err)
		require.Len(t, exams, 1)
		e := exams[0]
		assert.Equal(t, "Server Knowledge", e.Title)
		assert.Equal(t, training.SeasonSpring, e.Season)
		assert.Equal(t, 2021, e.Year)
		assert.Equal(t, 80, e.PassingScore)

		qs, err := env.TrainingSvc.Questions(ctx, testutil.Manager, e.ID)
		require.NoError(t, err)
		require.Len(t, qs, 2)
		assert.Len(t, qs[0].Choices, 3)
		assert.True(t, qs[0].Choices[1].IsCorrect)
		assert.True(t, qs[1].Choices[0].IsCorrect)
	})
	t.Run("duplicate", func(t *testing.T) {
		fp := writeFile("server.yaml", serverExamYAML)
		err := cli.run([]string{"import-exam", fp})
		assert.True(t, core.IsValidationError(err), "got %v", err)
	})
}
