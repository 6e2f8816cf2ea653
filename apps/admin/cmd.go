package main

import (
	"context"
	"errors"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/crewdesk/core/account"
	"github.com/trezcool/crewdesk/core/job"
	"github.com/trezcool/crewdesk/core/training"
	"github.com/trezcool/crewdesk/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp     = errors.New("help provided")
	errNoPasswd = errors.New("a password is required")
)

type commandLine struct {
	db          *sqlx.DB
	usrSvc      user.Service
	accSvc      account.Service
	jobSvc      job.Service
	trainingSvc training.Service
	validate    *validator.Validate
}

// rootCmd builds the command tree; each call returns fresh commands so flags never leak between runs.
func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Crewdesk administration tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}
	root.AddCommand(
		cli.migrateCmd(),
		cli.addUserCmd(),
		cli.resetPasswordCmd(),
		cli.importExamCmd(),
	)
	return root
}

func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

// promptPassword reads a password from the terminal without echoing it.
func promptPassword(cmd *cobra.Command) (string, error) {
	cmd.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	cmd.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errNoPasswd
	}
	return string(pwd), nil
}
