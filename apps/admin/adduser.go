package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/crewdesk/core"
	"github.com/trezcool/crewdesk/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var name, uname, email, role string
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create or update a user; the password is prompted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if uname == "" && email == "" {
				_ = cmd.Help()
				return errHelp
			}
			pwd, err := promptPassword(cmd)
			if err != nil {
				return err
			}
			usr, err := cli.addUser(cmd.Context(), name, uname, email, pwd, role)
			if err != nil {
				return err
			}
			cmd.Printf("user %q saved (id: %s)\n", usr.Username, usr.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&uname, "username", "", "Username")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&role, "role", user.RoleEmployee, "One of admin:, admin:owner, manager:, employee:")
	return cmd
}

// addUser updates or creates an active user.User with the given role, and makes sure it has a profile.
func (cli *commandLine) addUser(ctx context.Context, name, uname, email, pwd, role string) (user.User, error) {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	if user.RolePriority(role) == 0 {
		return user.User{}, errors.Errorf("unknown role %q", role)
	}

	lookup := uname
	if lookup == "" {
		lookup = email
	}
	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, lookup)
	switch errors.Cause(err) {
	case nil:
		active := true
		usr, err = cli.usrSvc.Update(ctx, usr, user.UpdateUser{
			Name:     firstNonEmpty(core.CleanString(name), usr.Name),
			Username: firstNonEmpty(uname, usr.Username),
			Email:    firstNonEmpty(email, usr.Email),
			IsActive: &active,
			Roles:    []string{role},
			Password: pwd,
		})
		if err != nil {
			return user.User{}, errors.Wrap(err, "updating user")
		}
	case user.ErrNotFound:
		usr, err = cli.usrSvc.Create(ctx, user.NewUser{
			Name:     firstNonEmpty(core.CleanString(name), uname, email),
			Username: uname,
			Email:    email,
			Password: pwd,
			Roles:    []string{role},
		})
		if err != nil {
			return user.User{}, errors.Wrap(err, "creating user")
		}
	default:
		return user.User{}, errors.Wrap(err, "finding user")
	}

	if _, err := cli.accSvc.EnsureProfile(ctx, usr.ID); err != nil {
		return user.User{}, errors.Wrap(err, "creating profile")
	}
	return usr, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
