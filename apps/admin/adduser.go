package main

import (
	"context"
	"fmt"

	"github.com/trezcool/swimschool/core/user"
)

// addUser creates a verified user, or promotes and verifies the existing user holding the email.
func (cli *commandLine) addUser(ctx context.Context, nu user.NewUser, pwd string) error {
	usr, err := cli.usrSvc.GetByEmail(ctx, nu.Email)
	switch err {
	case nil:
		if nu.Role == user.RoleAdmin {
			usr.Role = user.RoleAdmin
		}
		usr, err = cli.usrSvc.SetPassword(ctx, usr, pwd, true)
	case user.ErrNotFound:
		usr, err = cli.usrSvc.Register(ctx, nu, pwd)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s (%s) can now log in with %s\n", usr.FullName(), usr.Role, usr.UserCode)
	return nil
}
