package main

import (
	"context"
	"strings"

	"github.com/trezcool/swimschool/core/user"
)

// findUser looks uname up by email when it has an @, by user code otherwise.
func (cli *commandLine) findUser(ctx context.Context, uname string) (user.User, error) {
	if strings.Contains(uname, "@") {
		return cli.usrSvc.GetByEmail(ctx, uname)
	}
	return cli.usrSvc.GetByCode(ctx, uname)
}

func (cli *commandLine) resetPassword(ctx context.Context, uname, pwd string) error {
	usr, err := cli.findUser(ctx, uname)
	if err != nil {
		return err
	}
	_, err = cli.usrSvc.SetPassword(ctx, usr, pwd, false)
	return err
}
