package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/swimschool/core/attendance"
	"github.com/trezcool/swimschool/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type (
	dailyRunner interface {
		RunDaily(ctx context.Context) (attendance.Summary, error)
	}

	commandLine struct {
		db     *sql.DB
		usrSvc *user.Service
		attSvc dailyRunner
		out    io.Writer
	}
)

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, ...) against the database")
	fmt.Fprintln(cli.out, "  adduser -email EMAIL -name NAME -lastname LAST_NAME [-birthdate YYYY-MM-DD] [-admin] - create a verified staff user")
	fmt.Fprintln(cli.out, "  resetpassword -username EMAIL|USER_CODE - reset user's password")
	fmt.Fprintln(cli.out, "  attendance - record today's attendance of every student")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserName := addUserCmd.String("name", "", "The user's first name.")
	addUserLastName := addUserCmd.String("lastname", "", "The user's last name.")
	addUserBirthDate := addUserCmd.String("birthdate", "1990-01-01", "The user's birth date.")
	addUserIsAdmin := addUserCmd.Bool("admin", false, "Create an administrator instead of a teacher.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's email or user code. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserEmail == "" || *addUserName == "" || *addUserLastName == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		nu := user.NewUser{
			Name:      *addUserName,
			LastName:  *addUserLastName,
			BirthDate: *addUserBirthDate,
			Email:     *addUserEmail,
			Role:      user.RoleTeacher,
		}
		if *addUserIsAdmin {
			nu.Role = user.RoleAdmin
		}
		return cli.addUser(ctx, nu, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(ctx, *resetPasswordUname, pwd)

	case "attendance":
		return cli.recordAttendance(ctx)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
