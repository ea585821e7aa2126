package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/edumanage/backend/core/fee"
	"github.com/edumanage/backend/core/registration"
	"github.com/edumanage/backend/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp  = errors.New("help provided")
	errNoDB  = errors.New("command requires Postgres storage")
	errNoMem = errors.New("command requires the in-memory store")
)

type commandLine struct {
	db       *sqlx.DB // nil when running on the in-memory store
	usrRepo  user.Repository
	regSvc   registration.Service
	feeSvc   fee.Service
	seedFunc func() error // nil when running on Postgres
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -name NAME -role ROLE [-username USERNAME] [-email EMAIL] [-class CLASS] [-subject SUBJECT] - register a new account")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Println("  accruefees - charge every student their class's fee structure")
	fmt.Println("  migrate - apply pending database migrations")
	fmt.Println("  seed - load the sample records into an empty in-memory store")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name. The password will be prompted next.")
	addUserRole := addUserCmd.String("role", user.RoleAdmin, "One of: admin, teacher, parent, student, accountant.")
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserClass := addUserCmd.String("class", "", "The student's class, or the teacher's assigned class.")
	addUserSubject := addUserCmd.String("subject", "", "The teacher's subject.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || user.RolePriority(*addUserRole) == 0 {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, *addUserRole, *addUserClass, *addUserSubject, pwd)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	case "accruefees":
		return cli.accrueFees()
	case "migrate":
		return cli.migrate()
	case "seed":
		return cli.seed()
	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
