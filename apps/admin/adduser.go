package main

import (
	"context"
	"fmt"

	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/user"
)

// addUser registers a new account, with its companion record for student and
// teacher roles, and prints the generated login code.
func (cli *commandLine) addUser(name, uname, email, role, class, subject, pwd string) error {
	ctx := context.Background()

	nu := user.NewUser{
		Name:            core.CleanString(name),
		Username:        core.CleanString(uname, true /* lower */),
		Email:           core.CleanString(email, true /* lower */),
		Password:        pwd,
		PasswordConfirm: pwd,
		Role:            core.CleanString(role, true /* lower */),
	}
	switch nu.Role {
	case user.RoleStudent:
		nu.Class = core.CleanString(class)
	case user.RoleTeacher:
		nu.AssignedClass = core.CleanString(class)
		nu.Subject = core.CleanString(subject)
	}

	if err := cli.usrRepo.CheckUniqueness(ctx, nu.Username, nu.Email); err != nil {
		return err
	}
	res, err := cli.regSvc.Register(ctx, nu)
	if err != nil {
		return err
	}
	fmt.Printf("created %s %q with login code %s\n", res.User.Role, res.User.Name, res.User.LoginCode)
	return nil
}
