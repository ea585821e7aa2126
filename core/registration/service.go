// Package registration coordinates account creation: it creates the User and
// the role's companion record (Student or Staff) as one operation.
package registration

import (
	"context"

	"github.com/pkg/errors"

	"github.com/edumanage/backend/core/staff"
	"github.com/edumanage/backend/core/student"
	"github.com/edumanage/backend/core/user"
)

// Result is what a successful registration produced. Student and Staff are
// only set for the respective roles.
type Result struct {
	User    user.User        `json:"user"`
	Student *student.Student `json:"student,omitempty"`
	Staff   *staff.Staff     `json:"staff,omitempty"`
}

type (
	Service interface {
		Register(ctx context.Context, nu user.NewUser) (Result, error)
	}

	service struct {
		usrSvc user.Service
		stdSvc student.Service
		stfSvc staff.Service
	}
)

var _ Service = (*service)(nil)

func NewService(usrSvc user.Service, stdSvc student.Service, stfSvc staff.Service) Service {
	return &service{
		usrSvc: usrSvc,
		stdSvc: stdSvc,
		stfSvc: stfSvc,
	}
}

// Register creates the user account, then the companion record keyed by the
// user's ID. The caller is expected to have validated nu.
func (svc *service) Register(ctx context.Context, nu user.NewUser) (Result, error) {
	usr, err := svc.usrSvc.Create(ctx, nu)
	if err != nil {
		return Result{}, err
	}
	res := Result{User: usr}

	switch usr.Role {
	case user.RoleStudent:
		std, err := svc.stdSvc.CreateForUser(ctx, usr)
		if err != nil {
			return res, errors.Wrap(err, "creating student record")
		}
		res.Student = &std
	case user.RoleTeacher:
		stf, err := svc.stfSvc.CreateForUser(ctx, usr)
		if err != nil {
			return res, errors.Wrap(err, "creating staff record")
		}
		res.Staff = &stf
	}
	return res, nil
}
