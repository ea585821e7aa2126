package staff

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/user"
)

var (
	// errors
	ErrNotFound     = errors.New("staff member not found")
	ErrRecordExists = errors.New("a staff record already exists for this user")
)

type (
	Repository interface {
		CreateStaff(ctx context.Context, st Staff) (Staff, error)
		// QueryStaff applies an AND of the filter fields; QueryFilter.Search
		// does a case-insensitive match on Name or Subject.
		QueryStaff(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Staff, error)
		GetStaff(ctx context.Context, id int) (Staff, error)
		UpdateStaff(ctx context.Context, st Staff) (Staff, error)
		DeleteStaffByID(ctx context.Context, ids ...int) error
		QueryPositions(ctx context.Context) ([]string, error)
		QueryDepartments(ctx context.Context) ([]string, error)
	}

	Service interface {
		CreateForUser(ctx context.Context, usr user.User) (Staff, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Staff, error)
		GetByID(ctx context.Context, id int) (Staff, error)
		Update(ctx context.Context, id int, us UpdateStaff) (Staff, error)
		Delete(ctx context.Context, ids ...int) error
		Teachers(ctx context.Context) ([]Staff, error)
		Positions(ctx context.Context) ([]string, error)
		Departments(ctx context.Context) ([]string, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CreateForUser(ctx context.Context, usr user.User) (Staff, error) {
	if _, err := svc.repo.GetStaff(ctx, usr.ID); err == nil {
		return Staff{}, ErrRecordExists
	} else if errors.Cause(err) != ErrNotFound {
		return Staff{}, errors.Wrap(err, "checking for existing record")
	}
	return svc.repo.CreateStaff(ctx, NewFromUser(usr))
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Staff, error) {
	return svc.repo.QueryStaff(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id int) (Staff, error) {
	return svc.repo.GetStaff(ctx, id)
}

func (svc *service) Update(ctx context.Context, id int, us UpdateStaff) (Staff, error) {
	st, err := svc.repo.GetStaff(ctx, id)
	if err != nil {
		return Staff{}, err
	}
	if name := core.CleanString(us.Name); name != "" {
		st.Name = name
	}
	if subject := core.CleanString(us.Subject); subject != "" {
		st.Subject = subject
	}
	if class := core.CleanString(us.Class); class != "" {
		st.Class = class
	}
	if position := core.CleanString(us.Position); position != "" {
		st.Position = position
	}
	if department := core.CleanString(us.Department); department != "" {
		st.Department = department
	}
	st.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStaff(ctx, st)
}

func (svc *service) Delete(ctx context.Context, ids ...int) error {
	return svc.repo.DeleteStaffByID(ctx, ids...)
}

func (svc *service) Teachers(ctx context.Context) ([]Staff, error) {
	return svc.repo.QueryStaff(ctx, &QueryFilter{Position: PositionTeacher}, nil)
}

func (svc *service) Positions(ctx context.Context) ([]string, error) {
	return svc.repo.QueryPositions(ctx)
}

func (svc *service) Departments(ctx context.Context) ([]string, error) {
	return svc.repo.QueryDepartments(ctx)
}
