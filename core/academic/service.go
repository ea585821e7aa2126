// Package academic maintains the school's reference data: classes and
// subjects.
package academic

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/edumanage/backend/core"
)

var (
	// errors
	ErrClassNotFound   = errors.New("class not found")
	ErrSubjectNotFound = errors.New("subject not found")
)

type (
	Repository interface {
		CreateClass(ctx context.Context, c Class) (Class, error)
		QueryClasses(ctx context.Context, ordering []core.DBOrdering) ([]Class, error)
		GetClass(ctx context.Context, id int) (Class, error)
		UpdateClass(ctx context.Context, c Class) (Class, error)
		DeleteClassesByID(ctx context.Context, ids ...int) error

		CreateSubject(ctx context.Context, s Subject) (Subject, error)
		QuerySubjects(ctx context.Context, ordering []core.DBOrdering) ([]Subject, error)
		GetSubject(ctx context.Context, id int) (Subject, error)
		UpdateSubject(ctx context.Context, s Subject) (Subject, error)
		DeleteSubjectsByID(ctx context.Context, ids ...int) error
	}

	Service interface {
		CreateClass(ctx context.Context, nc NewClass) (Class, error)
		Classes(ctx context.Context, ordering []core.DBOrdering) ([]Class, error)
		GetClass(ctx context.Context, id int) (Class, error)
		UpdateClass(ctx context.Context, id int, nc NewClass) (Class, error)
		DeleteClasses(ctx context.Context, ids ...int) error

		CreateSubject(ctx context.Context, ns NewSubject) (Subject, error)
		Subjects(ctx context.Context, ordering []core.DBOrdering) ([]Subject, error)
		GetSubject(ctx context.Context, id int) (Subject, error)
		UpdateSubject(ctx context.Context, id int, ns NewSubject) (Subject, error)
		DeleteSubjects(ctx context.Context, ids ...int) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CreateClass(ctx context.Context, nc NewClass) (Class, error) {
	now := time.Now().UTC()
	return svc.repo.CreateClass(ctx, Class{
		Name:         nc.Name,
		Section:      nc.Section,
		GradeLevel:   nc.GradeLevel,
		AcademicYear: nc.AcademicYear,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *service) Classes(ctx context.Context, ordering []core.DBOrdering) ([]Class, error) {
	return svc.repo.QueryClasses(ctx, ordering)
}

func (svc *service) GetClass(ctx context.Context, id int) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *service) UpdateClass(ctx context.Context, id int, nc NewClass) (Class, error) {
	c, err := svc.repo.GetClass(ctx, id)
	if err != nil {
		return Class{}, err
	}
	c.Name = nc.Name
	c.Section = nc.Section
	c.GradeLevel = nc.GradeLevel
	c.AcademicYear = nc.AcademicYear
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClass(ctx, c)
}

func (svc *service) DeleteClasses(ctx context.Context, ids ...int) error {
	return svc.repo.DeleteClassesByID(ctx, ids...)
}

func (svc *service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	now := time.Now().UTC()
	return svc.repo.CreateSubject(ctx, Subject{
		Name:        ns.Name,
		Code:        ns.Code,
		Description: ns.Description,
		Credits:     ns.Credits,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *service) Subjects(ctx context.Context, ordering []core.DBOrdering) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx, ordering)
}

func (svc *service) GetSubject(ctx context.Context, id int) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

func (svc *service) UpdateSubject(ctx context.Context, id int, ns NewSubject) (Subject, error) {
	s, err := svc.repo.GetSubject(ctx, id)
	if err != nil {
		return Subject{}, err
	}
	s.Name = ns.Name
	s.Code = ns.Code
	s.Description = ns.Description
	s.Credits = ns.Credits
	s.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSubject(ctx, s)
}

func (svc *service) DeleteSubjects(ctx context.Context, ids ...int) error {
	return svc.repo.DeleteSubjectsByID(ctx, ids...)
}
