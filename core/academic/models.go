package academic

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/edumanage/backend/core"
)

// Class is a taught group of students, e.g. "Class 10" section "A".
type Class struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Section      string    `json:"section"`
	GradeLevel   int       `json:"grade_level"`
	AcademicYear string    `json:"academic_year"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

type NewClass struct {
	Name         string `json:"name" validate:"required"`
	Section      string `json:"section"`
	GradeLevel   int    `json:"grade_level" validate:"omitempty,gte=1"`
	AcademicYear string `json:"academic_year"`
}

func (nc *NewClass) clean() {
	nc.Name = core.CleanString(nc.Name)
	nc.Section = core.CleanString(nc.Section)
	nc.AcademicYear = core.CleanString(nc.AcademicYear)
}

func (nc *NewClass) Validate(ctx context.Context, validate *validator.Validate) error {
	nc.clean()
	return validate.StructCtx(ctx, nc)
}

// Subject is a taught discipline, e.g. "Mathematics" (MATH101).
type Subject struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	Credits     int       `json:"credits"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

type NewSubject struct {
	Name        string `json:"name" validate:"required"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Credits     int    `json:"credits" validate:"omitempty,gte=0"`
}

func (ns *NewSubject) clean() {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = core.CleanString(ns.Code)
	ns.Description = core.CleanString(ns.Description)
}

func (ns *NewSubject) Validate(ctx context.Context, validate *validator.Validate) error {
	ns.clean()
	return validate.StructCtx(ctx, ns)
}
