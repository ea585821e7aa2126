package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/academic"
)

type classRow struct {
	ID           int       `db:"id"`
	Name         string    `db:"name"`
	Section      string    `db:"section"`
	GradeLevel   int       `db:"grade_level"`
	AcademicYear string    `db:"academic_year"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type subjectRow struct {
	ID          int       `db:"id"`
	Name        string    `db:"name"`
	Code        string    `db:"code"`
	Description string    `db:"description"`
	Credits     int       `db:"credits"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type academicRepository struct {
	db core.DBExecutor
}

var _ academic.Repository = (*academicRepository)(nil) // interface compliance check

func NewAcademicRepository(db core.DBExecutor) academic.Repository {
	return &academicRepository{db: db}
}

func (repo *academicRepository) CreateClass(ctx context.Context, c academic.Class) (academic.Class, error) {
	const q = `
		INSERT INTO class (name, section, grade_level, academic_year, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, q, c.Name, c.Section, c.GradeLevel, c.AcademicYear, c.CreatedAt, c.UpdatedAt).
		Scan(&c.ID)
	if err != nil {
		return academic.Class{}, errors.Wrap(err, "inserting class")
	}
	return c, nil
}

func (repo *academicRepository) QueryClasses(ctx context.Context, ordering []core.DBOrdering) ([]academic.Class, error) {
	var rows []classRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM class`+orderBy(ordering, "name")); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]academic.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, academic.Class(r))
	}
	return classes, nil
}

func (repo *academicRepository) GetClass(ctx context.Context, id int) (academic.Class, error) {
	var r classRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM class WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return academic.Class{}, academic.ErrClassNotFound
		}
		return academic.Class{}, errors.Wrap(err, "getting class")
	}
	return academic.Class(r), nil
}

func (repo *academicRepository) UpdateClass(ctx context.Context, c academic.Class) (academic.Class, error) {
	const q = `
		UPDATE class
		SET name = $2, section = $3, grade_level = $4, academic_year = $5, updated_at = $6
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, c.ID, c.Name, c.Section, c.GradeLevel, c.AcademicYear, c.UpdatedAt)
	if err != nil {
		return academic.Class{}, errors.Wrap(err, "updating class")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return academic.Class{}, academic.ErrClassNotFound
	}
	return c, nil
}

func (repo *academicRepository) DeleteClassesByID(ctx context.Context, ids ...int) error {
	return repo.deleteByID(ctx, "class", ids)
}

func (repo *academicRepository) CreateSubject(ctx context.Context, s academic.Subject) (academic.Subject, error) {
	const q = `
		INSERT INTO subject (name, code, description, credits, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := repo.db.QueryRowContext(ctx, q, s.Name, s.Code, s.Description, s.Credits, s.CreatedAt, s.UpdatedAt).
		Scan(&s.ID)
	if err != nil {
		return academic.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return s, nil
}

func (repo *academicRepository) QuerySubjects(ctx context.Context, ordering []core.DBOrdering) ([]academic.Subject, error) {
	var rows []subjectRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM subject`+orderBy(ordering, "name")); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	subjects := make([]academic.Subject, 0, len(rows))
	for _, r := range rows {
		subjects = append(subjects, academic.Subject(r))
	}
	return subjects, nil
}

func (repo *academicRepository) GetSubject(ctx context.Context, id int) (academic.Subject, error) {
	var r subjectRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM subject WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return academic.Subject{}, academic.ErrSubjectNotFound
		}
		return academic.Subject{}, errors.Wrap(err, "getting subject")
	}
	return academic.Subject(r), nil
}

func (repo *academicRepository) UpdateSubject(ctx context.Context, s academic.Subject) (academic.Subject, error) {
	const q = `
		UPDATE subject
		SET name = $2, code = $3, description = $4, credits = $5, updated_at = $6
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, s.ID, s.Name, s.Code, s.Description, s.Credits, s.UpdatedAt)
	if err != nil {
		return academic.Subject{}, errors.Wrap(err, "updating subject")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return academic.Subject{}, academic.ErrSubjectNotFound
	}
	return s, nil
}

func (repo *academicRepository) DeleteSubjectsByID(ctx context.Context, ids ...int) error {
	return repo.deleteByID(ctx, "subject", ids)
}

func (repo *academicRepository) deleteByID(ctx context.Context, table string, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM `+table+` WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, q), args...); err != nil {
		return errors.Wrapf(err, "deleting from %s", table)
	}
	return nil
}
