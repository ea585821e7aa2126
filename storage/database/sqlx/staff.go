package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/staff"
)

type staffRow struct {
	ID         int       `db:"id"`
	Name       string    `db:"name"`
	Subject    string    `db:"subject"`
	Class      string    `db:"class"`
	Position   string    `db:"position"`
	Department string    `db:"department"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r staffRow) toStaff() staff.Staff {
	return staff.Staff(r)
}

type staffRepository struct {
	db core.DBExecutor
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db core.DBExecutor) staff.Repository {
	return &staffRepository{db: db}
}

func (repo *staffRepository) CreateStaff(ctx context.Context, st staff.Staff) (staff.Staff, error) {
	const q = `
		INSERT INTO staff (id, name, subject, class, position, department, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(
		ctx, q,
		st.ID, st.Name, st.Subject, st.Class, st.Position, st.Department, st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		return staff.Staff{}, errors.Wrap(err, "inserting staff")
	}
	return st, nil
}

func (repo *staffRepository) QueryStaff(ctx context.Context, filter *staff.QueryFilter, ordering []core.DBOrdering) ([]staff.Staff, error) {
	q := `SELECT * FROM staff`
	var clauses []string
	var args []interface{}

	if filter != nil && !filter.IsEmpty() {
		filter.Clean()
		if filter.Search != "" {
			clauses = append(clauses, `(name ILIKE ? OR subject ILIKE ?)`)
			pat := "%" + filter.Search + "%"
			args = append(args, pat, pat)
		}
		if filter.Position != "" {
			clauses = append(clauses, `position = ?`)
			args = append(args, filter.Position)
		}
		if filter.Department != "" {
			clauses = append(clauses, `department = ?`)
			args = append(args, filter.Department)
		}
	}
	if len(clauses) > 0 {
		q += ` WHERE ` + strings.Join(clauses, ` AND `)
	}
	q += orderBy(ordering, "id")

	q, inArgs, err := sqlx.In(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []staffRow
	if err = repo.db.SelectContext(ctx, &rows, sqlx.Rebind(sqlx.DOLLAR, q), inArgs...); err != nil {
		return nil, errors.Wrap(err, "querying staff")
	}

	members := make([]staff.Staff, 0, len(rows))
	for _, r := range rows {
		members = append(members, r.toStaff())
	}
	return members, nil
}

func (repo *staffRepository) GetStaff(ctx context.Context, id int) (staff.Staff, error) {
	var r staffRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM staff WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return staff.Staff{}, staff.ErrNotFound
		}
		return staff.Staff{}, errors.Wrap(err, "getting staff")
	}
	return r.toStaff(), nil
}

func (repo *staffRepository) UpdateStaff(ctx context.Context, st staff.Staff) (staff.Staff, error) {
	const q = `
		UPDATE staff
		SET name = $2, subject = $3, class = $4, position = $5, department = $6, updated_at = $7
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, st.ID, st.Name, st.Subject, st.Class, st.Position, st.Department, st.UpdatedAt)
	if err != nil {
		return staff.Staff{}, errors.Wrap(err, "updating staff")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return staff.Staff{}, staff.ErrNotFound
	}
	return st, nil
}

func (repo *staffRepository) DeleteStaffByID(ctx context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM staff WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, q), args...); err != nil {
		return errors.Wrap(err, "deleting staff")
	}
	return nil
}

func (repo *staffRepository) QueryPositions(ctx context.Context) ([]string, error) {
	var positions []string
	const q = `SELECT DISTINCT position FROM staff WHERE position <> '' ORDER BY position`
	if err := repo.db.SelectContext(ctx, &positions, q); err != nil {
		return nil, errors.Wrap(err, "querying positions")
	}
	return positions, nil
}

func (repo *staffRepository) QueryDepartments(ctx context.Context) ([]string, error) {
	var departments []string
	const q = `SELECT DISTINCT department FROM staff WHERE department <> '' ORDER BY department`
	if err := repo.db.SelectContext(ctx, &departments, q); err != nil {
		return nil, errors.Wrap(err, "querying departments")
	}
	return departments, nil
}
