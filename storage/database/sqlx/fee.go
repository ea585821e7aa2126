package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/fee"
)

type feeStructureRow struct {
	ID          int       `db:"id"`
	ClassName   string    `db:"class_name"`
	Amount      int64     `db:"amount"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r feeStructureRow) toStructure() fee.Structure {
	return fee.Structure(r)
}

type feeRepository struct {
	db core.DBExecutor
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db core.DBExecutor) fee.Repository {
	return &feeRepository{db: db}
}

func (repo *feeRepository) UpsertStructure(ctx context.Context, s fee.Structure) (fee.Structure, error) {
	const q = `
		INSERT INTO fee_structure (class_name, amount, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (class_name)
			DO UPDATE SET amount = EXCLUDED.amount, description = EXCLUDED.description, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`
	err := repo.db.QueryRowContext(ctx, q, s.ClassName, s.Amount, s.Description, s.CreatedAt, s.UpdatedAt).
		Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fee.Structure{}, errors.Wrap(err, "upserting fee structure")
	}
	return s, nil
}

func (repo *feeRepository) QueryStructures(ctx context.Context) ([]fee.Structure, error) {
	var rows []feeStructureRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM fee_structure ORDER BY class_name`); err != nil {
		return nil, errors.Wrap(err, "querying fee structures")
	}
	structures := make([]fee.Structure, 0, len(rows))
	for _, r := range rows {
		structures = append(structures, r.toStructure())
	}
	return structures, nil
}

func (repo *feeRepository) GetStructure(ctx context.Context, id int) (fee.Structure, error) {
	var r feeStructureRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM fee_structure WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return fee.Structure{}, fee.ErrNotFound
		}
		return fee.Structure{}, errors.Wrap(err, "getting fee structure")
	}
	return r.toStructure(), nil
}

func (repo *feeRepository) GetStructureForClass(ctx context.Context, class string) (fee.Structure, error) {
	var r feeStructureRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM fee_structure WHERE class_name = $1`, class); err != nil {
		if err == sql.ErrNoRows {
			return fee.Structure{}, fee.ErrNotFound
		}
		return fee.Structure{}, errors.Wrap(err, "getting fee structure")
	}
	return r.toStructure(), nil
}

func (repo *feeRepository) DeleteStructuresByID(ctx context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM fee_structure WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, q), args...); err != nil {
		return errors.Wrap(err, "deleting fee structures")
	}
	return nil
}
