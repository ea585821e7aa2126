package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/student"
)

// studentRow maps the student table; the attendance log, grades map and fee
// history live in JSONB columns.
type studentRow struct {
	ID         int       `db:"id"`
	Name       string    `db:"name"`
	Class      string    `db:"class"`
	RollNumber string    `db:"roll_number"`
	ParentID   null.Int  `db:"parent_id"`
	Attendance []byte    `db:"attendance"`
	Grades     []byte    `db:"grades"`
	FeeBalance int64     `db:"fee_balance"`
	FeeHistory []byte    `db:"fee_history"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r studentRow) toStudent() (student.Student, error) {
	st := student.Student{
		ID:         r.ID,
		Name:       r.Name,
		Class:      r.Class,
		RollNumber: r.RollNumber,
		ParentID:   intPtr(r.ParentID),
		Attendance: []student.AttendanceEntry{},
		Grades:     map[string]string{},
		Fees:       student.FeeAccount{Balance: r.FeeBalance, History: []student.LedgerEntry{}},
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if err := json.Unmarshal(r.Attendance, &st.Attendance); err != nil {
		return student.Student{}, errors.Wrap(err, "decoding attendance")
	}
	if err := json.Unmarshal(r.Grades, &st.Grades); err != nil {
		return student.Student{}, errors.Wrap(err, "decoding grades")
	}
	if err := json.Unmarshal(r.FeeHistory, &st.Fees.History); err != nil {
		return student.Student{}, errors.Wrap(err, "decoding fee history")
	}
	return st, nil
}

type studentRepository struct {
	db core.DBExecutor
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db core.DBExecutor) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	attendance, grades, history, err := encodeStudentJSON(st)
	if err != nil {
		return student.Student{}, err
	}
	const q = `
		INSERT INTO student
			(id, name, class, roll_number, parent_id, attendance, grades, fee_balance, fee_history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = repo.db.ExecContext(
		ctx, q,
		st.ID, st.Name, st.Class, st.RollNumber, nullInt(st.ParentID),
		attendance, grades, st.Fees.Balance, history, st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return st, nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	q := `SELECT * FROM student`
	var clauses []string
	var args []interface{}

	if filter != nil && !filter.IsEmpty() {
		filter.Clean()
		if filter.Search != "" {
			clauses = append(clauses, `(name ILIKE ? OR roll_number ILIKE ?)`)
			pat := "%" + filter.Search + "%"
			args = append(args, pat, pat)
		}
		if filter.Class != "" {
			clauses = append(clauses, `class = ?`)
			args = append(args, filter.Class)
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
	var rows []studentRow
	if err = repo.db.SelectContext(ctx, &rows, sqlx.Rebind(sqlx.DOLLAR, q), inArgs...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}

	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		st, err := r.toStudent()
		if err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, id int) (student.Student, error) {
	var r studentRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM student WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	return r.toStudent()
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	const q = `
		UPDATE student
		SET name = $2, class = $3, parent_id = $4, updated_at = $5
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, st.ID, st.Name, st.Class, nullInt(st.ParentID), st.UpdatedAt)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return repo.GetStudent(ctx, st.ID)
}

func (repo *studentRepository) DeleteStudentsByID(ctx context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM student WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, q), args...); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	return nil
}

func (repo *studentRepository) AppendAttendance(ctx context.Context, id int, entry student.AttendanceEntry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "encoding attendance entry")
	}
	const q = `
		UPDATE student
		SET attendance = attendance || $2::jsonb, updated_at = now()
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, id, string(b))
	if err != nil {
		return errors.Wrap(err, "appending attendance")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo *studentRepository) SetGrade(ctx context.Context, id int, subject, grade string) error {
	const q = `
		UPDATE student
		SET grades = jsonb_set(grades, ARRAY[$2], to_jsonb($3::text), true), updated_at = now()
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, id, subject, grade)
	if err != nil {
		return errors.Wrap(err, "setting grade")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo *studentRepository) AppendLedgerEntry(ctx context.Context, id int, entry student.LedgerEntry) error {
	st, err := repo.GetStudent(ctx, id)
	if err != nil {
		return err
	}
	if entry.ID == 0 {
		entry.ID = nextLedgerID(st.Fees.History)
	}
	history := append(st.Fees.History, entry)
	b, err := json.Marshal(history)
	if err != nil {
		return errors.Wrap(err, "encoding fee history")
	}

	const q = `
		UPDATE student
		SET fee_history = $2::jsonb, fee_balance = fee_balance + $3, updated_at = now()
		WHERE id = $1`
	if _, err = repo.db.ExecContext(ctx, q, id, string(b), entry.Delta()); err != nil {
		return errors.Wrap(err, "appending ledger entry")
	}
	return nil
}

func (repo *studentRepository) QueryClasses(ctx context.Context) ([]string, error) {
	var classes []string
	const q = `SELECT DISTINCT class FROM student WHERE class <> '' ORDER BY class`
	if err := repo.db.SelectContext(ctx, &classes, q); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	return classes, nil
}

func encodeStudentJSON(st student.Student) (attendance, grades, history string, err error) {
	a, err := json.Marshal(st.Attendance)
	if err != nil {
		return "", "", "", errors.Wrap(err, "encoding attendance")
	}
	g, err := json.Marshal(st.Grades)
	if err != nil {
		return "", "", "", errors.Wrap(err, "encoding grades")
	}
	h, err := json.Marshal(st.Fees.History)
	if err != nil {
		return "", "", "", errors.Wrap(err, "encoding fee history")
	}
	return string(a), string(g), string(h), nil
}

func nextLedgerID(history []student.LedgerEntry) int {
	maxID := 0
	for _, e := range history {
		if e.ID > maxID {
			maxID = e.ID
		}
	}
	return maxID + 1
}
