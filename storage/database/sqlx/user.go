// Package sqlxrepos implements the core repositories on Postgres via sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/user"
)

type userRow struct {
	ID            int       `db:"id"`
	Name          string    `db:"name"`
	Username      string    `db:"username"`
	Email         string    `db:"email"`
	Role          string    `db:"role"`
	LoginCode     string    `db:"login_code"`
	Class         string    `db:"class"`
	AssignedClass string    `db:"assigned_class"`
	Subject       string    `db:"subject"`
	ParentID      null.Int  `db:"parent_id"`
	IsActive      bool      `db:"is_active"`
	PasswordHash  []byte    `db:"password_hash"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
	LastLogin     null.Time `db:"last_login"`
}

func (r userRow) toUser() user.User {
	usr := user.User{
		ID:            r.ID,
		Name:          r.Name,
		Username:      r.Username,
		Email:         r.Email,
		Role:          r.Role,
		LoginCode:     r.LoginCode,
		Class:         r.Class,
		AssignedClass: r.AssignedClass,
		Subject:       r.Subject,
		ParentID:      intPtr(r.ParentID),
		PasswordHash:  r.PasswordHash,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		LastLogin:     r.LastLogin.Time,
	}
	usr.SetActive(r.IsActive)
	return usr
}

type userRepository struct {
	db core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DBExecutor) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	exclIDs := make([]int, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, usr.ID)
	}

	check := func(column, value string, dupErr error) error {
		if value == "" {
			return nil
		}
		q := `SELECT count(*) FROM app_user WHERE ` + column + ` = ?`
		args := []interface{}{value}
		if len(exclIDs) > 0 {
			q += ` AND id NOT IN (?)`
			args = append(args, exclIDs)
		}
		q, inArgs, err := sqlx.In(q, args...)
		if err != nil {
			return errors.Wrap(err, "building query")
		}
		var count int
		if err = repo.db.GetContext(ctx, &count, sqlx.Rebind(sqlx.DOLLAR, q), inArgs...); err != nil {
			return errors.Wrap(err, "checking uniqueness")
		}
		if count > 0 {
			return dupErr
		}
		return nil
	}

	if err := check("username", username, user.ErrUsernameExists); err != nil {
		return err
	}
	return check("email", email, user.ErrEmailExists)
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	const q = `
		INSERT INTO app_user
			(name, username, email, role, login_code, class, assigned_class, subject,
			 parent_id, is_active, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	err := repo.db.QueryRowContext(
		ctx, q,
		usr.Name, usr.Username, usr.Email, usr.Role, usr.LoginCode, usr.Class, usr.AssignedClass, usr.Subject,
		nullInt(usr.ParentID), usr.Active(), usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	).Scan(&usr.ID)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	q := `SELECT * FROM app_user`
	var clauses []string
	var args []interface{}

	if filter != nil && !filter.IsEmpty() {
		filter.Clean()
		if filter.Search != "" {
			clauses = append(clauses, `(name ILIKE ? OR username ILIKE ? OR email ILIKE ?)`)
			pat := "%" + filter.Search + "%"
			args = append(args, pat, pat, pat)
		}
		if len(filter.Roles) > 0 {
			clauses = append(clauses, `role IN (?)`)
			args = append(args, filter.Roles)
		}
		if filter.IsActive != nil {
			clauses = append(clauses, `is_active = ?`)
			args = append(args, *filter.IsActive)
		}
		if !filter.CreatedFrom.IsZero() {
			clauses = append(clauses, `created_at >= ?`)
			args = append(args, filter.CreatedFrom.UTC())
		}
		if !filter.CreatedTo.IsZero() {
			clauses = append(clauses, `created_at <= ?`)
			args = append(args, filter.CreatedTo.UTC())
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
	var rows []userRow
	if err = repo.db.SelectContext(ctx, &rows, sqlx.Rebind(sqlx.DOLLAR, q), inArgs...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}

	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		clause string
		args   []interface{}
	)
	switch {
	case filter.ID != 0:
		clause, args = `id = $1`, []interface{}{filter.ID}
	case filter.Username != "":
		clause, args = `username = $1`, []interface{}{filter.Username}
	case filter.Email != "":
		clause, args = `email = $1`, []interface{}{filter.Email}
	case filter.LoginCode != "":
		clause, args = `login_code = $1`, []interface{}{filter.LoginCode}
	case filter.UsernameOrCode != "":
		clause = `(username = $1 OR lower(login_code) = $1)`
		args = []interface{}{filter.UsernameOrCode}
	case len(filter.UsernameOrEmail) == 2:
		clause = `(username = $1 OR email = $2)`
		args = []interface{}{filter.UsernameOrEmail[0], filter.UsernameOrEmail[1]}
	default:
		return user.User{}, user.ErrNotFound
	}

	var r userRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM app_user WHERE `+clause, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return r.toUser(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	// only save set fields
	origUsr, err := repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	if err != nil {
		return user.User{}, err
	}
	if usr.Name != "" {
		origUsr.Name = usr.Name
	}
	if usr.Username != "" {
		origUsr.Username = usr.Username
	}
	if usr.Email != "" {
		origUsr.Email = usr.Email
	}
	if usr.Class != "" {
		origUsr.Class = usr.Class
	}
	if usr.AssignedClass != "" {
		origUsr.AssignedClass = usr.AssignedClass
	}
	if usr.Subject != "" {
		origUsr.Subject = usr.Subject
	}
	if usr.PasswordHash != nil {
		origUsr.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		origUsr.SetActive(*isActive)
	}
	origUsr.UpdatedAt = usr.UpdatedAt

	const q = `
		UPDATE app_user
		SET name = $2, username = $3, email = $4, class = $5, assigned_class = $6, subject = $7,
			password_hash = $8, is_active = $9, updated_at = $10
		WHERE id = $1`
	_, err = repo.db.ExecContext(
		ctx, q,
		origUsr.ID, origUsr.Name, origUsr.Username, origUsr.Email, origUsr.Class, origUsr.AssignedClass,
		origUsr.Subject, origUsr.PasswordHash, origUsr.Active(), origUsr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return origUsr, nil
}

func (repo *userRepository) SetLastLogin(ctx context.Context, id int, t time.Time) error {
	_, err := repo.db.ExecContext(ctx, `UPDATE app_user SET last_login = $2 WHERE id = $1`, id, t)
	return errors.Wrap(err, "setting last login")
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM app_user WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = repo.db.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, q), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
