// Package testutil provides fixtures shared by the service and API tests.
package testutil

import (
	"context"
	"net/mail"
	"testing"
	"time"

	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/staff"
	"github.com/edumanage/backend/core/student"
	"github.com/edumanage/backend/core/user"
)

// NewConfig returns a fixed configuration for tests.
func NewConfig() *core.Config {
	return &core.Config{
		TestMode:                  true,
		Env:                       "TEST",
		AppName:                   "EduManage",
		SecretKey:                 "secret",
		FrontendBaseURL:           "http://localhost:3000",
		DefaultFromEmail:          mail.Address{Name: "EduManage", Address: "noreply@edumanage.local"},
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Storage: core.StorageConfig{UseMemory: true},
		Fee:     core.FeeConfig{Lookback: "last-entry"},
	}
}

// NopLogger discards all messages.
type NopLogger struct{}

var _ core.Logger = (*NopLogger)(nil)

func (NopLogger) Enable(bool)                  {}
func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd, role, code string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Role:      role,
		LoginCode: code,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser(): %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

// CreateStudent derives and stores the companion record for a student user.
func CreateStudent(t *testing.T, repo student.Repository, usr user.User, class string, parentID *int) student.Student {
	t.Helper()

	usr.Class = class
	usr.ParentID = parentID
	st, err := repo.CreateStudent(context.Background(), student.NewFromUser(usr))
	if err != nil {
		t.Fatalf("CreateStudent(): %v", err)
	}
	return st
}

// CreateStaff derives and stores the companion record for a teacher user.
func CreateStaff(t *testing.T, repo staff.Repository, usr user.User) staff.Staff {
	t.Helper()

	st, err := repo.CreateStaff(context.Background(), staff.NewFromUser(usr))
	if err != nil {
		t.Fatalf("CreateStaff(): %v", err)
	}
	return st
}
