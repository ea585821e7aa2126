package main

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/fee"
	"github.com/edumanage/backend/core/registration"
	"github.com/edumanage/backend/core/staff"
	"github.com/edumanage/backend/core/student"
	"github.com/edumanage/backend/core/user"
	emailsvc "github.com/edumanage/backend/services/email"
	dummydb "github.com/edumanage/backend/storage/database/dummy"
	testutil "github.com/edumanage/backend/tests"
)

var (
	usrRepo user.Repository
	stdRepo student.Repository
	stfRepo staff.Repository
)

func setup(t *testing.T) *commandLine {
	t.Helper()

	db, err := dummydb.Open("")
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}
	conf := testutil.NewConfig()
	core.ParseEmailTemplates(testutil.NopLogger{})
	emailsvc.ClearSentMessages()

	usrRepo = dummydb.NewUserRepository(db)
	stdRepo = dummydb.NewStudentRepository(db)
	stfRepo = dummydb.NewStaffRepository(db)
	feeRepo := dummydb.NewFeeRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewServiceMock(usrRepo, mailSvc, conf)
	stdSvc := student.NewService(stdRepo, conf)
	stfSvc := staff.NewService(stfRepo)
	feeSvc, err := fee.NewService(feeRepo, stdRepo, usrRepo, mailSvc, conf)
	if err != nil {
		t.Fatalf("fee.NewService(): %v", err)
	}

	return &commandLine{
		usrRepo: usrRepo,
		regSvc:  registration.NewService(usrSvc, stdSvc, stfSvc),
		feeSvc:  feeSvc,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	type extra struct {
		pwd   string
		uname string
		role  string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no name", args: []string{"adduser", "-role", "student"}, wantErr: errHelp},
		{name: "unknown role", args: []string{"adduser", "-name", "Alex", "-role", "lol"}, extra: extra{pwd: "s3cret"}, wantErr: errHelp},
		{name: "name but no password", args: []string{"adduser", "-name", "Alex", "-role", "student"}, wantErr: errHelp},
		{
			name:  "add student",
			args:  []string{"adduser", "-name", "Alex", "-role", "student", "-username", "alex", "-email", "alex@test.cd", "-class", "Class 10"},
			extra: extra{pwd: "s3cret", uname: "alex", role: user.RoleStudent},
		},
		{
			name:  "add teacher",
			args:  []string{"adduser", "-name", "John", "-role", "teacher", "-username", "john", "-class", "Class 10", "-subject", "Math"},
			extra: extra{pwd: "s3cret", uname: "john", role: user.RoleTeacher},
		},
		{
			name:    "duplicate username",
			args:    []string{"adduser", "-name", "Alex 2", "-role", "student", "-username", "alex"},
			extra:   extra{pwd: "s3cret"},
			wantErr: user.ErrUsernameExists,
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			extra := tt.extra.(extra)
			usr, err := usrRepo.GetUser(ctx, user.GetFilter{Username: extra.uname})
			if err != nil {
				t.Fatalf("GetUser() failed, %v", err)
			}
			if usr.LoginCode == "" {
				t.Error("cli.run() did not assign a login code")
			}
			switch extra.role {
			case user.RoleStudent:
				st, err := stdRepo.GetStudent(ctx, usr.ID)
				if err != nil {
					t.Fatalf("GetStudent() failed, %v", err)
				}
				if st.RollNumber != usr.LoginCode {
					t.Errorf("roll number = %v, want %v", st.RollNumber, usr.LoginCode)
				}
			case user.RoleTeacher:
				stf, err := stfRepo.GetStaff(ctx, usr.ID)
				if err != nil {
					t.Fatalf("GetStaff() failed, %v", err)
				}
				if stf.Subject != "Math" {
					t.Errorf("staff subject = %v, want Math", stf.Subject)
				}
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "mdr", user.RoleStudent, "STUAAA111", true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
				if err != nil {
					t.Fatalf("GetUser() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_accrueFees(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	alexUsr := testutil.CreateUser(t, usrRepo, "Alex", "alex", "alex@test.cd", "", user.RoleStudent, "STUAAA111", true)
	alex := testutil.CreateStudent(t, stdRepo, alexUsr, "Class 10", nil)
	if _, err := cli.feeSvc.SetStructure(ctx, fee.NewStructure{
		ClassName: "Class 10", Amount: 5000, Description: "Monthly Tuition Fee",
	}); err != nil {
		t.Fatalf("SetStructure(): %v", err)
	}

	if err := cli.run([]string{"admin", "accruefees"}); err != nil {
		t.Fatalf("cli.run() error = %v", err)
	}

	st, err := stdRepo.GetStudent(ctx, alex.ID)
	if err != nil {
		t.Fatalf("GetStudent() failed, %v", err)
	}
	if st.Fees.Balance != 5000 {
		t.Errorf("balance = %v, want 5000", st.Fees.Balance)
	}

	// a repeat run skips students already billed
	if err = cli.run([]string{"admin", "accruefees"}); err != nil {
		t.Fatalf("cli.run() error = %v", err)
	}
	if st, err = stdRepo.GetStudent(ctx, alex.ID); err != nil {
		t.Fatalf("GetStudent() failed, %v", err)
	}
	if st.Fees.Balance != 5000 {
		t.Errorf("repeat balance = %v, want 5000", st.Fees.Balance)
	}
}

func Test_commandLine_seed(t *testing.T) {
	cli := setup(t)

	// Postgres mode has no sample data
	if err := cli.run([]string{"admin", "seed"}); err != errNoMem {
		t.Errorf("cli.run() error = %v, wantErr %v", err, errNoMem)
	}

	var called bool
	cli.seedFunc = func() error {
		called = true
		return nil
	}
	if err := cli.run([]string{"admin", "seed"}); err != nil {
		t.Errorf("cli.run() error = %v", err)
	}
	if !called {
		t.Error("cli.run() did not seed the store")
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	// the in-memory store has no migrations
	if err := cli.run([]string{"admin", "migrate"}); err != errNoDB {
		t.Errorf("cli.run() error = %v, wantErr %v", err, errNoDB)
	}

	defer func(f func(db *sql.DB) error) { migrateFunc = f }(migrateFunc)
	var called bool
	migrateFunc = func(db *sql.DB) error {
		called = true
		return nil
	}

	cli.db = sqlx.NewDb(new(sql.DB), "postgres")
	if err := cli.run([]string{"admin", "migrate"}); err != nil {
		t.Errorf("cli.run() error = %v", err)
	}
	if !called {
		t.Error("cli.run() did not run the migrations")
	}
}
