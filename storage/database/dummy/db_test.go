package dummydb

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/edumanage/backend/core/student"
	"github.com/edumanage/backend/core/user"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snapshot.json")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open(): %v", err)
	}
	usrRepo := NewUserRepository(db)
	stdRepo := NewStudentRepository(db)

	usr := user.User{Name: "Alex", Username: "alex", Role: user.RoleStudent, LoginCode: "STUAAA111", Class: "Class 10"}
	usr.SetActive(true)
	if err = usr.SetPassword("pwd"); err != nil {
		t.Fatalf("SetPassword(): %v", err)
	}
	if usr, err = usrRepo.CreateUser(ctx, usr); err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	if _, err = stdRepo.CreateStudent(ctx, student.NewFromUser(usr)); err != nil {
		t.Fatalf("CreateStudent(): %v", err)
	}
	if err = stdRepo.AppendLedgerEntry(ctx, usr.ID, student.LedgerEntry{
		Date: "2026-01-01", Description: "Tuition", Amount: 5000, Type: student.EntryDebit,
	}); err != nil {
		t.Fatalf("AppendLedgerEntry(): %v", err)
	}

	// a fresh store loads the saved state
	db2, err := Open(path)
	if err != nil {
		t.Fatalf("Open(): %v", err)
	}
	loadedUsr, err := NewUserRepository(db2).GetUser(ctx, user.GetFilter{ID: usr.ID})
	if err != nil {
		t.Fatalf("GetUser(): %v", err)
	}
	if loadedUsr.Username != "alex" || loadedUsr.LoginCode != "STUAAA111" {
		t.Errorf("GetUser() = %+v", loadedUsr)
	}
	// the password hash survives even though User hides it from JSON
	if err = loadedUsr.CheckPassword("pwd"); err != nil {
		t.Errorf("CheckPassword(): %v", err)
	}

	loadedStd, err := NewStudentRepository(db2).GetStudent(ctx, usr.ID)
	if err != nil {
		t.Fatalf("GetStudent(): %v", err)
	}
	if loadedStd.Fees.Balance != 5000 || len(loadedStd.Fees.History) != 1 {
		t.Errorf("GetStudent() fees = %+v", loadedStd.Fees)
	}
}

func TestSnapshotCorruptStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := ioutil.WriteFile(path, []byte("{lol"), os.FileMode(0644)); err != nil {
		t.Fatalf("WriteFile(): %v", err)
	}

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open(): %v", err)
	}
	if len(db.users) != 0 {
		t.Errorf("Open() loaded %d users from a corrupt snapshot", len(db.users))
	}
}

func TestSeed(t *testing.T) {
	db, err := Open("")
	if err != nil {
		t.Fatalf("Open(): %v", err)
	}
	if err = Seed(db); err != nil {
		t.Fatalf("Seed(): %v", err)
	}

	if len(db.users) != 5 {
		t.Errorf("Seed() users = %v, want 5", len(db.users))
	}
	if len(db.students) != 2 {
		t.Errorf("Seed() students = %v, want 2", len(db.students))
	}
	if len(db.staff) != 1 {
		t.Errorf("Seed() staff = %v, want 1", len(db.staff))
	}
	if len(db.feeStructures) != 2 {
		t.Errorf("Seed() fee structures = %v, want 2", len(db.feeStructures))
	}

	// companion record IDs match the owning users
	usr, err := NewUserRepository(db).GetUser(context.Background(), user.GetFilter{Username: "student1"})
	if err != nil {
		t.Fatalf("GetUser(): %v", err)
	}
	st, err := NewStudentRepository(db).GetStudent(context.Background(), usr.ID)
	if err != nil {
		t.Fatalf("GetStudent(): %v", err)
	}
	if st.RollNumber != usr.LoginCode {
		t.Errorf("Seed() roll number = %v, want %v", st.RollNumber, usr.LoginCode)
	}
	if st.ParentID == nil {
		t.Error("Seed() student1 missing parent link")
	}

	// a second run leaves the store untouched
	if err = Seed(db); err != nil {
		t.Fatalf("Seed(): %v", err)
	}
	if len(db.users) != 5 {
		t.Errorf("Seed() repeat users = %v, want 5", len(db.users))
	}
}
