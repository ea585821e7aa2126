package student_test

import (
	"context"
	"testing"
	"time"

	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/student"
	"github.com/edumanage/backend/core/user"
	dummydb "github.com/edumanage/backend/storage/database/dummy"
	testutil "github.com/edumanage/backend/tests"
)

func setup(t *testing.T) (student.Service, student.Repository, user.Repository) {
	t.Helper()

	db, err := dummydb.Open("")
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}
	repo := dummydb.NewStudentRepository(db)
	return student.NewService(repo, testutil.NewConfig()), repo, dummydb.NewUserRepository(db)
}

func TestService_CreateForUser(t *testing.T) {
	svc, _, usrRepo := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, usrRepo, "Alex", "alex", "alex@test.cd", "", user.RoleStudent, "STUAAA111", true)
	usr.Class = "Class 10"

	st, err := svc.CreateForUser(ctx, usr)
	if err != nil {
		t.Fatalf("CreateForUser(): %v", err)
	}
	if st.ID != usr.ID {
		t.Errorf("CreateForUser() ID = %v, want user ID %v", st.ID, usr.ID)
	}
	if st.RollNumber != usr.LoginCode {
		t.Errorf("CreateForUser() roll number = %v, want %v", st.RollNumber, usr.LoginCode)
	}
	if st.Class != "Class 10" {
		t.Errorf("CreateForUser() class = %v", st.Class)
	}
	if len(st.Attendance) != 0 || len(st.Grades) != 0 || st.Fees.Balance != 0 {
		t.Error("CreateForUser() record not empty")
	}

	if _, err = svc.CreateForUser(ctx, usr); err != student.ErrRecordExists {
		t.Errorf("CreateForUser() error = %v, want %v", err, student.ErrRecordExists)
	}
}

func TestService_MarkAttendance(t *testing.T) {
	svc, stdRepo, usrRepo := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, usrRepo, "Alex", "alex", "alex@test.cd", "", user.RoleStudent, "STUAAA111", true)
	st := testutil.CreateStudent(t, stdRepo, usr, "Class 10", nil)
	teacherID := 42

	if _, err := svc.MarkAttendance(ctx, st.ID, "", "lol", teacherID); err == nil {
		t.Error("MarkAttendance() accepted an invalid status")
	} else if _, ok := err.(*core.ValidationError); !ok {
		t.Errorf("MarkAttendance() error = %T, want *core.ValidationError", err)
	}
	if _, err := svc.MarkAttendance(ctx, st.ID, "not-a-date", student.StatusPresent, teacherID); err == nil {
		t.Error("MarkAttendance() accepted an invalid date")
	}

	got, err := svc.MarkAttendance(ctx, st.ID, "", student.StatusPresent, teacherID)
	if err != nil {
		t.Fatalf("MarkAttendance(): %v", err)
	}
	if len(got.Attendance) != 1 {
		t.Fatalf("MarkAttendance() log len = %v, want 1", len(got.Attendance))
	}
	entry := got.Attendance[0]
	if entry.Date != core.FormatDate(time.Now()) {
		t.Errorf("MarkAttendance() date = %v, want today", entry.Date)
	}
	if entry.Status != student.StatusPresent || entry.Method != student.MethodManual || entry.RecordedBy != teacherID {
		t.Errorf("MarkAttendance() entry = %+v", entry)
	}

	// the log is append-only
	got, err = svc.MarkAttendance(ctx, st.ID, "2026-01-15", student.StatusAbsent, teacherID)
	if err != nil {
		t.Fatalf("MarkAttendance(): %v", err)
	}
	if len(got.Attendance) != 2 {
		t.Errorf("MarkAttendance() log len = %v, want 2", len(got.Attendance))
	}
}

func TestService_RecordGrade(t *testing.T) {
	svc, stdRepo, usrRepo := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, usrRepo, "Alex", "alex", "alex@test.cd", "", user.RoleStudent, "STUAAA111", true)
	st := testutil.CreateStudent(t, stdRepo, usr, "Class 10", nil)

	if _, err := svc.RecordGrade(ctx, st.ID, "", "A"); err == nil {
		t.Error("RecordGrade() accepted an empty subject")
	}

	got, err := svc.RecordGrade(ctx, st.ID, "Math", "B")
	if err != nil {
		t.Fatalf("RecordGrade(): %v", err)
	}
	if got.Grades["Math"] != "B" {
		t.Errorf("RecordGrade() grades = %v", got.Grades)
	}

	// last write wins
	got, err = svc.RecordGrade(ctx, st.ID, "Math", "A+")
	if err != nil {
		t.Fatalf("RecordGrade(): %v", err)
	}
	if got.Grades["Math"] != "A+" {
		t.Errorf("RecordGrade() grades = %v", got.Grades)
	}
	if len(got.Grades) != 1 {
		t.Errorf("RecordGrade() grades len = %v, want 1", len(got.Grades))
	}
}

func TestService_CheckIn(t *testing.T) {
	svc, stdRepo, usrRepo := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, usrRepo, "Alex", "alex", "alex@test.cd", "", user.RoleStudent, "STUAAA111", true)
	st := testutil.CreateStudent(t, stdRepo, usr, "Class 10", nil)

	session, err := svc.GenerateCheckInSession("Class 10")
	if err != nil {
		t.Fatalf("GenerateCheckInSession(): %v", err)
	}
	if session.ID == "" || session.Token == "" {
		t.Fatalf("GenerateCheckInSession() = %+v", session)
	}
	if !session.ExpiresAt.After(time.Now()) {
		t.Error("GenerateCheckInSession() already expired")
	}

	// token for another class
	otherSession, err := svc.GenerateCheckInSession("Class 9")
	if err != nil {
		t.Fatalf("GenerateCheckInSession(): %v", err)
	}
	if _, err = svc.CheckIn(ctx, st.ID, otherSession.Token); err == nil {
		t.Error("CheckIn() accepted a session for another class")
	} else if _, ok := err.(*core.ValidationError); !ok {
		t.Errorf("CheckIn() error = %T, want *core.ValidationError", err)
	}

	// tampered token
	if _, err = svc.CheckIn(ctx, st.ID, session.Token+"lol"); err == nil {
		t.Error("CheckIn() accepted a tampered token")
	}

	// expired token
	student.NowFunc = func() time.Time { return time.Now().Add(-time.Hour) }
	expiredSession, err := svc.GenerateCheckInSession("Class 10")
	student.NowFunc = time.Now // reset
	if err != nil {
		t.Fatalf("GenerateCheckInSession(): %v", err)
	}
	if _, err = svc.CheckIn(ctx, st.ID, expiredSession.Token); err == nil {
		t.Error("CheckIn() accepted an expired token")
	}

	got, err := svc.CheckIn(ctx, st.ID, session.Token)
	if err != nil {
		t.Fatalf("CheckIn(): %v", err)
	}
	if len(got.Attendance) != 1 {
		t.Fatalf("CheckIn() log len = %v, want 1", len(got.Attendance))
	}
	entry := got.Attendance[0]
	if entry.Status != student.StatusPresent || entry.Method != student.MethodQR || entry.RecordedBy != 0 {
		t.Errorf("CheckIn() entry = %+v", entry)
	}
}

func TestService_ReportCard(t *testing.T) {
	svc, stdRepo, usrRepo := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, usrRepo, "Alex", "alex", "alex@test.cd", "", user.RoleStudent, "STUAAA111", true)
	st := testutil.CreateStudent(t, stdRepo, usr, "Class 10", nil)

	// empty record
	rc, err := svc.ReportCard(ctx, st.ID)
	if err != nil {
		t.Fatalf("ReportCard(): %v", err)
	}
	if rc.Attendance.Rate != 0 || rc.Attendance.Present != 0 || rc.FeeBalance != 0 {
		t.Errorf("ReportCard() = %+v", rc)
	}

	for _, status := range []student.AttendanceStatus{student.StatusPresent, student.StatusPresent, student.StatusPresent, student.StatusAbsent} {
		if _, err = svc.MarkAttendance(ctx, st.ID, "", status, 1); err != nil {
			t.Fatalf("MarkAttendance(): %v", err)
		}
	}
	if _, err = svc.RecordGrade(ctx, st.ID, "Math", "A"); err != nil {
		t.Fatalf("RecordGrade(): %v", err)
	}
	if err = stdRepo.AppendLedgerEntry(ctx, st.ID, student.LedgerEntry{
		Date: "2026-01-01", Description: "Tuition", Amount: 5000, Type: student.EntryDebit,
	}); err != nil {
		t.Fatalf("AppendLedgerEntry(): %v", err)
	}

	rc, err = svc.ReportCard(ctx, st.ID)
	if err != nil {
		t.Fatalf("ReportCard(): %v", err)
	}
	if rc.Attendance.Present != 3 || rc.Attendance.Absent != 1 {
		t.Errorf("ReportCard() attendance = %+v", rc.Attendance)
	}
	if rc.Attendance.Rate != 0.75 {
		t.Errorf("ReportCard() rate = %v, want 0.75", rc.Attendance.Rate)
	}
	if rc.Grades["Math"] != "A" {
		t.Errorf("ReportCard() grades = %v", rc.Grades)
	}
	if rc.FeeBalance != 5000 {
		t.Errorf("ReportCard() fee balance = %v, want 5000", rc.FeeBalance)
	}

	if _, err = svc.ReportCard(ctx, 999); err != student.ErrNotFound {
		t.Errorf("ReportCard() error = %v, want %v", err, student.ErrNotFound)
	}
}
