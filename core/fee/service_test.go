package fee_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/fee"
	"github.com/edumanage/backend/core/student"
	"github.com/edumanage/backend/core/user"
	emailsvc "github.com/edumanage/backend/services/email"
	dummydb "github.com/edumanage/backend/storage/database/dummy"
	testutil "github.com/edumanage/backend/tests"
)

type testEnv struct {
	svc     fee.Service
	stdRepo student.Repository
	usrRepo user.Repository

	parent   user.User
	alex     student.Student // Class 10, linked to parent
	emma     student.Student // Class 10, no parent
	noFee    student.Student // Class 9, no fee structure
}

func setup(t *testing.T, lookback string) *testEnv {
	t.Helper()

	db, err := dummydb.Open("")
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}
	conf := testutil.NewConfig()
	conf.Fee.Lookback = lookback
	core.ParseEmailTemplates(testutil.NopLogger{})
	emailsvc.ClearSentMessages()

	env := &testEnv{
		stdRepo: dummydb.NewStudentRepository(db),
		usrRepo: dummydb.NewUserRepository(db),
	}
	feeRepo := dummydb.NewFeeRepository(db)

	env.svc, err = fee.NewService(feeRepo, env.stdRepo, env.usrRepo, emailsvc.NewConsoleServiceMock(conf), conf)
	if err != nil {
		t.Fatalf("fee.NewService(): %v", err)
	}

	env.parent = testutil.CreateUser(t, env.usrRepo, "Robert Parent", "robert", "robert@test.cd", "", user.RoleParent, "PARAAA111", true)
	alexUsr := testutil.CreateUser(t, env.usrRepo, "Alex", "alex", "alex@test.cd", "", user.RoleStudent, "STUAAA111", true)
	emmaUsr := testutil.CreateUser(t, env.usrRepo, "Emma", "emma", "emma@test.cd", "", user.RoleStudent, "STUBBB222", true)
	noFeeUsr := testutil.CreateUser(t, env.usrRepo, "Sam", "sam", "sam@test.cd", "", user.RoleStudent, "STUCCC333", true)

	env.alex = testutil.CreateStudent(t, env.stdRepo, alexUsr, "Class 10", &env.parent.ID)
	env.emma = testutil.CreateStudent(t, env.stdRepo, emmaUsr, "Class 10", nil)
	env.noFee = testutil.CreateStudent(t, env.stdRepo, noFeeUsr, "Class 9", nil)

	if _, err = env.svc.SetStructure(context.Background(), fee.NewStructure{
		ClassName:   "Class 10",
		Amount:      5000,
		Description: "Monthly Tuition Fee",
	}); err != nil {
		t.Fatalf("SetStructure(): %v", err)
	}
	return env
}

func TestNewService_badLookback(t *testing.T) {
	conf := testutil.NewConfig()
	conf.Fee.Lookback = "lol"
	if _, err := fee.NewService(nil, nil, nil, nil, conf); err == nil {
		t.Error("NewService() accepted an unknown lookback")
	}
}

func TestService_SetStructure_upsert(t *testing.T) {
	env := setup(t, "last-entry")
	ctx := context.Background()

	s, err := env.svc.StructureForClass(ctx, "Class 10")
	if err != nil {
		t.Fatalf("StructureForClass(): %v", err)
	}

	// replacing keeps a single structure per class
	updated, err := env.svc.SetStructure(ctx, fee.NewStructure{
		ClassName:   "Class 10",
		Amount:      6000,
		Description: "Monthly Tuition Fee",
	})
	if err != nil {
		t.Fatalf("SetStructure(): %v", err)
	}
	if updated.ID != s.ID {
		t.Errorf("SetStructure() ID = %v, want %v", updated.ID, s.ID)
	}
	if updated.Amount != 6000 {
		t.Errorf("SetStructure() amount = %v, want 6000", updated.Amount)
	}

	structures, err := env.svc.Structures(ctx)
	if err != nil {
		t.Fatalf("Structures(): %v", err)
	}
	if len(structures) != 1 {
		t.Errorf("Structures() len = %v, want 1", len(structures))
	}

	if _, err = env.svc.StructureForClass(ctx, "Class 9"); err != fee.ErrNotFound {
		t.Errorf("StructureForClass() error = %v, want %v", err, fee.ErrNotFound)
	}
}

func TestService_Accrue(t *testing.T) {
	env := setup(t, "last-entry")
	ctx := context.Background()

	res, err := env.svc.Accrue(ctx)
	if err != nil {
		t.Fatalf("Accrue(): %v", err)
	}
	if res.Charged != 2 || res.Skipped != 0 {
		t.Errorf("Accrue() = %+v, want 2 charged", res)
	}
	if len(res.Missing) != 1 || res.Missing[0] != "Class 9" {
		t.Errorf("Accrue() missing = %v, want [Class 9]", res.Missing)
	}

	alex, err := env.stdRepo.GetStudent(ctx, env.alex.ID)
	if err != nil {
		t.Fatalf("GetStudent(): %v", err)
	}
	if alex.Fees.Balance != 5000 {
		t.Errorf("Accrue() balance = %v, want 5000", alex.Fees.Balance)
	}
	entry, ok := alex.Fees.LastEntry()
	if !ok {
		t.Fatal("Accrue() ledger empty")
	}
	if entry.ID != 1 {
		t.Errorf("Accrue() entry ID = %v, want 1", entry.ID)
	}
	if entry.Description != "Monthly Tuition Fee for Class 10" {
		t.Errorf("Accrue() description = %v", entry.Description)
	}
	if entry.Type != student.EntryDebit || entry.Amount != 5000 {
		t.Errorf("Accrue() entry = %+v", entry)
	}
	if entry.Date != core.FormatDate(time.Now()) {
		t.Errorf("Accrue() date = %v, want today", entry.Date)
	}

	// the student without a structure is untouched
	noFee, err := env.stdRepo.GetStudent(ctx, env.noFee.ID)
	if err != nil {
		t.Fatalf("GetStudent(): %v", err)
	}
	if noFee.Fees.Balance != 0 || len(noFee.Fees.History) != 0 {
		t.Errorf("Accrue() charged a student without a structure: %+v", noFee.Fees)
	}

	// a repeat run is a no-op
	res, err = env.svc.Accrue(ctx)
	if err != nil {
		t.Fatalf("Accrue(): %v", err)
	}
	if res.Charged != 0 || res.Skipped != 2 {
		t.Errorf("Accrue() repeat = %+v, want 2 skipped", res)
	}
}

func TestService_Accrue_afterPayment(t *testing.T) {
	env := setup(t, "last-entry")
	ctx := context.Background()

	if _, err := env.svc.Accrue(ctx); err != nil {
		t.Fatalf("Accrue(): %v", err)
	}

	alex, err := env.svc.RecordPayment(ctx, env.alex.ID, 2000, "")
	if err != nil {
		t.Fatalf("RecordPayment(): %v", err)
	}
	if alex.Fees.Balance != 3000 {
		t.Errorf("RecordPayment() balance = %v, want 3000", alex.Fees.Balance)
	}
	entry, _ := alex.Fees.LastEntry()
	if entry.Description != "Payment" || entry.Type != student.EntryCredit || entry.ID != 2 {
		t.Errorf("RecordPayment() entry = %+v", entry)
	}

	// the payment ends the last-entry guard window: the next billing cycle
	// charges again
	res, err := env.svc.Accrue(ctx)
	if err != nil {
		t.Fatalf("Accrue(): %v", err)
	}
	if res.Charged != 1 || res.Skipped != 1 {
		t.Errorf("Accrue() after payment = %+v, want 1 charged 1 skipped", res)
	}

	if _, err = env.svc.RecordPayment(ctx, env.alex.ID, 0, ""); err == nil {
		t.Error("RecordPayment() accepted a zero amount")
	}
}

func TestService_Accrue_fullHistory(t *testing.T) {
	env := setup(t, "full-history")
	ctx := context.Background()

	if _, err := env.svc.Accrue(ctx); err != nil {
		t.Fatalf("Accrue(): %v", err)
	}
	if _, err := env.svc.RecordPayment(ctx, env.alex.ID, 5000, "Term payment"); err != nil {
		t.Fatalf("RecordPayment(): %v", err)
	}

	// under full-history the paid charge still blocks a repeat
	res, err := env.svc.Accrue(ctx)
	if err != nil {
		t.Fatalf("Accrue(): %v", err)
	}
	if res.Charged != 0 || res.Skipped != 2 {
		t.Errorf("Accrue() = %+v, want 2 skipped", res)
	}
}

func TestService_Accrue_parentReminder(t *testing.T) {
	env := setup(t, "last-entry")
	ctx := context.Background()

	if _, err := env.svc.Accrue(ctx); err != nil {
		t.Fatalf("Accrue(): %v", err)
	}

	// only alex has a linked parent
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("Accrue() sent %d messages, want 1", len(emailsvc.SentMessages))
	}
	msg := emailsvc.SentMessages[0]
	if msg.Subject != "Fee Reminder" {
		t.Errorf("Accrue() mail subject = %v", msg.Subject)
	}
	if msg.To[0].Address != env.parent.Email {
		t.Errorf("Accrue() mail to = %v, want %v", msg.To[0].Address, env.parent.Email)
	}
	if !strings.Contains(msg.TextContent, "Monthly Tuition Fee for Class 10") {
		t.Error("Accrue() reminder missing charge description")
	}
}

func TestService_SummaryAndOverdue(t *testing.T) {
	env := setup(t, "last-entry")
	ctx := context.Background()

	if _, err := env.svc.Accrue(ctx); err != nil {
		t.Fatalf("Accrue(): %v", err)
	}
	if _, err := env.svc.RecordPayment(ctx, env.alex.ID, 5000, ""); err != nil {
		t.Fatalf("RecordPayment(): %v", err)
	}

	summary, err := env.svc.Summary(ctx, env.alex.ID)
	if err != nil {
		t.Fatalf("Summary(): %v", err)
	}
	if summary.Charged != 5000 || summary.Paid != 5000 || summary.Balance != 0 {
		t.Errorf("Summary() = %+v", summary)
	}
	if summary.StudentName != "Alex" || summary.Class != "Class 10" {
		t.Errorf("Summary() = %+v", summary)
	}

	// alex is settled; only emma still owes
	overdue, err := env.svc.Overdue(ctx)
	if err != nil {
		t.Fatalf("Overdue(): %v", err)
	}
	if len(overdue) != 1 {
		t.Fatalf("Overdue() len = %v, want 1", len(overdue))
	}
	if overdue[0].StudentID != env.emma.ID || overdue[0].Balance != 5000 {
		t.Errorf("Overdue() = %+v", overdue[0])
	}
}
