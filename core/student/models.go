package student

import (
	"time"

	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/user"
)

// Attendance
type (
	AttendanceStatus string
	AttendanceMethod string
)

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"

	MethodManual AttendanceMethod = "manual"
	MethodQR     AttendanceMethod = "qr"
)

// AttendanceEntry is one record in a student's append-only attendance log.
type AttendanceEntry struct {
	Date       string           `json:"date"` // core.DateFormat
	Status     AttendanceStatus `json:"status"`
	Method     AttendanceMethod `json:"method"`
	RecordedBy int              `json:"recorded_by,omitempty"` // user ID; 0 for self check-in
}

// Fee ledger
type LedgerEntryType string

const (
	EntryDebit  LedgerEntryType = "debit"
	EntryCredit LedgerEntryType = "credit"
)

// LedgerEntry is one dated, described, signed amount recorded against a
// student's fee balance. IDs are sequential per student.
type LedgerEntry struct {
	ID          int             `json:"id"`
	Date        string          `json:"date"` // core.DateFormat
	Description string          `json:"description"`
	Amount      int64           `json:"amount"`
	Type        LedgerEntryType `json:"type"`
}

// Delta is the entry's effect on the balance: debits increase it, credits
// decrease it.
func (e LedgerEntry) Delta() int64 {
	if e.Type == EntryCredit {
		return -e.Amount
	}
	return e.Amount
}

type FeeAccount struct {
	Balance int64         `json:"balance"`
	History []LedgerEntry `json:"history"`
}

// LastEntry returns the most recent ledger entry, or false when the history
// is empty.
func (fa FeeAccount) LastEntry() (LedgerEntry, bool) {
	if len(fa.History) == 0 {
		return LedgerEntry{}, false
	}
	return fa.History[len(fa.History)-1], true
}

// Student is the denormalized per-student record: identity, class membership,
// the attendance log, the subject->grade map and the fee account.
// Its ID always equals the owning user's ID.
type Student struct {
	ID         int               `json:"id"`
	Name       string            `json:"name"`
	Class      string            `json:"class"`
	RollNumber string            `json:"roll_number"`
	ParentID   *int              `json:"parent_id,omitempty"`
	Attendance []AttendanceEntry `json:"attendance"`
	Grades     map[string]string `json:"grades"`
	Fees       FeeAccount        `json:"fees"`
	CreatedAt  time.Time         `json:"created_at"` // UTC
	UpdatedAt  time.Time         `json:"updated_at"` // UTC
}

// NewFromUser derives the companion record for a freshly registered student
// user: empty attendance and grades, zero fee balance, roll number taken from
// the generated login code.
func NewFromUser(usr user.User) Student {
	now := time.Now().UTC()
	return Student{
		ID:         usr.ID,
		Name:       usr.Name,
		Class:      usr.Class,
		RollNumber: usr.LoginCode,
		ParentID:   usr.ParentID,
		Attendance: []AttendanceEntry{},
		Grades:     map[string]string{},
		Fees:       FeeAccount{Balance: 0, History: []LedgerEntry{}},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

type QueryFilter struct {
	Search string `query:"search"`
	Class  string `query:"class"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Class == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Class = core.CleanString(qf.Class)
}

// UpdateStudent defines what information may be provided to modify an
// existing Student record.
type UpdateStudent struct {
	Name     string `json:"name"`
	Class    string `json:"class"`
	ParentID *int   `json:"parent_id"`
}

// AttendanceSummary aggregates a student's attendance log.
type AttendanceSummary struct {
	Present int     `json:"present"`
	Absent  int     `json:"absent"`
	Rate    float64 `json:"rate"` // present / (present + absent); 0 when empty
}

// ReportCard is the per-student roll-up exposed by the reports endpoint.
type ReportCard struct {
	Student    Student           `json:"student"`
	Grades     map[string]string `json:"grades"`
	Attendance AttendanceSummary `json:"attendance"`
	FeeBalance int64             `json:"fee_balance"`
}
