package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/user"
)

var (
	// errors
	ErrNotFound      = errors.New("student not found")
	ErrRecordExists  = errors.New("a student record already exists for this user")
	ErrInvalidStatus = errors.New("invalid attendance status")
	ErrClassMismatch = errors.New("check-in session is for another class")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, st Student) (Student, error)
		// QueryStudents applies an AND of the filter fields; QueryFilter.Search
		// does a case-insensitive match on Name or RollNumber.
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		GetStudent(ctx context.Context, id int) (Student, error)
		UpdateStudent(ctx context.Context, st Student) (Student, error)
		DeleteStudentsByID(ctx context.Context, ids ...int) error
		AppendAttendance(ctx context.Context, id int, entry AttendanceEntry) error
		SetGrade(ctx context.Context, id int, subject, grade string) error
		// AppendLedgerEntry appends the entry, assigning it the next
		// sequential per-student ID, and adjusts the balance by entry.Delta().
		AppendLedgerEntry(ctx context.Context, id int, entry LedgerEntry) error
		// QueryClasses returns the distinct class names students are enrolled in.
		QueryClasses(ctx context.Context) ([]string, error)
	}

	Service interface {
		CreateForUser(ctx context.Context, usr user.User) (Student, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		GetByID(ctx context.Context, id int) (Student, error)
		Update(ctx context.Context, id int, us UpdateStudent) (Student, error)
		Delete(ctx context.Context, ids ...int) error
		MarkAttendance(ctx context.Context, id int, date string, status AttendanceStatus, recordedBy int) (Student, error)
		RecordGrade(ctx context.Context, id int, subject, grade string) (Student, error)
		Classes(ctx context.Context) ([]string, error)
		GenerateCheckInSession(class string) (CheckInSession, error)
		CheckIn(ctx context.Context, id int, token string) (Student, error)
		ReportCard(ctx context.Context, id int) (ReportCard, error)
	}

	service struct {
		repo Repository
		conf *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, conf *core.Config) Service {
	return &service{
		repo: repo,
		conf: conf,
	}
}

func (svc *service) CreateForUser(ctx context.Context, usr user.User) (Student, error) {
	if _, err := svc.repo.GetStudent(ctx, usr.ID); err == nil {
		return Student{}, ErrRecordExists
	} else if errors.Cause(err) != ErrNotFound {
		return Student{}, errors.Wrap(err, "checking for existing record")
	}
	return svc.repo.CreateStudent(ctx, NewFromUser(usr))
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id int) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *service) Update(ctx context.Context, id int, us UpdateStudent) (Student, error) {
	st, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if name := core.CleanString(us.Name); name != "" {
		st.Name = name
	}
	if class := core.CleanString(us.Class); class != "" {
		st.Class = class
	}
	if us.ParentID != nil {
		st.ParentID = us.ParentID
	}
	st.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, st)
}

func (svc *service) Delete(ctx context.Context, ids ...int) error {
	return svc.repo.DeleteStudentsByID(ctx, ids...)
}

// MarkAttendance appends an entry to the student's attendance log. An empty
// date defaults to today.
func (svc *service) MarkAttendance(ctx context.Context, id int, date string, status AttendanceStatus, recordedBy int) (Student, error) {
	if !(status == StatusPresent || status == StatusAbsent) {
		return Student{}, core.NewValidationError(ErrInvalidStatus, core.FieldError{Field: "status", Error: ErrInvalidStatus.Error()})
	}
	if date == "" {
		date = core.FormatDate(time.Now())
	} else if _, err := time.Parse(core.DateFormat, date); err != nil {
		return Student{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: "invalid date"})
	}

	entry := AttendanceEntry{
		Date:       date,
		Status:     status,
		Method:     MethodManual,
		RecordedBy: recordedBy,
	}
	if err := svc.repo.AppendAttendance(ctx, id, entry); err != nil {
		return Student{}, err
	}
	return svc.repo.GetStudent(ctx, id)
}

// RecordGrade upserts the subject's grade; last write wins.
func (svc *service) RecordGrade(ctx context.Context, id int, subject, grade string) (Student, error) {
	subject = core.CleanString(subject)
	grade = core.CleanString(grade)
	if subject == "" || grade == "" {
		return Student{}, core.NewValidationError(errors.New("subject and grade are required"))
	}
	if err := svc.repo.SetGrade(ctx, id, subject, grade); err != nil {
		return Student{}, err
	}
	return svc.repo.GetStudent(ctx, id)
}

func (svc *service) Classes(ctx context.Context) ([]string, error) {
	return svc.repo.QueryClasses(ctx)
}

func (svc *service) GenerateCheckInSession(class string) (CheckInSession, error) {
	return newCheckInSession(svc.conf, core.CleanString(class))
}

// CheckIn validates a QR check-in token and marks the student present for
// today. The session's class must match the student's.
func (svc *service) CheckIn(ctx context.Context, id int, token string) (Student, error) {
	class, err := verifyCheckInToken(svc.conf, token)
	if err != nil {
		return Student{}, core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}

	st, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if st.Class != class {
		return Student{}, core.NewValidationError(ErrClassMismatch, core.FieldError{Field: "token", Error: ErrClassMismatch.Error()})
	}

	entry := AttendanceEntry{
		Date:   core.FormatDate(time.Now()),
		Status: StatusPresent,
		Method: MethodQR,
	}
	if err = svc.repo.AppendAttendance(ctx, id, entry); err != nil {
		return Student{}, err
	}
	return svc.repo.GetStudent(ctx, id)
}

func (svc *service) ReportCard(ctx context.Context, id int) (ReportCard, error) {
	st, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return ReportCard{}, err
	}

	var summary AttendanceSummary
	for _, entry := range st.Attendance {
		switch entry.Status {
		case StatusPresent:
			summary.Present++
		case StatusAbsent:
			summary.Absent++
		}
	}
	if total := summary.Present + summary.Absent; total > 0 {
		summary.Rate = float64(summary.Present) / float64(total)
	}

	return ReportCard{
		Student:    st,
		Grades:     st.Grades,
		Attendance: summary,
		FeeBalance: st.Fees.Balance,
	}, nil
}
