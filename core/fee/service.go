package fee

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/student"
	"github.com/edumanage/backend/core/user"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("fee structure not found")
)

const defaultPaymentDescription = "Payment"

type (
	Repository interface {
		// UpsertStructure creates the class's structure or replaces it; at
		// most one structure exists per class.
		UpsertStructure(ctx context.Context, s Structure) (Structure, error)
		QueryStructures(ctx context.Context) ([]Structure, error)
		GetStructure(ctx context.Context, id int) (Structure, error)
		GetStructureForClass(ctx context.Context, class string) (Structure, error)
		DeleteStructuresByID(ctx context.Context, ids ...int) error
	}

	Service interface {
		SetStructure(ctx context.Context, ns NewStructure) (Structure, error)
		Structures(ctx context.Context) ([]Structure, error)
		GetStructure(ctx context.Context, id int) (Structure, error)
		StructureForClass(ctx context.Context, class string) (Structure, error)
		DeleteStructures(ctx context.Context, ids ...int) error
		Accrue(ctx context.Context) (AccrualResult, error)
		RecordPayment(ctx context.Context, studentID int, amount int64, description string) (student.Student, error)
		Summary(ctx context.Context, studentID int) (StudentSummary, error)
		Overdue(ctx context.Context) ([]StudentSummary, error)
	}

	service struct {
		repo     Repository
		stdRepo  student.Repository
		usrRepo  user.Repository
		mailSvc  core.EmailService
		conf     *core.Config
		lookback Lookback
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	stdRepo student.Repository,
	usrRepo user.Repository,
	mailSvc core.EmailService,
	conf *core.Config,
) (Service, error) {
	lookback, err := ParseLookback(conf.Fee.Lookback)
	if err != nil {
		return nil, err
	}
	return &service{
		repo:     repo,
		stdRepo:  stdRepo,
		usrRepo:  usrRepo,
		mailSvc:  mailSvc,
		conf:     conf,
		lookback: lookback,
	}, nil
}

func (svc *service) SetStructure(ctx context.Context, ns NewStructure) (Structure, error) {
	now := time.Now().UTC()
	s := Structure{
		ClassName:   ns.ClassName,
		Amount:      ns.Amount,
		Description: ns.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.UpsertStructure(ctx, s)
}

func (svc *service) Structures(ctx context.Context) ([]Structure, error) {
	return svc.repo.QueryStructures(ctx)
}

func (svc *service) GetStructure(ctx context.Context, id int) (Structure, error) {
	return svc.repo.GetStructure(ctx, id)
}

func (svc *service) StructureForClass(ctx context.Context, class string) (Structure, error) {
	return svc.repo.GetStructureForClass(ctx, core.CleanString(class))
}

func (svc *service) DeleteStructures(ctx context.Context, ids ...int) error {
	return svc.repo.DeleteStructuresByID(ctx, ids...)
}

// Accrue charges every student their class's fee structure. Students in a
// class without a structure are skipped; students already charged (per the
// configured lookback) are skipped too, so a run is safe to repeat.
func (svc *service) Accrue(ctx context.Context) (AccrualResult, error) {
	students, err := svc.stdRepo.QueryStudents(ctx, nil, nil)
	if err != nil {
		return AccrualResult{}, errors.Wrap(err, "querying students")
	}

	var res AccrualResult
	missing := make(map[string]bool)
	for _, st := range students {
		s, err := svc.repo.GetStructureForClass(ctx, st.Class)
		if err != nil {
			if errors.Cause(err) == ErrNotFound {
				if !missing[st.Class] {
					missing[st.Class] = true
					res.Missing = append(res.Missing, st.Class)
				}
				continue
			}
			return res, errors.Wrapf(err, "fee structure for class %q", st.Class)
		}

		if svc.alreadyCharged(st, s.Description) {
			res.Skipped++
			continue
		}

		entry := student.LedgerEntry{
			Date:        core.FormatDate(NowFunc()),
			Description: s.Description + " for " + st.Class,
			Amount:      s.Amount,
			Type:        student.EntryDebit,
		}
		if err = svc.stdRepo.AppendLedgerEntry(ctx, st.ID, entry); err != nil {
			return res, errors.Wrapf(err, "charging student %d", st.ID)
		}
		res.Charged++

		svc.sendFeeReminderMail(ctx, st, entry, st.Fees.Balance+entry.Delta())
	}
	return res, nil
}

// alreadyCharged reports whether the structure's description was already
// applied to the student's ledger within the lookback window.
func (svc *service) alreadyCharged(st student.Student, description string) bool {
	if svc.lookback == LookbackFullHistory {
		for _, entry := range st.Fees.History {
			if strings.Contains(entry.Description, description) {
				return true
			}
		}
		return false
	}
	last, ok := st.Fees.LastEntry()
	return ok && strings.Contains(last.Description, description)
}

// RecordPayment credits the student's fee account.
func (svc *service) RecordPayment(ctx context.Context, studentID int, amount int64, description string) (student.Student, error) {
	if amount <= 0 {
		return student.Student{}, core.NewValidationError(
			errors.New("invalid payment"), core.FieldError{Field: "amount", Error: "must be greater than 0"})
	}
	if description = core.CleanString(description); description == "" {
		description = defaultPaymentDescription
	}

	entry := student.LedgerEntry{
		Date:        core.FormatDate(NowFunc()),
		Description: description,
		Amount:      amount,
		Type:        student.EntryCredit,
	}
	if err := svc.stdRepo.AppendLedgerEntry(ctx, studentID, entry); err != nil {
		return student.Student{}, err
	}
	return svc.stdRepo.GetStudent(ctx, studentID)
}

func (svc *service) Summary(ctx context.Context, studentID int) (StudentSummary, error) {
	st, err := svc.stdRepo.GetStudent(ctx, studentID)
	if err != nil {
		return StudentSummary{}, err
	}
	return summarize(st), nil
}

// Overdue returns the fee summaries of all students carrying a positive
// balance.
func (svc *service) Overdue(ctx context.Context) ([]StudentSummary, error) {
	students, err := svc.stdRepo.QueryStudents(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	summaries := make([]StudentSummary, 0, len(students))
	for _, st := range students {
		if st.Fees.Balance > 0 {
			summaries = append(summaries, summarize(st))
		}
	}
	return summaries, nil
}

func summarize(st student.Student) StudentSummary {
	summary := StudentSummary{
		StudentID:   st.ID,
		StudentName: st.Name,
		Class:       st.Class,
		Balance:     st.Fees.Balance,
	}
	for _, entry := range st.Fees.History {
		switch entry.Type {
		case student.EntryDebit:
			summary.Charged += entry.Amount
		case student.EntryCredit:
			summary.Paid += entry.Amount
		}
	}
	return summary
}

// sendFeeReminderMail notifies the student's parent of a fresh charge. Lookup
// failures and missing parents are not fatal to the accrual run.
func (svc *service) sendFeeReminderMail(ctx context.Context, st student.Student, entry student.LedgerEntry, balance int64) {
	if st.ParentID == nil {
		return
	}
	parent, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: *st.ParentID})
	if err != nil || parent.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: parent.Name, Address: parent.Email}},
		Subject:      "Fee Reminder",
		TemplateName: "fee-reminder",
		TemplateData: struct {
			ParentName  string
			StudentName string
			Description string
			Amount      int64
			Balance     int64
		}{parent.Name, st.Name, entry.Description, entry.Amount, balance},
	})
}
