package fee

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/edumanage/backend/core"
)

// Lookback selects how far back the accrual run scans a student's ledger when
// deciding whether the current charge was already applied.
type Lookback string

const (
	// LookbackLastEntry only inspects the most recent ledger entry. A payment
	// recorded after a charge ends the guard window, so the next run charges
	// again.
	LookbackLastEntry Lookback = "last-entry"
	// LookbackFullHistory scans the whole ledger; a description is charged at
	// most once per student, ever.
	LookbackFullHistory Lookback = "full-history"
)

func ParseLookback(s string) (Lookback, error) {
	switch lb := Lookback(core.CleanString(s, true /* lower */)); lb {
	case "":
		return LookbackLastEntry, nil
	case LookbackLastEntry, LookbackFullHistory:
		return lb, nil
	default:
		return "", errors.Errorf("unknown fee lookback %q", s)
	}
}

// Structure is the chargeable fee definition for a class.
type Structure struct {
	ID          int       `json:"id"`
	ClassName   string    `json:"class_name"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewStructure defines what information is required to define or replace the
// fee structure of a class. At most one structure exists per class.
type NewStructure struct {
	ClassName   string `json:"class_name" validate:"required"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Description string `json:"description" validate:"required"`
}

func (ns *NewStructure) clean() {
	ns.ClassName = core.CleanString(ns.ClassName)
	ns.Description = core.CleanString(ns.Description)
}

func (ns *NewStructure) Validate(ctx context.Context, validate *validator.Validate) error {
	ns.clean()
	return validate.StructCtx(ctx, ns)
}

// AccrualResult summarizes one accrual run.
type AccrualResult struct {
	Charged int      `json:"charged"`
	Skipped int      `json:"skipped"` // already charged per the lookback policy
	Missing []string `json:"missing"` // classes without a fee structure
}

// StudentSummary is the fee roll-up for one student.
type StudentSummary struct {
	StudentID   int    `json:"student_id"`
	StudentName string `json:"student_name"`
	Class       string `json:"class"`
	Charged     int64  `json:"charged"`
	Paid        int64  `json:"paid"`
	Balance     int64  `json:"balance"`
}
