package echoapi

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/edumanage/backend/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	DestroyMultipleRequest struct {
		IDs []int `query:"id"`
	}

	AttendanceRequest struct {
		Date   string `json:"date"` // YYYY-MM-DD; defaults to today
		Status string `json:"status" validate:"required"`
	}

	GradeRequest struct {
		Subject string `json:"subject" validate:"required"`
		Grade   string `json:"grade" validate:"required"`
	}

	CheckInSessionRequest struct {
		Class string `json:"class" validate:"required"`
	}

	CheckInRequest struct {
		Token string `json:"token" validate:"required"`
	}

	PaymentRequest struct {
		Amount      int64  `json:"amount" validate:"required,gt=0"`
		Description string `json:"description"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}

func (ar *AttendanceRequest) Validate(validate *validator.Validate) error {
	ar.Date = core.CleanString(ar.Date)
	ar.Status = core.CleanString(ar.Status, true /* lower */)
	return validate.Struct(ar)
}

func (gr *GradeRequest) Validate(validate *validator.Validate) error {
	gr.Subject = core.CleanString(gr.Subject)
	gr.Grade = core.CleanString(gr.Grade)
	return validate.Struct(gr)
}
