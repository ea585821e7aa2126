package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edumanage/backend/core/fee"
	"github.com/edumanage/backend/core/user"
)

type feeApi struct {
	svc      fee.Service
	validate *validator.Validate
}

func registerFeeAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := feeApi{
		svc:      deps.FeeSvc,
		validate: deps.Validate,
	}

	fg := g.Group("/fees", jwt)
	billing := roleMiddleware(user.RoleAccountant)

	fg.GET("/structures", api.queryStructures, billing)
	fg.POST("/structures", api.setStructure, billing)
	fg.GET("/structures/:id", api.retrieveStructure, billing)
	fg.DELETE("/structures/:id", api.destroyStructure, billing)

	fg.POST("/accrue", api.accrue, billing)
	fg.GET("/overdue", api.overdue, billing)

	fg.POST("/students/:id/payments", api.recordPayment, billing)
	fg.GET("/students/:id/summary", api.studentSummary, billing)
}

// Handlers

func (api *feeApi) queryStructures(ctx echo.Context) error {
	structures, err := api.svc.Structures(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying fee structures")
	}
	if structures == nil {
		structures = []fee.Structure{}
	}
	return ctx.JSON(http.StatusOK, structures)
}

// setStructure defines or replaces the fee structure of a class.
func (api *feeApi) setStructure(ctx echo.Context) error {
	var data fee.NewStructure
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStructure")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate); err != nil {
		return err
	}

	s, err := api.svc.SetStructure(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "setting fee structure")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *feeApi) retrieveStructure(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	s, err := api.svc.GetStructure(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *feeApi) destroyStructure(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	if _, err = api.svc.GetStructure(ctx.Request().Context(), id); err != nil {
		return err
	}
	if err = api.svc.DeleteStructures(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting fee structure")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// accrue runs the fee accrual over the whole student body.
func (api *feeApi) accrue(ctx echo.Context) error {
	res, err := api.svc.Accrue(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "accruing fees")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *feeApi) overdue(ctx echo.Context) error {
	summaries, err := api.svc.Overdue(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying overdue accounts")
	}
	if summaries == nil {
		summaries = []fee.StudentSummary{}
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *feeApi) recordPayment(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data PaymentRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PaymentRequest")
	}
	if err = api.validate.Struct(&data); err != nil {
		return err
	}

	st, err := api.svc.RecordPayment(ctx.Request().Context(), id, data.Amount, data.Description)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *feeApi) studentSummary(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	summary, err := api.svc.Summary(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, summary)
}
