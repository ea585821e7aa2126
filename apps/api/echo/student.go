package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edumanage/backend/core"
	"github.com/edumanage/backend/core/student"
	"github.com/edumanage/backend/core/user"
)

var errStdNotFoundInCtx = errors.New("student object not found in echo.Context")

type studentApi struct {
	conf     *core.Config
	svc      student.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := studentApi{
		conf:     deps.Conf,
		svc:      deps.StudentSvc,
		validate: deps.Validate,
	}

	sg := g.Group("/students", jwt)
	staffOnly := roleMiddleware(user.RoleTeacher, user.RoleAccountant)

	sg.GET("", api.query, staffOnly)
	sg.GET("/classes", api.queryClasses, staffOnly)
	sg.POST("/check-in-session", api.createCheckInSession, roleMiddleware(user.RoleTeacher))

	// detail endpoints
	dg := sg.Group("/:id", studentObjectMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, roleMiddleware(user.RoleTeacher))
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.POST("/attendance", api.markAttendance, roleMiddleware(user.RoleTeacher))
	dg.POST("/grades", api.recordGrade, roleMiddleware(user.RoleTeacher))
	dg.POST("/check-in", api.checkIn)
	dg.GET("/report-card", api.reportCard)
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) queryClasses(ctx echo.Context) error {
	classes, err := api.svc.Classes(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []string{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	st, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStdNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) update(ctx echo.Context) error {
	st, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStdNotFoundInCtx, "retrieving object from context")
	}

	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}

	st, err := api.svc.Update(ctx.Request().Context(), st.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	st, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStdNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), st.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) markAttendance(ctx echo.Context) error {
	st, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStdNotFoundInCtx, "retrieving object from context")
	}

	var data AttendanceRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AttendanceRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	st, err = api.svc.MarkAttendance(ctx.Request().Context(), st.ID, data.Date, student.AttendanceStatus(data.Status), claims.UserID())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) recordGrade(ctx echo.Context) error {
	st, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStdNotFoundInCtx, "retrieving object from context")
	}

	var data GradeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, err := api.svc.RecordGrade(ctx.Request().Context(), st.ID, data.Subject, data.Grade)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

// createCheckInSession issues a short-lived signed token a teacher displays as
// a QR code for their class.
func (api *studentApi) createCheckInSession(ctx echo.Context) error {
	var data CheckInSessionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckInSessionRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	session, err := api.svc.GenerateCheckInSession(data.Class)
	if err != nil {
		return errors.Wrap(err, "generating check-in session")
	}
	return ctx.JSON(http.StatusCreated, session)
}

// checkIn lets a student mark themselves present by redeeming a session token.
func (api *studentApi) checkIn(ctx echo.Context) error {
	st, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStdNotFoundInCtx, "retrieving object from context")
	}

	// students may only check themselves in
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if claims.IsStudent && claims.UserID() != st.ID {
		return errHttpForbidden
	}

	var data CheckInRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckInRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	st, err = api.svc.CheckIn(ctx.Request().Context(), st.ID, data.Token)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) reportCard(ctx echo.Context) error {
	st, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStdNotFoundInCtx, "retrieving object from context")
	}
	rc, err := api.svc.ReportCard(ctx.Request().Context(), st.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rc)
}

// studentObjectMiddleware loads the student and enforces record-level access:
// staff see everyone, students see themselves, parents see their children.
func studentObjectMiddleware(svc student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}

			id, err := strconv.Atoi(ctx.Param("id"))
			if err != nil {
				return errHttpNotFound
			}

			st, err := svc.GetByID(ctx.Request().Context(), id)
			if err != nil {
				if errors.Cause(err) == student.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding student by ID")
			}

			allowed := claims.IsAdmin || claims.IsTeacher || claims.IsAccountant ||
				(claims.IsStudent && claims.UserID() == st.ID) ||
				(claims.IsParent && st.ParentID != nil && claims.UserID() == *st.ParentID)
			if !allowed {
				return errHttpNotFound
			}

			ctx.Set("object", st)
			return next(ctx)
		}
	}
}
