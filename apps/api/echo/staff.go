package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edumanage/backend/core/staff"
	"github.com/edumanage/backend/core/user"
)

var errStfNotFoundInCtx = errors.New("staff object not found in echo.Context")

type staffApi struct {
	svc staff.Service
}

func registerStaffAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := staffApi{svc: deps.StaffSvc}

	sg := g.Group("/staff", jwt)

	sg.GET("", api.query, roleMiddleware(user.RoleTeacher, user.RoleAccountant))
	sg.GET("/teachers", api.queryTeachers, roleMiddleware(user.RoleTeacher, user.RoleAccountant))
	sg.GET("/positions", api.queryPositions, adminMiddleware())
	sg.GET("/departments", api.queryDepartments, adminMiddleware())

	// detail endpoints
	dg := sg.Group("/:id", staffObjectMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
}

// Handlers

func (api *staffApi) query(ctx echo.Context) error {
	filter := new(staff.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []staff.Staff{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	members, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying staff")
	}
	if members == nil {
		members = []staff.Staff{}
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *staffApi) queryTeachers(ctx echo.Context) error {
	teachers, err := api.svc.Teachers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	if teachers == nil {
		teachers = []staff.Staff{}
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *staffApi) queryPositions(ctx echo.Context) error {
	positions, err := api.svc.Positions(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying positions")
	}
	if positions == nil {
		positions = []string{}
	}
	return ctx.JSON(http.StatusOK, positions)
}

func (api *staffApi) queryDepartments(ctx echo.Context) error {
	departments, err := api.svc.Departments(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying departments")
	}
	if departments == nil {
		departments = []string{}
	}
	return ctx.JSON(http.StatusOK, departments)
}

func (api *staffApi) retrieve(ctx echo.Context) error {
	st, ok := ctx.Get("object").(staff.Staff)
	if !ok {
		return errors.Wrap(errStfNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *staffApi) update(ctx echo.Context) error {
	st, ok := ctx.Get("object").(staff.Staff)
	if !ok {
		return errors.Wrap(errStfNotFoundInCtx, "retrieving object from context")
	}

	var data staff.UpdateStaff
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStaff")
	}

	st, err := api.svc.Update(ctx.Request().Context(), st.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating staff")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *staffApi) destroy(ctx echo.Context) error {
	st, ok := ctx.Get("object").(staff.Staff)
	if !ok {
		return errors.Wrap(errStfNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), st.ID); err != nil {
		return errors.Wrap(err, "deleting staff")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// staffObjectMiddleware loads the staff record; staff members see themselves,
// admins see everyone.
func staffObjectMiddleware(svc staff.Service) echo.MiddlewareFunc {
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
			if !(claims.IsAdmin || claims.IsAccountant || claims.UserID() == id) {
				return errHttpNotFound
			}

			st, err := svc.GetByID(ctx.Request().Context(), id)
			if err != nil {
				if errors.Cause(err) == staff.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding staff by ID")
			}

			ctx.Set("object", st)
			return next(ctx)
		}
	}
}
