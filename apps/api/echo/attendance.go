package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
)

var monthParamLayout = "2006-01"

type attendanceApi struct {
	svc      attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *server) {
	api := attendanceApi{
		svc:      s.deps.AttendanceSvc,
		validate: s.deps.Validate,
	}

	// admin endpoints
	ag := g.Group("/attendance", jwt, adminMiddleware())
	ag.POST("", api.mark)
	ag.GET("", api.queryByDate)

	// student endpoints
	mg := g.Group("/me/attendance", jwt, studentMiddleware())
	mg.GET("", api.queryMyMonth)
}

// Handlers

func (api *attendanceApi) mark(ctx echo.Context) error {
	var data attendance.NewAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	att, err := api.svc.Mark(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, att)
}

// queryByDate lists a day's register; defaults to today.
func (api *attendanceApi) queryByDate(ctx echo.Context) error {
	date := core.Today()
	if raw := ctx.QueryParam("date"); raw != "" {
		var err error
		if date, err = core.ParseDate(raw); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "invalid date; expected YYYY-MM-DD"})
		}
	}

	records, err := api.svc.QueryByDate(ctx.Request().Context(), date)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if records == nil {
		records = []attendance.Attendance{}
	}
	return ctx.JSON(http.StatusOK, records)
}

// queryMyMonth lists the authenticated student's records for one month;
// defaults to the current month.
func (api *attendanceApi) queryMyMonth(ctx echo.Context) error {
	now := time.Now().UTC() // dates are stored as UTC days
	year, month := now.Year(), now.Month()
	if raw := ctx.QueryParam("month"); raw != "" {
		t, err := time.Parse(monthParamLayout, raw)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "month", Error: "invalid month; expected YYYY-MM"})
		}
		year, month = t.Year(), t.Month()
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	records, err := api.svc.QueryForStudentMonth(ctx.Request().Context(), claims.Subject, year, month)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if records == nil {
		records = []attendance.Attendance{}
	}
	return ctx.JSON(http.StatusOK, records)
}
