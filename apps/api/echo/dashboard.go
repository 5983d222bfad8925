package echoapi

import (
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/task"
	"github.com/trezcool/darasa/core/user"
)

var recentLimit = 5

type (
	dashboardApi struct {
		usrSvc user.Service
		tskSvc task.Service
		attSvc attendance.Service
	}

	AdminDashboard struct {
		ActiveStudents     int                     `json:"active_students"`
		TotalTasks         int                     `json:"total_tasks"`
		TaskCompletionRate float64                 `json:"task_completion_rate"`
		PresentRateToday   float64                 `json:"present_rate_today"`
		RecentTasks        []task.Task             `json:"recent_tasks"`
		RecentMarks        []attendance.Attendance `json:"recent_marks"`
	}

	StudentDashboard struct {
		TaskCounts          map[string]int `json:"task_counts"`
		RecentTasks         []task.Task    `json:"recent_tasks"`
		MonthAttendanceRate float64        `json:"month_attendance_rate"`
	}
)

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *server) {
	api := dashboardApi{
		usrSvc: s.deps.UserSvc,
		tskSvc: s.deps.TaskSvc,
		attSvc: s.deps.AttendanceSvc,
	}

	dg := g.Group("/dashboard", jwt)
	dg.GET("/admin", api.admin, adminMiddleware())
	dg.GET("/student", api.student, studentMiddleware())
}

// Handlers

func (api *dashboardApi) admin(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	today := core.Today()

	activeStudents, err := api.usrSvc.CountActiveStudents(rctx)
	if err != nil {
		return errors.Wrap(err, "counting active students")
	}
	totalTasks, err := api.tskSvc.Count(rctx, nil)
	if err != nil {
		return errors.Wrap(err, "counting tasks")
	}
	completionRate, err := api.tskSvc.CompletionRate(rctx)
	if err != nil {
		return errors.Wrap(err, "computing completion rate")
	}
	presentRate, err := api.attSvc.PresentRateForDate(rctx, today)
	if err != nil {
		return errors.Wrap(err, "computing present rate")
	}
	recentTasks, err := api.tskSvc.QueryRecent(rctx, "", recentLimit)
	if err != nil {
		return errors.Wrap(err, "querying recent tasks")
	}
	recentMarks, err := api.attSvc.QueryRecentForDate(rctx, today, recentLimit)
	if err != nil {
		return errors.Wrap(err, "querying recent marks")
	}

	if recentTasks == nil {
		recentTasks = []task.Task{}
	}
	if recentMarks == nil {
		recentMarks = []attendance.Attendance{}
	}
	return ctx.JSON(http.StatusOK, AdminDashboard{
		ActiveStudents:     activeStudents,
		TotalTasks:         totalTasks,
		TaskCompletionRate: round1(completionRate),
		PresentRateToday:   round1(presentRate),
		RecentTasks:        recentTasks,
		RecentMarks:        recentMarks,
	})
}

func (api *dashboardApi) student(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	rctx := ctx.Request().Context()

	counts := make(map[string]int, len(task.AllStatuses))
	for _, status := range task.AllStatuses {
		n, err := api.tskSvc.Count(rctx, &task.QueryFilter{StudentID: claims.Subject, Status: status})
		if err != nil {
			return errors.Wrap(err, "counting tasks")
		}
		counts[status] = n
	}

	recentTasks, err := api.tskSvc.QueryRecent(rctx, claims.Subject, recentLimit)
	if err != nil {
		return errors.Wrap(err, "querying recent tasks")
	}
	if recentTasks == nil {
		recentTasks = []task.Task{}
	}

	now := time.Now().UTC()
	records, err := api.attSvc.QueryForStudentMonth(rctx, claims.Subject, now.Year(), now.Month())
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}

	return ctx.JSON(http.StatusOK, StudentDashboard{
		TaskCounts:          counts,
		RecentTasks:         recentTasks,
		MonthAttendanceRate: round1(attendance.Rate(records)),
	})
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
