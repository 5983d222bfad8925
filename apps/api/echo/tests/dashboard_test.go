package tests

import (
	"net/http"
	"testing"

	. "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/task"
	"github.com/trezcool/darasa/core/user"
	testutil "github.com/trezcool/darasa/tests"
)

func Test_dashboardApi_admin(t *testing.T) {
	db.Reset()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", user.RoleAdmin, true)
	alice := testutil.CreateUser(t, usrRepo, "Alice M", "alice", "alice@test.cd", "", user.RoleStudent, true)
	bob := testutil.CreateUser(t, usrRepo, "Bob K", "bobby", "bob@test.cd", "", user.RoleStudent, true)
	testutil.CreateUser(t, usrRepo, "N Dog", "ndog", "ndog@test.cd", "", user.RoleStudent, false)

	today := core.Today()
	tsk1 := testutil.CreateTask(t, tskRepo, "Essay draft", alice.ID, admin.ID, task.StatusCompleted, today.AddDays(3))
	tsk2 := testutil.CreateTask(t, tskRepo, "Reading list", alice.ID, admin.ID, task.StatusPending, today.AddDays(1))
	tsk3 := testutil.CreateTask(t, tskRepo, "Lab report", bob.ID, admin.ID, task.StatusInProgress, today.AddDays(2))
	tsk4 := testutil.CreateTask(t, tskRepo, "Quiz prep", bob.ID, admin.ID, task.StatusPending, today.AddDays(4))

	att1 := testutil.MarkAttendance(t, attRepo, alice.ID, admin.ID, attendance.StatusPresent, today)
	att2 := testutil.MarkAttendance(t, attRepo, bob.ID, admin.ID, attendance.StatusAbsent, today)

	adminToken := getToken(t, admin)
	aliceToken := getToken(t, alice)

	tests := []httpTest{
		{name: "auth required", path: "/api/dashboard/admin", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", path: "/api/dashboard/admin", token: aliceToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "aggregates", path: "/api/dashboard/admin", token: adminToken,
			wantData: marchallObj(t, AdminDashboard{
				ActiveStudents:     2,
				TotalTasks:         4,
				TaskCompletionRate: 25,
				PresentRateToday:   50,
				RecentTasks:        []task.Task{tsk4, tsk3, tsk2, tsk1},
				RecentMarks:        []attendance.Attendance{att2, att1},
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_dashboardApi_admin_empty(t *testing.T) {
	db.Reset()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", user.RoleAdmin, true)

	tt := httpTest{
		name: "no data yet", path: "/api/dashboard/admin", token: getToken(t, admin),
		wantData: marchallObj(t, AdminDashboard{
			RecentTasks: []task.Task{},
			RecentMarks: []attendance.Attendance{},
		}),
	}
	t.Run(tt.name, func(t *testing.T) {
		req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_dashboardApi_student(t *testing.T) {
	db.Reset()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", user.RoleAdmin, true)
	alice := testutil.CreateUser(t, usrRepo, "Alice M", "alice", "alice@test.cd", "", user.RoleStudent, true)
	bob := testutil.CreateUser(t, usrRepo, "Bob K", "bobby", "bob@test.cd", "", user.RoleStudent, true)

	today := core.Today()
	tsk1 := testutil.CreateTask(t, tskRepo, "Essay draft", alice.ID, admin.ID, task.StatusCompleted, today.AddDays(3))
	tsk2 := testutil.CreateTask(t, tskRepo, "Reading list", alice.ID, admin.ID, task.StatusPending, today.AddDays(1))
	tsk3 := testutil.CreateTask(t, tskRepo, "Lab report", bob.ID, admin.ID, task.StatusPending, today.AddDays(2))

	// only this month's marks count towards the rate
	testutil.MarkAttendance(t, attRepo, alice.ID, admin.ID, attendance.StatusPresent, today)

	tests := []httpTest{
		{name: "auth required", path: "/api/dashboard/student", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "student required", path: "/api/dashboard/student", token: getToken(t, admin),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "own dashboard", path: "/api/dashboard/student", token: getToken(t, alice),
			wantData: marchallObj(t, StudentDashboard{
				TaskCounts: map[string]int{
					task.StatusPending:    1,
					task.StatusInProgress: 0,
					task.StatusCompleted:  1,
				},
				RecentTasks:         []task.Task{tsk2, tsk1},
				MonthAttendanceRate: 100,
			}),
		},
		{
			// one pending task, no attendance yet
			name: "no attendance yet", path: "/api/dashboard/student", token: getToken(t, bob),
			wantData: marchallObj(t, StudentDashboard{
				TaskCounts: map[string]int{
					task.StatusPending:    1,
					task.StatusInProgress: 0,
					task.StatusCompleted:  0,
				},
				RecentTasks:         []task.Task{tsk3},
				MonthAttendanceRate: 0,
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
