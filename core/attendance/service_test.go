package attendance_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/user"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	testutil "github.com/trezcool/darasa/tests"
)

func setup(t *testing.T) (attendance.Service, attendance.Repository, user.Repository) {
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	attRepo := inmemdb.NewAttendanceRepository(db)
	usrSvc := user.NewService(usrRepo, nil)
	return attendance.NewService(attRepo, usrSvc), attRepo, usrRepo
}

func TestService_Mark_duplicate(t *testing.T) {
	svc, attRepo, usrRepo := setup(t)
	ctx := context.Background()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", user.RoleAdmin, true)
	alice := testutil.CreateUser(t, usrRepo, "Alice M", "alice", "alice@test.cd", "", user.RoleStudent, true)

	day := core.NewDate(2024, time.January, 10)
	na := attendance.NewAttendance{StudentID: alice.ID, Date: day, Status: attendance.StatusPresent}

	att, err := svc.Mark(ctx, na, admin.ID)
	if err != nil {
		t.Fatalf("Mark() error = %v", err)
	}
	if att.ID == "" {
		t.Error("Mark() did not assign an ID")
	}

	// the second mark for the same (student, date) is rejected; the first
	// record stays as recorded
	na.Status = attendance.StatusAbsent
	if _, err := svc.Mark(ctx, na, admin.ID); err != attendance.ErrAlreadyMarked {
		t.Fatalf("Mark() error = %v, want %v", err, attendance.ErrAlreadyMarked)
	}
	records, err := attRepo.QueryAttendance(ctx, &attendance.QueryFilter{StudentID: alice.ID, Date: day}, nil)
	if err != nil {
		t.Fatalf("QueryAttendance() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	if records[0].Status != attendance.StatusPresent {
		t.Errorf("Status = %q, want %q", records[0].Status, attendance.StatusPresent)
	}

	// the next day is a fresh slate
	na.Date = day.AddDays(1)
	if _, err := svc.Mark(ctx, na, admin.ID); err != nil {
		t.Errorf("Mark() error = %v", err)
	}
}

// concurrent marks for the same pair must serialize in the store; exactly one
// may win.
func TestService_Mark_concurrent(t *testing.T) {
	svc, attRepo, usrRepo := setup(t)
	ctx := context.Background()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", user.RoleAdmin, true)
	alice := testutil.CreateUser(t, usrRepo, "Alice M", "alice", "alice@test.cd", "", user.RoleStudent, true)

	day := core.NewDate(2024, time.January, 10)
	statuses := []string{attendance.StatusPresent, attendance.StatusAbsent, attendance.StatusLate}

	var wg sync.WaitGroup
	errs := make([]error, len(statuses))
	for i, status := range statuses {
		wg.Add(1)
		go func(i int, status string) {
			defer wg.Done()
			na := attendance.NewAttendance{StudentID: alice.ID, Date: day, Status: status}
			_, errs[i] = svc.Mark(ctx, na, admin.ID)
		}(i, status)
	}
	wg.Wait()

	var okCount int
	for _, err := range errs {
		switch err {
		case nil:
			okCount++
		case attendance.ErrAlreadyMarked: // expected
		default:
			t.Errorf("Mark() unexpected error = %v", err)
		}
	}
	if okCount != 1 {
		t.Errorf("okCount = %d, want exactly 1", okCount)
	}

	records, err := attRepo.QueryAttendance(ctx, &attendance.QueryFilter{StudentID: alice.ID, Date: day}, nil)
	if err != nil {
		t.Fatalf("QueryAttendance() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1", len(records))
	}
}

func TestService_PresentRateForDate(t *testing.T) {
	svc, attRepo, usrRepo := setup(t)
	ctx := context.Background()

	day := core.NewDate(2024, time.January, 10)

	rate, err := svc.PresentRateForDate(ctx, day)
	if err != nil {
		t.Fatalf("PresentRateForDate() error = %v", err)
	}
	if rate != 0 {
		t.Errorf("PresentRateForDate() = %v, want 0 with no records", rate)
	}

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", user.RoleAdmin, true)
	alice := testutil.CreateUser(t, usrRepo, "Alice M", "alice", "alice@test.cd", "", user.RoleStudent, true)
	bob := testutil.CreateUser(t, usrRepo, "Bob K", "bobby", "bob@test.cd", "", user.RoleStudent, true)

	testutil.MarkAttendance(t, attRepo, alice.ID, admin.ID, attendance.StatusPresent, day)
	testutil.MarkAttendance(t, attRepo, bob.ID, admin.ID, attendance.StatusAbsent, day)

	rate, err = svc.PresentRateForDate(ctx, day)
	if err != nil {
		t.Fatalf("PresentRateForDate() error = %v", err)
	}
	if rate != 50 {
		t.Errorf("PresentRateForDate() = %v, want 50", rate)
	}
}
