package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound      = errors.New("attendance record not found")
	ErrAlreadyMarked = errors.New("attendance already marked for this student on this date")
)

type (
	Repository interface {
		// CreateAttendance must fail with ErrAlreadyMarked when a record
		// already exists for (student, date); the store is the serialization
		// point for that invariant.
		CreateAttendance(ctx context.Context, att Attendance) (Attendance, error)
		// QueryAttendance applies AND operation on available QueryFilter fields.
		QueryAttendance(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Attendance, error)
		CountAttendance(ctx context.Context, filter *QueryFilter) (int, error)
	}

	Service interface {
		Mark(ctx context.Context, na NewAttendance, markedBy string) (Attendance, error)
		QueryByDate(ctx context.Context, date core.Date) ([]Attendance, error)
		QueryForStudentRange(ctx context.Context, studentID string, from, to core.Date) ([]Attendance, error)
		QueryForStudentMonth(ctx context.Context, studentID string, year int, month time.Month) ([]Attendance, error)
		QueryRecentForDate(ctx context.Context, date core.Date, limit int) ([]Attendance, error)
		PresentRateForDate(ctx context.Context, date core.Date) (float64, error)
	}

	service struct {
		repo   Repository
		usrSvc user.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service) Service {
	return &service{repo: repo, usrSvc: usrSvc}
}

// Mark records a student's attendance for one day. A duplicate (student, date)
// pair is rejected with ErrAlreadyMarked; the existing record is never
// overwritten.
func (svc *service) Mark(ctx context.Context, na NewAttendance, markedBy string) (Attendance, error) {
	student, err := svc.usrSvc.GetByID(ctx, na.StudentID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Attendance{}, user.ErrNotFound
		}
		return Attendance{}, errors.Wrap(err, "finding student")
	}
	if !student.IsStudent() || !student.Active() {
		return Attendance{}, user.ErrNotFound
	}

	att := Attendance{
		ID:        uuid.New().String(),
		Date:      na.Date,
		Status:    na.Status,
		Remarks:   null.NewString(na.Remarks, na.Remarks != ""),
		StudentID: student.ID,
		MarkedBy:  markedBy,
		MarkedAt:  time.Now().UTC(),
	}
	return svc.repo.CreateAttendance(ctx, att)
}

func (svc *service) QueryByDate(ctx context.Context, date core.Date) ([]Attendance, error) {
	return svc.repo.QueryAttendance(ctx, &QueryFilter{Date: date}, []core.DBOrdering{{Field: "marked_at", Ascending: true}})
}

// QueryForStudentRange returns a student's records within [from, to]
// inclusive, most recent date first.
func (svc *service) QueryForStudentRange(ctx context.Context, studentID string, from, to core.Date) ([]Attendance, error) {
	filter := &QueryFilter{StudentID: studentID, From: from, To: to}
	return svc.repo.QueryAttendance(ctx, filter, []core.DBOrdering{{Field: "date"}})
}

func (svc *service) QueryForStudentMonth(ctx context.Context, studentID string, year int, month time.Month) ([]Attendance, error) {
	from, to := MonthRange(year, month)
	return svc.QueryForStudentRange(ctx, studentID, from, to)
}

func (svc *service) QueryRecentForDate(ctx context.Context, date core.Date, limit int) ([]Attendance, error) {
	filter := &QueryFilter{Date: date, Limit: limit}
	return svc.repo.QueryAttendance(ctx, filter, []core.DBOrdering{{Field: "marked_at"}})
}

// PresentRateForDate returns the present fraction of the day's records in
// percent; 0 when nothing has been marked yet.
func (svc *service) PresentRateForDate(ctx context.Context, date core.Date) (float64, error) {
	total, err := svc.repo.CountAttendance(ctx, &QueryFilter{Date: date})
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	present, err := svc.repo.CountAttendance(ctx, &QueryFilter{Date: date, Status: StatusPresent})
	if err != nil {
		return 0, err
	}
	return float64(present) / float64(total) * 100, nil
}
