package sqlxrepos

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
)

type attendanceRow struct {
	ID        string      `db:"id"`
	Date      core.Date   `db:"date"`
	Status    string      `db:"status"`
	Remarks   null.String `db:"remarks"`
	StudentID string      `db:"student_id"`
	MarkedBy  string      `db:"marked_by"`
	MarkedAt  time.Time   `db:"marked_at"`
}

func (r attendanceRow) unrow() attendance.Attendance {
	return attendance.Attendance(r)
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo attendanceRepository) CreateAttendance(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	if att.ID == "" {
		att.ID = uuid.New().String()
	}
	row := attendanceRow(att)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO attendance (id, date, status, remarks, student_id, marked_by, marked_at)
		VALUES (:id, :date, :status, :remarks, :student_id, :marked_by, :marked_at)`,
		row,
	)
	if err != nil {
		// the (student_id, date) constraint is the serialization point;
		// concurrent duplicate marks lose here.
		if isUniqueViolation(err, "attendance_student_id_date_key") {
			return attendance.Attendance{}, attendance.ErrAlreadyMarked
		}
		return attendance.Attendance{}, errors.Wrap(err, "inserting attendance")
	}
	return row.unrow(), nil
}

func (repo attendanceRepository) attendanceFilterQuery(base string, filter *attendance.QueryFilter) (string, []interface{}) {
	query := base
	var args []interface{}
	where := " WHERE 1=1"

	if filter != nil {
		if filter.StudentID != "" {
			args = append(args, filter.StudentID)
			where += " AND student_id = $" + strconv.Itoa(len(args))
		}
		if !filter.Date.IsZero() {
			args = append(args, filter.Date)
			where += " AND date = $" + strconv.Itoa(len(args))
		}
		if !filter.From.IsZero() {
			args = append(args, filter.From)
			where += " AND date >= $" + strconv.Itoa(len(args))
		}
		if !filter.To.IsZero() {
			args = append(args, filter.To)
			where += " AND date <= $" + strconv.Itoa(len(args))
		}
		if filter.Status != "" {
			args = append(args, filter.Status)
			where += " AND status = $" + strconv.Itoa(len(args))
		}
	}
	return query + where, args
}

func (repo attendanceRepository) QueryAttendance(ctx context.Context, filter *attendance.QueryFilter, ordering []core.DBOrdering) ([]attendance.Attendance, error) {
	query, args := repo.attendanceFilterQuery(`SELECT * FROM attendance`, filter)
	query += orderBy(ordering)
	if filter != nil && filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	records := make([]attendance.Attendance, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.unrow())
	}
	return records, nil
}

func (repo attendanceRepository) CountAttendance(ctx context.Context, filter *attendance.QueryFilter) (int, error) {
	query, args := repo.attendanceFilterQuery(`SELECT COUNT(*) FROM attendance`, filter)

	var count int
	if err := repo.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, errors.Wrap(err, "counting attendance")
	}
	return count, nil
}
