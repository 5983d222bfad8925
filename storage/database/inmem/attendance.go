package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db.attendance}
}

func (repo *attendanceRepository) CreateAttendance(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// mirror of the DB unique constraint; the write lock makes concurrent
	// duplicate marks resolve to exactly one success
	for _, rec := range repo.db.table {
		if rec.StudentID == att.StudentID && rec.Date.Equal(att.Date) {
			return attendance.Attendance{}, attendance.ErrAlreadyMarked
		}
	}

	if att.ID == "" {
		att.ID = uuid.New().String()
	}
	repo.db.table[att.ID] = &att
	return att, nil
}

func (repo *attendanceRepository) filter(filter *attendance.QueryFilter) []attendance.Attendance {
	records := make([]attendance.Attendance, 0, len(repo.db.table))
	for _, rec := range repo.db.table {
		if filter != nil {
			if filter.StudentID != "" && rec.StudentID != filter.StudentID {
				continue
			}
			if !filter.Date.IsZero() && !rec.Date.Equal(filter.Date) {
				continue
			}
			if !filter.From.IsZero() && rec.Date.Before(filter.From.Time) {
				continue
			}
			if !filter.To.IsZero() && rec.Date.After(filter.To.Time) {
				continue
			}
			if filter.Status != "" && rec.Status != filter.Status {
				continue
			}
		}
		records = append(records, *rec)
	}
	return records
}

func (repo *attendanceRepository) QueryAttendance(ctx context.Context, filter *attendance.QueryFilter, ordering []core.DBOrdering) ([]attendance.Attendance, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	records := repo.filter(filter)
	sortAttendance(records, ordering)
	if filter != nil && filter.Limit > 0 && len(records) > filter.Limit {
		records = records[:filter.Limit]
	}
	return records, nil
}

func (repo *attendanceRepository) CountAttendance(ctx context.Context, filter *attendance.QueryFilter) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.filter(filter)), nil
}

func sortAttendance(records []attendance.Attendance, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		return
	}
	ord := ordering[0]
	sort.SliceStable(records, func(i, j int) bool {
		var less bool
		switch ord.Field {
		case "marked_at":
			less = records[i].MarkedAt.Before(records[j].MarkedAt)
		default: // date
			less = records[i].Date.Before(records[j].Date.Time)
		}
		if !ord.Ascending {
			return !less
		}
		return less
	})
}
