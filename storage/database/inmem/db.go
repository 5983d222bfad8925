package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/task"
	"github.com/trezcool/darasa/core/user"
)

type (
	DB struct {
		user       *userTable
		task       *taskTable
		attendance *attendanceTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	taskTable struct {
		table map[string]*task.Task
		mutex sync.RWMutex
	}

	attendanceTable struct {
		table map[string]*attendance.Attendance
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		task:       &taskTable{table: make(map[string]*task.Task)},
		attendance: &attendanceTable{table: make(map[string]*attendance.Attendance)},
	}
}

// Reset empties all tables.
func (db *DB) Reset() {
	db.user.mutex.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.mutex.Unlock()

	db.task.mutex.Lock()
	db.task.table = make(map[string]*task.Task)
	db.task.mutex.Unlock()

	db.attendance.mutex.Lock()
	db.attendance.table = make(map[string]*attendance.Attendance)
	db.attendance.mutex.Unlock()
}
