package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/task"
)

type taskRepository struct {
	db *taskTable
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *DB) *taskRepository {
	return &taskRepository{db: db.task}
}

func (repo *taskRepository) CreateTask(ctx context.Context, tsk task.Task) (task.Task, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if tsk.ID == "" {
		tsk.ID = uuid.New().String()
	}
	repo.db.table[tsk.ID] = &tsk
	return tsk, nil
}

func (repo *taskRepository) GetTask(ctx context.Context, id string) (task.Task, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tsk, ok := repo.db.table[id]; ok {
		return *tsk, nil
	}
	return task.Task{}, task.ErrNotFound
}

func (repo *taskRepository) filter(filter *task.QueryFilter) []task.Task {
	tasks := make([]task.Task, 0, len(repo.db.table))
	for _, tsk := range repo.db.table {
		if filter != nil {
			if filter.StudentID != "" && tsk.StudentID != filter.StudentID {
				continue
			}
			if filter.Status != "" && tsk.Status != filter.Status {
				continue
			}
		}
		tasks = append(tasks, *tsk)
	}
	return tasks
}

func (repo *taskRepository) QueryTasks(ctx context.Context, filter *task.QueryFilter, ordering []core.DBOrdering) ([]task.Task, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	tasks := repo.filter(filter)
	sortTasks(tasks, ordering)
	if filter != nil && filter.Limit > 0 && len(tasks) > filter.Limit {
		tasks = tasks[:filter.Limit]
	}
	return tasks, nil
}

func (repo *taskRepository) UpdateTask(ctx context.Context, tsk task.Task) (task.Task, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[tsk.ID]; !ok {
		return task.Task{}, task.ErrNotFound
	}
	repo.db.table[tsk.ID] = &tsk
	return tsk, nil
}

func (repo *taskRepository) CountTasks(ctx context.Context, filter *task.QueryFilter) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.filter(filter)), nil
}

func sortTasks(tasks []task.Task, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		return
	}
	ord := ordering[0]
	sort.SliceStable(tasks, func(i, j int) bool {
		var less bool
		switch ord.Field {
		case "created_at":
			less = tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		default: // due_date
			less = tasks[i].DueDate.Before(tasks[j].DueDate.Time)
		}
		if !ord.Ascending {
			return !less
		}
		return less
	})
}
