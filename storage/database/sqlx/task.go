package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/task"
)

type taskRow struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	DueDate     core.Date   `db:"due_date"`
	Status      string      `db:"status"`
	Priority    string      `db:"priority"`
	StudentID   string      `db:"student_id"`
	CreatedBy   string      `db:"created_by"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r taskRow) unrow() task.Task {
	return task.Task(r)
}

type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *sqlx.DB) *taskRepository {
	return &taskRepository{db: db}
}

func (repo taskRepository) CreateTask(ctx context.Context, tsk task.Task) (task.Task, error) {
	if tsk.ID == "" {
		tsk.ID = uuid.New().String()
	}
	row := taskRow(tsk)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO task (id, title, description, due_date, status, priority, student_id, created_by, created_at, updated_at)
		VALUES (:id, :title, :description, :due_date, :status, :priority, :student_id, :created_by, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return row.unrow(), nil
}

func (repo taskRepository) GetTask(ctx context.Context, id string) (task.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return task.Task{}, task.ErrNotFound
	}
	var row taskRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM task WHERE id = $1`, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, errors.Wrap(err, "finding task")
	}
	return row.unrow(), nil
}

func (repo taskRepository) taskFilterQuery(base string, filter *task.QueryFilter) (string, []interface{}) {
	query := base
	var args []interface{}
	where := " WHERE 1=1"

	if filter != nil {
		if filter.StudentID != "" {
			args = append(args, filter.StudentID)
			where += " AND student_id = $" + strconv.Itoa(len(args))
		}
		if filter.Status != "" {
			args = append(args, filter.Status)
			where += " AND status = $" + strconv.Itoa(len(args))
		}
	}
	return query + where, args
}

func (repo taskRepository) QueryTasks(ctx context.Context, filter *task.QueryFilter, ordering []core.DBOrdering) ([]task.Task, error) {
	query, args := repo.taskFilterQuery(`SELECT * FROM task`, filter)
	query += orderBy(ordering)
	if filter != nil && filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	var rows []taskRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	tasks := make([]task.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.unrow())
	}
	return tasks, nil
}

func (repo taskRepository) UpdateTask(ctx context.Context, tsk task.Task) (task.Task, error) {
	row := taskRow(tsk)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE task
		SET title = :title, description = :description, due_date = :due_date, status = :status,
		    priority = :priority, updated_at = :updated_at
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return task.Task{}, task.ErrNotFound
	}
	return row.unrow(), nil
}

func (repo taskRepository) CountTasks(ctx context.Context, filter *task.QueryFilter) (int, error) {
	query, args := repo.taskFilterQuery(`SELECT COUNT(*) FROM task`, filter)

	var count int
	if err := repo.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, errors.Wrap(err, "counting tasks")
	}
	return count, nil
}
