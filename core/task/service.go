package task

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
	ErrNotFound = errors.New("task not found")
	ErrNotOwner = errors.New("permission denied")
)

type (
	Repository interface {
		CreateTask(ctx context.Context, tsk Task) (Task, error)
		GetTask(ctx context.Context, id string) (Task, error)
		// QueryTasks applies AND operation on available QueryFilter fields.
		QueryTasks(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Task, error)
		UpdateTask(ctx context.Context, tsk Task) (Task, error)
		CountTasks(ctx context.Context, filter *QueryFilter) (int, error)
	}

	Service interface {
		Create(ctx context.Context, nt NewTask, createdBy string) (Task, error)
		GetByID(ctx context.Context, id string) (Task, error)
		UpdateStatus(ctx context.Context, taskID, status, actorID string) (Task, error)
		QueryForStudent(ctx context.Context, studentID, statusFilter string) ([]Task, error)
		QueryAll(ctx context.Context) ([]Task, error)
		QueryRecent(ctx context.Context, studentID string, limit int) ([]Task, error)
		Count(ctx context.Context, filter *QueryFilter) (int, error)
		CompletionRate(ctx context.Context) (float64, error)
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

// Create assigns a new task to an active student.
func (svc *service) Create(ctx context.Context, nt NewTask, createdBy string) (Task, error) {
	student, err := svc.usrSvc.GetByID(ctx, nt.StudentID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Task{}, user.ErrNotFound
		}
		return Task{}, errors.Wrap(err, "finding student")
	}
	if !student.IsStudent() || !student.Active() {
		return Task{}, user.ErrNotFound
	}

	now := time.Now().UTC()
	tsk := Task{
		ID:          uuid.New().String(),
		Title:       nt.Title,
		Description: null.NewString(nt.Description, nt.Description != ""),
		DueDate:     nt.DueDate,
		Status:      StatusPending,
		Priority:    nt.Priority,
		StudentID:   student.ID,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateTask(ctx, tsk)
}

func (svc *service) GetByID(ctx context.Context, id string) (Task, error) {
	return svc.repo.GetTask(ctx, id)
}

// UpdateStatus sets any of the three statuses once ownership is verified;
// no forward-only workflow is enforced. A non-owner gets ErrNotOwner and the
// task is left unchanged.
func (svc *service) UpdateStatus(ctx context.Context, taskID, status, actorID string) (Task, error) {
	tsk, err := svc.repo.GetTask(ctx, taskID)
	if err != nil {
		return Task{}, err
	}
	if tsk.StudentID != actorID {
		return Task{}, ErrNotOwner
	}
	tsk.Status = status
	tsk.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTask(ctx, tsk)
}

func (svc *service) QueryForStudent(ctx context.Context, studentID, statusFilter string) ([]Task, error) {
	filter := &QueryFilter{StudentID: studentID}
	if statusFilter != "" && statusFilter != "all" {
		filter.Status = statusFilter
	}
	return svc.repo.QueryTasks(ctx, filter, []core.DBOrdering{{Field: "due_date", Ascending: true}})
}

func (svc *service) QueryAll(ctx context.Context) ([]Task, error) {
	return svc.repo.QueryTasks(ctx, nil, []core.DBOrdering{{Field: "due_date"}})
}

func (svc *service) QueryRecent(ctx context.Context, studentID string, limit int) ([]Task, error) {
	filter := &QueryFilter{StudentID: studentID, Limit: limit}
	return svc.repo.QueryTasks(ctx, filter, []core.DBOrdering{{Field: "created_at"}})
}

func (svc *service) Count(ctx context.Context, filter *QueryFilter) (int, error) {
	return svc.repo.CountTasks(ctx, filter)
}

// CompletionRate returns the completed fraction of all tasks in percent;
// 0 when there are no tasks.
func (svc *service) CompletionRate(ctx context.Context) (float64, error) {
	total, err := svc.repo.CountTasks(ctx, nil)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	completed, err := svc.repo.CountTasks(ctx, &QueryFilter{Status: StatusCompleted})
	if err != nil {
		return 0, err
	}
	return float64(completed) / float64(total) * 100, nil
}
