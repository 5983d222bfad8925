package task

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// Statuses
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var (
	AllStatuses   = []string{StatusPending, StatusInProgress, StatusCompleted}
	AllPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh}
)

type Task struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description null.String `json:"description"`
	DueDate     core.Date   `json:"due_date"`
	Status      string      `json:"status"`
	Priority    string      `json:"priority"`
	StudentID   string      `json:"student_id"`
	CreatedBy   string      `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"` // UTC
}

// NewTask contains information needed to assign a new Task to a student.
type NewTask struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	DueDate     core.Date `json:"due_date"`
	Priority    string    `json:"priority" validate:"omitempty,taskpriority"`
	StudentID   string    `json:"student_id" validate:"required"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	if nt.Priority == "" {
		nt.Priority = PriorityMedium
	}

	if err := validate.Struct(nt); err != nil {
		return err
	}
	if nt.DueDate.IsZero() {
		return core.NewValidationError(nil, core.FieldError{Field: "due_date", Error: "this field is required"})
	}
	if nt.DueDate.Before(core.Today().Time) {
		return core.NewValidationError(nil, core.FieldError{Field: "due_date", Error: "due date cannot be in the past"})
	}
	return nil
}

// UpdateTaskStatus defines the only mutation a student may apply to their Task.
// Any of the three statuses is accepted regardless of the current one.
type UpdateTaskStatus struct {
	Status string `json:"status" validate:"required,taskstatus"`
}

func (uts UpdateTaskStatus) Validate(validate *validator.Validate) error {
	return validate.Struct(uts)
}

// QueryFilter narrows down a task listing.
type QueryFilter struct {
	StudentID string
	Status    string
	Limit     int
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.Status == "" && qf.Limit == 0
}

var (
	taskStatusTag  = "taskstatus"
	taskStatusText = "invalid status"

	taskPriorityTag  = "taskpriority"
	taskPriorityText = "invalid priority"
)

// InitValidators instantiates this package's validators for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(taskStatusTag, oneOfValidation(AllStatuses))
	core.RegisterCustomTranslation(validate, translator, taskStatusTag, taskStatusText)

	_ = validate.RegisterValidation(taskPriorityTag, oneOfValidation(AllPriorities))
	core.RegisterCustomTranslation(validate, translator, taskPriorityTag, taskPriorityText)
}

func oneOfValidation(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		val := fl.Field().String()
		for _, a := range allowed {
			if val == a {
				return true
			}
		}
		return false
	}
}
