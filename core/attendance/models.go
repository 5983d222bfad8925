package attendance

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
)

var AllStatuses = []string{StatusPresent, StatusAbsent, StatusLate}

type Attendance struct {
	ID        string      `json:"id"`
	Date      core.Date   `json:"date"`
	Status    string      `json:"status"`
	Remarks   null.String `json:"remarks"`
	StudentID string      `json:"student_id"`
	MarkedBy  string      `json:"marked_by"`
	MarkedAt  time.Time   `json:"marked_at"` // UTC
}

// NewAttendance contains information needed to mark a student's attendance
// for one calendar day.
type NewAttendance struct {
	StudentID string    `json:"student_id" validate:"required"`
	Date      core.Date `json:"date"`
	Status    string    `json:"status" validate:"required,attstatus"`
	Remarks   string    `json:"remarks" validate:"omitempty,max=200"`
}

func (na *NewAttendance) Validate(validate *validator.Validate) error {
	na.Remarks = core.CleanString(na.Remarks)

	if err := validate.Struct(na); err != nil {
		return err
	}
	if na.Date.IsZero() {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "this field is required"})
	}
	return nil
}

// QueryFilter narrows down an attendance listing.
type QueryFilter struct {
	StudentID string
	Date      core.Date
	From      core.Date
	To        core.Date
	Status    string
	Limit     int
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.Date.IsZero() && qf.From.IsZero() && qf.To.IsZero() &&
		qf.Status == "" && qf.Limit == 0
}

// MonthRange returns the first and last day of the given month, both
// inclusive. December rolls the exclusive upper bound over to January 1 of
// the next year before stepping back a day.
func MonthRange(year int, month time.Month) (from, to core.Date) {
	from = core.NewDate(year, month, 1)
	to = core.NewDate(year, month+1, 1).AddDays(-1)
	return from, to
}

// Rate returns the present fraction of records in percent; 0 for no records.
func Rate(records []Attendance) float64 {
	if len(records) == 0 {
		return 0
	}
	var present int
	for _, rec := range records {
		if rec.Status == StatusPresent {
			present++
		}
	}
	return float64(present) / float64(len(records)) * 100
}

var (
	attStatusTag  = "attstatus"
	attStatusText = "invalid status"
)

// InitValidators instantiates this package's validators for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(attStatusTag, attStatusValidation)
	core.RegisterCustomTranslation(validate, translator, attStatusTag, attStatusText)
}

// attStatusValidation checks that the provided status is in AllStatuses
func attStatusValidation(fl validator.FieldLevel) bool {
	status := fl.Field().String()
	for _, s := range AllStatuses {
		if status == s {
			return true
		}
	}
	return false
}
