package fee

import (
	"time"

	"github.com/trezcool/ecolage/core"
)

// Fee categories
type Category string

const (
	CategoryTuition      Category = "TUITION"
	CategoryTransport    Category = "TRANSPORT"
	CategoryExam         Category = "EXAM"
	CategoryUniform      Category = "UNIFORM"
	CategoryRegistration Category = "REGISTRATION"
	CategoryOther        Category = "OTHER"
)

var Categories = []Category{
	CategoryTuition,
	CategoryTransport,
	CategoryExam,
	CategoryUniform,
	CategoryRegistration,
	CategoryOther,
}

// Recurrence types determine how many instances a definition expands into
// over one academic year.
type Recurrence string

const (
	RecurrenceMonthly   Recurrence = "MONTHLY"
	RecurrenceQuarterly Recurrence = "QUARTERLY"
	RecurrenceSemester  Recurrence = "SEMESTER"
	RecurrenceAnnual    Recurrence = "ANNUAL"
)

var Recurrences = []Recurrence{
	RecurrenceMonthly,
	RecurrenceQuarterly,
	RecurrenceSemester,
	RecurrenceAnnual,
}

// Payment statuses
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusPartial   Status = "PARTIAL"
	StatusOverdue   Status = "OVERDUE"
	StatusCancelled Status = "CANCELLED"
)

// DefaultDueDay is the day of month instances fall due when the definition
// does not say otherwise.
const DefaultDueDay = 15

// Definition is the administrative policy describing what a class must pay
// and how often. Amounts are whole Congolese Francs.
type Definition struct {
	ID           string   `json:"id"`
	ClassID      string   `json:"class_id"`
	ClassName    string   `json:"class_name"` // display snapshot, resolved from the roster
	FeeType      string   `json:"fee_type"`
	Category     Category `json:"category"`
	Amount       int      `json:"amount"`
	AcademicYear string   `json:"academic_year"` // "YYYY-YYYY"
	Description  string   `json:"description,omitempty"`

	IsRecurring    bool       `json:"is_recurring"`
	RecurringType  Recurrence `json:"recurring_type,omitempty"`
	DueDayOfMonth  int        `json:"due_day_of_month,omitempty"`
	ExcludedMonths []string   `json:"excluded_months,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`

	DueDate *time.Time `json:"due_date,omitempty"` // non-recurring only

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// DueDay returns the effective day of month instances fall due.
func (d Definition) DueDay() int {
	if d.DueDayOfMonth > 0 {
		return d.DueDayOfMonth
	}
	return DefaultDueDay
}

// Instance is one concrete, dated billing event derived from a Definition
// (eg. "October 2024 tuition"). Amount is a snapshot taken at generation
// time, not a live reference.
type Instance struct {
	ID           string    `json:"id"` // deterministic: uuid5(definition ID, period key)
	DefinitionID string    `json:"definition_id"`
	ClassID      string    `json:"class_id"`
	ClassName    string    `json:"class_name"`
	FeeType      string    `json:"fee_type"`
	Category     Category  `json:"category"`
	Amount       int       `json:"amount"`
	DueDate      time.Time `json:"due_date"`
	PeriodKey    string    `json:"period_key"` // eg "2024-09", "T1", "S2", "ANNUAL"
	Period       string    `json:"period"`     // display label, eg "Octobre 2024"
	AcademicYear string    `json:"academic_year"`
	IsActive     bool      `json:"is_active"`
}

// Payment is one student's ledger row against one Instance. At most one row
// exists per (instance, student). Rows are never hard-deleted once money has
// moved; cancellation is a status transition.
type Payment struct {
	ID           string `json:"id"` // deterministic: uuid5(instance ID, student ID)
	InstanceID   string `json:"instance_id"`
	DefinitionID string `json:"definition_id"`
	ClassID      string `json:"class_id"`
	StudentID    string `json:"student_id"`
	StudentName  string `json:"student_name"` // display snapshot

	Amount          int        `json:"amount"`
	Status          Status     `json:"status"`
	PaidAmount      int        `json:"paid_amount"`
	RemainingAmount int        `json:"remaining_amount"`
	DueDate         time.Time  `json:"due_date"` // per-student; postponing moves it for this row only
	PaidDate        *time.Time `json:"paid_date,omitempty"`
	Method          string     `json:"method,omitempty"`
	ReceiptNo       string     `json:"receipt_no,omitempty"` // latest receipt only; each installment overwrites it
	Notes           string     `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewDefinition contains information needed to create a new Definition.
type NewDefinition struct {
	ClassID        string     `json:"class_id" validate:"required"`
	FeeType        string     `json:"fee_type" validate:"required"`
	Category       Category   `json:"category" validate:"required,feecategory"`
	Amount         int        `json:"amount" validate:"required,gt=0"`
	AcademicYear   string     `json:"academic_year" validate:"required,academicyear"`
	Description    string     `json:"description"`
	IsRecurring    bool       `json:"is_recurring"`
	RecurringType  Recurrence `json:"recurring_type" validate:"omitempty,recurrence"`
	DueDayOfMonth  int        `json:"due_day_of_month" validate:"omitempty,min=1,max=31"`
	ExcludedMonths []string   `json:"excluded_months" validate:"omitempty,academicmonths"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	DueDate        *time.Time `json:"due_date"`
}

func (nd *NewDefinition) Validate() error {
	nd.ClassID = core.CleanString(nd.ClassID)
	nd.FeeType = core.CleanString(nd.FeeType)
	nd.Description = core.CleanString(nd.Description)
	for i, m := range nd.ExcludedMonths {
		nd.ExcludedMonths[i] = core.CleanString(m)
	}
	return core.Validate.Struct(nd)
}

// UpdateDefinition defines what information may be provided to modify an
// existing Definition. Nil fields are left unchanged.
type UpdateDefinition struct {
	FeeType        *string     `json:"fee_type"`
	Category       *Category   `json:"category"`
	Amount         *int        `json:"amount"`
	AcademicYear   *string     `json:"academic_year"`
	Description    *string     `json:"description"`
	IsRecurring    *bool       `json:"is_recurring"`
	RecurringType  *Recurrence `json:"recurring_type"`
	DueDayOfMonth  *int        `json:"due_day_of_month"`
	ExcludedMonths *[]string   `json:"excluded_months"`
	StartDate      *time.Time  `json:"start_date"`
	EndDate        *time.Time  `json:"end_date"`
	DueDate        *time.Time  `json:"due_date"`
}

// Apply merges the patch into a copy of orig. The result must be
// re-validated before it is stored.
func (ud UpdateDefinition) Apply(orig Definition) Definition {
	def := orig
	if ud.FeeType != nil {
		def.FeeType = core.CleanString(*ud.FeeType)
	}
	if ud.Category != nil {
		def.Category = *ud.Category
	}
	if ud.Amount != nil {
		def.Amount = *ud.Amount
	}
	if ud.AcademicYear != nil {
		def.AcademicYear = *ud.AcademicYear
	}
	if ud.Description != nil {
		def.Description = core.CleanString(*ud.Description)
	}
	if ud.IsRecurring != nil {
		def.IsRecurring = *ud.IsRecurring
		if !def.IsRecurring {
			def.RecurringType = ""
		}
	}
	if ud.RecurringType != nil {
		def.RecurringType = *ud.RecurringType
	}
	if ud.DueDayOfMonth != nil {
		def.DueDayOfMonth = *ud.DueDayOfMonth
	}
	if ud.ExcludedMonths != nil {
		months := make([]string, 0, len(*ud.ExcludedMonths))
		for _, m := range *ud.ExcludedMonths {
			months = append(months, core.CleanString(m))
		}
		def.ExcludedMonths = months
	}
	if ud.StartDate != nil {
		def.StartDate = ud.StartDate
	}
	if ud.EndDate != nil {
		def.EndDate = ud.EndDate
	}
	if ud.DueDate != nil {
		def.DueDate = ud.DueDate
	}
	return def
}

// AffectsSchedule reports whether applying the patch to orig changes the
// amount or any field driving instance generation; such edits cascade to
// instances and unpaid ledger rows.
func (ud UpdateDefinition) AffectsSchedule(orig Definition) bool {
	def := ud.Apply(orig)
	if def.Amount != orig.Amount ||
		def.AcademicYear != orig.AcademicYear ||
		def.IsRecurring != orig.IsRecurring ||
		def.RecurringType != orig.RecurringType ||
		def.DueDay() != orig.DueDay() ||
		!timePtrEqual(def.StartDate, orig.StartDate) ||
		!timePtrEqual(def.EndDate, orig.EndDate) ||
		!timePtrEqual(def.DueDate, orig.DueDate) {
		return true
	}
	if len(def.ExcludedMonths) != len(orig.ExcludedMonths) {
		return true
	}
	for i, m := range def.ExcludedMonths {
		if m != orig.ExcludedMonths[i] {
			return true
		}
	}
	return false
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// PaymentInput contains information needed to record a payment on a ledger row.
type PaymentInput struct {
	Amount    int        `json:"amount" validate:"required,gt=0"`
	Method    string     `json:"method" validate:"required"`
	ReceiptNo string     `json:"receipt_no" validate:"required"`
	Date      *time.Time `json:"date"`
	Notes     string     `json:"notes"`
}

func (pi *PaymentInput) Validate() error {
	pi.Method = core.CleanString(pi.Method)
	pi.ReceiptNo = core.CleanString(pi.ReceiptNo)
	pi.Notes = core.CleanString(pi.Notes)
	return core.Validate.Struct(pi)
}

// StudentStanding is a student's aggregate position, recomputed from their
// ledger rows; it is never stored.
type StudentStanding struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	TotalFees   int    `json:"total_fees"`
	PaidFees    int    `json:"paid_fees"`
	PendingFees int    `json:"pending_fees"`
}

type ClassStanding struct {
	ClassID      string `json:"class_id"`
	ClassName    string `json:"class_name"`
	TotalFees    int    `json:"total_fees"`
	PaidFees     int    `json:"paid_fees"`
	PendingFees  int    `json:"pending_fees"`
	OverdueCount int    `json:"overdue_count"` // distinct students with at least one overdue row
}

type DefinitionFilter struct {
	ClassID      string   `query:"class_id"`
	AcademicYear string   `query:"academic_year"`
	Category     Category `query:"category"`
}

func (df *DefinitionFilter) IsEmpty() bool {
	return df.ClassID == "" && df.AcademicYear == "" && df.Category == ""
}

type PaymentFilter struct {
	StudentID    string `query:"student_id"`
	ClassID      string `query:"class_id"`
	DefinitionID string `query:"definition_id"`
	InstanceID   string `query:"instance_id"`
	Status       Status `query:"status"`
}

func (pf *PaymentFilter) IsEmpty() bool {
	return pf.StudentID == "" && pf.ClassID == "" && pf.DefinitionID == "" &&
		pf.InstanceID == "" && pf.Status == ""
}
