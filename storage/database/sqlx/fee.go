package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/fee"
)

type feeRepository struct {
	exec core.DBExecutor
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(exec core.DBExecutor) fee.Repository {
	return &feeRepository{exec: exec}
}

func (repo feeRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

// row types

type definitionRow struct {
	ID             string         `db:"id"`
	ClassID        string         `db:"class_id"`
	ClassName      string         `db:"class_name"`
	FeeType        string         `db:"fee_type"`
	Category       string         `db:"category"`
	Amount         int            `db:"amount"`
	AcademicYear   string         `db:"academic_year"`
	Description    string         `db:"description"`
	IsRecurring    bool           `db:"is_recurring"`
	RecurringType  null.String    `db:"recurring_type"`
	DueDay         null.Int       `db:"due_day"`
	ExcludedMonths pq.StringArray `db:"excluded_months"`
	StartDate      null.Time      `db:"start_date"`
	EndDate        null.Time      `db:"end_date"`
	DueDate        null.Time      `db:"due_date"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func toDefinitionRow(def fee.Definition) definitionRow {
	return definitionRow{
		ID:             def.ID,
		ClassID:        def.ClassID,
		ClassName:      def.ClassName,
		FeeType:        def.FeeType,
		Category:       string(def.Category),
		Amount:         def.Amount,
		AcademicYear:   def.AcademicYear,
		Description:    def.Description,
		IsRecurring:    def.IsRecurring,
		RecurringType:  null.NewString(string(def.RecurringType), def.RecurringType != ""),
		DueDay:         null.NewInt(def.DueDayOfMonth, def.DueDayOfMonth > 0),
		ExcludedMonths: pq.StringArray(def.ExcludedMonths),
		StartDate:      null.TimeFromPtr(def.StartDate),
		EndDate:        null.TimeFromPtr(def.EndDate),
		DueDate:        null.TimeFromPtr(def.DueDate),
		CreatedAt:      def.CreatedAt.UTC(),
		UpdatedAt:      def.UpdatedAt.UTC(),
	}
}

func (r definitionRow) toDefinition() fee.Definition {
	return fee.Definition{
		ID:             r.ID,
		ClassID:        r.ClassID,
		ClassName:      r.ClassName,
		FeeType:        r.FeeType,
		Category:       fee.Category(r.Category),
		Amount:         r.Amount,
		AcademicYear:   r.AcademicYear,
		Description:    r.Description,
		IsRecurring:    r.IsRecurring,
		RecurringType:  fee.Recurrence(r.RecurringType.String),
		DueDayOfMonth:  r.DueDay.Int,
		ExcludedMonths: []string(r.ExcludedMonths),
		StartDate:      r.StartDate.Ptr(),
		EndDate:        r.EndDate.Ptr(),
		DueDate:        r.DueDate.Ptr(),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type instanceRow struct {
	ID           string    `db:"id"`
	DefinitionID string    `db:"definition_id"`
	ClassID      string    `db:"class_id"`
	ClassName    string    `db:"class_name"`
	FeeType      string    `db:"fee_type"`
	Category     string    `db:"category"`
	Amount       int       `db:"amount"`
	DueDate      time.Time `db:"due_date"`
	PeriodKey    string    `db:"period_key"`
	Period       string    `db:"period"`
	AcademicYear string    `db:"academic_year"`
	IsActive     bool      `db:"is_active"`
}

func (r instanceRow) toInstance() fee.Instance {
	return fee.Instance{
		ID:           r.ID,
		DefinitionID: r.DefinitionID,
		ClassID:      r.ClassID,
		ClassName:    r.ClassName,
		FeeType:      r.FeeType,
		Category:     fee.Category(r.Category),
		Amount:       r.Amount,
		DueDate:      r.DueDate,
		PeriodKey:    r.PeriodKey,
		Period:       r.Period,
		AcademicYear: r.AcademicYear,
		IsActive:     r.IsActive,
	}
}

type paymentRow struct {
	ID              string      `db:"id"`
	InstanceID      string      `db:"instance_id"`
	DefinitionID    string      `db:"definition_id"`
	ClassID         string      `db:"class_id"`
	StudentID       string      `db:"student_id"`
	StudentName     string      `db:"student_name"`
	Amount          int         `db:"amount"`
	Status          string      `db:"status"`
	PaidAmount      int         `db:"paid_amount"`
	RemainingAmount int         `db:"remaining_amount"`
	DueDate         time.Time   `db:"due_date"`
	PaidDate        null.Time   `db:"paid_date"`
	Method          string      `db:"method"`
	ReceiptNo       null.String `db:"receipt_no"`
	Notes           string      `db:"notes"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

func toPaymentRow(p fee.Payment) paymentRow {
	return paymentRow{
		ID:              p.ID,
		InstanceID:      p.InstanceID,
		DefinitionID:    p.DefinitionID,
		ClassID:         p.ClassID,
		StudentID:       p.StudentID,
		StudentName:     p.StudentName,
		Amount:          p.Amount,
		Status:          string(p.Status),
		PaidAmount:      p.PaidAmount,
		RemainingAmount: p.RemainingAmount,
		DueDate:         p.DueDate,
		PaidDate:        null.TimeFromPtr(p.PaidDate),
		Method:          p.Method,
		ReceiptNo:       null.NewString(p.ReceiptNo, p.ReceiptNo != ""),
		Notes:           p.Notes,
		CreatedAt:       p.CreatedAt.UTC(),
		UpdatedAt:       p.UpdatedAt.UTC(),
	}
}

func (r paymentRow) toPayment() fee.Payment {
	return fee.Payment{
		ID:              r.ID,
		InstanceID:      r.InstanceID,
		DefinitionID:    r.DefinitionID,
		ClassID:         r.ClassID,
		StudentID:       r.StudentID,
		StudentName:     r.StudentName,
		Amount:          r.Amount,
		Status:          fee.Status(r.Status),
		PaidAmount:      r.PaidAmount,
		RemainingAmount: r.RemainingAmount,
		DueDate:         r.DueDate,
		PaidDate:        r.PaidDate.Ptr(),
		Method:          r.Method,
		ReceiptNo:       r.ReceiptNo.String,
		Notes:           r.Notes,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// Definitions

func (repo feeRepository) CreateDefinition(ctx context.Context, def fee.Definition, exec ...core.DBExecutor) (fee.Definition, error) {
	def.ID = newUUIDString()
	r := toDefinitionRow(def)
	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO fee_definition
		 (id, class_id, class_name, fee_type, category, amount, academic_year, description,
		  is_recurring, recurring_type, due_day, excluded_months, start_date, end_date, due_date,
		  created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		r.ID, r.ClassID, r.ClassName, r.FeeType, r.Category, r.Amount, r.AcademicYear, r.Description,
		r.IsRecurring, r.RecurringType, r.DueDay, r.ExcludedMonths, r.StartDate, r.EndDate, r.DueDate,
		r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fee.Definition{}, errors.Wrap(err, "inserting fee definition")
	}
	return def, nil
}

func (repo feeRepository) GetDefinitionByID(ctx context.Context, id string, exec ...core.DBExecutor) (fee.Definition, error) {
	if !isUUID(id) {
		return fee.Definition{}, fee.ErrDefinitionNotFound
	}
	rows, err := repo.getExec(exec).QueryContext(ctx, `SELECT * FROM fee_definition WHERE id = $1`, id)
	if err != nil {
		return fee.Definition{}, errors.Wrap(err, "finding fee definition by ID")
	}
	defer func() { _ = rows.Close() }()

	var recs []definitionRow
	if err = sqlx.StructScan(rows, &recs); err != nil {
		return fee.Definition{}, errors.Wrap(err, "scanning fee definition")
	}
	if len(recs) == 0 {
		return fee.Definition{}, fee.ErrDefinitionNotFound
	}
	return recs[0].toDefinition(), nil
}

func (repo feeRepository) QueryDefinitions(ctx context.Context, filter *fee.DefinitionFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]fee.Definition, error) {
	query := `SELECT * FROM fee_definition`
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.ClassID != "" {
			conds = append(conds, fmt.Sprintf("class_id = $%d", len(args)+1))
			args = append(args, filter.ClassID)
		}
		if filter.AcademicYear != "" {
			conds = append(conds, fmt.Sprintf("academic_year = $%d", len(args)+1))
			args = append(args, filter.AcademicYear)
		}
		if filter.Category != "" {
			conds = append(conds, fmt.Sprintf("category = $%d", len(args)+1))
			args = append(args, string(filter.Category))
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderBy(ordering, definitionOrderCols)

	rows, err := repo.getExec(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying fee definitions")
	}
	defer func() { _ = rows.Close() }()

	var recs []definitionRow
	if err = sqlx.StructScan(rows, &recs); err != nil {
		return nil, errors.Wrap(err, "scanning fee definitions")
	}
	defs := make([]fee.Definition, 0, len(recs))
	for _, r := range recs {
		defs = append(defs, r.toDefinition())
	}
	return defs, nil
}

func (repo feeRepository) UpdateDefinition(ctx context.Context, def fee.Definition, exec ...core.DBExecutor) (fee.Definition, error) {
	r := toDefinitionRow(def)
	res, err := repo.getExec(exec).ExecContext(ctx,
		`UPDATE fee_definition SET
		 class_id = $2, class_name = $3, fee_type = $4, category = $5, amount = $6,
		 academic_year = $7, description = $8, is_recurring = $9, recurring_type = $10,
		 due_day = $11, excluded_months = $12, start_date = $13, end_date = $14, due_date = $15,
		 updated_at = $16
		 WHERE id = $1`,
		r.ID, r.ClassID, r.ClassName, r.FeeType, r.Category, r.Amount,
		r.AcademicYear, r.Description, r.IsRecurring, r.RecurringType,
		r.DueDay, r.ExcludedMonths, r.StartDate, r.EndDate, r.DueDate,
		r.UpdatedAt,
	)
	if err != nil {
		return fee.Definition{}, errors.Wrap(err, "updating fee definition")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return fee.Definition{}, fee.ErrDefinitionNotFound
	}
	return def, nil
}

func (repo feeRepository) DeleteDefinitionsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM fee_definition WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building fee definition delete query")
	}
	res, err := repo.getExec(exec).ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting fee definitions")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

// Instances

func (repo feeRepository) UpsertInstances(ctx context.Context, instances []fee.Instance, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)
	for _, inst := range instances {
		_, err := exe.ExecContext(ctx,
			`INSERT INTO fee_instance
			 (id, definition_id, class_id, class_name, fee_type, category, amount, due_date,
			  period_key, period, academic_year, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			 ON CONFLICT (id) DO UPDATE SET
			 class_name = EXCLUDED.class_name, fee_type = EXCLUDED.fee_type,
			 category = EXCLUDED.category, amount = EXCLUDED.amount, due_date = EXCLUDED.due_date,
			 period = EXCLUDED.period, academic_year = EXCLUDED.academic_year,
			 is_active = EXCLUDED.is_active`,
			inst.ID, inst.DefinitionID, inst.ClassID, inst.ClassName, inst.FeeType,
			string(inst.Category), inst.Amount, inst.DueDate, inst.PeriodKey, inst.Period,
			inst.AcademicYear, inst.IsActive,
		)
		if err != nil {
			return errors.Wrap(err, "upserting fee instance")
		}
	}
	return nil
}

func (repo feeRepository) GetInstanceByID(ctx context.Context, id string, exec ...core.DBExecutor) (fee.Instance, error) {
	if !isUUID(id) {
		return fee.Instance{}, fee.ErrInstanceNotFound
	}
	rows, err := repo.getExec(exec).QueryContext(ctx, `SELECT * FROM fee_instance WHERE id = $1`, id)
	if err != nil {
		return fee.Instance{}, errors.Wrap(err, "finding fee instance by ID")
	}
	defer func() { _ = rows.Close() }()

	var recs []instanceRow
	if err = sqlx.StructScan(rows, &recs); err != nil {
		return fee.Instance{}, errors.Wrap(err, "scanning fee instance")
	}
	if len(recs) == 0 {
		return fee.Instance{}, fee.ErrInstanceNotFound
	}
	return recs[0].toInstance(), nil
}

func (repo feeRepository) QueryInstancesByDefinitionID(ctx context.Context, definitionID string, activeOnly bool, exec ...core.DBExecutor) ([]fee.Instance, error) {
	query := `SELECT * FROM fee_instance WHERE definition_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY due_date ASC`

	rows, err := repo.getExec(exec).QueryContext(ctx, query, definitionID)
	if err != nil {
		return nil, errors.Wrap(err, "querying fee instances")
	}
	defer func() { _ = rows.Close() }()

	var recs []instanceRow
	if err = sqlx.StructScan(rows, &recs); err != nil {
		return nil, errors.Wrap(err, "scanning fee instances")
	}
	instances := make([]fee.Instance, 0, len(recs))
	for _, r := range recs {
		instances = append(instances, r.toInstance())
	}
	return instances, nil
}

func (repo feeRepository) DeactivateInstancesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`UPDATE fee_instance SET is_active = FALSE WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building fee instance deactivation query")
	}
	res, err := repo.getExec(exec).ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deactivating fee instances")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo feeRepository) DeleteInstancesByDefinitionID(ctx context.Context, definitionID string, exec ...core.DBExecutor) (int, error) {
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM fee_instance WHERE definition_id = $1`, definitionID)
	if err != nil {
		return 0, errors.Wrap(err, "deleting fee instances")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

// Payments

func (repo feeRepository) CheckReceiptNoUniqueness(ctx context.Context, receiptNo string, exec ...core.DBExecutor) error {
	var exists bool
	err := repo.getExec(exec).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM student_payment WHERE receipt_no = $1)`, receiptNo,
	).Scan(&exists)
	if err != nil {
		return errors.Wrap(err, "checking receipt number uniqueness")
	}
	if exists {
		return fee.ErrReceiptNoExists
	}
	return nil
}

func (repo feeRepository) CreatePayments(ctx context.Context, payments []fee.Payment, exec ...core.DBExecutor) ([]fee.Payment, error) {
	exe := repo.getExec(exec)
	created := make([]fee.Payment, 0, len(payments))
	for _, p := range payments {
		if p.ID == "" {
			p.ID = newUUIDString()
		}
		r := toPaymentRow(p)
		_, err := exe.ExecContext(ctx,
			`INSERT INTO student_payment
			 (id, instance_id, definition_id, class_id, student_id, student_name, amount, status,
			  paid_amount, remaining_amount, due_date, paid_date, method, receipt_no, notes,
			  created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			r.ID, r.InstanceID, r.DefinitionID, r.ClassID, r.StudentID, r.StudentName, r.Amount, r.Status,
			r.PaidAmount, r.RemainingAmount, r.DueDate, r.PaidDate, r.Method, r.ReceiptNo, r.Notes,
			r.CreatedAt, r.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "inserting student payment")
		}
		created = append(created, p)
	}
	return created, nil
}

func (repo feeRepository) GetPaymentByID(ctx context.Context, id string, exec ...core.DBExecutor) (fee.Payment, error) {
	if !isUUID(id) {
		return fee.Payment{}, fee.ErrPaymentNotFound
	}
	rows, err := repo.getExec(exec).QueryContext(ctx, `SELECT * FROM student_payment WHERE id = $1`, id)
	if err != nil {
		return fee.Payment{}, errors.Wrap(err, "finding student payment by ID")
	}
	defer func() { _ = rows.Close() }()

	var recs []paymentRow
	if err = sqlx.StructScan(rows, &recs); err != nil {
		return fee.Payment{}, errors.Wrap(err, "scanning student payment")
	}
	if len(recs) == 0 {
		return fee.Payment{}, fee.ErrPaymentNotFound
	}
	return recs[0].toPayment(), nil
}

func (repo feeRepository) QueryPayments(ctx context.Context, filter *fee.PaymentFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]fee.Payment, error) {
	query := `SELECT * FROM student_payment`
	var conds []string
	var args []interface{}

	if filter != nil {
		if filter.StudentID != "" {
			conds = append(conds, fmt.Sprintf("student_id = $%d", len(args)+1))
			args = append(args, filter.StudentID)
		}
		if filter.ClassID != "" {
			conds = append(conds, fmt.Sprintf("class_id = $%d", len(args)+1))
			args = append(args, filter.ClassID)
		}
		if filter.DefinitionID != "" {
			conds = append(conds, fmt.Sprintf("definition_id = $%d", len(args)+1))
			args = append(args, filter.DefinitionID)
		}
		if filter.InstanceID != "" {
			conds = append(conds, fmt.Sprintf("instance_id = $%d", len(args)+1))
			args = append(args, filter.InstanceID)
		}
		if filter.Status != "" {
			conds = append(conds, fmt.Sprintf("status = $%d", len(args)+1))
			args = append(args, string(filter.Status))
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderBy(ordering, paymentOrderCols)

	rows, err := repo.getExec(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying student payments")
	}
	defer func() { _ = rows.Close() }()

	var recs []paymentRow
	if err = sqlx.StructScan(rows, &recs); err != nil {
		return nil, errors.Wrap(err, "scanning student payments")
	}
	payments := make([]fee.Payment, 0, len(recs))
	for _, r := range recs {
		payments = append(payments, r.toPayment())
	}
	return payments, nil
}

func (repo feeRepository) UpdatePayment(ctx context.Context, pay fee.Payment, exec ...core.DBExecutor) (fee.Payment, error) {
	r := toPaymentRow(pay)
	res, err := repo.getExec(exec).ExecContext(ctx,
		`UPDATE student_payment SET
		 student_name = $2, amount = $3, status = $4, paid_amount = $5, remaining_amount = $6,
		 due_date = $7, paid_date = $8, method = $9, receipt_no = $10, notes = $11, updated_at = $12
		 WHERE id = $1`,
		r.ID, r.StudentName, r.Amount, r.Status, r.PaidAmount, r.RemainingAmount,
		r.DueDate, r.PaidDate, r.Method, r.ReceiptNo, r.Notes, r.UpdatedAt,
	)
	if err != nil {
		return fee.Payment{}, errors.Wrap(err, "updating student payment")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return fee.Payment{}, fee.ErrPaymentNotFound
	}
	return pay, nil
}

func (repo feeRepository) DeletePaymentsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM student_payment WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building student payment delete query")
	}
	res, err := repo.getExec(exec).ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting student payments")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

var (
	definitionOrderCols = map[string]bool{
		"class_name": true, "fee_type": true, "category": true, "amount": true,
		"academic_year": true, "due_date": true, "created_at": true, "updated_at": true,
	}
	paymentOrderCols = map[string]bool{
		"student_name": true, "status": true, "amount": true, "paid_amount": true,
		"remaining_amount": true, "due_date": true, "paid_date": true,
		"created_at": true, "updated_at": true,
	}
)

// orderBy renders an ORDER BY clause. Ordering fields can come straight
// from the query string; anything not in allowed is dropped rather than
// spliced into the SQL text.
func orderBy(ordering []core.DBOrdering, allowed map[string]bool) string {
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if !allowed[ord.Field] {
			continue
		}
		orderList = append(orderList, ord.String())
	}
	if len(orderList) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(orderList, ", ")
}
