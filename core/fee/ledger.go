package fee

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/school"
)

// Ledger maintains the per-student, per-instance payment rows and the
// status-derived aggregates.
type Ledger struct {
	db      core.DB
	repo    Repository
	school  *school.Service
	mailSvc core.EmailService
	clock   core.Clock
}

func NewLedger(db core.DB, repo Repository, schoolSvc *school.Service, mailSvc core.EmailService, clock core.Clock) *Ledger {
	return &Ledger{db: db, repo: repo, school: schoolSvc, mailSvc: mailSvc, clock: clock}
}

// RecomputeStatus returns p with its status brought up to asOf: a PENDING
// row past its due date becomes OVERDUE. Pure; PAID, PARTIAL and CANCELLED
// rows come back unchanged, and OVERDUE never silently reverts.
func RecomputeStatus(p Payment, asOf time.Time) Payment {
	if p.Status == StatusPending && p.DueDate.Before(asOf) {
		p.Status = StatusOverdue
	}
	return p
}

// Materialize creates one PENDING ledger row per (active instance ×
// currently enrolled student) for the definition. Pairs that already have a
// row are skipped; calling it twice never duplicates. Returns the rows it
// created.
func (l *Ledger) Materialize(ctx context.Context, definitionID string) ([]Payment, error) {
	def, err := l.repo.GetDefinitionByID(ctx, definitionID)
	if err != nil {
		if err == ErrDefinitionNotFound {
			return nil, core.NewNotFoundError(err)
		}
		return nil, err
	}

	students, err := l.school.EnrolledStudents(ctx, def.ClassID)
	if err != nil {
		return nil, err
	}

	var created []Payment
	err = core.Atomic(ctx, l.db, func(exec core.DBExecutor) error {
		instances, err := l.repo.QueryInstancesByDefinitionID(ctx, def.ID, true, exec)
		if err != nil {
			return err
		}

		existing, err := l.repo.QueryPayments(ctx, &PaymentFilter{DefinitionID: def.ID}, nil, exec)
		if err != nil {
			return err
		}
		seen := make(map[string]bool, len(existing))
		for _, p := range existing {
			seen[p.ID] = true
		}

		now := l.clock.Now()
		var rows []Payment
		for _, inst := range instances {
			for _, std := range students {
				id := PaymentID(inst.ID, std.ID)
				if seen[id] {
					continue
				}
				rows = append(rows, Payment{
					ID:              id,
					InstanceID:      inst.ID,
					DefinitionID:    def.ID,
					ClassID:         def.ClassID,
					StudentID:       std.ID,
					StudentName:     std.Name,
					Amount:          inst.Amount,
					Status:          StatusPending,
					RemainingAmount: inst.Amount,
					DueDate:         inst.DueDate,
					CreatedAt:       now,
					UpdatedAt:       now,
				})
			}
		}
		if len(rows) == 0 {
			return nil
		}
		created, err = l.repo.CreatePayments(ctx, rows, exec)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RecordPayment applies a payment on a ledger row. The cumulative paid
// amount may never exceed the row's amount; receipt numbers are unique
// across the whole ledger. The row becomes PAID when fully covered, PARTIAL
// otherwise. A failed call leaves the row untouched.
//
// The row keeps only the latest receipt number and method; a receipt
// number overwritten by a later installment leaves the uniqueness domain.
func (l *Ledger) RecordPayment(ctx context.Context, paymentID string, in PaymentInput) (Payment, error) {
	if err := in.Validate(); err != nil {
		return Payment{}, err
	}

	p, err := l.getPayment(ctx, paymentID)
	if err != nil {
		return Payment{}, err
	}
	switch p.Status {
	case StatusCancelled:
		return Payment{}, core.NewConflictError(fmt.Errorf("payment %s is cancelled", p.ID))
	case StatusPaid:
		return Payment{}, core.NewConflictError(fmt.Errorf("payment %s is already fully paid", p.ID))
	}

	newPaid := p.PaidAmount + in.Amount
	if newPaid > p.Amount {
		return Payment{}, core.NewValidationError(
			fmt.Errorf("payment of %d exceeds the %d remaining on this fee", in.Amount, p.RemainingAmount),
			core.FieldError{Field: "amount", Error: "le montant dépasse le solde restant dû"},
		)
	}

	if err = l.repo.CheckReceiptNoUniqueness(ctx, in.ReceiptNo); err != nil {
		if err == ErrReceiptNoExists {
			return Payment{}, core.NewConflictError(err)
		}
		return Payment{}, err
	}

	now := l.clock.Now()
	paidDate := l.clock.Today()
	if in.Date != nil {
		paidDate = in.Date.UTC()
	}

	p.PaidAmount = newPaid
	p.RemainingAmount = p.Amount - newPaid
	p.PaidDate = &paidDate
	p.Method = in.Method
	p.ReceiptNo = in.ReceiptNo
	if in.Notes != "" {
		p.Notes = in.Notes
	}
	if p.RemainingAmount == 0 {
		p.Status = StatusPaid
	} else {
		p.Status = StatusPartial
	}
	p.UpdatedAt = now

	if p, err = l.repo.UpdatePayment(ctx, p); err != nil {
		return Payment{}, err
	}

	if p.Status == StatusPaid {
		l.sendReceipt(ctx, p)
	}
	return p, nil
}

// Postpone moves the due date of one student's row without touching other
// students' rows against the same instance. Only PENDING and OVERDUE rows
// can be postponed; money already received cannot be pushed back.
func (l *Ledger) Postpone(ctx context.Context, paymentID string, newDueDate time.Time) (Payment, error) {
	p, err := l.getPayment(ctx, paymentID)
	if err != nil {
		return Payment{}, err
	}
	if p.Status != StatusPending && p.Status != StatusOverdue {
		return Payment{}, core.NewConflictError(fmt.Errorf("cannot postpone a %s payment", strings.ToLower(string(p.Status))))
	}

	p.DueDate = newDueDate.UTC()
	if !p.DueDate.Before(l.clock.Today()) {
		p.Status = StatusPending
	}
	p.UpdatedAt = l.clock.Now()
	return l.repo.UpdatePayment(ctx, p)
}

// Filter returns ledger rows with statuses recomputed as of today. Staleness
// is resolved lazily here, on read; nothing is written back.
func (l *Ledger) Filter(ctx context.Context, filter PaymentFilter) ([]Payment, error) {
	status := filter.Status
	filter.Status = ""

	var stored *PaymentFilter
	if !filter.IsEmpty() {
		stored = &filter
	}
	ordering := []core.DBOrdering{{Field: "due_date", Ascending: true}}
	payments, err := l.repo.QueryPayments(ctx, stored, ordering)
	if err != nil {
		return nil, err
	}

	today := l.clock.Today()
	result := make([]Payment, 0, len(payments))
	for _, p := range payments {
		p = RecomputeStatus(p, today)
		if status != "" && p.Status != status {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

// Get returns one ledger row, status recomputed as of today.
func (l *Ledger) Get(ctx context.Context, paymentID string) (Payment, error) {
	p, err := l.getPayment(ctx, paymentID)
	if err != nil {
		return Payment{}, err
	}
	return RecomputeStatus(p, l.clock.Today()), nil
}

// AggregateByStudent recomputes a student's standing by summing their
// non-cancelled ledger rows. totalFees = paidFees + pendingFees always
// holds; the totals are never stored.
func (l *Ledger) AggregateByStudent(ctx context.Context, studentID string) (StudentStanding, error) {
	std, err := l.school.GetStudent(ctx, studentID)
	if err != nil {
		return StudentStanding{}, err
	}
	payments, err := l.repo.QueryPayments(ctx, &PaymentFilter{StudentID: std.ID}, nil)
	if err != nil {
		return StudentStanding{}, err
	}

	standing := StudentStanding{StudentID: std.ID, StudentName: std.Name}
	for _, p := range payments {
		total, paid := rowAmounts(p)
		standing.TotalFees += total
		standing.PaidFees += paid
	}
	standing.PendingFees = standing.TotalFees - standing.PaidFees
	return standing, nil
}

// AggregateByClass sums standing over all students of a class; OverdueCount
// is the number of distinct students with at least one overdue row as of
// today.
func (l *Ledger) AggregateByClass(ctx context.Context, classID string) (ClassStanding, error) {
	cls, err := l.school.GetClass(ctx, classID)
	if err != nil {
		return ClassStanding{}, err
	}
	payments, err := l.repo.QueryPayments(ctx, &PaymentFilter{ClassID: cls.ID}, nil)
	if err != nil {
		return ClassStanding{}, err
	}

	today := l.clock.Today()
	standing := ClassStanding{ClassID: cls.ID, ClassName: cls.Name}
	overdueStudents := make(map[string]bool)
	for _, p := range payments {
		total, paid := rowAmounts(p)
		standing.TotalFees += total
		standing.PaidFees += paid
		if RecomputeStatus(p, today).Status == StatusOverdue {
			overdueStudents[p.StudentID] = true
		}
	}
	standing.PendingFees = standing.TotalFees - standing.PaidFees
	standing.OverdueCount = len(overdueStudents)
	return standing, nil
}

// RemindOverdue emails each student (guardian) a summary of their overdue
// rows as of today. Returns the number of reminders sent.
func (l *Ledger) RemindOverdue(ctx context.Context) (int, error) {
	overdue, err := l.Filter(ctx, PaymentFilter{Status: StatusOverdue})
	if err != nil {
		return 0, err
	}
	byStudent := make(map[string][]Payment)
	for _, p := range overdue {
		byStudent[p.StudentID] = append(byStudent[p.StudentID], p)
	}

	var messages []*core.EmailMessage
	for studentID, rows := range byStudent {
		std, err := l.school.GetStudent(ctx, studentID)
		if err != nil || std.Email == "" {
			continue
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].DueDate.Before(rows[j].DueDate) })

		var body strings.Builder
		fmt.Fprintf(&body, "Bonjour,\n\nLes frais suivants pour %s sont en retard de paiement :\n\n", std.Name)
		var total int
		for _, p := range rows {
			fmt.Fprintf(&body, "- échéance du %s : %s restant dû\n", FormatDate(p.DueDate), FormatCDF(p.RemainingAmount))
			total += p.RemainingAmount
		}
		fmt.Fprintf(&body, "\nTotal dû : %s\n\nMerci de régulariser la situation.\n", FormatCDF(total))

		messages = append(messages, &core.EmailMessage{
			To:      []mail.Address{{Name: std.Name, Address: std.Email}},
			Subject: "Rappel : frais scolaires en retard",
			BodyStr: body.String(),
		})
	}

	if l.mailSvc != nil && len(messages) > 0 {
		l.mailSvc.SendMessages(messages...)
	}
	return len(messages), nil
}

func (l *Ledger) getPayment(ctx context.Context, id string) (Payment, error) {
	p, err := l.repo.GetPaymentByID(ctx, id)
	if err != nil {
		if err == ErrPaymentNotFound {
			return Payment{}, core.NewNotFoundError(err)
		}
		return Payment{}, err
	}
	return p, nil
}

// sendReceipt emails a payment receipt; best effort, never fails the
// ledger operation.
func (l *Ledger) sendReceipt(ctx context.Context, p Payment) {
	if l.mailSvc == nil {
		return
	}
	std, err := l.school.GetStudent(ctx, p.StudentID)
	if err != nil || std.Email == "" {
		return
	}

	body := fmt.Sprintf(
		"Bonjour,\n\nNous confirmons la réception du paiement de %s pour %s (reçu n°%s).\n\nMerci.\n",
		FormatCDF(p.Amount), std.Name, p.ReceiptNo,
	)
	l.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: std.Name, Address: std.Email}},
		Subject: "Reçu de paiement " + p.ReceiptNo,
		BodyStr: body,
	})
}

// rowAmounts returns a row's contribution to (totalFees, paidFees).
// Cancelled rows contribute nothing; a PAID row with no explicit paid amount
// recorded counts as fully paid.
func rowAmounts(p Payment) (total, paid int) {
	if p.Status == StatusCancelled {
		return 0, 0
	}
	paid = p.PaidAmount
	if p.Status == StatusPaid && paid == 0 {
		paid = p.Amount
	}
	return p.Amount, paid
}
