package fee

import (
	"context"
	"errors"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/school"
)

var (
	ErrDefinitionNotFound = errors.New("fee definition not found")
	ErrInstanceNotFound   = errors.New("fee instance not found")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrReceiptNoExists    = errors.New("a payment with this receipt number already exists")
	ErrHasPaidRows        = errors.New("definition has recorded payments; use force to delete")
)

type (
	Repository interface {
		CreateDefinition(ctx context.Context, def Definition, exec ...core.DBExecutor) (Definition, error)
		GetDefinitionByID(ctx context.Context, id string, exec ...core.DBExecutor) (Definition, error)
		// QueryDefinitions applies AND operation on available DefinitionFilter fields.
		QueryDefinitions(ctx context.Context, filter *DefinitionFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Definition, error)
		UpdateDefinition(ctx context.Context, def Definition, exec ...core.DBExecutor) (Definition, error)
		DeleteDefinitionsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)

		// UpsertInstances inserts or replaces instances by ID.
		UpsertInstances(ctx context.Context, instances []Instance, exec ...core.DBExecutor) error
		GetInstanceByID(ctx context.Context, id string, exec ...core.DBExecutor) (Instance, error)
		QueryInstancesByDefinitionID(ctx context.Context, definitionID string, activeOnly bool, exec ...core.DBExecutor) ([]Instance, error)
		DeactivateInstancesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
		DeleteInstancesByDefinitionID(ctx context.Context, definitionID string, exec ...core.DBExecutor) (int, error)

		CheckReceiptNoUniqueness(ctx context.Context, receiptNo string, exec ...core.DBExecutor) error
		CreatePayments(ctx context.Context, payments []Payment, exec ...core.DBExecutor) ([]Payment, error)
		GetPaymentByID(ctx context.Context, id string, exec ...core.DBExecutor) (Payment, error)
		// QueryPayments applies AND operation on available PaymentFilter
		// fields. Filtering on Status is done by the caller: OVERDUE only
		// exists after recomputation against the clock.
		QueryPayments(ctx context.Context, filter *PaymentFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Payment, error)
		UpdatePayment(ctx context.Context, pay Payment, exec ...core.DBExecutor) (Payment, error)
		DeletePaymentsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	// Service is the definition store: CRUD over fee policies and the
	// cascades their edits trigger.
	Service struct {
		db     core.DB
		repo   Repository
		school *school.Service
		clock  core.Clock
	}
)

func NewService(db core.DB, repo Repository, schoolSvc *school.Service, clock core.Clock) *Service {
	return &Service{db: db, repo: repo, school: schoolSvc, clock: clock}
}

func (svc *Service) Create(ctx context.Context, nd NewDefinition) (Definition, error) {
	if err := nd.Validate(); err != nil {
		return Definition{}, err
	}
	cls, err := svc.school.GetClass(ctx, nd.ClassID)
	if err != nil {
		return Definition{}, err
	}

	now := svc.clock.Now()
	def := Definition{
		ClassID:        cls.ID,
		ClassName:      cls.Name,
		FeeType:        nd.FeeType,
		Category:       nd.Category,
		Amount:         nd.Amount,
		AcademicYear:   nd.AcademicYear,
		Description:    nd.Description,
		IsRecurring:    nd.IsRecurring,
		RecurringType:  nd.RecurringType,
		DueDayOfMonth:  nd.DueDayOfMonth,
		ExcludedMonths: nd.ExcludedMonths,
		StartDate:      nd.StartDate,
		EndDate:        nd.EndDate,
		DueDate:        nd.DueDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return svc.repo.CreateDefinition(ctx, def)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Definition, error) {
	def, err := svc.repo.GetDefinitionByID(ctx, id)
	if err != nil {
		if err == ErrDefinitionNotFound {
			return Definition{}, core.NewNotFoundError(err)
		}
		return Definition{}, err
	}
	return def, nil
}

func (svc *Service) Filter(ctx context.Context, filter DefinitionFilter, ordering ...core.DBOrdering) ([]Definition, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "class_name", Ascending: true}, {Field: "fee_type", Ascending: true}}
	}
	if filter.IsEmpty() {
		return svc.repo.QueryDefinitions(ctx, nil, ordering)
	}
	return svc.repo.QueryDefinitions(ctx, &filter, ordering)
}

// Update merges the patch into the definition and re-validates. When the
// amount or a schedule-driving field changed, instances are regenerated and
// unpaid ledger rows reconciled against the new schedule, all in one
// transaction: superseded instances are deactivated and their unpaid rows
// cancelled; PENDING/OVERDUE rows on surviving instances get their amounts
// recomputed. Rows with money on them are never altered.
func (svc *Service) Update(ctx context.Context, id string, ud UpdateDefinition) (Definition, error) {
	orig, err := svc.GetByID(ctx, id)
	if err != nil {
		return Definition{}, err
	}

	def := ud.Apply(orig)
	if err = svc.validateDefinition(def); err != nil {
		return Definition{}, err
	}
	def.UpdatedAt = svc.clock.Now()

	if !ud.AffectsSchedule(orig) {
		return svc.repo.UpdateDefinition(ctx, def)
	}

	err = core.Atomic(ctx, svc.db, func(exec core.DBExecutor) error {
		if def, err = svc.repo.UpdateDefinition(ctx, def, exec); err != nil {
			return err
		}
		return svc.regenerate(ctx, def, exec)
	})
	if err != nil {
		return Definition{}, err
	}
	return def, nil
}

// regenerate re-expands def's schedule and reconciles the ledger with it.
func (svc *Service) regenerate(ctx context.Context, def Definition, exec core.DBExecutor) error {
	fresh, err := Generate(def)
	if err != nil {
		return err
	}
	freshIDs := make(map[string]Instance, len(fresh))
	for _, inst := range fresh {
		freshIDs[inst.ID] = inst
	}

	existing, err := svc.repo.QueryInstancesByDefinitionID(ctx, def.ID, true, exec)
	if err != nil {
		return err
	}
	var superseded []string
	for _, inst := range existing {
		if _, ok := freshIDs[inst.ID]; !ok {
			superseded = append(superseded, inst.ID)
		}
	}

	if err = svc.repo.UpsertInstances(ctx, fresh, exec); err != nil {
		return err
	}
	if len(superseded) > 0 {
		if _, err = svc.repo.DeactivateInstancesByID(ctx, superseded, exec); err != nil {
			return err
		}
	}

	payments, err := svc.repo.QueryPayments(ctx, &PaymentFilter{DefinitionID: def.ID}, nil, exec)
	if err != nil {
		return err
	}
	supersededIDs := make(map[string]bool, len(superseded))
	for _, id := range superseded {
		supersededIDs[id] = true
	}
	now := svc.clock.Now()

	for _, p := range payments {
		if p.Status == StatusCancelled {
			inst, ok := freshIDs[p.InstanceID]
			if !ok || p.PaidAmount != 0 {
				continue
			}
			// the instance re-entered the schedule (eg. a month no longer
			// excluded); revive its cancelled row so it is collectable again
			p.Status = StatusPending
			p.Amount = inst.Amount
			p.RemainingAmount = inst.Amount
			p.DueDate = inst.DueDate
			p.UpdatedAt = now
			if _, err = svc.repo.UpdatePayment(ctx, p, exec); err != nil {
				return err
			}
			continue
		}
		if supersededIDs[p.InstanceID] {
			// history with money on it is immutable; unpaid rows follow
			// their instance out of the schedule
			if p.PaidAmount == 0 {
				p.Status = StatusCancelled
				p.RemainingAmount = 0
				p.UpdatedAt = now
				if _, err = svc.repo.UpdatePayment(ctx, p, exec); err != nil {
					return err
				}
			}
			continue
		}
		if p.Status == StatusPaid {
			continue
		}

		inst, ok := freshIDs[p.InstanceID]
		if !ok {
			continue
		}
		p.Amount = inst.Amount
		p.RemainingAmount = inst.Amount - p.PaidAmount
		if p.RemainingAmount <= 0 {
			p.RemainingAmount = 0
			p.Status = StatusPaid
		}
		p.UpdatedAt = now
		if _, err = svc.repo.UpdatePayment(ctx, p, exec); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a definition and cascades to its instances and ledger rows.
// It fails with a conflict when any row has money on it, unless force is
// set; paid rows are then cancelled rather than removed.
func (svc *Service) Delete(ctx context.Context, id string, force bool) error {
	if _, err := svc.GetByID(ctx, id); err != nil {
		return err
	}

	payments, err := svc.repo.QueryPayments(ctx, &PaymentFilter{DefinitionID: id}, nil)
	if err != nil {
		return err
	}
	var unpaidIDs []string
	var paidRows []Payment
	for _, p := range payments {
		if p.PaidAmount > 0 {
			paidRows = append(paidRows, p)
		} else {
			unpaidIDs = append(unpaidIDs, p.ID)
		}
	}
	if len(paidRows) > 0 && !force {
		return core.NewConflictError(ErrHasPaidRows)
	}

	now := svc.clock.Now()
	return core.Atomic(ctx, svc.db, func(exec core.DBExecutor) error {
		if len(unpaidIDs) > 0 {
			if _, err := svc.repo.DeletePaymentsByID(ctx, unpaidIDs, exec); err != nil {
				return err
			}
		}
		for _, p := range paidRows {
			p.Status = StatusCancelled
			p.UpdatedAt = now
			if _, err := svc.repo.UpdatePayment(ctx, p, exec); err != nil {
				return err
			}
		}
		if len(paidRows) > 0 {
			// instances stay (deactivated) while cancelled rows reference them
			instances, err := svc.repo.QueryInstancesByDefinitionID(ctx, id, false, exec)
			if err != nil {
				return err
			}
			instIDs := make([]string, 0, len(instances))
			for _, inst := range instances {
				instIDs = append(instIDs, inst.ID)
			}
			if _, err := svc.repo.DeactivateInstancesByID(ctx, instIDs, exec); err != nil {
				return err
			}
		} else {
			if _, err := svc.repo.DeleteInstancesByDefinitionID(ctx, id, exec); err != nil {
				return err
			}
		}
		_, err := svc.repo.DeleteDefinitionsByID(ctx, []string{id}, exec)
		return err
	})
}

// DuplicateToClass clones a definition's policy onto another class as a
// brand-new definition. Instances and payments are not copied.
func (svc *Service) DuplicateToClass(ctx context.Context, sourceID, targetClassID string) (Definition, error) {
	src, err := svc.GetByID(ctx, sourceID)
	if err != nil {
		return Definition{}, err
	}
	cls, err := svc.school.GetClass(ctx, targetClassID)
	if err != nil {
		return Definition{}, err
	}

	now := svc.clock.Now()
	def := src
	def.ID = ""
	def.ClassID = cls.ID
	def.ClassName = cls.Name
	def.CreatedAt = now
	def.UpdatedAt = now
	return svc.repo.CreateDefinition(ctx, def)
}

// GenerateInstances expands the definition and upserts the result by its
// deterministic IDs; repeated calls never duplicate instances.
func (svc *Service) GenerateInstances(ctx context.Context, definitionID string) ([]Instance, error) {
	def, err := svc.GetByID(ctx, definitionID)
	if err != nil {
		return nil, err
	}
	instances, err := Generate(def)
	if err != nil {
		return nil, err
	}
	if err = svc.repo.UpsertInstances(ctx, instances); err != nil {
		return nil, err
	}
	return instances, nil
}

// Instances returns the stored active instances of a definition.
func (svc *Service) Instances(ctx context.Context, definitionID string) ([]Instance, error) {
	if _, err := svc.GetByID(ctx, definitionID); err != nil {
		return nil, err
	}
	return svc.repo.QueryInstancesByDefinitionID(ctx, definitionID, true)
}

// validateDefinition re-validates a merged definition through the
// NewDefinition rules.
func (svc *Service) validateDefinition(def Definition) error {
	nd := NewDefinition{
		ClassID:        def.ClassID,
		FeeType:        def.FeeType,
		Category:       def.Category,
		Amount:         def.Amount,
		AcademicYear:   def.AcademicYear,
		Description:    def.Description,
		IsRecurring:    def.IsRecurring,
		RecurringType:  def.RecurringType,
		DueDayOfMonth:  def.DueDayOfMonth,
		ExcludedMonths: def.ExcludedMonths,
		StartDate:      def.StartDate,
		EndDate:        def.EndDate,
		DueDate:        def.DueDate,
	}
	return nd.Validate()
}
