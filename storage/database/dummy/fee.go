package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/fee"
)

type feeRepository struct {
	definitions *definitionTable
	instances   *instanceTable
	payments    *paymentTable
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db *DB) fee.Repository {
	return &feeRepository{definitions: db.definition, instances: db.instance, payments: db.payment}
}

// Definitions

func (repo *feeRepository) CreateDefinition(_ context.Context, def fee.Definition, _ ...core.DBExecutor) (fee.Definition, error) {
	repo.definitions.Lock()
	defer repo.definitions.Unlock()

	if def.ID == "" {
		def.ID = uuid.New().String()
	}
	repo.definitions.table[def.ID] = &def
	return def, nil
}

func (repo *feeRepository) GetDefinitionByID(_ context.Context, id string, _ ...core.DBExecutor) (fee.Definition, error) {
	repo.definitions.RLock()
	defer repo.definitions.RUnlock()

	if def, ok := repo.definitions.table[id]; ok {
		return *def, nil
	}
	return fee.Definition{}, fee.ErrDefinitionNotFound
}

func (repo *feeRepository) QueryDefinitions(_ context.Context, filter *fee.DefinitionFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]fee.Definition, error) {
	repo.definitions.RLock()
	defer repo.definitions.RUnlock()

	var defs []fee.Definition
	for _, def := range repo.definitions.table {
		if filter != nil {
			if filter.ClassID != "" && def.ClassID != filter.ClassID {
				continue
			}
			if filter.AcademicYear != "" && def.AcademicYear != filter.AcademicYear {
				continue
			}
			if filter.Category != "" && def.Category != filter.Category {
				continue
			}
		}
		defs = append(defs, *def)
	}
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].ClassName != defs[j].ClassName {
			return defs[i].ClassName < defs[j].ClassName
		}
		return defs[i].FeeType < defs[j].FeeType
	})
	return defs, nil
}

func (repo *feeRepository) UpdateDefinition(_ context.Context, def fee.Definition, _ ...core.DBExecutor) (fee.Definition, error) {
	repo.definitions.Lock()
	defer repo.definitions.Unlock()

	if _, ok := repo.definitions.table[def.ID]; !ok {
		return fee.Definition{}, fee.ErrDefinitionNotFound
	}
	repo.definitions.table[def.ID] = &def
	return def, nil
}

func (repo *feeRepository) DeleteDefinitionsByID(_ context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.definitions.Lock()
	defer repo.definitions.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.definitions.table[id]; ok {
			delete(repo.definitions.table, id)
			cnt++
		}
	}
	return cnt, nil
}

// Instances

func (repo *feeRepository) UpsertInstances(_ context.Context, instances []fee.Instance, _ ...core.DBExecutor) error {
	repo.instances.Lock()
	defer repo.instances.Unlock()

	for _, inst := range instances {
		inst := inst
		repo.instances.table[inst.ID] = &inst
	}
	return nil
}

func (repo *feeRepository) GetInstanceByID(_ context.Context, id string, _ ...core.DBExecutor) (fee.Instance, error) {
	repo.instances.RLock()
	defer repo.instances.RUnlock()

	if inst, ok := repo.instances.table[id]; ok {
		return *inst, nil
	}
	return fee.Instance{}, fee.ErrInstanceNotFound
}

func (repo *feeRepository) QueryInstancesByDefinitionID(_ context.Context, definitionID string, activeOnly bool, _ ...core.DBExecutor) ([]fee.Instance, error) {
	repo.instances.RLock()
	defer repo.instances.RUnlock()

	var instances []fee.Instance
	for _, inst := range repo.instances.table {
		if inst.DefinitionID != definitionID {
			continue
		}
		if activeOnly && !inst.IsActive {
			continue
		}
		instances = append(instances, *inst)
	}
	sort.Slice(instances, func(i, j int) bool { return instances[i].DueDate.Before(instances[j].DueDate) })
	return instances, nil
}

func (repo *feeRepository) DeactivateInstancesByID(_ context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.instances.Lock()
	defer repo.instances.Unlock()

	var cnt int
	for _, id := range ids {
		if inst, ok := repo.instances.table[id]; ok && inst.IsActive {
			inst.IsActive = false
			cnt++
		}
	}
	return cnt, nil
}

func (repo *feeRepository) DeleteInstancesByDefinitionID(_ context.Context, definitionID string, _ ...core.DBExecutor) (int, error) {
	repo.instances.Lock()
	defer repo.instances.Unlock()

	var cnt int
	for id, inst := range repo.instances.table {
		if inst.DefinitionID == definitionID {
			delete(repo.instances.table, id)
			cnt++
		}
	}
	return cnt, nil
}

// Payments

func (repo *feeRepository) CheckReceiptNoUniqueness(_ context.Context, receiptNo string, _ ...core.DBExecutor) error {
	repo.payments.RLock()
	defer repo.payments.RUnlock()

	for _, p := range repo.payments.table {
		if p.ReceiptNo != "" && p.ReceiptNo == receiptNo {
			return fee.ErrReceiptNoExists
		}
	}
	return nil
}

func (repo *feeRepository) CreatePayments(_ context.Context, payments []fee.Payment, _ ...core.DBExecutor) ([]fee.Payment, error) {
	repo.payments.Lock()
	defer repo.payments.Unlock()

	created := make([]fee.Payment, 0, len(payments))
	for _, p := range payments {
		p := p
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		repo.payments.table[p.ID] = &p
		created = append(created, p)
	}
	return created, nil
}

func (repo *feeRepository) GetPaymentByID(_ context.Context, id string, _ ...core.DBExecutor) (fee.Payment, error) {
	repo.payments.RLock()
	defer repo.payments.RUnlock()

	if p, ok := repo.payments.table[id]; ok {
		return *p, nil
	}
	return fee.Payment{}, fee.ErrPaymentNotFound
}

func (repo *feeRepository) QueryPayments(_ context.Context, filter *fee.PaymentFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]fee.Payment, error) {
	repo.payments.RLock()
	defer repo.payments.RUnlock()

	var payments []fee.Payment
	for _, p := range repo.payments.table {
		if filter != nil {
			if filter.StudentID != "" && p.StudentID != filter.StudentID {
				continue
			}
			if filter.ClassID != "" && p.ClassID != filter.ClassID {
				continue
			}
			if filter.DefinitionID != "" && p.DefinitionID != filter.DefinitionID {
				continue
			}
			if filter.InstanceID != "" && p.InstanceID != filter.InstanceID {
				continue
			}
			if filter.Status != "" && p.Status != filter.Status {
				continue
			}
		}
		payments = append(payments, *p)
	}
	sort.Slice(payments, func(i, j int) bool {
		if !payments[i].DueDate.Equal(payments[j].DueDate) {
			return payments[i].DueDate.Before(payments[j].DueDate)
		}
		return payments[i].ID < payments[j].ID
	})
	return payments, nil
}

func (repo *feeRepository) UpdatePayment(_ context.Context, pay fee.Payment, _ ...core.DBExecutor) (fee.Payment, error) {
	repo.payments.Lock()
	defer repo.payments.Unlock()

	if _, ok := repo.payments.table[pay.ID]; !ok {
		return fee.Payment{}, fee.ErrPaymentNotFound
	}
	repo.payments.table[pay.ID] = &pay
	return pay, nil
}

func (repo *feeRepository) DeletePaymentsByID(_ context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.payments.Lock()
	defer repo.payments.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.payments.table[id]; ok {
			delete(repo.payments.table, id)
			cnt++
		}
	}
	return cnt, nil
}
