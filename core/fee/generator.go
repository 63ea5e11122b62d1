package fee

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// idNamespace seeds the uuid-v5 derivation of instance and payment IDs.
// Changing it would re-key every generated record; never touch it.
var idNamespace = uuid.MustParse("8f3c1d6a-52f4-4b0e-9f27-6d1c29c70d11")

// InstanceID derives the deterministic ID of the instance of definitionID
// covering periodKey. Repeated generation yields the same IDs so instances
// can be diffed and upserted without duplicates.
func InstanceID(definitionID, periodKey string) string {
	return uuid.NewSHA1(idNamespace, []byte("instance:"+definitionID+"/"+periodKey)).String()
}

// PaymentID derives the deterministic ID of studentID's ledger row against
// instanceID; at most one row exists per pair.
func PaymentID(instanceID, studentID string) string {
	return uuid.NewSHA1(idNamespace, []byte("payment:"+instanceID+"/"+studentID)).String()
}

// Generate expands def into its dated instance series. It is a pure function
// of the definition's current fields: no hidden state, same input, same
// output, byte for byte.
func Generate(def Definition) ([]Instance, error) {
	if !def.IsRecurring {
		if def.DueDate == nil {
			return nil, errors.New("non-recurring definition has no due date")
		}
		return []Instance{newInstance(def, "ONCE", "Paiement unique", def.DueDate.UTC())}, nil
	}

	firstYear, secondYear, err := ParseAcademicYear(def.AcademicYear)
	if err != nil {
		return nil, errors.Wrap(err, "generating fee instances")
	}
	yearOf := func(second bool) int {
		if second {
			return secondYear
		}
		return firstYear
	}

	var instances []Instance
	switch def.RecurringType {
	case RecurrenceMonthly:
		for _, m := range AcademicMonths {
			if monthExcluded(m, def.ExcludedMonths) {
				continue
			}
			year := yearOf(m.SecondYear)
			due := dueDate(year, m.Month, def.DueDay())
			key := fmt.Sprintf("%d-%02d", year, m.Month)
			label := fmt.Sprintf("%s %d", m.Name, year)
			instances = append(instances, newInstance(def, key, label, due))
		}

	case RecurrenceQuarterly:
		for _, p := range trimesters {
			due := dueDate(yearOf(p.SecondYear), p.Month, def.DueDay())
			instances = append(instances, newInstance(def, p.Key, p.Label, due))
		}

	case RecurrenceSemester:
		for _, p := range semesters {
			due := dueDate(yearOf(p.SecondYear), p.Month, def.DueDay())
			instances = append(instances, newInstance(def, p.Key, p.Label, due))
		}

	case RecurrenceAnnual:
		due := dueDate(secondYear, time.January, def.DueDay())
		if def.DueDate != nil {
			due = def.DueDate.UTC()
		}
		instances = append(instances, newInstance(def, "ANNUAL", "Année "+def.AcademicYear, due))

	default:
		return nil, errors.Errorf("unknown recurrence type %q", def.RecurringType)
	}

	return filterWindow(instances, def.StartDate, def.EndDate), nil
}

func newInstance(def Definition, periodKey, periodLabel string, due time.Time) Instance {
	return Instance{
		ID:           InstanceID(def.ID, periodKey),
		DefinitionID: def.ID,
		ClassID:      def.ClassID,
		ClassName:    def.ClassName,
		FeeType:      def.FeeType,
		Category:     def.Category,
		Amount:       def.Amount,
		DueDate:      due,
		PeriodKey:    periodKey,
		Period:       periodLabel,
		AcademicYear: def.AcademicYear,
		IsActive:     true,
	}
}

// filterWindow drops instances falling due outside the [start, end] window.
func filterWindow(instances []Instance, start, end *time.Time) []Instance {
	if start == nil && end == nil {
		return instances
	}
	kept := make([]Instance, 0, len(instances))
	for _, inst := range instances {
		if start != nil && inst.DueDate.Before(*start) {
			continue
		}
		if end != nil && inst.DueDate.After(*end) {
			continue
		}
		kept = append(kept, inst)
	}
	return kept
}
