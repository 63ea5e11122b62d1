package fee

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func monthlyDefinition() Definition {
	return Definition{
		ID:            "def-1",
		ClassID:       "cls-1",
		ClassName:     "7ème A",
		FeeType:       "Minerval",
		Category:      CategoryTuition,
		Amount:        50000,
		AcademicYear:  "2024-2025",
		IsRecurring:   true,
		RecurringType: RecurrenceMonthly,
	}
}

func TestGenerateMonthly(t *testing.T) {
	instances, err := Generate(monthlyDefinition())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(instances) != 10 {
		t.Fatalf("Generate() returned %d instances, want 10", len(instances))
	}

	wantDues := []time.Time{
		time.Date(2024, time.September, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.October, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.November, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.May, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC),
	}
	for i, inst := range instances {
		if !inst.DueDate.Equal(wantDues[i]) {
			t.Errorf("instance[%d].DueDate = %v, want %v", i, inst.DueDate, wantDues[i])
		}
		assert.Equal(t, 50000, inst.Amount)
		assert.True(t, inst.IsActive)
		assert.Equal(t, "def-1", inst.DefinitionID)
	}
	assert.Equal(t, "2024-09", instances[0].PeriodKey)
	assert.Equal(t, "Septembre 2024", instances[0].Period)
	assert.Equal(t, "2025-06", instances[9].PeriodKey)
	assert.Equal(t, "Juin 2025", instances[9].Period)
}

func TestGenerateIsIdempotent(t *testing.T) {
	def := monthlyDefinition()

	first, err := Generate(def)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	second, err := Generate(def)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	assert.Equal(t, first, second)
}

func TestGenerateMonthlyExclusions(t *testing.T) {
	tests := []struct {
		name     string
		excluded []string
		wantLen  int
	}{
		{name: "no exclusions", wantLen: 10},
		{name: "one month", excluded: []string{"Décembre"}, wantLen: 9},
		{name: "case-insensitive", excluded: []string{"décembre", "JANVIER"}, wantLen: 8},
		{name: "out-of-year months are no-ops", excluded: []string{"Juillet", "Août"}, wantLen: 10},
		{name: "all academic months", excluded: []string{
			"Septembre", "Octobre", "Novembre", "Décembre", "Janvier",
			"Février", "Mars", "Avril", "Mai", "Juin",
		}, wantLen: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := monthlyDefinition()
			def.ExcludedMonths = tt.excluded

			instances, err := Generate(def)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if len(instances) != tt.wantLen {
				t.Errorf("Generate() returned %d instances, want %d", len(instances), tt.wantLen)
			}
			for _, inst := range instances {
				for _, name := range tt.excluded {
					if inst.Period == name+" 2024" || inst.Period == name+" 2025" {
						t.Errorf("excluded month %q still generated: %v", name, inst.Period)
					}
				}
			}
		})
	}
}

func TestGenerateQuarterly(t *testing.T) {
	def := monthlyDefinition()
	def.RecurringType = RecurrenceQuarterly

	instances, err := Generate(def)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(instances) != 3 {
		t.Fatalf("Generate() returned %d instances, want 3", len(instances))
	}
	assert.Equal(t, "T1", instances[0].PeriodKey)
	assert.Equal(t, "1er Trimestre", instances[0].Period)
	assert.True(t, instances[0].DueDate.Equal(time.Date(2024, time.October, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, instances[1].DueDate.Equal(time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, instances[2].DueDate.Equal(time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC)))
}

func TestGenerateSemester(t *testing.T) {
	def := monthlyDefinition()
	def.RecurringType = RecurrenceSemester

	instances, err := Generate(def)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(instances) != 2 {
		t.Fatalf("Generate() returned %d instances, want 2", len(instances))
	}
	assert.Equal(t, "S1", instances[0].PeriodKey)
	assert.Equal(t, "S2", instances[1].PeriodKey)
	assert.True(t, instances[0].DueDate.Equal(time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, instances[1].DueDate.Equal(time.Date(2025, time.May, 15, 0, 0, 0, 0, time.UTC)))
}

func TestGenerateAnnual(t *testing.T) {
	def := monthlyDefinition()
	def.RecurringType = RecurrenceAnnual

	instances, err := Generate(def)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(instances) != 1 {
		t.Fatalf("Generate() returned %d instances, want 1", len(instances))
	}
	assert.Equal(t, "ANNUAL", instances[0].PeriodKey)
	assert.Equal(t, "Année 2024-2025", instances[0].Period)
	assert.True(t, instances[0].DueDate.Equal(time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)))

	// an explicit due date takes over
	due := time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC)
	def.DueDate = &due
	instances, err = Generate(def)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	assert.True(t, instances[0].DueDate.Equal(due))
}

func TestGenerateNonRecurring(t *testing.T) {
	due := time.Date(2024, time.September, 20, 0, 0, 0, 0, time.UTC)
	def := monthlyDefinition()
	def.IsRecurring = false
	def.RecurringType = ""
	def.DueDate = &due

	instances, err := Generate(def)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(instances) != 1 {
		t.Fatalf("Generate() returned %d instances, want 1", len(instances))
	}
	assert.Equal(t, "ONCE", instances[0].PeriodKey)
	assert.Equal(t, "Paiement unique", instances[0].Period)
	assert.True(t, instances[0].DueDate.Equal(due))

	def.DueDate = nil
	if _, err = Generate(def); err == nil {
		t.Error("Generate() expected an error for a non-recurring definition without a due date")
	}
}

func TestGenerateCustomDueDay(t *testing.T) {
	def := monthlyDefinition()
	def.DueDayOfMonth = 31

	instances, err := Generate(def)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	byKey := make(map[string]Instance, len(instances))
	for _, inst := range instances {
		byKey[inst.PeriodKey] = inst
	}
	// clamped to the month's last day
	assert.True(t, byKey["2025-02"].DueDate.Equal(time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)))
	assert.True(t, byKey["2024-10"].DueDate.Equal(time.Date(2024, time.October, 31, 0, 0, 0, 0, time.UTC)))
	assert.True(t, byKey["2024-11"].DueDate.Equal(time.Date(2024, time.November, 30, 0, 0, 0, 0, time.UTC)))
}

func TestGenerateWindow(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC)
	def := monthlyDefinition()
	def.StartDate = &start
	def.EndDate = &end

	instances, err := Generate(def)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	// Janvier through Avril
	if len(instances) != 4 {
		t.Fatalf("Generate() returned %d instances, want 4", len(instances))
	}
	for _, inst := range instances {
		if inst.DueDate.Before(start) || inst.DueDate.After(end) {
			t.Errorf("instance %s due %v falls outside the window", inst.PeriodKey, inst.DueDate)
		}
	}
}

func TestInstanceIDIsStable(t *testing.T) {
	id1 := InstanceID("def-1", "2024-09")
	id2 := InstanceID("def-1", "2024-09")
	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, InstanceID("def-1", "2024-10"))
	assert.NotEqual(t, id1, InstanceID("def-2", "2024-09"))

	p1 := PaymentID("inst-1", "std-1")
	assert.Equal(t, p1, PaymentID("inst-1", "std-1"))
	assert.NotEqual(t, p1, PaymentID("inst-1", "std-2"))
}
