package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/ecolage/core/fee"
	"github.com/trezcool/ecolage/core/school"
)

// seed loads a small demo roster and its fee definitions, generates the
// instances and materializes the ledger. Safe to re-run: class names are
// unique and generation is idempotent, so an existing roster aborts early.
func (cli *commandLine) seed(ctx context.Context, year string) error {
	if year == "" {
		year = currentAcademicYear(time.Now())
	}
	firstYear, _, err := fee.ParseAcademicYear(year)
	if err != nil {
		return err
	}

	roster := map[school.NewClass][]string{
		{Name: "7ème A", Level: "7ème"}: {"Gracia Kalonji", "Merveille Ilunga", "Jonathan Mbuyi"},
		{Name: "7ème B", Level: "7ème"}: {"Plamedi Tshibangu", "Exaucée Kabongo"},
		{Name: "8ème A", Level: "8ème"}: {"Dieumerci Ngalula", "Christvie Mutombo", "Josué Kasongo"},
	}

	uniformDue := time.Date(firstYear, time.September, 15, 0, 0, 0, 0, time.UTC)

	for nc, students := range roster {
		class, err := cli.schoolSvc.CreateClass(ctx, nc)
		if err != nil {
			return err
		}
		for _, name := range students {
			if _, err := cli.schoolSvc.EnrollStudent(ctx, school.NewStudent{Name: name, ClassID: class.ID}); err != nil {
				return err
			}
		}

		defs := []fee.NewDefinition{
			{
				ClassID:      class.ID,
				FeeType:      "Minerval",
				Category:     fee.CategoryTuition,
				Amount:       50000,
				AcademicYear: year,
				IsRecurring:  true, RecurringType: fee.RecurrenceMonthly,
			},
			{
				ClassID:      class.ID,
				FeeType:      "Transport",
				Category:     fee.CategoryTransport,
				Amount:       20000,
				AcademicYear: year,
				IsRecurring:  true, RecurringType: fee.RecurrenceMonthly,
				ExcludedMonths: []string{"Décembre"},
			},
			{
				ClassID:      class.ID,
				FeeType:      "Frais d'examen",
				Category:     fee.CategoryExam,
				Amount:       30000,
				AcademicYear: year,
				IsRecurring:  true, RecurringType: fee.RecurrenceSemester,
			},
			{
				ClassID:      class.ID,
				FeeType:      "Uniforme",
				Category:     fee.CategoryUniform,
				Amount:       45000,
				AcademicYear: year,
				DueDate:      &uniformDue,
			},
		}
		for _, nd := range defs {
			def, err := cli.feeSvc.Create(ctx, nd)
			if err != nil {
				return err
			}
			if _, err := cli.feeSvc.GenerateInstances(ctx, def.ID); err != nil {
				return err
			}
			if _, err := cli.ledger.Materialize(ctx, def.ID); err != nil {
				return err
			}
		}
		fmt.Printf("seeded %s: %d students, %d fee definitions\n", class.Name, len(students), len(defs))
	}
	return nil
}

// currentAcademicYear maps a date to its academic year; the year rolls over
// in September.
func currentAcademicYear(now time.Time) string {
	first := now.Year()
	if now.Month() < time.September {
		first--
	}
	return fmt.Sprintf("%d-%d", first, first+1)
}
