package fee

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// The academic year runs September through June. Month and period names are
// French, matching the product locale (fr-CD).

type AcademicMonth struct {
	Name       string
	Month      time.Month
	SecondYear bool // falls in the second calendar year of the academic year
}

// AcademicMonths lists the 10 billable months of an academic year, in order.
var AcademicMonths = []AcademicMonth{
	{Name: "Septembre", Month: time.September},
	{Name: "Octobre", Month: time.October},
	{Name: "Novembre", Month: time.November},
	{Name: "Décembre", Month: time.December},
	{Name: "Janvier", Month: time.January, SecondYear: true},
	{Name: "Février", Month: time.February, SecondYear: true},
	{Name: "Mars", Month: time.March, SecondYear: true},
	{Name: "Avril", Month: time.April, SecondYear: true},
	{Name: "Mai", Month: time.May, SecondYear: true},
	{Name: "Juin", Month: time.June, SecondYear: true},
}

type fixedPeriod struct {
	Key        string
	Label      string
	Month      time.Month
	SecondYear bool
}

var (
	trimesters = []fixedPeriod{
		{Key: "T1", Label: "1er Trimestre", Month: time.October},
		{Key: "T2", Label: "2ème Trimestre", Month: time.January, SecondYear: true},
		{Key: "T3", Label: "3ème Trimestre", Month: time.April, SecondYear: true},
	}
	semesters = []fixedPeriod{
		{Key: "S1", Label: "1er Semestre", Month: time.December},
		{Key: "S2", Label: "2ème Semestre", Month: time.May, SecondYear: true},
	}
)

// FrenchMonths lists all 12 French month names. Excluded months are matched
// against this list; Juillet and Août are valid exclusions that simply never
// match an academic month.
var FrenchMonths = []string{
	"Janvier", "Février", "Mars", "Avril", "Mai", "Juin",
	"Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre",
}

// IsFrenchMonth reports whether name is a known French month name
// (case-insensitive).
func IsFrenchMonth(name string) bool {
	name = strings.TrimSpace(name)
	for _, m := range FrenchMonths {
		if strings.EqualFold(m, name) {
			return true
		}
	}
	return false
}

func monthExcluded(m AcademicMonth, excluded []string) bool {
	for _, name := range excluded {
		if strings.EqualFold(strings.TrimSpace(name), m.Name) {
			return true
		}
	}
	return false
}

// ParseAcademicYear parses a "YYYY-YYYY" label into its two calendar years.
func ParseAcademicYear(year string) (first, second int, err error) {
	parts := strings.Split(year, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 4 {
		return 0, 0, fmt.Errorf("invalid academic year %q", year)
	}
	if first, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, fmt.Errorf("invalid academic year %q", year)
	}
	if second, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, fmt.Errorf("invalid academic year %q", year)
	}
	if second != first+1 {
		return 0, 0, fmt.Errorf("academic year %q must span two consecutive years", year)
	}
	return first, second, nil
}

// dueDate builds the due date for month in year, clamping day to the month's
// last day (eg. day 31 in February).
func dueDate(year int, month time.Month, day int) time.Time {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
