package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/fee"
	"github.com/trezcool/ecolage/core/school"
	dummydb "github.com/trezcool/ecolage/storage/database/dummy"
)

// PrepareDB returns a fresh in-memory database.
func PrepareDB(t *testing.T) *dummydb.DB {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateClass(t *testing.T, repo school.Repository, name, level string, createdAt ...time.Time) school.Class {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	cls, err := repo.CreateClass(context.Background(), school.Class{
		Name:      name,
		Level:     level,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return cls
}

func EnrollStudent(t *testing.T, repo school.Repository, name, email, classID string, createdAt ...time.Time) school.Student {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	std, err := repo.CreateStudent(context.Background(), school.Student{
		Name:       name,
		Email:      email,
		ClassID:    classID,
		IsEnrolled: true,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	})
	if err != nil {
		t.Fatalf("EnrollStudent() failed: %v", err)
	}
	return std
}

// CreateMonthlyDefinition stores a MONTHLY definition directly, bypassing
// service validation.
func CreateMonthlyDefinition(
	t *testing.T,
	repo fee.Repository,
	cls school.Class,
	feeType string,
	amount int,
	academicYear string,
	excludedMonths ...string,
) fee.Definition {
	tstamp := time.Now().UTC()
	def, err := repo.CreateDefinition(context.Background(), fee.Definition{
		ClassID:        cls.ID,
		ClassName:      cls.Name,
		FeeType:        feeType,
		Category:       fee.CategoryTuition,
		Amount:         amount,
		AcademicYear:   academicYear,
		IsRecurring:    true,
		RecurringType:  fee.RecurrenceMonthly,
		ExcludedMonths: excludedMonths,
		CreatedAt:      tstamp,
		UpdatedAt:      tstamp,
	})
	if err != nil {
		t.Fatalf("CreateMonthlyDefinition() failed: %v", err)
	}
	return def
}

// Date is a shorthand for a UTC midnight time.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NewFixedClock pins time at the given date.
func NewFixedClock(year int, month time.Month, day int) core.FixedClock {
	return core.FixedClock{T: Date(year, month, day)}
}
