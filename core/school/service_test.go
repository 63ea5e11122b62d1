package school_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/school"
	"github.com/trezcool/ecolage/storage/database/dummy"
	testutil "github.com/trezcool/ecolage/tests"
)

func newService(t *testing.T) (*school.Service, school.Repository) {
	t.Helper()
	repo := dummydb.NewSchoolRepository(testutil.PrepareDB(t))
	return school.NewService(repo, testutil.NewFixedClock(2024, 9, 1)), repo
}

func TestCreateClass(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	cls, err := svc.CreateClass(ctx, school.NewClass{Name: "  7ème A  ", Level: "7ème"})
	if err != nil {
		t.Fatalf("CreateClass() error = %v", err)
	}
	assert.NotEmpty(t, cls.ID)
	assert.Equal(t, "7ème A", cls.Name)

	// name must be unique
	_, err = svc.CreateClass(ctx, school.NewClass{Name: "7ème A"})
	var vErr *core.ValidationError
	if errors.As(err, &vErr) {
		assert.Equal(t, "name", vErr.Fields[0].Field)
	} else {
		t.Errorf("CreateClass() error = %v, want ValidationError", err)
	}

	// name is required
	if _, err = svc.CreateClass(ctx, school.NewClass{Level: "8ème"}); err == nil {
		t.Error("CreateClass() expected a validation error")
	}
}

func TestEnrollStudent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	cls, err := svc.CreateClass(ctx, school.NewClass{Name: "7ème A"})
	if err != nil {
		t.Fatalf("CreateClass() error = %v", err)
	}

	std, err := svc.EnrollStudent(ctx, school.NewStudent{
		Name:    "Gracia Kalonji",
		Email:   "Gracia@Test.CD",
		ClassID: cls.ID,
	})
	if err != nil {
		t.Fatalf("EnrollStudent() error = %v", err)
	}
	assert.NotEmpty(t, std.ID)
	assert.Equal(t, "gracia@test.cd", std.Email)
	assert.True(t, std.IsEnrolled)

	got, err := svc.GetStudent(ctx, std.ID)
	if err != nil {
		t.Fatalf("GetStudent() error = %v", err)
	}
	assert.Equal(t, std, got)
}

func TestEnrollStudentValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	cls, err := svc.CreateClass(ctx, school.NewClass{Name: "7ème A"})
	if err != nil {
		t.Fatalf("CreateClass() error = %v", err)
	}

	tests := []struct {
		name string
		ns   school.NewStudent
	}{
		{name: "missing name", ns: school.NewStudent{ClassID: cls.ID}},
		{name: "missing class", ns: school.NewStudent{Name: "Jonathan Mbuyi"}},
		{name: "bad email", ns: school.NewStudent{Name: "Jonathan Mbuyi", Email: "nope", ClassID: cls.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.EnrollStudent(ctx, tt.ns); err == nil {
				t.Error("EnrollStudent() expected a validation error")
			}
		})
	}
}

func TestEnrollStudentUnknownClass(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.EnrollStudent(ctx, school.NewStudent{
		Name:    "Jonathan Mbuyi",
		ClassID: "83a63a82-1bf8-4786-9125-1e91c7e452d2",
	})
	if !core.IsNotFound(err) {
		t.Errorf("EnrollStudent() error = %v, want NotFoundError", err)
	}
}

func TestEnrolledStudents(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	cls, err := svc.CreateClass(ctx, school.NewClass{Name: "7ème A"})
	if err != nil {
		t.Fatalf("CreateClass() error = %v", err)
	}
	if _, err = svc.EnrollStudent(ctx, school.NewStudent{Name: "Gracia Kalonji", ClassID: cls.ID}); err != nil {
		t.Fatalf("EnrollStudent() error = %v", err)
	}
	// a withdrawn student does not show up
	if _, err = repo.CreateStudent(ctx, school.Student{Name: "Ancien Élève", ClassID: cls.ID, IsEnrolled: false}); err != nil {
		t.Fatalf("CreateStudent() error = %v", err)
	}

	students, err := svc.EnrolledStudents(ctx, cls.ID)
	if err != nil {
		t.Fatalf("EnrolledStudents() error = %v", err)
	}
	if assert.Len(t, students, 1) {
		assert.Equal(t, "Gracia Kalonji", students[0].Name)
	}
}
