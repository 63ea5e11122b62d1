package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/school"
)

type schoolRepository struct {
	classes  *classTable
	students *studentTable
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{classes: db.class, students: db.student}
}

func (repo *schoolRepository) CheckClassNameUniqueness(_ context.Context, name string, excludedClasses []school.Class, _ ...core.DBExecutor) error {
	repo.classes.RLock()
	defer repo.classes.RUnlock()

	excluded := make(map[string]bool, len(excludedClasses))
	for _, cls := range excludedClasses {
		excluded[cls.ID] = true
	}
	for _, cls := range repo.classes.table {
		if strings.EqualFold(cls.Name, name) && !excluded[cls.ID] {
			return school.ErrClassNameExists
		}
	}
	return nil
}

func (repo *schoolRepository) CreateClass(_ context.Context, cls school.Class, _ ...core.DBExecutor) (school.Class, error) {
	repo.classes.Lock()
	defer repo.classes.Unlock()

	if cls.ID == "" {
		cls.ID = uuid.New().String()
	}
	repo.classes.table[cls.ID] = &cls
	return cls, nil
}

func (repo *schoolRepository) GetClassByID(_ context.Context, id string, _ ...core.DBExecutor) (school.Class, error) {
	repo.classes.RLock()
	defer repo.classes.RUnlock()

	if cls, ok := repo.classes.table[id]; ok {
		return *cls, nil
	}
	return school.Class{}, school.ErrClassNotFound
}

func (repo *schoolRepository) QueryAllClasses(_ context.Context, _ ...core.DBExecutor) ([]school.Class, error) {
	repo.classes.RLock()
	defer repo.classes.RUnlock()

	classes := make([]school.Class, 0, len(repo.classes.table))
	for _, cls := range repo.classes.table {
		classes = append(classes, *cls)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

func (repo *schoolRepository) CreateStudent(_ context.Context, std school.Student, _ ...core.DBExecutor) (school.Student, error) {
	repo.students.Lock()
	defer repo.students.Unlock()

	if std.ID == "" {
		std.ID = uuid.New().String()
	}
	repo.students.table[std.ID] = &std
	return std, nil
}

func (repo *schoolRepository) GetStudentByID(_ context.Context, id string, _ ...core.DBExecutor) (school.Student, error) {
	repo.students.RLock()
	defer repo.students.RUnlock()

	if std, ok := repo.students.table[id]; ok {
		return *std, nil
	}
	return school.Student{}, school.ErrStudentNotFound
}

func (repo *schoolRepository) QueryStudentsByClassID(_ context.Context, classID string, enrolledOnly bool, _ ...core.DBExecutor) ([]school.Student, error) {
	repo.students.RLock()
	defer repo.students.RUnlock()

	var students []school.Student
	for _, std := range repo.students.table {
		if std.ClassID != classID {
			continue
		}
		if enrolledOnly && !std.IsEnrolled {
			continue
		}
		students = append(students, *std)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students, nil
}
