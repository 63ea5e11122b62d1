package school

import (
	"context"
	"errors"

	"github.com/trezcool/ecolage/core"
)

var (
	ErrClassNotFound   = errors.New("class not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrClassNameExists = errors.New("a class with this name already exists")
)

type (
	Repository interface {
		CheckClassNameUniqueness(ctx context.Context, name string, excludedClasses []Class, exec ...core.DBExecutor) error
		CreateClass(ctx context.Context, cls Class, exec ...core.DBExecutor) (Class, error)
		GetClassByID(ctx context.Context, id string, exec ...core.DBExecutor) (Class, error)
		QueryAllClasses(ctx context.Context, exec ...core.DBExecutor) ([]Class, error)

		CreateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		GetStudentByID(ctx context.Context, id string, exec ...core.DBExecutor) (Student, error)
		// QueryStudentsByClassID returns all students of a class; enrolledOnly
		// limits it to currently enrolled ones.
		QueryStudentsByClassID(ctx context.Context, classID string, enrolledOnly bool, exec ...core.DBExecutor) ([]Student, error)
	}

	Service struct {
		repo  Repository
		clock core.Clock
	}
)

func NewService(repo Repository, clock core.Clock) *Service {
	return &Service{repo: repo, clock: clock}
}

func (svc *Service) CreateClass(ctx context.Context, nc NewClass) (Class, error) {
	if err := nc.Validate(); err != nil {
		return Class{}, err
	}
	if err := svc.repo.CheckClassNameUniqueness(ctx, nc.Name, nil); err != nil {
		if err == ErrClassNameExists {
			return Class{}, core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return Class{}, err
	}

	now := svc.clock.Now()
	cls := Class{
		Name:      nc.Name,
		Level:     nc.Level,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateClass(ctx, cls)
}

func (svc *Service) GetClass(ctx context.Context, id string) (Class, error) {
	cls, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		if err == ErrClassNotFound {
			return Class{}, core.NewNotFoundError(err)
		}
		return Class{}, err
	}
	return cls, nil
}

func (svc *Service) QueryClasses(ctx context.Context) ([]Class, error) {
	return svc.repo.QueryAllClasses(ctx)
}

func (svc *Service) EnrollStudent(ctx context.Context, ns NewStudent) (Student, error) {
	if err := ns.Validate(); err != nil {
		return Student{}, err
	}
	if _, err := svc.GetClass(ctx, ns.ClassID); err != nil {
		return Student{}, err
	}

	now := svc.clock.Now()
	std := Student{
		Name:       ns.Name,
		Email:      ns.Email,
		ClassID:    ns.ClassID,
		IsEnrolled: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateStudent(ctx, std)
}

func (svc *Service) GetStudent(ctx context.Context, id string) (Student, error) {
	std, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		if err == ErrStudentNotFound {
			return Student{}, core.NewNotFoundError(err)
		}
		return Student{}, err
	}
	return std, nil
}

// EnrolledStudents returns the currently enrolled students of a class.
func (svc *Service) EnrolledStudents(ctx context.Context, classID string) ([]Student, error) {
	if _, err := svc.GetClass(ctx, classID); err != nil {
		return nil, err
	}
	return svc.repo.QueryStudentsByClassID(ctx, classID, true)
}
