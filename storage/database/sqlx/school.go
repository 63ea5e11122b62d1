package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/school"
)

type schoolRepository struct {
	exec core.DBExecutor
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(exec core.DBExecutor) school.Repository {
	return &schoolRepository{exec: exec}
}

func (repo schoolRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

type classRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Level     string    `db:"level"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r classRow) toClass() school.Class {
	return school.Class{
		ID:        r.ID,
		Name:      r.Name,
		Level:     r.Level,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type studentRow struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	Email      string    `db:"email"`
	ClassID    string    `db:"class_id"`
	IsEnrolled bool      `db:"is_enrolled"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r studentRow) toStudent() school.Student {
	return school.Student{
		ID:         r.ID,
		Name:       r.Name,
		Email:      r.Email,
		ClassID:    r.ClassID,
		IsEnrolled: r.IsEnrolled,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (repo schoolRepository) CheckClassNameUniqueness(ctx context.Context, name string, excludedClasses []school.Class, exec ...core.DBExecutor) error {
	query := `SELECT EXISTS (SELECT 1 FROM class WHERE LOWER(name) = LOWER(?))`
	args := []interface{}{name}
	if len(excludedClasses) > 0 {
		ids := make([]string, 0, len(excludedClasses))
		for _, cls := range excludedClasses {
			ids = append(ids, cls.ID)
		}
		query = `SELECT EXISTS (SELECT 1 FROM class WHERE LOWER(name) = LOWER(?) AND id NOT IN (?))`
		args = append(args, ids)
	}
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return errors.Wrap(err, "building class uniqueness query")
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	var exists bool
	if err := repo.getExec(exec).QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return errors.Wrap(err, "checking class uniqueness")
	}
	if exists {
		return school.ErrClassNameExists
	}
	return nil
}

func (repo schoolRepository) CreateClass(ctx context.Context, cls school.Class, exec ...core.DBExecutor) (school.Class, error) {
	cls.ID = newUUIDString()
	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO class (id, name, level, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		cls.ID, cls.Name, cls.Level, cls.CreatedAt, cls.UpdatedAt,
	)
	if err != nil {
		return school.Class{}, errors.Wrap(err, "inserting class")
	}
	return cls, nil
}

func (repo schoolRepository) GetClassByID(ctx context.Context, id string, exec ...core.DBExecutor) (school.Class, error) {
	if !isUUID(id) {
		return school.Class{}, school.ErrClassNotFound
	}
	rows, err := repo.getExec(exec).QueryContext(ctx, `SELECT * FROM class WHERE id = $1`, id)
	if err != nil {
		return school.Class{}, errors.Wrap(err, "finding class by ID")
	}
	defer func() { _ = rows.Close() }()

	var recs []classRow
	if err = sqlx.StructScan(rows, &recs); err != nil {
		return school.Class{}, errors.Wrap(err, "scanning class")
	}
	if len(recs) == 0 {
		return school.Class{}, school.ErrClassNotFound
	}
	return recs[0].toClass(), nil
}

func (repo schoolRepository) QueryAllClasses(ctx context.Context, exec ...core.DBExecutor) ([]school.Class, error) {
	rows, err := repo.getExec(exec).QueryContext(ctx, `SELECT * FROM class ORDER BY name ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	defer func() { _ = rows.Close() }()

	var recs []classRow
	if err = sqlx.StructScan(rows, &recs); err != nil {
		return nil, errors.Wrap(err, "scanning classes")
	}
	classes := make([]school.Class, 0, len(recs))
	for _, r := range recs {
		classes = append(classes, r.toClass())
	}
	return classes, nil
}

func (repo schoolRepository) CreateStudent(ctx context.Context, std school.Student, exec ...core.DBExecutor) (school.Student, error) {
	std.ID = newUUIDString()
	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO student (id, name, email, class_id, is_enrolled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		std.ID, std.Name, std.Email, std.ClassID, std.IsEnrolled, std.CreatedAt, std.UpdatedAt,
	)
	if err != nil {
		return school.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo schoolRepository) GetStudentByID(ctx context.Context, id string, exec ...core.DBExecutor) (school.Student, error) {
	if !isUUID(id) {
		return school.Student{}, school.ErrStudentNotFound
	}
	rows, err := repo.getExec(exec).QueryContext(ctx, `SELECT * FROM student WHERE id = $1`, id)
	if err != nil {
		return school.Student{}, errors.Wrap(err, "finding student by ID")
	}
	defer func() { _ = rows.Close() }()

	var recs []studentRow
	if err = sqlx.StructScan(rows, &recs); err != nil {
		return school.Student{}, errors.Wrap(err, "scanning student")
	}
	if len(recs) == 0 {
		return school.Student{}, school.ErrStudentNotFound
	}
	return recs[0].toStudent(), nil
}

func (repo schoolRepository) QueryStudentsByClassID(ctx context.Context, classID string, enrolledOnly bool, exec ...core.DBExecutor) ([]school.Student, error) {
	query := `SELECT * FROM student WHERE class_id = $1`
	if enrolledOnly {
		query += ` AND is_enrolled`
	}
	query += ` ORDER BY name ASC`

	rows, err := repo.getExec(exec).QueryContext(ctx, query, classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	defer func() { _ = rows.Close() }()

	var recs []studentRow
	if err = sqlx.StructScan(rows, &recs); err != nil {
		return nil, errors.Wrap(err, "scanning students")
	}
	students := make([]school.Student, 0, len(recs))
	for _, r := range recs {
		students = append(students, r.toStudent())
	}
	return students, nil
}
