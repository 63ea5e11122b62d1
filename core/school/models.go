package school

import (
	"time"

	"github.com/trezcool/ecolage/core"
)

// Class is one teaching group (eg. "6ème A"). Fee policies reference
// classes by ID; the display name is resolved here.
type Class struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Level     string    `json:"level,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Student is one enrolled learner. Email is the guardian's contact address;
// receipts and reminders go there when present.
type Student struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	ClassID    string    `json:"class_id"`
	IsEnrolled bool      `json:"is_enrolled"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

// NewClass contains information needed to register a new Class.
type NewClass struct {
	Name  string `json:"name" validate:"required"`
	Level string `json:"level"`
}

func (nc *NewClass) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.Level = core.CleanString(nc.Level)
	return core.Validate.Struct(nc)
}

// NewStudent contains information needed to enroll a new Student.
type NewStudent struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	ClassID string `json:"class_id" validate:"required"`
}

func (ns *NewStudent) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.ClassID = core.CleanString(ns.ClassID)
	return core.Validate.Struct(ns)
}
