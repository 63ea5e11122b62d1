package dummydb

import (
	"sync"

	"github.com/trezcool/ecolage/core/fee"
	"github.com/trezcool/ecolage/core/school"
)

// DB is an in-memory fake of the persistence layer; it backs tests and the
// mock-data development mode. It has no transaction support: cascades run
// against it directly.
type (
	DB struct {
		class      *classTable
		student    *studentTable
		definition *definitionTable
		instance   *instanceTable
		payment    *paymentTable
	}

	classTable struct {
		sync.RWMutex
		table map[string]*school.Class
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*school.Student
	}

	definitionTable struct {
		sync.RWMutex
		table map[string]*fee.Definition
	}

	instanceTable struct {
		sync.RWMutex
		table map[string]*fee.Instance
	}

	paymentTable struct {
		sync.RWMutex
		table map[string]*fee.Payment
	}
)

func Open() (*DB, error) {
	db := &DB{
		class:      &classTable{table: make(map[string]*school.Class)},
		student:    &studentTable{table: make(map[string]*school.Student)},
		definition: &definitionTable{table: make(map[string]*fee.Definition)},
		instance:   &instanceTable{table: make(map[string]*fee.Instance)},
		payment:    &paymentTable{table: make(map[string]*fee.Payment)},
	}
	return db, nil
}
