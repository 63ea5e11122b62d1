package sqlxrepos

import (
	"testing"

	"github.com/trezcool/ecolage/core"
)

func Test_orderBy(t *testing.T) {
	tests := []struct {
		name     string
		ordering []core.DBOrdering
		allowed  map[string]bool
		want     string
	}{
		{
			name:    "no ordering",
			allowed: paymentOrderCols,
			want:    "",
		},
		{
			name:     "single column",
			ordering: []core.DBOrdering{{Field: "due_date", Ascending: true}},
			allowed:  paymentOrderCols,
			want:     " ORDER BY due_date ASC",
		},
		{
			name: "multiple columns",
			ordering: []core.DBOrdering{
				{Field: "class_name", Ascending: true},
				{Field: "amount", Ascending: false},
			},
			allowed: definitionOrderCols,
			want:    " ORDER BY class_name ASC, amount DESC",
		},
		{
			name:     "unknown column dropped",
			ordering: []core.DBOrdering{{Field: "lol", Ascending: true}},
			allowed:  definitionOrderCols,
			want:     "",
		},
		{
			name: "sql fragment dropped",
			ordering: []core.DBOrdering{
				{Field: "due_date; DROP TABLE student_payment", Ascending: true},
				{Field: "due_date", Ascending: false},
			},
			allowed: paymentOrderCols,
			want:    " ORDER BY due_date DESC",
		},
		{
			name:     "column from the other table dropped",
			ordering: []core.DBOrdering{{Field: "student_name", Ascending: true}},
			allowed:  definitionOrderCols,
			want:     "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := orderBy(tt.ordering, tt.allowed); got != tt.want {
				t.Errorf("orderBy() = %q, want %q", got, tt.want)
			}
		})
	}
}
