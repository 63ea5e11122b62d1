package fee

import (
	"testing"
	"time"
)

func TestParseAcademicYear(t *testing.T) {
	tests := []struct {
		name       string
		year       string
		wantFirst  int
		wantSecond int
		wantErr    bool
	}{
		{name: "valid", year: "2024-2025", wantFirst: 2024, wantSecond: 2025},
		{name: "empty", year: "", wantErr: true},
		{name: "single year", year: "2024", wantErr: true},
		{name: "not consecutive", year: "2024-2026", wantErr: true},
		{name: "reversed", year: "2025-2024", wantErr: true},
		{name: "short years", year: "24-25", wantErr: true},
		{name: "garbage", year: "abcd-efgh", wantErr: true},
		{name: "too many parts", year: "2024-2025-2026", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, second, err := ParseAcademicYear(tt.year)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAcademicYear() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if first != tt.wantFirst || second != tt.wantSecond {
				t.Errorf("ParseAcademicYear() = (%d, %d), want (%d, %d)", first, second, tt.wantFirst, tt.wantSecond)
			}
		})
	}
}

func TestDueDateClampsToMonthLength(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		day   int
		want  time.Time
	}{
		{name: "regular", year: 2024, month: time.October, day: 15, want: time.Date(2024, time.October, 15, 0, 0, 0, 0, time.UTC)},
		{name: "february 31 clamps to 28", year: 2025, month: time.February, day: 31, want: time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)},
		{name: "leap february", year: 2024, month: time.February, day: 30, want: time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)},
		{name: "30-day month", year: 2024, month: time.November, day: 31, want: time.Date(2024, time.November, 30, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dueDate(tt.year, tt.month, tt.day); !got.Equal(tt.want) {
				t.Errorf("dueDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsFrenchMonth(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{name: "Septembre", want: true},
		{name: "septembre", want: true},
		{name: "DÉCEMBRE", want: true},
		{name: "Juillet", want: true},
		{name: "Août", want: true},
		{name: "Smarch", want: false},
		{name: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFrenchMonth(tt.name); got != tt.want {
				t.Errorf("IsFrenchMonth(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
