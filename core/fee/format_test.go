package fee

import (
	"testing"
	"time"
)

func TestFormatCDF(t *testing.T) {
	tests := []struct {
		amount int
		want   string
	}{
		{0, "0 FC"},
		{500, "500 FC"},
		{1000, "1 000 FC"},
		{50000, "50 000 FC"},
		{1250000, "1 250 000 FC"},
		{-30000, "-30 000 FC"},
	}
	for _, tt := range tests {
		if got := FormatCDF(tt.amount); got != tt.want {
			t.Errorf("FormatCDF(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2024, time.September, 15, 10, 30, 0, 0, time.UTC)
	if got := FormatDate(d); got != "15/09/2024" {
		t.Errorf("FormatDate() = %q, want %q", got, "15/09/2024")
	}
}
