package units

import (
	"math"
	"testing"
)

func TestIsValid(t *testing.T) {
	for _, u := range []string{Miles, Kilometers, Meters} {
		if !IsValid(u) {
			t.Errorf("IsValid(%q) = false", u)
		}
	}
	if IsValid("furlongs") {
		t.Error("IsValid(furlongs) = true")
	}
}

func TestConvertDistance(t *testing.T) {
	tests := []struct {
		miles float64
		units string
		want  float64
	}{
		{1, Miles, 1},
		{1, Kilometers, 1.609344},
		{1, Meters, 1609.344},
		{2.5, Kilometers, 4.02336},
		{1, "unknown", 1},
	}
	for _, tt := range tests {
		got := ConvertDistance(tt.miles, tt.units)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ConvertDistance(%v, %q) = %v, want %v", tt.miles, tt.units, got, tt.want)
		}
	}
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "$0"},
		{999, "$999"},
		{1234567.8, "$1,234,568"},
		{-45000, "-$45,000"},
		{150000000, "$150,000,000"},
	}
	for _, tt := range tests {
		if got := FormatUSD(tt.amount); got != tt.want {
			t.Errorf("FormatUSD(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatMillionUSD(t *testing.T) {
	if got := FormatMillionUSD(1500000); got != "$1.50M" {
		t.Errorf("FormatMillionUSD(1500000) = %q, want $1.50M", got)
	}
}
