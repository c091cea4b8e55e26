// Package units provides shared constants and conversions for distance
// units and currency formatting
package units

import (
	"fmt"
	"strings"
)

// Unit constants
const (
	Miles      = "mi"
	Kilometers = "km"
	Meters     = "m"
)

// ValidUnits contains all valid distance unit values
var ValidUnits = []string{Miles, Kilometers, Meters}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "mi, km, m"
}

// ConvertDistance converts a distance from miles to the target units.
// Policy thresholds and pairwise matrices store distances in miles.
func ConvertDistance(distanceMiles float64, targetUnits string) float64 {
	switch targetUnits {
	case Kilometers:
		return distanceMiles * 1.609344 // miles to km
	case Meters:
		return distanceMiles * 1609.344 // miles to m
	case Miles:
		return distanceMiles // no conversion needed
	default:
		return distanceMiles // default to miles if unknown unit
	}
}

// FormatUSD renders a dollar amount with thousands separators, e.g.
// 1234567.8 -> "$1,234,568". Amounts are rounded to whole dollars.
func FormatUSD(amount float64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	whole := int64(amount + 0.5)

	s := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

// FormatMillionUSD renders an amount in millions with two decimals,
// e.g. 1500000 -> "$1.50M".
func FormatMillionUSD(amount float64) string {
	return fmt.Sprintf("$%.2fM", amount/1e6)
}
