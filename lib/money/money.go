// Package money handles the integer-cent price representation used
// across the database and formats it for API responses.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatCents renders cents as a "$X.XX" display string.
func FormatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

// FromFloat converts a dollar amount from a store API payload to cents.
func FromFloat(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}

// ToFloat converts cents back to dollars for payloads that expect numbers.
func ToFloat(cents int64) float64 {
	return float64(cents) / 100
}

// ParseDollars converts scraped price text like "$12.99", "12.99" or
// "$1,299.00" to cents.
func ParseDollars(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty price string")
	}
	dollars, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	return FromFloat(dollars), nil
}
