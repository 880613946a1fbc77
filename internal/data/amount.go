package data

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var leadingIntPattern = regexp.MustCompile(`^\s*([+-]?\d+)`)

// ParseAmount parses numeric CSV values with optional currency symbol,
// thousands separators and a K/M/B magnitude suffix:
//
//	"500"      -> 500
//	"$1,000"   -> 1000
//	"4M"       -> 4000000
//	"1.5M"     -> 1500000
//	"-2.75m"   -> -2750000
//
// An empty string parses as 0. Non-finite values and values outside the int
// range are errors.
func ParseAmount(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.TrimSpace(s)

	multiplier := 1.0
	if n := len(s); n > 0 {
		switch s[n-1] {
		case 'k', 'K':
			multiplier = 1e3
			s = s[:n-1]
		case 'm', 'M':
			multiplier = 1e6
			s = s[:n-1]
		case 'b', 'B':
			multiplier = 1e9
			s = s[:n-1]
		}
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	v := math.Round(value * multiplier)
	if math.IsNaN(v) || math.IsInf(v, 0) || v < math.MinInt || v >= math.MaxInt {
		return 0, fmt.Errorf("invalid amount %q: out of range", raw)
	}
	return int(v), nil
}

// LeadingInt extracts the integer a value starts with, e.g. "5 days" -> 5.
func LeadingInt(raw string) (int, bool) {
	m := leadingIntPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}
