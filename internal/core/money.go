// Package core holds the domain types shared by the stores: transactions,
// users, money amounts and the dashboard statistics snapshot.
//
// Money is kept in cents internally; the backend speaks decimal JSON
// numbers, so Money converts at the (un)marshalling boundary.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

type Money struct {
	Cents int64
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Units returns the decimal value for display and wire encoding.
// Use cents for arithmetic to avoid floating-point drift.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount with two decimals, e.g. "12.34".
func (m Money) String() string {
	return strconv.FormatFloat(m.Units(), 'f', 2, 64)
}

// MarshalJSON encodes the amount as a plain decimal number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number (or a quoted one) and half-up
// rounds to cents.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		m.Cents = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return ErrInvalidAmount
	}
	m.Cents = int64(math.Round(f * 100))
	return nil
}

// ParseAmount converts a user-entered decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) separators and half-up
// rounds the third decimal place. Zero, negative and malformed input
// return ErrInvalidAmount.
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return Money{}, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	m := Money{Cents: iv*100 + fracCents}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// SanitizeAmount filters an in-progress amount entry down to digits and a
// single decimal separator. A keystroke that would introduce a second
// separator is rejected silently: the previous value is returned
// unchanged.
func SanitizeAmount(current, input string) string {
	filtered := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '.' {
			return r
		}
		return -1
	}, input)
	if strings.Count(filtered, ".") > 1 {
		return current
	}
	return filtered
}
