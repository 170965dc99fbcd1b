package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	dErrors "claimguard/pkg/domain-errors"
)

// maxWholeUnits keeps amount arithmetic in basis points inside int64.
const maxWholeUnits = 1_000_000_000_000

// Money is a non-negative amount in minor currency units (cents).
type Money int64

// ParseMoney parses a decimal string such as "12345", "12,345.5" or "$60000.00".
// At most two fractional digits are accepted.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "amount is required")
	}
	if strings.HasPrefix(s, "-") {
		return 0, dErrors.New(dErrors.CodeValidation, "amount must not be negative")
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if !isDigits(whole) || (hasFrac && (len(frac) > 2 || !isDigits(frac))) {
		return 0, dErrors.Newf(dErrors.CodeValidation, "invalid amount %q", s)
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeValidation, "invalid amount %q", s)
	}
	var cents int64
	if hasFrac {
		for len(frac) < 2 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, dErrors.Newf(dErrors.CodeValidation, "invalid amount %q", s)
		}
	}
	if units > maxWholeUnits {
		return 0, dErrors.Newf(dErrors.CodeValidation, "amount %q out of range", s)
	}
	return Money(units*100 + cents), nil
}

// isDigits reports whether s is a non-empty run of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Dollars builds a Money value from whole units.
func Dollars(units int64) Money {
	return Money(units * 100)
}

// String renders the amount as a decimal with two fractional digits.
func (m Money) String() string {
	return fmt.Sprintf("%d.%02d", int64(m)/100, int64(m)%100)
}

// Ratio returns m/other as a float, or 0 when other is zero.
func (m Money) Ratio(other Money) float64 {
	if other == 0 {
		return 0
	}
	return float64(m) / float64(other)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return dErrors.New(dErrors.CodeValidation, "amount must be a string or number")
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Money) MarshalYAML() (any, error) {
	return m.String(), nil
}

func (m *Money) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseMoney(value.Value)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
