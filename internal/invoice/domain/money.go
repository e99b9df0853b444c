package domain

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// Money is an amount in minor units (cents, paise) of the invoice currency.
// Every supported currency uses two fractional digits.
type Money int64

const minorPerMajor = 100

// FromMajor converts a major-unit value such as 12.5 into Money, rounding
// half away from zero to the nearest minor unit.
func FromMajor(v float64) (Money, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, v)
	}
	scaled := math.Round(v * minorPerMajor)
	if math.IsNaN(scaled) || scaled >= math.MaxInt64 || scaled < math.MinInt64 {
		return 0, fmt.Errorf("%w: %v out of range", ErrInvalidAmount, v)
	}
	return Money(scaled), nil
}

// Major returns the value in major units. Use only at formatting boundaries.
func (m Money) Major() float64 {
	return float64(m) / minorPerMajor
}

// Split returns the absolute whole and fractional parts and whether m is negative.
func (m Money) Split() (whole uint64, frac uint64, negative bool) {
	v := int64(m)
	var abs uint64
	if v < 0 {
		negative = true
		abs = uint64(-(v + 1)) + 1
	} else {
		abs = uint64(v)
	}
	return abs / minorPerMajor, abs % minorPerMajor, negative
}

// String renders the amount as a plain decimal, e.g. "1234.50".
func (m Money) String() string {
	whole, frac, neg := m.Split()
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%02d", sign, whole, frac)
}

// MarshalJSON encodes Money as a decimal number in major units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number in major units.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	data = bytes.Trim(data, `"`)
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, string(data))
	}
	v, err := FromMajor(f)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
