// Package units converts reading values between display units.
package units

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Unit is a display unit string as stored on a reading
type Unit string

const (
	Kilogram   Unit = "kg"
	Pound      Unit = "lb"
	MgPerDL    Unit = "mg/dL"
	MmolPerL   Unit = "mmol/L"
	Celsius    Unit = "°C"
	Fahrenheit Unit = "°F"
	MmHg       Unit = "mmHg"
	BPM        Unit = "bpm"
)

const (
	poundsPerKilogram = 2.20462
	// mg/dL per mmol/L for glucose
	glucoseFactor = 18.0
)

// ErrUnsupportedConversion is returned for unknown units or incompatible pairs
var ErrUnsupportedConversion = errors.New("unsupported unit conversion")

var aliases = map[string]Unit{
	"kg":         Kilogram,
	"kgs":        Kilogram,
	"lb":         Pound,
	"lbs":        Pound,
	"mg/dl":      MgPerDL,
	"mmol/l":     MmolPerL,
	"°c":         Celsius,
	"c":          Celsius,
	"celsius":    Celsius,
	"°f":         Fahrenheit,
	"f":          Fahrenheit,
	"fahrenheit": Fahrenheit,
	"mmhg":       MmHg,
	"bpm":        BPM,
}

// Parse normalizes a unit string, case-insensitively
func Parse(s string) (Unit, error) {
	u, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: unknown unit %q", ErrUnsupportedConversion, s)
	}
	return u, nil
}

type pair struct{ from, to Unit }

var converters = map[pair]func(float64) float64{
	{Kilogram, Pound}:     func(v float64) float64 { return v * poundsPerKilogram },
	{Pound, Kilogram}:     func(v float64) float64 { return v / poundsPerKilogram },
	{MgPerDL, MmolPerL}:   func(v float64) float64 { return v / glucoseFactor },
	{MmolPerL, MgPerDL}:   func(v float64) float64 { return v * glucoseFactor },
	{Celsius, Fahrenheit}: func(v float64) float64 { return v*9/5 + 32 },
	{Fahrenheit, Celsius}: func(v float64) float64 { return (v - 32) * 5 / 9 },
}

// Convert converts value between two unit strings. Identical units return the
// value unchanged.
func Convert(value float64, from, to string) (float64, error) {
	src, err := Parse(from)
	if err != nil {
		return 0, err
	}
	dst, err := Parse(to)
	if err != nil {
		return 0, err
	}
	if src == dst {
		return value, nil
	}

	fn, ok := converters[pair{src, dst}]
	if !ok {
		return 0, fmt.Errorf("%w: %s to %s", ErrUnsupportedConversion, src, dst)
	}
	return fn(value), nil
}

// Round rounds to the given number of decimal places
func Round(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}
