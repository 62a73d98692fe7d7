// Package health defines the reading model shared by storage, ingestion and
// the statistics packages.
package health

import (
	"errors"
	"fmt"
	"time"
)

// MetricType identifies what a reading measures
type MetricType string

const (
	MetricBloodPressure MetricType = "blood_pressure"
	MetricBloodSugar    MetricType = "blood_sugar"
	MetricWeight        MetricType = "weight"
	MetricHeartRate     MetricType = "heart_rate"
	MetricTemperature   MetricType = "temperature"
)

// ErrInvalidReading is wrapped by every validation failure
var ErrInvalidReading = errors.New("invalid reading")

// defaultUnits maps metric types to their display units
var defaultUnits = map[MetricType]string{
	MetricBloodPressure: "mmHg",
	MetricBloodSugar:    "mg/dL",
	MetricWeight:        "kg",
	MetricHeartRate:     "bpm",
	MetricTemperature:   "°C",
}

// AllMetricTypes returns every known metric type in a stable order
func AllMetricTypes() []MetricType {
	return []MetricType{
		MetricBloodPressure,
		MetricBloodSugar,
		MetricWeight,
		MetricHeartRate,
		MetricTemperature,
	}
}

// IsValid reports whether m is one of the known metric types
func (m MetricType) IsValid() bool {
	_, ok := defaultUnits[m]
	return ok
}

// ParseMetricType converts a string into a MetricType
func ParseMetricType(s string) (MetricType, error) {
	m := MetricType(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: unknown metric type %q", ErrInvalidReading, s)
	}
	return m, nil
}

// DefaultUnit returns the display unit for a metric type, or "" if unknown
func DefaultUnit(m MetricType) string {
	return defaultUnits[m]
}

// Reading is a single timestamped observation.
// Systolic and Diastolic are set only for blood pressure; Value is set for
// every other metric type.
type Reading struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	MetricType MetricType `json:"metric_type"`
	Value      *float64   `json:"value,omitempty"`
	Systolic   *float64   `json:"systolic,omitempty"`
	Diastolic  *float64   `json:"diastolic,omitempty"`
	RecordedAt time.Time  `json:"recorded_at"`
	Unit       string     `json:"unit,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// Validate checks the per-metric shape rules
func (r *Reading) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidReading)
	}
	if !r.MetricType.IsValid() {
		return fmt.Errorf("%w: unknown metric type %q", ErrInvalidReading, r.MetricType)
	}
	if r.RecordedAt.IsZero() {
		return fmt.Errorf("%w: recorded_at is required", ErrInvalidReading)
	}

	if r.MetricType == MetricBloodPressure {
		if r.Systolic == nil || r.Diastolic == nil {
			return fmt.Errorf("%w: blood pressure requires systolic and diastolic", ErrInvalidReading)
		}
		if *r.Systolic <= *r.Diastolic {
			return fmt.Errorf("%w: systolic (%g) must exceed diastolic (%g)",
				ErrInvalidReading, *r.Systolic, *r.Diastolic)
		}
		return nil
	}

	if r.Value == nil {
		return fmt.Errorf("%w: %s requires a value", ErrInvalidReading, r.MetricType)
	}
	if r.Systolic != nil || r.Diastolic != nil {
		return fmt.Errorf("%w: systolic/diastolic only apply to blood pressure", ErrInvalidReading)
	}
	return nil
}

// Scalar returns the representative value used by the statistics packages:
// systolic for blood pressure, value otherwise. Missing values yield 0.
func (r *Reading) Scalar() float64 {
	if r.MetricType == MetricBloodPressure {
		if r.Systolic == nil {
			return 0
		}
		return *r.Systolic
	}
	if r.Value == nil {
		return 0
	}
	return *r.Value
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}
