// Package analytics provides the shared series type and per-metric summaries
// used by the trend, anomaly and time-of-day packages.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/soltixdb/healthtrack/internal/health"
)

// SeriesPoint is one reading reduced to its representative scalar
type SeriesPoint struct {
	ID    string
	Time  time.Time
	Value float64
}

// Series is an ordered collection of points
type Series []SeriesPoint

// FromReadings reduces readings to their scalars, preserving input order
func FromReadings(readings []health.Reading) Series {
	s := make(Series, len(readings))
	for i := range readings {
		s[i] = SeriesPoint{
			ID:    readings[i].ID,
			Time:  readings[i].RecordedAt,
			Value: readings[i].Scalar(),
		}
	}
	return s
}

// SortedByTime returns a copy sorted ascending by time. Equal times keep
// their relative order.
func (s Series) SortedByTime() Series {
	sorted := make(Series, len(s))
	copy(sorted, s)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})
	return sorted
}

// Values extracts just the values
func (s Series) Values() []float64 {
	values := make([]float64, len(s))
	for i, p := range s {
		values[i] = p.Value
	}
	return values
}

// Mean calculates the mean of all values
func (s Series) Mean() float64 {
	mean, _ := MeanStdDev(s.Values())
	return mean
}

// PopulationStdDev calculates the population standard deviation (divides by n)
func (s Series) PopulationStdDev() float64 {
	_, stdDev := MeanStdDev(s.Values())
	return stdDev
}

// MeanStdDev calculates the mean and population standard deviation of values
func MeanStdDev(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))

	var varianceSum float64
	for _, v := range values {
		diff := v - mean
		varianceSum += diff * diff
	}
	stdDev = math.Sqrt(varianceSum / float64(len(values)))

	return mean, stdDev
}
