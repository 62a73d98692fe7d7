// Package trend classifies the direction and strength of a reading series
// using ordinary least squares against sample index.
package trend

import (
	"math"

	"github.com/soltixdb/healthtrack/internal/analytics"
	"github.com/soltixdb/healthtrack/internal/health"
)

// Direction of the fitted line
type Direction string

const (
	DirectionIncreasing Direction = "increasing"
	DirectionDecreasing Direction = "decreasing"
	DirectionStable     Direction = "stable"
)

// Strength buckets the slope magnitude
type Strength string

const (
	StrengthWeak     Strength = "weak"
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"
)

// Classification thresholds
const (
	MinPoints            = 3
	StableSlopeBand      = 0.1
	ModerateSlopeMinimum = 0.5
	StrongSlopeMinimum   = 2.0
)

// Result describes the trend of a whole series
type Result struct {
	Slope      float64   `json:"slope"`
	Intercept  float64   `json:"intercept"`
	Direction  Direction `json:"direction"`
	Strength   Strength  `json:"strength"`
	Confidence float64   `json:"confidence"` // |Pearson r| in [0,1]
	Mean       float64   `json:"mean"`
	Points     int       `json:"points"`
}

// Stable is the neutral result returned for series that are too short
func Stable(points int) Result {
	return Result{
		Direction: DirectionStable,
		Strength:  StrengthWeak,
		Points:    points,
	}
}

// Calculate fits a line through the readings ordered by RecordedAt.
// The caller's slice is not reordered.
func Calculate(readings []health.Reading) Result {
	if len(readings) < MinPoints {
		return Stable(len(readings))
	}
	return CalculateSeries(analytics.FromReadings(readings).SortedByTime().Values())
}

// CalculateSeries fits a line through values already in time order, using
// the index as the independent variable.
func CalculateSeries(values []float64) Result {
	if len(values) < MinPoints {
		return Stable(len(values))
	}

	n := float64(len(values))
	meanX := (n - 1) / 2

	var sumY float64
	for _, v := range values {
		sumY += v
	}
	meanY := sumY / n

	// Centered sums: slope = Sxy/Sxx is the same estimator as
	// (nΣxy − ΣxΣy)/(nΣx² − (Σx)²) without the cancellation error.
	var sxx, syy, sxy float64
	for i, v := range values {
		dx := float64(i) - meanX
		dy := v - meanY
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}

	result := Result{
		Direction: DirectionStable,
		Strength:  StrengthWeak,
		Intercept: meanY,
		Mean:      meanY,
		Points:    len(values),
	}

	if sxx == 0 || isFlat(syy, meanY, n) {
		return result
	}

	result.Slope = sxy / sxx
	result.Intercept = meanY - result.Slope*meanX
	result.Confidence = math.Min(math.Abs(sxy/math.Sqrt(sxx*syy)), 1)
	result.Direction = classifyDirection(result.Slope)
	result.Strength = classifyStrength(result.Slope)
	return result
}

// isFlat treats variance at floating point noise level, relative to the sum
// of squared values, as zero
func isFlat(syy, meanY, n float64) bool {
	sumSq := syy + n*meanY*meanY
	return syy <= flatTolerance*sumSq
}

const flatTolerance = 1e-26

func classifyDirection(slope float64) Direction {
	switch {
	case slope > StableSlopeBand:
		return DirectionIncreasing
	case slope < -StableSlopeBand:
		return DirectionDecreasing
	default:
		return DirectionStable
	}
}

func classifyStrength(slope float64) Strength {
	abs := math.Abs(slope)
	switch {
	case abs < ModerateSlopeMinimum:
		return StrengthWeak
	case abs < StrongSlopeMinimum:
		return StrengthModerate
	default:
		return StrengthStrong
	}
}
