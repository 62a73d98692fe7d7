// Package anomaly flags outlier readings with per-metric z-scores and
// absolute clinical thresholds.
package anomaly

import (
	"github.com/soltixdb/healthtrack/internal/analytics"
	"github.com/soltixdb/healthtrack/internal/health"
)

// Severity of a detected anomaly
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) rank() int {
	switch s {
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Source records which check flagged a reading
type Source string

const (
	SourceNone        Source = ""
	SourceStatistical Source = "statistical"
	SourceClinical    Source = "clinical"
)

// Result is the classification of a single reading
type Result struct {
	IsAnomaly bool     `json:"is_anomaly"`
	Severity  Severity `json:"severity"`
	ZScore    float64  `json:"z_score"`
	Deviation float64  `json:"deviation"` // |value - group mean|
	Source    Source   `json:"source,omitempty"`
}

// Normal is the neutral result
func Normal() Result {
	return Result{Severity: SeverityLow}
}

// Config holds detection parameters
type Config struct {
	// Thresholds overrides the z-score threshold per metric type
	Thresholds map[health.MetricType]float64

	// DefaultThreshold applies to metric types without an entry in Thresholds
	DefaultThreshold float64

	// MinReadings below which every reading is reported as normal
	MinReadings int

	// MinGroupSize for computing group statistics
	MinGroupSize int
}

// DefaultConfig returns the standard detection parameters
func DefaultConfig() Config {
	return Config{
		Thresholds: map[health.MetricType]float64{
			health.MetricBloodPressure: 1.5,
			health.MetricBloodSugar:    1.2,
		},
		DefaultThreshold: 2.0,
		MinReadings:      5,
		MinGroupSize:     3,
	}
}

// ThresholdFor returns the z-score threshold for a metric type
func (c Config) ThresholdFor(m health.MetricType) float64 {
	if t, ok := c.Thresholds[m]; ok && t > 0 {
		return t
	}
	return c.DefaultThreshold
}

// Detector classifies readings. It holds no mutable state and is safe for
// concurrent use.
type Detector struct {
	config Config
}

// NewDetector creates a detector, filling unset fields from DefaultConfig.
// Configured thresholds are laid over the default per-metric thresholds.
func NewDetector(config Config) *Detector {
	def := DefaultConfig()
	thresholds := def.Thresholds
	for m, t := range config.Thresholds {
		if t > 0 {
			thresholds[m] = t
		}
	}
	config.Thresholds = thresholds
	if config.DefaultThreshold <= 0 {
		config.DefaultThreshold = def.DefaultThreshold
	}
	if config.MinReadings <= 0 {
		config.MinReadings = def.MinReadings
	}
	if config.MinGroupSize <= 0 {
		config.MinGroupSize = def.MinGroupSize
	}
	return &Detector{config: config}
}

// Config returns the detector's effective configuration
func (d *Detector) Config() Config {
	return d.config
}

// Detect classifies every reading, keyed by reading ID
func Detect(readings []health.Reading) map[string]Result {
	return NewDetector(DefaultConfig()).Detect(readings)
}

// Detect classifies every reading, keyed by reading ID.
// Inputs smaller than MinReadings are reported as normal without analysis.
func (d *Detector) Detect(readings []health.Reading) map[string]Result {
	results := make(map[string]Result, len(readings))

	if len(readings) < d.config.MinReadings {
		for i := range readings {
			results[readings[i].ID] = Normal()
		}
		return results
	}

	groups := make(map[health.MetricType][]health.Reading)
	for _, r := range readings {
		groups[r.MetricType] = append(groups[r.MetricType], r)
	}

	for metric, group := range groups {
		d.detectGroup(metric, group, results)
	}

	return results
}

// detectGroup scores one metric type's readings and applies its clinical rule
func (d *Detector) detectGroup(metric health.MetricType, group []health.Reading, results map[string]Result) {
	threshold := d.config.ThresholdFor(metric)
	rule, hasRule := GetRule(metric)

	var mean, stdDev float64
	scored := len(group) >= d.config.MinGroupSize
	if scored {
		mean, stdDev = analytics.MeanStdDev(analytics.FromReadings(group).Values())
	}

	for i := range group {
		r := &group[i]
		result := Normal()

		if scored {
			value := r.Scalar()
			deviation := value - mean
			if deviation < 0 {
				deviation = -deviation
			}
			z := CalculateZScore(value, mean, stdDev)
			if z < 0 {
				z = -z
			}

			result.ZScore = z
			result.Deviation = deviation
			if z > threshold {
				result.IsAnomaly = true
				result.Severity = severityForZScore(z, threshold)
				result.Source = SourceStatistical
			}
		}

		if hasRule {
			if severity, flagged := rule.Evaluate(r); flagged {
				result.IsAnomaly = true
				result.Source = SourceClinical
				// a clinical flag never lowers a statistical severity
				if severity.rank() > result.Severity.rank() {
					result.Severity = severity
				}
			}
		}

		results[r.ID] = result
	}
}

// Anomalies returns only the flagged entries of a result map
func Anomalies(results map[string]Result) map[string]Result {
	flagged := make(map[string]Result)
	for id, r := range results {
		if r.IsAnomaly {
			flagged[id] = r
		}
	}
	return flagged
}
