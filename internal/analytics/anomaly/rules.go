package anomaly

import (
	"sort"

	"github.com/soltixdb/healthtrack/internal/health"
)

// ClinicalRule flags readings outside absolute clinical limits regardless of
// how they compare to the rest of the group
type ClinicalRule interface {
	// MetricType returns the metric the rule applies to
	MetricType() health.MetricType

	// Evaluate reports whether the reading breaches the rule and how badly
	Evaluate(r *health.Reading) (Severity, bool)
}

// Registry holds the clinical rule for each metric type
var ruleRegistry = make(map[health.MetricType]ClinicalRule)

// RegisterRule adds a rule to the registry, replacing any existing rule for the metric
func RegisterRule(rule ClinicalRule) {
	ruleRegistry[rule.MetricType()] = rule
}

// GetRule returns the rule for a metric type
func GetRule(metric health.MetricType) (ClinicalRule, bool) {
	rule, ok := ruleRegistry[metric]
	return rule, ok
}

// ListRules returns the metric types that have a clinical rule
func ListRules() []health.MetricType {
	metrics := make([]health.MetricType, 0, len(ruleRegistry))
	for m := range ruleRegistry {
		metrics = append(metrics, m)
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i] < metrics[j] })
	return metrics
}

func init() {
	RegisterRule(BloodPressureRule{
		SystolicLimit: 140, DiastolicLimit: 90,
		SystolicCritical: 180, DiastolicCritical: 120,
	})
	RegisterRule(BloodSugarRule{
		High: 180, Low: 70,
		CriticalHigh: 250, CriticalLow: 50,
	})
}

// BloodPressureRule flags hypertensive readings
type BloodPressureRule struct {
	SystolicLimit     float64
	DiastolicLimit    float64
	SystolicCritical  float64
	DiastolicCritical float64
}

// MetricType returns blood_pressure
func (BloodPressureRule) MetricType() health.MetricType {
	return health.MetricBloodPressure
}

// Evaluate flags systolic > SystolicLimit or diastolic > DiastolicLimit
func (b BloodPressureRule) Evaluate(r *health.Reading) (Severity, bool) {
	if r.Systolic == nil || r.Diastolic == nil {
		return SeverityLow, false
	}
	sys, dia := *r.Systolic, *r.Diastolic

	if sys <= b.SystolicLimit && dia <= b.DiastolicLimit {
		return SeverityLow, false
	}
	if sys > b.SystolicCritical || dia > b.DiastolicCritical {
		return SeverityHigh, true
	}
	return SeverityMedium, true
}

// BloodSugarRule flags hyper- and hypoglycaemic readings
type BloodSugarRule struct {
	High         float64
	Low          float64
	CriticalHigh float64
	CriticalLow  float64
}

// MetricType returns blood_sugar
func (BloodSugarRule) MetricType() health.MetricType {
	return health.MetricBloodSugar
}

// Evaluate flags values above High or below Low
func (b BloodSugarRule) Evaluate(r *health.Reading) (Severity, bool) {
	if r.Value == nil {
		return SeverityLow, false
	}
	v := *r.Value

	if v <= b.High && v >= b.Low {
		return SeverityLow, false
	}
	if v > b.CriticalHigh || v < b.CriticalLow {
		return SeverityHigh, true
	}
	return SeverityMedium, true
}
