package anomaly

import (
	"testing"

	"github.com/soltixdb/healthtrack/internal/health"
)

func TestBloodPressureRule(t *testing.T) {
	rule, ok := GetRule(health.MetricBloodPressure)
	if !ok {
		t.Fatal("blood pressure rule not registered")
	}

	tests := []struct {
		sys, dia float64
		flagged  bool
		severity Severity
	}{
		{120, 80, false, SeverityLow},
		{140, 90, false, SeverityLow},
		{141, 80, true, SeverityMedium},
		{130, 91, true, SeverityMedium},
		{180, 100, true, SeverityMedium},
		{181, 100, true, SeverityHigh},
		{150, 121, true, SeverityHigh},
		{200, 120, true, SeverityHigh},
	}

	for _, tt := range tests {
		r := health.Reading{MetricType: health.MetricBloodPressure,
			Systolic: health.Float(tt.sys), Diastolic: health.Float(tt.dia)}
		severity, flagged := rule.Evaluate(&r)
		if flagged != tt.flagged || severity != tt.severity {
			t.Errorf("%v/%v: got (%s, %v), want (%s, %v)",
				tt.sys, tt.dia, severity, flagged, tt.severity, tt.flagged)
		}
	}
}

func TestBloodSugarRule(t *testing.T) {
	rule, ok := GetRule(health.MetricBloodSugar)
	if !ok {
		t.Fatal("blood sugar rule not registered")
	}

	tests := []struct {
		value    float64
		flagged  bool
		severity Severity
	}{
		{100, false, SeverityLow},
		{70, false, SeverityLow},
		{180, false, SeverityLow},
		{69, true, SeverityMedium},
		{65, true, SeverityMedium},
		{50, true, SeverityMedium},
		{49, true, SeverityHigh},
		{181, true, SeverityMedium},
		{250, true, SeverityMedium},
		{251, true, SeverityHigh},
	}

	for _, tt := range tests {
		r := health.Reading{MetricType: health.MetricBloodSugar, Value: health.Float(tt.value)}
		severity, flagged := rule.Evaluate(&r)
		if flagged != tt.flagged || severity != tt.severity {
			t.Errorf("%v: got (%s, %v), want (%s, %v)", tt.value, severity, flagged, tt.severity, tt.flagged)
		}
	}
}

func TestListRules(t *testing.T) {
	rules := ListRules()
	if len(rules) != 2 {
		t.Fatalf("Expected 2 registered rules, got %v", rules)
	}
	if rules[0] != health.MetricBloodPressure || rules[1] != health.MetricBloodSugar {
		t.Errorf("Unexpected rule order: %v", rules)
	}

	if _, ok := GetRule(health.MetricWeight); ok {
		t.Error("weight should not have a clinical rule")
	}
}
