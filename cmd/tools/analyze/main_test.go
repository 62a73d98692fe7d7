package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/soltixdb/healthtrack/internal/analytics/anomaly"
	"github.com/soltixdb/healthtrack/internal/analytics/trend"
	"github.com/soltixdb/healthtrack/internal/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)

// fixture: six daily 07:00 UTC weights with one outlier, two 19:00 UTC
// blood pressure readings, the second one hypertensive
func fixture() []health.Reading {
	var readings []health.Reading
	for i, v := range []float64{70, 70, 70, 70, 70, 100} {
		readings = append(readings, health.Reading{
			ID:         "w" + string(rune('1'+i)),
			MetricType: health.MetricWeight,
			Value:      health.Float(v),
			RecordedAt: day0.AddDate(0, 0, i),
			Unit:       "kg",
		})
	}
	readings = append(readings,
		health.Reading{
			ID:         "bp1",
			MetricType: health.MetricBloodPressure,
			Systolic:   health.Float(120),
			Diastolic:  health.Float(80),
			RecordedAt: day0.Add(12 * time.Hour),
		},
		health.Reading{
			ID:         "bp2",
			MetricType: health.MetricBloodPressure,
			Systolic:   health.Float(185),
			Diastolic:  health.Float(125),
			RecordedAt: day0.AddDate(0, 0, 1).Add(12 * time.Hour),
		},
	)
	return readings
}

func writeFixture(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(fixture())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "readings.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append(args, "--no-color"))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), err
}

func TestDecodeReadings(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		readings, err := decodeReadings([]byte(`[
			{"metric_type":"weight","value":70,"recorded_at":"2024-03-01T07:00:00Z"},
			{"id":"x","metric_type":"heart_rate","value":61,"recorded_at":"2024-03-01T08:00:00Z"}
		]`))
		require.NoError(t, err)
		require.Len(t, readings, 2)
		assert.Equal(t, "reading-1", readings[0].ID)
		assert.Equal(t, "x", readings[1].ID)
	})

	t.Run("list response body", func(t *testing.T) {
		readings, err := decodeReadings([]byte(`{"user_id":"u1","count":1,"readings":[
			{"id":"a","metric_type":"weight","value":70,"recorded_at":"2024-03-01T07:00:00Z"}
		]}`))
		require.NoError(t, err)
		require.Len(t, readings, 1)
		assert.Equal(t, "a", readings[0].ID)
	})

	t.Run("invalid reading", func(t *testing.T) {
		_, err := decodeReadings([]byte(`[
			{"id":"a","metric_type":"weight","value":70,"recorded_at":"2024-03-01T07:00:00Z"},
			{"id":"b","metric_type":"blood_pressure","systolic":80,"diastolic":120,"recorded_at":"2024-03-01T07:00:00Z"}
		]`))
		require.Error(t, err)
		assert.ErrorIs(t, err, health.ErrInvalidReading)
		assert.Contains(t, err.Error(), "reading 1")
	})

	t.Run("duplicate ids", func(t *testing.T) {
		_, err := decodeReadings([]byte(`[
			{"id":"a","metric_type":"weight","value":70,"recorded_at":"2024-03-01T07:00:00Z"},
			{"id":"a","metric_type":"weight","value":71,"recorded_at":"2024-03-02T07:00:00Z"}
		]`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `duplicate id "a"`)
	})

	t.Run("generated id avoids explicit ids", func(t *testing.T) {
		readings, err := decodeReadings([]byte(`[
			{"metric_type":"weight","value":70,"recorded_at":"2024-03-01T07:00:00Z"},
			{"id":"reading-1","metric_type":"weight","value":71,"recorded_at":"2024-03-02T07:00:00Z"}
		]`))
		require.NoError(t, err)
		require.Len(t, readings, 2)
		assert.Equal(t, "reading-1-1", readings[0].ID)
		assert.Equal(t, "reading-1", readings[1].ID)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := decodeReadings([]byte("  \n"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := decodeReadings([]byte(`[{"metric_type":`))
		assert.Error(t, err)
	})
}

func TestReportJSON(t *testing.T) {
	out, err := run(t, "", "report", "-f", writeFixture(t), "--json")
	require.NoError(t, err)

	var report fullReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	assert.Equal(t, 8, report.Readings)

	require.Len(t, report.Trends, 2)
	assert.Equal(t, health.MetricBloodPressure, report.Trends[0].MetricType)
	assert.Equal(t, trend.DirectionStable, report.Trends[0].Direction)
	assert.Equal(t, health.MetricWeight, report.Trends[1].MetricType)
	assert.Equal(t, trend.DirectionIncreasing, report.Trends[1].Direction)
	assert.Equal(t, trend.StrengthStrong, report.Trends[1].Strength)

	assert.Equal(t, 8, report.Anomalies.Analyzed)
	require.Len(t, report.Anomalies.Anomalies, 2)
	bp := report.Anomalies.Anomalies[0]
	assert.Equal(t, "bp2", bp.Reading.ID)
	assert.Equal(t, anomaly.SeverityHigh, bp.Severity)
	assert.Equal(t, anomaly.SourceClinical, bp.Source)
	w := report.Anomalies.Anomalies[1]
	assert.Equal(t, "w6", w.Reading.ID)
	assert.Equal(t, anomaly.SourceStatistical, w.Source)
	assert.InDelta(t, 2.236, w.ZScore, 0.001)

	require.Len(t, report.TimeOfDay.Periods, 3)
	assert.Equal(t, 6, report.TimeOfDay.Periods[0].Count)
	assert.Equal(t, 0, report.TimeOfDay.Periods[1].Count)
	assert.Equal(t, 2, report.TimeOfDay.Periods[2].Count)
	assert.Nil(t, report.TimeOfDay.Periods[0].Mean)

	require.Len(t, report.Summaries, 2)
	assert.Equal(t, 185.0, report.Summaries[0].Max)
	assert.Equal(t, 75.0, report.Summaries[1].Mean)
}

func TestAnomalies_ThresholdOverride(t *testing.T) {
	out, err := run(t, "", "anomalies", "-f", writeFixture(t), "--threshold", "weight=3", "--json")
	require.NoError(t, err)

	var report anomalyReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Anomalies, 1)
	assert.Equal(t, "bp2", report.Anomalies[0].Reading.ID)
}

func TestTimeOfDay_TimezoneAndMetric(t *testing.T) {
	out, err := run(t, "", "time-of-day", "-f", writeFixture(t),
		"--metric", "weight", "--timezone", "+09:00", "--json")
	require.NoError(t, err)

	var report timeOfDayReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "+09:00", report.Timezone)
	assert.Equal(t, 0, report.Periods[0].Count)
	require.Equal(t, 6, report.Periods[1].Count)
	require.NotNil(t, report.Periods[1].Mean)
	assert.Equal(t, 75.0, *report.Periods[1].Mean)
}

func TestTrend_FromStdin(t *testing.T) {
	data, err := json.Marshal(fixture())
	require.NoError(t, err)

	out, err := run(t, string(data), "trend", "--metric", "weight")
	require.NoError(t, err)
	assert.Contains(t, out, "Trends")
	assert.Contains(t, out, "weight")
	assert.Contains(t, out, "increasing")
	assert.NotContains(t, out, "blood_pressure")
}

func TestReport_Text(t *testing.T) {
	out, err := run(t, "", "report", "-f", writeFixture(t))
	require.NoError(t, err)
	for _, want := range []string{"Summary", "Trends", "Time of day", "Anomalies", "185/125", "clinical"} {
		assert.Contains(t, out, want)
	}
}

func TestCommandErrors(t *testing.T) {
	path := writeFixture(t)
	tests := []struct {
		name string
		args []string
	}{
		{"unknown metric", []string{"summary", "-f", path, "--metric", "cholesterol"}},
		{"bad threshold value", []string{"anomalies", "-f", path, "--threshold", "weight=abc"}},
		{"non-positive threshold", []string{"anomalies", "-f", path, "--threshold", "weight=0"}},
		{"threshold for unknown metric", []string{"report", "-f", path, "--threshold", "steps=2"}},
		{"bad timezone", []string{"timeofday", "-f", path, "--timezone", "Nowhere/Special"}},
		{"missing file", []string{"summary", "-f", filepath.Join(t.TempDir(), "none.json")}},
		{"unexpected argument", []string{"summary", "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, "", tt.args...); err == nil {
				t.Errorf("Expected error for %v", tt.args)
			}
		})
	}
}
