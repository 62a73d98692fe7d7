package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/soltixdb/healthtrack/internal/analytics/timeofday"
	"github.com/soltixdb/healthtrack/internal/health"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

// Location returns the configured analysis timezone.
// Returns UTC if not configured or invalid.
// Supports formats:
//   - IANA timezone names: "Asia/Tokyo", "America/New_York", "UTC"
//   - Offset format: "+09:00", "-05:00", "+00:00"
func (c *AnalysisConfig) Location() *time.Location {
	loc, err := timeofday.ParseLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MetricThresholds returns the per-metric z-score thresholds keyed by metric type.
// Unknown metric names are skipped.
func (c *AnalysisConfig) MetricThresholds() map[health.MetricType]float64 {
	out := make(map[health.MetricType]float64, len(c.Thresholds))
	for name, t := range c.Thresholds {
		m, err := health.ParseMetricType(strings.ToLower(name))
		if err != nil {
			continue
		}
		out[m] = t
	}
	return out
}
