package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/soltixdb/healthtrack/internal/analytics/anomaly"
	"github.com/soltixdb/healthtrack/internal/analytics/timeofday"
	"github.com/soltixdb/healthtrack/internal/health"
	"github.com/spf13/cobra"
)

// options are shared by every subcommand
type options struct {
	file       string
	metric     string
	timezone   string
	thresholds map[string]string
	jsonOutput bool
	noColor    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "analyze",
		Short: "Compute health reading statistics offline",
		Long: `Read a JSON file of health readings and print the same statistics the
HealthTrack service computes: trend, anomalies, time-of-day buckets and
per-metric summaries.

The input is either a JSON array of readings or the body returned by
GET /v1/users/:user/readings.

Examples:
  # Everything at once
  analyze report -f readings.json

  # Weight trend from stdin
  cat readings.json | analyze trend --metric weight

  # Anomalies with a tighter weight threshold
  analyze anomalies -f readings.json --threshold weight=1.5

  # Morning/afternoon/evening split in Tokyo time
  analyze timeofday -f readings.json --timezone Asia/Tokyo`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.file, "file", "f", "-", "JSON file of readings (- reads stdin)")
	flags.StringVarP(&opts.metric, "metric", "m", "", "Only analyze one metric type")
	flags.StringVar(&opts.timezone, "timezone", "UTC", "Timezone for time-of-day buckets (IANA name or +09:00)")
	flags.StringToStringVar(&opts.thresholds, "threshold", nil, "Z-score threshold per metric type (e.g. weight=2.5)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newTrendCmd(opts),
		newAnomaliesCmd(opts),
		newTimeOfDayCmd(opts),
		newSummaryCmd(opts),
		newReportCmd(opts),
	)
	return root
}

// metricFilter returns the parsed --metric flag, or "" for all metrics
func (o *options) metricFilter() (health.MetricType, error) {
	if o.metric == "" {
		return "", nil
	}
	return health.ParseMetricType(o.metric)
}

// location parses --timezone
func (o *options) location() (*time.Location, error) {
	return timeofday.ParseLocation(o.timezone)
}

// detector builds an anomaly detector from --threshold overrides
func (o *options) detector() (*anomaly.Detector, error) {
	cfg := anomaly.DefaultConfig()
	if len(o.thresholds) == 0 {
		return anomaly.NewDetector(cfg), nil
	}

	thresholds := make(map[health.MetricType]float64, len(cfg.Thresholds)+len(o.thresholds))
	for m, t := range cfg.Thresholds {
		thresholds[m] = t
	}
	for name, raw := range o.thresholds {
		metric, err := health.ParseMetricType(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || t <= 0 {
			return nil, fmt.Errorf("threshold for %s must be a positive number, got %q", metric, raw)
		}
		thresholds[metric] = t
	}
	cfg.Thresholds = thresholds
	return anomaly.NewDetector(cfg), nil
}
