package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/soltixdb/healthtrack/internal/analytics"
	"github.com/soltixdb/healthtrack/internal/analytics/anomaly"
	"github.com/soltixdb/healthtrack/internal/analytics/timeofday"
	"github.com/soltixdb/healthtrack/internal/analytics/trend"
	"github.com/soltixdb/healthtrack/internal/health"
	"github.com/spf13/cobra"
)

type trendEntry struct {
	MetricType health.MetricType `json:"metric_type"`
	trend.Result
}

type flagged struct {
	Reading health.Reading `json:"reading"`
	anomaly.Result
}

type anomalyReport struct {
	Analyzed  int       `json:"analyzed"`
	Anomalies []flagged `json:"anomalies"`
}

type periodStats struct {
	Period timeofday.Period `json:"period"`
	Count  int              `json:"count"`
	Mean   *float64         `json:"mean,omitempty"` // only for a single metric type
}

type timeOfDayReport struct {
	Timezone string        `json:"timezone"`
	Periods  []periodStats `json:"periods"`
}

type fullReport struct {
	Readings  int                 `json:"readings"`
	Trends    []trendEntry        `json:"trends"`
	Anomalies anomalyReport       `json:"anomalies"`
	TimeOfDay timeOfDayReport     `json:"time_of_day"`
	Summaries []analytics.Summary `json:"summaries"`
}

// load reads the input and applies --metric
func (o *options) load(cmd *cobra.Command) ([]health.Reading, error) {
	metric, err := o.metricFilter()
	if err != nil {
		return nil, err
	}
	readings, err := readReadings(o.file, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	return filterMetric(readings, metric), nil
}

func newTrendCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "trend",
		Short: "Fit a trend line per metric type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			readings, err := opts.load(cmd)
			if err != nil {
				return err
			}
			entries := computeTrends(readings)
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			printTrends(cmd.OutOrStdout(), entries)
			return nil
		},
	}
}

func newAnomaliesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "anomalies",
		Short: "List readings flagged as anomalous",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			detector, err := opts.detector()
			if err != nil {
				return err
			}
			readings, err := opts.load(cmd)
			if err != nil {
				return err
			}
			report := computeAnomalies(detector, readings)
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			printAnomalies(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func newTimeOfDayCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "timeofday",
		Aliases: []string{"time-of-day"},
		Short:   "Split readings into morning, afternoon and evening",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := opts.location()
			if err != nil {
				return err
			}
			readings, err := opts.load(cmd)
			if err != nil {
				return err
			}
			report := computeTimeOfDay(readings, loc, opts.timezone)
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			printTimeOfDay(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func newSummaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Descriptive statistics per metric type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			readings, err := opts.load(cmd)
			if err != nil {
				return err
			}
			summaries := analytics.Summarize(readings)
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), summaries)
			}
			printSummaries(cmd.OutOrStdout(), summaries)
			return nil
		},
	}
}

func newReportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print every statistic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			detector, err := opts.detector()
			if err != nil {
				return err
			}
			loc, err := opts.location()
			if err != nil {
				return err
			}
			readings, err := opts.load(cmd)
			if err != nil {
				return err
			}

			report := fullReport{
				Readings:  len(readings),
				Trends:    computeTrends(readings),
				Anomalies: computeAnomalies(detector, readings),
				TimeOfDay: computeTimeOfDay(readings, loc, opts.timezone),
				Summaries: analytics.Summarize(readings),
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), report)
			}

			w := cmd.OutOrStdout()
			printSummaries(w, report.Summaries)
			fmt.Fprintln(w)
			printTrends(w, report.Trends)
			fmt.Fprintln(w)
			printTimeOfDay(w, report.TimeOfDay)
			fmt.Fprintln(w)
			printAnomalies(w, report.Anomalies)
			return nil
		},
	}
}

// computeTrends fits one line per metric type
func computeTrends(readings []health.Reading) []trendEntry {
	entries := []trendEntry{}
	for _, m := range metricsPresent(readings) {
		entries = append(entries, trendEntry{
			MetricType: m,
			Result:     trend.Calculate(filterMetric(readings, m)),
		})
	}
	return entries
}

func computeAnomalies(detector *anomaly.Detector, readings []health.Reading) anomalyReport {
	results := detector.Detect(readings)
	report := anomalyReport{Analyzed: len(readings), Anomalies: []flagged{}}
	for _, r := range readings {
		if res, ok := results[r.ID]; ok && res.IsAnomaly {
			report.Anomalies = append(report.Anomalies, flagged{Reading: r, Result: res})
		}
	}
	sort.SliceStable(report.Anomalies, func(i, j int) bool {
		return report.Anomalies[i].Reading.RecordedAt.Before(report.Anomalies[j].Reading.RecordedAt)
	})
	return report
}

func computeTimeOfDay(readings []health.Reading, loc *time.Location, tz string) timeOfDayReport {
	buckets := timeofday.Filter(readings, loc)
	single := len(metricsPresent(readings)) == 1
	report := timeOfDayReport{Timezone: tz}
	for _, p := range timeofday.Periods() {
		group := buckets.Get(p)
		stats := periodStats{Period: p, Count: len(group)}
		if single && len(group) > 0 {
			mean := analytics.FromReadings(group).Mean()
			stats.Mean = &mean
		}
		report.Periods = append(report.Periods, stats)
	}
	return report
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var (
	heading = color.New(color.FgCyan, color.Bold).SprintFunc()
	gray    = color.New(color.FgHiBlack).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	red     = color.New(color.FgRed, color.Bold).SprintFunc()
)

func printTrends(w io.Writer, entries []trendEntry) {
	fmt.Fprintln(w, heading("Trends"))
	if len(entries) == 0 {
		fmt.Fprintln(w, gray("  no readings"))
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "  %-15s %s %-8s slope %+.3f  confidence %.2f  %s\n",
			e.MetricType, directionColor(e.Direction), e.Strength, e.Slope, e.Confidence,
			gray(fmt.Sprintf("(%d readings)", e.Points)))
	}
}

func directionColor(d trend.Direction) string {
	label := fmt.Sprintf("%-10s", d)
	switch d {
	case trend.DirectionIncreasing:
		return yellow(label)
	case trend.DirectionDecreasing:
		return green(label)
	default:
		return gray(label)
	}
}

func printAnomalies(w io.Writer, report anomalyReport) {
	fmt.Fprintf(w, "%s %s\n", heading("Anomalies"),
		gray(fmt.Sprintf("(%d of %d readings)", len(report.Anomalies), report.Analyzed)))
	if len(report.Anomalies) == 0 {
		fmt.Fprintln(w, green("  none"))
		return
	}
	for _, a := range report.Anomalies {
		fmt.Fprintf(w, "  %s  %-15s %-12s %s  z %.2f  %s\n",
			a.Reading.RecordedAt.Format(time.RFC3339), a.Reading.MetricType,
			formatValue(a.Reading), severityColor(a.Severity), a.ZScore, gray(string(a.Source)))
	}
}

func severityColor(s anomaly.Severity) string {
	label := fmt.Sprintf("%-6s", s)
	switch s {
	case anomaly.SeverityHigh:
		return red(label)
	case anomaly.SeverityMedium:
		return yellow(label)
	default:
		return label
	}
}

func printTimeOfDay(w io.Writer, report timeOfDayReport) {
	fmt.Fprintf(w, "%s %s\n", heading("Time of day"), gray("("+report.Timezone+")"))
	for _, p := range report.Periods {
		if p.Mean == nil {
			fmt.Fprintf(w, "  %-10s %4d\n", p.Period, p.Count)
			continue
		}
		fmt.Fprintf(w, "  %-10s %4d  mean %.2f\n", p.Period, p.Count, *p.Mean)
	}
}

func printSummaries(w io.Writer, summaries []analytics.Summary) {
	fmt.Fprintln(w, heading("Summary"))
	if len(summaries) == 0 {
		fmt.Fprintln(w, gray("  no readings"))
		return
	}
	for _, s := range summaries {
		fmt.Fprintf(w, "  %-15s n=%-4d min %.2f  max %.2f  mean %.2f  sd %.2f  latest %.2f %s\n",
			s.MetricType, s.Count, s.Min, s.Max, s.Mean, s.StdDev, s.Latest, s.Unit)
	}
}

func formatValue(r health.Reading) string {
	if r.MetricType == health.MetricBloodPressure && r.Systolic != nil && r.Diastolic != nil {
		return fmt.Sprintf("%g/%g", *r.Systolic, *r.Diastolic)
	}
	if r.Value != nil {
		return fmt.Sprintf("%g", *r.Value)
	}
	return "-"
}
