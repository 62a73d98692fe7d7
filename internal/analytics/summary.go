package analytics

import (
	"sort"
	"time"

	"github.com/soltixdb/healthtrack/internal/health"
)

// Summary holds descriptive statistics for one metric type
type Summary struct {
	MetricType      health.MetricType `json:"metric_type"`
	Unit            string            `json:"unit"`
	Count           int               `json:"count"`
	Min             float64           `json:"min"`
	Max             float64           `json:"max"`
	Mean            float64           `json:"mean"`
	StdDev          float64           `json:"std_dev"`
	Latest          float64           `json:"latest"`
	FirstRecordedAt time.Time         `json:"first_recorded_at"`
	LastRecordedAt  time.Time         `json:"last_recorded_at"`
}

// Summarize computes a Summary per metric type present in readings, ordered
// by metric type. Blood pressure is summarized on systolic.
func Summarize(readings []health.Reading) []Summary {
	groups := make(map[health.MetricType][]health.Reading)
	for _, r := range readings {
		groups[r.MetricType] = append(groups[r.MetricType], r)
	}

	summaries := make([]Summary, 0, len(groups))
	for metric, group := range groups {
		summaries = append(summaries, summarizeGroup(metric, group))
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].MetricType < summaries[j].MetricType
	})
	return summaries
}

func summarizeGroup(metric health.MetricType, group []health.Reading) Summary {
	series := FromReadings(group).SortedByTime()
	first, last := series[0], series[len(series)-1]

	s := Summary{
		MetricType:      metric,
		Unit:            health.DefaultUnit(metric),
		Count:           len(series),
		Min:             first.Value,
		Max:             first.Value,
		Mean:            series.Mean(),
		StdDev:          series.PopulationStdDev(),
		Latest:          last.Value,
		FirstRecordedAt: first.Time,
		LastRecordedAt:  last.Time,
	}
	for _, p := range series[1:] {
		if p.Value < s.Min {
			s.Min = p.Value
		}
		if p.Value > s.Max {
			s.Max = p.Value
		}
	}
	return s
}
