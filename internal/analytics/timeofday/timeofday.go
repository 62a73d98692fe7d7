// Package timeofday splits readings into morning, afternoon and evening
// buckets by the local hour they were recorded.
package timeofday

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/soltixdb/healthtrack/internal/health"
)

// Period names a bucket
type Period string

const (
	Morning   Period = "morning"   // [05:00, 12:00)
	Afternoon Period = "afternoon" // [12:00, 18:00)
	Evening   Period = "evening"   // [18:00, 05:00)
)

// Periods returns the periods in day order
func Periods() []Period {
	return []Period{Morning, Afternoon, Evening}
}

const (
	morningStart   = 5
	afternoonStart = 12
	eveningStart   = 18
)

// Buckets holds the partitioned readings. Each reading appears in exactly
// one bucket and input order is kept within a bucket.
type Buckets struct {
	Morning   []health.Reading `json:"morning"`
	Afternoon []health.Reading `json:"afternoon"`
	Evening   []health.Reading `json:"evening"`
}

// Len returns the total number of readings across all buckets
func (b Buckets) Len() int {
	return len(b.Morning) + len(b.Afternoon) + len(b.Evening)
}

// Get returns the bucket for a period
func (b Buckets) Get(p Period) []health.Reading {
	switch p {
	case Morning:
		return b.Morning
	case Afternoon:
		return b.Afternoon
	default:
		return b.Evening
	}
}

// PeriodOf returns the bucket for a timestamp in loc (UTC when nil)
func PeriodOf(t time.Time, loc *time.Location) Period {
	if loc == nil {
		loc = time.UTC
	}
	hour := t.In(loc).Hour()
	switch {
	case hour >= morningStart && hour < afternoonStart:
		return Morning
	case hour >= afternoonStart && hour < eveningStart:
		return Afternoon
	default:
		return Evening
	}
}

// Filter partitions readings by the hour of RecordedAt in loc
func Filter(readings []health.Reading, loc *time.Location) Buckets {
	b := Buckets{
		Morning:   []health.Reading{},
		Afternoon: []health.Reading{},
		Evening:   []health.Reading{},
	}
	for _, r := range readings {
		switch PeriodOf(r.RecordedAt, loc) {
		case Morning:
			b.Morning = append(b.Morning, r)
		case Afternoon:
			b.Afternoon = append(b.Afternoon, r)
		default:
			b.Evening = append(b.Evening, r)
		}
	}
	return b
}

var offsetPattern = regexp.MustCompile(`^([+-])(\d{2}):(\d{2})$`)

// ParseLocation accepts an IANA name ("Asia/Tokyo") or a fixed offset
// ("+09:00", "-05:30"). Empty means UTC.
func ParseLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}

	if loc, err := time.LoadLocation(name); err == nil {
		return loc, nil
	}

	matches := offsetPattern.FindStringSubmatch(name)
	if len(matches) != 4 {
		return nil, fmt.Errorf("invalid timezone: %s", name)
	}

	sign := 1
	if matches[1] == "-" {
		sign = -1
	}
	hours, _ := strconv.Atoi(matches[2])
	minutes, _ := strconv.Atoi(matches[3])
	if hours > 14 || minutes > 59 {
		return nil, fmt.Errorf("invalid timezone offset: %s", name)
	}

	return time.FixedZone(name, sign*(hours*3600+minutes*60)), nil
}
