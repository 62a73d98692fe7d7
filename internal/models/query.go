package models

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/healthtrack/internal/analytics/timeofday"
	"github.com/soltixdb/healthtrack/internal/health"
	"github.com/soltixdb/healthtrack/internal/utils"
)

// dateLayout is accepted for start/end alongside RFC3339
const dateLayout = "2006-01-02"

// ReadingQuery represents the parsed query input shared by list and
// analysis endpoints
type ReadingQuery struct {
	UserID     string
	MetricType string
	Start      string // RFC3339 or YYYY-MM-DD, inclusive
	End        string // RFC3339 or YYYY-MM-DD, exclusive
	Limit      int    // 0 = endpoint default
	Timezone   string // IANA name or ±HH:MM, time-of-day only

	MetricTypeParsed health.MetricType
	StartParsed      time.Time
	EndParsed        time.Time
	Location         *time.Location
}

// Validate checks the query and fills the parsed fields. Dates without a
// time are interpreted in the query's timezone.
func (q *ReadingQuery) Validate(requireMetric bool) error {
	if q.UserID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "user is required")
	}

	if q.MetricType == "" {
		if requireMetric {
			return fiber.NewError(fiber.StatusBadRequest, "metric_type is required")
		}
	} else {
		m, err := health.ParseMetricType(q.MetricType)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		q.MetricTypeParsed = m
	}

	loc, err := timeofday.ParseLocation(q.Timezone)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "timezone: "+err.Error())
	}
	q.Location = loc

	if q.StartParsed, err = parseTime(q.Start, loc); err != nil {
		return fiber.NewError(fiber.StatusBadRequest,
			"start must be RFC3339 (e.g., 2006-01-02T15:04:05Z) or YYYY-MM-DD")
	}
	if q.EndParsed, err = parseTime(q.End, loc); err != nil {
		return fiber.NewError(fiber.StatusBadRequest,
			"end must be RFC3339 (e.g., 2006-01-02T15:04:05Z) or YYYY-MM-DD")
	}
	if !q.StartParsed.IsZero() && !q.EndParsed.IsZero() && !q.EndParsed.After(q.StartParsed) {
		return fiber.NewError(fiber.StatusBadRequest, "end must be after start")
	}

	if q.Limit < 0 || q.Limit > utils.MaxListLimit {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be between 0 and 10000")
	}

	return nil
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(dateLayout, s, loc)
}
