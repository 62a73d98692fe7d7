package models

import (
	"github.com/soltixdb/healthtrack/internal/analytics"
	"github.com/soltixdb/healthtrack/internal/analytics/anomaly"
	"github.com/soltixdb/healthtrack/internal/analytics/timeofday"
	"github.com/soltixdb/healthtrack/internal/analytics/trend"
	"github.com/soltixdb/healthtrack/internal/health"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// IngestResponse is returned once readings are accepted onto the queue
type IngestResponse struct {
	Accepted  int      `json:"accepted"`
	IDs       []string `json:"ids"`
	RequestID string   `json:"request_id"`
}

// ReadingListResponse represents list readings response
type ReadingListResponse struct {
	UserID   string           `json:"user_id"`
	Readings []health.Reading `json:"readings"`
	Count    int              `json:"count"`
}

// TrendResponse represents trend response
type TrendResponse struct {
	UserID     string            `json:"user_id"`
	MetricType health.MetricType `json:"metric_type"`
	Trend      trend.Result      `json:"trend"`
}

// AnomalyView is a flagged reading with its classification
type AnomalyView struct {
	Reading health.Reading `json:"reading"`
	anomaly.Result
}

// AnomalyResponse represents anomalies response.
// Results covers every analyzed reading; Anomalies lists only flagged ones.
type AnomalyResponse struct {
	UserID    string                    `json:"user_id"`
	Analyzed  int                       `json:"analyzed"`
	Results   map[string]anomaly.Result `json:"results"`
	Anomalies []AnomalyView             `json:"anomalies"`
}

// TimeOfDayResponse represents the time-of-day buckets response
type TimeOfDayResponse struct {
	UserID   string            `json:"user_id"`
	Timezone string            `json:"timezone"`
	Counts   map[string]int    `json:"counts"`
	Buckets  timeofday.Buckets `json:"buckets"`
}

// SummaryResponse represents per-metric summary response
type SummaryResponse struct {
	UserID    string              `json:"user_id"`
	Summaries []analytics.Summary `json:"summaries"`
}

// ConvertResponse represents a unit conversion result
type ConvertResponse struct {
	Value  float64 `json:"value"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Result float64 `json:"result"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
