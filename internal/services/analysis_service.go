package services

import (
	"context"
	"sort"
	"time"

	"github.com/soltixdb/healthtrack/internal/analytics"
	"github.com/soltixdb/healthtrack/internal/analytics/anomaly"
	"github.com/soltixdb/healthtrack/internal/analytics/timeofday"
	"github.com/soltixdb/healthtrack/internal/analytics/trend"
	"github.com/soltixdb/healthtrack/internal/config"
	"github.com/soltixdb/healthtrack/internal/logging"
	"github.com/soltixdb/healthtrack/internal/models"
	"github.com/soltixdb/healthtrack/internal/store"
	"github.com/soltixdb/healthtrack/internal/utils"
)

// AnalysisService runs the statistics packages over stored readings
type AnalysisService struct {
	logger   *logging.Logger
	store    store.Store
	detector *anomaly.Detector
	location *time.Location
	timezone string
}

// NewAnalysisService creates a new AnalysisService. Detection thresholds and
// the default time-of-day timezone come from cfg.
func NewAnalysisService(logger *logging.Logger, st store.Store, cfg config.AnalysisConfig) *AnalysisService {
	detector := anomaly.NewDetector(anomaly.Config{
		Thresholds:       cfg.MetricThresholds(),
		DefaultThreshold: cfg.DefaultThreshold,
		MinReadings:      cfg.MinReadings,
		MinGroupSize:     cfg.MinGroupSize,
	})

	timezone := cfg.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	return &AnalysisService{
		logger:   logger,
		store:    st,
		detector: detector,
		location: cfg.Location(),
		timezone: timezone,
	}
}

// analysisLimit is the default number of readings analyzed per request
func analysisLimit(q *models.ReadingQuery) int {
	if q.Limit > 0 {
		return q.Limit
	}
	return utils.MaxListLimit
}

// Trend fits a trend through one metric type's readings
func (s *AnalysisService) Trend(ctx context.Context, q *models.ReadingQuery) (*models.TrendResponse, error) {
	if q.MetricTypeParsed == "" {
		return nil, NewServiceError(CodeInvalidRequest, "metric_type is required")
	}

	readings, err := listReadings(ctx, s.store, q, analysisLimit(q))
	if err != nil {
		return nil, err
	}

	result := trend.Calculate(readings)
	s.logger.Debug("Trend calculated",
		"user_id", q.UserID,
		"metric_type", q.MetricTypeParsed,
		"points", result.Points,
		"direction", result.Direction)

	return &models.TrendResponse{
		UserID:     q.UserID,
		MetricType: q.MetricTypeParsed,
		Trend:      result,
	}, nil
}

// Anomalies classifies the readings and lists the flagged ones by time
func (s *AnalysisService) Anomalies(ctx context.Context, q *models.ReadingQuery) (*models.AnomalyResponse, error) {
	readings, err := listReadings(ctx, s.store, q, analysisLimit(q))
	if err != nil {
		return nil, err
	}

	results := s.detector.Detect(readings)

	flagged := make([]models.AnomalyView, 0)
	for _, r := range readings {
		if res := results[r.ID]; res.IsAnomaly {
			flagged = append(flagged, models.AnomalyView{Reading: r, Result: res})
		}
	}
	sort.SliceStable(flagged, func(i, j int) bool {
		return flagged[i].Reading.RecordedAt.Before(flagged[j].Reading.RecordedAt)
	})

	if len(flagged) > 0 {
		logging.InfoCtx(ctx, "Anomalies detected",
			"analyzed", len(readings),
			"anomalies", len(flagged))
	}

	return &models.AnomalyResponse{
		UserID:    q.UserID,
		Analyzed:  len(readings),
		Results:   results,
		Anomalies: flagged,
	}, nil
}

// TimeOfDay buckets the readings by local hour. The query's timezone wins
// over the configured default.
func (s *AnalysisService) TimeOfDay(ctx context.Context, q *models.ReadingQuery) (*models.TimeOfDayResponse, error) {
	readings, err := listReadings(ctx, s.store, q, analysisLimit(q))
	if err != nil {
		return nil, err
	}

	loc, tz := s.location, s.timezone
	if q.Timezone != "" && q.Location != nil {
		loc, tz = q.Location, q.Timezone
	}

	buckets := timeofday.Filter(readings, loc)
	counts := make(map[string]int, 3)
	for _, p := range timeofday.Periods() {
		counts[string(p)] = len(buckets.Get(p))
	}

	return &models.TimeOfDayResponse{
		UserID:   q.UserID,
		Timezone: tz,
		Counts:   counts,
		Buckets:  buckets,
	}, nil
}

// Summary returns per-metric descriptive statistics
func (s *AnalysisService) Summary(ctx context.Context, q *models.ReadingQuery) (*models.SummaryResponse, error) {
	readings, err := listReadings(ctx, s.store, q, analysisLimit(q))
	if err != nil {
		return nil, err
	}

	return &models.SummaryResponse{
		UserID:    q.UserID,
		Summaries: analytics.Summarize(readings),
	}, nil
}
