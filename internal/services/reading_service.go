package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/soltixdb/healthtrack/internal/health"
	"github.com/soltixdb/healthtrack/internal/ingest"
	"github.com/soltixdb/healthtrack/internal/logging"
	"github.com/soltixdb/healthtrack/internal/models"
	"github.com/soltixdb/healthtrack/internal/queue"
	"github.com/soltixdb/healthtrack/internal/store"
	"github.com/soltixdb/healthtrack/internal/units"
	"github.com/soltixdb/healthtrack/internal/utils"
)

// ReadingService accepts readings onto the queue and serves stored readings
type ReadingService struct {
	logger        *logging.Logger
	publisher     queue.Publisher
	store         store.Store
	subjectPrefix string
	now           func() time.Time
}

// NewReadingService creates a new ReadingService
func NewReadingService(
	logger *logging.Logger,
	publisher queue.Publisher,
	st store.Store,
	subjectPrefix string,
) *ReadingService {
	return &ReadingService{
		logger:        logger,
		publisher:     publisher,
		store:         st,
		subjectPrefix: subjectPrefix,
		now:           time.Now,
	}
}

// Ingest validates the readings, assigns missing IDs and publishes them.
// Nothing is published unless every reading is valid. Publishing itself is
// not atomic: on a publish failure the error details carry how many
// readings were already queued.
func (s *ReadingService) Ingest(ctx context.Context, userID string, reqs []models.ReadingRequest) (*models.IngestResponse, error) {
	if userID == "" {
		return nil, NewServiceError(CodeInvalidRequest, "user is required")
	}
	if len(reqs) == 0 {
		return nil, NewServiceError(CodeInvalidRequest, "at least one reading is required")
	}
	if len(reqs) > utils.MaxBatchSize {
		return nil, NewServiceErrorWithDetails(CodeBatchTooLarge,
			fmt.Sprintf("batch exceeds %d readings", utils.MaxBatchSize),
			map[string]interface{}{"count": len(reqs), "max": utils.MaxBatchSize})
	}

	requestID := logging.RequestID(ctx)
	publishedAt := s.now().UTC()

	messages := make([]queue.Message, 0, len(reqs))
	ids := make([]string, 0, len(reqs))
	for i, req := range reqs {
		r, err := s.buildReading(userID, req)
		if err != nil {
			return nil, NewServiceErrorWithDetails(CodeInvalidReading, err.Error(),
				map[string]interface{}{"index": i})
		}

		data, err := ingest.ReadingMessage{
			Reading:     r,
			RequestID:   requestID,
			PublishedAt: publishedAt,
		}.Encode()
		if err != nil {
			return nil, NewServiceError(CodeInvalidReading, err.Error())
		}

		messages = append(messages, queue.Message{
			Subject: queue.ReadingSubject(s.subjectPrefix, r.MetricType),
			Key:     r.ID,
			Data:    data,
		})
		ids = append(ids, r.ID)
	}

	pubCtx, cancel := context.WithTimeout(ctx, utils.PublishTimeout)
	defer cancel()

	published, err := s.publisher.PublishBatch(pubCtx, messages)
	if err != nil {
		logging.ErrorCtx(ctx, "Failed to publish readings",
			"error", err,
			"published", published,
			"total", len(messages))
		return nil, NewServiceErrorWithDetails(CodePublishFailed, "Failed to publish readings",
			map[string]interface{}{"published": published, "total": len(messages)})
	}

	s.logger.Debug("Readings accepted", "user_id", userID, "count", published, "request_id", requestID)

	return &models.IngestResponse{
		Accepted:  published,
		IDs:       ids,
		RequestID: requestID,
	}, nil
}

// buildReading converts a request into a validated reading in its metric's
// canonical unit
func (s *ReadingService) buildReading(userID string, req models.ReadingRequest) (health.Reading, error) {
	metric, err := health.ParseMetricType(req.MetricType)
	if err != nil {
		return health.Reading{}, err
	}

	recordedAt := s.now().UTC()
	if req.RecordedAt != "" {
		recordedAt, err = time.Parse(time.RFC3339, req.RecordedAt)
		if err != nil {
			return health.Reading{}, fmt.Errorf("%w: recorded_at must be RFC3339", health.ErrInvalidReading)
		}
	}

	r := health.Reading{
		ID:         req.ID,
		UserID:     userID,
		MetricType: metric,
		Value:      req.Value,
		Systolic:   req.Systolic,
		Diastolic:  req.Diastolic,
		RecordedAt: recordedAt,
		Unit:       health.DefaultUnit(metric),
		Notes:      req.Notes,
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	if req.Unit != "" && req.Unit != r.Unit {
		if err := convertToCanonical(&r, req.Unit); err != nil {
			return health.Reading{}, err
		}
	}

	if err := r.Validate(); err != nil {
		return health.Reading{}, err
	}
	return r, nil
}

func convertToCanonical(r *health.Reading, from string) error {
	convert := func(v *float64) (*float64, error) {
		if v == nil {
			return nil, nil
		}
		out, err := units.Convert(*v, from, r.Unit)
		if err != nil {
			return nil, err
		}
		return health.Float(units.Round(out, 2)), nil
	}

	var err error
	if r.Value, err = convert(r.Value); err != nil {
		return fmt.Errorf("%w: %v", health.ErrInvalidReading, err)
	}
	if r.Systolic, err = convert(r.Systolic); err != nil {
		return fmt.Errorf("%w: %v", health.ErrInvalidReading, err)
	}
	if r.Diastolic, err = convert(r.Diastolic); err != nil {
		return fmt.Errorf("%w: %v", health.ErrInvalidReading, err)
	}
	return nil
}

// List returns stored readings matching the query
func (s *ReadingService) List(ctx context.Context, q *models.ReadingQuery) (*models.ReadingListResponse, error) {
	limit := q.Limit
	if limit == 0 {
		limit = utils.DefaultListLimit
	}

	readings, err := listReadings(ctx, s.store, q, limit)
	if err != nil {
		return nil, err
	}

	return &models.ReadingListResponse{
		UserID:   q.UserID,
		Readings: readings,
		Count:    len(readings),
	}, nil
}

// Get returns one stored reading
func (s *ReadingService) Get(ctx context.Context, userID, id string) (*health.Reading, error) {
	storeCtx, cancel := context.WithTimeout(ctx, utils.StoreTimeout)
	defer cancel()

	r, err := s.store.Get(storeCtx, userID, id)
	if err != nil {
		return nil, storeError(ctx, err, id)
	}
	return &r, nil
}

// Delete removes one stored reading
func (s *ReadingService) Delete(ctx context.Context, userID, id string) error {
	storeCtx, cancel := context.WithTimeout(ctx, utils.StoreTimeout)
	defer cancel()

	if err := s.store.Delete(storeCtx, userID, id); err != nil {
		return storeError(ctx, err, id)
	}
	logging.InfoCtx(ctx, "Reading deleted", "id", id)
	return nil
}

// listReadings runs a validated query against the store
func listReadings(ctx context.Context, st store.Store, q *models.ReadingQuery, limit int) ([]health.Reading, error) {
	storeCtx, cancel := context.WithTimeout(ctx, utils.StoreTimeout)
	defer cancel()

	readings, err := st.List(storeCtx, store.Query{
		UserID:     q.UserID,
		MetricType: q.MetricTypeParsed,
		Start:      q.StartParsed,
		End:        q.EndParsed,
		Limit:      limit,
	})
	if err != nil {
		return nil, storeError(ctx, err, "")
	}
	return readings, nil
}

func storeError(ctx context.Context, err error, id string) *ServiceError {
	if errors.Is(err, store.ErrNotFound) {
		return NewServiceErrorWithDetails(CodeReadingNotFound, "Reading not found",
			map[string]interface{}{"id": id})
	}
	logging.ErrorCtx(ctx, "Store operation failed", "error", err, "id", id)
	return NewServiceError(CodeStoreFailed, "Failed to access reading store")
}
