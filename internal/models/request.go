package models

// ReadingRequest represents a single reading in an ingest request.
// ID is optional; the server assigns a UUID when it is empty.
type ReadingRequest struct {
	ID         string   `json:"id,omitempty"`
	MetricType string   `json:"metric_type" validate:"required"`
	Value      *float64 `json:"value,omitempty"`
	Systolic   *float64 `json:"systolic,omitempty"`
	Diastolic  *float64 `json:"diastolic,omitempty"`
	RecordedAt string   `json:"recorded_at" validate:"required"` // RFC3339
	Unit       string   `json:"unit,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// BatchReadingRequest represents a batch ingest request
type BatchReadingRequest struct {
	Readings []ReadingRequest `json:"readings" validate:"required,min=1"`
}
