// Package ingest moves published readings from the queue into the store.
package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/soltixdb/healthtrack/internal/health"
)

// ReadingMessage is the queue payload for one accepted reading
type ReadingMessage struct {
	Reading     health.Reading `json:"reading"`
	RequestID   string         `json:"request_id,omitempty"`
	PublishedAt time.Time      `json:"published_at"`
}

// Encode marshals a message for publishing
func (m ReadingMessage) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reading message: %w", err)
	}
	return data, nil
}

// DecodeMessage parses a queue payload
func DecodeMessage(data []byte) (ReadingMessage, error) {
	var m ReadingMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to parse reading message: %w", err)
	}
	return m, nil
}
