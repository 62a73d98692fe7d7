package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/soltixdb/healthtrack/internal/health"
)

// listBody matches the body of GET /v1/users/:user/readings
type listBody struct {
	Readings []health.Reading `json:"readings"`
}

// readReadings loads readings from path ("-" is stdin)
func readReadings(path string, stdin io.Reader) ([]health.Reading, error) {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read readings: %w", err)
	}
	return decodeReadings(data)
}

// decodeReadings accepts a JSON array of readings or a list response body.
// Every reading is validated; the first invalid one aborts the load.
func decodeReadings(data []byte) ([]health.Reading, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("no readings in input")
	}

	var readings []health.Reading
	if data[0] == '[' {
		if err := json.Unmarshal(data, &readings); err != nil {
			return nil, fmt.Errorf("invalid readings JSON: %w", err)
		}
	} else {
		var body listBody
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, fmt.Errorf("invalid readings JSON: %w", err)
		}
		readings = body.Readings
	}

	seen := make(map[string]int, len(readings))
	for i, r := range readings {
		if r.ID == "" {
			continue
		}
		if first, ok := seen[r.ID]; ok {
			return nil, fmt.Errorf("reading %d: duplicate id %q (first used by reading %d)", i, r.ID, first)
		}
		seen[r.ID] = i
	}

	next := 1
	for i := range readings {
		if readings[i].ID == "" {
			readings[i].ID, next = unusedID(seen, i+1, next)
			seen[readings[i].ID] = i
		}
		if err := readings[i].Validate(); err != nil {
			return nil, fmt.Errorf("reading %d: %w", i, err)
		}
	}
	return readings, nil
}

// unusedID returns "reading-N" for the reading's position, or the next free
// suffix when that name is already taken in the input
func unusedID(seen map[string]int, position, next int) (string, int) {
	id := fmt.Sprintf("reading-%d", position)
	if _, taken := seen[id]; !taken {
		return id, next
	}
	for {
		id = fmt.Sprintf("reading-%d-%d", position, next)
		next++
		if _, taken := seen[id]; !taken {
			return id, next
		}
	}
}

// filterMetric keeps readings of one metric type; "" keeps everything
func filterMetric(readings []health.Reading, metric health.MetricType) []health.Reading {
	if metric == "" {
		return readings
	}
	out := make([]health.Reading, 0, len(readings))
	for _, r := range readings {
		if r.MetricType == metric {
			out = append(out, r)
		}
	}
	return out
}

// metricsPresent lists the metric types in readings in canonical order
func metricsPresent(readings []health.Reading) []health.MetricType {
	seen := make(map[health.MetricType]bool)
	for _, r := range readings {
		seen[r.MetricType] = true
	}
	var out []health.MetricType
	for _, m := range health.AllMetricTypes() {
		if seen[m] {
			out = append(out, m)
		}
	}
	return out
}
