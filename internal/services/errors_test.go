package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestServiceError_Error(t *testing.T) {
	err := &ServiceError{
		Code:    CodeInvalidReading,
		Message: "blood pressure requires systolic and diastolic",
	}

	if err.Error() != "blood pressure requires systolic and diastolic" {
		t.Errorf("Expected message as error string, got '%s'", err.Error())
	}
}

func TestNewServiceErrorWithDetails(t *testing.T) {
	details := map[string]interface{}{"index": 2}
	err := NewServiceErrorWithDetails(CodeInvalidReading, "bad reading", details)

	if err.Code != CodeInvalidReading {
		t.Errorf("Expected code '%s', got '%s'", CodeInvalidReading, err.Code)
	}
	if err.Details["index"] != 2 {
		t.Errorf("Expected index detail 2, got %v", err.Details["index"])
	}

	data, marshalErr := json.Marshal(err)
	if marshalErr != nil {
		t.Fatalf("Failed to marshal: %v", marshalErr)
	}
	if !strings.Contains(string(data), `"details":{"index":2}`) {
		t.Errorf("Unexpected JSON: %s", data)
	}

	plain, _ := json.Marshal(NewServiceError(CodeStoreFailed, "x"))
	if strings.Contains(string(plain), "details") {
		t.Errorf("Expected details to be omitted: %s", plain)
	}
}

func TestErrorCode(t *testing.T) {
	wrapped := fmt.Errorf("ingest: %w", NewServiceError(CodePublishFailed, "queue down"))

	if code := ErrorCode(wrapped); code != CodePublishFailed {
		t.Errorf("Expected %s, got %q", CodePublishFailed, code)
	}
	if code := ErrorCode(fmt.Errorf("plain")); code != "" {
		t.Errorf("Expected empty code, got %q", code)
	}
}
