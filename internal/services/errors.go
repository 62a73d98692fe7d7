// Package services provides the business logic layer between handlers and
// the store, queue and statistics packages.
package services

import "errors"

// Error codes returned in ServiceError.Code
const (
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeInvalidReading        = "INVALID_READING"
	CodeBatchTooLarge         = "BATCH_TOO_LARGE"
	CodeReadingNotFound       = "READING_NOT_FOUND"
	CodePublishFailed         = "PUBLISH_FAILED"
	CodeStoreFailed           = "STORE_FAILED"
	CodeUnsupportedConversion = "UNSUPPORTED_CONVERSION"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// ErrorCode returns the code of a wrapped ServiceError, or "" for other errors
func ErrorCode(err error) string {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	return ""
}
