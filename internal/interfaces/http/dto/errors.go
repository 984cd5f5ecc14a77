package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation        = "ERR_VALIDATION"
	ErrCodeNegativeMagnitude = "ERR_VALIDATION_NEGATIVE_MAGNITUDE"
	ErrCodeOutOfRangeTaxRate = "ERR_VALIDATION_TAX_RATE_RANGE"
	ErrCodeEmptyDocument     = "ERR_VALIDATION_EMPTY_DOCUMENT"
	ErrCodeInvalidDiscount   = "ERR_VALIDATION_DISCOUNT_RANGE"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeDuplicateNumber     = "ERR_DUPLICATE_DOCUMENT_NUMBER"
)

// Business rule error codes
const (
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodeInvalidTransition   = "ERR_INVALID_TRANSITION"
	ErrCodeGovernanceViolation = "ERR_GOVERNANCE_VIOLATION"
)

// Persistence error codes
const (
	ErrCodePersistenceFailed      = "ERR_PERSISTENCE_FAILED"
	ErrCodePartialItemReplacement = "ERR_PARTIAL_ITEM_REPLACEMENT"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:        http.StatusBadRequest,
	ErrCodeNegativeMagnitude: http.StatusBadRequest,
	ErrCodeOutOfRangeTaxRate: http.StatusBadRequest,
	ErrCodeEmptyDocument:     http.StatusBadRequest,
	ErrCodeInvalidDiscount:   http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeDuplicateNumber:     http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeInvalidTransition:   http.StatusUnprocessableEntity,
	ErrCodeGovernanceViolation: http.StatusUnprocessableEntity,

	// Persistence errors -> 500; the save was rolled back, nothing applied
	ErrCodePersistenceFailed:      http.StatusInternalServerError,
	ErrCodePartialItemReplacement: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":                 ErrCodeNotFound,
	"ALREADY_EXISTS":            ErrCodeAlreadyExists,
	"INVALID_INPUT":             ErrCodeInvalidInput,
	"INVALID_STATE":             ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT":      ErrCodeConcurrencyConflict,
	"NEGATIVE_MAGNITUDE":        ErrCodeNegativeMagnitude,
	"OUT_OF_RANGE_TAX_RATE":     ErrCodeOutOfRangeTaxRate,
	"EMPTY_DOCUMENT":            ErrCodeEmptyDocument,
	"INVALID_DISCOUNT":          ErrCodeInvalidDiscount,
	"INVALID_TRANSITION":        ErrCodeInvalidTransition,
	"DUPLICATE_DOCUMENT_NUMBER": ErrCodeDuplicateNumber,
	"PARTIAL_ITEM_REPLACEMENT":  ErrCodePartialItemReplacement,
	"PERSISTENCE_FAILED":        ErrCodePersistenceFailed,
	"GOVERNANCE_VIOLATION":      ErrCodeGovernanceViolation,
	"BAD_REQUEST":               ErrCodeBadRequest,
	"INTERNAL_ERROR":            ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Unmapped domain codes (INVALID_NUMBER, INVALID_COUNTERPARTY and friends)
// are always input validation failures, so they pass through and the
// handler treats them as 400.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}

// StatusForDomainCode resolves the HTTP status for a normalized code,
// defaulting unmapped domain codes to 400 rather than 500
func StatusForDomainCode(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusBadRequest
}
