package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// Error codes for the commercial document and billing domain.
// Validation codes are the caller's fault and always recoverable by
// correcting input; persistence codes may be transient.
const (
	CodeNegativeMagnitude      = "NEGATIVE_MAGNITUDE"
	CodeOutOfRangeTaxRate      = "OUT_OF_RANGE_TAX_RATE"
	CodeEmptyDocument          = "EMPTY_DOCUMENT"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeDuplicateNumber        = "DUPLICATE_DOCUMENT_NUMBER"
	CodePartialItemReplacement = "PARTIAL_ITEM_REPLACEMENT"
	CodePersistenceFailed      = "PERSISTENCE_FAILED"
	CodeGovernanceViolation    = "GOVERNANCE_VIOLATION"
)
