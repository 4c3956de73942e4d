package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain errors for callers that translate them into
// transport responses.
type ErrorKind string

const (
	KindValidation      ErrorKind = "VALIDATION"
	KindNotFound        ErrorKind = "NOT_FOUND"
	KindConflict        ErrorKind = "CONFLICT"
	KindRateUnavailable ErrorKind = "RATE_UNAVAILABLE"
	KindConcurrency     ErrorKind = "CONCURRENCY"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches two domain errors by code, so a detailed error created with
// Newf still satisfies errors.Is against the package sentinel.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Newf returns a copy of the sentinel with a formatted message.
func (e *DomainError) Newf(format string, args ...any) *DomainError {
	return &DomainError{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap returns a copy of the sentinel carrying cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return &DomainError{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: e.Message,
		Err:     cause,
	}
}

// KindOf returns the kind of the first DomainError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries a DomainError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Common domain errors
var (
	ErrInvalidInput = NewDomainError(KindValidation, "INVALID_INPUT", "Invalid input provided")
	ErrNotFound     = NewDomainError(KindNotFound, "NOT_FOUND", "Resource not found")
	ErrConflict     = NewDomainError(KindConflict, "CONFLICT", "Operation conflicts with current state")

	ErrTenantNotFound     = NewDomainError(KindNotFound, "TENANT_NOT_FOUND", "Tenant not found")
	ErrProductNotFound    = NewDomainError(KindNotFound, "PRODUCT_NOT_FOUND", "Stock item not found")
	ErrSaleNotFound       = NewDomainError(KindNotFound, "SALE_NOT_FOUND", "Sale not found")
	ErrRefundNotFound     = NewDomainError(KindNotFound, "REFUND_NOT_FOUND", "Refund not found")
	ErrInvalidRefundLine  = NewDomainError(KindNotFound, "INVALID_REFUND_LINE", "Line item does not belong to the sale")
	ErrInsufficientStock  = NewDomainError(KindConflict, "INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrOverRefund         = NewDomainError(KindConflict, "OVER_REFUND", "Refund quantity exceeds refundable quantity")
	ErrPaymentMismatch    = NewDomainError(KindConflict, "PAYMENT_MISMATCH", "Payment total does not match sale total")
	ErrRateUnavailable    = NewDomainError(KindRateUnavailable, "RATE_UNAVAILABLE", "No exchange rate could be determined")
	ErrConcurrency        = NewDomainError(KindConcurrency, "CONCURRENCY_CONFLICT", "Resource is locked by another transaction")
	ErrUnknownCurrency    = NewDomainError(KindValidation, "UNKNOWN_CURRENCY", "Unknown currency code")
	ErrUnknownEntityKind  = NewDomainError(KindValidation, "UNKNOWN_ENTITY_KIND", "Unknown sequence entity kind")
	ErrDuplicateStockItem = NewDomainError(KindConflict, "DUPLICATE_SKU", "A stock item with this SKU already exists")
)

// ErrLockContention marks a transient datastore failure (lock timeout,
// deadlock, serialization failure) that may succeed when retried.
var ErrLockContention = errors.New("lock contention")
