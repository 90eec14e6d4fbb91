package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// ErrorKind classifies domain errors by how they are handled.
type ErrorKind string

const (
	// KindValidation is a precondition that failed before any gateway call.
	KindValidation ErrorKind = "validation"
	// KindGateway is a failed call to the remote data gateway.
	KindGateway ErrorKind = "gateway"
	// KindConflict is a failed re-check-then-act guard.
	KindConflict ErrorKind = "conflict"
	// KindPartial is a multi-step sequence that stopped after some steps were applied.
	KindPartial ErrorKind = "partial"
	// KindNotFound is a missing resource.
	KindNotFound ErrorKind = "not_found"
	// KindUnauthorised is a missing or invalid session.
	KindUnauthorised ErrorKind = "unauthorised"
)

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeMissingField        = "MISSING_FIELD"
	ErrCodeInvalidQuantity     = "INVALID_QUANTITY"
	ErrCodeProductNotFound     = "PRODUCT_NOT_FOUND"
	ErrCodeProductUnavailable  = "PRODUCT_UNAVAILABLE"
	ErrCodeLineNotFound        = "CART_LINE_NOT_FOUND"
	ErrCodeNotAuthenticated    = "NOT_AUTHENTICATED"
	ErrCodeMissingSession      = "MISSING_SESSION"
	ErrCodeAddressRequired     = "ADDRESS_REQUIRED"
	ErrCodeAddressNotFound     = "ADDRESS_NOT_FOUND"
	ErrCodeAddressInvalid      = "ADDRESS_INVALID"
	ErrCodeCartEmpty           = "CART_EMPTY"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodeOrderNotOwned       = "ORDER_NOT_OWNED"
	ErrCodeOrderNotPending     = "ORDER_NOT_PENDING"
	ErrCodeAddFailed           = "ADD_FAILED"
	ErrCodeUpdateFailed        = "UPDATE_FAILED"
	ErrCodeRemoveFailed        = "REMOVE_FAILED"
	ErrCodeClearFailed         = "CLEAR_FAILED"
	ErrCodeLoadFailed          = "CART_LOAD_FAILED"
	ErrCodeCheckoutFailed      = "CHECKOUT_FAILED"
	ErrCodeCheckoutPartial     = "CHECKOUT_PARTIAL"
	ErrCodeCancelFailed        = "CANCEL_FAILED"
	ErrCodeMergeFailed         = "MERGE_FAILED"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeGuestSessionMissing = "GUEST_SESSION_MISSING"
)

// DomainError is a business-level error carrying a user-facing message.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches domain errors by code so that copies made by WithCause still match
// their sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of e wrapping cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := *e
	c.Err = cause
	return &c
}

// WithMessage returns a copy of e with a different user-facing message.
func (e *DomainError) WithMessage(message string) *DomainError {
	c := *e
	c.Message = message
	return &c
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Validation errors, raised before any gateway call.
var (
	ErrInvalidQuantity    = NewDomainError(KindValidation, ErrCodeInvalidQuantity, MsgInvalidQuantity)
	ErrQuantityTooLarge   = ErrInvalidQuantity.WithMessage(MsgQuantityTooLarge)
	ErrProductUnavailable = NewDomainError(KindValidation, ErrCodeProductUnavailable, MsgProductUnavailable)
	ErrLineNotFound       = NewDomainError(KindValidation, ErrCodeLineNotFound, MsgLineNotFound)
	ErrNotAuthenticated   = NewDomainError(KindValidation, ErrCodeNotAuthenticated, MsgNotAuthenticated)
	ErrAddressRequired    = NewDomainError(KindValidation, ErrCodeAddressRequired, MsgAddressRequired)
	ErrAddressNotFound    = NewDomainError(KindValidation, ErrCodeAddressNotFound, MsgAddressNotFound)
	ErrAddressInvalid     = NewDomainError(KindValidation, ErrCodeAddressInvalid, MsgAddressInvalid)
	ErrCartEmpty          = NewDomainError(KindValidation, ErrCodeCartEmpty, MsgCartEmpty)
	ErrGuestSession       = NewDomainError(KindValidation, ErrCodeGuestSessionMissing, MsgGuestSessionMissing)
)

// Lookup and session errors.
var (
	ErrProductNotFound = NewDomainError(KindNotFound, ErrCodeProductNotFound, MsgProductNotFound)
	ErrOrderNotFound   = NewDomainError(KindNotFound, ErrCodeOrderNotFound, MsgOrderNotFound)
	ErrMissingSession  = NewDomainError(KindUnauthorised, ErrCodeMissingSession, MsgMissingSession)
)

// Consistency conflicts.
var (
	ErrOrderNotOwned   = NewDomainError(KindConflict, ErrCodeOrderNotOwned, MsgOrderNotOwned)
	ErrOrderNotPending = NewDomainError(KindConflict, ErrCodeOrderNotPending, MsgOrderNotPending)
)

// Gateway failures, one per operation so the user sees which action failed.
var (
	ErrAddFailed      = NewDomainError(KindGateway, ErrCodeAddFailed, MsgAddFailed)
	ErrUpdateFailed   = NewDomainError(KindGateway, ErrCodeUpdateFailed, MsgUpdateFailed)
	ErrRemoveFailed   = NewDomainError(KindGateway, ErrCodeRemoveFailed, MsgRemoveFailed)
	ErrClearFailed    = NewDomainError(KindGateway, ErrCodeClearFailed, MsgClearFailed)
	ErrLoadFailed     = NewDomainError(KindGateway, ErrCodeLoadFailed, MsgLoadFailed)
	ErrCheckoutFailed = NewDomainError(KindGateway, ErrCodeCheckoutFailed, MsgCheckoutFailed)
	ErrCancelFailed   = NewDomainError(KindGateway, ErrCodeCancelFailed, MsgCancelFailed)
	ErrMergeFailed    = NewDomainError(KindGateway, ErrCodeMergeFailed, MsgMergeFailed)
)

// ErrCheckoutPartial reports a checkout whose rollback did not complete.
var ErrCheckoutPartial = NewDomainError(KindPartial, ErrCodeCheckoutPartial, MsgCheckoutPartial)
