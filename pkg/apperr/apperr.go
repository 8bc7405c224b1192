package apperr

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeInvalidQuantity      Code = "INVALID_QUANTITY"
	CodeEmptyCart            Code = "EMPTY_CART"
	CodeItemNotFound         Code = "ITEM_NOT_FOUND"
	CodeInvalidTransition    Code = "INVALID_TRANSITION"
	CodeInvalidArgument      Code = "INVALID_ARGUMENT"
	CodeUnauthorized         Code = "UNAUTHORIZED"
	CodeUnauthenticated      Code = "UNAUTHENTICATED"
	CodeProductUnavailable   Code = "PRODUCT_UNAVAILABLE"
	CodeProductRemoved       Code = "PRODUCT_REMOVED"
	CodeInsufficientStock    Code = "INSUFFICIENT_STOCK"
	CodeOrderAlreadyTerminal Code = "ORDER_ALREADY_TERMINAL"
	CodeReportNotDeletable   Code = "REPORT_NOT_DELETABLE"
	CodeStateConflict        Code = "STATE_CONFLICT"
	CodeDuplicateRequest     Code = "DUPLICATE_REQUEST"
	CodeNotFound             Code = "NOT_FOUND"
	CodeInternal             Code = "INTERNAL"
)

// Kind groups codes by how a caller is expected to react.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConflict      Kind = "conflict"
	KindAuthorization Kind = "authorization"
	KindResourceState Kind = "resource_state"
	KindNotFound      Kind = "not_found"
	KindInternal      Kind = "internal"
)

var kinds = map[Code]Kind{
	CodeInvalidQuantity:      KindValidation,
	CodeEmptyCart:            KindValidation,
	CodeItemNotFound:         KindValidation,
	CodeInvalidTransition:    KindValidation,
	CodeInvalidArgument:      KindValidation,
	CodeUnauthorized:         KindAuthorization,
	CodeUnauthenticated:      KindAuthorization,
	CodeProductUnavailable:   KindResourceState,
	CodeProductRemoved:       KindResourceState,
	CodeInsufficientStock:    KindResourceState,
	CodeOrderAlreadyTerminal: KindResourceState,
	CodeReportNotDeletable:   KindResourceState,
	CodeStateConflict:        KindConflict,
	CodeDuplicateRequest:     KindConflict,
	CodeNotFound:             KindNotFound,
	CodeInternal:             KindInternal,
}

// Error is the typed failure returned by every core operation.
type Error struct {
	Code      Code
	Message   string
	ProductID string
	Available *int
	Retryable bool
}

func (e *Error) Error() string {
	if e.ProductID != "" {
		return fmt.Sprintf("%s: %s (product %s)", e.Code, e.Message, e.ProductID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Kind() Kind {
	if k, ok := kinds[e.Code]; ok {
		return k
	}
	return KindInternal
}

// Is matches any *Error carrying the same code, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrInvalidQuantity      = &Error{Code: CodeInvalidQuantity, Message: "quantity must be at least 1"}
	ErrEmptyCart            = &Error{Code: CodeEmptyCart, Message: "cart is empty"}
	ErrItemNotFound         = &Error{Code: CodeItemNotFound, Message: "item not in cart"}
	ErrInvalidTransition    = &Error{Code: CodeInvalidTransition, Message: "invalid state transition"}
	ErrInvalidArgument      = &Error{Code: CodeInvalidArgument, Message: "invalid argument"}
	ErrUnauthorized         = &Error{Code: CodeUnauthorized, Message: "actor not allowed to perform this action"}
	ErrUnauthenticated      = &Error{Code: CodeUnauthenticated, Message: "missing or invalid credentials"}
	ErrProductUnavailable   = &Error{Code: CodeProductUnavailable, Message: "product is not available"}
	ErrProductRemoved       = &Error{Code: CodeProductRemoved, Message: "product no longer exists"}
	ErrInsufficientStock    = &Error{Code: CodeInsufficientStock, Message: "insufficient stock"}
	ErrOrderAlreadyTerminal = &Error{Code: CodeOrderAlreadyTerminal, Message: "order is in a terminal state"}
	ErrReportNotDeletable   = &Error{Code: CodeReportNotDeletable, Message: "only resolved reports can be deleted"}
	ErrStateConflict        = &Error{Code: CodeStateConflict, Message: "state changed concurrently", Retryable: true}
	ErrDuplicateRequest     = &Error{Code: CodeDuplicateRequest, Message: "request already processed"}
	ErrNotFound             = &Error{Code: CodeNotFound, Message: "not found"}
)

func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Retryable: kinds[code] == KindConflict && code != CodeDuplicateRequest}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func ProductUnavailable(productID string) *Error {
	return &Error{Code: CodeProductUnavailable, Message: "product is not available", ProductID: productID}
}

func ProductRemoved(productID string) *Error {
	return &Error{Code: CodeProductRemoved, Message: "product no longer exists", ProductID: productID}
}

// InsufficientStock reports the live stock so callers can offer the maximum
// purchasable quantity. retryable marks a stock race detected at commit time.
func InsufficientStock(productID string, available int, retryable bool) *Error {
	return &Error{
		Code:      CodeInsufficientStock,
		Message:   fmt.Sprintf("only %d left in stock", available),
		ProductID: productID,
		Available: &available,
		Retryable: retryable,
	}
}

// From extracts the *Error from err's chain, wrapping anything else as INTERNAL.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: CodeInternal, Message: "internal error"}
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return From(err).Code
}
