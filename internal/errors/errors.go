package errors

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	NotFound            ErrorCode = "not_found"
	Conflict            ErrorCode = "conflict"
	InvalidAmount       ErrorCode = "invalid_amount"
	InvalidTransfer     ErrorCode = "invalid_transfer"
	AccountInactive     ErrorCode = "account_inactive"
	InsufficientBalance ErrorCode = "insufficient_balance"
	InvalidInput        ErrorCode = "invalid_input"
	InternalError       ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus maps the error code to a response status. InternalError is the
// only code that signals a store/commit failure rather than a business-rule
// refusal; callers may retry those.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case InsufficientBalance:
		return http.StatusUnprocessableEntity
	case InvalidAmount, InvalidTransfer, AccountInactive, InvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// Predefined errors for common cases
var (
	ErrAccountNotFound     = NewAppError(NotFound, "account not found")
	ErrUserNotFound        = NewAppError(NotFound, "user not found")
	ErrTransactionNotFound = NewAppError(NotFound, "transaction not found")
	ErrDuplicateAccount    = NewAppError(Conflict, "account number already exists")
	ErrDuplicateUser       = NewAppError(Conflict, "email already registered")
	ErrDuplicateKey        = NewAppError(Conflict, "idempotency key already used")
	ErrInvalidAmount       = NewAppError(InvalidAmount, "amount must be positive")
	ErrSameAccountTransfer = NewAppError(InvalidTransfer, "source and target accounts must differ")
	ErrAccountInactive     = NewAppError(AccountInactive, "account status does not allow money movement")
	ErrInsufficientBalance = NewAppError(InsufficientBalance, "balance would fall below the minimum-balance floor")
)
