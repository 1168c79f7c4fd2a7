package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Email or password is not correct", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid or expired token", http.StatusUnauthorized)
}

func Forbidden(message string) *AppError {
	return New("AUTH_003", message, http.StatusForbidden)
}

// ---- Card Business Logic (CARD) ----

// NotFound names the missing key so callers can tell which lookup failed.
func NotFound(entity string, key any) *AppError {
	return New("CARD_001", fmt.Sprintf("%s not found by %v", entity, key), http.StatusNotFound)
}

func InvalidArgument(message string) *AppError {
	return New("CARD_002", message, http.StatusBadRequest)
}

func ErrInsufficientBalance() *AppError {
	return New("CARD_003", "On balance not enough money for transfer", http.StatusBadRequest)
}

func ErrCardNotActive() *AppError {
	return New("CARD_004", "Card status must be ACTIVE", http.StatusBadRequest)
}

func Conflict(message string) *AppError {
	return New("CARD_005", message, http.StatusConflict)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a CARD_002-style validation error.
func Validation(message string) *AppError {
	return New("CARD_002", message, http.StatusBadRequest)
}
