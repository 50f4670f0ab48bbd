package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates the request conflicts with dependent state (e.g. deleting a violation that has a fine).
var ErrConflict = errors.New("resource conflict")

// ErrForbidden indicates the actor may not perform the action.
var ErrForbidden = errors.New("forbidden")

// Lifecycle errors.
var (
	// ErrInvalidTransition is returned when the state machine rejects the requested move.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrAlreadyInState is returned when the record is already in the requested state.
	// It lets callers tell a repeated request apart from an illegal one.
	ErrAlreadyInState = errors.New("already in target state")

	// ErrOverpayment is returned when a payment would push paidAmount above totalAmount.
	ErrOverpayment = errors.New("payment exceeds outstanding balance")

	// ErrConcurrentModification is returned when an update lost a race on the same record.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrBatchTooLarge is returned when a bulk request exceeds the configured cap.
	ErrBatchTooLarge = errors.New("batch too large")

	// ErrGatewayVerificationFailed is returned on signature/amount mismatch or an unreachable gateway.
	ErrGatewayVerificationFailed = errors.New("gateway verification failed")

	// ErrIntegrationAlreadyCompleted is returned on a second billing bridge attempt for the same fine.
	ErrIntegrationAlreadyCompleted = errors.New("billing integration already completed")
)

// AppError carries an HTTP-ish code alongside a wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError. err may be nil.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

type kindEntry struct {
	err    error
	kind   string
	status int
}

// Order matters: the first match wins, so more specific kinds come first.
var kinds = []kindEntry{
	{ErrConcurrentModification, "concurrent_modification", http.StatusConflict},
	{ErrOverpayment, "overpayment", http.StatusUnprocessableEntity},
	{ErrAlreadyInState, "already_in_state", http.StatusConflict},
	{ErrInvalidTransition, "invalid_transition", http.StatusConflict},
	{ErrBatchTooLarge, "batch_too_large", http.StatusRequestEntityTooLarge},
	{ErrGatewayVerificationFailed, "gateway_verification_failed", http.StatusPaymentRequired},
	{ErrIntegrationAlreadyCompleted, "integration_already_completed", http.StatusConflict},
	{ErrNotFound, "not_found", http.StatusNotFound},
	{ErrValidation, "validation", http.StatusBadRequest},
	{ErrDuplicate, "duplicate", http.StatusConflict},
	{ErrConflict, "conflict", http.StatusConflict},
	{ErrForbidden, "forbidden", http.StatusForbidden},
}

// Kind returns a stable machine-readable kind for err, or "internal" when unknown.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.status
		}
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
