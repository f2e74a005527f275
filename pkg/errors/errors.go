package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrConfiguration      = NewError("CONFIGURATION_ERROR", "configuration error", http.StatusUnprocessableEntity).AsFatal()
	ErrRemote             = NewError("REMOTE_ERROR", "remote service error", http.StatusBadGateway)
	ErrTransientRead      = NewError("TRANSIENT_READ_ERROR", "state could not be read", http.StatusServiceUnavailable)
	ErrNotFound           = NewError("NOT_FOUND", "resource not found", http.StatusNotFound)
	ErrValidation         = NewError("VALIDATION_ERROR", "validation failed", http.StatusBadRequest)
	ErrInternal           = NewError("INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
	ErrServiceUnavailable = NewError("SERVICE_UNAVAILABLE", "service unavailable", http.StatusServiceUnavailable)
)

type RetryableError interface {
	error
	IsRetryable() bool
}

type FatalError interface {
	error
	IsFatal() bool
}

type Error struct {
	Code      string
	Message   string
	Status    int
	Details   map[string]interface{}
	Cause     error
	retryable *bool
}

func NewError(code, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Status:  status,
		Details: make(map[string]interface{}),
	}
}

func (e *Error) Error() string {
	msg := e.Message

	if len(e.Details) > 0 {
		if detailMsg, ok := e.Details["message"].(string); ok && detailMsg != "" {
			msg = detailMsg
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Code so sentinel comparisons survive WithCause/WithDetail copies.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func (e *Error) IsRetryable() bool {
	if e.retryable != nil {
		return *e.retryable
	}
	if e.Cause != nil {
		var retryableErr RetryableError
		if errors.As(e.Cause, &retryableErr) {
			return retryableErr.IsRetryable()
		}
		var fatalErr FatalError
		if errors.As(e.Cause, &fatalErr) {
			return !fatalErr.IsFatal()
		}
	}
	return e.Code != ErrValidation.Code && e.Code != ErrNotFound.Code && e.Code != ErrConfiguration.Code
}

func (e *Error) IsFatal() bool {
	if e.retryable != nil {
		return !*e.retryable
	}

	if e.Cause != nil {
		var fatalErr FatalError
		if errors.As(e.Cause, &fatalErr) {
			return fatalErr.IsFatal()
		}
	}

	return e.Code == ErrValidation.Code || e.Code == ErrNotFound.Code || e.Code == ErrConfiguration.Code
}

func (e *Error) WithCause(cause error) *Error {
	err := e.clone()
	err.Cause = cause
	return err
}

func (e *Error) WithMessage(message string) *Error {
	err := e.clone()
	err.Message = message
	return err
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	err := e.clone()
	err.Details[key] = value
	return err
}

func (e *Error) WithDetails(details map[string]interface{}) *Error {
	err := e.clone()
	err.Details = details
	return err
}

func (e *Error) AsRetryable() *Error {
	err := e.clone()
	retryable := true
	err.retryable = &retryable
	return err
}

func (e *Error) AsFatal() *Error {
	err := e.clone()
	retryable := false
	err.retryable = &retryable
	return err
}

// clone copies the error and its detail map, so derived errors never share
// details with the sentinel they were built from.
func (e *Error) clone() *Error {
	err := *e
	err.Details = make(map[string]interface{}, len(e.Details))
	for k, v := range e.Details {
		err.Details[k] = v
	}
	return &err
}

// Detail returns a detail value, or nil when absent.
func (e *Error) Detail(key string) interface{} {
	if e.Details == nil {
		return nil
	}
	return e.Details[key]
}

func Wrap(err error, appErr *Error) *Error {
	if err == nil {
		return nil
	}
	return appErr.WithCause(err)
}

func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func hasCode(err error, code string) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}

func IsConfiguration(err error) bool {
	return hasCode(err, ErrConfiguration.Code)
}

func IsRemote(err error) bool {
	return hasCode(err, ErrRemote.Code)
}

func IsTransientRead(err error) bool {
	return hasCode(err, ErrTransientRead.Code)
}

func IsNotFound(err error) bool {
	return hasCode(err, ErrNotFound.Code)
}

func IsValidation(err error) bool {
	return hasCode(err, ErrValidation.Code)
}

func ToHTTPStatus(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

func ToErrorResponse(err error) map[string]interface{} {
	appErr, ok := As(err)
	if !ok {
		// If it's not our error type, wrap it
		appErr = ErrInternal.WithCause(err)
	}

	response := map[string]interface{}{
		"error":      appErr.Message,
		"error_code": appErr.Code,
	}

	if len(appErr.Details) > 0 {
		response["details"] = appErr.Details
	}

	return response
}
