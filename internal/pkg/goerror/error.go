package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound indicates that the requested resource could not be found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates that the request could not be completed due to a conflict.
	ErrConflict = errors.New("resource conflict")
)

// Type classifies errors into high-level buckets used by the application.
type Type int

const (
	// TypeServer represents server-side failures.
	TypeServer Type = iota
	// TypeBusiness represents business rule violations.
	TypeBusiness
	// TypeValidation represents input validation failures.
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code maps an error onto a transport status.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	CodeTimeout
	// CodeUnavailable indicates a downstream collaborator refused the work.
	CodeUnavailable
)

func (c Code) String() string {
	switch c {
	case CodeInvalidFormat:
		return "ERROR_CODE_INVALID_FORMAT"
	case CodeInvalidInput:
		return "ERROR_CODE_INVALID_INPUT"
	case CodeNotFound:
		return "ERROR_CODE_NOT_FOUND"
	case CodeConflict:
		return "ERROR_CODE_CONFLICT"
	case CodeTooManyRequest:
		return "ERROR_CODE_TOO_MANY_REQUESTS"
	case CodeUnauthorized:
		return "ERROR_CODE_UNAUTHORIZED"
	case CodeForbidden:
		return "ERROR_CODE_FORBIDDEN"
	case CodeTimeout:
		return "ERROR_CODE_TIMEOUT"
	case CodeUnavailable:
		return "ERROR_CODE_UNAVAILABLE"
	default:
		return "ERROR_CODE_INTERNAL"
	}
}

// Error is a structured error used across the application.
//
// Besides the wrapped cause it carries a user-facing message, a type, a
// transport code and an optional reason: a stable identifier clients branch on.
type Error struct {
	err     error
	msg     string
	reason  string
	notice  string
	errType Type
	code    Code
	fields  map[string]string
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}

	if e.msg != "" {
		return e.msg
	}

	switch e.errType {
	case TypeValidation:
		return "Validation violation"
	case TypeBusiness:
		return "Logical business not meet with requirement"
	default:
		return "Internal error"
	}
}

// String returns a verbose representation for logs.
func (e *Error) String() string {
	return fmt.Sprintf("Error Type: %s, Code: %s, Reason: %s, Message: %s, Underlying Error: %v",
		e.errType.String(), e.code.String(), e.reason, e.msg, e.err)
}

func (e *Error) Msg() string { return e.msg }

// Reason returns the stable identifier of the failure, empty when none was set.
func (e *Error) Reason() string { return e.reason }

// Notice returns the client screen key paired with the reason, if any.
func (e *Error) Notice() string { return e.notice }

func (e *Error) Type() Type { return e.errType }

func (e *Error) Code() Code { return e.code }

// Fields returns validation errors (field to message map), if any.
func (e *Error) Fields() map[string]string { return e.fields }

func (e *Error) Unwrap() error { return e.err }

// StatusCode maps the error code to an HTTP status code.
func (e *Error) StatusCode() int {
	switch e.code {
	case CodeInvalidFormat:
		return http.StatusBadRequest
	case CodeInvalidInput:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeTimeout:
		return http.StatusRequestTimeout
	case CodeTooManyRequest:
		return http.StatusTooManyRequests
	case CodeConflict:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewServer creates a server-type error with the provided error.
func NewServer(err error) error {
	return &Error{err: err, msg: "Internal server error", errType: TypeServer, code: CodeInternal}
}

// NewBusiness creates a business-type error with the specified message and code.
func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, errType: TypeBusiness, code: code}
}

// NewReason creates an error identified by a stable reason. Validation codes
// produce a validation-type error, everything else a business one.
func NewReason(reason, msg string, code Code) error {
	et := TypeBusiness
	if code == CodeInvalidInput || code == CodeInvalidFormat {
		et = TypeValidation
	}

	return &Error{msg: msg, reason: reason, errType: et, code: code}
}

// NewReasonNotice is NewReason with a notice key clients render for the failure.
func NewReasonNotice(reason, notice, msg string, code Code) error {
	err := NewReason(reason, msg, code).(*Error)
	err.notice = notice

	return err
}

// NewInvalidInput creates a validation error for invalid input with a message and underlying error.
// Without an error, kv is read as field/message pairs.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{err: err, msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput}
	}

	if len(kv)%2 != 0 {
		return &Error{msg: "Invalid request body", errType: TypeValidation, code: CodeInvalidFormat}
	}

	fields := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}

	return &Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput, fields: fields}
}

// NewInvalidFormat creates a validation error for an invalid request body format.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}

	return &Error{msg: msg, errType: TypeValidation, code: CodeInvalidFormat}
}

// ReasonOf extracts the reason of err, empty when err carries none.
func ReasonOf(err error) string {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.reason
	}

	return ""
}
