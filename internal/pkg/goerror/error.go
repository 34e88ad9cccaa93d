// Package goerror carries the application's classified errors. Usecases
// return them and the router turns them into status codes and envelopes.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels returned by outbound adapters. Usecases translate them.
var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource conflict")
)

// Type classifies an error by who is at fault.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

var typeNames = [...]string{
	TypeServer:     "ERROR_TYPE_SERVER",
	TypeBusiness:   "ERROR_TYPE_BUSINESS",
	TypeValidation: "ERROR_TYPE_VALIDATION",
}

var typeFallbackMsg = [...]string{
	TypeServer:     "Internal error",
	TypeBusiness:   "Logical business not meet with requirement",
	TypeValidation: "Validation violation",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "ERROR_TYPE_UNKNOWN"
	}
	return typeNames[t]
}

// Code is the stable identifier the router maps to an HTTP status.
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
	CodeUnsupportedMediaType
)

var codes = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:             {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:        {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:         {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:             {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:             {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeTooManyRequest:       {"ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeUnauthorized:         {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeForbidden:            {"ERROR_CODE_FORBIDDEN", http.StatusForbidden},
	CodeTimeout:              {"ERROR_CODE_TIMEOUT", http.StatusRequestTimeout},
	CodeUnsupportedMediaType: {"ERROR_CODE_UNSUPPORTED_MEDIA_TYPE", http.StatusUnsupportedMediaType},
}

func (c Code) String() string {
	if info, ok := codes[c]; ok {
		return info.name
	}
	return codes[CodeInternal].name
}

// Error is a classified error. msg is safe to show to clients; err is the
// cause and stays in logs.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	case e.errType >= 0 && int(e.errType) < len(typeFallbackMsg):
		return typeFallbackMsg[e.errType]
	default:
		return "Unknown error"
	}
}

// String is the verbose form used in debug logs.
func (e *Error) String() string {
	return fmt.Sprintf("%s/%s msg=%q cause=%v", e.errType, e.code, e.msg, e.err)
}

func (e *Error) Msg() string               { return e.msg }
func (e *Error) Type() Type                { return e.errType }
func (e *Error) Code() Code                { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }
func (e *Error) Unwrap() error             { return e.err }

func (e *Error) StatusCode() int {
	if info, ok := codes[e.code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// NewServer hides err behind a generic message.
func NewServer(err error) error {
	return &Error{err: err, msg: "Internal server error", errType: TypeServer, code: CodeInternal}
}

func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, errType: TypeBusiness, code: code}
}

// NewInvalidInput wraps a validator error, or builds one from field/message
// pairs. An odd number of pairs is reported as a malformed body.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{err: err, msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput}
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	fields := make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return &Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput, fields: fields}
}

// NewInvalidFormat reports a body that could not be decoded. The first msg,
// when given, replaces the default message.
func NewInvalidFormat(msg ...string) error {
	text := "Invalid request body"
	if len(msg) > 0 {
		text = msg[0]
	}
	return &Error{msg: text, errType: TypeValidation, code: CodeInvalidFormat}
}

// HasCode reports whether err wraps an *Error carrying code.
func HasCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.code == code
}
