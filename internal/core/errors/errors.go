package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

type ErrorCode string

const (
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
	CodeNotSupported    ErrorCode = "NOT_SUPPORTED"
	CodeIO              ErrorCode = "IO_ERROR"
)

// Context keys used across the migration.
const (
	CtxPath      = "path"      // file or config path
	CtxOperation = "operation" // run phase
	CtxSymbol    = "symbol"    // class or module being edited
)

// Field is one piece of error context. Fields keep the order they were added
// in, so messages read outermost-last.
type Field struct {
	Key   string
	Value interface{}
}

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context []Field
}

// WithContext sets key, replacing an earlier value for the same key.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	for i := range e.Context {
		if e.Context[i].Key == key {
			e.Context[i].Value = value
			return e
		}
	}
	e.Context = append(e.Context, Field{Key: key, Value: value})
	return e
}

// Lookup returns the context value stored under key.
func (e *DomainError) Lookup(key string) (interface{}, bool) {
	for _, f := range e.Context {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		parts := make([]string, 0, len(e.Context))
		for _, f := range e.Context {
			parts = append(parts, fmt.Sprintf("%s=%v", f.Key, f.Value))
		}
		msg += " (" + strings.Join(parts, ", ") + ")"
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// LogValue lets slog render the code and context as attributes instead of
// one flattened string.
func (e *DomainError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("code", string(e.Code)),
		slog.String("msg", e.Message),
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("cause", e.Err.Error()))
	}
	for _, f := range e.Context {
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}
	return slog.GroupValue(attrs...)
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// AddContext attaches key/value context, wrapping foreign errors as internal.
func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return err
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: []Field{{Key: key, Value: value}},
	}
}

// CodeOf returns the code of the outermost DomainError in err's chain, or ""
// when there is none.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
