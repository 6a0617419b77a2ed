package service

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/filedock/filedock/util/safepath"
)

// ErrorKind classifies a failure for the HTTP layer.
type ErrorKind string

const (
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindNotFound     ErrorKind = "not_found"
	KindValidation   ErrorKind = "validation"
	KindTraversal    ErrorKind = "traversal"
	KindConflict     ErrorKind = "conflict"
	KindInternal     ErrorKind = "internal"
)

// Error is returned by services. Key is a translation message id and Params
// its template data in "Name==value" form.
type Error struct {
	Kind   ErrorKind
	Key    string
	Params []string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Key)
	if len(e.Params) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(e.Params, ", "))
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, err error, key string, params ...string) *Error {
	return &Error{Kind: kind, Key: key, Params: params, Err: err}
}

// KindOf classifies err. Resolver and sanitizer errors are recognised even
// when they were not wrapped in an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, safepath.ErrTraversal):
		return KindTraversal
	case errors.Is(err, safepath.ErrInvalidName):
		return KindValidation
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	}
	return KindInternal
}

// pathError wraps resolver failures with a translation key.
func pathError(err error, p string) error {
	switch {
	case errors.Is(err, safepath.ErrTraversal):
		return newError(KindTraversal, err, "files.invalidPath", "Path=="+p)
	case errors.Is(err, safepath.ErrInvalidName):
		return newError(KindValidation, err, "files.invalidName", "Name=="+p)
	}
	return newError(KindInternal, err, "files.operationFailed")
}
