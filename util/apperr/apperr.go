// Package apperr carries the error codes shared by services and controllers.
package apperr

import (
	"errors"
	"fmt"
)

type Code string

const (
	Configuration Code = "CONFIGURATION"
	Auth          Code = "AUTH"
	Validation    Code = "VALIDATION"
	WriteFailure  Code = "WRITE_FAILURE"
	NotFound      Code = "NOT_FOUND"
)

type codedError struct {
	code Code
	msg  string
	err  error
}

func (e *codedError) Error() string {
	switch {
	case e.err != nil && e.msg != "":
		return fmt.Sprintf("%s: %s: %v", e.code, e.msg, e.err)
	case e.err != nil:
		return fmt.Sprintf("%s: %v", e.code, e.err)
	default:
		return fmt.Sprintf("%s: %s", e.code, e.msg)
	}
}

func (e *codedError) Code() Code    { return e.code }
func (e *codedError) Unwrap() error { return e.err }

// Message is the human readable part, without the code prefix.
func (e *codedError) Message() string {
	if e.msg != "" {
		return e.msg
	}
	if e.err != nil {
		return e.err.Error()
	}
	return string(e.code)
}

func New(c Code, msg string) error { return &codedError{code: c, msg: msg} }

func Wrap(c Code, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: c, msg: msg, err: err}
}

// CodeOf extracts the code of the first coded error in the chain, or "".
func CodeOf(err error) Code {
	var ce interface{ Code() Code }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// MessageOf returns the message of the first coded error, falling back to err.Error().
func MessageOf(err error) string {
	var ce interface{ Message() string }
	if errors.As(err, &ce) {
		return ce.Message()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
