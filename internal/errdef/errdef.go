package errdef

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeUnknown    Code = "unknown"
	CodeHTTP       Code = "http"
	CodeFilesystem Code = "filesystem"
	CodeParse      Code = "parse"
	CodeQuery      Code = "query"
	CodeProfile    Code = "profile"
	CodeSecret     Code = "secret"
	CodeHistory    Code = "history"
	CodeTunnel     Code = "tunnel"
)

type Error struct {
	code Code
	msg  string
	err  error
}

func (e *Error) Error() string {
	switch {
	case e.err == nil:
		return e.msg
	case e.msg == "":
		return e.err.Error()
	default:
		return e.msg + ": " + e.err.Error()
	}
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Code() Code { return e.code }

func New(code Code, format string, args ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap returns nil when err is nil so call sites can wrap unconditionally.
func Wrap(code Code, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{code: code, msg: fmt.Sprintf(format, args...), err: err}
}

// CodeOf walks the chain and returns the outermost code.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.code
	}
	return CodeUnknown
}

func Message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
