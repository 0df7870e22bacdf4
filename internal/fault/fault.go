// Package fault implements the closed error taxonomy used throughout the
// filter: a small set of interpretable Kinds that callers can switch on,
// with optional chaining to an underlying cause. Errors are constructed
// with E, which interprets its arguments by type the way grailbio's
// errors.E does.
package fault

import (
	"bytes"
	"errors"
)

// Kind identifies the category of a filter error.
type Kind int

const (
	// Other indicates an unclassified error.
	Other Kind = iota
	// BadConfig indicates malformed configuration or input: cfgdata of an
	// unrecognized length, a bad option or salt, or a key, fingerprint or
	// block of the wrong size.
	BadConfig
	// KDFFailed indicates the password-hashing primitive failed.
	KDFFailed
	// BadPassword indicates a fingerprint mismatch on verify.
	BadPassword
	// AuthFailed indicates a per-block HMAC mismatch during decryption.
	AuthFailed
	// DecryptFailed indicates AES finalisation (padding) failed.
	DecryptFailed
	// RNGFailed indicates salt or fingerprint-salt generation failed.
	RNGFailed
	// IOWarning indicates a non-fatal cache read/write failure.
	IOWarning
	// OOM indicates an allocation failure.
	OOM
)

var kinds = map[Kind]string{
	Other:         "unknown error",
	BadConfig:     "bad configuration data",
	KDFFailed:     "key derivation failed",
	BadPassword:   "invalid password",
	AuthFailed:    "block authentication failed",
	DecryptFailed: "block decryption failed",
	RNGFailed:     "random generation failed",
	IOWarning:     "cache I/O warning",
	OOM:           "out of memory",
}

// String returns a human-readable name for the error kind.
func (k Kind) String() string {
	if s, ok := kinds[k]; ok {
		return s
	}
	return "unknown error"
}

// Error is the filter's standard error type: a Kind, an optional message,
// and an optional wrapped cause. Errors chain through Err; the full chain
// is printed by Error().
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// E constructs an Error from its arguments, interpreted by type:
//
//   - Kind: sets the Kind
//   - string: appended to the message (space-separated)
//   - error: sets the wrapped cause; if it is itself *Error and no Kind was
//     given explicitly, the Kind is inherited from it
//
// Unrecognized argument types panic, since E is only ever called with
// literal arguments at the call site.
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("fault.E: no args")
	}

	e := &Error{}

	var msg bytes.Buffer

	haveKind := false

	for _, arg := range args {
		switch v := arg.(type) {
		case Kind:
			e.Kind = v
			haveKind = true
		case string:
			if msg.Len() > 0 {
				msg.WriteByte(' ')
			}

			msg.WriteString(v)
		case *Error:
			cp := *v
			e.Err = &cp
		case error:
			e.Err = v
		default:
			panic("fault.E: unsupported argument type")
		}
	}

	e.Message = msg.String()

	if !haveKind {
		if inner, ok := e.Err.(*Error); ok {
			e.Kind = inner.Kind
		}
	}

	return e
}

// Error implements error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	var b bytes.Buffer

	if e.Message != "" {
		b.WriteString(e.Message)
	}

	if e.Kind != Other {
		if b.Len() > 0 {
			b.WriteString(": ")
		}

		b.WriteString(e.Kind.String())
	}

	if e.Err != nil {
		if b.Len() > 0 {
			b.WriteString(": ")
		}

		b.WriteString(e.Err.Error())
	}

	return b.String()
}

// Unwrap returns the wrapped cause, if any, allowing errors.Is/As to see
// through an Error the way the standard library expects.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether err is a filter error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}

	return false
}
