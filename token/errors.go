package token

import "fmt"

// Kind classifies why a token was rejected
type Kind string

const (
	KindMalformed        Kind = "malformed_token"
	KindInvalidSignature Kind = "invalid_signature"
	KindExpired          Kind = "expired"
)

// Error is returned by Codec.Verify. Every verification failure carries
// exactly one Kind so callers can switch on it instead of string matching.
type Error struct {
	Kind Kind
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

// Unwrap implements errors.Unwrap
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

var (
	// ErrMalformedToken is returned when the token structure cannot be parsed
	ErrMalformedToken = &Error{Kind: KindMalformed}

	// ErrInvalidSignature is returned when the signature does not match
	ErrInvalidSignature = &Error{Kind: KindInvalidSignature}

	// ErrExpired is returned when now >= exp
	ErrExpired = &Error{Kind: KindExpired}
)

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}
