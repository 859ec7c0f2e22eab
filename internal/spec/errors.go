package spec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrKeyUndefined is returned when a key is absent from the spec and its
	// whole base chain and no default was given.
	ErrKeyUndefined = errors.New("key undefined")
	// ErrHiddenKey is returned when a key resolves to Hidden and no default
	// was given.
	ErrHiddenKey = errors.New("key hidden")
	// ErrHeldKey is returned when a key resolves to Held and no default was
	// given.
	ErrHeldKey = errors.New("key held without a default")
	// ErrStaleDocument is returned when saving a spec whose document was
	// invalidated and has since been loaded again.
	ErrStaleDocument = errors.New("document replaced since it was fetched")
)

// ValidationError reports text that does not match a type's grammar.
type ValidationError struct {
	Value  string
	Type   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%q is not a valid %s", e.Value, e.Type)
	}
	return fmt.Sprintf("%q is not a valid %s: %s", e.Value, e.Type, e.Reason)
}

// UnexpectedChoiceError reports a two-way switch holding neither literal.
type UnexpectedChoiceError struct {
	Value   string
	Choices []string
}

func (e *UnexpectedChoiceError) Error() string {
	return fmt.Sprintf("unexpected choice %q, expected one of %s", e.Value, strings.Join(e.Choices, ", "))
}

// InvalidKeyError reports a dictionary key that cannot be written.
type InvalidKeyError struct {
	Key string
	Err error
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid dictionary key %s: %v", e.Key, e.Err)
}

func (e *InvalidKeyError) Unwrap() error { return e.Err }

// AccessError wraps every failure at an indexer boundary with the full
// access path and the type that was expected there.
type AccessError struct {
	// Path locates the key, e.g. "units/knight.spec[properties][stats][hp]".
	Path string
	// Type describes the expected value, e.g. "integer in [0, 10)".
	Type string
	Err  error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("invalid access to %s as %s: %v", e.Path, e.Type, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// DefinitionError reports a mistake in how code declares its schema, such as
// an empty range or a negative length limit. It does not depend on document
// content, so indexers raise it by panicking and it is never turned into an
// AccessError.
type DefinitionError struct {
	Msg string
}

func (e *DefinitionError) Error() string {
	return "invalid spec definition: " + e.Msg
}

func definitionPanic(format string, args ...any) {
	panic(&DefinitionError{Msg: fmt.Sprintf(format, args...)})
}
