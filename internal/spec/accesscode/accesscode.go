// Package accesscode implements the one-line grammar molding uses to record
// how a key was accessed, e.g. "Range, [, 0, 10, )".
//
// A code is the indexer kind followed by its parameters, joined by ", ".
// Every parameter is escaped so that it may itself contain commas:
// `\` becomes `\\` and `,` becomes `\c`.
package accesscode

import (
	"errors"
	"fmt"
	"strings"
)

const separator = ", "

// ErrMalformed is returned for codes that cannot be parsed.
var ErrMalformed = errors.New("malformed access code")

// Code is a parsed access code.
type Code struct {
	Kind   string
	Params []string
}

// Escape makes s safe to embed as one parameter.
func Escape(s string) string {
	if !strings.ContainsAny(s, `\,`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case ',':
			b.WriteString(`\c`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Unescape reverses Escape.
func Unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 == len(s) {
			return "", fmt.Errorf("%w: dangling escape in %q", ErrMalformed, s)
		}
		i++
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case 'c':
			b.WriteByte(',')
		default:
			return "", fmt.Errorf("%w: unknown escape \\%c in %q", ErrMalformed, s[i], s)
		}
	}
	return b.String(), nil
}

// Encode renders a code.
func Encode(kind string, params ...string) string {
	if len(params) == 0 {
		return kind
	}
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, kind)
	for _, p := range params {
		parts = append(parts, Escape(p))
	}
	return strings.Join(parts, separator)
}

// String renders c.
func (c Code) String() string {
	return Encode(c.Kind, c.Params...)
}

// Parse splits a code into kind and unescaped parameters. Exactly one space
// after each comma is part of the separator; further whitespace belongs to
// the parameter.
func Parse(code string) (Code, error) {
	if code == "" {
		return Code{}, fmt.Errorf("%w: empty", ErrMalformed)
	}
	fields := strings.Split(code, ",")
	c := Code{Kind: fields[0]}
	if c.Kind == "" {
		return Code{}, fmt.Errorf("%w: missing kind in %q", ErrMalformed, code)
	}
	for _, f := range fields[1:] {
		f = strings.TrimPrefix(f, " ")
		p, err := Unescape(f)
		if err != nil {
			return Code{}, err
		}
		c.Params = append(c.Params, p)
	}
	return c, nil
}

// Param returns the i-th parameter or "" when there is none.
func (c Code) Param(i int) string {
	if i < 0 || i >= len(c.Params) {
		return ""
	}
	return c.Params[i]
}
