package spec

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/vk/contentspec/internal/spec/accesscode"
	"golang.org/x/text/cases"
)

// Codec translates between document text and a typed value.
type Codec[T any] interface {
	// Kind is the access-code kind, e.g. "Range".
	Kind() string
	// Params are the access-code parameters that define the codec.
	Params() []string
	// Describe is a human-readable type label used in errors.
	Describe() string
	Decode(text string) (T, error)
	Encode(v T) (string, error)
	// Compare orders values; dictionaries write keys in this order.
	Compare(a, b T) int
	// MoldingDefault is returned by reads that fail while molding.
	MoldingDefault() T
}

// Code renders the access code of c, with an optional encoded default as
// trailing parameter.
func Code[T any](c Codec[T], def ...string) string {
	return accesscode.Encode(c.Kind(), append(c.Params(), def...)...)
}

// TextEnd terminates every stored Text value.
const TextEnd = "[End Of Text]"

type intCodec struct{}

// IntCodec parses base-10 integers.
func IntCodec() Codec[int] { return intCodec{} }

func (intCodec) Kind() string         { return "Int" }
func (intCodec) Params() []string     { return nil }
func (intCodec) Describe() string     { return "integer" }
func (intCodec) MoldingDefault() int  { return 0 }
func (intCodec) Compare(a, b int) int { return cmp.Compare(a, b) }

func (intCodec) Decode(text string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, &ValidationError{Value: text, Type: "integer"}
	}
	return v, nil
}

func (intCodec) Encode(v int) (string, error) { return strconv.Itoa(v), nil }

type doubleCodec struct{}

// DoubleCodec parses floating-point numbers. Values are written in their
// shortest form, so "0.0" is rewritten as "0".
func DoubleCodec() Codec[float64] { return doubleCodec{} }

func (doubleCodec) Kind() string                     { return "Double" }
func (doubleCodec) Params() []string                 { return nil }
func (doubleCodec) Describe() string                 { return "number" }
func (doubleCodec) MoldingDefault() float64          { return 0 }
func (doubleCodec) Compare(a, b float64) int         { return cmp.Compare(a, b) }
func (doubleCodec) Encode(v float64) (string, error) { return formatDouble(v), nil }

func (doubleCodec) Decode(text string) (float64, error) {
	return parseDouble(text, "number")
}

func parseDouble(text, typ string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) {
		return 0, &ValidationError{Value: text, Type: typ}
	}
	return v, nil
}

func formatDouble(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type boolCodec struct{}

// BoolCodec accepts exactly "true" and "false".
func BoolCodec() Codec[bool] { return boolCodec{} }

func (boolCodec) Kind() string                  { return "Bool" }
func (boolCodec) Params() []string              { return nil }
func (boolCodec) Describe() string              { return "boolean" }
func (boolCodec) MoldingDefault() bool          { return false }
func (boolCodec) Compare(a, b bool) int         { return compareBool(a, b) }
func (boolCodec) Encode(v bool) (string, error) { return strconv.FormatBool(v), nil }

func (boolCodec) Decode(text string) (bool, error) {
	switch text {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, &ValidationError{Value: text, Type: "boolean", Reason: `expected "true" or "false"`}
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// switchCodec is a case-insensitive two-literal boolean.
type switchCodec struct {
	kind    string
	yes, no string
}

var folder = cases.Fold()

// YesNoCodec accepts "yes" and "no" in any letter case.
func YesNoCodec() Codec[bool] { return switchCodec{kind: "YesNo", yes: "yes", no: "no"} }

// OnOffCodec accepts "on" and "off" in any letter case.
func OnOffCodec() Codec[bool] { return switchCodec{kind: "OnOff", yes: "on", no: "off"} }

func (c switchCodec) Kind() string          { return c.kind }
func (c switchCodec) Params() []string      { return nil }
func (c switchCodec) Describe() string      { return c.yes + "/" + c.no }
func (c switchCodec) MoldingDefault() bool  { return false }
func (c switchCodec) Compare(a, b bool) int { return compareBool(a, b) }

func (c switchCodec) Decode(text string) (bool, error) {
	switch folder.String(text) {
	case c.yes:
		return true, nil
	case c.no:
		return false, nil
	default:
		return false, &UnexpectedChoiceError{Value: text, Choices: []string{c.yes, c.no}}
	}
}

func (c switchCodec) Encode(v bool) (string, error) {
	if v {
		return c.yes, nil
	}
	return c.no, nil
}

// tupleCodec is a fixed-arity, comma-separated list of numbers.
type tupleCodec[E int | float64, T any] struct {
	kind  string
	arity int
	elem  Codec[E]
	split func(T) []E
	join  func([]E) T
}

// Int2Codec parses "x, y" integer pairs.
func Int2Codec() Codec[[2]int] {
	return tupleCodec[int, [2]int]{
		kind:  "Int2",
		arity: 2,
		elem:  intCodec{},
		split: func(v [2]int) []int { return v[:] },
		join:  func(e []int) [2]int { return [2]int{e[0], e[1]} },
	}
}

// Int3Codec parses "x, y, z" integer triples.
func Int3Codec() Codec[[3]int] {
	return tupleCodec[int, [3]int]{
		kind:  "Int3",
		arity: 3,
		elem:  intCodec{},
		split: func(v [3]int) []int { return v[:] },
		join:  func(e []int) [3]int { return [3]int{e[0], e[1], e[2]} },
	}
}

// Double2Codec parses "x, y" number pairs.
func Double2Codec() Codec[[2]float64] {
	return tupleCodec[float64, [2]float64]{
		kind:  "Double2",
		arity: 2,
		elem:  doubleCodec{},
		split: func(v [2]float64) []float64 { return v[:] },
		join:  func(e []float64) [2]float64 { return [2]float64{e[0], e[1]} },
	}
}

// Double3Codec parses "x, y, z" number triples.
func Double3Codec() Codec[[3]float64] {
	return tupleCodec[float64, [3]float64]{
		kind:  "Double3",
		arity: 3,
		elem:  doubleCodec{},
		split: func(v [3]float64) []float64 { return v[:] },
		join:  func(e []float64) [3]float64 { return [3]float64{e[0], e[1], e[2]} },
	}
}

func (c tupleCodec[E, T]) Kind() string     { return c.kind }
func (c tupleCodec[E, T]) Params() []string { return nil }

func (c tupleCodec[E, T]) Describe() string {
	return fmt.Sprintf("%d-tuple of %s", c.arity, c.elem.Describe())
}

func (c tupleCodec[E, T]) MoldingDefault() T {
	return c.join(make([]E, c.arity))
}

func (c tupleCodec[E, T]) Decode(text string) (T, error) {
	var zero T
	parts := strings.Split(text, ",")
	if len(parts) != c.arity {
		return zero, &ValidationError{Value: text, Type: c.Describe(), Reason: fmt.Sprintf("expected %d components, found %d", c.arity, len(parts))}
	}
	elems := make([]E, c.arity)
	for i, p := range parts {
		v, err := c.elem.Decode(p)
		if err != nil {
			return zero, &ValidationError{Value: text, Type: c.Describe(), Reason: fmt.Sprintf("component %d: %v", i+1, err)}
		}
		elems[i] = v
	}
	return c.join(elems), nil
}

func (c tupleCodec[E, T]) Encode(v T) (string, error) {
	elems := c.split(v)
	parts := make([]string, len(elems))
	for i, e := range elems {
		s, err := c.elem.Encode(e)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}

func (c tupleCodec[E, T]) Compare(a, b T) int {
	ea, eb := c.split(a), c.split(b)
	for i := range ea {
		if r := c.elem.Compare(ea[i], eb[i]); r != 0 {
			return r
		}
	}
	return 0
}

// keywordCodec is single-line text, optionally limited in length.
type keywordCodec struct {
	limit int
}

// KeywordCodec accepts any single-line string.
func KeywordCodec() Codec[string] { return keywordCodec{limit: -1} }

// LimitedKeywordCodec accepts single-line strings of at most limit
// characters. A negative limit is a definition error.
func LimitedKeywordCodec(limit int) Codec[string] {
	if limit < 0 {
		definitionPanic("keyword length limit must not be negative, got %d", limit)
	}
	return keywordCodec{limit: limit}
}

func (c keywordCodec) Kind() string {
	if c.limit < 0 {
		return "Keyword"
	}
	return "LimitedKeyword"
}

func (c keywordCodec) Params() []string {
	if c.limit < 0 {
		return nil
	}
	return []string{strconv.Itoa(c.limit)}
}

func (c keywordCodec) Describe() string {
	if c.limit < 0 {
		return "keyword"
	}
	return fmt.Sprintf("keyword of at most %d characters", c.limit)
}

func (keywordCodec) MoldingDefault() string  { return "" }
func (keywordCodec) Compare(a, b string) int { return strings.Compare(a, b) }

func (c keywordCodec) Decode(text string) (string, error) {
	if err := c.check(text); err != nil {
		return "", err
	}
	return text, nil
}

func (c keywordCodec) Encode(v string) (string, error) {
	if err := c.check(v); err != nil {
		return "", err
	}
	return v, nil
}

func (c keywordCodec) check(v string) error {
	if strings.ContainsAny(v, "\r\n") {
		return &ValidationError{Value: v, Type: c.Describe(), Reason: "must not contain a line break"}
	}
	if c.limit >= 0 && utf8.RuneCountInString(v) > c.limit {
		return &ValidationError{Value: v, Type: c.Describe(), Reason: fmt.Sprintf("longer than %d characters", c.limit)}
	}
	return nil
}

type textCodec struct{}

// TextCodec handles multi-line text. Stored values must end with a TextEnd
// line so that truncation by hand-editing is detected; the line is removed
// on read and appended on write.
func TextCodec() Codec[string] { return textCodec{} }

func (textCodec) Kind() string            { return "Text" }
func (textCodec) Params() []string        { return nil }
func (textCodec) Describe() string        { return "text" }
func (textCodec) MoldingDefault() string  { return "" }
func (textCodec) Compare(a, b string) int { return strings.Compare(a, b) }

func (textCodec) Decode(text string) (string, error) {
	body := strings.TrimSuffix(text, "\n")
	if body == TextEnd {
		return "", nil
	}
	if v, ok := strings.CutSuffix(body, "\n"+TextEnd); ok {
		return v, nil
	}
	return "", &ValidationError{Value: text, Type: "text", Reason: fmt.Sprintf("missing terminating %q line", TextEnd)}
}

func (textCodec) Encode(v string) (string, error) {
	if v == "" {
		return TextEnd, nil
	}
	return v + "\n" + TextEnd, nil
}
