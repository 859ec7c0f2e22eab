package spec

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Interval brackets follow ISO 31-11. Besides the usual "(" and "[" an open
// lower bound may be written "]", and an open upper bound "[", so "]0, 1["
// equals "(0, 1)".
func lowerInclusive(open byte) (bool, bool) {
	switch open {
	case '[':
		return true, true
	case '(', ']':
		return false, true
	default:
		return false, false
	}
}

func upperInclusive(close byte) (bool, bool) {
	switch close {
	case ']':
		return true, true
	case ')', '[':
		return false, true
	default:
		return false, false
	}
}

func bracketsOf(open, close byte) (loIn, hiIn bool) {
	loIn, ok := lowerInclusive(open)
	if !ok {
		definitionPanic("invalid opening bracket %q, expected one of ( [ ]", open)
	}
	hiIn, ok = upperInclusive(close)
	if !ok {
		definitionPanic("invalid closing bracket %q, expected one of ) ] [", close)
	}
	return loIn, hiIn
}

// rangeCodec is an integer inside an interval.
type rangeCodec struct {
	open, close byte
	left, right int
	// lo and hi are the inclusive limits.
	lo, hi int
}

// RangeCodec accepts integers in the interval written as open, left, right,
// close, e.g. RangeCodec('[', 0, 10, ')') for 0 through 9. Invalid brackets
// and empty intervals are definition errors.
func RangeCodec(open byte, left, right int, close byte) Codec[int] {
	loIn, hiIn := bracketsOf(open, close)
	c := rangeCodec{open: open, close: close, left: left, right: right, lo: left, hi: right}
	if !loIn {
		if left == math.MaxInt {
			definitionPanic("range %s is empty", c.Describe())
		}
		c.lo++
	}
	if !hiIn {
		if right == math.MinInt {
			definitionPanic("range %s is empty", c.Describe())
		}
		c.hi--
	}
	if c.lo > c.hi {
		definitionPanic("range %s is empty", c.Describe())
	}
	return c
}

func (c rangeCodec) Kind() string { return "Range" }

func (c rangeCodec) Params() []string {
	return []string{string(c.open), strconv.Itoa(c.left), strconv.Itoa(c.right), string(c.close)}
}

func (c rangeCodec) Describe() string {
	return fmt.Sprintf("integer in %c%d, %d%c", c.open, c.left, c.right, c.close)
}

// MoldingDefault is the member with the smallest absolute value.
func (c rangeCodec) MoldingDefault() int {
	switch {
	case c.lo > 0:
		return c.lo
	case c.hi < 0:
		return c.hi
	default:
		return 0
	}
}

func (c rangeCodec) Compare(a, b int) int { return cmp.Compare(a, b) }

func (c rangeCodec) Decode(text string) (int, error) {
	v, err := intCodec{}.Decode(text)
	if err != nil {
		return 0, &ValidationError{Value: text, Type: c.Describe()}
	}
	if err := c.check(v); err != nil {
		return 0, err
	}
	return v, nil
}

func (c rangeCodec) Encode(v int) (string, error) {
	if err := c.check(v); err != nil {
		return "", err
	}
	return strconv.Itoa(v), nil
}

func (c rangeCodec) check(v int) error {
	if v < c.lo || v > c.hi {
		return &ValidationError{Value: strconv.Itoa(v), Type: c.Describe(), Reason: "out of range"}
	}
	return nil
}

// intervalCodec is a number inside an interval.
type intervalCodec struct {
	open, close byte
	left, right float64
	loIn, hiIn  bool
}

// IntervalCodec accepts numbers in the interval written as open, left,
// right, close. Invalid brackets, NaN bounds and empty intervals are
// definition errors.
func IntervalCodec(open byte, left, right float64, close byte) Codec[float64] {
	loIn, hiIn := bracketsOf(open, close)
	c := intervalCodec{open: open, close: close, left: left, right: right, loIn: loIn, hiIn: hiIn}
	if math.IsNaN(left) || math.IsNaN(right) {
		definitionPanic("interval %s has a NaN bound", c.Describe())
	}
	if left > right || (left == right && !(loIn && hiIn)) {
		definitionPanic("interval %s is empty", c.Describe())
	}
	return c
}

func (c intervalCodec) Kind() string { return "Interval" }

func (c intervalCodec) Params() []string {
	return []string{string(c.open), formatDouble(c.left), formatDouble(c.right), string(c.close)}
}

func (c intervalCodec) Describe() string {
	return fmt.Sprintf("number in %c%s, %s%c", c.open, formatDouble(c.left), formatDouble(c.right), c.close)
}

// MoldingDefault is zero when it is a member, else the member nearest to
// zero. An open bound contributes its nearest representable neighbour.
func (c intervalCodec) MoldingDefault() float64 {
	switch {
	case c.left > 0 || (c.left == 0 && !c.loIn):
		if c.loIn {
			return c.left
		}
		return math.Nextafter(c.left, math.Inf(1))
	case c.right < 0 || (c.right == 0 && !c.hiIn):
		if c.hiIn {
			return c.right
		}
		return math.Nextafter(c.right, math.Inf(-1))
	default:
		return 0
	}
}

func (c intervalCodec) Compare(a, b float64) int { return cmp.Compare(a, b) }

func (c intervalCodec) Decode(text string) (float64, error) {
	v, err := parseDouble(text, c.Describe())
	if err != nil {
		return 0, err
	}
	if err := c.check(v); err != nil {
		return 0, err
	}
	return v, nil
}

func (c intervalCodec) Encode(v float64) (string, error) {
	if err := c.check(v); err != nil {
		return "", err
	}
	return formatDouble(v), nil
}

func (c intervalCodec) check(v float64) error {
	below := v < c.left || (v == c.left && !c.loIn)
	above := v > c.right || (v == c.right && !c.hiIn)
	if below || above || math.IsNaN(v) {
		return &ValidationError{Value: formatDouble(v), Type: c.Describe(), Reason: "out of range"}
	}
	return nil
}

// choiceCodec maps a fixed set of values to distinct strings.
type choiceCodec[T any] struct {
	choices  []T
	strs     []string
	index    map[string]int
	toString func(T) string
}

// ChoiceCodec accepts exactly the string forms of choices. toString renders
// a choice; nil uses fmt.Sprint. An empty choice set and two choices with
// the same string form are definition errors.
func ChoiceCodec[T any](choices []T, toString func(T) string) Codec[T] {
	if len(choices) == 0 {
		definitionPanic("choice set is empty")
	}
	if toString == nil {
		toString = func(v T) string { return fmt.Sprint(v) }
	}
	c := choiceCodec[T]{
		choices:  append([]T(nil), choices...),
		strs:     make([]string, len(choices)),
		index:    make(map[string]int, len(choices)),
		toString: toString,
	}
	for i, ch := range choices {
		s := toString(ch)
		if _, dup := c.index[s]; dup {
			definitionPanic("choices share the string form %q", s)
		}
		c.strs[i] = s
		c.index[s] = i
	}
	return c
}

func (c choiceCodec[T]) Kind() string { return "Choice" }

// Params starts with the number of choices so that a trailing default can
// be told apart from the choices themselves.
func (c choiceCodec[T]) Params() []string {
	return append([]string{strconv.Itoa(len(c.strs))}, c.strs...)
}

func (c choiceCodec[T]) Describe() string {
	return "one of " + strings.Join(c.strs, ", ")
}

func (c choiceCodec[T]) MoldingDefault() T { return c.choices[0] }

func (c choiceCodec[T]) Decode(text string) (T, error) {
	i, ok := c.index[text]
	if !ok {
		var zero T
		return zero, &ValidationError{Value: text, Type: c.Describe()}
	}
	return c.choices[i], nil
}

func (c choiceCodec[T]) Encode(v T) (string, error) {
	i := c.indexOf(v)
	if i < 0 {
		return "", &ValidationError{Value: fmt.Sprint(v), Type: c.Describe(), Reason: "not a choice"}
	}
	return c.strs[i], nil
}

func (c choiceCodec[T]) Compare(a, b T) int {
	return cmp.Compare(c.indexOf(a), c.indexOf(b))
}

func (c choiceCodec[T]) indexOf(v T) int {
	if i, ok := c.index[c.toString(v)]; ok {
		return i
	}
	return -1
}
