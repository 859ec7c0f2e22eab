package spec

// Int reads integers.
func (s *Spec) Int() ScalarIndexer[int] { return Scalar(s, IntCodec()) }

// Double reads numbers.
func (s *Spec) Double() ScalarIndexer[float64] { return Scalar(s, DoubleCodec()) }

// Bool reads "true" and "false".
func (s *Spec) Bool() ScalarIndexer[bool] { return Scalar(s, BoolCodec()) }

// YesNo reads "yes" and "no".
func (s *Spec) YesNo() ScalarIndexer[bool] { return Scalar(s, YesNoCodec()) }

// OnOff reads "on" and "off".
func (s *Spec) OnOff() ScalarIndexer[bool] { return Scalar(s, OnOffCodec()) }

// Int2 reads pairs of integers written "x, y".
func (s *Spec) Int2() ScalarIndexer[[2]int] { return Scalar(s, Int2Codec()) }

// Int3 reads triples of integers written "x, y, z".
func (s *Spec) Int3() ScalarIndexer[[3]int] { return Scalar(s, Int3Codec()) }

// Double2 reads pairs of numbers.
func (s *Spec) Double2() ScalarIndexer[[2]float64] { return Scalar(s, Double2Codec()) }

// Double3 reads triples of numbers.
func (s *Spec) Double3() ScalarIndexer[[3]float64] { return Scalar(s, Double3Codec()) }

// Keyword reads single-line strings.
func (s *Spec) Keyword() ScalarIndexer[string] { return Scalar(s, KeywordCodec()) }

// Text reads multi-line strings terminated by a TextEnd line.
func (s *Spec) Text() ScalarIndexer[string] { return Scalar(s, TextCodec()) }

// LimitedKeyword reads single-line strings of at most limit characters.
func (s *Spec) LimitedKeyword(limit int) ScalarIndexer[string] {
	return Scalar(s, LimitedKeywordCodec(limit))
}

// Range reads integers inside the interval open left, right close.
func (s *Spec) Range(open byte, left, right int, close byte) ScalarIndexer[int] {
	return Scalar(s, RangeCodec(open, left, right, close))
}

// RangeTo reads integers in [0, n).
func (s *Spec) RangeTo(n int) ScalarIndexer[int] {
	return Scalar(s, RangeCodec('[', 0, n, ')'))
}

// Interval reads numbers inside the interval open left, right close.
func (s *Spec) Interval(open byte, left, right float64, close byte) ScalarIndexer[float64] {
	return Scalar(s, IntervalCodec(open, left, right, close))
}

// FilePath reads paths written relative to the spec's document and returns
// them as logical paths.
func (s *Spec) FilePath() ScalarIndexer[string] { return Scalar(s, pathCodec{from: s.path}) }

// Choice reads one of choices. See ChoiceCodec.
func Choice[T any](s *Spec, choices []T, toString func(T) string) ScalarIndexer[T] {
	return Scalar(s, ChoiceCodec(choices, toString))
}
