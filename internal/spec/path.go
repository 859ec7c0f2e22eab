package spec

import (
	"path"
	"strings"

	"github.com/vk/contentspec/internal/layer"
)

// pathCodec stores paths relative to the directory of the document at from
// and exposes them as logical paths. The empty string stands for no path.
type pathCodec struct {
	from string
}

func (pathCodec) Kind() string            { return "Path" }
func (pathCodec) Params() []string        { return nil }
func (pathCodec) Describe() string        { return "relative path" }
func (pathCodec) MoldingDefault() string  { return "" }
func (pathCodec) Compare(a, b string) int { return strings.Compare(a, b) }

func (c pathCodec) Decode(text string) (string, error) {
	if text == "" {
		return "", nil
	}
	if strings.ContainsAny(text, "\r\n") {
		return "", &ValidationError{Value: text, Type: "relative path"}
	}
	p, err := layer.Join(c.from, text)
	if err != nil {
		return "", &ValidationError{Value: text, Type: "relative path", Reason: err.Error()}
	}
	return p, nil
}

func (c pathCodec) Encode(v string) (string, error) {
	if v == "" {
		return "", nil
	}
	rel, err := relativePath(c.from, v)
	if err != nil {
		return "", &ValidationError{Value: v, Type: "relative path", Reason: err.Error()}
	}
	return rel, nil
}

// relativePath expresses the logical path to relative to the directory of
// the logical path from.
func relativePath(from, to string) (string, error) {
	to, err := layer.Clean(to)
	if err != nil {
		return "", err
	}
	dir := path.Dir(from)
	if dir == "." {
		return to, nil
	}
	base := strings.Split(dir, "/")
	target := strings.Split(to, "/")
	common := 0
	for common < len(base) && common < len(target)-1 && base[common] == target[common] {
		common++
	}
	parts := make([]string, 0, len(base)-common+len(target)-common)
	for range base[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, target[common:]...)
	return strings.Join(parts, "/"), nil
}
