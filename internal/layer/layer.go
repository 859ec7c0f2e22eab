package layer

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/vk/contentspec/internal/config"
)

// Layer is one search root of the stack.
type Layer struct {
	Name string
	// Root is the directory the layer's logical paths are relative to.
	Root      string
	DependsOn []string
	// Exclude holds doublestar patterns of logical paths the layer does not
	// provide even when the file exists on disk.
	Exclude  []string
	ReadOnly bool
}

// FromDefinitions converts manifest layer definitions into layers.
func FromDefinitions(defs []*config.LayerDefinition) []*Layer {
	layers := make([]*Layer, 0, len(defs))
	for _, d := range defs {
		layers = append(layers, &Layer{
			Name:      d.Name,
			Root:      d.Path,
			DependsOn: d.DependsOn,
			Exclude:   d.Exclude,
			ReadOnly:  d.ReadOnly,
		})
	}
	return layers
}

// Excludes reports whether rel is hidden from this layer by an exclude
// pattern.
func (l *Layer) Excludes(rel string) bool {
	for _, pattern := range l.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// abs maps a logical path onto the layer's root directory.
func (l *Layer) abs(rel string) string {
	return filepath.Join(l.Root, filepath.FromSlash(rel))
}

// rel maps an absolute path under the layer root back to a logical path.
// ok is false when abs is outside the root.
func (l *Layer) rel(abs string) (string, bool) {
	r, err := filepath.Rel(l.Root, abs)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(r), true
}

func (l *Layer) String() string {
	return fmt.Sprintf("%s (%s)", l.Name, l.Root)
}

// Clean normalizes a logical path. Absolute paths and paths that escape the
// layer root are rejected. The empty path and "." denote the root itself.
func Clean(rel string) (string, error) {
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "/") || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidPath, rel)
	}
	cleaned := path.Clean(rel)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q escapes the layer root", ErrInvalidPath, rel)
	}
	return cleaned, nil
}

// Join resolves rel against the directory of the logical path from. It is
// how relative references inside a document (such as "base") are resolved.
func Join(from, rel string) (string, error) {
	return Clean(path.Join(path.Dir(filepath.ToSlash(from)), filepath.ToSlash(rel)))
}
