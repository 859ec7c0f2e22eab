package layer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/vk/contentspec/internal/ctxlog"
	"github.com/vk/contentspec/internal/dag"
)

// Stack is an immutable, priority-ordered set of layers.
type Stack struct {
	// layers is ordered from lowest to highest priority.
	layers    []*Layer
	byName    map[string]*Layer
	saveLayer string
	fs        FS
}

// Option configures a Stack.
type Option func(*Stack)

// WithFS replaces the OS file system.
func WithFS(fsys FS) Option {
	return func(s *Stack) { s.fs = fsys }
}

// WithSaveLayer names the layer writes go to by default.
func WithSaveLayer(name string) Option {
	return func(s *Stack) { s.saveLayer = name }
}

// File is a logical path resolved to a concrete file in one layer.
type File struct {
	Rel   string
	Layer *Layer
	Abs   string
}

// NewStack validates the layers and sorts them by priority.
func NewStack(ctx context.Context, layers []*Layer, opts ...Option) (*Stack, error) {
	logger := ctxlog.ForComponent(ctx, "layer")

	s := &Stack{
		byName: make(map[string]*Layer, len(layers)),
		fs:     OSFS{},
	}
	for _, opt := range opts {
		opt(s)
	}

	graph := dag.New()
	for _, l := range layers {
		if l.Name == "" {
			return nil, fmt.Errorf("layer with root %q has no name", l.Root)
		}
		if _, dup := s.byName[l.Name]; dup {
			return nil, fmt.Errorf("layer %q is declared more than once", l.Name)
		}
		s.byName[l.Name] = l
		graph.AddNode(l.Name)
	}

	for _, l := range layers {
		for _, dep := range l.DependsOn {
			if !graph.Has(dep) {
				return nil, fmt.Errorf("%w: layer %q depends on %q", ErrMissingLayer, l.Name, dep)
			}
			if err := graph.AddEdge(dep, l.Name); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrCyclicLayers, err)
			}
		}
	}

	order, err := graph.TopologicalOrder()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCyclicLayers, err)
	}
	for _, name := range order {
		s.layers = append(s.layers, s.byName[name])
	}

	if s.saveLayer != "" {
		l, ok := s.byName[s.saveLayer]
		if !ok {
			return nil, fmt.Errorf("%w: save layer %q", ErrMissingLayer, s.saveLayer)
		}
		if l.ReadOnly {
			return nil, fmt.Errorf("save layer %q: %w", l.Name, ErrReadOnly)
		}
	}

	logger.Debug("Resolved layer priority.", "order", order, "save_layer", s.saveLayer)
	return s, nil
}

// Layers returns the layers ordered from highest to lowest priority.
func (s *Stack) Layers() []*Layer {
	out := make([]*Layer, len(s.layers))
	for i, l := range s.layers {
		out[len(s.layers)-1-i] = l
	}
	return out
}

// Layer returns the layer with the given name.
func (s *Stack) Layer(name string) (*Layer, bool) {
	l, ok := s.byName[name]
	return l, ok
}

// SaveLayer returns the layer writes go to by default: the configured save
// layer, or else the highest-priority writable layer. It is nil when every
// layer is read-only.
func (s *Stack) SaveLayer() *Layer {
	if s.saveLayer != "" {
		return s.byName[s.saveLayer]
	}
	for i := len(s.layers) - 1; i >= 0; i-- {
		if !s.layers[i].ReadOnly {
			return s.layers[i]
		}
	}
	return nil
}

// File resolves rel to the highest-priority layer that provides it.
func (s *Stack) File(rel string) (*File, error) {
	rel, err := Clean(rel)
	if err != nil {
		return nil, err
	}
	for i := len(s.layers) - 1; i >= 0; i-- {
		l := s.layers[i]
		if l.Excludes(rel) {
			continue
		}
		abs := l.abs(rel)
		info, err := s.fs.Stat(abs)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", abs, err)
		}
		if info.IsDir() {
			continue
		}
		return &File{Rel: rel, Layer: l, Abs: abs}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, rel)
}

// ReadFile resolves rel and reads the winning file.
func (s *Stack) ReadFile(rel string) ([]byte, *File, error) {
	f, err := s.File(rel)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.fs.ReadFile(f.Abs)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", f.Abs, err)
	}
	return data, f, nil
}

// WritePath returns where rel is written in the named layer. An empty name
// selects the save layer.
func (s *Stack) WritePath(rel, layerName string) (*File, error) {
	rel, err := Clean(rel)
	if err != nil {
		return nil, err
	}
	var l *Layer
	if layerName == "" {
		l = s.SaveLayer()
		if l == nil {
			return nil, fmt.Errorf("no writable layer for %s: %w", rel, ErrReadOnly)
		}
	} else {
		var ok bool
		if l, ok = s.byName[layerName]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingLayer, layerName)
		}
	}
	if l.ReadOnly {
		return nil, fmt.Errorf("write %s to %q: %w", rel, l.Name, ErrReadOnly)
	}
	return &File{Rel: rel, Layer: l, Abs: l.abs(rel)}, nil
}

// WriteFile writes data for rel into the named layer, creating parent
// directories as needed.
func (s *Stack) WriteFile(rel, layerName string, data []byte) (*File, error) {
	f, err := s.WritePath(rel, layerName)
	if err != nil {
		return nil, err
	}
	if err := s.fs.MkdirAll(filepath.Dir(f.Abs), 0o755); err != nil {
		return nil, fmt.Errorf("create directory for %s: %w", f.Abs, err)
	}
	if err := s.fs.WriteFile(f.Abs, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", f.Abs, err)
	}
	return f, nil
}

// Dir is a logical directory seen through every layer.
type Dir struct {
	stack *Stack
	Rel   string
}

// Dir returns the logical directory rel.
func (s *Stack) Dir(rel string) (*Dir, error) {
	rel, err := Clean(rel)
	if err != nil {
		return nil, err
	}
	return &Dir{stack: s, Rel: rel}, nil
}

// Files returns the files directly inside the directory whose names match
// pattern, one per logical path, taken from the highest-priority layer that
// provides it and ordered by logical path. A directory that no layer has
// yields an empty result.
func (d *Dir) Files(pattern string) ([]*File, error) {
	found := make(map[string]*File)
	for _, l := range d.stack.layers {
		abs := l.abs(d.Rel)
		entries, err := d.stack.fs.ReadDir(abs)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read directory %s: %w", abs, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ok, err := doublestar.Match(pattern, e.Name())
			if err != nil {
				return nil, fmt.Errorf("pattern %q: %w", pattern, err)
			}
			if !ok {
				continue
			}
			rel := path.Join(d.Rel, e.Name())
			if l.Excludes(rel) {
				continue
			}
			// Later layers have higher priority.
			found[rel] = &File{Rel: rel, Layer: l, Abs: l.abs(rel)}
		}
	}

	out := make([]*File, 0, len(found))
	for _, f := range found {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rel < out[j].Rel })
	return out, nil
}
