package config

// Model is the unified, format-agnostic representation of a layer manifest.
type Model struct {
	// Layers in declaration order.
	Layers []*LayerDefinition
	// SaveLayer names the layer that receives writes by default. Empty means
	// the highest-priority writable layer.
	SaveLayer string
}

// LayerDefinition describes one search root of the layered file system.
type LayerDefinition struct {
	Name string
	// Path is absolute once the loader has resolved it.
	Path      string
	DependsOn []string
	// Exclude holds doublestar patterns, relative to Path, of files the layer
	// does not provide.
	Exclude  []string
	ReadOnly bool
}

// Layer returns the definition with the given name.
func (m *Model) Layer(name string) (*LayerDefinition, bool) {
	for _, l := range m.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return nil, false
}
