// Package layer resolves logical content paths against a stack of search
// roots ("layers").
//
// Layers declare dependencies on each other. A layer always has higher
// priority than every layer it depends on, so a mod layer that depends on the
// core layer shadows the core layer's files. Layers with no ordering
// constraint between them keep their declaration order, later winning.
//
// Logical paths are slash-separated and relative, e.g. "units/knight.spec".
package layer
