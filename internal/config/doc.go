// Package config defines the format-agnostic model of a layer manifest, along
// with the Loader interface for reading it from a concrete source.
//
// The `config.Model` is the single source of truth for the `layer` package.
// Concrete implementations of the Loader interface, such as for HCL, are
// provided in separate packages.
package config
