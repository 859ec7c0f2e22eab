// Package hcl provides the concrete HCL implementation of the config.Loader
// interface. It is responsible for finding and parsing manifest files,
// evaluating their expressions and translating them into the
// format-agnostic config.Model.
package hcl
