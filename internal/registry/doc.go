// Package registry provides the central "glue" for the module system.
//
// The Registry maps the stable string identifiers written into content
// documents (e.g. "item.weapon") to the compiled Go factories that build the
// corresponding types. Each entry also carries capability tags, which take
// the place of runtime interface checks when a document slot declares which
// kinds of type it accepts.
//
// During application startup, modules register their types and the registry
// is validated so that every registered type is usable before any content
// is read.
package registry
