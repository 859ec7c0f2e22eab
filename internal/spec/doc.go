// Package spec provides typed, validated and inheritance-aware access to
// content documents.
//
// A Spec is a view over one region of a document: a whole file (root), a
// typed spawner slot (child), a plain namespace (sub-spec) or a dictionary
// entry (node). Values are read through short-lived indexers such as
// s.Int() or s.Dict().Keyword().Range(0, 10). A read that finds nothing in
// the spec's own document falls back to the document named by its "base"
// key, recursively. Writes only ever touch the spec's own document.
//
// Two reserved scalar values change how a key resolves: Hidden suppresses
// whatever the base provides, and Held forces the caller's default.
//
// Running code against s.MoldSpec records, for every key the code touches,
// an access code describing the expected type. The result is a template
// document that shows content authors what a type needs.
package spec
