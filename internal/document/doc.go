// Package document provides the untyped tree that spec files are made of: a
// tagged union of scalar, sequence and mapping nodes with keyed access and a
// deterministic, human-editable text form.
//
// The text form is produced and consumed through gopkg.in/yaml.v3. Multi-line
// scalars are written as literal block scalars so that hand-edited text keeps
// its line structure.
//
// Node methods are not synchronized. Callers that share a mapping between
// goroutines hold the node's own lock (Lock/Unlock) for the duration of one
// logical operation on it.
package document
