// Package dag is a small directed acyclic graph used to order layers by their
// declared dependencies. Nodes are string IDs; an edge from A to B records
// that B depends on A, so A sorts before B.
package dag
