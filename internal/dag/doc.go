// Package dag provides a small, concurrency-safe directed graph keyed by
// string IDs, with deterministic topological ordering and cycle reporting.
//
// Nodes remember the order in which they were added. Every ordering the
// package produces (topological order, dependency lists, cycle paths) breaks
// ties by that insertion order, so the same input always yields the same
// output.
package dag
