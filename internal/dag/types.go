package dag

import "sync"

// Graph is a directed graph of string-identified nodes. An edge u -> v means
// v depends on u. Nodes remember the order they were added in, and every
// ordering the graph produces breaks ties by that order. Safe for
// concurrent use.
type Graph struct {
	mutex sync.RWMutex
	nodes map[string]*node
	order []string // IDs in insertion order
}

type node struct {
	id    string
	index int // insertion position

	// deps are the predecessors, keyed by ID.
	deps map[string]*node
	// dependents are the successors, sorted by index.
	dependents []*node
}
