package dag

import (
	"fmt"
	"sort"
	"strings"
)

// CycleError is returned when the graph cannot be fully ordered.
type CycleError struct {
	// Cycle is one concrete cycle, first node repeated at the end.
	Cycle []string
	// Unresolved lists every node that could not be ordered, in insertion
	// order. It includes nodes downstream of a cycle.
	Unresolved []string
}

func (e *CycleError) Error() string {
	if len(e.Cycle) > 0 {
		return "cycle detected: " + strings.Join(e.Cycle, " -> ")
	}
	return "cycle detected involving: " + strings.Join(e.Unresolved, ", ")
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	g.nodes[id] = &node{
		id:    id,
		index: len(g.order),
		deps:  make(map[string]*node),
	}
	g.order = append(g.order, id)
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. Adding an edge
// that already exists is a no-op. An error is returned if either node does
// not exist or if the edge would create a self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	if _, exists := toNode.deps[fromID]; exists {
		return nil
	}
	toNode.deps[fromID] = fromNode
	fromNode.dependents = append(fromNode.dependents, toNode)
	sort.SliceStable(fromNode.dependents, func(i, j int) bool {
		return fromNode.dependents[i].index < fromNode.dependents[j].index
	})

	return nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.order)
}

// InDegree returns the number of distinct nodes the given node depends on.
func (g *Graph) InDegree(id string) (int, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return 0, fmt.Errorf("node not found: %s", id)
	}
	return len(n.deps), nil
}

// Dependencies returns the IDs the given node depends on, in insertion order.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}

	deps := make([]*node, 0, len(n.deps))
	for _, dep := range n.deps {
		deps = append(deps, dep)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].index < deps[j].index })
	return ids(deps), nil
}

// Dependents returns the IDs that depend on the given node, in insertion order.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(n.dependents), nil
}

// TopoSort orders every node so that each appears after all of its
// dependencies (Kahn's algorithm). The work queue is FIFO and seeded in
// insertion order, so nodes with no relative dependency keep their original
// order. If some nodes can never be released a *CycleError is returned.
func (g *Graph) TopoSort() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	inDegree := make(map[string]int, len(g.nodes))
	queue := make([]*node, 0, len(g.nodes))
	for _, id := range g.order {
		n := g.nodes[id]
		inDegree[id] = len(n.deps)
		if inDegree[id] == 0 {
			queue = append(queue, n)
		}
	}

	sorted := make([]string, 0, len(g.order))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		sorted = append(sorted, n.id)

		for _, dependent := range n.dependents {
			inDegree[dependent.id]--
			if inDegree[dependent.id] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(sorted) == len(g.order) {
		return sorted, nil
	}

	unresolved := make([]string, 0, len(g.order)-len(sorted))
	for _, id := range g.order {
		if inDegree[id] > 0 {
			unresolved = append(unresolved, id)
		}
	}
	return nil, &CycleError{Cycle: g.findCycle(), Unresolved: unresolved}
}

// findCycle runs a depth-first search in insertion order and returns the
// first cycle found as a path whose last element repeats the first. The
// caller must hold the read lock.
func (g *Graph) findCycle() []string {
	// permanent: fully explored and known not to lead back into the stack.
	// stack: nodes on the current DFS path, with their position in path.
	permanent := make(map[string]bool)
	stack := make(map[string]int)
	var path []string

	var visit func(n *node) []string
	visit = func(n *node) []string {
		if permanent[n.id] {
			return nil
		}
		if pos, onStack := stack[n.id]; onStack {
			cycle := append([]string(nil), path[pos:]...)
			return append(cycle, n.id)
		}

		stack[n.id] = len(path)
		path = append(path, n.id)
		for _, dependent := range n.dependents {
			if cycle := visit(dependent); cycle != nil {
				return cycle
			}
		}
		path = path[:len(path)-1]
		delete(stack, n.id)
		permanent[n.id] = true
		return nil
	}

	for _, id := range g.order {
		if cycle := visit(g.nodes[id]); cycle != nil {
			return cycle
		}
	}
	return nil
}

func ids(nodes []*node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.id
	}
	return out
}
