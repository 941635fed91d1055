package spreadsheet

import (
	"cmp"
	"slices"
)

// DependencyNode represents a cell in the dependency graph
type DependencyNode struct {
	ID CellID

	Precedents map[CellID]*DependencyNode // cells this cell depends on
	Dependents map[CellID]*DependencyNode // cells that depend on this cell
}

// DependencyGraph indexes formula dependencies in both directions and
// tracks cells waiting for recalculation. it is derived from the cell
// mapping and can always be rebuilt from it.
type DependencyGraph struct {
	nodes    map[CellID]*DependencyNode
	dirtySet map[CellID]struct{}
}

// NewDependencyGraph creates a new dependency graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes:    make(map[CellID]*DependencyNode),
		dirtySet: make(map[CellID]struct{}),
	}
}

// GetOrCreateNode gets an existing node or creates a new one
func (dg *DependencyGraph) GetOrCreateNode(id CellID) *DependencyNode {
	if node, exists := dg.nodes[id]; exists {
		return node
	}

	node := &DependencyNode{
		ID:         id,
		Precedents: make(map[CellID]*DependencyNode),
		Dependents: make(map[CellID]*DependencyNode),
	}
	dg.nodes[id] = node
	return node
}

// GetNode retrieves a node if it exists
func (dg *DependencyGraph) GetNode(id CellID) (*DependencyNode, bool) {
	node, exists := dg.nodes[id]
	return node, exists
}

// cleanupNodeIfEmpty removes a node with no edges left
func (dg *DependencyGraph) cleanupNodeIfEmpty(id CellID) {
	node, exists := dg.nodes[id]
	if !exists {
		return
	}
	if len(node.Precedents) > 0 || len(node.Dependents) > 0 {
		return
	}
	delete(dg.nodes, id)
}

// AddCellDependency records that from depends on to
func (dg *DependencyGraph) AddCellDependency(from, to CellID) {
	fromNode := dg.GetOrCreateNode(from)
	toNode := dg.GetOrCreateNode(to)

	fromNode.Precedents[to] = toNode
	toNode.Dependents[from] = fromNode
}

// RemoveCellDependency removes a cell-to-cell dependency
func (dg *DependencyGraph) RemoveCellDependency(from, to CellID) bool {
	fromNode, fromExists := dg.nodes[from]
	toNode, toExists := dg.nodes[to]
	if !fromExists || !toExists {
		return false
	}

	delete(fromNode.Precedents, to)
	delete(toNode.Dependents, from)

	dg.cleanupNodeIfEmpty(from)
	dg.cleanupNodeIfEmpty(to)
	return true
}

// ClearDependencies drops every outgoing edge of a cell. edges pointing at
// the cell from its dependents are kept.
func (dg *DependencyGraph) ClearDependencies(id CellID) {
	node, exists := dg.nodes[id]
	if !exists {
		return
	}
	for precedent := range node.Precedents {
		dg.RemoveCellDependency(id, precedent)
	}
}

// SetDependencies replaces the outgoing edges of a cell
func (dg *DependencyGraph) SetDependencies(id CellID, deps []CellID) {
	dg.ClearDependencies(id)
	for _, d := range deps {
		dg.AddCellDependency(id, d)
	}
}

// Rebuild replaces the whole graph with the edges described by cells
func (dg *DependencyGraph) Rebuild(cells map[CellID]Cell) {
	dg.Clear()
	for id, cell := range cells {
		if cell.Formula == nil {
			continue
		}
		for _, d := range cell.Formula.Dependencies {
			dg.AddCellDependency(id, d)
		}
	}
}

// MarkDirty marks a cell as needing recalculation
func (dg *DependencyGraph) MarkDirty(id CellID) {
	dg.dirtySet[id] = struct{}{}
}

// IsDirty checks the dirty flag of a cell
func (dg *DependencyGraph) IsDirty(id CellID) bool {
	_, dirty := dg.dirtySet[id]
	return dirty
}

// ClearDirty clears the dirty flag for a cell
func (dg *DependencyGraph) ClearDirty(id CellID) {
	delete(dg.dirtySet, id)
}

// ClearAllDirty clears all dirty flags
func (dg *DependencyGraph) ClearAllDirty() {
	dg.dirtySet = make(map[CellID]struct{})
}

// DirtyCells returns the dirty cells in row-major order
func (dg *DependencyGraph) DirtyCells() []CellID {
	result := make([]CellID, 0, len(dg.dirtySet))
	for id := range dg.dirtySet {
		result = append(result, id)
	}
	sortCellIDs(result)
	return result
}

// GetDirectDependents returns cells directly depending on this cell, in
// row-major order
func (dg *DependencyGraph) GetDirectDependents(id CellID) []CellID {
	node, exists := dg.nodes[id]
	if !exists {
		return nil
	}

	result := make([]CellID, 0, len(node.Dependents))
	for dependent := range node.Dependents {
		result = append(result, dependent)
	}
	sortCellIDs(result)
	return result
}

// GetAllDependents returns all cells affected by this cell (transitive
// closure), not including the cell itself unless it sits on a cycle
func (dg *DependencyGraph) GetAllDependents(id CellID) []CellID {
	visited := make(map[CellID]struct{})
	var result []CellID

	dg.collectDependents(id, visited, &result)
	sortCellIDs(result)
	return result
}

// collectDependents recursively collects all dependents
func (dg *DependencyGraph) collectDependents(id CellID, visited map[CellID]struct{}, result *[]CellID) {
	node, exists := dg.nodes[id]
	if !exists {
		return
	}

	for dependent := range node.Dependents {
		if _, alreadyVisited := visited[dependent]; alreadyVisited {
			continue
		}
		visited[dependent] = struct{}{}
		*result = append(*result, dependent)
		dg.collectDependents(dependent, visited, result)
	}
}

// GetDirectPrecedents returns cells this cell directly depends on
func (dg *DependencyGraph) GetDirectPrecedents(id CellID) []CellID {
	node, exists := dg.nodes[id]
	if !exists {
		return nil
	}

	result := make([]CellID, 0, len(node.Precedents))
	for precedent := range node.Precedents {
		result = append(result, precedent)
	}
	sortCellIDs(result)
	return result
}

// GetCalculationOrder returns every node with precedents ahead of their
// dependents, and whether a cycle was found on the way
func (dg *DependencyGraph) GetCalculationOrder() ([]CellID, bool) {
	// three states: unvisited (not in map), visiting (false), visited (true)
	state := make(map[CellID]bool)
	var order []CellID
	hasCycle := false

	var visit func(id CellID) bool
	visit = func(id CellID) bool {
		if completed, exists := state[id]; exists {
			// still visiting means we came back around
			return !completed
		}

		state[id] = false

		for _, precedent := range dg.GetDirectPrecedents(id) {
			if visit(precedent) {
				hasCycle = true
			}
		}

		state[id] = true
		order = append(order, id)
		return false
	}

	ids := make([]CellID, 0, len(dg.nodes))
	for id := range dg.nodes {
		ids = append(ids, id)
	}
	sortCellIDs(ids)

	for _, id := range ids {
		if _, seen := state[id]; !seen {
			if visit(id) {
				hasCycle = true
			}
		}
	}

	return order, hasCycle
}

// HasCycle checks if there are circular dependencies
func (dg *DependencyGraph) HasCycle() bool {
	_, hasCycle := dg.GetCalculationOrder()
	return hasCycle
}

// NodeCount returns the number of nodes in the graph
func (dg *DependencyGraph) NodeCount() int {
	return len(dg.nodes)
}

// Clear removes all nodes and dependencies from the graph
func (dg *DependencyGraph) Clear() {
	dg.nodes = make(map[CellID]*DependencyNode)
	dg.dirtySet = make(map[CellID]struct{})
}

// sortCellIDs orders ids by row then column. ids that cannot be decoded
// sort after the rest, by name.
func sortCellIDs(ids []CellID) {
	slices.SortFunc(ids, compareCellIDs)
}

func compareCellIDs(a, b CellID) int {
	pa, errA := a.Position()
	pb, errB := b.Position()
	switch {
	case errA != nil && errB != nil:
		return cmp.Compare(a, b)
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	if pa.Row != pb.Row {
		return cmp.Compare(pa.Row, pb.Row)
	}
	return cmp.Compare(pa.Col, pb.Col)
}
