package spreadsheet

import (
	"fmt"

	"github.com/tiendc/go-deepcopy"
)

// Storage holds the authoritative cell mapping together with the
// dependency index derived from it
type Storage struct {
	cells           map[CellID]Cell
	dependencyGraph *DependencyGraph
}

func NewStorage() *Storage {
	return &Storage{
		cells:           make(map[CellID]Cell),
		dependencyGraph: NewDependencyGraph(),
	}
}

// Get returns the cell stored under id
func (s *Storage) Get(id CellID) (Cell, bool) {
	cell, ok := s.cells[id]
	return cell, ok
}

// Put writes a cell and keeps the dependency index in step with its
// formula
func (s *Storage) Put(cell Cell) {
	s.cells[cell.ID] = cell
	if cell.Formula != nil {
		s.dependencyGraph.SetDependencies(cell.ID, cell.Formula.Dependencies)
	} else {
		s.dependencyGraph.ClearDependencies(cell.ID)
	}
}

// Len returns the number of stored cells
func (s *Storage) Len() int {
	return len(s.cells)
}

// Snapshot returns a deep copy of the cell mapping
func (s *Storage) Snapshot() (map[CellID]Cell, error) {
	return copyCells(s.cells)
}

// Restore adopts cells as the cell mapping and rebuilds the dependency
// index. the caller gives up ownership of cells.
func (s *Storage) Restore(cells map[CellID]Cell) {
	if cells == nil {
		cells = make(map[CellID]Cell)
	}
	s.cells = cells
	s.dependencyGraph.Rebuild(s.cells)
}

func copyCells(cells map[CellID]Cell) (map[CellID]Cell, error) {
	dst := make(map[CellID]Cell, len(cells))
	if len(cells) == 0 {
		return dst, nil
	}
	if err := deepcopy.Copy(&dst, &cells); err != nil {
		return nil, fmt.Errorf("copy cells: %w", err)
	}
	return dst, nil
}

func copyCell(cell Cell) (Cell, error) {
	var dst Cell
	if err := deepcopy.Copy(&dst, &cell); err != nil {
		return Cell{}, fmt.Errorf("copy cell %s: %w", cell.ID, err)
	}
	return dst, nil
}
