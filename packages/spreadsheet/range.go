package spreadsheet

import (
	"fmt"
	"iter"
	"strings"
)

// CellRange is a rectangular selection. Start and End may be given in any
// order; Normalize puts the top-left corner first.
type CellRange struct {
	Start CellPosition
	End   CellPosition
}

// SingleCell returns the range covering just pos
func SingleCell(pos CellPosition) CellRange {
	return CellRange{Start: pos, End: pos}
}

// ParseCellRange parses "A1:B2" or a single "A1" into a range
func ParseCellRange(s string) (CellRange, error) {
	first, second, found := strings.Cut(s, ":")
	startID, err := ParseCellID(first)
	if err != nil {
		return CellRange{}, err
	}
	start, err := startID.Position()
	if err != nil {
		return CellRange{}, err
	}
	if !found {
		return SingleCell(start), nil
	}
	endID, err := ParseCellID(second)
	if err != nil {
		return CellRange{}, err
	}
	end, err := endID.Position()
	if err != nil {
		return CellRange{}, err
	}
	return CellRange{Start: start, End: end}, nil
}

// Normalize returns the same rectangle with Start at the top-left
func (r CellRange) Normalize() CellRange {
	return CellRange{
		Start: CellPosition{Row: min(r.Start.Row, r.End.Row), Col: min(r.Start.Col, r.End.Col)},
		End:   CellPosition{Row: max(r.Start.Row, r.End.Row), Col: max(r.Start.Col, r.End.Col)},
	}
}

// TopLeft returns the top-left corner
func (r CellRange) TopLeft() CellPosition {
	return r.Normalize().Start
}

// Contains checks if pos is inside the rectangle
func (r CellRange) Contains(pos CellPosition) bool {
	n := r.Normalize()
	return pos.Row >= n.Start.Row && pos.Row <= n.End.Row &&
		pos.Col >= n.Start.Col && pos.Col <= n.End.Col
}

// Positions iterates the rectangle row by row
func (r CellRange) Positions() iter.Seq[CellPosition] {
	n := r.Normalize()
	return func(yield func(CellPosition) bool) {
		for row := n.Start.Row; row <= n.End.Row; row++ {
			for col := n.Start.Col; col <= n.End.Col; col++ {
				if !yield(CellPosition{Row: row, Col: col}) {
					return
				}
			}
		}
	}
}

// IDs iterates the identifiers of the rectangle row by row, skipping
// positions that cannot be named
func (r CellRange) IDs() iter.Seq[CellID] {
	return func(yield func(CellID) bool) {
		for pos := range r.Positions() {
			id, err := CellIDFromPosition(pos)
			if err != nil {
				continue
			}
			if !yield(id) {
				return
			}
		}
	}
}

func (r CellRange) String() string {
	n := r.Normalize()
	start, err := CellIDFromPosition(n.Start)
	if err != nil {
		return fmt.Sprintf("(%d,%d):(%d,%d)", n.Start.Row, n.Start.Col, n.End.Row, n.End.Col)
	}
	if n.Start == n.End {
		return string(start)
	}
	end, err := CellIDFromPosition(n.End)
	if err != nil {
		return string(start)
	}
	return string(start) + ":" + string(end)
}
