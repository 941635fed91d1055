package spreadsheet

// RangeBuffer is the copy buffer: deep copies of the cells that existed in
// the selection at copy time, plus the selection itself as the anchor
type RangeBuffer struct {
	Anchor CellRange
	Cells  map[CellID]Cell
}

// IsEmpty reports whether there is nothing to paste
func (b *RangeBuffer) IsEmpty() bool {
	return b == nil || len(b.Cells) == 0
}

// newRangeBuffer captures the existing cells of r from storage
func newRangeBuffer(storage *Storage, r CellRange) (*RangeBuffer, error) {
	anchor := r.Normalize()
	buf := &RangeBuffer{
		Anchor: anchor,
		Cells:  make(map[CellID]Cell),
	}
	for id := range anchor.IDs() {
		cell, ok := storage.Get(id)
		if !ok {
			continue
		}
		copied, err := copyCell(cell)
		if err != nil {
			return nil, err
		}
		buf.Cells[id] = copied
	}
	return buf, nil
}

// pastedCell is one buffered cell translated to its destination
type pastedCell struct {
	source CellID
	cell   Cell
}

// translate moves every buffered cell by the offset between the anchor's
// top-left corner and target. cells landing outside rows x cols are
// returned separately. when relative is set, formula references are
// shifted by the same offset.
func (b *RangeBuffer) translate(target CellPosition, rows, cols int, relative bool) ([]pastedCell, []CellID, error) {
	origin := b.Anchor.TopLeft()
	dRow := target.Row - origin.Row
	dCol := target.Col - origin.Col

	ids := make([]CellID, 0, len(b.Cells))
	for id := range b.Cells {
		ids = append(ids, id)
	}
	sortCellIDs(ids)

	var pasted []pastedCell
	var skipped []CellID
	for _, id := range ids {
		pos, err := id.Position()
		if err != nil {
			return nil, nil, err
		}
		dest := CellPosition{Row: pos.Row + dRow, Col: pos.Col + dCol}
		if dest.Row >= rows || dest.Col >= cols {
			skipped = append(skipped, id)
			continue
		}
		destID, err := CellIDFromPosition(dest)
		if err != nil {
			skipped = append(skipped, id)
			continue
		}

		cell, err := copyCell(b.Cells[id])
		if err != nil {
			return nil, nil, err
		}
		cell.ID = destID
		if relative && cell.Formula != nil {
			expression := ShiftReferences(cell.Formula.Expression, dRow, dCol)
			cell.Formula = &Formula{
				Raw:          FormulaMarker + expression,
				Expression:   expression,
				Dependencies: ExtractDependencies(expression),
			}
		}
		pasted = append(pasted, pastedCell{source: id, cell: cell})
	}
	return pasted, skipped, nil
}
