package spreadsheet

import (
	"fmt"
	"regexp"

	"github.com/xuri/excelize/v2"
)

// CellID identifies a cell in A1 notation: an uppercase column label
// followed by a 1-based row number.
type CellID string

// CellPosition is a 0-based (row, column) coordinate, the form the grid
// surface uses for the active cell and paste targets.
type CellPosition struct {
	Row int
	Col int
}

var canonicalCellID = regexp.MustCompile(`^[A-Z]+[1-9][0-9]*$`)

// ParseCellID validates s as a canonical cell identifier
func ParseCellID(s string) (CellID, error) {
	if !canonicalCellID.MatchString(s) {
		return "", NewApplicationError(InvalidArgument, fmt.Sprintf("invalid cell identifier: %q", s))
	}
	if _, _, err := excelize.CellNameToCoordinates(s); err != nil {
		return "", NewApplicationError(InvalidArgument, fmt.Sprintf("invalid cell identifier: %q: %v", s, err))
	}
	return CellID(s), nil
}

// Position converts the identifier to 0-based coordinates
func (id CellID) Position() (CellPosition, error) {
	col, row, err := excelize.CellNameToCoordinates(string(id))
	if err != nil {
		return CellPosition{}, NewApplicationError(InvalidArgument, fmt.Sprintf("invalid cell identifier: %q: %v", id, err))
	}
	return CellPosition{Row: row - 1, Col: col - 1}, nil
}

// Offset returns the identifier shifted by the given number of rows and
// columns
func (id CellID) Offset(rows, cols int) (CellID, error) {
	pos, err := id.Position()
	if err != nil {
		return "", err
	}
	return CellIDFromPosition(CellPosition{Row: pos.Row + rows, Col: pos.Col + cols})
}

// CellIDFromPosition converts 0-based coordinates to an identifier
func CellIDFromPosition(pos CellPosition) (CellID, error) {
	if pos.Row < 0 || pos.Col < 0 {
		return "", NewApplicationError(OutOfRange, fmt.Sprintf("position (%d, %d) is negative", pos.Row, pos.Col))
	}
	name, err := excelize.CoordinatesToCellName(pos.Col+1, pos.Row+1)
	if err != nil {
		return "", NewApplicationError(OutOfRange, err.Error())
	}
	return CellID(name), nil
}

// ColumnLabel returns the base-26 label for a 0-based column index
// (0 -> A, 25 -> Z, 26 -> AA)
func ColumnLabel(col int) string {
	name, err := excelize.ColumnNumberToName(col + 1)
	if err != nil {
		return ""
	}
	return name
}

// Path is the ordered set of cells currently being evaluated. lookups are
// linear, which is fine for the depth of real formula chains.
type Path []CellID

// Contains reports whether id is on the path
func (p Path) Contains(id CellID) bool {
	for _, v := range p {
		if v == id {
			return true
		}
	}
	return false
}

// With returns a new path extended by id. the receiver is not modified.
func (p Path) With(id CellID) Path {
	next := make(Path, len(p), len(p)+1)
	copy(next, p)
	return append(next, id)
}

// IDs returns a copy of the path's identifiers
func (p Path) IDs() []CellID {
	ids := make([]CellID, len(p))
	copy(ids, p)
	return ids
}
