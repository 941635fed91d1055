package spreadsheet

import (
	"fmt"
	"maps"
	"slices"
)

// RunnableSpreadsheet provides a chainable interface for
// spreadsheet operations. wraps the standard Spreadsheet and tracks
// errors internally
type RunnableSpreadsheet struct {
	spreadsheet *Spreadsheet
	err         error
	printLn     func(string)
}

// NewRunnableSpreadsheet creates a new RunnableSpreadsheet. printLn is
// required and receives the lines written by Log
func NewRunnableSpreadsheet(printLn func(string), opts ...Option) *RunnableSpreadsheet {
	return WrapSpreadsheet(NewSpreadsheet(opts...), printLn)
}

// WrapSpreadsheet chains over an existing spreadsheet
func WrapSpreadsheet(s *Spreadsheet, printLn func(string)) *RunnableSpreadsheet {
	return &RunnableSpreadsheet{spreadsheet: s, printLn: printLn}
}

// Set commits editor input to a cell (chainable)
func (r *RunnableSpreadsheet) Set(address string, input string) *RunnableSpreadsheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	r.err = r.spreadsheet.Set(address, input)
	return r
}

// SetValue stores a typed value (chainable)
func (r *RunnableSpreadsheet) SetValue(address string, value CellValue) *RunnableSpreadsheet {
	if r.err != nil {
		return r
	}
	id, err := r.spreadsheet.resolveAddress(address)
	if err != nil {
		r.err = err
		return r
	}
	r.err = r.spreadsheet.SetCellValue(id, value)
	return r
}

// SetFormula stores a formula (chainable)
func (r *RunnableSpreadsheet) SetFormula(address string, raw string) *RunnableSpreadsheet {
	if r.err != nil {
		return r
	}
	id, err := r.spreadsheet.resolveAddress(address)
	if err != nil {
		r.err = err
		return r
	}
	r.err = r.spreadsheet.SetFormula(id, raw)
	return r
}

// Select sets the selection from "A1:B2" or "A1" (chainable)
func (r *RunnableSpreadsheet) Select(ref string) *RunnableSpreadsheet {
	if r.err != nil {
		return r
	}
	rng, err := ParseCellRange(ref)
	if err != nil {
		r.err = err
		return r
	}
	r.err = r.spreadsheet.SetSelection(rng)
	return r
}

// Activate moves the active cell (chainable)
func (r *RunnableSpreadsheet) Activate(address string) *RunnableSpreadsheet {
	if r.err != nil {
		return r
	}
	id, err := r.spreadsheet.resolveAddress(address)
	if err != nil {
		r.err = err
		return r
	}
	pos, err := id.Position()
	if err != nil {
		r.err = err
		return r
	}
	r.err = r.spreadsheet.SetActiveCell(pos)
	return r
}

// Copy copies the selection into the buffer (chainable)
func (r *RunnableSpreadsheet) Copy() *RunnableSpreadsheet {
	if r.err != nil {
		return r
	}
	r.err = r.spreadsheet.CopySelectedCells()
	return r
}

// Paste pastes the buffer with its top-left corner at address (chainable).
// an empty address pastes at the active cell.
func (r *RunnableSpreadsheet) Paste(address string) *RunnableSpreadsheet {
	if r.err != nil {
		return r
	}

	var target CellPosition
	if address == "" {
		active, ok := r.spreadsheet.ActiveCell()
		if !ok {
			r.err = NewApplicationError(FailedPrecondition, "paste needs a target or an active cell")
			return r
		}
		target = active
	} else {
		id, err := r.spreadsheet.resolveAddress(address)
		if err != nil {
			r.err = err
			return r
		}
		target, _ = id.Position()
	}
	r.err = r.spreadsheet.PasteCopiedCells(target)
	return r
}

// Undo undoes the latest mutation, if any (chainable)
func (r *RunnableSpreadsheet) Undo() *RunnableSpreadsheet {
	if r.err != nil {
		return r
	}
	r.spreadsheet.Undo()
	return r
}

// Redo redoes the latest undone mutation, if any (chainable)
func (r *RunnableSpreadsheet) Redo() *RunnableSpreadsheet {
	if r.err != nil {
		return r
	}
	r.spreadsheet.Redo()
	return r
}

// Run returns the spreadsheet and any error. typically the last method in
// the chain
func (r *RunnableSpreadsheet) Run() (*Spreadsheet, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.spreadsheet, nil
}

// Error returns the current error state
func (r *RunnableSpreadsheet) Error() error {
	return r.err
}

// Spreadsheet returns the underlying spreadsheet. use with caution as it
// bypasses error tracking.
func (r *RunnableSpreadsheet) Spreadsheet() *Spreadsheet {
	return r.spreadsheet
}

// Reset clears the error state (chainable)
func (r *RunnableSpreadsheet) Reset() *RunnableSpreadsheet {
	r.err = nil
	return r
}

// Then runs fn unless the chain has already failed
func (r *RunnableSpreadsheet) Then(fn func(*RunnableSpreadsheet) *RunnableSpreadsheet) *RunnableSpreadsheet {
	if r.err != nil {
		return r // skip if there's an error
	}
	return fn(r)
}

// OnError hands a pending error to fn, which may replace or clear it
func (r *RunnableSpreadsheet) OnError(fn func(error) error) *RunnableSpreadsheet {
	if r.err != nil {
		r.err = fn(r.err)
	}
	return r
}

// Must panics if there's an error (chainable)
func (r *RunnableSpreadsheet) Must() *RunnableSpreadsheet {
	if r.err != nil {
		panic(r.err)
	}
	return r
}

// SetBatch commits several inputs in address order (chainable). each one
// is its own history entry.
func (r *RunnableSpreadsheet) SetBatch(cells map[string]string) *RunnableSpreadsheet {
	if r.err != nil {
		return r
	}

	for _, address := range slices.Sorted(maps.Keys(cells)) {
		if err := r.spreadsheet.Set(address, cells[address]); err != nil {
			r.err = err
			return r
		}
	}
	return r
}

// If runs fn only when condition holds and the chain has not failed
func (r *RunnableSpreadsheet) If(condition bool, fn func(*RunnableSpreadsheet) *RunnableSpreadsheet) *RunnableSpreadsheet {
	if r.err != nil || !condition {
		return r
	}
	return fn(r)
}

// ForEach calls fn for every cell id of ref ("A1:C3") in row-major order
// and stops at the first error fn leaves behind (chainable)
func (r *RunnableSpreadsheet) ForEach(ref string, fn func(id CellID, r *RunnableSpreadsheet)) *RunnableSpreadsheet {
	if r.err != nil {
		return r
	}

	rng, err := ParseCellRange(ref)
	if err != nil {
		r.err = err
		return r
	}
	for id := range rng.IDs() {
		fn(id, r)
		if r.err != nil {
			return r
		}
	}
	return r
}

// Value is a helper to get a single result from the chain.
// example: res := NewRunnableSpreadsheet(fn).Set("A1", "10").Set("A2", "=A1*2").Value("A2")
func (r *RunnableSpreadsheet) Value(address string) Result {
	if r.err != nil {
		return Result{}
	}

	res, err := r.spreadsheet.Get(address)
	if err != nil {
		r.err = err
		return Result{}
	}
	return res
}

// Values is a helper to get multiple results from the chain
func (r *RunnableSpreadsheet) Values(addresses ...string) []Result {
	if r.err != nil {
		return nil
	}

	values := make([]Result, len(addresses))
	for i, address := range addresses {
		res, err := r.spreadsheet.Get(address)
		if err != nil {
			r.err = err
			return nil
		}
		values[i] = res
	}
	return values
}

// Log prints the displayed value of a cell using printLn (chainable)
func (r *RunnableSpreadsheet) Log(address string) *RunnableSpreadsheet {
	if r.err != nil {
		return r
	}

	res, err := r.spreadsheet.Get(address)
	if err != nil {
		r.err = err
		return r
	}

	if res.Err == nil && res.Value.IsEmpty() {
		r.printLn(fmt.Sprintf("%s: <empty>", address))
	} else {
		r.printLn(fmt.Sprintf("%s: %s", address, FormatCellValue(res)))
	}
	return r
}
