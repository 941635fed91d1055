package spreadsheet

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
)

// AppErrorCode represents gRPC-style error codes for application-level errors.
// note that we are skipping error codes that don't make sense for our use-case,
// like unauthenticated, or permission denied.
type AppErrorCode int

const (
	// OK indicates the operation completed successfully.
	OK AppErrorCode = 0

	// Unknown error.
	Unknown AppErrorCode = 2

	// InvalidArgument indicates client specified an invalid argument, such
	// as a malformed cell identifier.
	InvalidArgument AppErrorCode = 3

	// FailedPrecondition indicates operation was rejected because the
	// system is not in a state required for the operation's execution.
	FailedPrecondition AppErrorCode = 9

	// OutOfRange means a position outside the configured grid.
	OutOfRange AppErrorCode = 11

	// Internal errors. Means some invariants expected by underlying
	// system has been broken, e.g. a snapshot could not be copied.
	Internal AppErrorCode = 13
)

// AppError represents errors at the application level (not cell
// evaluation errors, which are stored on cells)
type AppError struct {
	Code    AppErrorCode
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// NewApplicationError creates a new application error
func NewApplicationError(code AppErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Spreadsheet is the grid state: the cell mapping, the selection and
// active cell, the copy buffer and the undo/redo history. it is not safe
// for concurrent use; callers serialize commands.
type Spreadsheet struct {
	storage          *Storage
	history          *History
	buffer           *RangeBuffer
	activeCell       *CellPosition
	selection        *CellRange
	calculationStack *CalculationStack
	options          Options
	logger           *slog.Logger
}

// NewSpreadsheet creates a new spreadsheet instance
func NewSpreadsheet(opts ...Option) *Spreadsheet {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.Rows < 1 {
		options.Rows = DefaultRows
	}
	if options.Cols < 1 {
		options.Cols = DefaultCols
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Spreadsheet{
		storage:          NewStorage(),
		history:          NewHistory(options.HistoryLimit),
		calculationStack: NewCalculationStack(),
		options:          options,
		logger:           logger.With(slog.String("component", "spreadsheet")),
	}
}

type SpreadsheetInterface interface {
	// read path

	Get(address string) (Result, error)
	GetCell(id CellID) (Cell, bool)
	Cells() []Cell

	// cell mutations, recorded in history

	Set(address string, input string) error
	SetCellValue(id CellID, value CellValue) error
	SetFormula(id CellID, raw string) error
	PasteCopiedCells(target CellPosition) error

	// selection and buffer

	SetActiveCell(pos CellPosition) error
	SetSelection(r CellRange) error
	CopySelectedCells() error

	// history

	Undo() bool
	Redo() bool
}

var _ SpreadsheetInterface = (*Spreadsheet)(nil)

// Options returns the configuration the spreadsheet was built with
func (s *Spreadsheet) Options() Options {
	return s.options
}

// Get returns the value or error of the cell at address. an absent cell
// reads as empty.
func (s *Spreadsheet) Get(address string) (Result, error) {
	id, err := s.resolveAddress(address)
	if err != nil {
		return Result{}, err
	}
	cell, ok := s.storage.Get(id)
	if !ok {
		return Result{}, nil
	}
	return cell.Result(), nil
}

// GetCell returns a copy of the stored cell
func (s *Spreadsheet) GetCell(id CellID) (Cell, bool) {
	cell, ok := s.storage.Get(id)
	if !ok {
		return Cell{}, false
	}
	copied, err := copyCell(cell)
	if err != nil {
		return cell, true
	}
	return copied, true
}

// Cells returns every stored cell in row-major order
func (s *Spreadsheet) Cells() []Cell {
	ids := make([]CellID, 0, s.storage.Len())
	for id := range s.storage.cells {
		ids = append(ids, id)
	}
	sortCellIDs(ids)

	cells := make([]Cell, 0, len(ids))
	for _, id := range ids {
		cell, _ := s.GetCell(id)
		cells = append(cells, cell)
	}
	return cells
}

// Set commits editor input: text starting with '=' becomes a formula, an
// empty string clears the value, numeric text becomes a number and
// anything else is stored as text.
func (s *Spreadsheet) Set(address string, input string) error {
	id, err := s.resolveAddress(address)
	if err != nil {
		return err
	}

	if strings.HasPrefix(input, FormulaMarker) {
		return s.SetFormula(id, input)
	}
	return s.SetCellValue(id, coerceInput(input))
}

// coerceInput turns raw editor text into a cell value
func coerceInput(input string) CellValue {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Empty()
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return Text(input)
	}
	return Number(n)
}

// SetCellValue stores a plain value, replacing any formula or error, and
// recalculates dependents
func (s *Spreadsheet) SetCellValue(id CellID, value CellValue) error {
	if err := s.validateID(id); err != nil {
		return err
	}
	if err := s.record(ActionSetValue); err != nil {
		return err
	}

	s.storage.Put(Cell{ID: id, Value: value})
	s.logger.Debug("set cell value",
		slog.String("cell", string(id)),
		slog.String("value", value.String()),
		slog.Int("undo_depth", s.history.UndoLen()))

	s.recalculate(id)
	return nil
}

// SetFormula parses raw and, if it parses, stores it and evaluates it. a
// formula that does not parse is logged and dropped; the history entry
// recorded before parsing stays, so undoing it changes nothing.
func (s *Spreadsheet) SetFormula(id CellID, raw string) error {
	if err := s.validateID(id); err != nil {
		return err
	}
	if err := s.record(ActionSetFormula); err != nil {
		return err
	}

	formula, err := ParseFormula(raw)
	if err != nil {
		s.logger.Warn("formula rejected",
			slog.String("cell", string(id)),
			slog.String("formula", raw),
			slog.String("error", err.Error()))
		return nil
	}

	s.storage.Put(Cell{ID: id, Formula: &formula})
	s.calculationStack.reset()
	s.calculateCell(id)

	cell, _ := s.storage.Get(id)
	attrs := []any{
		slog.String("cell", string(id)),
		slog.String("formula", raw),
		slog.Int("dependencies", len(formula.Dependencies)),
	}
	if cell.Error != nil {
		attrs = append(attrs, slog.String("error_kind", cell.Error.Kind.String()))
	}
	s.logger.Debug("set formula", attrs...)

	s.recalculate(id)
	return nil
}

// SetActiveCell moves the cursor and collapses the selection onto it
func (s *Spreadsheet) SetActiveCell(pos CellPosition) error {
	if err := s.validatePosition(pos); err != nil {
		return err
	}
	s.activeCell = &pos
	selection := SingleCell(pos)
	s.selection = &selection
	return nil
}

// ActiveCell returns the cursor position, if one has been set
func (s *Spreadsheet) ActiveCell() (CellPosition, bool) {
	if s.activeCell == nil {
		return CellPosition{}, false
	}
	return *s.activeCell, true
}

// SetSelection replaces the selection rectangle
func (s *Spreadsheet) SetSelection(r CellRange) error {
	if err := s.validatePosition(r.Start); err != nil {
		return err
	}
	if err := s.validatePosition(r.End); err != nil {
		return err
	}
	s.selection = &r
	return nil
}

// Selection returns the selection rectangle, if any
func (s *Spreadsheet) Selection() (CellRange, bool) {
	if s.selection == nil {
		return CellRange{}, false
	}
	return *s.selection, true
}

// ClearSelection drops the selection
func (s *Spreadsheet) ClearSelection() {
	s.selection = nil
}

// CopySelectedCells snapshots the cells existing in the selection into the
// copy buffer. without a selection it does nothing.
func (s *Spreadsheet) CopySelectedCells() error {
	if s.selection == nil {
		return nil
	}
	buf, err := newRangeBuffer(s.storage, *s.selection)
	if err != nil {
		return NewApplicationError(Internal, err.Error())
	}
	s.buffer = buf
	s.logger.Debug("copied cells",
		slog.String("range", buf.Anchor.String()),
		slog.Int("cells", len(buf.Cells)))
	return nil
}

// Buffer returns the copy buffer, nil before the first copy
func (s *Spreadsheet) Buffer() *RangeBuffer {
	return s.buffer
}

// PasteCopiedCells writes the buffer so its top-left corner lands on
// target. destinations outside the grid are skipped. formulas keep their
// references unless relative paste is enabled.
func (s *Spreadsheet) PasteCopiedCells(target CellPosition) error {
	if s.buffer.IsEmpty() {
		return nil
	}
	if err := s.validatePosition(target); err != nil {
		return err
	}

	pasted, skipped, err := s.buffer.translate(target, s.options.Rows, s.options.Cols, s.options.RelativePaste)
	if err != nil {
		return NewApplicationError(Internal, err.Error())
	}
	if err := s.record(ActionPasteCells); err != nil {
		return err
	}

	changed := make([]CellID, 0, len(pasted))
	for _, p := range pasted {
		s.storage.Put(p.cell)
		changed = append(changed, p.cell.ID)
	}
	for _, id := range skipped {
		s.logger.Warn("paste target outside grid", slog.String("source", string(id)))
	}

	// pasted formulas are evaluated where they landed
	s.calculationStack.reset()
	for _, p := range pasted {
		if p.cell.Formula != nil {
			s.calculateCell(p.cell.ID)
		}
	}

	s.logger.Debug("pasted cells",
		slog.Int("cells", len(pasted)),
		slog.Int("skipped", len(skipped)),
		slog.Int("undo_depth", s.history.UndoLen()))

	s.recalculate(changed...)
	return nil
}

// Undo restores the state before the latest recorded mutation
func (s *Spreadsheet) Undo() bool {
	current, err := s.snapshot()
	if err != nil {
		s.logger.Error("undo failed", slog.String("error", err.Error()))
		return false
	}
	entry, ok := s.history.Undo(current)
	if !ok {
		return false
	}
	s.restore(entry.Snapshot)
	s.logger.Debug("undo",
		slog.String("action", entry.Kind.String()),
		slog.Int("undo_depth", s.history.UndoLen()),
		slog.Int("redo_depth", s.history.RedoLen()))
	return true
}

// Redo reapplies the latest undone mutation
func (s *Spreadsheet) Redo() bool {
	current, err := s.snapshot()
	if err != nil {
		s.logger.Error("redo failed", slog.String("error", err.Error()))
		return false
	}
	entry, ok := s.history.Redo(current)
	if !ok {
		return false
	}
	s.restore(entry.Snapshot)
	s.logger.Debug("redo",
		slog.String("action", entry.Kind.String()),
		slog.Int("undo_depth", s.history.UndoLen()),
		slog.Int("redo_depth", s.history.RedoLen()))
	return true
}

func (s *Spreadsheet) CanUndo() bool {
	return s.history.CanUndo()
}

func (s *Spreadsheet) CanRedo() bool {
	return s.history.CanRedo()
}

// History exposes the undo/redo stacks for inspection
func (s *Spreadsheet) History() *History {
	return s.history
}

// GetDependencyGraph returns the dependency index
func (s *Spreadsheet) GetDependencyGraph() *DependencyGraph {
	return s.storage.dependencyGraph
}

// resolveAddress parses a textual address and checks it against the grid
func (s *Spreadsheet) resolveAddress(address string) (CellID, error) {
	id, err := ParseCellID(address)
	if err != nil {
		return "", err
	}
	if err := s.validateID(id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Spreadsheet) validateID(id CellID) error {
	if _, err := ParseCellID(string(id)); err != nil {
		return err
	}
	pos, err := id.Position()
	if err != nil {
		return err
	}
	return s.validatePosition(pos)
}

func (s *Spreadsheet) validatePosition(pos CellPosition) error {
	if pos.Row < 0 || pos.Col < 0 || pos.Row >= s.options.Rows || pos.Col >= s.options.Cols {
		return NewApplicationError(OutOfRange,
			fmt.Sprintf("position (%d, %d) is outside the %dx%d grid", pos.Row, pos.Col, s.options.Rows, s.options.Cols))
	}
	return nil
}

// snapshot deep-copies the state a history entry needs
func (s *Spreadsheet) snapshot() (Snapshot, error) {
	cells, err := s.storage.Snapshot()
	if err != nil {
		return Snapshot{}, NewApplicationError(Internal, err.Error())
	}
	snap := Snapshot{Cells: cells}
	if s.activeCell != nil {
		active := *s.activeCell
		snap.ActiveCell = &active
	}
	if s.selection != nil {
		selection := *s.selection
		snap.Selection = &selection
	}
	return snap, nil
}

// record pushes the pre-mutation state onto the undo stack
func (s *Spreadsheet) record(kind ActionKind) error {
	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	s.history.Push(HistoryEntry{Kind: kind, Snapshot: snap})
	return nil
}

// restore installs a snapshot popped off a history stack. the snapshot is
// owned by the caller at this point, so it is adopted without copying.
func (s *Spreadsheet) restore(snap Snapshot) {
	s.storage.Restore(snap.Cells)
	s.activeCell = snap.ActiveCell
	s.selection = snap.Selection
}

// recalculate drains the recompute queue seeded with the dependents of
// changed. in transitive mode every recalculated cell enqueues its own
// dependents; a cell is recalculated at most once per drain.
func (s *Spreadsheet) recalculate(changed ...CellID) {
	graph := s.storage.dependencyGraph
	s.calculationStack.reset()

	processed := make(map[CellID]struct{}, len(changed))
	for _, id := range changed {
		processed[id] = struct{}{}
	}
	for _, id := range changed {
		for _, dependent := range graph.GetDirectDependents(id) {
			if _, done := processed[dependent]; !done {
				graph.MarkDirty(dependent)
			}
		}
	}

	count := 0
	for {
		dirty := graph.DirtyCells()
		if len(dirty) == 0 {
			break
		}

		for _, id := range dirty {
			graph.ClearDirty(id)
			if _, done := processed[id]; done {
				continue
			}
			processed[id] = struct{}{}

			s.calculateCell(id)
			count++

			if s.options.FanOut != FanOutTransitive {
				continue
			}
			for _, dependent := range graph.GetDirectDependents(id) {
				if _, done := processed[dependent]; !done {
					graph.MarkDirty(dependent)
				}
			}
		}
	}

	graph.ClearAllDirty()
	if count > 0 {
		s.logger.Debug("recalculated dependents",
			slog.Int("cells", count),
			slog.String("fan_out", s.options.FanOut.String()))
	}
}

// calculateCell evaluates a formula cell and stores the outcome
func (s *Spreadsheet) calculateCell(id CellID) {
	cell, ok := s.storage.Get(id)
	if !ok || cell.Formula == nil {
		return
	}

	res := s.evaluate(id)
	if res.Err != nil {
		cell.Value = Empty()
	} else {
		cell.Value = res.Value
	}
	cell.Error = res.Err
	s.storage.cells[id] = cell
}

// evaluate computes the live result of a cell. formula cells are evaluated
// with the calculation stack as the visited path; completed results are
// reused for the rest of the command.
func (s *Spreadsheet) evaluate(id CellID) Result {
	cell, ok := s.storage.Get(id)
	if !ok {
		return Result{}
	}
	if cell.Formula == nil {
		return cell.Result()
	}
	if res, done := s.calculationStack.result(id); done {
		return res
	}

	s.calculationStack.push(id)
	res := Evaluate(*cell.Formula, s.evaluate, s.calculationStack.path())
	s.calculationStack.pop()

	// results that depend on the path taken are not reusable
	if res.Err == nil || res.Err.Kind != CircularReference {
		s.calculationStack.markCompleted(id, res)
	}
	return res
}

// CalculationStack tracks the cells being evaluated, innermost last, and
// the results already computed during the current command
type CalculationStack struct {
	items     []CellID
	completed map[CellID]Result
}

// NewCalculationStack creates a new calculation stack
func NewCalculationStack() *CalculationStack {
	return &CalculationStack{
		items:     make([]CellID, 0),
		completed: make(map[CellID]Result),
	}
}

// push adds a cell to the stack
func (cs *CalculationStack) push(id CellID) {
	cs.items = append(cs.items, id)
}

// pop removes and returns the top cell from the stack
func (cs *CalculationStack) pop() (CellID, bool) {
	if len(cs.items) == 0 {
		return "", false
	}
	id := cs.items[len(cs.items)-1]
	cs.items = cs.items[:len(cs.items)-1]
	return id, true
}

// path returns a copy of the stack as a visited path
func (cs *CalculationStack) path() Path {
	return Path(slices.Clone(cs.items))
}

// markCompleted records a cell's result for this pass
func (cs *CalculationStack) markCompleted(id CellID, res Result) {
	cs.completed[id] = res
}

// result returns a result recorded in this pass
func (cs *CalculationStack) result(id CellID) (Result, bool) {
	res, ok := cs.completed[id]
	return res, ok
}

// reset clears the stack
func (cs *CalculationStack) reset() {
	cs.items = cs.items[:0]
	cs.completed = make(map[CellID]Result)
}
