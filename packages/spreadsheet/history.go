package spreadsheet

// ActionKind tags the mutation a history entry was recorded for
type ActionKind uint8

const (
	ActionSetValue   ActionKind = 1
	ActionSetFormula ActionKind = 2
	ActionPasteCells ActionKind = 3
)

func (k ActionKind) String() string {
	switch k {
	case ActionSetValue:
		return "SET_CELL_VALUE"
	case ActionSetFormula:
		return "SET_FORMULA"
	case ActionPasteCells:
		return "PASTE_CELLS"
	default:
		return "UNKNOWN"
	}
}

// DefaultHistoryLimit bounds each of the undo and redo stacks
const DefaultHistoryLimit = 100

// Snapshot is a deep copy of the grid state a command can roll back to
type Snapshot struct {
	Cells      map[CellID]Cell
	ActiveCell *CellPosition
	Selection  *CellRange
}

// HistoryEntry pairs a snapshot with the action that replaced it
type HistoryEntry struct {
	Kind     ActionKind
	Snapshot Snapshot
}

// History keeps bounded undo and redo stacks. the oldest entry is evicted
// when a stack grows past its limit.
type History struct {
	undo  []HistoryEntry
	redo  []HistoryEntry
	limit int
}

// NewHistory creates a history with the given per-stack limit. a limit
// below one falls back to DefaultHistoryLimit.
func NewHistory(limit int) *History {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Push records a new mutation. any pending redo entries are dropped.
func (h *History) Push(entry HistoryEntry) {
	h.undo = h.pushBounded(h.undo, entry)
	h.redo = nil
}

// Undo pops the latest entry. current is the state being replaced, which
// is parked on the redo stack so the mutation can be replayed.
func (h *History) Undo(current Snapshot) (HistoryEntry, bool) {
	if len(h.undo) == 0 {
		return HistoryEntry{}, false
	}
	entry := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = h.pushBounded(h.redo, HistoryEntry{Kind: entry.Kind, Snapshot: current})
	return entry, true
}

// Redo pops the latest undone entry, parking current on the undo stack
func (h *History) Redo(current Snapshot) (HistoryEntry, bool) {
	if len(h.redo) == 0 {
		return HistoryEntry{}, false
	}
	entry := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = h.pushBounded(h.undo, HistoryEntry{Kind: entry.Kind, Snapshot: current})
	return entry, true
}

func (h *History) CanUndo() bool {
	return len(h.undo) > 0
}

func (h *History) CanRedo() bool {
	return len(h.redo) > 0
}

// UndoLen returns the depth of the undo stack
func (h *History) UndoLen() int {
	return len(h.undo)
}

// RedoLen returns the depth of the redo stack
func (h *History) RedoLen() int {
	return len(h.redo)
}

// Peek returns the entry the next Undo would pop
func (h *History) Peek() (HistoryEntry, bool) {
	if len(h.undo) == 0 {
		return HistoryEntry{}, false
	}
	return h.undo[len(h.undo)-1], true
}

func (h *History) pushBounded(stack []HistoryEntry, entry HistoryEntry) []HistoryEntry {
	stack = append(stack, entry)
	if over := len(stack) - h.limit; over > 0 {
		// clear evicted slots so their snapshots can be collected
		clear(stack[:over])
		stack = stack[over:]
	}
	return stack
}
