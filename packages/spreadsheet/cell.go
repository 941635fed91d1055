package spreadsheet

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind tags which member of CellValue is set
type ValueKind uint8

const (
	ValueEmpty  ValueKind = 0
	ValueNumber ValueKind = 1
	ValueText   ValueKind = 2
)

// CellValue is the user-visible value of a cell. exactly one of Number or
// Text is meaningful, according to Kind. the zero value is empty.
type CellValue struct {
	Kind   ValueKind
	Number float64
	Text   string
}

// Empty returns the absent value
func Empty() CellValue {
	return CellValue{}
}

// Number wraps a float64 as a cell value
func Number(n float64) CellValue {
	return CellValue{Kind: ValueNumber, Number: n}
}

// Text wraps a string as a cell value
func Text(s string) CellValue {
	return CellValue{Kind: ValueText, Text: s}
}

func (v CellValue) IsEmpty() bool {
	return v.Kind == ValueEmpty
}

// String returns the plain textual form, used in log attributes
func (v CellValue) String() string {
	switch v.Kind {
	case ValueNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case ValueText:
		return v.Text
	default:
		return ""
	}
}

// ErrorKind classifies cell evaluation failures
type ErrorKind uint8

const (
	CircularReference ErrorKind = 1 // a dependency is already on the visited path
	InvalidFormula    ErrorKind = 2 // marker missing or disallowed function at parse time
	CalculationError  ErrorKind = 3 // numeric evaluation failed or produced a non-finite number
	ReferenceError    ErrorKind = 4 // a referenced cell holds an error
)

// ErrorKindNames maps error kinds to the names shown to users
var ErrorKindNames = map[ErrorKind]string{
	CircularReference: "CIRCULAR_REFERENCE",
	InvalidFormula:    "INVALID_FORMULA",
	CalculationError:  "CALCULATION_ERROR",
	ReferenceError:    "REFERENCE_ERROR",
}

func (k ErrorKind) String() string {
	if name, ok := ErrorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// CellError is the error stored on a cell after a failed evaluation. it is
// data, not control flow: evaluation never panics or returns it through a
// Go error path except from ParseFormula.
type CellError struct {
	Kind    ErrorKind
	Message string
	Path    []CellID // set for circular references, in visiting order
}

func (e *CellError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.String()
}

func NewCellError(kind ErrorKind, message string) *CellError {
	if message == "" {
		message = kind.String()
	}
	return &CellError{
		Kind:    kind,
		Message: message,
	}
}

// newCircularError builds a circular reference error for the path visited
// followed by the repeated id.
func newCircularError(visited Path, repeated CellID) *CellError {
	path := append(visited.IDs(), repeated)
	names := make([]string, len(path))
	for i, id := range path {
		names[i] = string(id)
	}
	return &CellError{
		Kind:    CircularReference,
		Message: "circular reference: " + strings.Join(names, " -> "),
		Path:    path,
	}
}

// inCycle reports whether id is part of the loop recorded in a circular
// reference path. the loop starts at the first occurrence of the repeated
// id, which is always the last element.
func (e *CellError) inCycle(id CellID) bool {
	if e.Kind != CircularReference || len(e.Path) == 0 {
		return false
	}
	repeated := e.Path[len(e.Path)-1]
	start := -1
	for i, p := range e.Path {
		if p == repeated {
			start = i
			break
		}
	}
	for _, p := range e.Path[start:] {
		if p == id {
			return true
		}
	}
	return false
}

// Formula is a parsed formula: the raw text as entered, the expression
// after the marker, and the referenced cells in first-seen order.
type Formula struct {
	Raw          string
	Expression   string
	Dependencies []CellID
}

// DependsOn reports whether id appears in the formula's dependencies
func (f *Formula) DependsOn(id CellID) bool {
	for _, d := range f.Dependencies {
		if d == id {
			return true
		}
	}
	return false
}

// Cell is one entry of the authoritative cell mapping. a non-nil Error
// implies an empty Value. cells with a Formula only get Value/Error from
// evaluation.
type Cell struct {
	ID      CellID
	Value   CellValue
	Formula *Formula
	Error   *CellError
}

// Result is what evaluation produces and what a resolver hands back for a
// referenced cell.
type Result struct {
	Value CellValue
	Err   *CellError
}

// Result returns the cell's current value or error
func (c Cell) Result() Result {
	return Result{Value: c.Value, Err: c.Error}
}

// errorResult wraps a cell error in a Result
func errorResult(err *CellError) Result {
	return Result{Err: err}
}
