package spreadsheet

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/efp"
)

// FormulaMarker is the prefix that turns cell input into a formula
const FormulaMarker = "="

// referencePattern is the textual shape of a cell reference inside an
// expression
var referencePattern = regexp.MustCompile(`[A-Z]+[0-9]+`)

// ParseFormula splits raw formula text into its expression and dependency
// list. it fails with an InvalidFormula *CellError when the marker is
// missing, the expression is blank, or the first function call in the
// expression is not allow-listed. only the first call is checked: this is
// a guard, not a grammar, and the evaluator rejects anything it slips.
func ParseFormula(raw string) (Formula, error) {
	if !strings.HasPrefix(raw, FormulaMarker) {
		return Formula{}, NewCellError(InvalidFormula, "formula must start with '='")
	}

	expression := strings.TrimPrefix(raw, FormulaMarker)
	if strings.TrimSpace(expression) == "" {
		return Formula{}, NewCellError(InvalidFormula, "formula has no expression")
	}

	if name, ok := firstFunctionName(expression); ok && !IsAllowedFunction(name) {
		return Formula{}, NewCellError(InvalidFormula, fmt.Sprintf("function %s is not allowed", name))
	}

	return Formula{
		Raw:          raw,
		Expression:   expression,
		Dependencies: ExtractDependencies(expression),
	}, nil
}

// ExtractDependencies returns every cell reference in expression, unique
// and in first-seen order
func ExtractDependencies(expression string) []CellID {
	matches := referencePattern.FindAllString(expression, -1)
	seen := make(map[CellID]struct{}, len(matches))
	deps := make([]CellID, 0, len(matches))
	for _, m := range matches {
		id := CellID(m)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		deps = append(deps, id)
	}
	return deps
}

// firstFunctionName returns the name of the first function call token
func firstFunctionName(expression string) (string, bool) {
	ps := efp.ExcelParser()
	for _, token := range ps.Parse(expression) {
		if token.TType == efp.TokenTypeFunction && token.TSubType == efp.TokenSubTypeStart {
			return token.TValue, true
		}
	}
	return "", false
}

// ShiftReferences rewrites every cell reference in expression by the given
// row and column offsets. references that would leave the grid are kept as
// they are.
func ShiftReferences(expression string, rows, cols int) string {
	return referencePattern.ReplaceAllStringFunc(expression, func(ref string) string {
		shifted, err := CellID(ref).Offset(rows, cols)
		if err != nil {
			return ref
		}
		return string(shifted)
	})
}
