package spreadsheet

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Resolver returns the current value or error of a referenced cell
type Resolver func(id CellID) Result

// NonFiniteMessage is the message of the CalculationError produced when an
// expression evaluates to Inf or NaN
const NonFiniteMessage = "division by zero or non-finite result"

// numericText is what text must look like to be used under an operator
var numericText = regexp.MustCompile(`^([0-9]+\.?[0-9]*|\.[0-9]+)$`)

var operatorChars = "+-*/^"

var defaultFunctions = NewDefaultBuiltInFunctions()

// Evaluate computes a formula against the cells reachable through resolve.
// visited is the path of cells whose evaluation led here; the cell owning
// f is expected to be its last element. Evaluate never panics and never
// returns a Go error: failures come back as Result.Err.
func Evaluate(f Formula, resolve Resolver, visited Path) Result {
	// cycles are reported before anything is resolved
	for _, d := range f.Dependencies {
		if visited.Contains(d) {
			return errorResult(newCircularError(visited, d))
		}
	}

	expression := strings.TrimSpace(f.Expression)
	hasOperators := strings.ContainsAny(expression, operatorChars)
	bare := !hasOperators && len(f.Dependencies) == 1 && stripParens(expression) == string(f.Dependencies[0])

	var self CellID
	if len(visited) > 0 {
		self = visited[len(visited)-1]
	}

	bindings := make(Bindings, len(f.Dependencies))
	for _, d := range f.Dependencies {
		res := resolve(d)
		if res.Err != nil {
			if res.Err.inCycle(self) {
				return res
			}
			return errorResult(NewCellError(ReferenceError,
				fmt.Sprintf("reference to %s failed: %s", d, res.Err.Message)))
		}

		if bare {
			// a bare reference passes the value through untouched
			return Result{Value: res.Value}
		}

		switch res.Value.Kind {
		case ValueEmpty:
			bindings[d] = 0
		case ValueNumber:
			bindings[d] = res.Value.Number
		case ValueText:
			if !numericText.MatchString(res.Value.Text) {
				return errorResult(NewCellError(CalculationError,
					fmt.Sprintf("cell %s contains non-numeric text %q", d, res.Value.Text)))
			}
			n, err := strconv.ParseFloat(res.Value.Text, 64)
			if err != nil {
				return errorResult(NewCellError(CalculationError,
					fmt.Sprintf("cell %s contains non-numeric text %q", d, res.Value.Text)))
			}
			bindings[d] = n
		}
	}

	node, err := ParseExpression(expression)
	if err != nil {
		return errorResult(NewCellError(CalculationError, cleanMessage(err.Error())))
	}

	n, err := node.Eval(bindings, defaultFunctions)
	if err != nil {
		return errorResult(NewCellError(CalculationError, cleanMessage(err.Error())))
	}
	if math.IsInf(n, 0) || math.IsNaN(n) {
		return errorResult(NewCellError(CalculationError, NonFiniteMessage))
	}

	return Result{Value: Number(n)}
}

// stripParens removes parentheses that enclose the whole expression, so
// "((B1))" reads as "B1". "(A1)+(B1)" is left alone.
func stripParens(expression string) string {
	for len(expression) >= 2 && expression[0] == '(' && expression[len(expression)-1] == ')' {
		depth := 0
		for i := 0; i < len(expression)-1; i++ {
			switch expression[i] {
			case '(':
				depth++
			case ')':
				depth--
			}
			if depth == 0 {
				return expression
			}
		}
		expression = strings.TrimSpace(expression[1 : len(expression)-1])
	}
	return expression
}

// cleanMessage strips generic "Error:" prefixes
func cleanMessage(msg string) string {
	msg = strings.TrimSpace(msg)
	for strings.HasPrefix(msg, "Error:") {
		msg = strings.TrimSpace(strings.TrimPrefix(msg, "Error:"))
	}
	if msg == "" {
		return "calculation failed"
	}
	return msg
}
