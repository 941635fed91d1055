package spreadsheet

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// AllowedFunctions is the complete set of callable functions. anything
// else is rejected at parse time (first call only) and at evaluation time.
var AllowedFunctions = []string{"sqrt", "abs", "round", "floor", "ceil"}

// IsAllowedFunction reports whether name, compared case-insensitively, is
// in AllowedFunctions
func IsAllowedFunction(name string) bool {
	return slices.Contains(AllowedFunctions, strings.ToLower(name))
}

// BuiltInFunctions dispatches the allow-listed numeric functions
type BuiltInFunctions struct{}

// NewDefaultBuiltInFunctions creates the function table
func NewDefaultBuiltInFunctions() *BuiltInFunctions {
	return &BuiltInFunctions{}
}

// Call invokes a built-in function by name with the given arguments
func (bf *BuiltInFunctions) Call(name string, args ...float64) (float64, error) {
	switch strings.ToLower(name) {
	case "sqrt":
		return bf.SQRT(args...)
	case "abs":
		return bf.ABS(args...)
	case "round":
		return bf.ROUND(args...)
	case "floor":
		return bf.FLOOR(args...)
	case "ceil":
		return bf.CEIL(args...)
	default:
		return 0, fmt.Errorf("undefined function %s", name)
	}
}

func (bf *BuiltInFunctions) SQRT(args ...float64) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("sqrt requires exactly 1 argument")
	}
	if args[0] < 0 {
		return 0, fmt.Errorf("sqrt requires a non-negative argument")
	}
	return math.Sqrt(args[0]), nil
}

func (bf *BuiltInFunctions) ABS(args ...float64) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("abs requires exactly 1 argument")
	}
	return math.Abs(args[0]), nil
}

// ROUND rounds half away from zero, optionally to a number of decimal
// places
func (bf *BuiltInFunctions) ROUND(args ...float64) (float64, error) {
	if len(args) < 1 || len(args) > 2 {
		return 0, fmt.Errorf("round requires 1 or 2 arguments")
	}

	if len(args) == 1 {
		return math.Round(args[0]), nil
	}

	places := args[1]
	if places != math.Trunc(places) || places < 0 || places > 15 {
		return 0, fmt.Errorf("round requires an integer number of places between 0 and 15")
	}
	multiplier := math.Pow(10, places)
	return math.Round(args[0]*multiplier) / multiplier, nil
}

func (bf *BuiltInFunctions) FLOOR(args ...float64) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("floor requires exactly 1 argument")
	}
	return math.Floor(args[0]), nil
}

func (bf *BuiltInFunctions) CEIL(args ...float64) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("ceil requires exactly 1 argument")
	}
	return math.Ceil(args[0]), nil
}
