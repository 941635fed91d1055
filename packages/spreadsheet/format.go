package spreadsheet

import (
	"strconv"
	"strings"
)

// DisplayPrecision is the number of decimals shown before trailing zeros
// are trimmed
const DisplayPrecision = 10

// FormatCellValue renders a result the way the grid shows it: errors as
// "#ERROR: <message>", empty as "", numbers rounded to DisplayPrecision
// decimals with trailing zeros removed, text as is.
func FormatCellValue(res Result) string {
	if res.Err != nil {
		return "#ERROR: " + res.Err.Message
	}
	switch res.Value.Kind {
	case ValueNumber:
		return formatNumber(res.Value.Number)
	case ValueText:
		return res.Value.Text
	default:
		return ""
	}
}

func formatNumber(n float64) string {
	s := strconv.FormatFloat(n, 'f', DisplayPrecision, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		return "0"
	}
	return s
}
