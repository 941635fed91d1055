package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/vogtb/gridcalc/packages/spreadsheet"
)

// maxCellWidth caps a rendered column; longer values are truncated
const maxCellWidth = 24

// renderTable prints the block r with column labels across the top and row
// numbers down the side. widths are measured in terminal cells so wide
// runes line up.
func renderTable(out io.Writer, sheet *spreadsheet.Spreadsheet, r spreadsheet.CellRange) {
	r = r.Normalize()
	nCols := r.End.Col - r.Start.Col + 1

	header := make([]string, nCols)
	widths := make([]int, nCols)
	for c := range nCols {
		header[c] = spreadsheet.ColumnLabel(r.Start.Col + c)
		widths[c] = runewidth.StringWidth(header[c])
	}

	var body [][]string
	for row := r.Start.Row; row <= r.End.Row; row++ {
		line := make([]string, nCols)
		for c := range nCols {
			id, err := spreadsheet.CellIDFromPosition(spreadsheet.CellPosition{Row: row, Col: r.Start.Col + c})
			if err != nil {
				continue
			}
			res, err := sheet.Get(string(id))
			if err != nil {
				continue
			}
			text := runewidth.Truncate(spreadsheet.FormatCellValue(res), maxCellWidth, "…")
			line[c] = text
			widths[c] = max(widths[c], runewidth.StringWidth(text))
		}
		body = append(body, line)
	}

	gutter := len(strconv.Itoa(r.End.Row + 1))
	writeRow(out, strings.Repeat(" ", gutter), header, widths)
	for i, line := range body {
		writeRow(out, fmt.Sprintf("%*d", gutter, r.Start.Row+i+1), line, widths)
	}
}

func writeRow(out io.Writer, label string, values []string, widths []int) {
	var b strings.Builder
	b.WriteString(label)
	for c, v := range values {
		b.WriteString(" | ")
		b.WriteString(runewidth.FillRight(v, widths[c]))
	}
	fmt.Fprintln(out, strings.TrimRight(b.String(), " "))
}
