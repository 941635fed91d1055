package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vogtb/gridcalc/packages/spreadsheet"
)

// errQuit is returned by the quit command
var errQuit = errors.New("quit")

const helpText = `commands:
  set <cell> <input>     commit input; a leading = makes it a formula
  formula <cell> <=expr> store a formula
  get <cell>             print a cell
  cells                  list every stored cell
  select [cell[:cell]]   set the selection, or clear it
  active <cell>          move the active cell
  copy                   copy the selection
  paste [cell]           paste at cell, or at the active cell
  undo | redo            walk the history
  show [cell:cell]       print a block of the grid
  help                   this text
  quit                   leave the shell`

// Interpreter executes one command line at a time against a spreadsheet
type Interpreter struct {
	sheet *spreadsheet.Spreadsheet
	run   *spreadsheet.RunnableSpreadsheet
	out   io.Writer
}

func NewInterpreter(sheet *spreadsheet.Spreadsheet, out io.Writer) *Interpreter {
	printLn := func(line string) { fmt.Fprintln(out, line) }
	return &Interpreter{
		sheet: sheet,
		run:   spreadsheet.WrapSpreadsheet(sheet, printLn),
		out:   out,
	}
}

// chain runs fn from a clean error state and prefixes any failure with the
// command name
func (in *Interpreter) chain(name string, fn func(*spreadsheet.RunnableSpreadsheet) *spreadsheet.RunnableSpreadsheet) error {
	return in.run.Reset().
		Then(fn).
		OnError(func(err error) error { return fmt.Errorf("%s: %w", name, err) }).
		Error()
}

// Exec runs a single line. blank lines and lines starting with # are
// ignored.
func (in *Interpreter) Exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(name) {
	case "set":
		address, input, _ := strings.Cut(rest, " ")
		if address == "" {
			return fmt.Errorf("usage: set <cell> <input>")
		}
		return in.chain("set", func(r *spreadsheet.RunnableSpreadsheet) *spreadsheet.RunnableSpreadsheet {
			return r.Set(address, input)
		})

	case "formula":
		address, raw, _ := strings.Cut(rest, " ")
		if address == "" || raw == "" {
			return fmt.Errorf("usage: formula <cell> <=expression>")
		}
		if !strings.HasPrefix(raw, spreadsheet.FormulaMarker) {
			raw = spreadsheet.FormulaMarker + raw
		}
		return in.chain("formula", func(r *spreadsheet.RunnableSpreadsheet) *spreadsheet.RunnableSpreadsheet {
			return r.Set(address, raw)
		})

	case "get":
		return in.chain("get", func(r *spreadsheet.RunnableSpreadsheet) *spreadsheet.RunnableSpreadsheet {
			return r.Log(rest)
		})

	case "cells":
		in.listCells()
		return nil

	case "select":
		if rest == "" {
			in.sheet.ClearSelection()
			return nil
		}
		return in.chain("select", func(r *spreadsheet.RunnableSpreadsheet) *spreadsheet.RunnableSpreadsheet {
			return r.Select(rest)
		})

	case "active":
		return in.chain("active", func(r *spreadsheet.RunnableSpreadsheet) *spreadsheet.RunnableSpreadsheet {
			return r.Activate(rest)
		})

	case "copy":
		if _, ok := in.sheet.Selection(); !ok {
			return fmt.Errorf("nothing selected")
		}
		return in.chain("copy", (*spreadsheet.RunnableSpreadsheet).Copy)

	case "paste":
		return in.chain("paste", func(r *spreadsheet.RunnableSpreadsheet) *spreadsheet.RunnableSpreadsheet {
			return r.Paste(rest)
		})

	case "undo":
		if !in.sheet.Undo() {
			fmt.Fprintln(in.out, "nothing to undo")
		}
		return nil

	case "redo":
		if !in.sheet.Redo() {
			fmt.Fprintln(in.out, "nothing to redo")
		}
		return nil

	case "show":
		r, ok, err := in.showRange(rest)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(in.out, "(empty)")
			return nil
		}
		renderTable(in.out, in.sheet, r)
		return nil

	case "help":
		fmt.Fprintln(in.out, helpText)
		return nil

	case "quit", "exit":
		return errQuit

	default:
		return fmt.Errorf("unknown command %q (try help)", name)
	}
}

func (in *Interpreter) listCells() {
	for _, cell := range in.sheet.Cells() {
		display := spreadsheet.FormatCellValue(cell.Result())
		if cell.Formula != nil {
			fmt.Fprintf(in.out, "%s %s -> %s\n", cell.ID, cell.Formula.Raw, display)
		} else {
			fmt.Fprintf(in.out, "%s %s\n", cell.ID, display)
		}
	}
}

// showRange parses an explicit range or falls back to the bounding box of
// the stored cells
func (in *Interpreter) showRange(arg string) (spreadsheet.CellRange, bool, error) {
	if arg != "" {
		r, err := spreadsheet.ParseCellRange(arg)
		return r, err == nil, err
	}

	cells := in.sheet.Cells()
	if len(cells) == 0 {
		return spreadsheet.CellRange{}, false, nil
	}
	var r spreadsheet.CellRange
	for i, cell := range cells {
		pos, err := cell.ID.Position()
		if err != nil {
			continue
		}
		if i == 0 {
			r = spreadsheet.SingleCell(pos)
			continue
		}
		r.Start.Row = min(r.Start.Row, pos.Row)
		r.Start.Col = min(r.Start.Col, pos.Col)
		r.End.Row = max(r.End.Row, pos.Row)
		r.End.Col = max(r.End.Col, pos.Col)
	}
	return r, true, nil
}

// runScript executes every line of r and stops at the first failing one
func runScript(in *Interpreter, r io.Reader, name string) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		err := in.Exec(scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	return nil
}
