package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/vogtb/gridcalc/packages/spreadsheet"
)

func newTestInterpreter(opts ...spreadsheet.Option) (*Interpreter, *bytes.Buffer) {
	opts = append([]spreadsheet.Option{spreadsheet.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	var out bytes.Buffer
	return NewInterpreter(spreadsheet.NewSpreadsheet(opts...), &out), &out
}

func TestRunScript(t *testing.T) {
	script := `
# prices
set A1 10
set A2 2.5
formula A3 =A1*A2
get A3
set A1 4
get A3
set B1 hello world
get B1
formula C1 A1/0
get C1
undo
get C1
`
	in, out := newTestInterpreter()
	if err := runScript(in, strings.NewReader(script), "test"); err != nil {
		t.Fatalf("runScript failed: %v", err)
	}

	want := []string{
		"A3: 25",
		"A3: 10",
		"B1: hello world",
		"C1: #ERROR: " + spreadsheet.NonFiniteMessage,
		"C1: <empty>",
	}
	got := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("output =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestRunScriptStopsAtError(t *testing.T) {
	in, out := newTestInterpreter()
	err := runScript(in, strings.NewReader("set A1 1\nbogus\nget A1\n"), "script")
	if err == nil || !strings.HasPrefix(err.Error(), "script:2:") {
		t.Fatalf("runScript error = %v, want script:2 prefix", err)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}

	in, _ = newTestInterpreter()
	err = runScript(in, strings.NewReader("set a1 1\n"), "script")
	var appErr *spreadsheet.AppError
	if !errors.As(err, &appErr) || appErr.Code != spreadsheet.InvalidArgument {
		t.Errorf("runScript error = %v, want InvalidArgument", err)
	}
}

func TestQuitStopsScript(t *testing.T) {
	in, out := newTestInterpreter()
	if err := runScript(in, strings.NewReader("quit\nget A1\n"), "script"); err != nil {
		t.Fatalf("runScript failed: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("commands ran after quit: %q", out.String())
	}
}

func TestCopyPasteCommands(t *testing.T) {
	in, out := newTestInterpreter()
	script := []string{
		"set A1 1",
		"set A2 2",
		"select A1:A2",
		"copy",
		"paste C3",
		"get C4",
		"active E1",
		"paste",
		"get E2",
	}
	for _, line := range script {
		if err := in.Exec(line); err != nil {
			t.Fatalf("Exec(%q) failed: %v", line, err)
		}
	}
	if got := out.String(); got != "C4: 2\nE2: 2\n" {
		t.Errorf("output = %q", got)
	}

	in, _ = newTestInterpreter()
	if err := in.Exec("copy"); err == nil {
		t.Errorf("copy without a selection succeeded")
	}
	err := in.Exec("paste")
	var appErr *spreadsheet.AppError
	if !errors.As(err, &appErr) || appErr.Code != spreadsheet.FailedPrecondition || !strings.HasPrefix(err.Error(), "paste: ") {
		t.Errorf("paste without a target = %v, want a FailedPrecondition paste error", err)
	}

	for _, line := range []string{"select A1", "select"} {
		if err := in.Exec(line); err != nil {
			t.Fatalf("Exec(%q) failed: %v", line, err)
		}
	}
	if err := in.Exec("copy"); err == nil {
		t.Errorf("copy after clearing the selection succeeded")
	}
}

func TestActiveCommand(t *testing.T) {
	in, out := newTestInterpreter(spreadsheet.WithGridSize(5, 5))
	err := in.Exec("active F1")
	var appErr *spreadsheet.AppError
	if !errors.As(err, &appErr) || appErr.Code != spreadsheet.OutOfRange {
		t.Errorf("active F1 = %v, want OutOfRange", err)
	}

	for _, line := range []string{"active B2", "set B2 7", "get B2", "get E5"} {
		if err := in.Exec(line); err != nil {
			t.Fatalf("Exec(%q) failed: %v", line, err)
		}
	}
	if got := out.String(); got != "B2: 7\nE5: <empty>\n" {
		t.Errorf("output = %q", got)
	}
	if pos, ok := in.sheet.ActiveCell(); !ok || pos != (spreadsheet.CellPosition{Row: 1, Col: 1}) {
		t.Errorf("ActiveCell() = %v, %v", pos, ok)
	}
}

func TestUndoRedoCommands(t *testing.T) {
	in, out := newTestInterpreter()
	for _, line := range []string{"undo", "set A1 1", "undo", "redo", "redo", "get A1"} {
		if err := in.Exec(line); err != nil {
			t.Fatalf("Exec(%q) failed: %v", line, err)
		}
	}
	want := "nothing to undo\nnothing to redo\nA1: 1\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestCellsAndShow(t *testing.T) {
	in, out := newTestInterpreter()
	for _, line := range []string{"set A1 1", "formula B1 =A1+1", "set A2 hi"} {
		if err := in.Exec(line); err != nil {
			t.Fatalf("Exec(%q) failed: %v", line, err)
		}
	}

	if err := in.Exec("cells"); err != nil {
		t.Fatal(err)
	}
	if got, want := out.String(), "A1 1\nB1 =A1+1 -> 2\nA2 hi\n"; got != want {
		t.Errorf("cells = %q, want %q", got, want)
	}

	out.Reset()
	if err := in.Exec("show"); err != nil {
		t.Fatal(err)
	}
	want := "  | A  | B\n1 | 1  | 2\n2 | hi |\n"
	if got := out.String(); got != want {
		t.Errorf("show =\n%q\nwant\n%q", got, want)
	}

	out.Reset()
	in, out = newTestInterpreter()
	if err := in.Exec("show"); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "(empty)\n" {
		t.Errorf("empty show = %q", got)
	}
}

func TestShowWideRunes(t *testing.T) {
	in, out := newTestInterpreter()
	for _, line := range []string{"set A1 世界", "set B1 x", "set A2 1"} {
		if err := in.Exec(line); err != nil {
			t.Fatalf("Exec(%q) failed: %v", line, err)
		}
	}
	if err := in.Exec("show A1:B2"); err != nil {
		t.Fatal(err)
	}
	want := "  | A    | B\n1 | 世界 | x\n2 | 1    |\n"
	if got := out.String(); got != want {
		t.Errorf("show =\n%q\nwant\n%q", got, want)
	}
}

func TestCompleteCommand(t *testing.T) {
	got := completeCommand("s")
	if strings.Join(got, ",") != "set,select,show" {
		t.Errorf("completeCommand(s) = %v", got)
	}
}
