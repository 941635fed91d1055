// Package main provides the gridcalc command line: a script runner and an
// interactive shell over a single spreadsheet.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/vogtb/gridcalc/packages/spreadsheet"
)

var (
	rows          int
	cols          int
	historyLimit  int
	fanOut        string
	relativePaste bool
	logLevel      string
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gridcalc",
		Short: "Evaluate spreadsheet formulas from a script or an interactive shell",
		Long: `gridcalc drives a single in-memory spreadsheet. Cells hold numbers, text
or formulas such as =A1*2+sqrt(B3); changes propagate to dependent cells and
every edit can be undone.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.IntVar(&rows, "rows", spreadsheet.DefaultRows, "Number of rows in the grid")
	flags.IntVar(&cols, "cols", spreadsheet.DefaultCols, "Number of columns in the grid")
	flags.IntVar(&historyLimit, "history", spreadsheet.DefaultHistoryLimit, "Maximum undo/redo depth")
	flags.StringVar(&fanOut, "fanout", "transitive", "Recalculation fan-out: transitive or direct")
	flags.BoolVar(&relativePaste, "relative-paste", false, "Shift formula references when pasting")
	flags.StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "run <script>",
		Short: "Execute a command script (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE:  runScriptCommand,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "repl",
		Short: "Start an interactive shell",
		Args:  cobra.NoArgs,
		RunE:  runRepl,
	})

	return rootCmd
}

// newSpreadsheet builds a spreadsheet from the command line flags
func newSpreadsheet() (*spreadsheet.Spreadsheet, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	mode, err := spreadsheet.ParseFanOut(fanOut)
	if err != nil {
		return nil, err
	}
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("grid size must be positive, got %dx%d", rows, cols)
	}

	return spreadsheet.NewSpreadsheet(
		spreadsheet.WithGridSize(rows, cols),
		spreadsheet.WithHistoryLimit(historyLimit),
		spreadsheet.WithFanOut(mode),
		spreadsheet.WithRelativePaste(relativePaste),
		spreadsheet.WithLogger(logger.With(slog.String("cmd", "gridcalc"))),
	), nil
}

func runScriptCommand(cmd *cobra.Command, args []string) error {
	sheet, err := newSpreadsheet()
	if err != nil {
		return err
	}

	path := args[0]
	if path == "-" {
		return runScript(NewInterpreter(sheet, cmd.OutOrStdout()), cmd.InOrStdin(), "stdin")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	return runScript(NewInterpreter(sheet, cmd.OutOrStdout()), f, path)
}
