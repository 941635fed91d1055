package spreadsheet

import (
	"fmt"
	"log/slog"
)

// FanOut selects how far a change propagates to dependent cells
type FanOut uint8

const (
	// FanOutTransitive recomputes every cell downstream of a change
	FanOutTransitive FanOut = 0
	// FanOutDirect recomputes only the cells whose formulas reference the
	// changed cell
	FanOutDirect FanOut = 1
)

func (f FanOut) String() string {
	switch f {
	case FanOutTransitive:
		return "transitive"
	case FanOutDirect:
		return "direct"
	default:
		return fmt.Sprintf("FanOut(%d)", uint8(f))
	}
}

// ParseFanOut parses "transitive" or "direct"
func ParseFanOut(s string) (FanOut, error) {
	switch s {
	case "transitive", "":
		return FanOutTransitive, nil
	case "direct":
		return FanOutDirect, nil
	default:
		return 0, NewApplicationError(InvalidArgument, fmt.Sprintf("unknown fan-out mode %q", s))
	}
}

const (
	DefaultRows = 10000
	DefaultCols = 10000
)

// Options configure a Spreadsheet
type Options struct {
	Rows          int
	Cols          int
	HistoryLimit  int
	FanOut        FanOut
	RelativePaste bool
	Logger        *slog.Logger
}

// DefaultOptions returns the stock grid configuration
func DefaultOptions() Options {
	return Options{
		Rows:         DefaultRows,
		Cols:         DefaultCols,
		HistoryLimit: DefaultHistoryLimit,
		FanOut:       FanOutTransitive,
	}
}

// Option mutates Options
type Option func(*Options)

// WithGridSize sets the grid extent used to validate identifiers and paste
// targets
func WithGridSize(rows, cols int) Option {
	return func(o *Options) {
		o.Rows = rows
		o.Cols = cols
	}
}

// WithHistoryLimit bounds the undo and redo stacks
func WithHistoryLimit(limit int) Option {
	return func(o *Options) {
		o.HistoryLimit = limit
	}
}

// WithFanOut selects the propagation mode
func WithFanOut(mode FanOut) Option {
	return func(o *Options) {
		o.FanOut = mode
	}
}

// WithRelativePaste makes paste shift formula references by the paste
// offset instead of copying them literally
func WithRelativePaste(relative bool) Option {
	return func(o *Options) {
		o.RelativePaste = relative
	}
}

// WithLogger sets the logger; the component attribute is added on top
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}
