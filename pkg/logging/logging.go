package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

const timeFormat = "2006-01-02 15:04:05"

// New returns a console logger writing to w at the given level.
// Colour is only used when w is a terminal.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: timeFormat,
		NoColor:    !isTerminal(w),
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Level picks the level for the verbose flag when no explicit level is set.
func Level(verbose bool, configured zerolog.Level) zerolog.Level {
	if verbose && configured > zerolog.DebugLevel {
		return zerolog.DebugLevel
	}
	return configured
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
