package createdat

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// FileClock reports a file's last-modified instant.
type FileClock interface {
	ModTime(path string) (time.Time, error)
}

// FsClock reads modification times from an afero filesystem.
type FsClock struct {
	Fs afero.Fs
}

func (c FsClock) ModTime(path string) (time.Time, error) {
	info, err := c.Fs.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

type modTimeExtractor struct {
	clock FileClock
	loc   *time.Location
	log   zerolog.Logger
}

// NewModTimeExtractor returns the last-resort extractor reading the filesystem
// modification time.
func NewModTimeExtractor(clock FileClock, loc *time.Location, log zerolog.Logger) Extractor {
	return &modTimeExtractor{clock: clock, loc: orLocal(loc), log: log}
}

func (e *modTimeExtractor) Name() string { return "mtime" }

func (e *modTimeExtractor) ExtractDates(path string) []Candidate {
	if e.clock == nil {
		return nil
	}
	mtime, err := e.clock.ModTime(path)
	if err != nil {
		e.log.Error().Err(err).Str("path", path).Msg("cannot read modification time")
		return nil
	}
	if mtime.IsZero() {
		return nil
	}
	// Names have second precision; sub-second parts would hide collisions.
	t := mtime.In(e.loc).Truncate(time.Second)
	return []Candidate{{Time: t, Source: SourceFileLastModified}}
}
