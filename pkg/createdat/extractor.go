package createdat

import (
	"time"

	"github.com/rs/zerolog"
)

// Extractor maps a file to zero or more candidate timestamps.
//
// Implementations never fail: decode errors are logged and yield no candidates.
type Extractor interface {
	Name() string
	ExtractDates(path string) []Candidate
}

// Options configures the extractor set.
type Options struct {
	// EnableFilesystemDateFallback appends the modification-time extractor as a
	// last resort. It is the least trustworthy source and disabled by default.
	EnableFilesystemDateFallback bool

	// Location is used for timestamps that carry no timezone.
	// If nil, time.Local is used.
	Location *time.Location
}

// NewExtractors builds the extractor set in priority order: final name, EXIF,
// camera name and, when enabled, file modification time.
func NewExtractors(opts Options, metadata MetadataProvider, clock FileClock, log zerolog.Logger) []Extractor {
	loc := orLocal(opts.Location)

	extractors := []Extractor{
		// Already processed or renamed by hand: trusted the most.
		NewFinalNameExtractor(loc, log),
		NewExifExtractor(metadata, loc, log),
		NewCameraNameExtractor(loc, log),
	}
	if opts.EnableFilesystemDateFallback {
		extractors = append(extractors, NewModTimeExtractor(clock, loc, log))
	}
	return extractors
}

func orLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
