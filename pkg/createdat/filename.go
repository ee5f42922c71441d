package createdat

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// FinalNameLayout is the canonical rename format, without extension.
const FinalNameLayout = "2006-01-02 15.04.05"

var finalNameLayouts = []string{
	FinalNameLayout,
	"2006-01-02 15-04-05",
	"2006-01-02 15:04:05",
}

const cameraNameLayout = "20060102 150405"

// FormatFinalName formats t with FinalNameLayout.
func FormatFinalName(t time.Time) string {
	return t.Format(FinalNameLayout)
}

// ParseFinalName parses a base name (without extension) written in the final
// name format or one of its variants, where the time separator is '-' or ':'.
func ParseFinalName(name string, loc *time.Location) (time.Time, bool) {
	for _, layout := range finalNameLayouts {
		t, err := time.ParseInLocation(layout, name, loc)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseCameraName parses names like IMG_20160804_100935, VID_20160804_100935
// or 20160804_100935. Extra underscore-separated tokens after the time are ignored.
func ParseCameraName(name string, loc *time.Location) (time.Time, bool) {
	tokens := strings.Split(name, "_")
	if len(tokens) < 2 {
		return time.Time{}, false
	}

	dateIndex := 1
	if isDigits(tokens[0]) {
		dateIndex = 0
	}
	if dateIndex+1 >= len(tokens) {
		return time.Time{}, false
	}

	date, clock := tokens[dateIndex], tokens[dateIndex+1]
	if len(date) != 8 || len(clock) != 6 {
		return time.Time{}, false
	}

	t, err := time.ParseInLocation(cameraNameLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseBase parses the base name of path as is, then with its last extension
// removed. Extensionless final names end in ".ss", which filepath.Ext takes
// for an extension.
func parseBase(path string, parse func(string, *time.Location) (time.Time, bool), loc *time.Location) (time.Time, bool) {
	base := filepath.Base(path)
	if t, ok := parse(base, loc); ok {
		return t, true
	}
	return parse(strings.TrimSuffix(base, filepath.Ext(base)), loc)
}

// nameExtractor parses the file's base name with a single parse function.
type nameExtractor struct {
	name   string
	source Source
	parse  func(string, *time.Location) (time.Time, bool)
	loc    *time.Location
	log    zerolog.Logger
}

// NewFinalNameExtractor returns the extractor for files already named in the
// final name format.
func NewFinalNameExtractor(loc *time.Location, log zerolog.Logger) Extractor {
	return &nameExtractor{name: "final-name", source: SourceFinalFileName, parse: ParseFinalName, loc: orLocal(loc), log: log}
}

// NewCameraNameExtractor returns the extractor for camera-style file names.
func NewCameraNameExtractor(loc *time.Location, log zerolog.Logger) Extractor {
	return &nameExtractor{name: "camera-name", source: SourceCameraFileName, parse: ParseCameraName, loc: orLocal(loc), log: log}
}

func (e *nameExtractor) Name() string { return e.name }

func (e *nameExtractor) ExtractDates(path string) []Candidate {
	t, ok := parseBase(path, e.parse, e.loc)
	if !ok {
		e.log.Debug().Str("extractor", e.name).Str("path", path).Msg("file name does not match")
		return nil
	}
	return []Candidate{{Time: t, Source: e.source}}
}
