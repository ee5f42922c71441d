package createdat

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/rs/zerolog"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"github.com/spf13/afero"
)

// EXIF DateTime format: "2006:01:02 15:04:05", without timezone.
const (
	exifDateTimeLayout = "2006:01:02 15:04:05"
	gpsDateLayout      = "2006:01:02"
)

// headerSize is enough for filetype to recognise a JPEG.
const headerSize = 261

// ExifFields holds the raw, undecoded date fields of an EXIF block.
// Empty strings and a nil GPSTimeStamp mean the field is absent.
type ExifFields struct {
	GPSDateStamp      string
	GPSTimeStamp      []float64 // hour, minute, second (UTC)
	DateTime          string
	DateTimeDigitized string
	DateTimeOriginal  string
}

// MetadataProvider returns the EXIF date fields of a file.
//
// A file with no EXIF block returns zero ExifFields and a nil error.
type MetadataProvider interface {
	ExifFields(path string) (ExifFields, error)
}

// ExifReader decodes EXIF from files on an afero filesystem.
type ExifReader struct {
	Fs afero.Fs
}

// NewExifReader returns an ExifReader over fsys.
func NewExifReader(fsys afero.Fs) *ExifReader {
	return &ExifReader{Fs: fsys}
}

func (r *ExifReader) ExifFields(path string) (ExifFields, error) {
	f, err := r.Fs.Open(path)
	if err != nil {
		return ExifFields{}, err
	}
	defer f.Close()

	head := make([]byte, headerSize)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return ExifFields{}, fmt.Errorf("read header: %w", err)
	}
	if !filetype.Is(head[:n], "jpg") {
		return ExifFields{}, errors.New("not a jpeg stream")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return ExifFields{}, fmt.Errorf("seek: %w", err)
	}

	x, err := exif.Decode(f)
	if errors.Is(err, io.EOF) {
		// No APP1 segment.
		return ExifFields{}, nil
	}
	// Non-critical errors come with a partially populated result.
	if err != nil && (exif.IsCriticalError(err) || x == nil) {
		return ExifFields{}, fmt.Errorf("decode exif: %w", err)
	}

	return ExifFields{
		GPSDateStamp:      stringField(x, exif.GPSDateStamp),
		GPSTimeStamp:      gpsTimeField(x),
		DateTime:          stringField(x, exif.DateTime),
		DateTimeDigitized: stringField(x, exif.DateTimeDigitized),
		DateTimeOriginal:  stringField(x, exif.DateTimeOriginal),
	}, nil
}

func stringField(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil || tag.Format() != tiff.StringVal {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimRight(s, "\x00 ")
}

func gpsTimeField(x *exif.Exif) []float64 {
	tag, err := x.Get(exif.GPSTimeStamp)
	if err != nil || tag.Format() != tiff.RatVal {
		return nil
	}
	values := make([]float64, 0, tag.Count)
	for i := 0; i < int(tag.Count); i++ {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return nil
		}
		values = append(values, float64(num)/float64(den))
	}
	return values
}

type exifExtractor struct {
	metadata MetadataProvider
	loc      *time.Location
	log      zerolog.Logger
}

// NewExifExtractor returns the extractor reading EXIF date fields of JPEG files.
func NewExifExtractor(metadata MetadataProvider, loc *time.Location, log zerolog.Logger) Extractor {
	return &exifExtractor{metadata: metadata, loc: orLocal(loc), log: log}
}

func (e *exifExtractor) Name() string { return "exif" }

func (e *exifExtractor) ExtractDates(path string) []Candidate {
	if !IsJPEG(path) {
		e.log.Debug().Str("path", path).Msg("not a jpeg file")
		return nil
	}
	if e.metadata == nil {
		return nil
	}

	fields, err := e.metadata.ExifFields(path)
	if err != nil {
		e.log.Error().Err(err).Str("path", path).Msg("cannot read exif data")
		return nil
	}

	var candidates []Candidate
	if c, ok := e.gpsCandidate(path, fields); ok {
		candidates = append(candidates, c)
	}
	for _, f := range []struct {
		value  string
		source Source
	}{
		{fields.DateTime, SourceExifDateTime},
		{fields.DateTimeDigitized, SourceExifDateTimeDigitized},
		{fields.DateTimeOriginal, SourceExifDateTimeOriginal},
	} {
		if f.value == "" {
			continue
		}
		t, err := time.ParseInLocation(exifDateTimeLayout, f.value, e.loc)
		if err != nil {
			e.log.Warn().Err(err).Str("path", path).Str("source", string(f.source)).Msg("skipping malformed exif date")
			continue
		}
		candidates = append(candidates, Candidate{Time: t, Source: f.source})
	}

	if len(candidates) == 0 {
		e.log.Warn().Str("path", path).Msg("no usable date found in exif data")
	}
	return candidates
}

// gpsCandidate combines GPSDateStamp and GPSTimeStamp. Unlike the other EXIF
// dates, which are naive local times, GPS time is read as UTC and converted to
// the configured location, so it can disagree with DateTime by the zone offset
// and lose in consensus when the camera clock is set to local time.
func (e *exifExtractor) gpsCandidate(path string, fields ExifFields) (Candidate, bool) {
	if fields.GPSDateStamp == "" || fields.GPSTimeStamp == nil {
		return Candidate{}, false
	}
	if len(fields.GPSTimeStamp) != 3 {
		e.log.Warn().Str("path", path).Int("components", len(fields.GPSTimeStamp)).Msg("skipping malformed gps time")
		return Candidate{}, false
	}

	date, err := time.Parse(gpsDateLayout, fields.GPSDateStamp)
	if err != nil {
		e.log.Warn().Err(err).Str("path", path).Msg("skipping malformed gps date")
		return Candidate{}, false
	}

	h := int(math.Trunc(fields.GPSTimeStamp[0]))
	m := int(math.Trunc(fields.GPSTimeStamp[1]))
	s := int(math.Trunc(fields.GPSTimeStamp[2]))
	if h < 0 || h > 23 || m < 0 || m > 59 || s < 0 || s > 59 {
		e.log.Warn().Str("path", path).Ints("hms", []int{h, m, s}).Msg("skipping malformed gps time")
		return Candidate{}, false
	}

	utc := time.Date(date.Year(), date.Month(), date.Day(), h, m, s, 0, time.UTC)
	return Candidate{Time: utc.In(e.loc), Source: SourceExifGPSDateTime}, true
}

// IsJPEG reports whether path has a .jpg or .jpeg extension.
func IsJPEG(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return true
	}
	return false
}
