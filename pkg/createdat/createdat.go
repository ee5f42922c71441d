package createdat

import (
	"errors"
	"fmt"
	"time"
)

// Source describes where a candidate timestamp was derived from.
//
// The order of the constants carries no priority; priority is the order of
// the extractor list handed to the Chooser.
type Source string

const (
	SourceFinalFileName         Source = "final_file_name"
	SourceExifDateTime          Source = "exif_date_time"
	SourceExifDateTimeDigitized Source = "exif_date_time_digitized"
	SourceExifDateTimeOriginal  Source = "exif_date_time_original"
	SourceExifGPSDateTime       Source = "exif_gps_date_time"
	SourceCameraFileName        Source = "camera_file_name"
	SourceFileLastModified      Source = "file_last_modified"
	SourceCollisionAvoidance    Source = "collision_avoidance"
)

// Candidate is a single proposed timestamp together with its source.
type Candidate struct {
	Time   time.Time `json:"time"`
	Source Source    `json:"source"`
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s (%s)", c.Time.Format(time.DateTime), c.Source)
}

// Record is a file with its resolved timestamp.
type Record struct {
	Path      string    `json:"path"`
	Timestamp Candidate `json:"timestamp"`
}

var (
	// ErrNoCandidates is returned when no extractor produced any timestamp.
	ErrNoCandidates = errors.New("no timestamp candidate found")

	// ErrOutOfRange is returned when every candidate fell outside the date range.
	ErrOutOfRange = errors.New("all timestamp candidates out of range")
)

// RejectedError reports a file that could not be given a timestamp.
type RejectedError struct {
	Path string
	// Reason is ErrNoCandidates or ErrOutOfRange.
	Reason error
	// Excluded holds the candidates dropped by the date range, if any.
	Excluded []Candidate
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Reason)
}

func (e *RejectedError) Unwrap() error { return e.Reason }
