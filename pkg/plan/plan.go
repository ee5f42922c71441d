package plan

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/quidome/snapsort/pkg/createdat"
)

const (
	yearFolderLayout = "2006"
	dayFolderLayout  = "20060102"
)

// Entry is a planned move of SourcePath to NewFolder/NewName.
type Entry struct {
	// NewName is the file name inside NewFolder.
	NewName string `json:"new_name"`
	// NewFolder is slash separated and relative to the destination root.
	NewFolder  string `json:"new_folder"`
	SourcePath string `json:"source_path"`
}

// Destination returns the entry's target path under root.
func (e Entry) Destination(root string) string {
	return filepath.Join(root, filepath.FromSlash(e.NewFolder), e.NewName)
}

// Less orders entries by folder, then name.
func (e Entry) Less(other Entry) bool {
	if e.NewFolder != other.NewFolder {
		return e.NewFolder < other.NewFolder
	}
	return e.NewName < other.NewName
}

// Name returns the canonical file name for a timestamp: "2006-01-02 15.04.05.ext".
func Name(t time.Time, ext string) string {
	name := createdat.FormatFinalName(t)
	if ext == "" {
		return name
	}
	return name + "." + ext
}

// Folder returns the canonical folder for a timestamp: "2006/20060102_".
func Folder(t time.Time) string {
	return t.Format(yearFolderLayout) + "/" + t.Format(dayFolderLayout) + "_"
}

// NormalizeExtension returns the lower-cased extension of path without the
// dot, with "jpeg" shortened to "jpg".
func NormalizeExtension(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "jpeg" {
		return "jpg"
	}
	return ext
}

// Generate computes the rename plan for resolved records, sorted by folder
// then name. It performs no I/O.
func Generate(records []createdat.Record) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		t := r.Timestamp.Time
		entries = append(entries, Entry{
			NewName:    Name(t, NormalizeExtension(r.Path)),
			NewFolder:  Folder(t),
			SourcePath: r.Path,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Less(entries[j])
	})
	return entries
}
