package organize

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/quidome/snapsort/pkg/apply"
	"github.com/quidome/snapsort/pkg/createdat"
	"github.com/quidome/snapsort/pkg/scan"
)

type fakeMetadata map[string]createdat.ExifFields

func (f fakeMetadata) ExifFields(path string) (createdat.ExifFields, error) {
	return f[path], nil
}

func newOrganizer(fsys afero.Fs, metadata createdat.MetadataProvider, dateRange createdat.DateRange) *Organizer {
	log := zerolog.Nop()
	extractors := createdat.NewExtractors(createdat.Options{Location: time.UTC}, metadata, createdat.FsClock{Fs: fsys}, log)
	chooser := createdat.NewChooser(extractors, dateRange, log)
	return New(fsys, chooser, scan.DefaultOptions(), log)
}

func writeFiles(t *testing.T, fsys afero.Fs, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := afero.WriteFile(fsys, p, []byte("content of "+p), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	if err := fsys.MkdirAll("/out", 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestRun_CollidingNamesGetDistinctSeconds(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys,
		"/in/IMG_20240530_210359.jpg",
		"/in/PXL_20240530_210359.jpg",
		"/in/VID_20240530_210359.mp4",
	)

	summary, err := newOrganizer(fsys, fakeMetadata{}, createdat.DateRange{}).Run(RunOptions{
		InputFolders: []string{"/in"},
		OutputFolder: "/out",
		Write:        true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := map[string]string{
		"/in/IMG_20240530_210359.jpg": "2024-05-30 21.03.59.jpg",
		"/in/PXL_20240530_210359.jpg": "2024-05-30 21.04.00.jpg",
		"/in/VID_20240530_210359.mp4": "2024-05-30 21.04.01.mp4",
	}
	if len(summary.Plan) != len(want) {
		t.Fatalf("expected %d plan entries, got %d", len(want), len(summary.Plan))
	}
	for _, e := range summary.Plan {
		if e.NewFolder != "2024/20240530_" {
			t.Errorf("%s: folder = %q", e.SourcePath, e.NewFolder)
		}
		if e.NewName != want[e.SourcePath] {
			t.Errorf("%s: name = %q, want %q", e.SourcePath, e.NewName, want[e.SourcePath])
		}
	}
	for _, r := range summary.Results {
		if r.Status != apply.StatusMoved {
			t.Errorf("%s: status = %s (%v)", r.Entry.SourcePath, r.Status, r.Err)
		}
		if ok, _ := afero.Exists(fsys, r.Destination); !ok {
			t.Errorf("%s missing after run", r.Destination)
		}
	}
}

func TestRun_ExifOriginalDate(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, "/in/photo.jpg")
	metadata := fakeMetadata{
		"/in/photo.jpg": {DateTimeOriginal: "2016:09:19 21:11:12"},
	}

	summary, err := newOrganizer(fsys, metadata, createdat.DateRange{}).Run(RunOptions{
		InputFolders: []string{"/in"},
		OutputFolder: "/out",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(summary.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(summary.Records))
	}
	got := summary.Records[0].Timestamp
	if want := time.Date(2016, 9, 19, 21, 11, 12, 0, time.UTC); !got.Time.Equal(want) {
		t.Errorf("timestamp = %v, want %v", got.Time, want)
	}
	if got.Source != createdat.SourceExifDateTimeOriginal {
		t.Errorf("source = %s", got.Source)
	}
	if summary.Plan[0].NewFolder != "2016/20160919_" || summary.Plan[0].NewName != "2016-09-19 21.11.12.jpg" {
		t.Errorf("unexpected plan entry %+v", summary.Plan[0])
	}
}

func TestRun_DateMinDropsOlderFiles(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys,
		"/in/IMG_20160530_210359.jpg",
		"/in/IMG_20240530_210359.jpg",
	)
	dateRange := createdat.DateRange{Min: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	summary, err := newOrganizer(fsys, fakeMetadata{}, dateRange).Run(RunOptions{
		InputFolders: []string{"/in"},
		OutputFolder: "/out",
		Write:        true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(summary.Plan) != 1 || summary.Plan[0].SourcePath != "/in/IMG_20240530_210359.jpg" {
		t.Fatalf("unexpected plan %+v", summary.Plan)
	}
	if len(summary.Rejections) != 1 {
		t.Fatalf("expected 1 rejection, got %d", len(summary.Rejections))
	}
	if !errors.Is(summary.Rejections[0], createdat.ErrOutOfRange) {
		t.Errorf("rejection reason = %v", summary.Rejections[0].Reason)
	}
	if ok, _ := afero.Exists(fsys, "/in/IMG_20160530_210359.jpg"); !ok {
		t.Error("out of range file was moved")
	}
}

func TestRun_DryRunTouchesNothing(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, "/in/IMG_20240530_210359.jpg")

	summary, err := newOrganizer(fsys, fakeMetadata{}, createdat.DateRange{}).Run(RunOptions{
		InputFolders: []string{"/in"},
		OutputFolder: "/out",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := summary.Counts()[apply.StatusPlanned]; got != 1 {
		t.Fatalf("planned = %d, want 1", got)
	}
	if ok, _ := afero.Exists(fsys, "/in/IMG_20240530_210359.jpg"); !ok {
		t.Error("source moved during dry run")
	}
	if ok, _ := afero.DirExists(fsys, "/out/2024"); ok {
		t.Error("output folder created during dry run")
	}
}

func TestRun_MissingOutputFolder(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/in/IMG_20240530_210359.jpg", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := newOrganizer(fsys, fakeMetadata{}, createdat.DateRange{}).Run(RunOptions{
		InputFolders: []string{"/in"},
		OutputFolder: "/missing",
		Write:        true,
	})
	if !errors.Is(err, apply.ErrDestinationRootMissing) {
		t.Fatalf("expected ErrDestinationRootMissing, got %v", err)
	}
}

func TestList_SkipsMissingFoldersAndRejectsUndated(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys,
		"/a/sub/IMG_20240530_210359.jpg",
		"/b/holiday.jpg",
		"/b/notes.txt",
	)

	listing, err := newOrganizer(fsys, fakeMetadata{}, createdat.DateRange{}).List([]string{"/a", "/nope", "/b"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if len(listing.Records) != 1 || listing.Records[0].Path != filepath.Join("/a", "sub", "IMG_20240530_210359.jpg") {
		t.Fatalf("unexpected records %+v", listing.Records)
	}
	if len(listing.Rejections) != 1 || listing.Rejections[0].Path != filepath.Join("/b", "holiday.jpg") {
		t.Fatalf("unexpected rejections %+v", listing.Rejections)
	}
	if !errors.Is(listing.Rejections[0], createdat.ErrNoCandidates) {
		t.Errorf("rejection reason = %v", listing.Rejections[0].Reason)
	}
}

func TestRun_OsFs(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	src := filepath.Join(in, "VID_20240530_210359.mp4")
	if err := os.WriteFile(src, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}

	fsys := afero.NewOsFs()
	summary, err := newOrganizer(fsys, createdat.NewExifReader(fsys), createdat.DateRange{}).Run(RunOptions{
		InputFolders: []string{in},
		OutputFolder: out,
		Write:        true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Results) != 1 || summary.Results[0].Status != apply.StatusMoved {
		t.Fatalf("unexpected results %+v", summary.Results)
	}
	if _, err := os.Stat(filepath.Join(out, "2024", "20240530_", "2024-05-30 21.03.59.mp4")); err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source still present: %v", err)
	}
}
