package scan

import (
	"reflect"
	"testing"
	"testing/fstest"
)

func TestScan_MaxDepth(t *testing.T) {
	fsys := fstest.MapFS{
		"root/a.jpg":            &fstest.MapFile{Data: []byte("a")},
		"root/b.MP4":            &fstest.MapFile{Data: []byte("b")},
		"root/c.txt":            &fstest.MapFile{Data: []byte("c")},
		"root/sub/d.png":        &fstest.MapFile{Data: []byte("d")},
		"root/sub/nested/e.mov": &fstest.MapFile{Data: []byte("e")},
	}

	testCases := []struct {
		name     string
		maxDepth int
		want     []string
	}{
		{
			name:     "depth 0 includes only top-level",
			maxDepth: 0,
			want:     []string{"a.jpg", "b.MP4"},
		},
		{
			name:     "depth 1 includes one subdirectory",
			maxDepth: 1,
			want:     []string{"a.jpg", "b.MP4", "sub/d.png"},
		},
		{
			name:     "unlimited includes nested subdirectories",
			maxDepth: -1,
			want:     []string{"a.jpg", "b.MP4", "sub/d.png", "sub/nested/e.mov"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.MaxDepth = tc.maxDepth

			records, err := ScanRecords(fsys, "root", opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got := paths(records); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("unexpected result\n got: %#v\nwant: %#v", got, tc.want)
			}
		})
	}
}

func TestScan_IgnoresNonMedia(t *testing.T) {
	fsys := fstest.MapFS{
		"root/a.txt":  &fstest.MapFile{Data: []byte("a")},
		"root/b.xmp":  &fstest.MapFile{Data: []byte("b")},
		"root/c.heic": &fstest.MapFile{Data: []byte("c")},
	}

	got, err := ScanRecords(fsys, "root", DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 0 {
		t.Fatalf("expected no media files, got %#v", got)
	}
}

func TestScan_SkipsEmptyAndMarkedFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"root/empty.jpg":                 &fstest.MapFile{},
		"root/.pending-1700000000-a.jpg": &fstest.MapFile{Data: []byte("a")},
		"root/.Trashed-1700000000-b.mp4": &fstest.MapFile{Data: []byte("b")},
		"root/IMG_20240530_210359.jpg":   &fstest.MapFile{Data: []byte("c")},
	}

	got, err := ScanRecords(fsys, "root", DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Path != "IMG_20240530_210359.jpg" {
		t.Fatalf("unexpected records %#v", got)
	}
	if got[0].FileSizeBytes != 1 {
		t.Fatalf("unexpected size %d", got[0].FileSizeBytes)
	}
}

func TestScan_InvalidMaxDepth(t *testing.T) {
	fsys := fstest.MapFS{}

	opts := DefaultOptions()
	opts.MaxDepth = -2

	_, err := ScanRecords(fsys, "root", opts)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func paths(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Path)
	}
	return out
}
