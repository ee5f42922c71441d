package scan

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

type Options struct {
	// MaxDepth limits recursion; -1 means unlimited and 0 the root only.
	MaxDepth int

	Extensions []string

	// IgnorePrefixes are lower-case file name prefixes to skip.
	IgnorePrefixes []string
}

func DefaultOptions() Options {
	return Options{
		MaxDepth: -1,
		Extensions: []string{
			".jpg", ".jpeg", ".png", ".gif", ".webp",
			".mp4", ".mov", ".mkv", ".avi",
		},
		// Android marks half-written and deleted files this way.
		IgnorePrefixes: []string{".pending-", ".trashed-"},
	}
}

type Record struct {
	Path          string `json:"path"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

// ScanRecords walks root and returns the supported, non-empty media files,
// sorted by slash-separated path relative to root.
func ScanRecords(fsys fs.FS, root string, opts Options) ([]Record, error) {
	if opts.MaxDepth < -1 {
		return nil, fs.ErrInvalid
	}

	exts := normalizeExts(opts.Extensions)

	var matches []Record

	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if opts.MaxDepth >= 0 {
				rel, relErr := filepath.Rel(root, path)
				if relErr != nil {
					return relErr
				}
				if rel == "." {
					return nil
				}
				if depth(rel) > opts.MaxDepth {
					return fs.SkipDir
				}
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}

		if opts.MaxDepth >= 0 && depth(rel) > opts.MaxDepth {
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if !exts[strings.ToLower(filepath.Ext(rel))] {
			return nil
		}
		if hasPrefix(strings.ToLower(d.Name()), opts.IgnorePrefixes) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}
		if info.Size() == 0 {
			return nil
		}

		matches = append(matches, Record{
			Path:          filepath.ToSlash(rel),
			FileSizeBytes: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Path < matches[j].Path
	})
	return matches, nil
}

func hasPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func normalizeExts(exts []string) map[string]bool {
	m := make(map[string]bool, len(exts))
	for _, ext := range exts {
		e := strings.TrimSpace(strings.ToLower(ext))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		m[e] = true
	}
	return m
}

func depth(rel string) int {
	rel = filepath.Clean(rel)
	if rel == "." {
		return 0
	}
	return strings.Count(filepath.ToSlash(rel), "/")
}
