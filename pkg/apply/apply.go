package apply

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/quidome/snapsort/pkg/plan"
)

var (
	// ErrDestinationRootMissing is returned when the destination root does not exist.
	ErrDestinationRootMissing = errors.New("destination root does not exist")

	// ErrDestinationExists is returned when a move would replace an existing file.
	ErrDestinationExists = errors.New("destination file already exists")
)

// Status is the outcome of a single plan entry.
type Status string

const (
	StatusPlanned          Status = "planned"
	StatusMoved            Status = "moved"
	StatusSkippedExists    Status = "skipped_exists"
	StatusSkippedIdentical Status = "skipped_identical"
	StatusFailed           Status = "failed"
)

// Result contains the outcome of one plan entry.
type Result struct {
	Entry       plan.Entry `json:"entry"`
	Destination string     `json:"destination"`
	Status      Status     `json:"status"`
	Err         error      `json:"-"`
}

// Options configures the apply behavior.
type Options struct {
	// Write performs the moves. When false nothing on disk is touched.
	Write bool

	Log zerolog.Logger
}

// Execute moves every entry's source to its destination under root.
//
// It will:
// - Fail before touching anything when root does not exist
// - Never replace an existing destination
// - Continue with the next entry after a per-entry failure
func Execute(fsys afero.Fs, root string, entries []plan.Entry, opts Options) ([]Result, error) {
	ok, err := afero.DirExists(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("stat destination root: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDestinationRootMissing, root)
	}

	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		dst := e.Destination(root)
		result := Result{Entry: e, Destination: dst}

		opts.Log.Info().
			Str("source", e.SourcePath).
			Str("destination", dst).
			Bool("write", opts.Write).
			Msg("moving file")

		result.Status, result.Err = move(fsys, e.SourcePath, dst, opts.Write)

		switch result.Status {
		case StatusSkippedExists:
			opts.Log.Warn().Str("destination", dst).Msg("destination already exists, skipping")
		case StatusSkippedIdentical:
			opts.Log.Info().Str("destination", dst).Msg("identical file already at destination, skipping")
		case StatusFailed:
			opts.Log.Error().Err(result.Err).Str("source", e.SourcePath).Msg("cannot move file")
		}
		results = append(results, result)
	}

	return results, nil
}

func move(fsys afero.Fs, src, dst string, write bool) (Status, error) {
	exists, err := afero.Exists(fsys, dst)
	if err != nil {
		return StatusFailed, fmt.Errorf("stat destination: %w", err)
	}
	if exists {
		identical, err := filesAreIdentical(fsys, src, dst)
		if err != nil {
			return StatusFailed, err
		}
		if identical {
			return StatusSkippedIdentical, nil
		}
		return StatusSkippedExists, ErrDestinationExists
	}

	if !write {
		return StatusPlanned, nil
	}

	if err := fsys.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return StatusFailed, fmt.Errorf("create directory: %w", err)
	}

	// Not atomic with the check above: a file created at dst in between is
	// replaced by Rename. Batches are not run concurrently on one output folder.
	if err := fsys.Rename(src, dst); err != nil {
		if !isCrossDevice(err) {
			return StatusFailed, fmt.Errorf("rename: %w", err)
		}
		if err := copyFile(fsys, src, dst); err != nil {
			return StatusFailed, fmt.Errorf("copy file: %w", err)
		}
		if err := fsys.Remove(src); err != nil {
			return StatusFailed, fmt.Errorf("remove source: %w", err)
		}
	}

	return StatusMoved, nil
}

// copyFile copies src to dst, refusing to replace an existing dst.
func copyFile(fsys afero.Fs, src, dst string) error {
	srcFile, err := fsys.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	dstFile, err := fsys.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, srcInfo.Mode())
	if err != nil {
		if os.IsExist(err) {
			return ErrDestinationExists
		}
		return fmt.Errorf("create destination: %w", err)
	}

	if err := writeCopy(fsys, dst, dstFile, srcFile, srcInfo); err != nil {
		// Only the source may remain after a failed copy.
		_ = fsys.Remove(dst)
		return err
	}
	return nil
}

func writeCopy(fsys afero.Fs, dst string, dstFile afero.File, srcFile io.Reader, srcInfo os.FileInfo) error {
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return fmt.Errorf("copy content: %w", err)
	}
	if err := dstFile.Sync(); err != nil {
		dstFile.Close()
		return fmt.Errorf("sync: %w", err)
	}
	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	// Keep the modification time, the fallback extractor may read it later.
	if err := fsys.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
		return fmt.Errorf("set times: %w", err)
	}
	return nil
}
