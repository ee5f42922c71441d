// Package organize runs the full pipeline: list input folders, resolve
// timestamps, break collisions, plan names and apply the moves.
package organize

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/quidome/snapsort/pkg/apply"
	"github.com/quidome/snapsort/pkg/createdat"
	"github.com/quidome/snapsort/pkg/dedupe"
	"github.com/quidome/snapsort/pkg/plan"
	"github.com/quidome/snapsort/pkg/scan"
)

// Organizer ties the stages together over one filesystem.
type Organizer struct {
	fs          afero.Fs
	chooser     *createdat.Chooser
	scanOptions scan.Options
	log         zerolog.Logger
}

func New(fsys afero.Fs, chooser *createdat.Chooser, scanOptions scan.Options, log zerolog.Logger) *Organizer {
	return &Organizer{fs: fsys, chooser: chooser, scanOptions: scanOptions, log: log}
}

// Listing is the outcome of resolving every file of the input folders.
type Listing struct {
	Records    []createdat.Record
	Rejections []*createdat.RejectedError
}

// List walks folders and resolves a timestamp for every media file found.
// Missing folders are logged and skipped. Records are sorted by path.
func (o *Organizer) List(folders []string) (Listing, error) {
	var listing Listing

	for _, folder := range folders {
		ok, err := afero.DirExists(o.fs, folder)
		if err != nil {
			return Listing{}, fmt.Errorf("stat %s: %w", folder, err)
		}
		if !ok {
			o.log.Error().Str("folder", folder).Msg("input folder does not exist, skipping")
			continue
		}

		o.log.Info().Str("folder", folder).Msg("listing files")
		fsys := afero.NewIOFS(afero.NewBasePathFs(o.fs, folder))
		found, err := scan.ScanRecords(fsys, ".", o.scanOptions)
		if err != nil {
			return Listing{}, fmt.Errorf("scan %s: %w", folder, err)
		}

		for _, f := range found {
			path := filepath.Join(folder, filepath.FromSlash(f.Path))
			ts, err := o.chooser.Resolve(path)
			if err != nil {
				var rejected *createdat.RejectedError
				if !errors.As(err, &rejected) {
					return Listing{}, err
				}
				listing.Rejections = append(listing.Rejections, rejected)
				continue
			}
			listing.Records = append(listing.Records, createdat.Record{Path: path, Timestamp: ts})
		}
	}

	sort.SliceStable(listing.Records, func(i, j int) bool {
		return listing.Records[i].Path < listing.Records[j].Path
	})

	o.log.Info().
		Int("resolved", len(listing.Records)).
		Int("rejected", len(listing.Rejections)).
		Msg("listing done")
	return listing, nil
}

// RunOptions configures a full run.
type RunOptions struct {
	InputFolders []string
	OutputFolder string
	Write        bool
}

// Summary reports everything a run decided and did.
type Summary struct {
	Records    []createdat.Record
	Rejections []*createdat.RejectedError
	Plan       []plan.Entry
	Results    []apply.Result
}

// Counts returns the number of results per status.
func (s Summary) Counts() map[apply.Status]int {
	counts := make(map[apply.Status]int)
	for _, r := range s.Results {
		counts[r.Status]++
	}
	return counts
}

// Run lists the input folders, deduplicates the timestamps, generates the
// rename plan and applies it to the output folder.
func (o *Organizer) Run(opts RunOptions) (Summary, error) {
	listing, err := o.List(opts.InputFolders)
	if err != nil {
		return Summary{}, err
	}

	records, err := dedupe.Deduplicate(listing.Records)
	if err != nil {
		return Summary{}, err
	}

	entries := plan.Generate(records)

	results, err := apply.Execute(o.fs, opts.OutputFolder, entries, apply.Options{Write: opts.Write, Log: o.log})
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Records:    records,
		Rejections: listing.Rejections,
		Plan:       entries,
		Results:    results,
	}

	counts := summary.Counts()
	o.log.Info().
		Int("planned", counts[apply.StatusPlanned]).
		Int("moved", counts[apply.StatusMoved]).
		Int("skipped", counts[apply.StatusSkippedExists]+counts[apply.StatusSkippedIdentical]).
		Int("failed", counts[apply.StatusFailed]).
		Int("rejected", len(listing.Rejections)).
		Msg("run complete")
	return summary, nil
}
