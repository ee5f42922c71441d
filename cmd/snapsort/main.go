package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/quidome/snapsort/pkg/apply"
	"github.com/quidome/snapsort/pkg/config"
	"github.com/quidome/snapsort/pkg/createdat"
	"github.com/quidome/snapsort/pkg/logging"
	"github.com/quidome/snapsort/pkg/organize"
	"github.com/quidome/snapsort/pkg/scan"
)

const version = "0.2.0"

type options struct {
	verbose    bool
	configPath string
}

// flagValues holds flags that override configuration file values.
type flagValues struct {
	inputFolders []string
	outputFolder string
	dateMin      string
	dateMax      string
	write        bool
	readModTime  bool
	timeZone     string
	maxDepth     int
	json         bool
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:     "snapsort",
		Short:   "Rename and file photos and videos by capture date",
		Long:    "Snapsort resolves the capture date of photos and videos from their names, EXIF data or modification time, and moves them to yyyy/yyyyMMdd_/yyyy-MM-dd HH.mm.ss.ext.",
		Version: version,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("Snapsort CLI")
			cmd.Printf("Version: %s\n", version)
			if opts.verbose {
				cmd.Println("Verbose mode: enabled")
			}
			cmd.Println("")
			cmd.Println("Use --help to see available commands and options")
		},
	}

	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a TOML configuration file")

	rootCmd.AddCommand(newOrganizeCmd(opts))
	rootCmd.AddCommand(newScanCmd(opts))

	return rootCmd
}

func newOrganizeCmd(opts *options) *cobra.Command {
	flags := &flagValues{}

	organizeCmd := &cobra.Command{
		Use:   "organize",
		Short: "Move media files into date-named folders",
		Long:  "Resolve the capture date of every media file in the input folders and move it to its canonical name under the output folder. Nothing is moved without --write.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts, flags)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			log, err := newLogger(cmd, opts, cfg)
			if err != nil {
				return err
			}
			log = log.With().Str("run_id", uuid.NewString()).Logger()

			o, err := newOrganizer(cfg, log)
			if err != nil {
				return err
			}

			summary, err := o.Run(organize.RunOptions{
				InputFolders: cfg.InputFolders,
				OutputFolder: cfg.OutputFolder,
				Write:        cfg.Write,
			})
			if err != nil {
				return err
			}

			if flags.json {
				return writeJSON(cmd, newJSONReport(summary))
			}
			for _, r := range summary.Results {
				cmd.Printf("%s -> %s (%s)\n", r.Entry.SourcePath, r.Destination, r.Status)
			}
			for _, r := range summary.Rejections {
				cmd.PrintErrf("rejected %s: %v\n", r.Path, r.Reason)
			}
			return nil
		},
	}

	f := organizeCmd.Flags()
	f.StringSliceVarP(&flags.inputFolders, "input-folders", "i", nil, "folders to read media files from")
	f.StringVarP(&flags.outputFolder, "output-folder", "o", "", "folder to move media files into")
	f.StringVar(&flags.dateMin, "date-min", "", "ignore dates on or before this day (yyyy-mm-dd)")
	f.StringVar(&flags.dateMax, "date-max", "", "ignore dates on or after this day (yyyy-mm-dd)")
	f.BoolVarP(&flags.write, "write", "w", false, "move files instead of only printing the plan")
	f.BoolVar(&flags.readModTime, "read-filesystem-date-modified", false, "fall back to the file modification time")
	f.StringVar(&flags.timeZone, "time-zone", "", "IANA time zone for dates without one (default local)")
	f.IntVar(&flags.maxDepth, "max-depth", -1, "maximum recursion depth (0 = no recursion)")
	f.BoolVar(&flags.json, "json", false, "print the plan and results as JSON")

	return organizeCmd
}

func newScanCmd(opts *options) *cobra.Command {
	flags := &flagValues{}

	scanCmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "Scan a directory for media files",
		Long:  "Scan a directory and print every media file found (relative to the scan root) with its resolved capture date.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			directory := args[0]

			cfg, err := loadConfig(cmd, opts, flags)
			if err != nil {
				return err
			}
			if _, err := cfg.DateRange(); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			log, err := newLogger(cmd, opts, cfg)
			if err != nil {
				return err
			}

			o, err := newOrganizer(cfg, log)
			if err != nil {
				return err
			}

			listing, err := o.List([]string{directory})
			if err != nil {
				return err
			}

			if flags.json {
				return writeJSON(cmd, newJSONScan(directory, listing))
			}
			for _, r := range listing.Records {
				cmd.Printf("%s\t%s\t%s\n", relTo(directory, r.Path), r.Timestamp.Time.Format(time.DateTime), r.Timestamp.Source)
			}
			for _, r := range listing.Rejections {
				cmd.Printf("%s\t-\t%v\n", relTo(directory, r.Path), r.Reason)
			}

			if opts.verbose {
				cmd.PrintErrf("found %d media files\n", len(listing.Records)+len(listing.Rejections))
			}
			return nil
		},
	}

	f := scanCmd.Flags()
	f.IntVar(&flags.maxDepth, "max-depth", -1, "maximum recursion depth (0 = no recursion)")
	f.BoolVar(&flags.readModTime, "read-filesystem-date-modified", false, "fall back to the file modification time")
	f.StringVar(&flags.timeZone, "time-zone", "", "IANA time zone for dates without one (default local)")
	f.BoolVar(&flags.json, "json", false, "print records as JSON")

	return scanCmd
}

// loadConfig reads the configuration file, if any, and applies the flags
// that were set explicitly.
func loadConfig(cmd *cobra.Command, opts *options, flags *flagValues) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.ReadFromFile(opts.configPath); err != nil {
			return nil, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("input-folders") {
		cfg.InputFolders = flags.inputFolders
	}
	if changed("output-folder") {
		cfg.OutputFolder = flags.outputFolder
	}
	if changed("date-min") {
		cfg.DateMin = flags.dateMin
	}
	if changed("date-max") {
		cfg.DateMax = flags.dateMax
	}
	if changed("write") {
		cfg.Write = flags.write
	}
	if changed("read-filesystem-date-modified") {
		cfg.ReadFilesystemDateModified = flags.readModTime
	}
	if changed("time-zone") {
		cfg.TimeZone = flags.timeZone
	}
	if changed("max-depth") {
		cfg.Scan.MaxDepth = flags.maxDepth
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, opts *options, cfg *config.Config) (zerolog.Logger, error) {
	lvl, err := cfg.Level()
	if err != nil {
		return zerolog.Nop(), err
	}
	return logging.New(cmd.ErrOrStderr(), logging.Level(opts.verbose, lvl)), nil
}

func newOrganizer(cfg *config.Config, log zerolog.Logger) (*organize.Organizer, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	dateRange, err := cfg.DateRange()
	if err != nil {
		return nil, err
	}

	fsys := afero.NewOsFs()
	extractors := createdat.NewExtractors(
		createdat.Options{
			EnableFilesystemDateFallback: cfg.ReadFilesystemDateModified,
			Location:                     loc,
		},
		createdat.NewExifReader(fsys),
		createdat.FsClock{Fs: fsys},
		log,
	)
	chooser := createdat.NewChooser(extractors, dateRange, log)

	scanOpts := scan.DefaultOptions()
	scanOpts.MaxDepth = cfg.Scan.MaxDepth
	if len(cfg.Scan.Extensions) > 0 {
		scanOpts.Extensions = cfg.Scan.Extensions
	}

	return organize.New(fsys, chooser, scanOpts, log), nil
}

func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

type jsonOperation struct {
	SourcePath      string           `json:"source_path"`
	DestinationPath string           `json:"destination_path"`
	Timestamp       time.Time        `json:"timestamp"`
	Source          createdat.Source `json:"source"`
	Status          apply.Status     `json:"status"`
	Error           string           `json:"error,omitempty"`
}

type jsonRejection struct {
	SourcePath string `json:"source_path"`
	Reason     string `json:"reason"`
}

type jsonReport struct {
	Operations []jsonOperation `json:"operations"`
	Rejected   []jsonRejection `json:"rejected"`
}

func newJSONReport(summary organize.Summary) jsonReport {
	byPath := make(map[string]createdat.Candidate, len(summary.Records))
	for _, r := range summary.Records {
		byPath[r.Path] = r.Timestamp
	}

	report := jsonReport{
		Operations: make([]jsonOperation, 0, len(summary.Results)),
		Rejected:   newJSONRejections("", summary.Rejections),
	}
	for _, r := range summary.Results {
		ts := byPath[r.Entry.SourcePath]
		op := jsonOperation{
			SourcePath:      r.Entry.SourcePath,
			DestinationPath: r.Destination,
			Timestamp:       ts.Time,
			Source:          ts.Source,
			Status:          r.Status,
		}
		if r.Err != nil {
			op.Error = r.Err.Error()
		}
		report.Operations = append(report.Operations, op)
	}
	return report
}

type jsonRecord struct {
	SourcePath string           `json:"source_path"`
	Timestamp  time.Time        `json:"timestamp"`
	Source     createdat.Source `json:"source"`
}

type jsonScan struct {
	Records  []jsonRecord    `json:"records"`
	Rejected []jsonRejection `json:"rejected"`
}

func newJSONScan(root string, listing organize.Listing) jsonScan {
	out := jsonScan{
		Records:  make([]jsonRecord, 0, len(listing.Records)),
		Rejected: newJSONRejections(root, listing.Rejections),
	}
	for _, r := range listing.Records {
		out.Records = append(out.Records, jsonRecord{
			SourcePath: relTo(root, r.Path),
			Timestamp:  r.Timestamp.Time,
			Source:     r.Timestamp.Source,
		})
	}
	return out
}

func newJSONRejections(root string, rejections []*createdat.RejectedError) []jsonRejection {
	out := make([]jsonRejection, 0, len(rejections))
	for _, r := range rejections {
		path := r.Path
		if root != "" {
			path = relTo(root, path)
		}
		out = append(out, jsonRejection{SourcePath: path, Reason: r.Reason.Error()})
	}
	return out
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
