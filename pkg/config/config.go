package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/quidome/snapsort/pkg/createdat"
)

// DateLayout is the accepted format of DateMin and DateMax.
const DateLayout = "2006-01-02"

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config represents the configuration for snapsort.
type Config struct {
	InputFolders []string `toml:"input_folders"`
	OutputFolder string   `toml:"output_folder"`

	// DateMin and DateMax bound accepted capture dates (exclusive), empty means unbounded.
	DateMin string `toml:"date_min"`
	DateMax string `toml:"date_max"`

	Write                      bool   `toml:"write"`
	ReadFilesystemDateModified bool   `toml:"read_filesystem_date_modified"`
	TimeZone                   string `toml:"time_zone"` // IANA name, empty for local time
	LogLevel                   string `toml:"log_level"`

	Scan ScanConfig `toml:"scan"`
}

// ScanConfig holds directory walking settings.
type ScanConfig struct {
	MaxDepth   int      `toml:"max_depth"` // -1 for unlimited
	Extensions []string `toml:"extensions,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Scan:     ScanConfig{MaxDepth: -1},
	}
}

// Read decodes a Config from the provided reader. Keys absent from the
// input keep their default values.
func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, undecoded[0].String())
	}
	return cfg, nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Location returns the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: time zone %q: %v", ErrInvalidConfig, c.TimeZone, err)
	}
	return loc, nil
}

// DateRange parses DateMin and DateMax as the start of their day in the
// configured location.
func (c *Config) DateRange() (createdat.DateRange, error) {
	loc, err := c.Location()
	if err != nil {
		return createdat.DateRange{}, err
	}

	var r createdat.DateRange
	if r.Min, err = parseDate("date_min", c.DateMin, loc); err != nil {
		return createdat.DateRange{}, err
	}
	if r.Max, err = parseDate("date_max", c.DateMax, loc); err != nil {
		return createdat.DateRange{}, err
	}
	if !r.Min.IsZero() && !r.Max.IsZero() && !r.Min.Before(r.Max) {
		return createdat.DateRange{}, fmt.Errorf("%w: date_min %s is not before date_max %s", ErrInvalidConfig, c.DateMin, c.DateMax)
	}
	return r, nil
}

func parseDate(key, value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q, expected yyyy-mm-dd", ErrInvalidDate, key, value)
	}
	return t, nil
}

// Level returns the configured log level.
func (c *Config) Level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}
	return lvl, nil
}

// Validate checks everything an organize run needs before any file is read.
func (c *Config) Validate() error {
	if len(c.InputFolders) == 0 {
		return fmt.Errorf("%w: no input folders", ErrInvalidConfig)
	}
	if c.OutputFolder == "" {
		return fmt.Errorf("%w: no output folder", ErrInvalidConfig)
	}
	if c.Scan.MaxDepth < -1 {
		return fmt.Errorf("%w: max depth must be -1 or greater", ErrInvalidConfig)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.DateRange(); err != nil {
		return err
	}
	return nil
}
