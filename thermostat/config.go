package thermostat

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults of a run without config file or flags.
const (
	DefaultStartDate       = "2019-05-01"
	DefaultEndDate         = "2019-05-23"
	DefaultDataDir         = "data"
	DefaultDataFilename    = "CampoHome_20190530124626.csv"
	DefaultRefreshInterval = 5 * time.Second
)

// DateBound is a window bound as written in the config file. Any scalar
// marks it as set; "" or "none" set it to unbounded. Bounds left out of the
// file (or null) keep the default.
type DateBound struct {
	Set bool
	Raw string
}

func (d *DateBound) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: date bound must be a scalar", value.Line)
	}
	d.Set = true
	d.Raw = strings.TrimSpace(value.Value)
	return nil
}

// FileConfig is the YAML config file.
type FileConfig struct {
	StartDate    DateBound `yaml:"start_date"`
	EndDate      DateBound `yaml:"end_date"`
	DataDir      string    `yaml:"data_dir"`
	DataFilename string    `yaml:"data_filename"`

	ShowOnOffMarkers *bool `yaml:"show_on_off_markers"`
	Interactive      *bool `yaml:"interactive"`
	Headless         *bool `yaml:"headless"`
	Debug            bool  `yaml:"debug"`

	// IANA zone of the export's timestamps; empty means the local zone.
	Timezone string `yaml:"timezone"`
	LogLevel string `yaml:"log_level"`

	// When set, the chart is also written to this PNG path.
	ExportPNG       string        `yaml:"export_png"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	Width           int           `yaml:"width"`
	Height          int           `yaml:"height"`
}

func LoadConfig(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Settings is the effective configuration of one invocation after defaults,
// config file and flags have been merged.
type Settings struct {
	StartDate       string
	EndDate         string
	DataDir         string
	DataFilename    string
	ShowMarkers     bool
	Interactive     bool
	Headless        bool
	Debug           bool
	Timezone        string
	LogLevel        string
	ExportPNG       string
	RefreshInterval time.Duration
	Width           int
	Height          int
}

func DefaultSettings() Settings {
	return Settings{
		StartDate:       DefaultStartDate,
		EndDate:         DefaultEndDate,
		DataDir:         DefaultDataDir,
		DataFilename:    DefaultDataFilename,
		LogLevel:        "info",
		RefreshInterval: DefaultRefreshInterval,
		Width:           DefaultChartWidth,
		Height:          DefaultChartHeight,
	}
}

// ApplyFile overlays the values present in fc.
func (s *Settings) ApplyFile(fc *FileConfig) {
	if fc == nil {
		return
	}
	if fc.StartDate.Set {
		s.StartDate = fc.StartDate.Raw
	}
	if fc.EndDate.Set {
		s.EndDate = fc.EndDate.Raw
	}
	if strings.TrimSpace(fc.DataDir) != "" {
		s.DataDir = strings.TrimSpace(fc.DataDir)
	}
	if strings.TrimSpace(fc.DataFilename) != "" {
		s.DataFilename = strings.TrimSpace(fc.DataFilename)
	}
	if fc.ShowOnOffMarkers != nil {
		s.ShowMarkers = *fc.ShowOnOffMarkers
	}
	if fc.Interactive != nil {
		s.Interactive = *fc.Interactive
	}
	if fc.Headless != nil {
		s.Headless = *fc.Headless
	}
	if fc.Debug {
		s.Debug = true
	}
	if fc.Timezone != "" {
		s.Timezone = fc.Timezone
	}
	if fc.LogLevel != "" {
		s.LogLevel = fc.LogLevel
	}
	if fc.ExportPNG != "" {
		s.ExportPNG = fc.ExportPNG
	}
	if fc.RefreshInterval > 0 {
		s.RefreshInterval = fc.RefreshInterval
	}
	if fc.Width > 0 {
		s.Width = fc.Width
	}
	if fc.Height > 0 {
		s.Height = fc.Height
	}
}

// DataPath joins the data directory and file name.
func (s Settings) DataPath() string {
	if s.DataDir == "" {
		return s.DataFilename
	}
	return filepath.Join(s.DataDir, s.DataFilename)
}

// Validate reports every problem with s at once.
func (s Settings) Validate() error {
	var errs []error
	if strings.TrimSpace(s.DataFilename) == "" {
		errs = append(errs, errors.New("data filename is required"))
	}
	if s.Width < 0 || s.Height < 0 {
		errs = append(errs, fmt.Errorf("chart size must not be negative (got %dx%d)", s.Width, s.Height))
	}
	if s.Interactive && s.RefreshInterval <= 0 {
		errs = append(errs, fmt.Errorf("refresh interval must be positive in interactive mode (got %s)", s.RefreshInterval))
	}
	if s.Interactive && s.Headless {
		errs = append(errs, errors.New("interactive and headless modes are exclusive"))
	}
	if s.Headless && strings.TrimSpace(s.ExportPNG) == "" {
		errs = append(errs, errors.New("headless mode needs an export path"))
	}
	if _, err := LoadZone(s.Timezone); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Window resolves the configured date bounds in loc.
func (s Settings) Window(loc *time.Location) (Bounds, error) {
	start, err := ParseDateBound(s.StartDate, loc)
	if err != nil {
		return Bounds{}, fmt.Errorf("start date: %w", err)
	}
	end, err := ParseDateBound(s.EndDate, loc)
	if err != nil {
		return Bounds{}, fmt.Errorf("end date: %w", err)
	}
	return Bounds{Start: start, End: end}, nil
}

// LoadZone resolves an IANA zone name; empty or "Local" is the local zone.
func LoadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", name, err)
	}
	return loc, nil
}

// ParseDateBound parses a window bound. A bare date means midnight at the
// start of that day. Empty or "none" is unbounded (nil).
func ParseDateBound(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		var tm time.Time
		var err error
		if strings.Contains(layout, "Z07") {
			tm, err = time.Parse(layout, s)
		} else {
			tm, err = time.ParseInLocation(layout, s, loc)
		}
		if err == nil {
			return &tm, nil
		}
	}
	return nil, fmt.Errorf("unsupported time format: %q", s)
}
