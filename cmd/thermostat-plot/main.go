package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"thermostat-plot/thermostat"
	"thermostat-plot/viewer"
)

// flagValues holds every command-line flag as parsed.
type flagValues struct {
	startDate   string
	endDate     string
	dataDir     string
	dataFile    string
	markers     bool
	interactive bool
	headless    bool
	debug       bool
	timezone    string
	logLevel    string
	exportPNG   string
	refresh     time.Duration
	width       int
	height      int
}

func main() {
	var configPath string
	var fv flagValues

	flag.StringVar(&configPath, "config", "", "YAML config file path.")
	flag.StringVar(&fv.startDate, "start", thermostat.DefaultStartDate, "Inclusive window start (YYYY-MM-DD, 'YYYY-MM-DD HH:MM' or RFC3339). Empty for unbounded.")
	flag.StringVar(&fv.endDate, "end", thermostat.DefaultEndDate, "Inclusive window end. Empty for unbounded.")
	flag.StringVar(&fv.dataDir, "data-dir", thermostat.DefaultDataDir, "Directory holding the thermostat export.")
	flag.StringVar(&fv.dataFile, "data-file", thermostat.DefaultDataFilename, "Thermostat export file name.")
	flag.BoolVar(&fv.markers, "markers", false, "Draw cooling on/off markers on the temperature panel.")
	flag.BoolVar(&fv.interactive, "interactive", false, "Keep the window live and redraw when the data file changes.")
	flag.BoolVar(&fv.headless, "headless", false, "Do not open a window; requires -export.")
	flag.BoolVar(&fv.debug, "debug", false, "Enable debug logs.")
	flag.StringVar(&fv.timezone, "tz", "", "IANA zone of the export timestamps (default: local zone).")
	flag.StringVar(&fv.logLevel, "log-level", "info", "Log level (debug, info, warn, error).")
	flag.StringVar(&fv.exportPNG, "export", "", "Also write the chart to this PNG file.")
	flag.DurationVar(&fv.refresh, "refresh", thermostat.DefaultRefreshInterval, "Poll interval for -interactive.")
	flag.IntVar(&fv.width, "width", thermostat.DefaultChartWidth, "Chart width in pixels.")
	flag.IntVar(&fv.height, "height", thermostat.DefaultChartHeight, "Chart height in pixels.")
	flag.Parse()

	visited := map[string]bool{}
	flag.CommandLine.Visit(func(f *flag.Flag) {
		visited[f.Name] = true
	})

	settings := thermostat.DefaultSettings()
	if configPath != "" {
		fileCfg, err := thermostat.LoadConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(2)
		}
		settings.ApplyFile(fileCfg)
	}
	applyFlags(&settings, visited, fv)

	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	logger := newLogger(settings)
	loc, _ := thermostat.LoadZone(settings.Timezone)
	window, err := settings.Window(loc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	runner, err := thermostat.NewRunner(thermostat.RunnerConfig{
		DataPath:    settings.DataPath(),
		Window:      window,
		Location:    loc,
		ShowMarkers: settings.ShowMarkers,
		ExportPath:  settings.ExportPNG,
		Width:       settings.Width,
		Height:      settings.Height,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatalf("init runner: %v", err)
	}
	defer runner.Close()

	res, err := runner.RunOnce()
	if err != nil {
		runner.Close()
		logger.Fatalf("plot %s: %v", settings.DataPath(), err)
	}
	if settings.Headless {
		return
	}

	title := "Thermostat: " + filepath.Base(settings.DataPath())
	if !settings.Interactive {
		viewer.Show(title, res.Image)
		return
	}
	viewer.Watch(title, res.Image, settings.RefreshInterval,
		func(force bool) (image.Image, error) {
			next, changed, err := runner.Refresh(force)
			if err != nil || !changed {
				return nil, err
			}
			return next.Image, nil
		},
		func(err error) {
			logger.Errorf("refresh %s: %v", settings.DataPath(), err)
		},
	)
}

// applyFlags overlays the flags that were set explicitly; they win over
// the config file.
func applyFlags(s *thermostat.Settings, visited map[string]bool, fv flagValues) {
	if visited["start"] {
		s.StartDate = fv.startDate
	}
	if visited["end"] {
		s.EndDate = fv.endDate
	}
	if visited["data-dir"] {
		s.DataDir = fv.dataDir
	}
	if visited["data-file"] {
		s.DataFilename = fv.dataFile
	}
	if visited["markers"] {
		s.ShowMarkers = fv.markers
	}
	if visited["interactive"] {
		s.Interactive = fv.interactive
	}
	if visited["headless"] {
		s.Headless = fv.headless
	}
	if visited["debug"] {
		s.Debug = fv.debug
	}
	if visited["tz"] {
		s.Timezone = fv.timezone
	}
	if visited["log-level"] {
		s.LogLevel = fv.logLevel
	}
	if visited["export"] {
		s.ExportPNG = fv.exportPNG
	}
	if visited["refresh"] {
		s.RefreshInterval = fv.refresh
	}
	if visited["width"] {
		s.Width = fv.width
	}
	if visited["height"] {
		s.Height = fv.height
	}
}

func newLogger(s thermostat.Settings) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	level, err := logrus.ParseLevel(s.LogLevel)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", s.LogLevel)
		level = logrus.InfoLevel
	}
	if s.Debug {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)
	return logger
}
