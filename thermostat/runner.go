package thermostat

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type RunnerConfig struct {
	DataPath    string
	Window      Bounds
	Location    *time.Location
	ShowMarkers bool
	// When set, each rendered chart is also written to this PNG path.
	ExportPath string
	Width      int
	Height     int
	Logger     *logrus.Logger
}

// Runner executes the load → align → filter → render pipeline for one
// data file.
type Runner struct {
	// mu serialises runs with each other and with Close.
	mu         sync.Mutex
	cfg        RunnerConfig
	log        *logrus.Entry
	frame      *Frame
	lastDigest string
}

// Result is the outcome of one pipeline run.
type Result struct {
	Series Series // samples within the window
	Image  image.Image
	Stats  RunStats
}

// RunStats counts what a run saw.
type RunStats struct {
	RowsRead      int
	RowsSkipped   int
	SamplesParsed int
	SamplesShown  int
	EventsByKind  map[EventKind]int
	Elapsed       time.Duration
}

func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if strings.TrimSpace(cfg.DataPath) == "" {
		return nil, fmt.Errorf("DataPath is required")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Width <= 0 {
		cfg.Width = DefaultChartWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultChartHeight
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	frame, err := OpenFrame(cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("open sample frame: %w", err)
	}
	return &Runner{
		cfg:   cfg,
		log:   cfg.Logger.WithField("file", cfg.DataPath),
		frame: frame,
	}, nil
}

var errRunnerClosed = errors.New("runner closed")

func (r *Runner) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frame == nil {
		return nil
	}
	err := r.frame.Close()
	r.frame = nil
	return err
}

// RunOnce runs the whole pipeline against the current file content.
func (r *Runner) RunOnce() (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frame == nil {
		return nil, errRunnerClosed
	}
	digest, err := FileDigest(r.cfg.DataPath)
	if err != nil {
		return nil, err
	}
	return r.run(digest)
}

// Refresh re-runs the pipeline when the data file changed since the last
// run, or unconditionally when force is set. It reports whether a run
// happened.
func (r *Runner) Refresh(force bool) (*Result, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frame == nil {
		return nil, false, errRunnerClosed
	}
	digest, err := FileDigest(r.cfg.DataPath)
	if err != nil {
		return nil, false, err
	}
	if !force && digest == r.lastDigest {
		r.log.WithField("sha256", shortDigest(digest, 12)).Debug("data file unchanged, skipping refresh")
		return nil, false, nil
	}
	res, err := r.run(digest)
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}

func (r *Runner) run(digest string) (*Result, error) {
	start := time.Now()
	log := r.log.WithFields(logrus.Fields{
		"run_id": uuid.NewString(),
		"sha256": shortDigest(digest, 12),
	})
	log.WithField("window", r.cfg.Window.String()).Debug("run start")

	rows, err := LoadEvents(r.cfg.DataPath)
	if err != nil {
		return nil, err
	}
	all, kinds, err := align(rows, r.cfg.Location)
	if err != nil {
		return nil, err
	}
	if err := r.frame.Replace(all); err != nil {
		return nil, fmt.Errorf("load sample frame: %w", err)
	}
	shown, err := r.frame.Range(r.cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("query sample frame: %w", err)
	}
	img, err := RenderChart(shown, ChartOptions{
		Width:       r.cfg.Width,
		Height:      r.cfg.Height,
		ShowMarkers: r.cfg.ShowMarkers,
	})
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	if strings.TrimSpace(r.cfg.ExportPath) != "" {
		if err := WritePNG(r.cfg.ExportPath, img); err != nil {
			return nil, fmt.Errorf("export chart: %w", err)
		}
		log.WithField("path", r.cfg.ExportPath).Info("chart exported")
	}
	r.lastDigest = digest

	stats := RunStats{
		RowsRead:      len(rows),
		RowsSkipped:   len(rows) - all.Len(),
		SamplesParsed: all.Len(),
		SamplesShown:  shown.Len(),
		EventsByKind:  kinds,
		Elapsed:       time.Since(start),
	}
	log.WithFields(logrus.Fields{
		"rows":        stats.RowsRead,
		"skipped":     stats.RowsSkipped,
		"samples":     stats.SamplesParsed,
		"in_window":   stats.SamplesShown,
		"temperature": stats.EventsByKind[KindTemperature],
		"setpoint":    stats.EventsByKind[KindSetpoint],
		"humidity":    stats.EventsByKind[KindHumidity],
		"cooling":     stats.EventsByKind[KindCooling],
		"idle":        stats.EventsByKind[KindIdle],
		"elapsed":     stats.Elapsed,
	}).Debug("run done")
	return &Result{Series: shown, Image: img, Stats: stats}, nil
}
