package thermostat

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.DebugLevel)
	return l
}

var runnerExport = []string{
	`"Date","Time","User","Device","Event"`,
	`"05/01/2019","10:00am","u","Hallway","Cool setpoint set to 72"`,
	`"05/01/2019","10:05am","u","Hallway","New temperature 70"`,
	`"05/01/2019","10:07am","u","Hallway","Filter reminder"`,
	`"05/01/2019","10:10am","u","Hallway","Humidity 45%"`,
	`"05/02/2019","9:00am","u","Hallway","Set to Cooling"`,
	`"05/03/2019","9:00am","u","Hallway","Set to System Idle"`,
}

func newTestRunner(t *testing.T, cfg RunnerConfig) *Runner {
	t.Helper()
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	cfg.Width, cfg.Height = 800, 500
	r, err := NewRunner(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRunner_RunOnce(t *testing.T) {
	path := writeExport(t, runnerExport...)
	r := newTestRunner(t, RunnerConfig{
		DataPath:    path,
		Window:      Bounds{End: at(2, 0)},
		ShowMarkers: true,
	})

	res, err := r.RunOnce()
	require.NoError(t, err)

	assert.Equal(t, 7, res.Stats.RowsRead)
	assert.Equal(t, 2, res.Stats.RowsSkipped)
	assert.Equal(t, 5, res.Stats.SamplesParsed)
	assert.Equal(t, 3, res.Stats.SamplesShown)
	assert.Equal(t, map[EventKind]int{
		KindSetpoint:    1,
		KindTemperature: 1,
		KindHumidity:    1,
		KindCooling:     1,
		KindIdle:        1,
	}, res.Stats.EventsByKind)

	assert.Equal(t, []any{72, 72, 72}, derefInts(res.Series.SetTemps))
	assert.Equal(t, []any{nil, 70, nil}, derefInts(res.Series.ActualTemps))
	assert.Equal(t, []any{nil, nil, 45}, derefInts(res.Series.Humidity))
	require.NotNil(t, res.Image)
	assert.Equal(t, 800, res.Image.Bounds().Dx())
}

func TestRunner_EmptyWindowStillRenders(t *testing.T) {
	path := writeExport(t, runnerExport...)
	r := newTestRunner(t, RunnerConfig{DataPath: path, Window: Bounds{Start: at(20, 0)}})

	res, err := r.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, 0, res.Stats.SamplesShown)
	assert.NotNil(t, res.Image)
}

func TestRunner_RefreshFollowsFileContent(t *testing.T) {
	path := writeExport(t, runnerExport...)
	r := newTestRunner(t, RunnerConfig{DataPath: path})

	_, err := r.RunOnce()
	require.NoError(t, err)

	res, changed, err := r.Refresh(false)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Nil(t, res)

	res, changed, err = r.Refresh(true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 5, res.Stats.SamplesParsed)

	more := append(append([]string{}, runnerExport...), `"05/04/2019","9:00am","u","Hallway","New temperature 75"`)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(more, "\n")+"\n"), 0o644))

	res, changed, err = r.Refresh(false)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 6, res.Stats.SamplesParsed)
}

func TestRunner_ExportsPNG(t *testing.T) {
	path := writeExport(t, runnerExport...)
	out := filepath.Join(t.TempDir(), "charts", "latest.png")
	r := newTestRunner(t, RunnerConfig{DataPath: path, ExportPath: out})

	_, err := r.RunOnce()
	require.NoError(t, err)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(b[:4]))
}

func TestRunner_MissingFile(t *testing.T) {
	r := newTestRunner(t, RunnerConfig{DataPath: filepath.Join(t.TempDir(), "gone.csv")})

	_, err := r.RunOnce()
	var fae *FileAccessError
	require.ErrorAs(t, err, &fae)

	_, changed, err := r.Refresh(true)
	assert.False(t, changed)
	assert.ErrorAs(t, err, &fae)
}

func TestRunner_BadValueAbortsRun(t *testing.T) {
	path := writeExport(t,
		`"05/01/2019","10:00am","u","d","New temperature 70"`,
		`"05/01/2019","10:05am","u","d","New temperature warm"`,
	)
	r := newTestRunner(t, RunnerConfig{DataPath: path})

	_, err := r.RunOnce()
	var vpe *ValueParseError
	require.ErrorAs(t, err, &vpe)
	assert.Equal(t, 2, vpe.Line)

	// A failed run does not count as seen content.
	_, changed, err := r.Refresh(false)
	assert.False(t, changed)
	assert.Error(t, err)
}

func TestNewRunner_RequiresDataPath(t *testing.T) {
	_, err := NewRunner(RunnerConfig{DataPath: " "})
	assert.Error(t, err)
}

func TestRunner_CloseIsIdempotent(t *testing.T) {
	r, err := NewRunner(RunnerConfig{DataPath: "x.csv", Logger: quietLogger()})
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
}

func TestRunner_ClosedRunnerReturnsError(t *testing.T) {
	path := writeExport(t, runnerExport...)
	r := newTestRunner(t, RunnerConfig{DataPath: path})
	require.NoError(t, r.Close())

	_, err := r.RunOnce()
	assert.ErrorIs(t, err, errRunnerClosed)
	_, changed, err := r.Refresh(true)
	assert.False(t, changed)
	assert.ErrorIs(t, err, errRunnerClosed)
}

func TestRunner_CloseDuringRefreshes(t *testing.T) {
	path := writeExport(t, runnerExport...)
	r := newTestRunner(t, RunnerConfig{DataPath: path})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 3; j++ {
				_, _, err := r.Refresh(true)
				if err != nil {
					assert.ErrorIs(t, err, errRunnerClosed)
				}
			}
		}()
	}
	require.NoError(t, r.Close())
	wg.Wait()
}
