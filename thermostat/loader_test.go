package thermostat

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeExport writes lines as a thermostat export and returns its path.
func writeExport(t *testing.T, lines ...string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return p
}

func TestLoadEvents_NamedFields(t *testing.T) {
	p := writeExport(t,
		`"Date","Time","User","Device","Event"`,
		`"05/01/2019", "10:00am", "alice", "Hallway", "Cool setpoint set to 72"`,
		`05/01/2019,10:05am,alice,Hallway,  New temperature 70  `,
	)

	rows, err := LoadEvents(p)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Event", rows[0].Event)
	assert.Equal(t, EventRow{Line: 2, Date: "05/01/2019", Time: "10:00am", User: "alice", Device: "Hallway", Event: "Cool setpoint set to 72"}, rows[1])
	assert.Equal(t, "New temperature 70", rows[2].Event)
	assert.Equal(t, 3, rows[2].Line)
}

func TestLoadEvents_QuotedCommaInEvent(t *testing.T) {
	p := writeExport(t, `"05/01/2019","10:00am","u","d","Filter change reminder, due soon"`)
	rows, err := LoadEvents(p)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Filter change reminder, due soon", rows[0].Event)
}

func TestLoadEvents_StripsBOM(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bom.csv")
	content := "\xef\xbb\xbf\"05/01/2019\",\"10:00am\",\"u\",\"d\",\"Humidity 45%\"\n"
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))

	rows, err := LoadEvents(p)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "05/01/2019", rows[0].Date)
}

func TestLoadEvents_MissingFile(t *testing.T) {
	_, err := LoadEvents(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)

	var fae *FileAccessError
	require.True(t, errors.As(err, &fae), "expected FileAccessError, got %T", err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadEvents_ShortRow(t *testing.T) {
	p := writeExport(t,
		`"05/01/2019","10:00am","u","d","Humidity 45%"`,
		`"05/01/2019","10:05am","u"`,
	)
	_, err := LoadEvents(p)

	var mre *MalformedRowError
	require.True(t, errors.As(err, &mre), "expected MalformedRowError, got %v", err)
	assert.Equal(t, 2, mre.Line)
	assert.Equal(t, 3, mre.Fields)
}

func TestLoadEvents_BrokenQuoting(t *testing.T) {
	p := writeExport(t, `"05/01/2019","10:00am","u","d","Humidity "45%"`)
	_, err := LoadEvents(p)

	var mre *MalformedRowError
	require.True(t, errors.As(err, &mre), "expected MalformedRowError, got %v", err)
	assert.Error(t, mre.Err)
}

func TestLoadEvents_EmptyFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(p, nil, 0o644))
	rows, err := LoadEvents(p)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
