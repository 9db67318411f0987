package thermostat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.csv")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	d, err := FileDigest(path)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", d)
	assert.Equal(t, "ba7816bf8f01", shortDigest(d, 12))
	assert.Equal(t, d, shortDigest(d, 0))

	_, err = FileDigest(filepath.Join(t.TempDir(), "missing.csv"))
	var fae *FileAccessError
	assert.ErrorAs(t, err, &fae)
}
