package thermostat

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// FileDigest returns the hex SHA-256 of the file at path.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &FileAccessError{Path: path, Err: err}
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", &FileAccessError{Path: path, Err: err}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// shortDigest trims a digest for log lines.
func shortDigest(digest string, hexLen int) string {
	if hexLen <= 0 || hexLen >= len(digest) {
		return digest
	}
	return digest[:hexLen]
}
