package thermostat

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const rowFields = 5

// EventRow is one line of the thermostat export. Columns are, in order:
// date, time, user, device, event.
type EventRow struct {
	Line   int
	Date   string
	Time   string
	User   string
	Device string
	Event  string
}

// LoadEvents reads every row of the export at path. The first row is read
// like any other; header lines fall out later because their event text
// matches no known prefix.
func LoadEvents(path string) ([]EventRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileAccessError{Path: path, Err: err}
	}
	defer f.Close()
	return readEvents(path, f)
}

func readEvents(path string, src io.Reader) ([]EventRow, error) {
	// Exports saved by spreadsheet tools sometimes carry a BOM (UTF-8 or UTF-16).
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	r := csv.NewReader(transform.NewReader(src, dec))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows []EventRow
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &MalformedRowError{Line: pe.Line, Err: pe}
			}
			return nil, &FileAccessError{Path: path, Err: err}
		}
		line, _ := r.FieldPos(0)
		if len(rec) < rowFields {
			return nil, &MalformedRowError{Line: line, Fields: len(rec)}
		}
		rows = append(rows, EventRow{
			Line:   line,
			Date:   normalizeField(rec[0]),
			Time:   normalizeField(rec[1]),
			User:   normalizeField(rec[2]),
			Device: normalizeField(rec[3]),
			Event:  normalizeField(rec[4]),
		})
	}
	return rows, nil
}

func normalizeField(s string) string {
	return strings.TrimSpace(s)
}
