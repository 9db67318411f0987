package thermostat

import "fmt"

// FileAccessError indicates the data file is missing or unreadable.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("data file %q: %v", e.Path, e.Err)
}
func (e *FileAccessError) Unwrap() error { return e.Err }

// MalformedRowError indicates a row that cannot be read as an event row:
// either fewer than five fields or broken CSV syntax (Err set).
type MalformedRowError struct {
	Line   int
	Fields int
	Err    error
}

func (e *MalformedRowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed row at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("malformed row at line %d: got %d fields, need %d", e.Line, e.Fields, rowFields)
}
func (e *MalformedRowError) Unwrap() error { return e.Err }

// ValueParseError indicates a recognised event whose value is not an integer.
type ValueParseError struct {
	Line  int
	Event string
	Err   error
}

func (e *ValueParseError) Error() string {
	return fmt.Sprintf("line %d: cannot parse value in event %q: %v", e.Line, e.Event, e.Err)
}
func (e *ValueParseError) Unwrap() error { return e.Err }

// MalformedTimestampError indicates date/time fields that do not match the
// export's timestamp format.
type MalformedTimestampError struct {
	Line  int
	Value string
	Err   error
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("line %d: malformed timestamp %q: %v", e.Line, e.Value, e.Err)
}
func (e *MalformedTimestampError) Unwrap() error { return e.Err }
