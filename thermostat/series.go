package thermostat

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayout matches the export's date column immediately followed by
// its time column, e.g. "05/01/2019" + "10:05am".
const timestampLayout = "1/2/20063:04pm"

// FillPolicy decides what a series receives on rows that update another series.
type FillPolicy int

const (
	// NullFill appends "no value".
	NullFill FillPolicy = iota
	// ForwardFill repeats the previous value, or "no value" before the first one.
	ForwardFill
)

func (p FillPolicy) String() string {
	switch p {
	case ForwardFill:
		return "forward-fill"
	default:
		return "null-fill"
	}
}

// Fill policies of the aligned series. The set-point is a persistent setting,
// the other series are point-in-time readings.
const (
	SetTempFill    = ForwardFill
	ActualTempFill = NullFill
	HumidityFill   = NullFill
	CoolingFill    = NullFill
)

// Series holds index-aligned samples: position i of every slice describes
// the instant Timestamps[i]. A nil entry means no value at that instant.
type Series struct {
	Timestamps  []time.Time
	SetTemps    []*int
	ActualTemps []*int
	Humidity    []*int
	Cooling     []*bool
}

// Len returns the number of aligned samples.
func (s Series) Len() int { return len(s.Timestamps) }

// Validate checks the alignment invariant.
func (s Series) Validate() error {
	n := len(s.Timestamps)
	if len(s.SetTemps) != n || len(s.ActualTemps) != n || len(s.Humidity) != n || len(s.Cooling) != n {
		return fmt.Errorf("series misaligned: timestamps=%d set=%d actual=%d humidity=%d cooling=%d",
			n, len(s.SetTemps), len(s.ActualTemps), len(s.Humidity), len(s.Cooling))
	}
	return nil
}

type column[T any] struct {
	policy FillPolicy
	values []*T
}

// push appends v, or a filler chosen by the column's policy when v is nil.
func (c *column[T]) push(v *T) {
	if v == nil && c.policy == ForwardFill && len(c.values) > 0 {
		v = c.values[len(c.values)-1]
	}
	c.values = append(c.values, v)
}

type aligner struct {
	times   []time.Time
	set     column[int]
	actual  column[int]
	humid   column[int]
	cooling column[bool]
	kinds   map[EventKind]int
}

func newAligner() *aligner {
	return &aligner{
		set:     column[int]{policy: SetTempFill},
		actual:  column[int]{policy: ActualTempFill},
		humid:   column[int]{policy: HumidityFill},
		cooling: column[bool]{policy: CoolingFill},
		kinds:   make(map[EventKind]int),
	}
}

func (a *aligner) add(at time.Time, ev Event) {
	var set, actual, humid *int
	var cooling *bool
	switch e := ev.(type) {
	case TemperatureReading:
		actual = &e.Degrees
	case SetpointChanged:
		set = &e.Degrees
	case HumidityReading:
		humid = &e.Percent
	case CoolingStarted:
		on := true
		cooling = &on
	case SystemIdle:
		off := false
		cooling = &off
	}
	a.kinds[ev.Kind()]++
	a.times = append(a.times, at)
	a.set.push(set)
	a.actual.push(actual)
	a.humid.push(humid)
	a.cooling.push(cooling)
}

func (a *aligner) series() Series {
	return Series{
		Timestamps:  a.times,
		SetTemps:    a.set.values,
		ActualTemps: a.actual.values,
		Humidity:    a.humid.values,
		Cooling:     a.cooling.values,
	}
}

// Align classifies rows in file order and builds the aligned series.
// Rows with unrecognised events are skipped. Any value or timestamp error
// aborts the whole alignment.
func Align(rows []EventRow, loc *time.Location) (Series, error) {
	s, _, err := align(rows, loc)
	return s, err
}

// align is Align that also reports how many events of each kind it accepted.
func align(rows []EventRow, loc *time.Location) (Series, map[EventKind]int, error) {
	if loc == nil {
		loc = time.Local
	}
	a := newAligner()
	for _, row := range rows {
		ev, err := ClassifyEvent(row.Event)
		if err != nil {
			return Series{}, nil, &ValueParseError{Line: row.Line, Event: row.Event, Err: err}
		}
		if ev == nil {
			continue
		}
		at, err := ParseTimestamp(row.Date, row.Time, loc)
		if err != nil {
			return Series{}, nil, &MalformedTimestampError{Line: row.Line, Value: row.Date + row.Time, Err: err}
		}
		a.add(at, ev)
	}
	return a.series(), a.kinds, nil
}

// ParseTimestamp parses an export date ("05/01/2019") and time ("10:05am")
// into one instant in loc. The am/pm marker is case-insensitive and
// whitespace between the parts is ignored.
func ParseTimestamp(date, clock string, loc *time.Location) (time.Time, error) {
	s := strings.ToLower(strings.Join(strings.Fields(date+clock), ""))
	return time.ParseInLocation(timestampLayout, s, loc)
}
