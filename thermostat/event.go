package thermostat

import (
	"strconv"
	"strings"
)

// EventKind names a recognised thermostat event.
type EventKind string

const (
	KindTemperature EventKind = "temperature"
	KindSetpoint    EventKind = "setpoint"
	KindHumidity    EventKind = "humidity"
	KindCooling     EventKind = "cooling"
	KindIdle        EventKind = "idle"
)

// Event is a classified event payload. The set of implementations is closed.
type Event interface {
	Kind() EventKind
	isEvent()
}

// TemperatureReading is a new measured indoor temperature.
type TemperatureReading struct{ Degrees int }

// SetpointChanged is a change of the cooling target temperature.
type SetpointChanged struct{ Degrees int }

// HumidityReading is a new relative humidity measurement.
type HumidityReading struct{ Percent int }

// CoolingStarted marks the system switching to cooling.
type CoolingStarted struct{}

// SystemIdle marks the system switching to idle.
type SystemIdle struct{}

func (TemperatureReading) Kind() EventKind { return KindTemperature }
func (SetpointChanged) Kind() EventKind    { return KindSetpoint }
func (HumidityReading) Kind() EventKind    { return KindHumidity }
func (CoolingStarted) Kind() EventKind     { return KindCooling }
func (SystemIdle) Kind() EventKind         { return KindIdle }

func (TemperatureReading) isEvent() {}
func (SetpointChanged) isEvent()    {}
func (HumidityReading) isEvent()    {}
func (CoolingStarted) isEvent()     {}
func (SystemIdle) isEvent()         {}

// Matched first to last; the first prefix that fits wins.
var eventPrefixes = []struct {
	prefix string
	parse  func(rest string) (Event, error)
}{
	{"New temperature ", func(rest string) (Event, error) {
		n, err := parseInt(rest)
		return TemperatureReading{Degrees: n}, err
	}},
	{"Cool setpoint set to ", func(rest string) (Event, error) {
		n, err := parseInt(rest)
		return SetpointChanged{Degrees: n}, err
	}},
	{"Humidity ", func(rest string) (Event, error) {
		n, err := parseInt(strings.TrimSuffix(strings.TrimSpace(rest), "%"))
		return HumidityReading{Percent: n}, err
	}},
	{"Set to Cooling", func(string) (Event, error) { return CoolingStarted{}, nil }},
	{"Set to System Idle", func(string) (Event, error) { return SystemIdle{}, nil }},
}

// ClassifyEvent maps free event text to its typed payload. Unrecognised text
// yields a nil Event and no error; a recognised prefix followed by a
// non-integer value yields an error.
func ClassifyEvent(text string) (Event, error) {
	for _, p := range eventPrefixes {
		if !strings.HasPrefix(text, p.prefix) {
			continue
		}
		ev, err := p.parse(text[len(p.prefix):])
		if err != nil {
			return nil, err
		}
		return ev, nil
	}
	return nil, nil
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
