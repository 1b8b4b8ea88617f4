// Package device holds the cabin monitor's shared state record.
//
// A State is owned by exactly one goroutine (the control loop). Everything
// else works on Snapshot values.
package device

import "time"

// Flags are the booleans tracked for edge detection.
type Flags struct {
	AlarmEnabled bool
	FanEnabled   bool
	ButtonA      bool
	ButtonB      bool
}

// Get returns the value of a single field.
func (f Flags) Get(field Field) bool {
	switch field {
	case FieldAlarmEnabled:
		return f.AlarmEnabled
	case FieldFanEnabled:
		return f.FanEnabled
	case FieldButtonA:
		return f.ButtonA
	case FieldButtonB:
		return f.ButtonB
	}
	return false
}

// Set assigns a single field.
func (f *Flags) Set(field Field, v bool) {
	switch field {
	case FieldAlarmEnabled:
		f.AlarmEnabled = v
	case FieldFanEnabled:
		f.FanEnabled = v
	case FieldButtonA:
		f.ButtonA = v
	case FieldButtonB:
		f.ButtonB = v
	}
}

// State is the mutable device record.
type State struct {
	Flags

	// Prev holds the flags as of the last change-log pass.
	Prev Flags

	// AlarmOutput is the level last driven onto the alarm pin.
	AlarmOutput bool

	// FanPhase is always in [0, phase count).
	FanPhase      int
	LastFanToggle time.Time

	// Temperature is the most recent reading in Celsius.
	Temperature float64
}

// New creates the startup state. Prev matches the initial flags so the
// first change-log pass is silent.
func New(alarmEnabled bool) *State {
	s := &State{}
	s.AlarmEnabled = alarmEnabled
	s.Prev = s.Flags
	return s
}

// Snapshot is a point-in-time copy of the state.
type Snapshot struct {
	Flags
	AlarmOutput bool
	FanPhase    int
	Temperature float64
}

// Snapshot copies the public fields.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Flags:       s.Flags,
		AlarmOutput: s.AlarmOutput,
		FanPhase:    s.FanPhase,
		Temperature: s.Temperature,
	}
}
