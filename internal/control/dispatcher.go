package control

import (
	"fmt"

	"github.com/sweeney/cabin-monitor/internal/command"
	"github.com/sweeney/cabin-monitor/internal/device"
	"github.com/sweeney/cabin-monitor/internal/hw"
)

// Dispatcher applies request-line commands to the device state.
type Dispatcher struct {
	p        hw.Peripheral
	alarmPin int
	mode     command.MatchMode
}

// NewDispatcher creates a dispatcher using the given match mode.
func NewDispatcher(p hw.Peripheral, alarmPin int, mode command.MatchMode) *Dispatcher {
	return &Dispatcher{p: p, alarmPin: alarmPin, mode: mode}
}

// Apply parses line and mutates s. Alarm commands drive the alarm output
// immediately; fan commands only flip the flag and the animator picks the
// change up on its next tick. Unrecognized lines are a no-op.
//
// The returned error only reports a failed alarm write; the flag change
// stands either way.
func (d *Dispatcher) Apply(s *device.State, line string) (command.Command, error) {
	cmd := command.Parse(line, d.mode)
	switch cmd {
	case command.AlarmOn:
		s.AlarmEnabled = true
		return cmd, d.setAlarm(s, true)
	case command.AlarmOff:
		s.AlarmEnabled = false
		return cmd, d.setAlarm(s, false)
	case command.FanOn:
		s.FanEnabled = true
	case command.FanOff:
		s.FanEnabled = false
	}
	return cmd, nil
}

func (d *Dispatcher) setAlarm(s *device.State, on bool) error {
	if err := d.p.DigitalWrite(d.alarmPin, on); err != nil {
		return fmt.Errorf("drive alarm output: %w", err)
	}
	s.AlarmOutput = on
	return nil
}
