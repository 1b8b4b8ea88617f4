package control

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/cabin-monitor/internal/device"
	"github.com/sweeney/cabin-monitor/internal/hw"
)

// FanAnimator steps the fan outputs through a rotation pattern.
// Phase k lights pins[k] and clears the rest.
type FanAnimator struct {
	p        hw.Peripheral
	pins     []int
	interval time.Duration
}

// NewFanAnimator creates an animator with one output per phase.
func NewFanAnimator(p hw.Peripheral, pins []int, interval time.Duration) (*FanAnimator, error) {
	if len(pins) == 0 {
		return nil, errors.New("fan animator needs at least one pin")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("fan interval must be positive, got %v", interval)
	}
	return &FanAnimator{p: p, pins: pins, interval: interval}, nil
}

// PhaseCount returns the number of phases in the pattern.
func (f *FanAnimator) PhaseCount() int {
	return len(f.pins)
}

// Interval returns the time between phase advances.
func (f *FanAnimator) Interval() time.Duration {
	return f.interval
}

// Tick advances the pattern when the fan is enabled and the interval has
// elapsed. A disabled fan has every output forced low and its phase frozen,
// so re-enabling resumes where it stopped.
func (f *FanAnimator) Tick(s *device.State, now time.Time) error {
	if !s.FanEnabled {
		return f.drive(-1)
	}
	if now.Sub(s.LastFanToggle) < f.interval {
		return nil
	}
	s.FanPhase = (s.FanPhase + 1) % len(f.pins)
	s.LastFanToggle = now
	return f.drive(s.FanPhase)
}

// drive lights the pin for phase and clears the others. phase -1 clears all.
func (f *FanAnimator) drive(phase int) error {
	var errs []error
	for i, pin := range f.pins {
		if err := f.p.DigitalWrite(pin, i == phase); err != nil {
			errs = append(errs, fmt.Errorf("fan pin %d: %w", pin, err))
		}
	}
	return errors.Join(errs...)
}
