package hw

import (
	"errors"
	"sync"
)

// Write records a single DigitalWrite call.
type Write struct {
	Pin  int
	High bool
}

// FakePeripheral is a test double with scripted inputs and recorded outputs.
// It is safe for concurrent use so tests can poke inputs while a loop runs.
type FakePeripheral struct {
	mu sync.Mutex

	levels  map[int]bool
	outputs map[int]bool
	writes  []Write

	// analog contains scripted raw samples. Each AnalogRead consumes the
	// next one; once exhausted, the last sample repeats.
	analog []uint16
	index  int

	// ReadError, if set, is returned by DigitalRead and AnalogRead.
	ReadError error

	// WriteError, if set, is returned by DigitalWrite.
	WriteError error

	closed bool
}

// NewFakePeripheral creates a FakePeripheral with all inputs high (released)
// and the given analog samples.
func NewFakePeripheral(analog ...uint16) *FakePeripheral {
	return &FakePeripheral{
		levels:  make(map[int]bool),
		outputs: make(map[int]bool),
		analog:  analog,
	}
}

// SetLevel sets the raw electrical level of an input pin.
func (f *FakePeripheral) SetLevel(pin int, high bool) {
	f.mu.Lock()
	f.levels[pin] = high
	f.mu.Unlock()
}

// SetAnalog replaces the scripted analog samples and rewinds to the first.
func (f *FakePeripheral) SetAnalog(samples ...uint16) {
	f.mu.Lock()
	f.analog = samples
	f.index = 0
	f.mu.Unlock()
}

// DigitalRead returns the scripted level. Unset pins read high, which is the
// idle level of a pulled-up button.
func (f *FakePeripheral) DigitalRead(pin int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return false, f.ReadError
	}
	level, ok := f.levels[pin]
	if !ok {
		return true, nil
	}
	return level, nil
}

// DigitalWrite records the write and updates the output level.
func (f *FakePeripheral) DigitalWrite(pin int, high bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	f.outputs[pin] = high
	f.writes = append(f.writes, Write{Pin: pin, High: high})
	return nil
}

// AnalogRead returns the next scripted sample.
func (f *FakePeripheral) AnalogRead(channel int) (uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.analog) == 0 {
		return 0, errors.New("no analog samples configured")
	}
	v := f.analog[f.index]
	if f.index < len(f.analog)-1 {
		f.index++
	}
	return v, nil
}

// Output reports the last level written to pin (false if never written).
func (f *FakePeripheral) Output(pin int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outputs[pin]
}

// Writes returns a copy of all recorded writes.
func (f *FakePeripheral) Writes() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Write, len(f.writes))
	copy(out, f.writes)
	return out
}

// ResetWrites clears the write log without touching output levels.
func (f *FakePeripheral) ResetWrites() {
	f.mu.Lock()
	f.writes = nil
	f.mu.Unlock()
}

// Close marks the peripheral as closed.
func (f *FakePeripheral) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakePeripheral) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
