//go:build !linux

package hw

import "errors"

// RealPeripheral is not available on non-Linux platforms.
type RealPeripheral struct{}

// NewRealPeripheral returns an error on non-Linux platforms.
func NewRealPeripheral(chipName, adcPath string, layout Layout) (*RealPeripheral, error) {
	return nil, errors.New("hw: not supported on this platform (requires Linux)")
}

// DigitalRead is not implemented on non-Linux platforms.
func (r *RealPeripheral) DigitalRead(pin int) (bool, error) {
	return false, errors.New("hw: not supported")
}

// DigitalWrite is not implemented on non-Linux platforms.
func (r *RealPeripheral) DigitalWrite(pin int, high bool) error {
	return errors.New("hw: not supported")
}

// AnalogRead is not implemented on non-Linux platforms.
func (r *RealPeripheral) AnalogRead(channel int) (uint16, error) {
	return 0, errors.New("hw: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealPeripheral) Close() error {
	return nil
}
