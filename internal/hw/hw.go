// Package hw provides GPIO and ADC access with hardware abstraction.
// The real implementation uses the Linux GPIO character device for digital
// lines and IIO sysfs for the analog channel.
// The fake implementation allows testing without hardware.
package hw

// Peripheral reads and drives the board's pins.
type Peripheral interface {
	// DigitalRead returns the raw electrical level of an input pin (true = high).
	// Callers apply any active-low inversion themselves.
	DigitalRead(pin int) (bool, error)

	// DigitalWrite drives an output pin high or low.
	DigitalWrite(pin int, high bool) error

	// AnalogRead returns a 12-bit raw count from the given ADC channel.
	AnalogRead(channel int) (uint16, error)

	// Close releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering) for the reference board.
const (
	DefaultPinAlarm   = 13
	DefaultPinButtonA = 5
	DefaultPinButtonB = 6
)

// DefaultADCChannel is the channel wired to the internal temperature sensor.
const DefaultADCChannel = 4

// MaxRaw is the largest value a 12-bit ADC can return.
const MaxRaw = 1<<12 - 1

// Layout lists the lines a peripheral must claim at startup.
type Layout struct {
	Inputs  []int // requested with pull-up, pressed = low
	Outputs []int // requested as outputs, initially low
}
