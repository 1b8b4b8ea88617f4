//go:build linux

package hw

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealPeripheral drives actual hardware through the Linux GPIO character
// device and reads the ADC through IIO sysfs.
type RealPeripheral struct {
	chip    *gpiocdev.Chip
	inputs  map[int]*gpiocdev.Line
	outputs map[int]*gpiocdev.Line
	adcPath string
}

// NewRealPeripheral claims every line in layout on the named chip.
// Inputs are pulled up so an open button reads high.
func NewRealPeripheral(chipName, adcPath string, layout Layout) (*RealPeripheral, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealPeripheral{
		chip:    chip,
		inputs:  make(map[int]*gpiocdev.Line),
		outputs: make(map[int]*gpiocdev.Line),
		adcPath: adcPath,
	}

	for _, pin := range layout.Inputs {
		line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request input pin %d: %w", pin, err)
		}
		r.inputs[pin] = line
	}

	for _, pin := range layout.Outputs {
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request output pin %d: %w", pin, err)
		}
		r.outputs[pin] = line
	}

	return r, nil
}

// DigitalRead returns the raw level of a claimed input line.
func (r *RealPeripheral) DigitalRead(pin int) (bool, error) {
	line, ok := r.inputs[pin]
	if !ok {
		return false, fmt.Errorf("pin %d not claimed as input", pin)
	}
	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", pin, err)
	}
	return v == 1, nil
}

// DigitalWrite drives a claimed output line.
func (r *RealPeripheral) DigitalWrite(pin int, high bool) error {
	line, ok := r.outputs[pin]
	if !ok {
		return fmt.Errorf("pin %d not claimed as output", pin)
	}
	v := 0
	if high {
		v = 1
	}
	if err := line.SetValue(v); err != nil {
		return fmt.Errorf("write pin %d: %w", pin, err)
	}
	return nil
}

// AnalogRead reads a raw 12-bit sample from IIO sysfs.
func (r *RealPeripheral) AnalogRead(channel int) (uint16, error) {
	return readIIO(r.adcPath, channel)
}

// Close releases GPIO resources.
// Outputs are driven low and every line is reconfigured as a pulled-down
// input before closing, matching the Pi boot defaults.
func (r *RealPeripheral) Close() error {
	var errs []error

	for pin, line := range r.outputs {
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear pin %d: %w", pin, err))
		}
	}
	for _, lines := range []map[int]*gpiocdev.Line{r.outputs, r.inputs} {
		for pin, line := range lines {
			if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
				errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", pin, err))
			}
			if err := line.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
			}
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
