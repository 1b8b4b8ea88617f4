package control

import (
	"fmt"

	"github.com/sweeney/cabin-monitor/internal/hw"
)

// ButtonSampler reads the two operator buttons.
// No debouncing is applied: each call reflects the instantaneous pin level.
type ButtonSampler struct {
	p          hw.Peripheral
	pinA, pinB int
}

// NewButtonSampler creates a sampler for the given input pins.
func NewButtonSampler(p hw.Peripheral, pinA, pinB int) *ButtonSampler {
	return &ButtonSampler{p: p, pinA: pinA, pinB: pinB}
}

// Sample returns (aPressed, bPressed). Buttons pull the line low when
// pressed, so the raw level is inverted.
func (b *ButtonSampler) Sample() (bool, bool, error) {
	aRaw, err := b.p.DigitalRead(b.pinA)
	if err != nil {
		return false, false, fmt.Errorf("read button A: %w", err)
	}
	bRaw, err := b.p.DigitalRead(b.pinB)
	if err != nil {
		return false, false, fmt.Errorf("read button B: %w", err)
	}
	return !aRaw, !bRaw, nil
}
