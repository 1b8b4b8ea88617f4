package control

import (
	"fmt"

	"github.com/sweeney/cabin-monitor/internal/device"
	"github.com/sweeney/cabin-monitor/internal/hw"
)

// DefaultThreshold is the alarm trip point in Celsius.
const DefaultThreshold = 50.0

// Sensor transfer function constants.
const (
	adcVref       = 3.3
	adcCounts     = 1 << 12
	sensorV27     = 0.706    // sensor output at 27 °C, volts
	sensorSlope   = 0.001721 // volts per °C
	referenceTemp = 27.0
)

// Celsius converts a raw 12-bit sample to degrees Celsius.
func Celsius(raw uint16) float64 {
	volts := float64(raw) * adcVref / adcCounts
	return referenceTemp - (volts-sensorV27)/sensorSlope
}

// TemperatureMonitor samples the sensor and latches the alarm output.
type TemperatureMonitor struct {
	p         hw.Peripheral
	channel   int
	alarmPin  int
	threshold float64
}

// NewTemperatureMonitor creates a monitor reading the given ADC channel.
func NewTemperatureMonitor(p hw.Peripheral, channel, alarmPin int, threshold float64) *TemperatureMonitor {
	return &TemperatureMonitor{p: p, channel: channel, alarmPin: alarmPin, threshold: threshold}
}

// Sample reads the sensor and returns degrees Celsius.
func (m *TemperatureMonitor) Sample() (float64, error) {
	raw, err := m.p.AnalogRead(m.channel)
	if err != nil {
		return 0, fmt.Errorf("read temperature: %w", err)
	}
	return Celsius(raw), nil
}

// CheckThreshold drives the alarm output high when the latest reading is
// above the threshold and the alarm is armed. It never drives it low:
// only an explicit alarm_off clears the output.
func (m *TemperatureMonitor) CheckThreshold(s *device.State) error {
	if s.Temperature <= m.threshold || !s.AlarmEnabled {
		return nil
	}
	if err := m.p.DigitalWrite(m.alarmPin, true); err != nil {
		return fmt.Errorf("set alarm output: %w", err)
	}
	s.AlarmOutput = true
	return nil
}
