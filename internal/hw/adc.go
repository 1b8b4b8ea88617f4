package hw

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultADCPath is the IIO sysfs attribute template for raw ADC reads.
// The %d verb is replaced with the channel number.
const DefaultADCPath = "/sys/bus/iio/devices/iio:device0/in_voltage%d_raw"

// readIIO reads one raw sample from an IIO sysfs attribute.
func readIIO(pathTemplate string, channel int) (uint16, error) {
	path := fmt.Sprintf(pathTemplate, channel)
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read adc channel %d: %w", channel, err)
	}
	return parseRaw(string(data))
}

func parseRaw(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("parse adc value %q: %w", strings.TrimSpace(s), err)
	}
	if v > MaxRaw {
		return 0, fmt.Errorf("adc value %d exceeds 12-bit range", v)
	}
	return uint16(v), nil
}
