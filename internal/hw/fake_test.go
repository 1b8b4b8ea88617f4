package hw

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFakePeripheralDigitalRead(t *testing.T) {
	f := NewFakePeripheral()

	// Unset pins idle high
	high, err := f.DigitalRead(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !high {
		t.Error("unset pin should read high")
	}

	f.SetLevel(5, false)
	high, err = f.DigitalRead(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if high {
		t.Error("expected low after SetLevel(false)")
	}
}

func TestFakePeripheralAnalogRead(t *testing.T) {
	f := NewFakePeripheral(100, 200, 300)

	for i, want := range []uint16{100, 200, 300, 300} {
		got, err := f.AnalogRead(4)
		if err != nil {
			t.Fatalf("sample %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Errorf("sample %d: got %d, want %d", i, got, want)
		}
	}

	f.SetAnalog(7)
	got, _ := f.AnalogRead(4)
	if got != 7 {
		t.Errorf("after SetAnalog: got %d, want 7", got)
	}
}

func TestFakePeripheralNoAnalogSamples(t *testing.T) {
	f := NewFakePeripheral()

	if _, err := f.AnalogRead(4); err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakePeripheralWrites(t *testing.T) {
	f := NewFakePeripheral()

	if err := f.DigitalWrite(13, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.DigitalWrite(12, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !f.Output(13) {
		t.Error("pin 13 should be high")
	}
	if f.Output(12) {
		t.Error("pin 12 should be low")
	}

	writes := f.Writes()
	if len(writes) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(writes))
	}
	if writes[0] != (Write{Pin: 13, High: true}) {
		t.Errorf("write 0: got %+v", writes[0])
	}

	f.ResetWrites()
	if len(f.Writes()) != 0 {
		t.Error("expected empty write log after ResetWrites")
	}
	if !f.Output(13) {
		t.Error("ResetWrites should keep output levels")
	}
}

func TestFakePeripheralErrors(t *testing.T) {
	f := NewFakePeripheral(1)
	f.ReadError = errors.New("simulated read error")
	f.WriteError = errors.New("simulated write error")

	if _, err := f.DigitalRead(5); err == nil || err.Error() != "simulated read error" {
		t.Errorf("DigitalRead: unexpected error: %v", err)
	}
	if _, err := f.AnalogRead(4); err == nil {
		t.Error("AnalogRead: expected error")
	}
	if err := f.DigitalWrite(13, true); err == nil {
		t.Error("DigitalWrite: expected error")
	}
	if f.Output(13) {
		t.Error("failed write must not change output")
	}
}

func TestFakePeripheralClose(t *testing.T) {
	f := NewFakePeripheral()

	if f.Closed() {
		t.Error("should not be closed initially")
	}
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed() {
		t.Error("should be closed after Close()")
	}
}

func TestParseRaw(t *testing.T) {
	tests := []struct {
		in      string
		want    uint16
		wantErr bool
	}{
		{"0\n", 0, false},
		{"2048\n", 2048, false},
		{" 4095 ", 4095, false},
		{"4096", 0, true},
		{"-1", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := parseRaw(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseRaw(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseRaw(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseRaw(%q): got %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestReadIIO(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "in_voltage4_raw"), []byte("1234\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := readIIO(filepath.Join(dir, "in_voltage%d_raw"), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1234 {
		t.Errorf("got %d, want 1234", got)
	}

	if _, err := readIIO(filepath.Join(dir, "in_voltage%d_raw"), 3); err == nil {
		t.Error("expected error for missing channel")
	}
}
