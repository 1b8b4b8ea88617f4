package device

import "testing"

func TestNewState(t *testing.T) {
	s := New(true)
	if !s.AlarmEnabled {
		t.Error("expected AlarmEnabled=true")
	}
	if s.FanEnabled {
		t.Error("expected FanEnabled=false")
	}
	if s.Prev != s.Flags {
		t.Errorf("Prev should mirror initial flags: got %+v, want %+v", s.Prev, s.Flags)
	}
	if s.FanPhase != 0 {
		t.Errorf("FanPhase: got %d, want 0", s.FanPhase)
	}
}

func TestFlagsGetSet(t *testing.T) {
	var f Flags
	for _, field := range Fields {
		f.Set(field, true)
		if !f.Get(field) {
			t.Errorf("%s: expected true after Set", field)
		}
	}
	if f != (Flags{AlarmEnabled: true, FanEnabled: true, ButtonA: true, ButtonB: true}) {
		t.Errorf("unexpected flags: %+v", f)
	}

	f.Set(FieldButtonA, false)
	if f.ButtonA {
		t.Error("ButtonA should be false")
	}
	if f.Get(Field("bogus")) {
		t.Error("unknown field should read false")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := New(false)
	s.Temperature = 21.5
	s.FanPhase = 3
	s.AlarmOutput = true

	snap := s.Snapshot()
	s.Temperature = 99

	if snap.Temperature != 21.5 {
		t.Errorf("Temperature: got %v, want 21.5", snap.Temperature)
	}
	if snap.FanPhase != 3 {
		t.Errorf("FanPhase: got %d, want 3", snap.FanPhase)
	}
	if !snap.AlarmOutput {
		t.Error("expected AlarmOutput=true")
	}
}

func TestLabels(t *testing.T) {
	if OnOffLabel(true) != "LIGADO" || OnOffLabel(false) != "DESLIGADO" {
		t.Error("unexpected on/off labels")
	}
	if ButtonLabel(true) != "PRESSIONADO" || ButtonLabel(false) != "LIVRE" {
		t.Error("unexpected button labels")
	}
}
