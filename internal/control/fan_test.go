package control

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/cabin-monitor/internal/device"
	"github.com/sweeney/cabin-monitor/internal/hw"
)

var propellerPins = []int{12, 11, 10, 9}

func outputs(p *hw.FakePeripheral, pins []int) []bool {
	out := make([]bool, len(pins))
	for i, pin := range pins {
		out[i] = p.Output(pin)
	}
	return out
}

func onlyLit(n, phase int) []bool {
	out := make([]bool, n)
	out[phase] = true
	return out
}

func TestNewFanAnimatorValidation(t *testing.T) {
	p := hw.NewFakePeripheral()

	_, err := NewFanAnimator(p, nil, time.Second)
	assert.Error(t, err)

	_, err = NewFanAnimator(p, []int{1, 2}, 0)
	assert.Error(t, err)

	f, err := NewFanAnimator(p, propellerPins, 200*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 4, f.PhaseCount())
	assert.Equal(t, 200*time.Millisecond, f.Interval())
}

func TestFanPropellerSequence(t *testing.T) {
	p := hw.NewFakePeripheral()
	f, err := NewFanAnimator(p, propellerPins, 200*time.Millisecond)
	require.NoError(t, err)

	s := device.New(false)
	s.FanEnabled = true
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// The first tick after enabling advances immediately.
	wantPhases := []int{1, 2, 3, 0, 1, 2}
	for i, want := range wantPhases {
		now := start.Add(time.Duration(i) * 200 * time.Millisecond)
		require.NoError(t, f.Tick(s, now))
		assert.Equal(t, want, s.FanPhase, "tick %d", i)
		assert.Equal(t, onlyLit(4, want), outputs(p, propellerPins), "tick %d", i)
		assert.Equal(t, now, s.LastFanToggle)
	}
}

func TestFanWaitsForInterval(t *testing.T) {
	p := hw.NewFakePeripheral()
	f, err := NewFanAnimator(p, propellerPins, 200*time.Millisecond)
	require.NoError(t, err)

	s := device.New(false)
	s.FanEnabled = true
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, f.Tick(s, start))
	require.Equal(t, 1, s.FanPhase)

	for _, d := range []time.Duration{10, 50, 100, 199} {
		require.NoError(t, f.Tick(s, start.Add(d*time.Millisecond)))
		assert.Equal(t, 1, s.FanPhase, "at +%dms", d)
	}

	require.NoError(t, f.Tick(s, start.Add(200*time.Millisecond)))
	assert.Equal(t, 2, s.FanPhase)
}

func TestFanDisableFreezesAndResumes(t *testing.T) {
	p := hw.NewFakePeripheral()
	f, err := NewFanAnimator(p, propellerPins, 200*time.Millisecond)
	require.NoError(t, err)

	s := device.New(false)
	s.FanEnabled = true
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	step := func() {
		now = now.Add(250 * time.Millisecond)
		require.NoError(t, f.Tick(s, now))
	}

	step() // 1
	step() // 2
	require.Equal(t, 2, s.FanPhase)

	s.FanEnabled = false
	step()
	step()
	assert.Equal(t, 2, s.FanPhase, "phase frozen while disabled")
	assert.Equal(t, []bool{false, false, false, false}, outputs(p, propellerPins))

	s.FanEnabled = true
	step()
	assert.Equal(t, 3, s.FanPhase, "resumes from frozen phase, not 0")
	assert.Equal(t, onlyLit(4, 3), outputs(p, propellerPins))
}

func TestFanDualAlternates(t *testing.T) {
	pins := []int{11, 12}
	p := hw.NewFakePeripheral()
	f, err := NewFanAnimator(p, pins, 500*time.Millisecond)
	require.NoError(t, err)

	s := device.New(true)
	s.FanEnabled = true
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	prev := []bool(nil)
	for i := 0; i < 6; i++ {
		require.NoError(t, f.Tick(s, start.Add(time.Duration(i)*600*time.Millisecond)))
		got := outputs(p, pins)
		assert.NotEqual(t, got[0], got[1], "exactly one of two lit")
		if prev != nil {
			assert.NotEqual(t, prev, got, "outputs alternate every advance")
		}
		prev = got
		assert.GreaterOrEqual(t, s.FanPhase, 0)
		assert.Less(t, s.FanPhase, 2)
	}
}

func TestFanWriteError(t *testing.T) {
	p := hw.NewFakePeripheral()
	f, err := NewFanAnimator(p, propellerPins, 200*time.Millisecond)
	require.NoError(t, err)
	p.WriteError = errors.New("pin busy")

	s := device.New(false)
	s.FanEnabled = true
	err = f.Tick(s, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.ErrorIs(t, err, p.WriteError)
	assert.Equal(t, 1, s.FanPhase, "phase still advances when an output fails")
}
