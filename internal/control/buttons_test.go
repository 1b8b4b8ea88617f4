package control

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/cabin-monitor/internal/hw"
)

func TestButtonSamplerInverts(t *testing.T) {
	p := hw.NewFakePeripheral()
	b := NewButtonSampler(p, 5, 6)

	tests := []struct {
		aHigh, bHigh bool
		wantA, wantB bool
	}{
		{true, true, false, false},
		{false, true, true, false},
		{true, false, false, true},
		{false, false, true, true},
	}

	for _, tt := range tests {
		p.SetLevel(5, tt.aHigh)
		p.SetLevel(6, tt.bHigh)
		a, bb, err := b.Sample()
		require.NoError(t, err)
		assert.Equal(t, tt.wantA, a, "button A with level %v", tt.aHigh)
		assert.Equal(t, tt.wantB, bb, "button B with level %v", tt.bHigh)
	}
}

func TestButtonSamplerNoDebounce(t *testing.T) {
	p := hw.NewFakePeripheral()
	b := NewButtonSampler(p, 5, 6)

	// A one-sample glitch is reported as-is on the very next call.
	p.SetLevel(5, false)
	a, _, err := b.Sample()
	require.NoError(t, err)
	assert.True(t, a)

	p.SetLevel(5, true)
	a, _, err = b.Sample()
	require.NoError(t, err)
	assert.False(t, a)

	p.SetLevel(5, false)
	a, _, err = b.Sample()
	require.NoError(t, err)
	assert.True(t, a)
}

func TestButtonSamplerError(t *testing.T) {
	p := hw.NewFakePeripheral()
	p.ReadError = errors.New("line gone")
	b := NewButtonSampler(p, 5, 6)

	_, _, err := b.Sample()
	require.Error(t, err)
	assert.ErrorIs(t, err, p.ReadError)
}
