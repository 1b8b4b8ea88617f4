package control

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/cabin-monitor/internal/device"
)

func TestInboxRoundTrip(t *testing.T) {
	in := NewInbox()

	go func() {
		req := <-in.Requests()
		req.Respond(device.Snapshot{FanPhase: len(req.Line)})
	}()

	snap, err := in.Submit(context.Background(), "GET /")
	require.NoError(t, err)
	assert.Equal(t, 5, snap.FanPhase)
}

func TestInboxClosed(t *testing.T) {
	in := NewInbox()
	in.Close()

	_, err := in.Submit(context.Background(), "GET /")
	assert.ErrorIs(t, err, ErrInboxClosed)
}

func TestInboxContextCanceledBeforeAccept(t *testing.T) {
	in := NewInbox()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := in.Submit(ctx, "GET /alarm_off")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Nothing was queued.
	select {
	case req := <-in.Requests():
		t.Fatalf("unexpected queued request %q", req.Line)
	default:
	}
}

func TestInboxOneAtATime(t *testing.T) {
	in := NewInbox()
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, _ = in.Submit(context.Background(), "first")
	}()

	req := <-in.Requests()
	assert.Equal(t, "first", req.Line)

	// No second request can be accepted until the loop receives again.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := in.Submit(ctx, "second")
	assert.Error(t, err)

	req.Respond(device.Snapshot{})
	<-done
}
