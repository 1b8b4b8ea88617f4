package network

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeJoiner fails the first failures calls, then succeeds.
type fakeJoiner struct {
	failures int
	calls    int
	ssids    []string
}

func (f *fakeJoiner) Join(ctx context.Context, ssid, password string, timeout time.Duration) error {
	f.calls++
	f.ssids = append(f.ssids, ssid)
	if f.calls <= f.failures {
		return fmt.Errorf("%w: attempt %d", ErrWifiConnect, f.calls)
	}
	return nil
}

var creds = Credentials{SSID: "hangar", Password: "pw", Timeout: time.Second}

func TestConnectAbortPolicy(t *testing.T) {
	j := &fakeJoiner{failures: 1}

	err := Connect(context.Background(), j, creds, PolicyAbort, time.Millisecond, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWifiConnect)
	assert.Equal(t, 1, j.calls, "abort never retries")
}

func TestConnectRetryPolicy(t *testing.T) {
	j := &fakeJoiner{failures: 3}

	err := Connect(context.Background(), j, creds, PolicyRetry, time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 4, j.calls)
	assert.Equal(t, []string{"hangar", "hangar", "hangar", "hangar"}, j.ssids)
}

func TestConnectRetryStopsOnContext(t *testing.T) {
	j := &fakeJoiner{failures: 1 << 30}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := Connect(ctx, j, creds, PolicyRetry, 5*time.Millisecond, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWifiConnect)
	assert.Greater(t, j.calls, 1)
}

func TestConnectFirstTry(t *testing.T) {
	j := &fakeJoiner{}
	require.NoError(t, Connect(context.Background(), j, creds, PolicyAbort, 0, zap.NewNop()))
	assert.Equal(t, 1, j.calls)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("retry")
	require.NoError(t, err)
	assert.Equal(t, PolicyRetry, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyAbort, p)

	_, err = ParsePolicy("forever")
	assert.Error(t, err)
}

func TestNMCLIJoinerArgs(t *testing.T) {
	var gotName, gotStdin string
	var gotArgs []string
	n := &NMCLIJoiner{
		path: "/usr/bin/nmcli",
		run: func(ctx context.Context, stdin, name string, args ...string) ([]byte, error) {
			gotName, gotStdin, gotArgs = name, stdin, args
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline, "join is bounded by timeout")
			return nil, nil
		},
	}

	require.NoError(t, n.Join(context.Background(), "hangar", "pw", 20*time.Second))
	assert.Equal(t, "/usr/bin/nmcli", gotName)
	assert.Equal(t, "--wait 20 --ask device wifi connect hangar", strings.Join(gotArgs, " "))
	assert.Equal(t, "pw\n", gotStdin)

	require.NoError(t, n.Join(context.Background(), "open-net", "", 5*time.Second))
	assert.Equal(t, "--wait 5 device wifi connect open-net", strings.Join(gotArgs, " "))
	assert.Empty(t, gotStdin)
}

func TestNMCLIJoinerKeepsPasswordOutOfArgs(t *testing.T) {
	const secret = "s3cret-cabin-key"
	var gotArgs []string
	n := &NMCLIJoiner{
		path: "nmcli",
		run: func(ctx context.Context, stdin, name string, args ...string) ([]byte, error) {
			gotArgs = args
			return nil, nil
		},
	}

	require.NoError(t, n.Join(context.Background(), "hangar", secret, time.Second))
	for _, a := range gotArgs {
		assert.NotContains(t, a, secret)
	}
}

func TestNMCLIJoinerFailure(t *testing.T) {
	n := &NMCLIJoiner{
		path: "nmcli",
		run: func(ctx context.Context, stdin, name string, args ...string) ([]byte, error) {
			return []byte("Error: No network with SSID 'hangar' found."), errors.New("exit status 10")
		},
	}

	err := n.Join(context.Background(), "hangar", "pw", time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWifiConnect)
	assert.Contains(t, err.Error(), "No network with SSID")
}
