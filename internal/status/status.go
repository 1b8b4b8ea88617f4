// Package status provides a thread-safe status tracker for the cabin monitor.
// The control loop writes to it after every cycle; HTTP, WebSocket, and MQTT
// consumers read snapshots from it without touching the device state.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/cabin-monitor/internal/device"
)

// NetworkInfo contains network state as published by the host helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Profile       string
	PhaseCount    int
	FanIntervalMs int64
	LoopMs        int64
	HeartbeatMs   int64
	Threshold     float64
	Match         string
	Broker        string
	HTTPAddr      string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Device        device.Snapshot
	Requests      int
	Changes       int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update stores the latest device snapshot.
func (t *Tracker) Update(dev device.Snapshot) {
	t.mu.Lock()
	t.snap.Device = dev
	t.mu.Unlock()
}

// RecordRequest counts one processed request.
func (t *Tracker) RecordRequest() {
	t.mu.Lock()
	t.snap.Requests++
	t.mu.Unlock()
}

// RecordChanges counts edges reported by the change logger.
func (t *Tracker) RecordChanges(n int) {
	t.mu.Lock()
	t.snap.Changes += n
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
