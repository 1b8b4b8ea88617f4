package status

import (
	"encoding/json"
	"math"
	"time"

	"github.com/sweeney/cabin-monitor/internal/device"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Device        DeviceJSON   `json:"device"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	Requests      int          `json:"requests"`
	Changes       int          `json:"changes"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// DeviceJSON is the JSON representation of the device state.
type DeviceJSON struct {
	// TemperatureC is null when the reading is not a finite number.
	TemperatureC *float64 `json:"temperature_c"`
	Alarm        string   `json:"alarm"`
	AlarmOutput  bool     `json:"alarm_output"`
	Fan          string   `json:"fan"`
	FanPhase     int      `json:"fan_phase"`
	ButtonA      string   `json:"button_a"`
	ButtonB      string   `json:"button_b"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Profile       string  `json:"profile"`
	PhaseCount    int     `json:"phase_count"`
	FanIntervalMs int64   `json:"fan_interval_ms"`
	LoopMs        int64   `json:"loop_ms"`
	HeartbeatMs   int64   `json:"heartbeat_ms"`
	Threshold     float64 `json:"threshold_c"`
	Match         string  `json:"match"`
	Broker        string  `json:"broker"`
	HTTPAddr      string  `json:"http_addr"`
}

// BuildDevice converts a device snapshot for JSON output.
func BuildDevice(d device.Snapshot) DeviceJSON {
	out := DeviceJSON{
		Alarm:       device.OnOffLabel(d.AlarmEnabled),
		AlarmOutput: d.AlarmOutput,
		Fan:         device.OnOffLabel(d.FanEnabled),
		FanPhase:    d.FanPhase,
		ButtonA:     device.ButtonLabel(d.ButtonA),
		ButtonB:     device.ButtonLabel(d.ButtonB),
	}
	if !math.IsNaN(d.Temperature) && !math.IsInf(d.Temperature, 0) {
		t := math.Round(d.Temperature*100) / 100
		out.TemperatureC = &t
	}
	return out
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Device:        BuildDevice(snap.Device),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Requests:      snap.Requests,
		Changes:       snap.Changes,
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			Profile:       snap.Config.Profile,
			PhaseCount:    snap.Config.PhaseCount,
			FanIntervalMs: snap.Config.FanIntervalMs,
			LoopMs:        snap.Config.LoopMs,
			HeartbeatMs:   snap.Config.HeartbeatMs,
			Threshold:     snap.Config.Threshold,
			Match:         snap.Config.Match,
			Broker:        snap.Config.Broker,
			HTTPAddr:      snap.Config.HTTPAddr,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)
	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
