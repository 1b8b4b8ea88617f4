// Package metrics exposes device state as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/cabin-monitor/internal/command"
	"github.com/sweeney/cabin-monitor/internal/device"
)

const namespace = "cabin_monitor"

// Collector holds the monitor's metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	temperature  prometheus.Gauge
	alarmEnabled prometheus.Gauge
	alarmOutput  prometheus.Gauge
	fanEnabled   prometheus.Gauge
	fanPhase     prometheus.Gauge
	buttons      *prometheus.GaugeVec
	requests     *prometheus.CounterVec
	changes      *prometheus.CounterVec
	allocFails   prometheus.Counter
}

// New registers the collector's metrics on reg.
func New(reg *prometheus.Registry) (*Collector, error) {
	c := &Collector{
		gatherer: reg,
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Last sampled temperature.",
		}),
		alarmEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alarm_enabled",
			Help:      "1 when the alarm flag is set.",
		}),
		alarmOutput: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alarm_output",
			Help:      "Level of the alarm output line.",
		}),
		fanEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fan_enabled",
			Help:      "1 when the fan animation is enabled.",
		}),
		fanPhase: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fan_phase",
			Help:      "Current fan animation phase.",
		}),
		buttons: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "button_pressed",
			Help:      "1 while the button is held.",
		}, []string{"button"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests processed by the control loop, by recognized command.",
		}, []string{"command"}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_changes_total",
			Help:      "Logged state edges, by field.",
		}, []string{"field"}),
		allocFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_allocation_failures_total",
			Help:      "Requests rejected because no request buffer was free.",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.temperature, c.alarmEnabled, c.alarmOutput, c.fanEnabled,
		c.fanPhase, c.buttons, c.requests, c.changes, c.allocFails,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Observe copies a device snapshot into the gauges.
func (c *Collector) Observe(s device.Snapshot) {
	if c == nil {
		return
	}
	c.temperature.Set(s.Temperature)
	c.alarmEnabled.Set(boolGauge(s.AlarmEnabled))
	c.alarmOutput.Set(boolGauge(s.AlarmOutput))
	c.fanEnabled.Set(boolGauge(s.FanEnabled))
	c.fanPhase.Set(float64(s.FanPhase))
	c.buttons.WithLabelValues("a").Set(boolGauge(s.ButtonA))
	c.buttons.WithLabelValues("b").Set(boolGauge(s.ButtonB))
}

// RequestHandled counts one request. Unrecognized requests count as "none".
func (c *Collector) RequestHandled(cmd command.Command) {
	if c == nil {
		return
	}
	label := string(cmd)
	if cmd == command.None {
		label = "none"
	}
	c.requests.WithLabelValues(label).Inc()
}

// ChangesLogged counts edges per field.
func (c *Collector) ChangesLogged(changes []device.Change) {
	if c == nil {
		return
	}
	for _, ch := range changes {
		c.changes.WithLabelValues(string(ch.Field)).Inc()
	}
}

// AllocationFailed counts one rejected request.
func (c *Collector) AllocationFailed() {
	if c == nil {
		return
	}
	c.allocFails.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
