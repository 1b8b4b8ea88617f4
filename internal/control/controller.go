// Package control implements the cabin monitor's command dispatch and
// periodic control cycle.
//
// A Controller owns the device state and must only be driven from one
// goroutine. Other goroutines reach it through an Inbox.
package control

import (
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/cabin-monitor/internal/command"
	"github.com/sweeney/cabin-monitor/internal/device"
	"github.com/sweeney/cabin-monitor/internal/hw"
)

// Config wires the controller to pins and behavior.
type Config struct {
	PinAlarm            int
	PinButtonA          int
	PinButtonB          int
	FanPins             []int
	FanInterval         time.Duration
	ADCChannel          int
	Threshold           float64
	InitialAlarmEnabled bool
	Match               command.MatchMode
}

// Controller runs the request and control cycles against one State.
type Controller struct {
	state      *device.State
	p          hw.Peripheral
	cfg        Config
	buttons    *ButtonSampler
	monitor    *TemperatureMonitor
	fan        *FanAnimator
	changes    *ChangeLogger
	dispatcher *Dispatcher
	log        *zap.Logger
}

// New creates a Controller and drives the alarm output to its initial state.
func New(p hw.Peripheral, cfg Config, log *zap.Logger) (*Controller, error) {
	fan, err := NewFanAnimator(p, cfg.FanPins, cfg.FanInterval)
	if err != nil {
		return nil, err
	}
	c := &Controller{
		state:      device.New(cfg.InitialAlarmEnabled),
		p:          p,
		cfg:        cfg,
		buttons:    NewButtonSampler(p, cfg.PinButtonA, cfg.PinButtonB),
		monitor:    NewTemperatureMonitor(p, cfg.ADCChannel, cfg.PinAlarm, cfg.Threshold),
		fan:        fan,
		changes:    NewChangeLogger(log),
		dispatcher: NewDispatcher(p, cfg.PinAlarm, cfg.Match),
		log:        log,
	}
	if err := p.DigitalWrite(cfg.PinAlarm, false); err != nil {
		log.Warn("clear alarm output", zap.Error(err))
	}
	return c, nil
}

// HandleRequest runs one request cycle: dispatch, then re-sample buttons and
// temperature so the returned snapshot reflects the latest readings.
func (c *Controller) HandleRequest(line string) (device.Snapshot, command.Command) {
	cmd, err := c.dispatcher.Apply(c.state, line)
	if err != nil {
		c.log.Error("dispatch", zap.String("command", string(cmd)), zap.Error(err))
	}
	if cmd != command.None {
		c.log.Debug("command applied", zap.String("command", string(cmd)))
	}
	c.sampleButtons()
	c.sampleTemperature()
	return c.state.Snapshot(), cmd
}

// Tick runs one control cycle and returns the edges seen on this pass.
func (c *Controller) Tick(now time.Time) []device.Change {
	c.sampleButtons()
	changes := c.changes.Log(c.state, now)
	if err := c.fan.Tick(c.state, now); err != nil {
		c.log.Error("fan tick", zap.Error(err))
	}
	c.sampleTemperature()
	return changes
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() device.Snapshot {
	return c.state.Snapshot()
}

// PhaseCount returns the configured fan phase count.
func (c *Controller) PhaseCount() int {
	return c.fan.PhaseCount()
}

// Shutdown drives every output low.
func (c *Controller) Shutdown() {
	for _, pin := range append([]int{c.cfg.PinAlarm}, c.cfg.FanPins...) {
		if err := c.p.DigitalWrite(pin, false); err != nil {
			c.log.Warn("clear output", zap.Int("pin", pin), zap.Error(err))
		}
	}
}

func (c *Controller) sampleButtons() {
	a, b, err := c.buttons.Sample()
	if err != nil {
		c.log.Error("button read", zap.Error(err))
		return
	}
	c.state.ButtonA, c.state.ButtonB = a, b
}

func (c *Controller) sampleTemperature() {
	t, err := c.monitor.Sample()
	if err != nil {
		c.log.Error("temperature read", zap.Error(err))
		return
	}
	c.state.Temperature = t
	if err := c.monitor.CheckThreshold(c.state); err != nil {
		c.log.Error("threshold check", zap.Error(err))
	}
}
