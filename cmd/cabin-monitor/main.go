// Command cabin-monitor runs the cargo-cabin monitor: it serves a status page
// with alarm and fan controls, samples buttons and the temperature sensor,
// animates the fan outputs, and publishes state changes to MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sweeney/cabin-monitor/internal/config"
	"github.com/sweeney/cabin-monitor/internal/control"
	"github.com/sweeney/cabin-monitor/internal/device"
	"github.com/sweeney/cabin-monitor/internal/discovery"
	"github.com/sweeney/cabin-monitor/internal/hw"
	"github.com/sweeney/cabin-monitor/internal/logging"
	"github.com/sweeney/cabin-monitor/internal/metrics"
	"github.com/sweeney/cabin-monitor/internal/mqtt"
	"github.com/sweeney/cabin-monitor/internal/network"
	"github.com/sweeney/cabin-monitor/internal/status"
	"github.com/sweeney/cabin-monitor/internal/web"
)

// remoteCommandTimeout bounds how long an MQTT command waits for the loop.
const remoteCommandTimeout = 5 * time.Second

func main() {
	root, err := newRootCmd()
	if err == nil {
		err = root.Execute()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() (*cobra.Command, error) {
	v := viper.New()
	config.SetDefaults(v)
	config.Setup(v)

	root := &cobra.Command{
		Use:           "cabin-monitor",
		Short:         "Cargo cabin monitor",
		Long:          "Serves the cabin status page, drives the alarm and fan outputs, and reports\nbutton and temperature changes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load(v, cmd)
			if err != nil {
				return err
			}
			defer log.Sync()
			if err := run(cfg, log); err != nil {
				log.Error("fatal", zap.Error(err))
				return err
			}
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	if err := config.BindFlags(v, root.PersistentFlags()); err != nil {
		return nil, err
	}

	root.AddCommand(&cobra.Command{
		Use:   "state",
		Short: "Print the current button and temperature readings and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load(v, cmd)
			if err != nil {
				return err
			}
			defer log.Sync()
			return printState(cfg)
		},
	})
	return root, nil
}

func load(v *viper.Viper, cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	if err := config.ReadFile(v, path); err != nil {
		return config.Config{}, nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

func printState(cfg config.Config) error {
	p, err := hw.NewRealPeripheral(cfg.GPIOChip, cfg.ADCPath, cfg.Layout())
	if err != nil {
		return fmt.Errorf("init peripheral: %w", err)
	}
	defer p.Close()

	a, b, err := control.NewButtonSampler(p, cfg.PinButtonA, cfg.PinButtonB).Sample()
	if err != nil {
		return fmt.Errorf("read buttons: %w", err)
	}
	raw, err := p.AnalogRead(cfg.ADCChannel)
	if err != nil {
		return fmt.Errorf("read temperature: %w", err)
	}
	fmt.Printf("Temperatura: %s °C, Botão A: %s, Botão B: %s\n",
		web.FormatTemperature(control.Celsius(raw)), device.ButtonLabel(a), device.ButtonLabel(b))
	return nil
}

func run(cfg config.Config, log *zap.Logger) error {
	// Registered before any blocking startup step so a signal during
	// Wi-Fi join or broker connect is not lost.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	periph, err := hw.NewRealPeripheral(cfg.GPIOChip, cfg.ADCPath, cfg.Layout())
	if err != nil {
		return fmt.Errorf("init peripheral: %w", err)
	}
	defer periph.Close()

	if cfg.WiFi.SSID != "" {
		joiner, err := network.NewNMCLIJoiner()
		if err != nil {
			return err
		}
		creds := network.Credentials{SSID: cfg.WiFi.SSID, Password: cfg.WiFi.Password, Timeout: cfg.WiFi.Timeout}
		if err := network.Connect(ctx, joiner, creds, cfg.WiFi.Policy, cfg.WiFi.RetryDelay, log.Named("wifi")); err != nil {
			return err
		}
	}

	ln, err := network.Listen(ctx, cfg.HTTPAddr)
	if err != nil {
		return err
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		Profile:       cfg.Profile.Name,
		PhaseCount:    cfg.Profile.PhaseCount(),
		FanIntervalMs: cfg.Profile.FanInterval.Milliseconds(),
		LoopMs:        cfg.LoopInterval.Milliseconds(),
		HeartbeatMs:   cfg.MQTT.Heartbeat.Milliseconds(),
		Threshold:     cfg.Threshold,
		Match:         string(cfg.Match),
		Broker:        cfg.MQTT.Broker,
		HTTPAddr:      ln.Addr().String(),
	})
	if info := network.ReadInfo(); info != nil {
		tracker.SetNetwork(info)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := metrics.New(reg)
	if err != nil {
		ln.Close()
		return fmt.Errorf("init metrics: %w", err)
	}

	var publisher interface {
		mqtt.Publisher
		mqtt.ConnectionStatus
	} = mqtt.NewNopPublisher()
	var remote *mqtt.RealPublisher
	if cfg.MQTT.Broker != "" {
		remote, err = mqtt.NewRealPublisher(cfg.MQTT.Broker, log.Named("mqtt"))
		if err != nil {
			ln.Close()
			return fmt.Errorf("init mqtt: %w", err)
		}
		publisher = remote
		log.Info("mqtt publisher ready", zap.String("broker", cfg.MQTT.Broker), zap.String("client_id", remote.ClientID()))
	}
	defer publisher.Close()

	ctrl, err := control.New(periph, cfg.Control(), log.Named("control"))
	if err != nil {
		ln.Close()
		return fmt.Errorf("init controller: %w", err)
	}
	tracker.Update(ctrl.Snapshot())

	inbox := control.NewInbox()
	if remote != nil {
		if err := remote.Subscribe(remoteCommandHandler(inbox, log.Named("mqtt"))); err != nil {
			log.Warn("subscribe to commands", zap.Error(err))
		}
	}

	// Publish startup event with full status snapshot
	tracker.SetMQTTConnected(publisher.IsConnected())
	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Warn("publish startup event", zap.Error(err))
	}

	srv := web.New(web.Options{
		Addr:    cfg.HTTPAddr,
		Inbox:   inbox,
		Tracker: tracker,
		Pool:    web.NewBufferPool(cfg.Request.Buffers, cfg.Request.BufferSize),
		Metrics: collector,
		Log:     log.Named("http"),
	})
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	log.Info("http listening", zap.String("addr", ln.Addr().String()))

	if cfg.MDNS.Enabled {
		port, err := discovery.PortFromAddr(ln.Addr().String())
		if err != nil {
			log.Warn("mdns disabled", zap.Error(err))
		} else if adv, err := discovery.Advertise(cfg.MDNS.Instance, port, cfg.Profile.Name, log.Named("mdns")); err != nil {
			log.Warn("mdns disabled", zap.Error(err))
		} else {
			defer adv.Shutdown()
		}
	}

	log.Info("started",
		zap.String("profile", cfg.Profile.Name),
		zap.Int("phases", cfg.Profile.PhaseCount()),
		zap.Duration("fan_interval", cfg.Profile.FanInterval),
		zap.Duration("loop", cfg.LoopInterval),
		zap.String("match", string(cfg.Match)))

	ticker := time.NewTicker(cfg.LoopInterval)
	defer ticker.Stop()

	err = runLoop(loopDeps{
		ctrl:       ctrl,
		inbox:      inbox,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		metrics:    collector,
		heartbeat:  cfg.MQTT.Heartbeat,
		log:        log,
	}, time.Now, ticker.C, sigCh)
	inbox.Close()
	return err
}

// remoteCommandHandler turns an MQTT command token into a request line and
// waits for the loop to apply it.
func remoteCommandHandler(inbox *control.Inbox, log *zap.Logger) mqtt.CommandHandler {
	return func(token string) {
		ctx, cancel := context.WithTimeout(context.Background(), remoteCommandTimeout)
		defer cancel()
		line := "GET /" + url.PathEscape(token) + " HTTP/1.1"
		if _, err := inbox.Submit(ctx, line); err != nil {
			log.Warn("remote command dropped", zap.String("token", token), zap.Error(err))
			return
		}
		log.Info("remote command", zap.String("token", token))
	}
}

// loopDeps are the collaborators runLoop drives. Only runLoop's goroutine
// touches ctrl.
type loopDeps struct {
	ctrl       *control.Controller
	inbox      *control.Inbox
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	metrics    *metrics.Collector
	heartbeat  time.Duration
	log        *zap.Logger
}

// runLoop alternates between inbox requests and control ticks until a
// signal arrives. Requests and ticks never overlap.
func runLoop(d loopDeps, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	lastHeartbeat := now()

	for {
		select {
		case s := <-sig:
			d.log.Info("shutting down", zap.Stringer("signal", s))
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if d.mqttStatus != nil {
				d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
			}
			snap := d.tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				d.log.Warn("publish shutdown event", zap.Error(err))
			}
			d.ctrl.Shutdown()
			return nil

		case req := <-d.inbox.Requests():
			snap, cmd := d.ctrl.HandleRequest(req.Line)
			d.metrics.RequestHandled(cmd)
			d.metrics.Observe(snap)
			d.tracker.RecordRequest()
			d.tracker.Update(snap)
			req.Respond(snap)

		case <-tick:
			t := now()
			changes := d.ctrl.Tick(t)
			for _, c := range changes {
				if err := d.publisher.Publish(c); err != nil {
					// Don't stop the loop on publish failure
					d.log.Warn("publish change", zap.String("field", string(c.Field)), zap.Error(err))
				}
			}
			snap := d.ctrl.Snapshot()
			d.metrics.ChangesLogged(changes)
			d.metrics.Observe(snap)
			d.tracker.RecordChanges(len(changes))
			d.tracker.Update(snap)
			if d.mqttStatus != nil {
				d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
			}

			if d.heartbeat > 0 && t.Sub(lastHeartbeat) >= d.heartbeat {
				lastHeartbeat = t
				if info := network.ReadInfo(); info != nil {
					d.tracker.SetNetwork(info)
				}
				hb := d.tracker.Snapshot()
				d.log.Info("heartbeat",
					zap.Duration("uptime", hb.Uptime().Truncate(time.Second)),
					zap.Int("requests", hb.Requests),
					zap.Int("changes", hb.Changes))
				event := mqtt.SystemEvent{
					Timestamp:  t,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(hb, "HEARTBEAT", ""),
				}
				if err := d.publisher.PublishSystem(event); err != nil {
					d.log.Warn("publish heartbeat", zap.Error(err))
				}
			}
		}
	}
}
