// Package config loads cabin-monitor settings from flags, environment, and
// an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sweeney/cabin-monitor/internal/command"
	"github.com/sweeney/cabin-monitor/internal/control"
	"github.com/sweeney/cabin-monitor/internal/hw"
	"github.com/sweeney/cabin-monitor/internal/network"
)

// EnvPrefix is prepended to every environment override, e.g. CABIN_WIFI_SSID.
const EnvPrefix = "cabin"

// Loop cadence bounds.
const (
	MinLoopInterval = 10 * time.Millisecond
	MaxLoopInterval = 100 * time.Millisecond
)

// Profile is one hardware variant of the monitor.
type Profile struct {
	Name                string
	FanPins             []int
	FanInterval         time.Duration
	InitialAlarmEnabled bool
}

// PhaseCount is the number of fan phases, one per pin.
func (p Profile) PhaseCount() int {
	return len(p.FanPins)
}

// Profiles are the known board variants.
var Profiles = map[string]Profile{
	"dual-led": {
		Name:                "dual-led",
		FanPins:             []int{11, 12},
		FanInterval:         500 * time.Millisecond,
		InitialAlarmEnabled: true,
	},
	"propeller": {
		Name:                "propeller",
		FanPins:             []int{12, 11, 10, 9},
		FanInterval:         200 * time.Millisecond,
		InitialAlarmEnabled: false,
	},
}

// DefaultProfile is used when none is configured.
const DefaultProfile = "dual-led"

// WiFiConfig holds injected network credentials.
type WiFiConfig struct {
	SSID       string
	Password   string
	Timeout    time.Duration
	Policy     network.Policy
	RetryDelay time.Duration
}

// MQTTConfig configures the event publisher. An empty Broker disables it.
type MQTTConfig struct {
	Broker    string
	Heartbeat time.Duration
}

// MDNSConfig configures LAN advertisement.
type MDNSConfig struct {
	Enabled  bool
	Instance string
}

// RequestConfig bounds request buffering.
type RequestConfig struct {
	Buffers    int
	BufferSize int
}

// Config is the resolved daemon configuration.
type Config struct {
	Profile      Profile
	LogLevel     string
	HTTPAddr     string
	LoopInterval time.Duration
	GPIOChip     string
	ADCPath      string
	ADCChannel   int
	Threshold    float64
	Match        command.MatchMode
	PinAlarm     int
	PinButtonA   int
	PinButtonB   int
	WiFi         WiFiConfig
	MQTT         MQTTConfig
	MDNS         MDNSConfig
	Request      RequestConfig
}

// BindFlags registers command-line flags and binds them into v.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String("profile", DefaultProfile, "Hardware profile (dual-led, propeller)")
	fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	fs.String("http", ":80", "HTTP listen address")
	fs.Duration("loop", MinLoopInterval, "Control loop interval (10ms-100ms)")
	fs.String("gpio-chip", "gpiochip0", "GPIO character device")
	fs.String("adc-path", hw.DefaultADCPath, "IIO sysfs path template for ADC reads")
	fs.Int("adc-channel", hw.DefaultADCChannel, "ADC channel of the temperature sensor")
	fs.Float64("threshold", control.DefaultThreshold, "Alarm threshold in Celsius")
	fs.String("match", string(command.MatchSegment), "Command matching (segment, substring)")
	fs.String("wifi-ssid", "", "Wi-Fi network to join (empty to skip)")
	fs.String("wifi-password", "", "Wi-Fi password")
	fs.String("wifi-policy", string(network.PolicyAbort), "On Wi-Fi failure: abort or retry")
	fs.String("mqtt-broker", "", "MQTT broker address (empty to disable)")
	fs.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	fs.Bool("mdns", true, "Advertise the status page over mDNS")
	fs.String("config", "", "Config file (default: cabin.yaml in . or /etc/cabin-monitor)")

	binds := map[string]string{
		"profile":               "profile",
		"log.level":             "log-level",
		"http.addr":             "http",
		"loop.interval":         "loop",
		"gpio.chip":             "gpio-chip",
		"adc.path":              "adc-path",
		"adc.channel":           "adc-channel",
		"temperature.threshold": "threshold",
		"dispatch.match":        "match",
		"wifi.ssid":             "wifi-ssid",
		"wifi.password":         "wifi-password",
		"wifi.policy":           "wifi-policy",
		"mqtt.broker":           "mqtt-broker",
		"mqtt.heartbeat":        "heartbeat",
		"mdns.enabled":          "mdns",
	}
	for key, flag := range binds {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// SetDefaults registers defaults for keys without a flag.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("profile", DefaultProfile)
	v.SetDefault("log.level", "info")
	v.SetDefault("http.addr", ":80")
	v.SetDefault("loop.interval", MinLoopInterval)
	v.SetDefault("gpio.chip", "gpiochip0")
	v.SetDefault("adc.path", hw.DefaultADCPath)
	v.SetDefault("adc.channel", hw.DefaultADCChannel)
	v.SetDefault("temperature.threshold", control.DefaultThreshold)
	v.SetDefault("dispatch.match", string(command.MatchSegment))
	v.SetDefault("pins.alarm", hw.DefaultPinAlarm)
	v.SetDefault("pins.button_a", hw.DefaultPinButtonA)
	v.SetDefault("pins.button_b", hw.DefaultPinButtonB)
	v.SetDefault("wifi.timeout", 20*time.Second)
	v.SetDefault("wifi.policy", string(network.PolicyAbort))
	v.SetDefault("wifi.retry_delay", 100*time.Millisecond)
	v.SetDefault("mqtt.heartbeat", 15*time.Minute)
	v.SetDefault("mdns.enabled", true)
	v.SetDefault("mdns.instance", "cabin-monitor")
	v.SetDefault("request.buffers", 4)
	v.SetDefault("request.buffer_size", 2048)
}

// Setup prepares v for env overrides and the optional config file.
func Setup(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("cabin")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/cabin-monitor")
}

// ReadFile reads path, or searches the default locations when path is empty.
// A missing file in the default locations is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load resolves the configuration from v. Profile values may be overridden
// per key with fan.pins, fan.interval, and alarm.initial.
func Load(v *viper.Viper) (Config, error) {
	name := v.GetString("profile")
	profile, ok := Profiles[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown profile %q", name)
	}
	if v.IsSet("fan.pins") {
		profile.FanPins = v.GetIntSlice("fan.pins")
	}
	if v.IsSet("fan.interval") {
		profile.FanInterval = v.GetDuration("fan.interval")
	}
	if v.IsSet("alarm.initial") {
		profile.InitialAlarmEnabled = v.GetBool("alarm.initial")
	}

	match, err := command.ParseMode(v.GetString("dispatch.match"))
	if err != nil {
		return Config{}, err
	}
	policy, err := network.ParsePolicy(v.GetString("wifi.policy"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Profile:      profile,
		LogLevel:     v.GetString("log.level"),
		HTTPAddr:     v.GetString("http.addr"),
		LoopInterval: v.GetDuration("loop.interval"),
		GPIOChip:     v.GetString("gpio.chip"),
		ADCPath:      v.GetString("adc.path"),
		ADCChannel:   v.GetInt("adc.channel"),
		Threshold:    v.GetFloat64("temperature.threshold"),
		Match:        match,
		PinAlarm:     v.GetInt("pins.alarm"),
		PinButtonA:   v.GetInt("pins.button_a"),
		PinButtonB:   v.GetInt("pins.button_b"),
		WiFi: WiFiConfig{
			SSID:       v.GetString("wifi.ssid"),
			Password:   v.GetString("wifi.password"),
			Timeout:    v.GetDuration("wifi.timeout"),
			Policy:     policy,
			RetryDelay: v.GetDuration("wifi.retry_delay"),
		},
		MQTT: MQTTConfig{
			Broker:    v.GetString("mqtt.broker"),
			Heartbeat: v.GetDuration("mqtt.heartbeat"),
		},
		MDNS: MDNSConfig{
			Enabled:  v.GetBool("mdns.enabled"),
			Instance: v.GetString("mdns.instance"),
		},
		Request: RequestConfig{
			Buffers:    v.GetInt("request.buffers"),
			BufferSize: v.GetInt("request.buffer_size"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.LoopInterval < MinLoopInterval || c.LoopInterval > MaxLoopInterval {
		return fmt.Errorf("loop interval %v outside %v-%v", c.LoopInterval, MinLoopInterval, MaxLoopInterval)
	}
	if c.Profile.PhaseCount() < 2 {
		return fmt.Errorf("profile %s: need at least 2 fan pins, got %d", c.Profile.Name, c.Profile.PhaseCount())
	}
	if c.Profile.FanInterval <= 0 {
		return fmt.Errorf("profile %s: fan interval must be positive", c.Profile.Name)
	}
	if c.Request.Buffers < 1 {
		return fmt.Errorf("request.buffers must be at least 1, got %d", c.Request.Buffers)
	}
	if c.Request.BufferSize < 64 {
		return fmt.Errorf("request.buffer_size must be at least 64, got %d", c.Request.BufferSize)
	}
	if c.WiFi.SSID != "" && c.WiFi.Timeout <= 0 {
		return errors.New("wifi.timeout must be positive")
	}
	return c.checkPins()
}

// checkPins rejects a layout that claims one GPIO line twice.
func (c Config) checkPins() error {
	l := c.Layout()
	seen := make(map[int]bool)
	for _, pin := range append(append([]int{}, l.Inputs...), l.Outputs...) {
		if pin < 0 {
			return fmt.Errorf("invalid gpio pin %d", pin)
		}
		if seen[pin] {
			return fmt.Errorf("gpio pin %d assigned more than once", pin)
		}
		seen[pin] = true
	}
	return nil
}

// Control returns the controller settings.
func (c Config) Control() control.Config {
	return control.Config{
		PinAlarm:            c.PinAlarm,
		PinButtonA:          c.PinButtonA,
		PinButtonB:          c.PinButtonB,
		FanPins:             c.Profile.FanPins,
		FanInterval:         c.Profile.FanInterval,
		ADCChannel:          c.ADCChannel,
		Threshold:           c.Threshold,
		InitialAlarmEnabled: c.Profile.InitialAlarmEnabled,
		Match:               c.Match,
	}
}

// Layout returns the pins the peripheral must claim.
func (c Config) Layout() hw.Layout {
	return hw.Layout{
		Inputs:  []int{c.PinButtonA, c.PinButtonB},
		Outputs: append([]int{c.PinAlarm}, c.Profile.FanPins...),
	}
}
