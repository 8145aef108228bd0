package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the dashboard.
// Fields may be loaded from a JSON or YAML file and overridden by command-line flags.
type Config struct {
	Debug bool `json:"debug" yaml:"debug"`

	// Transport
	ServerURL           string `json:"server_url" yaml:"server_url"`
	Origin              string `json:"origin" yaml:"origin"`
	ReconnectAttempts   int    `json:"reconnect_attempts" yaml:"reconnect_attempts"`
	ReconnectDelayMs    int    `json:"reconnect_delay_ms" yaml:"reconnect_delay_ms"`
	ReconnectDelayMaxMs int    `json:"reconnect_delay_max_ms" yaml:"reconnect_delay_max_ms"`
	DialTimeoutMs       int    `json:"dial_timeout_ms" yaml:"dial_timeout_ms"`

	// Frame pipeline
	BufferCapacity int  `json:"buffer_capacity" yaml:"buffer_capacity"`
	HistorySize    int  `json:"history_size" yaml:"history_size"`
	RefreshHz      int  `json:"refresh_hz" yaml:"refresh_hz"`
	CanvasWidth    int  `json:"canvas_width" yaml:"canvas_width"`
	CanvasHeight   int  `json:"canvas_height" yaml:"canvas_height"`
	Overlay        bool `json:"overlay" yaml:"overlay"`

	// Diagnostics timers
	LatencyIntervalMs int `json:"latency_interval_ms" yaml:"latency_interval_ms"`
	StatsIntervalMs   int `json:"stats_interval_ms" yaml:"stats_interval_ms"`

	DarkMode bool `json:"dark_mode" yaml:"dark_mode"`

	// Optional stats telemetry; empty broker disables it.
	MQTTBroker   string `json:"mqtt_broker" yaml:"mqtt_broker"`
	MQTTTopic    string `json:"mqtt_topic" yaml:"mqtt_topic"`
	MQTTClientID string `json:"mqtt_client_id" yaml:"mqtt_client_id"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:               false,
		ServerURL:           "ws://127.0.0.1:5000/socket",
		Origin:              "http://127.0.0.1/",
		ReconnectAttempts:   10,
		ReconnectDelayMs:    1000,
		ReconnectDelayMaxMs: 5000,
		DialTimeoutMs:       20000,
		BufferCapacity:      3,
		HistorySize:         10,
		RefreshHz:           60,
		CanvasWidth:         640,
		CanvasHeight:        480,
		Overlay:             true,
		LatencyIntervalMs:   3000,
		StatsIntervalMs:     2000,
		MQTTTopic:           "preview-dash/stats",
		MQTTClientID:        "preview-dash",
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ServerURL) == "" {
		c.ServerURL = "ws://127.0.0.1:5000/socket"
	}
	if strings.TrimSpace(c.Origin) == "" {
		c.Origin = "http://127.0.0.1/"
	}
	if c.ReconnectAttempts < 0 {
		c.ReconnectAttempts = 0
	}
	if c.ReconnectDelayMs <= 0 {
		c.ReconnectDelayMs = 1000
	}
	if c.ReconnectDelayMaxMs < c.ReconnectDelayMs {
		c.ReconnectDelayMaxMs = c.ReconnectDelayMs
	}
	if c.DialTimeoutMs <= 0 {
		c.DialTimeoutMs = 20000
	}
	if c.BufferCapacity < 1 {
		c.BufferCapacity = 3
	}
	if c.HistorySize < 1 {
		c.HistorySize = 10
	}
	if c.RefreshHz <= 0 || c.RefreshHz > 240 {
		c.RefreshHz = 60
	}
	if c.CanvasWidth < 16 {
		c.CanvasWidth = 640
	}
	if c.CanvasHeight < 16 {
		c.CanvasHeight = 480
	}
	if c.LatencyIntervalMs < 0 {
		c.LatencyIntervalMs = 3000
	}
	if c.StatsIntervalMs < 0 {
		c.StatsIntervalMs = 2000
	}
	if c.MQTTTopic == "" {
		c.MQTTTopic = "preview-dash/stats"
	}
	if c.MQTTClientID == "" {
		c.MQTTClientID = "preview-dash"
	}
	return nil
}

// ReconnectDelay is the first backoff step after a lost connection.
func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelayMs) * time.Millisecond
}

// ReconnectDelayMax caps the exponential backoff.
func (c *Config) ReconnectDelayMax() time.Duration {
	return time.Duration(c.ReconnectDelayMaxMs) * time.Millisecond
}

func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutMs) * time.Millisecond
}

// RefreshInterval is the pause the pump takes between two paints.
func (c *Config) RefreshInterval() time.Duration {
	if c.RefreshHz <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.RefreshHz)
}

// LatencyInterval returns the ping period; zero disables probing.
func (c *Config) LatencyInterval() time.Duration {
	return time.Duration(c.LatencyIntervalMs) * time.Millisecond
}

// StatsInterval returns the stats publication period; zero disables it.
func (c *Config) StatsInterval() time.Duration {
	return time.Duration(c.StatsIntervalMs) * time.Millisecond
}

// DefaultPath returns the per-user config file location
// ($XDG_CONFIG_HOME/preview-dash/config.json on Linux).
func DefaultPath() string {
	p, err := xdg.ConfigFile(filepath.Join("preview-dash", "config.json"))
	if err != nil {
		return "config.json"
	}
	return p
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load attempts to read configuration from the given path. If the file does not
// exist it returns DefaultConfig(). On decode error it returns defaults with the error.
// Files ending in .yaml or .yml are decoded as YAML, everything else as JSON.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	if isYAML(path) {
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return DefaultConfig(), err
		}
	} else {
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return DefaultConfig(), err
		}
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to the given path, creating parent directories.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
