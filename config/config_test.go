package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.BufferCapacity != 3 {
		t.Errorf("BufferCapacity = %d, want 3", cfg.BufferCapacity)
	}
	if cfg.HistorySize != 10 {
		t.Errorf("HistorySize = %d, want 10", cfg.HistorySize)
	}
	if cfg.ReconnectAttempts != 10 {
		t.Errorf("ReconnectAttempts = %d, want 10", cfg.ReconnectAttempts)
	}
	if cfg.LatencyInterval() != 3*time.Second {
		t.Errorf("LatencyInterval = %v, want 3s", cfg.LatencyInterval())
	}
	if cfg.StatsInterval() != 2*time.Second {
		t.Errorf("StatsInterval = %v, want 2s", cfg.StatsInterval())
	}
	if !cfg.Overlay {
		t.Error("Overlay should be true")
	}
}

func TestValidate_ClampsInvalidValues(t *testing.T) {
	cfg := &Config{
		BufferCapacity:      0,
		HistorySize:         -1,
		RefreshHz:           1000,
		ReconnectDelayMs:    2000,
		ReconnectDelayMaxMs: 10,
		CanvasWidth:         1,
	}
	_ = cfg.Validate()
	if cfg.BufferCapacity != 3 || cfg.HistorySize != 10 {
		t.Fatalf("pipeline sizes not clamped: cap=%d hist=%d", cfg.BufferCapacity, cfg.HistorySize)
	}
	if cfg.RefreshHz != 60 {
		t.Fatalf("RefreshHz = %d, want 60", cfg.RefreshHz)
	}
	if cfg.ReconnectDelayMaxMs != 2000 {
		t.Fatalf("max delay should be raised to the base delay, got %d", cfg.ReconnectDelayMaxMs)
	}
	if cfg.CanvasWidth != 640 || cfg.CanvasHeight != 480 {
		t.Fatalf("canvas not clamped: %dx%d", cfg.CanvasWidth, cfg.CanvasHeight)
	}
	if cfg.ServerURL == "" || cfg.MQTTTopic == "" {
		t.Fatalf("string defaults missing: %+v", cfg)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BufferCapacity != DefaultConfig().BufferCapacity {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestSaveLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	cfg.BufferCapacity = 5
	cfg.ServerURL = "ws://example:9000/socket"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.BufferCapacity != 5 || got.ServerURL != "ws://example:9000/socket" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "buffer_capacity: 4\nhistory_size: 20\nserver_url: ws://cam:5000/socket\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BufferCapacity != 4 || cfg.HistorySize != 20 || cfg.ServerURL != "ws://cam:5000/socket" {
		t.Fatalf("yaml fields not applied: %+v", cfg)
	}
	// untouched fields keep their defaults
	if cfg.CanvasWidth != 640 {
		t.Fatalf("CanvasWidth = %d, want default 640", cfg.CanvasWidth)
	}
}

func TestLoad_BadJSONReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if cfg == nil || cfg.BufferCapacity != 3 {
		t.Fatalf("expected defaults alongside error, got %+v", cfg)
	}
}

func TestRefreshInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RefreshHz = 50
	if got := cfg.RefreshInterval(); got != 20*time.Millisecond {
		t.Fatalf("RefreshInterval = %v, want 20ms", got)
	}
}
