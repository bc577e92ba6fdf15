package model_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nvhoang/shopfeed/internal/model"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := model.LoadConfig(path)
	if err != nil {
		t.Fatalf("loading missing config: %v", err)
	}
	if cfg.Broker.HeartbeatSec != 4 {
		t.Errorf("heartbeat = %d, want 4", cfg.Broker.HeartbeatSec)
	}
	if cfg.Broker.ReconnectBaseSec != 5 || cfg.Broker.MaxReconnectAttempts != 5 {
		t.Errorf("reconnect defaults = (%d, %d), want (5, 5)",
			cfg.Broker.ReconnectBaseSec, cfg.Broker.MaxReconnectAttempts)
	}

	// Loading never creates the file; that is the caller's choice.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("LoadConfig created the config file")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	in, err := model.LoadConfig(path)
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	in.API.BaseURL = "https://shop.example.com/api/v1"
	in.Broker.URL = "wss://shop.example.com/api/v1/ws"
	in.Broker.MaxReconnectAttempts = 8

	if err := model.SaveConfig(path, in); err != nil {
		t.Fatalf("saving config: %v", err)
	}

	out, err := model.LoadConfig(path)
	if err != nil {
		t.Fatalf("reloading config: %v", err)
	}
	if out.API.BaseURL != in.API.BaseURL {
		t.Errorf("base url = %q, want %q", out.API.BaseURL, in.API.BaseURL)
	}
	if out.Broker.URL != in.Broker.URL {
		t.Errorf("broker url = %q, want %q", out.Broker.URL, in.Broker.URL)
	}
	if out.Broker.MaxReconnectAttempts != 8 {
		t.Errorf("max attempts = %d, want 8", out.Broker.MaxReconnectAttempts)
	}
}
