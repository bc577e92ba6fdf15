package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// APIConfig holds settings for the storefront REST API.
type APIConfig struct {
	// BaseURL is the root URL of the storefront backend
	// (e.g., https://shop.example.com/api/v1).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// BrokerConfig holds settings for the websocket message broker connection.
type BrokerConfig struct {
	// URL is the websocket endpoint carrying STOMP frames
	// (e.g., wss://shop.example.com/api/v1/ws).
	URL string `mapstructure:"url" yaml:"url"`

	// HeartbeatSec is the heartbeat interval, applied in both
	// directions, used to detect half-open sockets.
	HeartbeatSec int `mapstructure:"heartbeat_sec" yaml:"heartbeat_sec"`

	// ReconnectBaseSec is the base reconnect delay; attempt n waits
	// n times this long.
	ReconnectBaseSec int `mapstructure:"reconnect_base_sec" yaml:"reconnect_base_sec"`

	// MaxReconnectAttempts caps consecutive reconnect attempts before
	// the connection manager gives up until the next explicit connect.
	MaxReconnectAttempts int `mapstructure:"max_reconnect_attempts" yaml:"max_reconnect_attempts"`
}

// StorageConfig holds settings for the local persistence layer.
type StorageConfig struct {
	// DBPath is the SQLite database file backing the persisted feed.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// LogConfig holds logging preferences. Logs go to a file so they never
// interleave with the terminal UI.
type LogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Broker  BrokerConfig  `mapstructure:"broker" yaml:"broker"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/shopfeed/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "shopfeed", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".local", "share", "shopfeed")

	return &AppConfig{
		API: APIConfig{
			BaseURL: "http://localhost:8080/api/v1",
		},
		Broker: BrokerConfig{
			URL:                  "ws://localhost:8080/api/v1/ws",
			HeartbeatSec:         4,
			ReconnectBaseSec:     5,
			MaxReconnectAttempts: 5,
		},
		Storage: StorageConfig{
			DBPath: filepath.Join(dataDir, "feed.db"),
		},
		Log: LogConfig{
			Path:  filepath.Join(dataDir, "shopfeed.log"),
			Level: "info",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	defaults := defaultAppConfig()
	v.SetDefault("api.base_url", defaults.API.BaseURL)
	v.SetDefault("broker.url", defaults.Broker.URL)
	v.SetDefault("broker.heartbeat_sec", defaults.Broker.HeartbeatSec)
	v.SetDefault("broker.reconnect_base_sec", defaults.Broker.ReconnectBaseSec)
	v.SetDefault("broker.max_reconnect_attempts", defaults.Broker.MaxReconnectAttempts)
	v.SetDefault("storage.db_path", defaults.Storage.DBPath)
	v.SetDefault("log.path", defaults.Log.Path)
	v.SetDefault("log.level", defaults.Log.Level)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaults, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaults
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("broker", cfg.Broker)
	v.Set("storage", cfg.Storage)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
