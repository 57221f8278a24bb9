package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ControllerConfig defines a saved controller configuration
type ControllerConfig struct {
	PortName    string `json:"portName"`
	AutoConnect bool   `json:"autoConnect"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	DefaultSpeed float64 `json:"defaultSpeed,omitempty"`
	PaletteFile  string  `json:"paletteFile,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Profile     string             `json:"profile,omitempty"`
	DBPath      string             `json:"dbPath,omitempty"`
	Scale       string             `json:"scale,omitempty"`
	ModelName   string             `json:"modelName,omitempty"`
	Controllers []ControllerConfig `json:"controllers,omitempty"`
	UI          UIConfig           `json:"ui,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Profile:   "default",
		DBPath:    "sessions.db",
		Scale:     "C_major",
		ModelName: "launchpad-x",
		Controllers: []ControllerConfig{
			{
				PortName:    "Launchpad X LPX MIDI",
				AutoConnect: true,
			},
		},
		UI: UIConfig{
			DefaultSpeed: 1.0,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "padtrace"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Fill holes left by sparse files
	def := DefaultConfig()
	if cfg.Profile == "" {
		cfg.Profile = def.Profile
	}
	if cfg.DBPath == "" {
		cfg.DBPath = def.DBPath
	}
	if cfg.Scale == "" {
		cfg.Scale = def.Scale
	}
	if cfg.ModelName == "" {
		cfg.ModelName = def.ModelName
	}
	if cfg.UI.DefaultSpeed == 0 {
		cfg.UI.DefaultSpeed = def.UI.DefaultSpeed
	}

	return &cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
