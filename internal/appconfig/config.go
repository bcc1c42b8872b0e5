package appconfig

import (
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/hintx/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string        `mapstructure:"state_dir" yaml:"state_dir"`
	Hints         HintsConfig   `mapstructure:"hints" yaml:"hints"`
	Frame         FrameConfig   `mapstructure:"frame" yaml:"frame"`
	HTTP          HTTPConfig    `mapstructure:"http" yaml:"http"`
	Metrics       MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// HintsConfig defines the label space handed to frames.
type HintsConfig struct {
	// Alphabet is a comma or space separated label list. A single word is
	// split into its characters. Empty means a..z then aa..zz.
	Alphabet     string `mapstructure:"alphabet" yaml:"alphabet"`
	TextAlphabet string `mapstructure:"text_alphabet" yaml:"text_alphabet"`
	// LowWaterMark is capped below the alphabet size; negative disables it.
	LowWaterMark int    `mapstructure:"low_water_mark" yaml:"low_water_mark"`
}

// FrameConfig tunes the frame-side client used by the CLI.
type FrameConfig struct {
	Batch             int `mapstructure:"batch" yaml:"batch"`
	RefreshIntervalMS int `mapstructure:"refresh_interval_ms" yaml:"refresh_interval_ms"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `mapstructure:"addr" yaml:"addr"`
	BaseURL     string `mapstructure:"base_url" yaml:"base_url"`
	BasePath    string `mapstructure:"base_path" yaml:"base_path"`
	HistorySize int    `mapstructure:"history_size" yaml:"history_size"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(home, ".hintx", "state"),
		Hints: HintsConfig{
			Alphabet:     "",
			TextAlphabet: "ABCDEFGHIJKLMNOPQRSTUVWXYZ",
			LowWaterMark: schema.DefaultLowWaterMark,
		},
		Frame: FrameConfig{
			Batch:             30,
			RefreshIntervalMS: 150,
		},
		HTTP: HTTPConfig{
			Addr:        "127.0.0.1:27430",
			BaseURL:     "",
			BasePath:    "",
			HistorySize: 256,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".hintx", "config.yaml"), nil
}

// ServiceConfig converts the hints section into the core service config.
func (c Config) ServiceConfig() (schema.ServiceConfig, error) {
	cfg := schema.ServiceConfig{
		StateDir:     c.StateDir,
		LowWaterMark: c.Hints.LowWaterMark,
	}
	if strings.TrimSpace(c.Hints.Alphabet) != "" {
		alphabet, err := schema.ParseAlphabet(c.Hints.Alphabet)
		if err != nil {
			return schema.ServiceConfig{}, err
		}
		cfg.Alphabet = alphabet
	}
	if strings.TrimSpace(c.Hints.TextAlphabet) != "" {
		text, err := schema.ParseAlphabet(c.Hints.TextAlphabet)
		if err != nil {
			return schema.ServiceConfig{}, err
		}
		cfg.TextAlphabet = text
	}
	return schema.NormalizeServiceConfig(cfg)
}
