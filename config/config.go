package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"foreshadow/engine"
	"foreshadow/transport"
)

// OutputKind identifies the audio backend
type OutputKind string

const (
	OutputSoft   OutputKind = "soft"
	OutputMIDI   OutputKind = "midi"
	OutputSilent OutputKind = "silent"
)

// MIDIConfig defines the external MIDI output
type MIDIConfig struct {
	PortName          string `json:"portName,omitempty"`
	MelodicChannel    int    `json:"melodicChannel,omitempty"`
	PercussionChannel int    `json:"percussionChannel,omitempty"`
}

// TuningConfig holds optional overrides for the lifecycle timings.
// Zero values fall back to the built-in defaults.
type TuningConfig struct {
	MinTimeUntil       float64 `json:"minTimeUntil,omitempty"`
	LeadInMin          float64 `json:"leadInMin,omitempty"`
	LeadInMax          float64 `json:"leadInMax,omitempty"`
	FadeIn             float64 `json:"fadeIn,omitempty"`
	FadeOut            float64 `json:"fadeOut,omitempty"`
	CleanupDelay       float64 `json:"cleanupDelay,omitempty"`
	DisposeDelay       float64 `json:"disposeDelay,omitempty"`
	CancelDisposeDelay float64 `json:"cancelDisposeDelay,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Seed        uint32       `json:"seed,omitempty"`
	Scale       []int        `json:"scale,omitempty"`
	LookAheadMs float64      `json:"lookAheadMs,omitempty"`
	Output      OutputKind   `json:"output,omitempty"`
	MIDI        MIDIConfig   `json:"midi,omitempty"`
	Tuning      TuningConfig `json:"tuning,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Seed:        1,
		LookAheadMs: transport.DefaultLookAheadMs,
		Output:      OutputSoft,
		MIDI: MIDIConfig{
			MelodicChannel:    0,
			PercussionChannel: 9,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "foreshadow"), nil
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

	if err := cfg.Validate(); err != nil {
		return nil, err
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

// Validate rejects values the engine cannot work with.
func (c *Config) Validate() error {
	switch c.Output {
	case "", OutputSoft, OutputMIDI, OutputSilent:
	default:
		return fmt.Errorf("config: unknown output %q", c.Output)
	}
	if c.LookAheadMs < 0 {
		return fmt.Errorf("config: lookAheadMs must be >= 0, got %v", c.LookAheadMs)
	}
	for _, p := range c.Scale {
		if p < 0 || p > 127 {
			return fmt.Errorf("config: scale pitch %d out of range", p)
		}
	}
	return nil
}

// EngineTuning maps the override block onto the engine defaults.
func (c *Config) EngineTuning() engine.Tuning {
	t := engine.DefaultTuning()
	o := c.Tuning
	if o.MinTimeUntil > 0 {
		t.MinTimeUntil = o.MinTimeUntil
	}
	if o.LeadInMin > 0 {
		t.LeadInMin = o.LeadInMin
	}
	if o.LeadInMax > 0 {
		t.LeadInMax = o.LeadInMax
	}
	if o.FadeIn > 0 {
		t.FadeIn = o.FadeIn
	}
	if o.FadeOut > 0 {
		t.FadeOut = o.FadeOut
	}
	if o.CleanupDelay > 0 {
		t.CleanupDelay = o.CleanupDelay
	}
	if o.DisposeDelay > 0 {
		t.DisposeDelay = o.DisposeDelay
	}
	if o.CancelDisposeDelay > 0 {
		t.CancelDisposeDelay = o.CancelDisposeDelay
	}
	return t
}

// EngineScale returns the configured scale, or the default when unset.
func (c *Config) EngineScale() engine.Scale {
	if len(c.Scale) == 0 {
		return engine.DefaultScale
	}
	return engine.Scale(c.Scale)
}
