package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foreshadow/engine"
)

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, OutputSoft, cfg.Output)
	assert.EqualValues(t, 1, cfg.Seed)
	assert.Equal(t, 9, cfg.MIDI.PercussionChannel)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.Seed = 77
	cfg.Output = OutputSilent
	cfg.Scale = []int{48, 50, 52, 53, 55}
	cfg.Tuning.FadeOut = 0.25
	require.NoError(t, cfg.Save())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg.Seed, loaded.Seed)
	assert.Equal(t, OutputSilent, loaded.Output)
	assert.Equal(t, cfg.Scale, loaded.Scale)
	assert.Equal(t, 0.25, loaded.Tuning.FadeOut)
}

func TestLoadRejectsBadValues(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "foreshadow")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"output":"tape-deck"}`), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Scale = []int{60, 200}
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.LookAheadMs = -5
	assert.Error(t, cfg.Validate())
}

func TestEngineTuningOverrides(t *testing.T) {
	cfg := DefaultConfig()
	tun := cfg.EngineTuning()
	assert.Equal(t, engine.DefaultTuning(), tun)

	cfg.Tuning.FadeOut = 0.3
	cfg.Tuning.LeadInMax = 4.0
	tun = cfg.EngineTuning()
	assert.Equal(t, 0.3, tun.FadeOut)
	assert.Equal(t, 4.0, tun.LeadInMax)
	// Untouched fields keep their defaults.
	assert.Equal(t, engine.DefaultTuning().FadeIn, tun.FadeIn)
}

func TestEngineScale(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, engine.DefaultScale, cfg.EngineScale())

	cfg.Scale = []int{48, 50}
	assert.Equal(t, engine.Scale{48, 50}, cfg.EngineScale())
}
