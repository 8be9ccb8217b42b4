package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"foreshadow/config"
	"foreshadow/debug"
	"foreshadow/rally"
	"foreshadow/synth"
	"foreshadow/theme"
	"foreshadow/transport"
	"foreshadow/tui"
)

func main() {
	var (
		outputFlag  = flag.String("output", "", "audio backend: soft, midi or silent (overrides config)")
		paletteFlag = flag.String("palette", "", "path to a .gpl palette file")
		debugFlag   = flag.Bool("debug", false, "write debug log to ~/.config/foreshadow/debug.log")
	)
	flag.Parse()

	if *debugFlag {
		if err := debug.Enable(); err != nil {
			fmt.Printf("Error enabling debug log: %v\n", err)
			os.Exit(1)
		}
		defer debug.Disable()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *outputFlag != "" {
		cfg.Output = config.OutputKind(*outputFlag)
		if err := cfg.Validate(); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	// Load theme
	palette := theme.Default()
	if *paletteFlag != "" {
		palette = theme.MustLoadGPL(*paletteFlag)
	}
	th := theme.New(palette)

	// Pick the audio backend
	var out synth.Synth
	backend := cfg.Output
	if backend == "" {
		backend = config.OutputSoft
	}
	switch backend {
	case config.OutputMIDI:
		out, err = synth.NewMIDI(cfg.MIDI.PortName, uint8(cfg.MIDI.MelodicChannel), uint8(cfg.MIDI.PercussionChannel))
	case config.OutputSilent:
		out = synth.NewSilent()
	default:
		out, err = synth.NewSoft()
	}
	if err != nil {
		fmt.Printf("Error opening %s output: %v\n", backend, err)
		os.Exit(1)
	}

	clock := transport.NewSystemClock()
	r := rally.New(out, clock, cfg.Seed, cfg.EngineScale(), cfg.LookAheadMs, cfg.EngineTuning())

	// Create and run TUI
	m := tui.NewModel(r, th, string(backend))
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	r.Stop()
}
