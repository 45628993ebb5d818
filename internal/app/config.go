package app

import (
	"flag"

	"github.com/charmbracelet/log"
)

// Config represents the viewer options layered on top of the microstructure
// configuration.
type Config struct {
	TPS      int
	HUDWidth int

	// Simulate starts grain growth immediately; otherwise the viewer opens
	// paused on the initial tessellation.
	Simulate bool
	Color    bool
	// Snapshot is the PNG snapshot period in seconds. Zero disables it.
	Snapshot int
	Save     bool
	Load     string
	OutDir   string
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{TPS: 60, HUDWidth: 240, OutDir: "."}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.IntVar(&c.TPS, "tps", c.TPS, "ticks per second")
	fs.IntVar(&c.HUDWidth, "hud", c.HUDWidth, "control panel width in pixels (0 hides it)")
	fs.BoolVar(&c.Simulate, "simulate", c.Simulate, "run grain growth from the start")
	fs.BoolVar(&c.Color, "color", c.Color, "display grains in colour instead of grayscale")
	fs.IntVar(&c.Snapshot, "snapshot", c.Snapshot, "save a PNG snapshot every N seconds")
	fs.BoolVar(&c.Save, "save", c.Save, "save the initial microstructure as JSON")
	fs.StringVar(&c.Load, "load", c.Load, "load a microstructure JSON file")
	fs.StringVar(&c.OutDir, "out", c.OutDir, "directory for snapshots and saved microstructures")
}

// Options configures a Game.
type Options struct {
	Scale    int
	Seed     int64
	Config   *Config
	Palettes Palettes
	Logger   *log.Logger
}
