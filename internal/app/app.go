//go:build ebiten

package app

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"mmas/internal/core"
	"mmas/internal/micro"
	"mmas/internal/render"
	"mmas/internal/ui"
)

// Game adapts a grain-growth simulation to the ebiten.Game interface.
type Game struct {
	sim     core.Sim
	micro   *micro.Microstructure
	painter *render.GridPainter
	overlay *ui.Overlay
	hud     *ui.HUD

	palettes  Palettes
	capture   *Capture
	snapshots *core.Interval
	logger    *log.Logger

	colored  bool
	scale    int
	hudWidth int
	paused   bool
	tickOnce bool
	seed     int64
	title    string
}

// New constructs a Game for the provided simulation. Snapshot and save keys
// only work when sim is a *micro.Microstructure.
func New(sim core.Sim, opts Options) *Game {
	cfg := opts.Config
	if cfg == nil {
		cfg = NewConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	scale := max(opts.Scale, 1)
	size := sim.Size()
	g := &Game{
		sim:       sim,
		painter:   render.NewGridPainter(size.W, size.H),
		overlay:   ui.NewOverlay(sim, scale),
		palettes:  opts.Palettes,
		capture:   NewCapture(cfg.OutDir),
		snapshots: core.NewInterval(time.Duration(cfg.Snapshot) * time.Second),
		logger:    logger,
		colored:   cfg.Color,
		scale:     scale,
		hudWidth:  max(cfg.HUDWidth, 0),
		paused:    !cfg.Simulate,
		seed:      opts.Seed,
	}
	g.micro, _ = sim.(*micro.Microstructure)
	if g.hudWidth > 0 {
		g.hud = ui.NewHUD(sim, g.hudWidth)
	}
	if len(g.palettes.Gray) == 0 {
		g.palettes = NewPalettes(sim.Levels(), nil, opts.Seed)
	}
	return g
}

// Reset reinitializes the simulation state with the provided seed.
func (g *Game) Reset(seed int64) {
	g.seed = seed
	g.sim.Reset(seed)
	g.tickOnce = false
	if len(g.palettes.Gray) != g.sim.Levels()+1 {
		g.palettes = NewPalettes(g.sim.Levels(), nil, seed)
	}
}

// SavePNG writes a snapshot of the current grain map.
func (g *Game) SavePNG() {
	if g.micro == nil {
		return
	}
	path, err := g.capture.PNG(g.micro, g.palettes.Pick(g.colored))
	if err != nil {
		g.logger.Error("snapshot failed", "err", err)
		return
	}
	g.logger.Info("saved snapshot", "path", path, "mcs", g.micro.Engine().MCS())
}

// SaveJSON writes the current microstructure with its grain colours.
func (g *Game) SaveJSON() {
	if g.micro == nil {
		return
	}
	path, err := g.capture.JSON(g.micro, g.palettes.Color)
	if err != nil {
		g.logger.Error("save failed", "err", err)
		return
	}
	g.logger.Info("saved microstructure", "path", path)
}

// Update handles per-frame logic and advances the simulation.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.paused = false
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Reset(g.seed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.colored = !g.colored
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.SavePNG()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.SaveJSON()
	}

	g.overlay.Update()
	g.hud.Update(g.sim.Size().W * g.scale)

	if !g.paused || g.tickOnce {
		g.sim.Step()
		g.tickOnce = false
		if g.snapshots.Due() {
			g.SavePNG()
		}
	}

	if title := ui.Title(g.sim); title != g.title {
		g.title = title
		ebiten.SetWindowTitle(title)
	}
	return nil
}

// Draw renders the grain map, overlays and control panel.
func (g *Game) Draw(screen *ebiten.Image) {
	g.painter.Blit(screen, g.sim.Cells(), g.palettes.Pick(g.colored), g.scale)
	g.overlay.Draw(screen)
	g.hud.Draw(screen, g.sim.Size().W*g.scale, g.scale)
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.sim.Size()
	return s.W*g.scale + g.hudWidth, s.H * g.scale
}
