//go:build ebiten

package main

import (
	"errors"
	"flag"
	"os"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"

	"mmas/internal/app"
	"mmas/internal/micro"
	"mmas/internal/store"
	"mmas/internal/ui"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "mmas"})

	simCfg := micro.DefaultConfig()
	simCfg.Bind(flag.CommandLine)
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	flag.Parse()

	var (
		m      *micro.Microstructure
		stored []store.Color
		err    error
	)
	if cfg.Load != "" {
		snap, lerr := store.Load(cfg.Load)
		if lerr != nil {
			logger.Fatal("load microstructure", "err", lerr)
		}
		stored = snap.GrainColors
		m, err = micro.Restore(snap)
		if err == nil {
			err = applyOverrides(m, simCfg)
		}
		logger.Info("loaded microstructure", "path", cfg.Load)
	} else {
		m, err = micro.New(simCfg)
	}
	if err != nil {
		logger.Fatal("build microstructure", "err", err)
	}

	scale := m.Config().CellSize
	game := app.New(m, app.Options{
		Scale:    scale,
		Seed:     m.Config().Seed,
		Config:   cfg,
		Palettes: app.NewPalettes(m.Levels(), stored, m.Config().Seed),
		Logger:   logger,
	})
	if cfg.Save {
		game.SaveJSON()
	}
	if cfg.Snapshot > 0 {
		game.SavePNG()
	}

	size := m.Size()
	ebiten.SetWindowTitle(ui.Title(m))
	ebiten.SetTPS(cfg.TPS)
	ebiten.SetWindowSize(size.W*scale+max(cfg.HUDWidth, 0), size.H*scale)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Fatal("run", "err", err)
	}
}

// applyOverrides carries the parameter flags given on the command line over
// a loaded microstructure.
func applyOverrides(m *micro.Microstructure, cfg micro.Config) error {
	var keys []string
	flag.Visit(func(f *flag.Flag) {
		if key, ok := micro.OverrideFlags[f.Name]; ok {
			keys = append(keys, key)
		}
	})
	return m.Override(cfg, keys...)
}
