package main

import (
	"errors"
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/cathedral/common"
	"github.com/milk9111/cathedral/logging"
	"github.com/milk9111/cathedral/prefabs"
)

func main() {
	sceneName := flag.String("scene", prefabs.SceneFile, "scene spec in prefabs/ (embedded copy used when missing on disk)")
	playerName := flag.String("player", prefabs.PlayerFile, "player tuning spec in prefabs/")
	debug := flag.Bool("debug", false, "enable debug overlay and debug logging")
	logFile := flag.String("log", "cathedral.log", "log file path, empty for stderr only")
	watch := flag.Bool("watch", false, "reload prefabs when files under prefabs/ change")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	flag.Parse()

	cfg := logging.DefaultConfig()
	cfg.File = *logFile
	cfg.Debug = *debug
	logger, closeLog := logging.New(cfg)
	defer func() {
		_ = closeLog()
	}()

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(common.BaseWidth, common.BaseHeight)
	ebiten.SetWindowTitle("cathedral")
	ebiten.SetTPS(common.TicksPerSecond)

	game, err := NewGame(Options{
		Scene:  *sceneName,
		Player: *playerName,
		Debug:  *debug,
		Watch:  *watch,
		Log:    logger,
	})
	if err != nil {
		logger.Errorw("start failed", "error", err)
		log.Fatal(err)
	}
	defer game.Close()

	// Captured cursor gives unbounded relative motion for mouse look.
	ebiten.SetCursorMode(ebiten.CursorModeCaptured)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Errorw("game exited", "error", err)
	}
}
