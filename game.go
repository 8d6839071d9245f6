package main

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/cathedral/camera"
	"github.com/milk9111/cathedral/common"
	"github.com/milk9111/cathedral/controller"
	"github.com/milk9111/cathedral/input"
	"github.com/milk9111/cathedral/logging"
	"github.com/milk9111/cathedral/physics"
	"github.com/milk9111/cathedral/prefabs"
	"github.com/milk9111/cathedral/scene"
	"github.com/milk9111/cathedral/sim"
	"go.uber.org/zap"
)

const debugZoom = 12

type Options struct {
	Scene  string
	Player string
	Debug  bool
	Watch  bool
	Log    *zap.SugaredLogger
}

type Game struct {
	log   *zap.SugaredLogger
	debug bool

	space   *physics.Space
	cam     *camera.Camera
	input   *input.Aggregator
	sampler *input.Sampler
	player  *controller.Controller
	scenes  *scene.Manager
	sched   *sim.Scheduler
	watcher *prefabs.Watcher

	sceneName  string
	playerName string
	last       time.Time
	frames     int
	ticks      int
}

func NewGame(opts Options) (*Game, error) {
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}

	playerSpec, err := prefabs.LoadPlayerSpec(opts.Player)
	if err != nil {
		log.Warnw("player spec unavailable, using defaults", "file", opts.Player, "error", err)
	}
	params := playerSpec.Params()

	g := &Game{
		log:        log,
		debug:      opts.Debug,
		space:      physics.NewSpace(common.FixedStep, mgl64.Vec3{0, -params.Gravity, 0}),
		cam:        camera.New(0),
		input:      input.NewAggregator(input.DefaultMaxPointerDelta),
		sceneName:  opts.Scene,
		playerName: opts.Player,
	}
	g.sampler = input.NewSampler(g.input, input.DefaultBindings())
	g.scenes = scene.NewManager(g.space, scene.NewLoader(), log.Named("scene"))

	g.player, err = controller.New(g.space, g.cam, g.input, controller.Spawn{}, params, controller.WithLogger(log.Named("controller")))
	if err != nil {
		return nil, err
	}
	// Held at the origin until the first scene arrives.
	g.player.SetMode(true)

	g.sched = sim.NewScheduler(g.space, common.FixedStep, common.MaxFrameCatchUp, g.player, &respawn{game: g})
	g.scenes.Load(opts.Scene)

	if opts.Watch {
		w, err := prefabs.NewWatcher("prefabs", "prefabs/scripts")
		if err != nil {
			log.Warnw("prefab watcher disabled", "error", err)
		} else {
			g.watcher = w
		}
	}
	return g, nil
}

func (g *Game) Update() error {
	g.frames++

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		g.debug = !g.debug
	}

	g.applyScene()
	g.applyChanges()

	g.sampler.Sample()

	now := time.Now()
	if g.last.IsZero() {
		g.last = now
	}
	elapsed := now.Sub(g.last).Seconds()
	g.last = now
	g.ticks = g.sched.Advance(elapsed)
	return nil
}

func (g *Game) applyScene() {
	s, ok := g.scenes.Update()
	if !ok {
		return
	}
	g.player.SetHeightFunc(s.HeightFunc())
	g.player.SetMode(false)
	g.player.Teleport(s.Spawn.Position)
	g.player.Face(s.Spawn.Yaw, s.Spawn.Pitch)
	g.sched.Reset()
	g.last = time.Time{}
}

func (g *Game) applyChanges() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case change, ok := <-g.watcher.Changes:
			if !ok {
				g.watcher = nil
				return
			}
			g.reload(change)
		case err, ok := <-g.watcher.Errors:
			if !ok {
				g.watcher = nil
				return
			}
			g.log.Warnw("prefab watcher error", "error", err)
		default:
			return
		}
	}
}

func (g *Game) reload(change prefabs.Change) {
	switch {
	case change.Name == g.playerName:
		spec, err := prefabs.LoadPlayerSpec(g.playerName)
		if err != nil {
			g.log.Warnw("player reload failed", "file", change.Path, "error", err)
			return
		}
		g.player.ApplyParams(spec.Params())
		g.log.Infow("player tuning reloaded", "file", change.Path)
	case change.Name == g.sceneName || change.Script:
		g.log.Infow("scene reload", "file", change.Path)
		g.scenes.Load(g.sceneName)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	if s := g.scenes.Current(); s != nil {
		drawWireframe(screen, g.cam, s.Bounds)
	}
	drawCrosshair(screen)

	if g.debug {
		g.drawDebug(screen)
	}
}

func (g *Game) drawDebug(screen *ebiten.Image) {
	st := g.player.State()
	view := physics.DebugView{CenterX: st.Position.X(), CenterZ: st.Position.Z(), Zoom: debugZoom}
	physics.DrawDebug(g.space, screen, view)
	drawHeading(screen, view, st.Position, g.cam.Forward())

	scn := "loading"
	if s := g.scenes.Current(); s != nil {
		scn = s.Name
	}
	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"FPS: %.1f  TPS: %.1f  ticks/frame: %d  alpha: %.2f\nscene: %s  mode: %s  grounded: %t (likely %t, hysteresis %d)\npos: %.2f %.2f %.2f\nvel: %.2f %.2f %.2f\nyaw: %.1f  pitch: %.1f  jumps: %d",
		ebiten.ActualFPS(), ebiten.ActualTPS(), g.ticks, g.sched.Alpha(),
		scn, st.Mode, st.Grounded, st.LikelyGrounded, st.Hysteresis,
		st.Position.X(), st.Position.Y(), st.Position.Z(),
		st.Velocity.X(), st.Velocity.Y(), st.Velocity.Z(),
		wrapDegrees(st.Yaw), mgl64.RadToDeg(st.Pitch), st.Jumps,
	))
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return common.BaseWidth, common.BaseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
	g.scenes.Unload()
	g.player.Close()
}

// respawn sends the player back to the scene spawn after falling out of
// the world.
type respawn struct {
	game *Game
}

func (r *respawn) PreTick(float64) {}

func (r *respawn) PostTick() {
	r.game.scenes.ReportTerrain()

	s := r.game.scenes.Current()
	pos := r.game.player.State().Position
	if !s.Fallen(pos.Y()) {
		return
	}
	r.game.log.Infow("respawn", "from", pos, "kill_y", s.KillY)
	r.game.player.Teleport(s.Spawn.Position)
}

func wrapDegrees(rad float64) float64 {
	return math.Mod(mgl64.RadToDeg(rad)+360, 360)
}
