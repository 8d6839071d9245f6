package scene

import (
	"fmt"

	"github.com/milk9111/cathedral/logging"
	"github.com/milk9111/cathedral/physics"
	"github.com/milk9111/cathedral/prefabs"
	"go.uber.org/zap"
)

// Result is a finished background load, not yet applied to the world.
type Result struct {
	Name    string
	Spec    prefabs.SceneSpec
	Terrain *Terrain
	Err     error

	seq uint64
}

type LoaderOption func(*Loader)

// WithSource replaces the prefab readers, mostly for tests.
func WithSource(spec func(string) (prefabs.SceneSpec, error), script func(string) ([]byte, error)) LoaderOption {
	return func(l *Loader) {
		if spec != nil {
			l.loadSpec = spec
		}
		if script != nil {
			l.loadScript = script
		}
	}
}

// Loader reads and compiles scenes off the simulation goroutine. Only the
// newest request is ever handed back.
type Loader struct {
	loadSpec   func(string) (prefabs.SceneSpec, error)
	loadScript func(string) ([]byte, error)

	results chan Result
	latest  uint64
	pending int
}

func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		loadSpec:   prefabs.LoadSceneSpec,
		loadScript: prefabs.LoadScript,
		results:    make(chan Result, 4),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Request starts loading name in the background. A newer request
// supersedes any older one still in flight.
func (l *Loader) Request(name string) {
	l.latest++
	l.pending++
	seq := l.latest
	go func() {
		res := l.load(name)
		res.seq = seq
		l.results <- res
	}()
}

// Poll returns the result of the newest request once it is ready. It never
// blocks.
func (l *Loader) Poll() (Result, bool) {
	for {
		select {
		case res := <-l.results:
			l.pending--
			if res.seq != l.latest {
				continue
			}
			return res, true
		default:
			return Result{}, false
		}
	}
}

// Pending is the number of requests whose results have not been polled.
func (l *Loader) Pending() int {
	return l.pending
}

func (l *Loader) load(name string) Result {
	spec, err := l.loadSpec(name)
	if err != nil {
		return Result{Name: name, Err: err}
	}

	res := Result{Name: name, Spec: spec}
	if spec.Terrain == nil {
		return res
	}
	src, err := l.loadScript(spec.Terrain.Script)
	if err != nil {
		res.Err = fmt.Errorf("scene: load terrain %s: %w", spec.Terrain.Script, err)
		return res
	}
	res.Terrain, res.Err = NewTerrain(*spec.Terrain, src)
	return res
}

// Manager owns the scene currently in the world and swaps it when a load
// finishes.
type Manager struct {
	world   physics.StaticWorld
	loader  *Loader
	log     *zap.SugaredLogger
	current *Scene
	// lastTerrainErr suppresses repeats of the same script failure.
	lastTerrainErr string
}

func NewManager(world physics.StaticWorld, loader *Loader, log *zap.SugaredLogger) *Manager {
	if loader == nil {
		loader = NewLoader()
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{world: world, loader: loader, log: log}
}

func (m *Manager) Load(name string) {
	m.log.Infow("loading scene", "scene", name)
	m.loader.Request(name)
}

// Update applies a finished load. It returns the new scene when one was
// swapped in. A failed load is logged and the current geometry stays.
func (m *Manager) Update() (*Scene, bool) {
	res, ok := m.loader.Poll()
	if !ok {
		return nil, false
	}
	if res.Err != nil {
		m.log.Errorw("scene load failed", "scene", res.Name, "error", res.Err)
		return nil, false
	}

	if m.current != nil {
		m.current.group.Teardown(m.world, m.log)
	}
	m.current = Build(m.world, res.Spec, res.Terrain, m.log)
	m.lastTerrainErr = ""
	m.log.Infow("scene ready", "scene", res.Name, "colliders", m.current.Colliders(), "terrain", res.Terrain != nil)
	return m.current, true
}

// ReportTerrain logs the last terrain script failure of the current scene.
// A failure is logged once until a different one replaces it.
func (m *Manager) ReportTerrain() {
	if m.current == nil {
		return
	}
	err := m.current.Terrain.Err()
	if err == nil || err.Error() == m.lastTerrainErr {
		return
	}
	m.lastTerrainErr = err.Error()
	m.log.Errorw("terrain script failed", "scene", m.current.Name, "error", err)
}

func (m *Manager) Current() *Scene {
	return m.current
}

func (m *Manager) Loading() bool {
	return m.loader.Pending() > 0
}

// Unload removes the current scene's geometry.
func (m *Manager) Unload() {
	if m.current == nil {
		return
	}
	m.current.group.Teardown(m.world, m.log)
	m.current = nil
	m.lastTerrainErr = ""
}
