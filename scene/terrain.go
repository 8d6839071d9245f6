package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/cathedral/prefabs"
)

// The script defines height(x, z). Returning undefined means "no ground".
const terrainDispatchScript = `
__out := height(__x, __z)
`

// Terrain answers height queries from a tengo script inside a rectangle of
// the XZ plane. It is not safe for concurrent use.
type Terrain struct {
	script     string
	compiled   *tengo.Compiled
	minX, maxX float64
	minZ, maxZ float64
	lastErr    error
}

// NewTerrain compiles src for the bounds in spec.
func NewTerrain(spec prefabs.TerrainSpec, src []byte) (*Terrain, error) {
	if !(spec.MaxX > spec.MinX) || !(spec.MaxZ > spec.MinZ) {
		return nil, fmt.Errorf("scene: terrain %s: empty bounds", spec.Script)
	}

	script := tengo.NewScript(append(append([]byte(nil), src...), terrainDispatchScript...))
	_ = script.Add("__x", 0.0)
	_ = script.Add("__z", 0.0)
	script.SetImports(stdlib.GetModuleMap("math"))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("scene: terrain %s: %w", spec.Script, err)
	}

	return &Terrain{
		script:   spec.Script,
		compiled: compiled,
		minX:     spec.MinX,
		maxX:     spec.MaxX,
		minZ:     spec.MinZ,
		maxZ:     spec.MaxZ,
	}, nil
}

// Height satisfies controller.HeightFunc.
func (t *Terrain) Height(x, z float64) (float64, bool) {
	if t == nil || x < t.minX || x > t.maxX || z < t.minZ || z > t.maxZ {
		return 0, false
	}

	if err := t.compiled.Set("__x", x); err != nil {
		t.lastErr = err
		return 0, false
	}
	if err := t.compiled.Set("__z", z); err != nil {
		t.lastErr = err
		return 0, false
	}
	if err := t.compiled.Run(); err != nil {
		t.lastErr = err
		return 0, false
	}

	out := t.compiled.Get("__out")
	if out.IsUndefined() {
		return 0, false
	}
	switch out.ValueType() {
	case "int", "float":
	default:
		t.lastErr = errors.New("height must return a number")
		return 0, false
	}
	h := out.Float()
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0, false
	}
	return h, true
}

// Err returns the last script failure seen by Height and clears it.
func (t *Terrain) Err() error {
	if t == nil {
		return nil
	}
	err := t.lastErr
	t.lastErr = nil
	if err != nil {
		return fmt.Errorf("scene: terrain %s: %w", t.script, err)
	}
	return nil
}
