package rt

import (
	"math"
	"math/rand/v2"
)

// RNG is a per-worker random source. The corpus carries no xoshiro/PCG
// third-party package (checked across every retrieved example repo), so
// this wraps math/rand/v2's PCG generator directly instead of sharing Go's
// global source — one instance per worker goroutine, never touched from
// another goroutine, which keeps the per-ray hot path lock-free (§5).
type RNG struct {
	r *rand.Rand
}

// NewRNG seeds a worker-local generator from two 64-bit seeds (e.g. a fixed
// base seed mixed with the worker index) so distinct workers draw
// independent streams.
func NewRNG(seed1, seed2 uint64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(seed1, seed2))}
}

// Float returns a uniform sample in [0,1).
func (g *RNG) Float() float32 {
	return float32(g.r.Float64())
}

// Float2 returns two independent uniform samples in [0,1).
func (g *RNG) Float2() (float32, float32) {
	return g.Float(), g.Float()
}

// UnitDiskSample returns a uniform point inside the unit disk via polar
// mapping (r = √u1, θ = 2π·u2); the thin-lens aperture uses it when fewer
// than three blades are configured.
func (g *RNG) UnitDiskSample() (x, y float32) {
	u1, u2 := g.Float2()
	r := float32(math.Sqrt(float64(u1)))
	theta := 2 * math.Pi * float64(u2)
	return r * float32(math.Cos(theta)), r * float32(math.Sin(theta))
}
