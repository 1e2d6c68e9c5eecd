package swirl

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// Chaos is a seeded source for the bounded random draws the simulation
// makes. A fixed seed replays the exact same sequence of draws.
type Chaos struct {
	seed int64
	rng  *rand.Rand
}

func NewChaos(seed int64) *Chaos {
	return &Chaos{seed: seed, rng: rand.New(rand.NewSource(seed))}
}

// Derive returns an independent stream identified by index i. The
// derived seed depends only on the parent seed and i, never on draws
// already made on the parent.
func (c *Chaos) Derive(i int) *Chaos {
	return NewChaos(int64(uint64(c.seed) + (uint64(i)+1)*0x9E3779B97F4A7C15))
}

// UnitNoise returns a uniform draw in [-0.5, 0.5).
func (c *Chaos) UnitNoise() float64 {
	return c.rng.Float64() - 0.5
}

// UnitRadianNoise returns a uniform angle in [0, 2π).
func (c *Chaos) UnitRadianNoise() float64 {
	return 2 * math.Pi * c.rng.Float64()
}

// SolidColor returns an opaque color with uniform random channels.
func (c *Chaos) SolidColor() [4]float32 {
	return [4]float32{c.rng.Float32(), c.rng.Float32(), c.rng.Float32(), 1}
}

// PositionInCube returns a point uniform in the origin-centered cube
// with half-extent max on each axis.
func (c *Chaos) PositionInCube(max float64) mgl64.Vec3 {
	return mgl64.Vec3{
		2 * max * c.UnitNoise(),
		2 * max * c.UnitNoise(),
		2 * max * c.UnitNoise(),
	}
}

// Bernoulli reports true with probability pTrue.
func (c *Chaos) Bernoulli(pTrue float64) bool {
	return c.rng.Float64() < pTrue
}
