package swirl

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// State is the per-particle simulation state. Pos is the simulated
// position; Heading is the Circler phase angle, unused by Lorenz.
// State is kept in float64: the chaotic models amplify float32
// rounding far past useful tolerances over a few seconds.
type State struct {
	Pos     mgl64.Vec3
	Heading float64
}

// Pos32 returns the position in the float32 form the render path uses.
func (s *State) Pos32() mgl32.Vec3 {
	return mgl32.Vec3{float32(s.Pos[0]), float32(s.Pos[1]), float32(s.Pos[2])}
}

// Model advances a particle state by one step of dt seconds.
// Implementations carry immutable parameters, keep no internal state,
// and draw randomness only from cs, so a given (state, stream, dt)
// always produces the same next state.
type Model interface {
	Step(st *State, cs *Chaos, dt float64)
}

// Circler drives near-circular planar motion: the heading turns at
// Omega, the particle advances at Speed along it, and the third axis
// decays toward the plane. Jitter adds bounded noise to position, decay
// and turn rate (the latter two at 2x and 10x the base amplitude).
type Circler struct {
	Omega  float64 // turn rate, radians per second
	Speed  float64 // planar speed, units per second
	Decay  float64 // exponential pull of z toward 0, per second
	Jitter float64 // noise amplitude, units per second
}

// NewCircler randomizes the turn rate and speed around the given means
// so particles drift apart instead of orbiting in lockstep.
func NewCircler(meanSpeed, meanOmega, decay, jitter float64, cs *Chaos) Circler {
	return Circler{
		Omega:  meanOmega + 0.1*meanOmega*cs.UnitNoise(),
		Speed:  meanSpeed + 0.1*meanSpeed*cs.UnitNoise(),
		Decay:  decay,
		Jitter: jitter,
	}
}

func (m Circler) Step(st *State, cs *Chaos, dt float64) {
	sin, cos := math.Sincos(st.Heading)
	st.Pos[0] += m.Speed*cos*dt + m.Jitter*dt*cs.UnitNoise()
	st.Pos[1] += m.Speed*sin*dt + m.Jitter*dt*cs.UnitNoise()
	st.Pos[2] = st.Pos[2]*math.Exp(-m.Decay*dt) + 2*m.Jitter*dt*cs.UnitNoise()
	st.Heading += m.Omega*dt + 10*m.Jitter*dt*cs.UnitNoise()
}

// Lorenz advances the Lorenz system by forward Euler with step Speed*dt.
// At the canonical parameters the trajectory is chaotic and stays on the
// attractor indefinitely.
type Lorenz struct {
	Sigma float64
	Rho   float64
	Beta  float64
	Speed float64 // time scale applied to dt
}

func (m Lorenz) Step(st *State, _ *Chaos, dt float64) {
	h := m.Speed * dt
	x, y, z := st.Pos[0], st.Pos[1], st.Pos[2]
	st.Pos[0] = x + h*m.Sigma*(y-x)
	st.Pos[1] = y + h*(x*(m.Rho-z)-y)
	st.Pos[2] = z + h*(x*y-m.Beta*z)
}
