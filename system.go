package swirl

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
)

// SystemConfig describes a particle system to construct. Model is
// invoked once per particle with that particle's own chaos stream.
type SystemConfig struct {
	Count       int
	Model       func(cs *Chaos) Model
	TrailCap    int     // positions retained per particle
	TrailEvery  int     // push a trail position every Nth step, min 1
	IgniteProb  float64 // per-step chance a dark particle lights up; 0 starts all lit
	StartExtent float64 // half-extent of the spawn cube
	Seed        int64
	Logger      Logger
}

// System owns the particles. Storage is arena-style: one slice per
// field, indexed by particle, so stepping touches no per-particle heap
// objects. Each particle draws from its own stream derived from the
// seed, which keeps runs reproducible even though Step fans out across
// goroutines.
type System struct {
	models   []Model
	states   []State
	trails   []*TrailBuffer
	samplers []Sampler
	colors   [][4]float32
	enabled  []bool
	streams  []*Chaos

	master      *Chaos
	igniteProb  float64
	startExtent float64
	log         Logger

	litCount int
	steps    uint64
	respawns uint64
}

func NewSystem(cfg SystemConfig) (*System, error) {
	if cfg.Count < 1 {
		return nil, fmt.Errorf("particle count %d, want at least 1", cfg.Count)
	}
	if cfg.Model == nil {
		return nil, fmt.Errorf("no model factory given")
	}
	if cfg.TrailCap < 1 {
		return nil, fmt.Errorf("trail capacity %d, want at least 1", cfg.TrailCap)
	}
	log := cfg.Logger
	if log == nil {
		log = NewNopLogger()
	}

	s := &System{
		models:      make([]Model, cfg.Count),
		states:      make([]State, cfg.Count),
		trails:      make([]*TrailBuffer, cfg.Count),
		samplers:    make([]Sampler, cfg.Count),
		colors:      make([][4]float32, cfg.Count),
		enabled:     make([]bool, cfg.Count),
		streams:     make([]*Chaos, cfg.Count),
		master:      NewChaos(cfg.Seed),
		igniteProb:  cfg.IgniteProb,
		startExtent: cfg.StartExtent,
		log:         log,
	}

	allLit := cfg.IgniteProb == 0
	for i := 0; i < cfg.Count; i++ {
		cs := s.master.Derive(i)
		s.streams[i] = cs
		s.states[i] = State{Pos: cs.PositionInCube(cfg.StartExtent), Heading: cs.UnitRadianNoise()}
		s.models[i] = cfg.Model(cs)
		s.trails[i] = NewTrail(cfg.TrailCap)
		s.samplers[i] = NewSampler(cfg.TrailEvery)
		s.colors[i] = s.master.SolidColor()
		s.enabled[i] = allLit
	}
	if allLit {
		s.litCount = cfg.Count
	}
	return s, nil
}

// Step advances every lit particle by dt and then gives dark particles
// their ignition chance. Particles are independent within a step, so
// the model updates fan out across worker goroutines; ignition draws
// stay serial on the master stream.
func (s *System) Step(dt float64) {
	n := len(s.states)
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	var diverged atomic.Uint64
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				if !s.enabled[i] {
					continue
				}
				s.models[i].Step(&s.states[i], s.streams[i], dt)
				if !stateFinite(&s.states[i]) {
					s.respawn(i)
					diverged.Add(1)
				}
				if s.samplers[i].Check() {
					s.trails[i].Push(s.states[i].Pos32())
				}
			}
		}(lo, hi)
	}
	wg.Wait()

	if d := diverged.Load(); d > 0 {
		s.respawns += d
		s.log.Debugf("respawned %d diverged particles", d)
	}

	if s.igniteProb > 0 {
		lit := 0
		for i := range s.enabled {
			if !s.enabled[i] && s.master.Bernoulli(s.igniteProb) {
				s.enabled[i] = true
				lit++
			}
		}
		if lit > 0 {
			s.litCount += lit
			s.log.Debugf("ignited %d particles (%d/%d lit)", lit, s.litCount, len(s.enabled))
		}
	}
	s.steps++
}

// respawn re-seeds a particle whose state went non-finite, using the
// particle's own stream so other particles are unaffected.
func (s *System) respawn(i int) {
	cs := s.streams[i]
	s.states[i] = State{Pos: cs.PositionInCube(s.startExtent), Heading: cs.UnitRadianNoise()}
	s.trails[i].Clear()
}

// stateFinite reports whether the state is renderable. Positions past
// float32 range count as diverged too: Pos32 narrows them to ±Inf in
// the instance transforms long before float64 itself overflows.
func stateFinite(st *State) bool {
	for _, v := range st.Pos {
		if math.IsNaN(v) || math.Abs(v) > math.MaxFloat32 {
			return false
		}
	}
	return !math.IsNaN(st.Heading) && !math.IsInf(st.Heading, 0)
}

func (s *System) Len() int { return len(s.states) }

func (s *System) Lit() int { return s.litCount }

func (s *System) Steps() uint64 { return s.steps }

func (s *System) Respawns() uint64 { return s.respawns }

func (s *System) StateAt(i int) *State { return &s.states[i] }

func (s *System) Trail(i int) *TrailBuffer { return s.trails[i] }

func (s *System) Color(i int) [4]float32 { return s.colors[i] }

func (s *System) EnabledAt(i int) bool { return s.enabled[i] }
