package main

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/gekko3d/swirl"
)

// Config holds the various parameters required for running a simulation.
type Config struct {
	Particles int    // number of particles
	Model     string // possible values: lorenz, circler

	// Lorenz parameters
	Sigma float64 // unit: 1
	Rho   float64 // unit: 1
	Beta  float64 // unit: 1
	Speed float64 // time scale applied to each step, unit: 1

	// Circler parameters (per-particle means, perturbed at spawn)
	CirclerSpeed  float64 // unit: length/s
	CirclerOmega  float64 // unit: rad/s
	CirclerDecay  float64 // unit: 1/s
	CirclerJitter float64 // unit: length/s

	// Spawn and trail parameters
	Lims       float64 // half-extent of the spawn cube, unit: length
	IgniteProb float64 // per-step chance a dark particle lights up; 0 spawns all lit
	TrailCap   int     // positions retained per particle trail
	TrailEvery int     // record a trail position every Nth step

	// Rendering parameters
	Radius float32 // sphere radius, unit: length
	MeshNx uint32  // sphere slices around the vertical axis
	MeshNz uint32  // sphere rings pole to pole

	Width  int // window width, unit: px
	Height int // window height, unit: px

	Seed        int64  // random seed; 0 draws one from the clock
	Screenshots string // directory screenshots are written to
}

// DefaultConf are the default parameters.
var DefaultConf = &Config{
	Particles: 1000,
	Model:     "lorenz",

	Sigma: 18,
	Rho:   8,
	Beta:  8.0 / 3.0,
	Speed: 0.1,

	CirclerSpeed:  0.6,
	CirclerOmega:  0.6,
	CirclerDecay:  0.06,
	CirclerJitter: 0.3,

	Lims:       4,
	IgniteProb: 0.001,
	TrailCap:   1024,
	TrailEvery: 4,

	Radius: 0.1,
	MeshNx: 64,
	MeshNz: 64,

	Width:  1280,
	Height: 720,

	Seed:        0,
	Screenshots: "screenshots",
}

// ParseConfig parses the TOML file at path, overlaying its values on a
// copy of DefaultConf.
func ParseConfig(path string) (*Config, error) {
	conf := *DefaultConf
	if _, err := toml.DecodeFile(path, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate reports the first parameter that cannot drive a run.
func (c *Config) Validate() error {
	switch c.Model {
	case "lorenz", "circler":
	default:
		return fmt.Errorf("unknown model %q", c.Model)
	}
	if c.Particles < 1 {
		return fmt.Errorf("particles %d, want at least 1", c.Particles)
	}
	if c.TrailCap < 1 {
		return fmt.Errorf("trail capacity %d, want at least 1", c.TrailCap)
	}
	if c.TrailEvery < 1 {
		return fmt.Errorf("trail cadence %d, want at least 1", c.TrailEvery)
	}
	if c.IgniteProb < 0 || c.IgniteProb > 1 {
		return fmt.Errorf("ignition probability %v, want within [0, 1]", c.IgniteProb)
	}
	if c.CirclerDecay < 0 {
		return fmt.Errorf("circler decay %v, want non-negative", c.CirclerDecay)
	}
	if c.Radius <= 0 {
		return fmt.Errorf("sphere radius %v, want positive", c.Radius)
	}
	if c.MeshNx < 4 || c.MeshNz < 4 {
		return fmt.Errorf("sphere resolution %dx%d, want at least 4x4", c.MeshNx, c.MeshNz)
	}
	if c.Width < 1 || c.Height < 1 {
		return fmt.Errorf("window size %dx%d, want positive", c.Width, c.Height)
	}
	return nil
}

// ModelFactory returns the constructor the particle system calls once
// per particle. Lorenz instances share the configured coefficients;
// circlers perturb theirs from the stream each spawn is handed.
func (c *Config) ModelFactory() func(cs *swirl.Chaos) swirl.Model {
	if c.Model == "circler" {
		return func(cs *swirl.Chaos) swirl.Model {
			return swirl.NewCircler(c.CirclerSpeed, c.CirclerOmega, c.CirclerDecay, c.CirclerJitter, cs)
		}
	}
	return func(_ *swirl.Chaos) swirl.Model {
		return swirl.Lorenz{Sigma: c.Sigma, Rho: c.Rho, Beta: c.Beta, Speed: c.Speed}
	}
}
