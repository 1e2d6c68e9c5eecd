package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/swirl"
)

func TestDefaultConfValidates(t *testing.T) {
	require.NoError(t, DefaultConf.Validate())
	assert.Equal(t, 1000, DefaultConf.Particles)
	assert.Equal(t, "lorenz", DefaultConf.Model)
	assert.InDelta(t, 8.0/3.0, DefaultConf.Beta, 1e-12)
}

func TestParseConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swirl.toml")
	doc := `
Particles = 250
Model = "circler"
Sigma = 10.0
Width = 640
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	conf, err := ParseConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 250, conf.Particles)
	assert.Equal(t, "circler", conf.Model)
	assert.Equal(t, 10.0, conf.Sigma)
	assert.Equal(t, 640, conf.Width)

	// Absent fields keep their defaults, and the defaults themselves
	// stay untouched.
	assert.Equal(t, 8.0, conf.Rho)
	assert.Equal(t, 1024, conf.TrailCap)
	assert.Equal(t, 720, conf.Height)
	assert.Equal(t, 1000, DefaultConf.Particles)
	assert.Equal(t, "lorenz", DefaultConf.Model)
}

func TestParseConfigMissingFile(t *testing.T) {
	_, err := ParseConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadParameters(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown model", func(c *Config) { c.Model = "brownian" }},
		{"no particles", func(c *Config) { c.Particles = 0 }},
		{"no trail capacity", func(c *Config) { c.TrailCap = 0 }},
		{"no trail cadence", func(c *Config) { c.TrailEvery = 0 }},
		{"negative ignition probability", func(c *Config) { c.IgniteProb = -0.001 }},
		{"ignition probability above one", func(c *Config) { c.IgniteProb = 1.5 }},
		{"negative circler decay", func(c *Config) { c.CirclerDecay = -0.06 }},
		{"flat sphere", func(c *Config) { c.Radius = 0 }},
		{"coarse mesh", func(c *Config) { c.MeshNx = 3 }},
		{"zero window", func(c *Config) { c.Height = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conf := *DefaultConf
			tc.mutate(&conf)
			assert.Error(t, conf.Validate())
		})
	}
}

func TestModelFactoryLorenz(t *testing.T) {
	conf := *DefaultConf
	conf.Sigma = 11
	conf.Speed = 0.25

	m := conf.ModelFactory()(swirl.NewChaos(1))
	lor, ok := m.(swirl.Lorenz)
	require.True(t, ok)
	assert.Equal(t, 11.0, lor.Sigma)
	assert.Equal(t, conf.Rho, lor.Rho)
	assert.Equal(t, conf.Beta, lor.Beta)
	assert.Equal(t, 0.25, lor.Speed)
}

func TestModelFactoryCircler(t *testing.T) {
	conf := *DefaultConf
	conf.Model = "circler"

	factory := conf.ModelFactory()
	m := factory(swirl.NewChaos(7))
	cir, ok := m.(swirl.Circler)
	require.True(t, ok)

	// Spawn draws speed and turn rate within 5% of the configured means
	// and passes decay and jitter through unchanged.
	assert.InDelta(t, conf.CirclerSpeed, cir.Speed, 0.05*conf.CirclerSpeed)
	assert.InDelta(t, conf.CirclerOmega, cir.Omega, 0.05*conf.CirclerOmega)
	assert.Equal(t, conf.CirclerDecay, cir.Decay)
	assert.Equal(t, conf.CirclerJitter, cir.Jitter)

	other, ok := factory(swirl.NewChaos(8)).(swirl.Circler)
	require.True(t, ok)
	assert.NotEqual(t, cir.Speed, other.Speed)
}
