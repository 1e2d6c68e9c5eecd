package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCameraEyeAboveAndBehind(t *testing.T) {
	eye := NewCamera().Eye()

	assert.InDelta(t, 0, float64(eye.X()), 1e-5)
	assert.Greater(t, eye.Y(), float32(0))
	assert.Greater(t, eye.Z(), float32(0))
	assert.InDelta(t, 11.2, float64(eye.Len()), 1e-4)
}

func TestCameraDragTurnsAndClampsPitch(t *testing.T) {
	c := NewCamera()
	startYaw := c.Yaw

	c.Drag(30, 0)
	assert.InDelta(t, float64(startYaw)+30*0.4/60, float64(c.Yaw), 1e-6)

	c.Drag(0, -1e6)
	assert.InDelta(t, pitchLimit, float64(c.Pitch), 1e-6)
	c.Drag(0, 1e6)
	assert.InDelta(t, -pitchLimit, float64(c.Pitch), 1e-6)
}

func TestCameraZoomEasesTowardTarget(t *testing.T) {
	c := NewCamera()
	c.Zoom(5)

	c.Update(0.1)
	assert.Less(t, c.Radius, float32(11.2))
	assert.Greater(t, c.Radius, float32(6.2))

	c.Update(1)
	assert.InDelta(t, 6.2, float64(c.Radius), 1e-4)
	// Tween finished; further updates hold the radius.
	c.Update(1)
	assert.InDelta(t, 6.2, float64(c.Radius), 1e-4)
}

func TestCameraZoomClampsRadius(t *testing.T) {
	c := NewCamera()
	c.Zoom(1000)
	c.Update(10)
	assert.InDelta(t, minRadius, float64(c.Radius), 1e-4)

	c.Zoom(-1000)
	c.Update(10)
	assert.InDelta(t, maxRadius, float64(c.Radius), 1e-4)
}

func TestCameraViewProjCentersOrigin(t *testing.T) {
	clip := NewCamera().ViewProj(1280, 720).Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	require.Greater(t, clip.W(), float32(0))

	ndc := clip.Mul(1 / clip.W())
	assert.InDelta(t, 0, float64(ndc.X()), 1e-4)
	assert.InDelta(t, 0, float64(ndc.Y()), 1e-4)
	assert.Greater(t, ndc.Z(), float32(0))
	assert.Less(t, ndc.Z(), float32(1))
}
