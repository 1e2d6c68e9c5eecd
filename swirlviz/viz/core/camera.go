package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

const (
	// dragStep converts mouse pixel deltas to radians at unit sensitivity.
	dragStep = 1.0 / 60

	pitchLimit = math.Pi/2 - 0.01

	minRadius    = 2.0
	maxRadius    = 60.0
	zoomStep     = 1.0
	zoomDuration = 0.25
)

// glToWgpu remaps clip-space z from the [-1,1] range mgl32.Perspective
// produces to the [0,1] range the surface expects.
var glToWgpu = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// Camera orbits the origin. Yaw and Pitch are the view direction angles
// and Radius the distance, so the eye sits at -forward*Radius looking
// back through the origin.
type Camera struct {
	Yaw         float32 // radians in the XZ plane, -pi/2 looks down -Z
	Pitch       float32 // radians above the XZ plane
	Radius      float32
	Sensitivity float32
	Fovy        float32 // radians
	Near, Far   float32

	radiusTarget float32
	zoomTween    *gween.Tween
}

func NewCamera() *Camera {
	return &Camera{
		Yaw:          mgl32.DegToRad(-90),
		Pitch:        mgl32.DegToRad(-20),
		Radius:       11.2,
		Sensitivity:  0.4,
		Fovy:         mgl32.DegToRad(45),
		Near:         0.1,
		Far:          100,
		radiusTarget: 11.2,
	}
}

// Drag rotates the view by a mouse delta in pixels.
func (c *Camera) Drag(dx, dy float32) {
	c.Yaw += dx * c.Sensitivity * dragStep
	c.Pitch -= dy * c.Sensitivity * dragStep
	if c.Pitch > pitchLimit {
		c.Pitch = pitchLimit
	}
	if c.Pitch < -pitchLimit {
		c.Pitch = -pitchLimit
	}
}

// Zoom retargets the radius by the given scroll lines and starts an
// eased tween toward it. Positive lines zoom in.
func (c *Camera) Zoom(lines float32) {
	c.radiusTarget -= lines * zoomStep
	if c.radiusTarget < minRadius {
		c.radiusTarget = minRadius
	}
	if c.radiusTarget > maxRadius {
		c.radiusTarget = maxRadius
	}
	c.zoomTween = gween.New(c.Radius, c.radiusTarget, zoomDuration, ease.OutCubic)
}

// Update advances the zoom tween.
func (c *Camera) Update(dt float32) {
	if c.zoomTween == nil {
		return
	}
	val, done := c.zoomTween.Update(dt)
	c.Radius = val
	if done {
		c.zoomTween = nil
	}
}

func (c *Camera) forward() mgl32.Vec3 {
	cp := math.Cos(float64(c.Pitch))
	return mgl32.Vec3{
		float32(cp * math.Cos(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
		float32(cp * math.Sin(float64(c.Yaw))),
	}
}

// Eye is the camera position in world space.
func (c *Camera) Eye() mgl32.Vec3 {
	return c.forward().Mul(-c.Radius)
}

// ViewProj builds the combined view-projection matrix for the given
// surface size.
func (c *Camera) ViewProj(width, height uint32) mgl32.Mat4 {
	aspect := float32(width) / float32(height)
	proj := glToWgpu.Mul4(mgl32.Perspective(c.Fovy, aspect, c.Near, c.Far))
	view := mgl32.LookAtV(c.Eye(), mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	return proj.Mul4(view)
}
