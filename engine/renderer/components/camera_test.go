package components

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
)

func referenceCamera() *Camera {
	return &Camera{
		Eye:    math.NewVec3(0, 1, 2),
		Target: math.NewVec3Zero(),
		Up:     math.NewVec3Up(),
		Aspect: 1.0,
		FovY:   45,
		ZNear:  0.1,
		ZFar:   100,
	}
}

func uniformBytes(t *testing.T, u CameraUniform) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, u))
	return buf.Bytes()
}

func TestViewProjectionIsReproducible(t *testing.T) {
	a, b := NewCameraUniform(), NewCameraUniform()
	a.UpdateViewProj(referenceCamera())
	b.UpdateViewProj(referenceCamera())
	assert.Equal(t, uniformBytes(t, a), uniformBytes(t, b))
	assert.Len(t, uniformBytes(t, a), int(CameraUniformSize))
}

func TestViewProjectionMatchesMathgl(t *testing.T) {
	glToWGPU := mgl32.Mat4(math.OpenGLToWGPU.Data)
	want := glToWGPU.
		Mul4(mgl32.Perspective(mgl32.DegToRad(45), 1.0, 0.1, 100)).
		Mul4(mgl32.LookAtV(mgl32.Vec3{0, 1, 2}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}))

	got := referenceCamera().BuildViewProjection()
	for i := range want {
		assert.InDelta(t, want[i], got.Data[i], 1e-5, "element %d", i)
	}
}

func TestTargetProjectsToScreenCentre(t *testing.T) {
	clip := referenceCamera().BuildViewProjection().MulVec4(math.NewVec3Zero().ToVec4(1))
	require.Greater(t, clip.W, float32(0))
	assert.InDelta(t, 0.0, clip.X/clip.W, 1e-6)
	assert.InDelta(t, 0.0, clip.Y/clip.W, 1e-6)
	depth := clip.Z / clip.W
	assert.True(t, depth > 0 && depth < 1, "depth %v outside (0, 1)", depth)
}

func TestSetAspect(t *testing.T) {
	c := referenceCamera()
	c.SetAspect(1920, 1080)
	assert.InDelta(t, 16.0/9.0, c.Aspect, 1e-6)
	c.SetAspect(10, 0)
	assert.InDelta(t, 16.0/9.0, c.Aspect, 1e-6)
}

func TestControllerForwardStep(t *testing.T) {
	c := referenceCamera()
	cc := NewCameraController(0.2)
	require.True(t, cc.ProcessKey(core.KEY_W, true))

	before := c.Eye.Distance(c.Target)
	eye := c.Eye
	cc.UpdateCamera(c)
	after := c.Eye.Distance(c.Target)

	assert.Less(t, after, before)
	assert.InDelta(t, 0.2, before-after, 1e-5)
	assert.InDelta(t, 0.2, eye.Distance(c.Eye), 1e-5)
	// moved along the eye-target line
	assert.True(t, c.Eye.Normalized().Compare(eye.Normalized(), 1e-5))
}

func TestControllerStrafeKeepsDistanceAndLevel(t *testing.T) {
	c := referenceCamera()
	cc := NewCameraController(0.2)
	cc.ProcessKey(core.KEY_D, true)

	before := c.Eye.Distance(c.Target)
	for i := 0; i < 50; i++ {
		cc.UpdateCamera(c)
		assert.InDelta(t, before, c.Eye.Distance(c.Target), 1e-4)
		assert.InDelta(t, 1.0, c.Eye.Y, 1e-4)
	}
	// orbiting towards the right swings the eye to -X
	assert.Less(t, c.Eye.X, float32(0))
}

func TestControllerDiagonalNeverGrowsDistance(t *testing.T) {
	c := referenceCamera()
	c.Eye = math.NewVec3(0, 5, -10)
	cc := NewCameraController(0.2)
	cc.ProcessKey(core.KEY_UP, true)
	cc.ProcessKey(core.KEY_LEFT, true)

	prev := c.Eye.Distance(c.Target)
	for i := 0; i < 20; i++ {
		cc.UpdateCamera(c)
		d := c.Eye.Distance(c.Target)
		assert.LessOrEqual(t, d, prev+1e-5)
		prev = d
	}
}

// The eye is never pushed through the target, but once it sits within one
// step the controller stops moving forward. Nothing pulls it back out.
func TestControllerForwardNearTargetBoundary(t *testing.T) {
	c := referenceCamera()
	c.Eye = math.NewVec3(0, 0, 0.15)
	cc := NewCameraController(0.2)
	cc.ProcessKey(core.KEY_W, true)

	cc.UpdateCamera(c)
	assert.Equal(t, math.NewVec3(0, 0, 0.15), c.Eye)

	c.Eye = math.NewVec3(0, 0, 0.3)
	cc.UpdateCamera(c)
	assert.InDelta(t, 0.1, c.Eye.Z, 1e-5)
	cc.UpdateCamera(c)
	assert.InDelta(t, 0.1, c.Eye.Z, 1e-5)
}

func TestControllerVerticalOrbitStopsBeforePole(t *testing.T) {
	c := referenceCamera()
	cc := NewCameraController(0.2)
	cc.ProcessKey(core.KEY_E, true)

	before := c.Eye.Distance(c.Target)
	for i := 0; i < 200; i++ {
		cc.UpdateCamera(c)
		assert.InDelta(t, before, c.Eye.Distance(c.Target), 1e-4)
	}
	dir := c.Target.Sub(c.Eye).Normalized()
	assert.Less(t, dir.Dot(c.Up)*-1, float32(maxElevationCos))
	assert.Greater(t, c.Eye.Y, float32(1))
}

func TestControllerKeys(t *testing.T) {
	cc := NewCameraController(1)
	assert.False(t, cc.ProcessKey(core.KEY_P, true))
	assert.True(t, cc.ProcessKey(core.KEY_S, true))

	c := referenceCamera()
	eye := c.Eye
	assert.True(t, cc.ProcessKey(core.KEY_S, false))
	cc.UpdateCamera(c)
	assert.Equal(t, eye, c.Eye)
}

func TestIsMovementKey(t *testing.T) {
	for _, key := range []core.KeyCode{
		core.KEY_W, core.KEY_A, core.KEY_S, core.KEY_D, core.KEY_E, core.KEY_Q,
		core.KEY_UP, core.KEY_DOWN, core.KEY_LEFT, core.KEY_RIGHT,
	} {
		assert.True(t, IsMovementKey(key), "key %d", key)
	}
	assert.False(t, IsMovementKey(core.KEY_SPACE))
	assert.False(t, IsMovementKey(core.KEY_TAB))
}
