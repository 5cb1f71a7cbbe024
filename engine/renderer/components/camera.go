package components

import (
	"unsafe"

	"github.com/spaghettifunk/lumen/engine/math"
)

/**
 * @brief A perspective camera looking from Eye at Target.
 * Invariants: ZNear > 0, ZFar > ZNear, Aspect = width / height of the
 * surface, refreshed on resize.
 */
type Camera struct {
	Eye    math.Vec3
	Target math.Vec3
	Up     math.Vec3
	Aspect float32
	/** @brief Vertical field of view in degrees. */
	FovY  float32
	ZNear float32
	ZFar  float32
}

// SetAspect recomputes the aspect ratio from a surface size. A zero height
// leaves the camera untouched.
func (c *Camera) SetAspect(width, height uint32) {
	if height == 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}

// BuildViewProjection returns the clip-from-world matrix in WebGPU clip
// space.
func (c *Camera) BuildViewProjection() math.Mat4 {
	view := math.NewMat4LookAt(c.Eye, c.Target, c.Up)
	proj := math.NewMat4Perspective(math.DegToRad(c.FovY), c.Aspect, c.ZNear, c.ZFar)
	return math.OpenGLToWGPU.Mul(proj).Mul(view)
}

/** @brief The camera data visible to the vertex stage, @group(N) @binding(0). */
type CameraUniform struct {
	ViewProj [4][4]float32
}

const CameraUniformSize = uint64(unsafe.Sizeof(CameraUniform{}))

func NewCameraUniform() CameraUniform {
	return CameraUniform{ViewProj: math.NewMat4Identity().Cols()}
}

func (u *CameraUniform) UpdateViewProj(c *Camera) {
	u.ViewProj = c.BuildViewProjection().Cols()
}
