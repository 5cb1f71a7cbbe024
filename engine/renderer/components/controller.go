package components

import (
	"github.com/chewxy/math32"

	"github.com/spaghettifunk/lumen/engine/core"
)

// Above this |cos| between the view direction and up, vertical orbiting
// stops so the strafe axis stays defined.
const maxElevationCos = 0.99

// CameraController turns held movement keys into camera motion, one step
// of Speed per update.
type CameraController struct {
	Speed float32

	isForwardPressed  bool
	isBackwardPressed bool
	isLeftPressed     bool
	isRightPressed    bool
	isUpPressed       bool
	isDownPressed     bool
}

func NewCameraController(speed float32) *CameraController {
	return &CameraController{Speed: speed}
}

// ProcessKey updates the movement flags. It returns false for keys the
// controller does not use.
func (cc *CameraController) ProcessKey(key core.KeyCode, pressed bool) bool {
	switch key {
	case core.KEY_W, core.KEY_UP:
		cc.isForwardPressed = pressed
	case core.KEY_S, core.KEY_DOWN:
		cc.isBackwardPressed = pressed
	case core.KEY_A, core.KEY_LEFT:
		cc.isLeftPressed = pressed
	case core.KEY_D, core.KEY_RIGHT:
		cc.isRightPressed = pressed
	case core.KEY_E:
		cc.isUpPressed = pressed
	case core.KEY_Q:
		cc.isDownPressed = pressed
	default:
		return false
	}
	return true
}

// IsMovementKey reports whether the controller reacts to key.
func IsMovementKey(key core.KeyCode) bool {
	var cc CameraController
	return cc.ProcessKey(key, false)
}

// UpdateCamera moves the eye. Forward motion stops once the eye is within
// one step of the target. Strafing and vertical motion orbit the target at
// the current distance.
func (cc *CameraController) UpdateCamera(camera *Camera) {
	forward := camera.Target.Sub(camera.Eye)
	forwardNorm := forward.Normalized()
	forwardMag := forward.Length()

	if cc.isForwardPressed && forwardMag > cc.Speed {
		camera.Eye = camera.Eye.Add(forwardNorm.MulScalar(cc.Speed))
	}
	if cc.isBackwardPressed {
		camera.Eye = camera.Eye.Sub(forwardNorm.MulScalar(cc.Speed))
	}

	right := forwardNorm.Cross(camera.Up).Normalized()

	// Strafing only turns the horizontal part of forward, renormalized to
	// its previous length, so height and distance to the target are kept.
	if cc.isRightPressed != cc.isLeftPressed {
		up := camera.Up.Normalized()
		forward = camera.Target.Sub(camera.Eye)
		vertical := up.MulScalar(forward.Dot(up))
		horizontal := forward.Sub(vertical)
		horizontalMag := horizontal.Length()

		step := right.MulScalar(cc.Speed)
		if cc.isLeftPressed {
			step = step.MulScalar(-1)
		}
		horizontal = horizontal.Add(step).Normalized().MulScalar(horizontalMag)
		camera.Eye = camera.Target.Sub(vertical.Add(horizontal))
	}

	if cc.isUpPressed != cc.isDownPressed {
		forward = camera.Target.Sub(camera.Eye)
		forwardMag = forward.Length()
		step := camera.Up.Normalized().MulScalar(cc.Speed)
		if cc.isUpPressed {
			// Raising the eye tilts the view down.
			step = step.MulScalar(-1)
		}
		next := forward.Add(step).Normalized()
		if math32.Abs(next.Dot(camera.Up.Normalized())) < maxElevationCos {
			camera.Eye = camera.Target.Sub(next.MulScalar(forwardMag))
		}
	}
}

