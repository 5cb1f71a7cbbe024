package math

import (
	"github.com/chewxy/math32"
	"golang.org/x/exp/constraints"
)

/** @brief An approximate representation of PI. */
const K_PI float32 = 3.14159265358979323846

/** @brief Multiplier to convert degrees to radians. */
const K_DEG2RAD_MULTIPLIER float32 = K_PI / 180.0

/** @brief Multiplier to convert radians to degrees. */
const K_RAD2DEG_MULTIPLIER float32 = 180.0 / K_PI

/** @brief Smallest positive number where 1.0 + FLOAT_EPSILON != 0 */
const K_FLOAT_EPSILON float32 = 1.192092896e-07

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

func DegToRad(degrees float32) float32 {
	return degrees * K_DEG2RAD_MULTIPLIER
}

func RadToDeg(radians float32) float32 {
	return radians * K_RAD2DEG_MULTIPLIER
}

func ksin(x float32) float32 {
	return math32.Sin(x)
}

func kcos(x float32) float32 {
	return math32.Cos(x)
}

func ktan(x float32) float32 {
	return math32.Tan(x)
}

func ksqrt(x float32) float32 {
	return math32.Sqrt(x)
}

func kabs(x float32) float32 {
	return math32.Abs(x)
}
