package math

// ------------------------------------------
// Vector 3
// ------------------------------------------

func NewVec3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func NewVec3Zero() Vec3 {
	return Vec3{}
}

/** @brief Creates and returns a 3-component vector pointing up (0, 1, 0). */
func NewVec3Up() Vec3 {
	return Vec3{0, 1, 0}
}

/** @brief Creates and returns a 3-component vector pointing backward (0, 0, 1). */
func NewVec3Back() Vec3 {
	return Vec3{0, 0, 1}
}

func (v Vec3) ToVec4(w float32) Vec4 {
	return Vec4{v.X, v.Y, v.Z, w}
}

func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

func (v Vec3) MulScalar(scalar float32) Vec3 {
	return Vec3{v.X * scalar, v.Y * scalar, v.Z * scalar}
}

func (v Vec3) LengthSquared() float32 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func (v Vec3) Length() float32 {
	return ksqrt(v.LengthSquared())
}

// Normalized returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}

func (v Vec3) Dot(other Vec3) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// IsZero reports whether all components are exactly zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

/**
 * @brief Compares all elements of v and other and ensures the difference
 * is less than tolerance.
 */
func (v Vec3) Compare(other Vec3, tolerance float32) bool {
	return kabs(v.X-other.X) <= tolerance &&
		kabs(v.Y-other.Y) <= tolerance &&
		kabs(v.Z-other.Z) <= tolerance
}

func (v Vec3) Distance(other Vec3) float32 {
	return v.Sub(other).Length()
}

// ------------------------------------------
// Matrix 4
// ------------------------------------------

func NewMat4Identity() Mat4 {
	m := Mat4{}
	m.Data[0] = 1
	m.Data[5] = 1
	m.Data[10] = 1
	m.Data[15] = 1
	return m
}

// NewMat4FromCols builds a matrix from four columns.
func NewMat4FromCols(c0, c1, c2, c3 Vec4) Mat4 {
	return Mat4{Data: [16]float32{
		c0.X, c0.Y, c0.Z, c0.W,
		c1.X, c1.Y, c1.Z, c1.W,
		c2.X, c2.Y, c2.Z, c2.W,
		c3.X, c3.Y, c3.Z, c3.W,
	}}
}

/**
 * @brief Returns the result of multiplying mt and other (mt * other).
 * Applied to a column vector, other transforms first.
 */
func (mt Mat4) Mul(other Mat4) Mat4 {
	out := Mat4{}
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += mt.Data[k*4+r] * other.Data[c*4+k]
			}
			out.Data[c*4+r] = sum
		}
	}
	return out
}

func (mt Mat4) MulVec4(v Vec4) Vec4 {
	d := mt.Data
	return Vec4{
		X: d[0]*v.X + d[4]*v.Y + d[8]*v.Z + d[12]*v.W,
		Y: d[1]*v.X + d[5]*v.Y + d[9]*v.Z + d[13]*v.W,
		Z: d[2]*v.X + d[6]*v.Y + d[10]*v.Z + d[14]*v.W,
		W: d[3]*v.X + d[7]*v.Y + d[11]*v.Z + d[15]*v.W,
	}
}

// Cols returns the matrix as four columns, the layout WGSL expects for a
// mat4x4<f32>.
func (mt Mat4) Cols() [4][4]float32 {
	var out [4][4]float32
	for c := 0; c < 4; c++ {
		copy(out[c][:], mt.Data[c*4:c*4+4])
	}
	return out
}

func (mt Mat4) Transposed() Mat4 {
	out := Mat4{}
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out.Data[r*4+c] = mt.Data[c*4+r]
		}
	}
	return out
}

/**
 * @brief Creates and returns a right-handed perspective matrix with an
 * OpenGL clip volume (z in [-1, 1]).
 *
 * @param fovRadians The vertical field of view in radians.
 * @param aspectRatio The aspect ratio, width / height.
 * @param nearClip The near clipping plane distance.
 * @param farClip The far clipping plane distance.
 */
func NewMat4Perspective(fovRadians, aspectRatio, nearClip, farClip float32) Mat4 {
	f := 1.0 / ktan(fovRadians*0.5)
	nmf := nearClip - farClip
	out := Mat4{}
	out.Data[0] = f / aspectRatio
	out.Data[5] = f
	out.Data[10] = (farClip + nearClip) / nmf
	out.Data[11] = -1.0
	out.Data[14] = (2.0 * farClip * nearClip) / nmf
	return out
}

/**
 * @brief Creates and returns a right-handed view matrix looking at target
 * from the perspective of position.
 */
func NewMat4LookAt(position, target, up Vec3) Mat4 {
	f := target.Sub(position).Normalized()
	s := f.Cross(up).Normalized()
	u := s.Cross(f)

	out := Mat4{}
	out.Data[0] = s.X
	out.Data[1] = u.X
	out.Data[2] = -f.X
	out.Data[4] = s.Y
	out.Data[5] = u.Y
	out.Data[6] = -f.Y
	out.Data[8] = s.Z
	out.Data[9] = u.Z
	out.Data[10] = -f.Z
	out.Data[12] = -s.Dot(position)
	out.Data[13] = -u.Dot(position)
	out.Data[14] = f.Dot(position)
	out.Data[15] = 1.0
	return out
}

func NewMat4Translation(position Vec3) Mat4 {
	out := NewMat4Identity()
	out.Data[12] = position.X
	out.Data[13] = position.Y
	out.Data[14] = position.Z
	return out
}

// OpenGLToWGPU remaps the OpenGL clip volume z range [-1, 1] produced by
// NewMat4Perspective to the [0, 1] range WebGPU expects.
var OpenGLToWGPU = Mat4{Data: [16]float32{
	1.0, 0.0, 0.0, 0.0,
	0.0, 1.0, 0.0, 0.0,
	0.0, 0.0, 0.5, 0.0,
	0.0, 0.0, 0.5, 1.0,
}}

// ------------------------------------------
// Quaternion
// ------------------------------------------

func NewQuatIdentity() Quaternion {
	return Quaternion{0, 0, 0, 1}
}

/**
 * @brief Creates a quaternion rotating angle radians around axis. The axis
 * is normalized when normalize is true.
 */
func NewQuatFromAxisAngle(axis Vec3, angle float32, normalize bool) Quaternion {
	if normalize {
		axis = axis.Normalized()
	}
	halfAngle := 0.5 * angle
	s := ksin(halfAngle)
	return Quaternion{axis.X * s, axis.Y * s, axis.Z * s, kcos(halfAngle)}
}

func (q Quaternion) Normal() float32 {
	return ksqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

func (q Quaternion) Normalized() Quaternion {
	n := q.Normal()
	if n == 0 {
		return q
	}
	return Quaternion{q.X / n, q.Y / n, q.Z / n, q.W / n}
}

func (q Quaternion) Mul(other Quaternion) Quaternion {
	return Quaternion{
		X: q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		Y: q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X,
		Z: q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W,
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
	}
}

// IsIdentity reports whether q is exactly the identity rotation.
func (q Quaternion) IsIdentity() bool {
	return q.X == 0 && q.Y == 0 && q.Z == 0 && q.W == 1
}

// ToMat4 returns the rotation matrix of a unit quaternion.
func (q Quaternion) ToMat4() Mat4 {
	xx, yy, zz := q.X*q.X, q.Y*q.Y, q.Z*q.Z
	xy, xz, yz := q.X*q.Y, q.X*q.Z, q.Y*q.Z
	wx, wy, wz := q.W*q.X, q.W*q.Y, q.W*q.Z

	return NewMat4FromCols(
		Vec4{1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy), 0},
		Vec4{2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx), 0},
		Vec4{2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy), 0},
		Vec4{0, 0, 0, 1},
	)
}
