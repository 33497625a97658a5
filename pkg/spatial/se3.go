package spatial

import (
	"fmt"
	"math"
)

// SE3 is a rigid transform: a rotation followed by a translation. Acting on
// a point expressed in the child frame, it yields the point in the parent
// frame: p_parent = Rotation * p_child + Translation.
type SE3[T Scalar] struct {
	Rotation    Mat3[T]
	Translation Vec3[T]
}

// Identity returns the identity transform.
func Identity[T Scalar]() SE3[T] {
	return SE3[T]{Rotation: Identity3[T]()}
}

// NewSE3 builds a transform from a rotation and a translation. The rotation
// is stored as given.
func NewSE3[T Scalar](rotation Mat3[T], translation Vec3[T]) SE3[T] {
	return SE3[T]{Rotation: rotation, Translation: translation}
}

// Translation returns a pure translation.
func Translation[T Scalar](x, y, z T) SE3[T] {
	return SE3[T]{Rotation: Identity3[T](), Translation: Vec3[T]{X: x, Y: y, Z: z}}
}

// FromRPY builds a transform whose rotation is Rz(yaw) Ry(pitch) Rx(roll),
// angles in radians.
func FromRPY[T Scalar](roll, pitch, yaw T, translation Vec3[T]) SE3[T] {
	return SE3[T]{Rotation: RotationRPY(roll, pitch, yaw), Translation: translation}
}

// RotationRPY returns Rz(yaw) Ry(pitch) Rx(roll), angles in radians.
func RotationRPY[T Scalar](roll, pitch, yaw T) Mat3[T] {
	sr, cr := math.Sincos(float64(roll))
	sp, cp := math.Sincos(float64(pitch))
	sy, cy := math.Sincos(float64(yaw))
	return Mat3[T]{
		{T(cy * cp), T(cy*sp*sr - sy*cr), T(cy*sp*cr + sy*sr)},
		{T(sy * cp), T(sy*sp*sr + cy*cr), T(sy*sp*cr - cy*sr)},
		{T(-sp), T(cp * sr), T(cp * cr)},
	}
}

// RotationAxis returns the rotation of angle radians about a principal axis
// (0 = x, 1 = y, 2 = z).
func RotationAxis[T Scalar](axis int, angle T) Mat3[T] {
	switch axis {
	case 0:
		return RotationRPY(angle, 0, 0)
	case 1:
		return RotationRPY(0, angle, 0)
	default:
		return RotationRPY(0, 0, angle)
	}
}

// RPY recovers roll, pitch and yaw from the rotation part, with pitch in
// [-pi/2, pi/2].
func (m SE3[T]) RPY() (roll, pitch, yaw T) {
	r := m.Rotation
	n := math.Hypot(float64(r[0][0]), float64(r[1][0]))
	p := math.Atan2(-float64(r[2][0]), n)
	const eps = 1e-9
	switch {
	case math.Abs(p-math.Pi/2) < eps:
		return T(math.Atan2(float64(r[0][1]), float64(r[1][1]))), T(p), 0
	case math.Abs(p+math.Pi/2) < eps:
		return T(-math.Atan2(float64(r[0][1]), float64(r[1][1]))), T(p), 0
	default:
		y := math.Atan2(float64(r[1][0]), float64(r[0][0]))
		x := math.Atan2(float64(r[2][1]), float64(r[2][2]))
		return T(x), T(p), T(y)
	}
}

// Compose returns m * o, the transform applying o first and then m.
func (m SE3[T]) Compose(o SE3[T]) SE3[T] {
	return SE3[T]{
		Rotation:    m.Rotation.Mul(o.Rotation),
		Translation: m.Translation.Add(m.Rotation.MulVec(o.Translation)),
	}
}

// Inverse returns m⁻¹.
func (m SE3[T]) Inverse() SE3[T] {
	rt := m.Rotation.Transpose()
	return SE3[T]{
		Rotation:    rt,
		Translation: rt.MulVec(m.Translation).Scale(-1),
	}
}

// ActPoint maps a point from the child frame to the parent frame.
func (m SE3[T]) ActPoint(p Vec3[T]) Vec3[T] {
	return m.Rotation.MulVec(p).Add(m.Translation)
}

// ActInertia expresses an inertia given in the child frame in the parent
// frame.
func (m SE3[T]) ActInertia(in Inertia[T]) Inertia[T] {
	return Inertia[T]{
		Mass:       in.Mass,
		Lever:      m.ActPoint(in.Lever),
		Rotational: in.Rotational.Rotate(m.Rotation),
	}
}

// Equal reports exact coefficient-wise equality.
func (m SE3[T]) Equal(o SE3[T]) bool {
	return m.Rotation == o.Rotation && m.Translation == o.Translation
}

// IsApprox reports coefficient-wise equality within prec.
func (m SE3[T]) IsApprox(o SE3[T], prec T) bool {
	return m.Rotation.IsApprox(o.Rotation, prec) && m.Translation.IsApprox(o.Translation, prec)
}

// IsIdentity reports whether m is exactly the identity.
func (m SE3[T]) IsIdentity() bool {
	return m.Equal(Identity[T]())
}

// IsFinite reports whether every coefficient is finite.
func (m SE3[T]) IsFinite() bool {
	return m.Rotation.IsFinite() && m.Translation.IsFinite()
}

// IsRotationOrthonormal reports whether RᵀR = I within prec and det(R) > 0.
func (m SE3[T]) IsRotationOrthonormal(prec T) bool {
	r := m.Rotation
	if !r.Transpose().Mul(r).IsApprox(Identity3[T](), prec) {
		return false
	}
	return r.Col(0).Cross(r.Col(1)).Dot(r.Col(2)) > 0
}

func (m SE3[T]) String() string {
	return fmt.Sprintf("  R =\n%s  p = %s\n", m.Rotation, m.Translation)
}

// CastSE3 converts m to precision U.
func CastSE3[U, T Scalar](m SE3[T]) SE3[U] {
	return SE3[U]{
		Rotation:    CastMat3[U](m.Rotation),
		Translation: CastVec3[U](m.Translation),
	}
}
