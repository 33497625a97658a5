package spatial

import (
	"fmt"
	"math"
)

// Scalar is the set of floating-point precisions a model can be held in.
type Scalar interface {
	~float32 | ~float64
}

// Vec3 is a 3D column vector.
type Vec3[T Scalar] struct {
	X, Y, Z T
}

// V3 is shorthand for Vec3{x, y, z}.
func V3[T Scalar](x, y, z T) Vec3[T] {
	return Vec3[T]{X: x, Y: y, Z: z}
}

// Add returns v + o.
func (v Vec3[T]) Add(o Vec3[T]) Vec3[T] {
	return Vec3[T]{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3[T]) Sub(o Vec3[T]) Vec3[T] {
	return Vec3[T]{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns s * v.
func (v Vec3[T]) Scale(s T) Vec3[T] {
	return Vec3[T]{X: s * v.X, Y: s * v.Y, Z: s * v.Z}
}

// Dot returns the inner product.
func (v Vec3[T]) Dot(o Vec3[T]) T {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns v x o.
func (v Vec3[T]) Cross(o Vec3[T]) Vec3[T] {
	return Vec3[T]{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// Norm returns the Euclidean length.
func (v Vec3[T]) Norm() T {
	return T(math.Sqrt(float64(v.Dot(v))))
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vec3[T]) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// IsApprox reports whether every component is within prec of o's.
func (v Vec3[T]) IsApprox(o Vec3[T], prec T) bool {
	return near(v.X, o.X, prec) && near(v.Y, o.Y, prec) && near(v.Z, o.Z, prec)
}

func (v Vec3[T]) String() string {
	return fmt.Sprintf("%g %g %g", float64(v.X), float64(v.Y), float64(v.Z))
}

// CastVec3 converts v to precision U.
func CastVec3[U, T Scalar](v Vec3[T]) Vec3[U] {
	return Vec3[U]{X: U(v.X), Y: U(v.Y), Z: U(v.Z)}
}

func isFinite[T Scalar](x T) bool {
	f := float64(x)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func near[T Scalar](a, b, prec T) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= prec
}
