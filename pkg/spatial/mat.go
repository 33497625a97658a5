package spatial

import (
	"fmt"
	"strings"
)

// Mat3 is a row-major 3x3 matrix.
type Mat3[T Scalar] [3][3]T

// Identity3 returns the 3x3 identity matrix.
func Identity3[T Scalar]() Mat3[T] {
	return Mat3[T]{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Mul returns m * o.
func (m Mat3[T]) Mul(o Mat3[T]) Mat3[T] {
	var r Mat3[T]
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][0]*o[0][j] + m[i][1]*o[1][j] + m[i][2]*o[2][j]
		}
	}
	return r
}

// MulVec returns m * v.
func (m Mat3[T]) MulVec(v Vec3[T]) Vec3[T] {
	return Vec3[T]{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Transpose returns mᵀ.
func (m Mat3[T]) Transpose() Mat3[T] {
	var r Mat3[T]
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[j][i]
		}
	}
	return r
}

// Col returns column j as a vector.
func (m Mat3[T]) Col(j int) Vec3[T] {
	return Vec3[T]{X: m[0][j], Y: m[1][j], Z: m[2][j]}
}

// IsFinite reports whether every coefficient is finite.
func (m Mat3[T]) IsFinite() bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !isFinite(m[i][j]) {
				return false
			}
		}
	}
	return true
}

// IsApprox reports whether every coefficient is within prec of o's.
func (m Mat3[T]) IsApprox(o Mat3[T], prec T) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !near(m[i][j], o[i][j], prec) {
				return false
			}
		}
	}
	return true
}

func (m Mat3[T]) String() string {
	var b strings.Builder
	for i := 0; i < 3; i++ {
		fmt.Fprintf(&b, "%12g %12g %12g\n", float64(m[i][0]), float64(m[i][1]), float64(m[i][2]))
	}
	return b.String()
}

// CastMat3 converts m to precision U.
func CastMat3[U, T Scalar](m Mat3[T]) Mat3[U] {
	var r Mat3[U]
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = U(m[i][j])
		}
	}
	return r
}

// skewSquare returns [v]x [v]x = v vᵀ - |v|² I, which is symmetric.
func skewSquare[T Scalar](v Vec3[T]) Symmetric3[T] {
	n := v.Dot(v)
	return Symmetric3[T]{
		v.X*v.X - n,
		v.X * v.Y,
		v.Y*v.Y - n,
		v.X * v.Z,
		v.Y * v.Z,
		v.Z*v.Z - n,
	}
}

// Symmetric3 is a symmetric 3x3 matrix stored as its lower triangle in the
// order xx, xy, yy, xz, yz, zz.
type Symmetric3[T Scalar] [6]T

// Diag returns the symmetric matrix diag(x, y, z).
func Diag[T Scalar](x, y, z T) Symmetric3[T] {
	return Symmetric3[T]{x, 0, y, 0, 0, z}
}

// Add returns s + o.
func (s Symmetric3[T]) Add(o Symmetric3[T]) Symmetric3[T] {
	var r Symmetric3[T]
	for i := range s {
		r[i] = s[i] + o[i]
	}
	return r
}

// Scale returns k * s.
func (s Symmetric3[T]) Scale(k T) Symmetric3[T] {
	var r Symmetric3[T]
	for i := range s {
		r[i] = k * s[i]
	}
	return r
}

// Matrix expands s into a full Mat3.
func (s Symmetric3[T]) Matrix() Mat3[T] {
	return Mat3[T]{
		{s[0], s[1], s[3]},
		{s[1], s[2], s[4]},
		{s[3], s[4], s[5]},
	}
}

// SymmetricFrom keeps the lower triangle of m.
func SymmetricFrom[T Scalar](m Mat3[T]) Symmetric3[T] {
	return Symmetric3[T]{m[0][0], m[1][0], m[1][1], m[2][0], m[2][1], m[2][2]}
}

// Rotate returns R s Rᵀ.
func (s Symmetric3[T]) Rotate(r Mat3[T]) Symmetric3[T] {
	return SymmetricFrom(r.Mul(s.Matrix()).Mul(r.Transpose()))
}

// IsApprox reports whether every coefficient is within prec of o's.
func (s Symmetric3[T]) IsApprox(o Symmetric3[T], prec T) bool {
	for i := range s {
		if !near(s[i], o[i], prec) {
			return false
		}
	}
	return true
}

// CastSymmetric3 converts s to precision U.
func CastSymmetric3[U, T Scalar](s Symmetric3[T]) Symmetric3[U] {
	var r Symmetric3[U]
	for i := range s {
		r[i] = U(s[i])
	}
	return r
}
