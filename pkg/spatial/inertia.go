package spatial

import (
	"fmt"
	"math"
)

// Inertia is the mass distribution of a rigid body: its mass, the position
// of its center of mass (Lever) in the body frame, and its rotational
// inertia about the center of mass.
//
// The zero value is the zero inertia.
type Inertia[T Scalar] struct {
	Mass       T
	Lever      Vec3[T]
	Rotational Symmetric3[T]
}

// ZeroInertia returns the inertia of nothing.
func ZeroInertia[T Scalar]() Inertia[T] {
	return Inertia[T]{}
}

// NewInertia builds an inertia from its parts.
func NewInertia[T Scalar](mass T, lever Vec3[T], rotational Symmetric3[T]) Inertia[T] {
	return Inertia[T]{Mass: mass, Lever: lever, Rotational: rotational}
}

// InertiaFromSphere returns a solid sphere centered on the origin.
func InertiaFromSphere[T Scalar](mass, radius T) Inertia[T] {
	a := mass * radius * radius * 2 / 5
	return Inertia[T]{Mass: mass, Rotational: Diag(a, a, a)}
}

// InertiaFromBox returns a solid cuboid centered on the origin with the given
// edge lengths along x, y and z.
func InertiaFromBox[T Scalar](mass, x, y, z T) Inertia[T] {
	k := mass / 12
	return Inertia[T]{
		Mass:       mass,
		Rotational: Diag(k*(y*y+z*z), k*(x*x+z*z), k*(x*x+y*y)),
	}
}

// InertiaFromCylinder returns a solid cylinder centered on the origin with
// its axis along z.
func InertiaFromCylinder[T Scalar](mass, radius, length T) Inertia[T] {
	side := mass * (3*radius*radius + length*length) / 12
	return Inertia[T]{
		Mass:       mass,
		Rotational: Diag(side, side, mass*radius*radius/2),
	}
}

// Add combines two inertias expressed in the same frame. The resulting
// center of mass is the mass-weighted mean and the rotational part picks up
// the parallel-axis terms. Two massless inertias combine to a massless one
// with the lever at the origin.
func (in Inertia[T]) Add(o Inertia[T]) Inertia[T] {
	mab := in.Mass + o.Mass
	if mab == 0 {
		return Inertia[T]{Rotational: in.Rotational.Add(o.Rotational)}
	}
	ab := in.Lever.Sub(o.Lever)
	x := in.Mass * o.Mass / mab
	return Inertia[T]{
		Mass:       mab,
		Lever:      in.Lever.Scale(in.Mass).Add(o.Lever.Scale(o.Mass)).Scale(1 / mab),
		Rotational: in.Rotational.Add(o.Rotational).Add(skewSquare(ab).Scale(-x)),
	}
}

// IsZero reports whether every coefficient is exactly zero.
func (in Inertia[T]) IsZero() bool {
	return in.Equal(Inertia[T]{})
}

// Equal reports exact coefficient-wise equality.
func (in Inertia[T]) Equal(o Inertia[T]) bool {
	return in.Mass == o.Mass && in.Lever == o.Lever && in.Rotational == o.Rotational
}

// IsApprox reports coefficient-wise equality within prec.
func (in Inertia[T]) IsApprox(o Inertia[T], prec T) bool {
	return near(in.Mass, o.Mass, prec) &&
		in.Lever.IsApprox(o.Lever, prec) &&
		in.Rotational.IsApprox(o.Rotational, prec)
}

// IsFinite reports whether every coefficient is finite.
func (in Inertia[T]) IsFinite() bool {
	if !isFinite(in.Mass) || !in.Lever.IsFinite() {
		return false
	}
	for _, v := range in.Rotational {
		if !isFinite(v) {
			return false
		}
	}
	return true
}

func (in Inertia[T]) String() string {
	return fmt.Sprintf("  m = %g\n  c = %s\n  I = \n%s", float64(in.Mass), in.Lever, in.Rotational.Matrix())
}

// CastInertia converts in to precision U.
func CastInertia[U, T Scalar](in Inertia[T]) Inertia[U] {
	return Inertia[U]{
		Mass:       U(in.Mass),
		Lever:      CastVec3[U](in.Lever),
		Rotational: CastSymmetric3[U](in.Rotational),
	}
}

// Deg converts degrees to radians.
func Deg[T Scalar](deg T) T {
	return T(float64(deg) * math.Pi / 180)
}
