// Package spatial provides the rigid-body value types used by the kinematic
// tree: 3-vectors, 3x3 matrices, rigid transforms (SE3) and rigid-body
// inertias. Every type is generic over a floating-point Scalar so a whole
// model can be held in single or double precision, and every type offers an
// explicit cast function to change precision.
//
// Equality on these types is exact. Use the IsApprox methods when a
// tolerance is wanted.
package spatial
