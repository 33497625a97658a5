// Package kernel defines the abstract geometry kernel interface used to
// render a model's frames as solids. Implementations (sdfx) provide solid
// modeling behind this interface so the renderer does not depend on a
// particular backend.
package kernel

import "github.com/chazu/ligament/pkg/spatial"

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface. All primitives are
// centered on the origin.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Sphere(radius float64) Solid
	Cylinder(height, radius float64) Solid // axis along z

	// Boolean operations
	Union(a, b Solid) Solid

	// Transform moves a solid from a frame to its parent through placement.
	Transform(s Solid, placement spatial.SE3[float64]) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
