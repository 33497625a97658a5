package multibody

import (
	"fmt"
	"strings"

	"github.com/chazu/ligament/pkg/spatial"
)

// JointIndex addresses a joint in the owning model's joint table.
type JointIndex int

// FrameIndex addresses a frame in the owning model's frame table.
type FrameIndex int

// RootFrame is the parent-frame index of frames that are not chained off
// another frame. In a model it is the universe frame.
const RootFrame FrameIndex = 0

// ModelItem holds the identity and linkage shared by every item attached
// to the kinematic tree.
type ModelItem[T spatial.Scalar] struct {
	Name        string
	ParentJoint JointIndex
	// ParentFrame is a navigation link only. Placement is never composed
	// with it.
	ParentFrame FrameIndex
	// Placement is the pose of the item relative to ParentJoint's frame.
	Placement spatial.SE3[T]
}

// Frame is a named, typed frame rigidly attached to a joint.
//
// The zero value is a default frame: empty name, joint 0, RootFrame, a zero
// placement, an unset type and zero inertia. It exists so frames can be
// slice elements and must be overwritten before use.
type Frame[T spatial.Scalar] struct {
	ModelItem[T]
	Type FrameType
	// Inertia attached to the frame. It is not part of the parent joint's
	// inertia unless the owning model merges it explicitly.
	Inertia spatial.Inertia[T]
}

// NewFrame builds a frame that is not chained off another frame; its
// ParentFrame is RootFrame. Inertia defaults to zero; only the first
// inertia argument is used.
func NewFrame[T spatial.Scalar](name string, parentJoint JointIndex, placement spatial.SE3[T], typ FrameType, inertia ...spatial.Inertia[T]) Frame[T] {
	return NewChainedFrame(name, parentJoint, RootFrame, placement, typ, inertia...)
}

// NewChainedFrame builds a frame whose ParentFrame is given explicitly.
// Indices are stored as given, even when out of range.
func NewChainedFrame[T spatial.Scalar](name string, parentJoint JointIndex, parentFrame FrameIndex, placement spatial.SE3[T], typ FrameType, inertia ...spatial.Inertia[T]) Frame[T] {
	f := Frame[T]{
		ModelItem: ModelItem[T]{
			Name:        name,
			ParentJoint: parentJoint,
			ParentFrame: parentFrame,
			Placement:   placement,
		},
		Type: typ,
	}
	if len(inertia) > 0 {
		f.Inertia = inertia[0]
	}
	return f
}

// Equal reports whether all six fields are equal. Placement and inertia are
// compared exactly.
func (f Frame[T]) Equal(o Frame[T]) bool {
	return f.Name == o.Name &&
		f.ParentJoint == o.ParentJoint &&
		f.ParentFrame == o.ParentFrame &&
		f.Placement.Equal(o.Placement) &&
		f.Type == o.Type &&
		f.Inertia.Equal(o.Inertia)
}

// NotEqual is !Equal.
func (f Frame[T]) NotEqual(o Frame[T]) bool {
	return !f.Equal(o)
}

// Equal compares frames of possibly different precisions. Numeric fields
// are compared exactly after widening both sides to float64, which is
// lossless for float32 and float64.
func Equal[T, S spatial.Scalar](a Frame[T], b Frame[S]) bool {
	return Cast[float64](a).Equal(Cast[float64](b))
}

// Cast converts f to precision U. Placement and inertia go through their
// own casts; name, indices and type are copied.
func Cast[U, T spatial.Scalar](f Frame[T]) Frame[U] {
	return NewChainedFrame(
		f.Name,
		f.ParentJoint,
		f.ParentFrame,
		spatial.CastSE3[U](f.Placement),
		f.Type,
		spatial.CastInertia[U](f.Inertia),
	)
}

// Convert builds a frame of precision T from a frame of another precision.
// It is the same operation as Cast.
func Convert[T, S spatial.Scalar](other Frame[S]) Frame[T] {
	return Cast[T](other)
}

// String renders the frame for diagnostics. The output is not meant to be
// parsed.
func (f Frame[T]) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Frame name: %s paired to (parent joint / parent frame)(%d/%d)\n", f.Name, f.ParentJoint, f.ParentFrame)
	fmt.Fprintf(&b, "type: %s\n", f.Type)
	b.WriteString("with relative placement wrt parent joint:\n")
	b.WriteString(f.Placement.String())
	b.WriteString("containing inertia:\n")
	b.WriteString(f.Inertia.String())
	return b.String()
}
