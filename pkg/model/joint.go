package model

import (
	"fmt"
	"strings"

	"github.com/chazu/ligament/pkg/multibody"
	"github.com/chazu/ligament/pkg/spatial"
)

// JointKind enumerates the joint motion models.
type JointKind int

const (
	JointUniverse JointKind = iota // the fixed world joint, index 0 only
	JointRevoluteX
	JointRevoluteY
	JointRevoluteZ
	JointPrismaticX
	JointPrismaticY
	JointPrismaticZ
)

var jointKindNames = [...]string{
	JointUniverse:   "universe",
	JointRevoluteX:  "revolute-x",
	JointRevoluteY:  "revolute-y",
	JointRevoluteZ:  "revolute-z",
	JointPrismaticX: "prismatic-x",
	JointPrismaticY: "prismatic-y",
	JointPrismaticZ: "prismatic-z",
}

func (k JointKind) String() string {
	if k >= 0 && int(k) < len(jointKindNames) {
		return jointKindNames[k]
	}
	return fmt.Sprintf("JointKind(%d)", int(k))
}

// NQ returns the number of configuration coordinates of the kind.
func (k JointKind) NQ() int {
	if k == JointUniverse {
		return 0
	}
	return 1
}

// Revolute reports whether the joint rotates about its axis.
func (k JointKind) Revolute() bool {
	return k >= JointRevoluteX && k <= JointRevoluteZ
}

// Prismatic reports whether the joint slides along its axis.
func (k JointKind) Prismatic() bool {
	return k >= JointPrismaticX && k <= JointPrismaticZ
}

// Axis returns the principal axis (0 = x, 1 = y, 2 = z), or -1 for the
// universe.
func (k JointKind) Axis() int {
	switch {
	case k.Revolute():
		return int(k - JointRevoluteX)
	case k.Prismatic():
		return int(k - JointPrismaticX)
	default:
		return -1
	}
}

// ParseJointKind accepts the names printed by JointKind.String. The
// universe kind is not accepted since only joint 0 may have it.
func ParseJointKind(s string) (JointKind, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for k := JointRevoluteX; k <= JointPrismaticZ; k++ {
		if jointKindNames[k] == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Joint is an entry of the joint table.
type Joint[T spatial.Scalar] struct {
	Name   string
	Parent multibody.JointIndex
	Kind   JointKind
	// Placement of the joint frame relative to the parent joint frame at
	// the zero configuration.
	Placement spatial.SE3[T]
	// Inertia supported by the joint, expressed in the joint frame. Frame
	// inertias only appear here once merged.
	Inertia spatial.Inertia[T]
	// IdxQ is the joint's first index in the configuration vector.
	IdxQ int
}

// Motion returns the transform induced by the joint coordinate q.
func (j Joint[T]) Motion(q T) spatial.SE3[T] {
	switch {
	case j.Kind.Revolute():
		return spatial.NewSE3(spatial.RotationAxis(j.Kind.Axis(), q), spatial.Vec3[T]{})
	case j.Kind.Prismatic():
		var p spatial.Vec3[T]
		switch j.Kind.Axis() {
		case 0:
			p.X = q
		case 1:
			p.Y = q
		default:
			p.Z = q
		}
		return spatial.NewSE3(spatial.Identity3[T](), p)
	default:
		return spatial.Identity[T]()
	}
}

func (j Joint[T]) equal(o Joint[T]) bool {
	return j.Name == o.Name &&
		j.Parent == o.Parent &&
		j.Kind == o.Kind &&
		j.Placement.Equal(o.Placement) &&
		j.Inertia.Equal(o.Inertia) &&
		j.IdxQ == o.IdxQ
}

func castJoint[U, T spatial.Scalar](j Joint[T]) Joint[U] {
	return Joint[U]{
		Name:      j.Name,
		Parent:    j.Parent,
		Kind:      j.Kind,
		Placement: spatial.CastSE3[U](j.Placement),
		Inertia:   spatial.CastInertia[U](j.Inertia),
		IdxQ:      j.IdxQ,
	}
}
