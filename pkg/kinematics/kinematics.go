// Package kinematics computes joint and frame placements of a model for a
// given configuration.
package kinematics

import (
	"errors"
	"fmt"

	"github.com/chazu/ligament/pkg/model"
	"github.com/chazu/ligament/pkg/multibody"
	"github.com/chazu/ligament/pkg/spatial"
)

// ErrConfigurationSize is returned when q does not match the model's NQ.
var ErrConfigurationSize = errors.New("configuration size mismatch")

// Data holds the placements computed for one model. It is sized for the
// model it was created from and must not be shared between goroutines
// while being filled.
type Data[T spatial.Scalar] struct {
	// LiMi is each joint's placement relative to its parent joint.
	LiMi []spatial.SE3[T]
	// OMi is each joint's placement in the world.
	OMi []spatial.SE3[T]
	// OMf is each frame's placement in the world.
	OMf []spatial.SE3[T]
}

// NewData allocates Data for m with every placement at identity.
func NewData[T spatial.Scalar](m *model.Model[T]) *Data[T] {
	d := &Data[T]{
		LiMi: make([]spatial.SE3[T], m.NJoints()),
		OMi:  make([]spatial.SE3[T], m.NJoints()),
		OMf:  make([]spatial.SE3[T], m.NFrames()),
	}
	for i := range d.LiMi {
		d.LiMi[i] = spatial.Identity[T]()
		d.OMi[i] = spatial.Identity[T]()
	}
	for i := range d.OMf {
		d.OMf[i] = spatial.Identity[T]()
	}
	return d
}

func (d *Data[T]) fit(m *model.Model[T]) {
	if len(d.LiMi) != m.NJoints() {
		d.LiMi = make([]spatial.SE3[T], m.NJoints())
		d.OMi = make([]spatial.SE3[T], m.NJoints())
	}
	if len(d.OMf) != m.NFrames() {
		d.OMf = make([]spatial.SE3[T], m.NFrames())
	}
}

// ForwardKinematics fills d.LiMi and d.OMi for configuration q. Joints are
// visited in table order, which places parents before children.
func ForwardKinematics[T spatial.Scalar](m *model.Model[T], d *Data[T], q []T) error {
	if len(q) != m.NQ() {
		return fmt.Errorf("forward kinematics: %w: got %d, model expects %d", ErrConfigurationSize, len(q), m.NQ())
	}
	d.fit(m)
	d.LiMi[0] = spatial.Identity[T]()
	d.OMi[0] = spatial.Identity[T]()
	for i := 1; i < m.NJoints(); i++ {
		j := m.Joints[i]
		var qi T
		if j.Kind.NQ() > 0 {
			qi = q[j.IdxQ]
		}
		d.LiMi[i] = j.Placement.Compose(j.Motion(qi))
		d.OMi[i] = d.OMi[j.Parent].Compose(d.LiMi[i])
	}
	return nil
}

// FramePlacement returns the world placement of frame id from the joint
// placements already in d. The frame placement is composed with its parent
// joint only.
func FramePlacement[T spatial.Scalar](m *model.Model[T], d *Data[T], id multibody.FrameIndex) spatial.SE3[T] {
	f := m.Frames[id]
	return d.OMi[f.ParentJoint].Compose(f.Placement)
}

// UpdateFramePlacements fills d.OMf from d.OMi.
func UpdateFramePlacements[T spatial.Scalar](m *model.Model[T], d *Data[T]) {
	d.fit(m)
	for i := range m.Frames {
		d.OMf[i] = FramePlacement(m, d, multibody.FrameIndex(i))
	}
}

// FramesForwardKinematics runs ForwardKinematics then UpdateFramePlacements.
func FramesForwardKinematics[T spatial.Scalar](m *model.Model[T], d *Data[T], q []T) error {
	if err := ForwardKinematics(m, d, q); err != nil {
		return err
	}
	UpdateFramePlacements(m, d)
	return nil
}

// CenterOfMass returns the total mass supported by the joints and its
// world center of mass. Frame inertias only count once merged into their
// joint, including frames merged into the universe.
func CenterOfMass[T spatial.Scalar](m *model.Model[T], d *Data[T]) (T, spatial.Vec3[T]) {
	var total spatial.Inertia[T]
	for i := 0; i < m.NJoints(); i++ {
		total = total.Add(d.OMi[i].ActInertia(m.Joints[i].Inertia))
	}
	return total.Mass, total.Lever
}

// Neutral returns the zero configuration of m.
func Neutral[T spatial.Scalar](m *model.Model[T]) []T {
	return make([]T, m.NQ())
}
