// Package model provides the kinematic tree that owns joints and frames.
// It assigns frame indices, validates the indices a frame refers to when
// the frame is registered, and decides when a frame's inertia is folded
// into its parent joint.
//
// A Model is not safe for concurrent mutation. Once built it may be read
// from several goroutines.
package model

import (
	"fmt"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog/log"

	"github.com/chazu/ligament/pkg/multibody"
	"github.com/chazu/ligament/pkg/spatial"
)

// UniverseName names joint 0 and frame 0 of every model.
const UniverseName = "universe"

// Model is a kinematic tree: a joint table rooted at the universe joint and
// a frame table rooted at the universe frame.
type Model[T spatial.Scalar] struct {
	Name   string
	Joints []Joint[T]
	Frames []multibody.Frame[T]

	nq     int
	merged map[multibody.FrameIndex]bool
}

// New returns a model holding only the universe joint and frame.
func New[T spatial.Scalar](name string) *Model[T] {
	m := &Model[T]{
		Name: name,
		Joints: []Joint[T]{{
			Name:      UniverseName,
			Kind:      JointUniverse,
			Placement: spatial.Identity[T](),
		}},
		merged: make(map[multibody.FrameIndex]bool),
	}
	m.Frames = append(m.Frames, multibody.NewChainedFrame(
		UniverseName, 0, multibody.RootFrame, spatial.Identity[T](), multibody.FixedJoint,
	))
	return m
}

// NQ returns the size of the configuration vector.
func (m *Model[T]) NQ() int { return m.nq }

// NJoints returns the number of joints, universe included.
func (m *Model[T]) NJoints() int { return len(m.Joints) }

// NFrames returns the number of frames, universe included.
func (m *Model[T]) NFrames() int { return len(m.Frames) }

func (m *Model[T]) validJoint(j multibody.JointIndex) bool {
	return j >= 0 && int(j) < len(m.Joints)
}

func (m *Model[T]) validFrame(f multibody.FrameIndex) bool {
	return f >= 0 && int(f) < len(m.Frames)
}

// AddJoint appends a joint below parent and returns its index.
func (m *Model[T]) AddJoint(parent multibody.JointIndex, kind JointKind, placement spatial.SE3[T], name string) (multibody.JointIndex, error) {
	if !m.validJoint(parent) {
		return 0, fmt.Errorf("add joint %q: %w: parent %d (model has %d joints)", name, ErrInvalidJoint, parent, len(m.Joints))
	}
	if kind == JointUniverse || kind.Axis() < 0 {
		return 0, fmt.Errorf("add joint %q: %w: %v", name, ErrInvalidKind, kind)
	}
	if m.ExistJoint(name) {
		return 0, fmt.Errorf("add joint %q: %w", name, ErrDuplicateJoint)
	}

	id := multibody.JointIndex(len(m.Joints))
	m.Joints = append(m.Joints, Joint[T]{
		Name:      name,
		Parent:    parent,
		Kind:      kind,
		Placement: placement,
		IdxQ:      m.nq,
	})
	m.nq += kind.NQ()

	log.Debug().Str("model", m.Name).Str("joint", name).Int("id", int(id)).Str("kind", kind.String()).Msg("joint registered")
	return id, nil
}

// AddFrame registers f and returns its index. The parent joint and parent
// frame must already exist and the type must be set. If a frame with the
// same name and type is already registered, its index is returned when it
// is equal to f and ErrDuplicateFrame otherwise.
//
// The frame's inertia is stored as given and never merged here; see
// MergeFrameInertia.
func (m *Model[T]) AddFrame(f multibody.Frame[T]) (multibody.FrameIndex, error) {
	if !m.validJoint(f.ParentJoint) {
		return 0, fmt.Errorf("add frame %q: %w: parent joint %d (model has %d joints)", f.Name, ErrInvalidJoint, f.ParentJoint, len(m.Joints))
	}
	if !m.validFrame(f.ParentFrame) {
		return 0, fmt.Errorf("add frame %q: %w: parent frame %d (model has %d frames)", f.Name, ErrInvalidFrame, f.ParentFrame, len(m.Frames))
	}
	if !f.Type.Valid() {
		return 0, fmt.Errorf("add frame %q: %w: type %v", f.Name, ErrInvalidFrame, f.Type)
	}
	if id, ok := m.lookupFrame(f.Name, f.Type.Mask()); ok {
		if m.Frames[id].Equal(f) {
			return id, nil
		}
		return 0, fmt.Errorf("add frame %q: %w: a different %v frame has index %d", f.Name, ErrDuplicateFrame, f.Type, id)
	}

	id := multibody.FrameIndex(len(m.Frames))
	m.Frames = append(m.Frames, f)

	log.Debug().Str("model", m.Name).Str("frame", f.Name).Int("id", int(id)).Str("type", f.Type.String()).
		Int("parent_joint", int(f.ParentJoint)).Int("parent_frame", int(f.ParentFrame)).Msg("frame registered")
	return id, nil
}

// AddJointFrame registers the Joint frame of joint. Following the tree
// convention, the frame hangs off the joint's parent at the joint
// placement. When previous is omitted the frame is chained off the frame of
// the parent joint, or RootFrame if there is none.
func (m *Model[T]) AddJointFrame(joint multibody.JointIndex, previous ...multibody.FrameIndex) (multibody.FrameIndex, error) {
	if !m.validJoint(joint) {
		return 0, fmt.Errorf("add joint frame: %w: %d", ErrInvalidJoint, joint)
	}
	j := m.Joints[joint]
	prev := m.defaultPreviousFrame(j.Parent)
	if len(previous) > 0 {
		prev = previous[0]
	}
	return m.AddFrame(multibody.NewChainedFrame(j.Name, j.Parent, prev, j.Placement, multibody.Joint))
}

// AddBodyFrame registers a Body frame attached to joint. When previous is
// omitted the frame is chained off the joint's frame, or RootFrame.
func (m *Model[T]) AddBodyFrame(name string, joint multibody.JointIndex, placement spatial.SE3[T], previous ...multibody.FrameIndex) (multibody.FrameIndex, error) {
	prev := m.defaultPreviousFrame(joint)
	if len(previous) > 0 {
		prev = previous[0]
	}
	return m.AddFrame(multibody.NewChainedFrame(name, joint, prev, placement, multibody.Body))
}

func (m *Model[T]) defaultPreviousFrame(joint multibody.JointIndex) multibody.FrameIndex {
	if !m.validJoint(joint) {
		return multibody.RootFrame
	}
	if id, ok := m.lookupFrame(m.Joints[joint].Name, multibody.MaskOf(multibody.Joint, multibody.FixedJoint)); ok {
		return id
	}
	return multibody.RootFrame
}

// AppendBodyToJoint adds a body inertia, given in a frame placed at
// placement relative to the joint, to the inertia supported by joint.
func (m *Model[T]) AppendBodyToJoint(joint multibody.JointIndex, inertia spatial.Inertia[T], placement spatial.SE3[T]) error {
	if !m.validJoint(joint) {
		return fmt.Errorf("append body: %w: %d", ErrInvalidJoint, joint)
	}
	j := &m.Joints[joint]
	j.Inertia = j.Inertia.Add(placement.ActInertia(inertia))
	return nil
}

// MergeFrameInertia folds the inertia of frame id into its parent joint's
// inertia, expressed in the joint frame through the frame placement. Each
// frame can be merged once.
func (m *Model[T]) MergeFrameInertia(id multibody.FrameIndex) error {
	if !m.validFrame(id) {
		return fmt.Errorf("merge frame inertia: %w: %d", ErrInvalidFrame, id)
	}
	if m.merged[id] {
		return fmt.Errorf("merge frame inertia %q: %w", m.Frames[id].Name, ErrAlreadyMerged)
	}
	f := m.Frames[id]
	if err := m.AppendBodyToJoint(f.ParentJoint, f.Inertia, f.Placement); err != nil {
		return fmt.Errorf("merge frame inertia %q: %w", f.Name, err)
	}
	if m.merged == nil {
		m.merged = make(map[multibody.FrameIndex]bool)
	}
	m.merged[id] = true

	log.Debug().Str("model", m.Name).Str("frame", f.Name).Int("joint", int(f.ParentJoint)).
		Float64("mass", float64(f.Inertia.Mass)).Msg("frame inertia merged")
	return nil
}

// Merged reports whether frame id's inertia has been merged.
func (m *Model[T]) Merged(id multibody.FrameIndex) bool {
	return m.merged[id]
}

func (m *Model[T]) lookupFrame(name string, mask multibody.FrameTypeMask) (multibody.FrameIndex, bool) {
	for i, f := range m.Frames {
		if f.Name == name && mask.Has(f.Type) {
			return multibody.FrameIndex(i), true
		}
	}
	return 0, false
}

// FrameID returns the index of the first frame named name whose type is in
// mask.
func (m *Model[T]) FrameID(name string, mask multibody.FrameTypeMask) (multibody.FrameIndex, error) {
	if id, ok := m.lookupFrame(name, mask); ok {
		return id, nil
	}
	var names []string
	for _, f := range m.Frames {
		if mask.Has(f.Type) {
			names = append(names, f.Name)
		}
	}
	return 0, &NotFoundError{Kind: "frame", Name: name, Suggestion: closest(name, names), err: ErrFrameNotFound}
}

// ExistFrame reports whether a frame named name with a type in mask exists.
func (m *Model[T]) ExistFrame(name string, mask multibody.FrameTypeMask) bool {
	_, ok := m.lookupFrame(name, mask)
	return ok
}

// Frame returns a copy of the frame named name whose type is in mask.
func (m *Model[T]) Frame(name string, mask multibody.FrameTypeMask) (multibody.Frame[T], error) {
	id, err := m.FrameID(name, mask)
	if err != nil {
		return multibody.Frame[T]{}, err
	}
	return m.Frames[id], nil
}

// JointID returns the index of the joint named name.
func (m *Model[T]) JointID(name string) (multibody.JointIndex, error) {
	names := make([]string, len(m.Joints))
	for i, j := range m.Joints {
		if j.Name == name {
			return multibody.JointIndex(i), nil
		}
		names[i] = j.Name
	}
	return 0, &NotFoundError{Kind: "joint", Name: name, Suggestion: closest(name, names), err: ErrJointNotFound}
}

// ExistJoint reports whether a joint named name exists.
func (m *Model[T]) ExistJoint(name string) bool {
	for _, j := range m.Joints {
		if j.Name == name {
			return true
		}
	}
	return false
}

// FramesOfType returns the indices of frames whose type is in mask, in
// registration order.
func (m *Model[T]) FramesOfType(mask multibody.FrameTypeMask) []multibody.FrameIndex {
	var ids []multibody.FrameIndex
	for i, f := range m.Frames {
		if mask.Has(f.Type) {
			ids = append(ids, multibody.FrameIndex(i))
		}
	}
	return ids
}

// SupportedFrames returns the indices of frames attached to joint.
func (m *Model[T]) SupportedFrames(joint multibody.JointIndex) []multibody.FrameIndex {
	var ids []multibody.FrameIndex
	for i, f := range m.Frames {
		if f.ParentJoint == joint {
			ids = append(ids, multibody.FrameIndex(i))
		}
	}
	return ids
}

// FrameChain follows ParentFrame links from id to RootFrame and returns the
// visited indices, id first and RootFrame last.
func (m *Model[T]) FrameChain(id multibody.FrameIndex) ([]multibody.FrameIndex, error) {
	seen := make(map[multibody.FrameIndex]bool)
	chain := []multibody.FrameIndex{}
	for {
		if !m.validFrame(id) {
			return nil, fmt.Errorf("frame chain: %w: %d", ErrInvalidFrame, id)
		}
		chain = append(chain, id)
		if id == multibody.RootFrame {
			return chain, nil
		}
		if seen[id] {
			return nil, fmt.Errorf("frame chain: %w: cycle through frame %d", ErrInvalidFrame, id)
		}
		seen[id] = true
		id = m.Frames[id].ParentFrame
	}
}

// Equal reports whether two models hold equal joints, frames and merge
// records.
func (m *Model[T]) Equal(o *Model[T]) bool {
	if m.Name != o.Name || m.nq != o.nq || len(m.Joints) != len(o.Joints) || len(m.Frames) != len(o.Frames) {
		return false
	}
	for i := range m.Joints {
		if !m.Joints[i].equal(o.Joints[i]) {
			return false
		}
	}
	for i := range m.Frames {
		if m.Frames[i].NotEqual(o.Frames[i]) {
			return false
		}
		id := multibody.FrameIndex(i)
		if m.merged[id] != o.merged[id] {
			return false
		}
	}
	return true
}

// CastModel converts every joint and frame of m to precision U.
func CastModel[U, T spatial.Scalar](m *Model[T]) *Model[U] {
	out := &Model[U]{
		Name:   m.Name,
		Joints: make([]Joint[U], len(m.Joints)),
		Frames: make([]multibody.Frame[U], len(m.Frames)),
		nq:     m.nq,
		merged: make(map[multibody.FrameIndex]bool, len(m.merged)),
	}
	for i, j := range m.Joints {
		out.Joints[i] = castJoint[U](j)
	}
	for i, f := range m.Frames {
		out.Frames[i] = multibody.Cast[U](f)
	}
	for id, ok := range m.merged {
		out.merged[id] = ok
	}
	return out
}

// closest returns the candidate nearest to name by edit distance, or "" if
// none is within a third of the name's length (at least 2 edits).
func closest(name string, candidates []string) string {
	limit := max(2, len(name)/3)
	best, bestDist := "", limit+1
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
