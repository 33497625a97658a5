package model

import (
	"fmt"

	"github.com/chazu/ligament/pkg/multibody"
	"github.com/chazu/ligament/pkg/spatial"
)

// ValidationSeverity indicates whether a validation finding makes the model
// unusable or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // model is inconsistent
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding. Joint and Frame
// are -1 when the finding is not about a specific joint or frame.
type ValidationError struct {
	Joint    multibody.JointIndex
	Frame    multibody.FrameIndex
	Message  string
	Severity ValidationSeverity
}

func (e ValidationError) Error() string {
	switch {
	case e.Frame >= 0:
		return fmt.Sprintf("[%s] frame %d: %s", e.Severity, e.Frame, e.Message)
	case e.Joint >= 0:
		return fmt.Sprintf("[%s] joint %d: %s", e.Severity, e.Joint, e.Message)
	default:
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
}

func jointFinding(j int, sev ValidationSeverity, format string, args ...any) ValidationError {
	return ValidationError{Joint: multibody.JointIndex(j), Frame: -1, Message: fmt.Sprintf(format, args...), Severity: sev}
}

func frameFinding(f int, sev ValidationSeverity, format string, args ...any) ValidationError {
	return ValidationError{Joint: -1, Frame: multibody.FrameIndex(f), Message: fmt.Sprintf(format, args...), Severity: sev}
}

// Validate checks the joint and frame tables for consistency. It catches
// what AddJoint and AddFrame would have rejected when the tables were
// edited directly, plus numeric problems in placements and inertias. An
// empty result means the model is consistent. Validate never mutates m.
func Validate[T spatial.Scalar](m *Model[T]) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateJointTree(m)...)
	errs = append(errs, validateFrameReferences(m)...)
	errs = append(errs, validateFrameChains(m)...)
	errs = append(errs, validateFrameNames(m)...)
	errs = append(errs, validateNumerics(m)...)
	return errs
}

// HasErrors reports whether any finding has error severity.
func HasErrors(findings []ValidationError) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// validateJointTree checks that joint 0 is the universe and that every
// other joint's parent precedes it, which also rules out cycles.
func validateJointTree[T spatial.Scalar](m *Model[T]) []ValidationError {
	var errs []ValidationError
	if len(m.Joints) == 0 || m.Joints[0].Kind != JointUniverse {
		errs = append(errs, ValidationError{Joint: 0, Frame: -1, Message: "joint 0 must be the universe", Severity: SeverityError})
	}
	names := make(map[string]int)
	nq := 0
	for i, j := range m.Joints {
		if prev, ok := names[j.Name]; ok {
			errs = append(errs, jointFinding(i, SeverityError, "name %q already used by joint %d", j.Name, prev))
		} else {
			names[j.Name] = i
		}
		if i == 0 {
			continue
		}
		if j.Parent < 0 || int(j.Parent) >= i {
			errs = append(errs, jointFinding(i, SeverityError, "parent %d must precede the joint", j.Parent))
		}
		if j.Kind == JointUniverse || j.Kind.Axis() < 0 {
			errs = append(errs, jointFinding(i, SeverityError, "invalid kind %v", j.Kind))
			continue
		}
		if j.IdxQ != nq {
			errs = append(errs, jointFinding(i, SeverityError, "configuration index %d, expected %d", j.IdxQ, nq))
		}
		nq += j.Kind.NQ()
	}
	if nq != m.nq {
		errs = append(errs, ValidationError{Joint: -1, Frame: -1, Message: fmt.Sprintf("configuration size %d, joints account for %d", m.nq, nq), Severity: SeverityError})
	}
	return errs
}

// validateFrameReferences checks that every frame points at an existing
// joint and frame and carries a frame type.
func validateFrameReferences[T spatial.Scalar](m *Model[T]) []ValidationError {
	var errs []ValidationError
	for i, f := range m.Frames {
		if !m.validJoint(f.ParentJoint) {
			errs = append(errs, frameFinding(i, SeverityError, "%q: parent joint %d does not exist", f.Name, f.ParentJoint))
		}
		if !m.validFrame(f.ParentFrame) {
			errs = append(errs, frameFinding(i, SeverityError, "%q: parent frame %d does not exist", f.Name, f.ParentFrame))
		}
		if !f.Type.Valid() {
			errs = append(errs, frameFinding(i, SeverityError, "%q: frame type is %v", f.Name, f.Type))
		}
	}
	return errs
}

// validateFrameChains checks that ParentFrame links reach the root frame,
// using DFS with 3-color marking. The root frame may point at itself.
func validateFrameChains[T spatial.Scalar](m *Model[T]) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, len(m.Frames))
	var errs []ValidationError

	var visit func(i int) bool // returns true if a cycle was found
	visit = func(i int) bool {
		switch color[i] {
		case black:
			return false
		case gray:
			errs = append(errs, frameFinding(i, SeverityError, "%q is part of a parent-frame cycle", m.Frames[i].Name))
			return true
		}
		color[i] = gray
		parent := int(m.Frames[i].ParentFrame)
		if i != int(multibody.RootFrame) && parent >= 0 && parent < len(m.Frames) {
			if visit(parent) {
				return true
			}
		}
		color[i] = black
		return false
	}

	for i := range m.Frames {
		if color[i] == white && visit(i) {
			// One cycle error is sufficient.
			break
		}
	}
	return errs
}

// validateFrameNames checks that no two frames share a name and a type.
func validateFrameNames[T spatial.Scalar](m *Model[T]) []ValidationError {
	type key struct {
		name string
		typ  multibody.FrameType
	}
	var errs []ValidationError
	seen := make(map[key]int)
	for i, f := range m.Frames {
		k := key{f.Name, f.Type}
		if prev, ok := seen[k]; ok {
			errs = append(errs, frameFinding(i, SeverityError, "%v frame %q duplicates frame %d", f.Type, f.Name, prev))
			continue
		}
		seen[k] = i
	}
	return errs
}

// validateNumerics checks placements and inertias of joints and frames.
func validateNumerics[T spatial.Scalar](m *Model[T]) []ValidationError {
	var errs []ValidationError
	tol := orthonormalTolerance[T]()
	for i, j := range m.Joints {
		if msg := placementProblem(j.Placement, tol); msg != "" {
			errs = append(errs, jointFinding(i, SeverityError, "placement %s", msg))
		}
		if msg := inertiaProblem(j.Inertia); msg != "" {
			errs = append(errs, jointFinding(i, SeverityError, "inertia %s", msg))
		}
	}
	for i, f := range m.Frames {
		if msg := placementProblem(f.Placement, tol); msg != "" {
			errs = append(errs, frameFinding(i, SeverityError, "%q: placement %s", f.Name, msg))
		}
		if msg := inertiaProblem(f.Inertia); msg != "" {
			errs = append(errs, frameFinding(i, SeverityError, "%q: inertia %s", f.Name, msg))
		}
		if f.Inertia.Mass > 0 && !m.merged[multibody.FrameIndex(i)] {
			errs = append(errs, frameFinding(i, SeverityWarning, "%q carries %g kg that is not merged into joint %d", f.Name, float64(f.Inertia.Mass), f.ParentJoint))
		}
	}
	return errs
}

func placementProblem[T spatial.Scalar](p spatial.SE3[T], tol T) string {
	if !p.IsFinite() {
		return "is not finite"
	}
	if !p.IsRotationOrthonormal(tol) {
		return "rotation is not orthonormal"
	}
	return ""
}

func inertiaProblem[T spatial.Scalar](in spatial.Inertia[T]) string {
	if !in.IsFinite() {
		return "is not finite"
	}
	if in.Mass < 0 {
		return fmt.Sprintf("has negative mass %g", float64(in.Mass))
	}
	return ""
}

// orthonormalTolerance is looser for single precision.
func orthonormalTolerance[T spatial.Scalar]() T {
	one := T(1)
	if one+T(1e-10) == one {
		return T(1e-4)
	}
	return T(1e-9)
}
