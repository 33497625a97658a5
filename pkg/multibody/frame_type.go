package multibody

import (
	"fmt"
	"strings"
)

// FrameType is the category of a frame. Each frame carries exactly one.
type FrameType uint8

const (
	// FrameTypeUnset only appears on default-constructed frames.
	FrameTypeUnset   FrameType = iota
	OperationalFrame           // user-defined frame of interest
	Joint                      // frame of a joint
	FixedJoint                 // frame left by a fixed joint
	Body                       // frame of a rigid body
	Sensor                     // frame of a sensor
)

var frameTypeNames = [...]string{
	FrameTypeUnset:   "unset",
	OperationalFrame: "op-frame",
	Joint:            "joint",
	FixedJoint:       "fixed-joint",
	Body:             "body",
	Sensor:           "sensor",
}

func (t FrameType) String() string {
	if int(t) < len(frameTypeNames) {
		return frameTypeNames[t]
	}
	return fmt.Sprintf("FrameType(%d)", int(t))
}

// Valid reports whether t is one of the five frame categories.
func (t FrameType) Valid() bool {
	return t >= OperationalFrame && t <= Sensor
}

// Mask returns the single-category mask for t, or zero for an invalid type.
func (t FrameType) Mask() FrameTypeMask {
	if !t.Valid() {
		return 0
	}
	return 1 << (t - 1)
}

// ParseFrameType accepts the names printed by FrameType.String, ignoring
// case and surrounding space. Underscores are accepted in place of hyphens.
func ParseFrameType(s string) (FrameType, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for t := OperationalFrame; t <= Sensor; t++ {
		if frameTypeNames[t] == name {
			return t, nil
		}
	}
	return FrameTypeUnset, fmt.Errorf("unknown frame type %q, expected op-frame, joint, fixed-joint, body or sensor", s)
}

// FrameTypeMask is a set of frame categories, used when looking frames up by
// several categories at once.
type FrameTypeMask uint8

// MaskAll matches every frame category.
const MaskAll FrameTypeMask = 1<<5 - 1

// MaskOf builds a mask from categories.
func MaskOf(types ...FrameType) FrameTypeMask {
	var m FrameTypeMask
	for _, t := range types {
		m |= t.Mask()
	}
	return m
}

// Has reports whether t is in the set.
func (m FrameTypeMask) Has(t FrameType) bool {
	return m&t.Mask() != 0
}

func (m FrameTypeMask) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	for t := OperationalFrame; t <= Sensor; t++ {
		if m.Has(t) {
			parts = append(parts, t.String())
		}
	}
	return strings.Join(parts, "|")
}

// ParseFrameTypeMask parses a comma or pipe separated list of frame types.
// "all" and the empty string select every category.
func ParseFrameTypeMask(s string) (FrameTypeMask, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return MaskAll, nil
	}
	var m FrameTypeMask
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' }) {
		t, err := ParseFrameType(part)
		if err != nil {
			return 0, err
		}
		m |= t.Mask()
	}
	if m == 0 {
		return 0, fmt.Errorf("no frame types in %q", s)
	}
	return m, nil
}
