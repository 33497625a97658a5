package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidJoint   = errors.New("invalid joint index")
	ErrInvalidFrame   = errors.New("invalid frame index")
	ErrInvalidKind    = errors.New("invalid joint kind")
	ErrDuplicateJoint = errors.New("duplicate joint name")
	ErrDuplicateFrame = errors.New("duplicate frame")
	ErrJointNotFound  = errors.New("joint not found")
	ErrFrameNotFound  = errors.New("frame not found")
	ErrAlreadyMerged  = errors.New("frame inertia already merged")
)

// NotFoundError reports a failed name lookup along with the closest
// registered name, if any is close enough to be a likely typo.
type NotFoundError struct {
	Kind       string // "joint" or "frame"
	Name       string
	Suggestion string
	err        error
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %q not found", e.Kind, e.Name)
	if e.Suggestion != "" {
		fmt.Fprintf(&b, " (did you mean %q?)", e.Suggestion)
	}
	return b.String()
}

func (e *NotFoundError) Unwrap() error {
	return e.err
}
