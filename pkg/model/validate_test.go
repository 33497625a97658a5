package model

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chazu/ligament/pkg/multibody"
	"github.com/chazu/ligament/pkg/spatial"
)

func findingsContaining(findings []ValidationError, sev ValidationSeverity, substr string) int {
	n := 0
	for _, f := range findings {
		if f.Severity == sev && strings.Contains(f.Message, substr) {
			n++
		}
	}
	return n
}

func TestValidateCleanModel(t *testing.T) {
	m := twoLink(t)
	_, err := m.AddBodyFrame("forearm", 2, spatial.FromRPY(0.1, 0.2, 0.3, spatial.V3(0.0, 0.0, 0.2)))
	require.NoError(t, err)
	require.Empty(t, Validate(m))
	require.Empty(t, Validate(CastModel[float32](m)), "float32 rounding stays within tolerance")
}

func TestValidateDirectTableEdits(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Model[float64])
		want   string
	}{
		{
			name: "parent joint out of range",
			mutate: func(m *Model[float64]) {
				m.Frames = append(m.Frames, multibody.NewFrame("ghost", 12, spatial.Identity[float64](), multibody.Sensor))
			},
			want: "parent joint 12 does not exist",
		},
		{
			name: "parent frame out of range",
			mutate: func(m *Model[float64]) {
				m.Frames = append(m.Frames, multibody.NewChainedFrame("ghost", 1, 40, spatial.Identity[float64](), multibody.Sensor))
			},
			want: "parent frame 40 does not exist",
		},
		{
			name: "unset type",
			mutate: func(m *Model[float64]) {
				m.Frames = append(m.Frames, multibody.Frame[float64]{})
			},
			want: "frame type is unset",
		},
		{
			name: "duplicate name and type",
			mutate: func(m *Model[float64]) {
				m.Frames = append(m.Frames, m.Frames[2])
			},
			want: `joint frame "elbow" duplicates frame 2`,
		},
		{
			name: "frame cycle",
			mutate: func(m *Model[float64]) {
				m.Frames[1].ParentFrame = 2
			},
			want: "parent-frame cycle",
		},
		{
			name: "joint parent after joint",
			mutate: func(m *Model[float64]) {
				m.Joints[1].Parent = 2
			},
			want: "must precede",
		},
		{
			name: "non-finite placement",
			mutate: func(m *Model[float64]) {
				m.Frames[1].Placement.Translation.X = math.Inf(1)
			},
			want: "placement is not finite",
		},
		{
			name: "skewed rotation",
			mutate: func(m *Model[float64]) {
				m.Joints[2].Placement.Rotation[0][1] = 0.5
			},
			want: "rotation is not orthonormal",
		},
		{
			name: "negative mass",
			mutate: func(m *Model[float64]) {
				m.Joints[1].Inertia.Mass = -1
			},
			want: "negative mass",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := twoLink(t)
			tt.mutate(m)
			findings := Validate(m)
			require.True(t, HasErrors(findings))
			require.Equal(t, 1, findingsContaining(findings, SeverityError, tt.want), "findings: %v", findings)
		})
	}
}

func TestValidateWarnsOnUnmergedInertia(t *testing.T) {
	m := twoLink(t)
	id, err := m.AddFrame(multibody.NewFrame("payload", 2, spatial.Identity[float64](), multibody.Body, spatial.InertiaFromSphere(2.0, 0.1)))
	require.NoError(t, err)

	findings := Validate(m)
	require.False(t, HasErrors(findings))
	require.Equal(t, 1, findingsContaining(findings, SeverityWarning, "not merged"))

	require.NoError(t, m.MergeFrameInertia(id))
	require.Empty(t, Validate(m))
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Joint: -1, Frame: 3, Message: "boom", Severity: SeverityError}
	require.Equal(t, "[error] frame 3: boom", e.Error())
	e = ValidationError{Joint: 2, Frame: -1, Message: "bad", Severity: SeverityWarning}
	require.Equal(t, "[warning] joint 2: bad", e.Error())
	e = ValidationError{Joint: -1, Frame: -1, Message: "size", Severity: SeverityError}
	require.Equal(t, "[error] size", e.Error())
}
