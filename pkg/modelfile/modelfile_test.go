package modelfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chazu/ligament/pkg/engine"
	"github.com/chazu/ligament/pkg/model"
	"github.com/chazu/ligament/pkg/multibody"
	"github.com/chazu/ligament/pkg/spatial"
)

const armTOML = `
name = "arm"

[[joint]]
name = "shoulder"
kind = "revolute-z"
placement = { translation = [0.0, 0.0, 0.5] }

[[joint]]
name = "elbow"
kind = "revolute-y"
parent = "shoulder"
placement = { translation = [0.0, 0.0, 0.4] }

[[frame]]
type = "joint"
joint = "shoulder"

[[frame]]
type = "joint"
joint = "elbow"

[[frame]]
name = "tool"
joint = "elbow"
parent_frame = "elbow"
placement = { translation = [0.0, 0.0, 0.3] }

[[frame]]
name = "payload"
type = "body"
joint = "elbow"
parent_frame = "elbow"
placement = { translation = [0.0, 0.0, 0.2] }
inertia = { mass = 1.5, sphere = 0.05 }
merge_inertia = true
`

const armLisp = `
(defmodel "arm")
(def shoulder (joint "shoulder" :kind :revolute-z :placement (placement :at (vec3 0 0 0.5))))
(def elbow (joint "elbow" :kind :revolute-y :parent shoulder
                  :placement (placement :at (vec3 0 0 0.4))))
(joint-frame shoulder)
(def elbow-frame (joint-frame elbow))
(frame "tool" :joint elbow :parent-frame elbow-frame
       :placement (placement :at (vec3 0 0 0.3)))
(frame "payload" :joint elbow :type :body :parent-frame elbow-frame
       :placement (placement :at (vec3 0 0 0.2))
       :inertia (inertia :mass 1.5 :sphere 0.05)
       :merge true)
`

func TestDecodeArm(t *testing.T) {
	m, err := Decode(armTOML)
	require.NoError(t, err)

	require.Equal(t, "arm", m.Name)
	require.Equal(t, 3, m.NJoints())
	require.Equal(t, 5, m.NFrames())
	require.Equal(t, 2, m.NQ())

	payload, err := m.FrameID("payload", multibody.Body.Mask())
	require.NoError(t, err)
	require.True(t, m.Merged(payload))
	require.Equal(t, 1.5, m.Joints[2].Inertia.Mass)

	tool, err := m.Frame("tool", multibody.OperationalFrame.Mask())
	require.NoError(t, err)
	require.Equal(t, multibody.FrameIndex(2), tool.ParentFrame)
	require.Empty(t, model.Validate(m))
}

func TestDecodeMatchesDSL(t *testing.T) {
	fromFile, err := Decode(armTOML)
	require.NoError(t, err)

	fromLisp, evalErrs, err := engine.NewEngine().Evaluate(armLisp)
	require.NoError(t, err)
	require.Empty(t, evalErrs)

	require.True(t, fromFile.Equal(fromLisp), "TOML and DSL descriptions of the same arm must build equal models")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arm.toml")
	require.NoError(t, os.WriteFile(path, []byte(armTOML), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 5, m.NFrames())

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestDecodePlacementAndInertia(t *testing.T) {
	m, err := Decode(`
name = "wrist"

[[joint]]
name = "roll"
kind = "revolute-x"
placement = { translation = [1.0, 2.0, 3.0], rpy = [0.0, 0.0, 90.0] }
inertia = { mass = 2.0, com = [0.1, 0.0, 0.0], box = [0.1, 0.2, 0.3] }

[[frame]]
name = "camera"
type = "sensor"
joint = "roll"
inertia = { mass = 0.2, rotational = [1e-4, 0.0, 2e-4, 0.0, 0.0, 3e-4] }
`)
	require.NoError(t, err)

	want := spatial.FromRPY(0, 0, spatial.Deg(90.0), spatial.V3(1.0, 2, 3))
	require.True(t, m.Joints[1].Placement.Equal(want))

	box := spatial.InertiaFromBox(2.0, 0.1, 0.2, 0.3)
	box.Lever = spatial.V3(0.1, 0, 0)
	require.True(t, m.Joints[1].Inertia.IsApprox(box, 1e-12))

	cam, err := m.Frame("camera", multibody.Sensor.Mask())
	require.NoError(t, err)
	require.Equal(t, multibody.RootFrame, cam.ParentFrame)
	require.Equal(t, 3e-4, cam.Inertia.Rotational[5])
	require.True(t, m.Joints[1].Inertia.IsApprox(box, 1e-12), "unmerged frame inertia stays on the frame")
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
		wantMsg string
	}{
		{
			name:    "unknown key",
			data:    "name = \"x\"\n[[joint]]\nname = \"j\"\nkind = \"revolute-x\"\nlimit = 3.0\n",
			wantErr: ErrUnknownKey,
			wantMsg: "joint.limit",
		},
		{
			name:    "missing name",
			data:    "[[joint]]\nname = \"j\"\nkind = \"revolute-x\"\n",
			wantErr: ErrInvalidValue,
		},
		{
			name:    "bad kind",
			data:    "name = \"x\"\n[[joint]]\nname = \"j\"\nkind = \"ball\"\n",
			wantErr: model.ErrInvalidKind,
		},
		{
			name:    "parent typo",
			data:    "name = \"x\"\n[[joint]]\nname = \"elbow\"\nkind = \"revolute-x\"\n[[joint]]\nname = \"wrist\"\nkind = \"revolute-x\"\nparent = \"elbw\"\n",
			wantErr: model.ErrJointNotFound,
			wantMsg: `did you mean "elbow"`,
		},
		{
			name:    "frame without joint",
			data:    "name = \"x\"\n[[frame]]\nname = \"tool\"\n",
			wantErr: ErrInvalidValue,
		},
		{
			name:    "short translation",
			data:    "name = \"x\"\n[[frame]]\nname = \"tool\"\njoint = \"universe\"\nplacement = { translation = [1.0, 2.0] }\n",
			wantErr: ErrInvalidValue,
			wantMsg: "translation needs 3 values",
		},
		{
			name:    "two shapes",
			data:    "name = \"x\"\n[[frame]]\nname = \"p\"\njoint = \"universe\"\ninertia = { mass = 1.0, sphere = 0.1, box = [1.0, 1.0, 1.0] }\n",
			wantErr: ErrInvalidValue,
		},
		{
			name:    "merge without inertia",
			data:    "name = \"x\"\n[[frame]]\nname = \"p\"\njoint = \"universe\"\nmerge_inertia = true\n",
			wantErr: ErrInvalidValue,
		},
		{
			name:    "conflicting duplicate frame",
			data:    "name = \"x\"\n[[frame]]\nname = \"p\"\njoint = \"universe\"\n[[frame]]\nname = \"p\"\njoint = \"universe\"\nplacement = { translation = [1.0, 0.0, 0.0] }\n",
			wantErr: model.ErrDuplicateFrame,
		},
		{
			name:    "joint frame with placement",
			data:    "name = \"x\"\n[[joint]]\nname = \"j\"\nkind = \"revolute-x\"\n[[frame]]\ntype = \"joint\"\njoint = \"j\"\nplacement = { translation = [1.0, 0.0, 0.0] }\n",
			wantErr: ErrInvalidValue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				require.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}
