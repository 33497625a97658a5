// Package modelfile loads kinematic models from TOML descriptions.
//
// A file names the model, lists joints in parent-before-child order and
// then lists frames:
//
//	name = "arm"
//
//	[[joint]]
//	name = "shoulder"
//	kind = "revolute-z"
//	placement = { translation = [0.0, 0.0, 0.5] }
//
//	[[frame]]
//	type = "joint"
//	joint = "shoulder"
//
//	[[frame]]
//	name = "payload"
//	type = "body"
//	joint = "shoulder"
//	parent_frame = "shoulder"
//	placement = { translation = [0.0, 0.0, 0.2], rpy = [0.0, 0.0, 90.0] }
//	inertia = { mass = 1.5, sphere = 0.05 }
//	merge_inertia = true
//
// Rotations are roll, pitch and yaw in degrees. Joints and frames refer to
// each other by name. A frame of type "joint" registers the joint frame of
// its joint. Inertia is only folded into a joint when merge_inertia is set.
package modelfile

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"

	"github.com/chazu/ligament/pkg/model"
	"github.com/chazu/ligament/pkg/multibody"
	"github.com/chazu/ligament/pkg/spatial"
)

// ErrUnknownKey is returned when a file holds keys this format does not
// define, which is usually a typo.
var ErrUnknownKey = errors.New("unknown key")

// ErrInvalidValue is returned for values of the right TOML type but outside
// what the format accepts.
var ErrInvalidValue = errors.New("invalid value")

type fileModel struct {
	Name   string      `toml:"name"`
	Joints []fileJoint `toml:"joint"`
	Frames []fileFrame `toml:"frame"`
}

type fileJoint struct {
	Name      string         `toml:"name"`
	Kind      string         `toml:"kind"`
	Parent    string         `toml:"parent"`
	Placement *filePlacement `toml:"placement"`
	// Inertia is appended to the joint at its own origin.
	Inertia *fileInertia `toml:"inertia"`
}

type fileFrame struct {
	Name         string         `toml:"name"`
	Type         string         `toml:"type"`
	Joint        string         `toml:"joint"`
	ParentFrame  string         `toml:"parent_frame"`
	Placement    *filePlacement `toml:"placement"`
	Inertia      *fileInertia   `toml:"inertia"`
	MergeInertia bool           `toml:"merge_inertia"`
}

type filePlacement struct {
	Translation []float64 `toml:"translation"`
	RPY         []float64 `toml:"rpy"`
}

type fileInertia struct {
	Mass       float64   `toml:"mass"`
	COM        []float64 `toml:"com"`
	Sphere     *float64  `toml:"sphere"`
	Box        []float64 `toml:"box"`
	Cylinder   []float64 `toml:"cylinder"`
	Diag       []float64 `toml:"diag"`
	Rotational []float64 `toml:"rotational"`
}

// Load reads and builds the model described by the TOML file at path.
func Load(path string) (*model.Model[float64], error) {
	var raw fileModel
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("load model file: %w", err)
	}
	m, err := build(raw, meta)
	if err != nil {
		return nil, fmt.Errorf("load model file %s: %w", path, err)
	}
	return m, nil
}

// Decode builds the model described by TOML data.
func Decode(data string) (*model.Model[float64], error) {
	var raw fileModel
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	m, err := build(raw, meta)
	if err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return m, nil
}

func build(raw fileModel, meta toml.MetaData) (*model.Model[float64], error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(keys, ", "))
	}

	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: model name is empty", ErrInvalidValue)
	}
	m := model.New[float64](name)

	for i, j := range raw.Joints {
		if err := addJoint(m, j); err != nil {
			return nil, fmt.Errorf("joint %d (%q): %w", i, j.Name, err)
		}
	}
	for i, f := range raw.Frames {
		if err := addFrame(m, f); err != nil {
			return nil, fmt.Errorf("frame %d (%q): %w", i, f.Name, err)
		}
	}

	log.Debug().Str("model", m.Name).Int("joints", m.NJoints()).Int("frames", m.NFrames()).Msg("model file decoded")
	return m, nil
}

func addJoint(m *model.Model[float64], j fileJoint) error {
	kind, err := model.ParseJointKind(j.Kind)
	if err != nil {
		return err
	}
	var parent multibody.JointIndex
	if j.Parent != "" {
		if parent, err = m.JointID(j.Parent); err != nil {
			return fmt.Errorf("parent: %w", err)
		}
	}
	placement, err := j.Placement.se3()
	if err != nil {
		return fmt.Errorf("placement: %w", err)
	}
	id, err := m.AddJoint(parent, kind, placement, j.Name)
	if err != nil {
		return err
	}
	if j.Inertia != nil {
		in, err := j.Inertia.inertia()
		if err != nil {
			return fmt.Errorf("inertia: %w", err)
		}
		return m.AppendBodyToJoint(id, in, spatial.Identity[float64]())
	}
	return nil
}

func addFrame(m *model.Model[float64], f fileFrame) error {
	typ := multibody.OperationalFrame
	if f.Type != "" {
		t, err := multibody.ParseFrameType(f.Type)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		typ = t
	}
	if f.Joint == "" {
		return fmt.Errorf("%w: joint is required", ErrInvalidValue)
	}
	joint, err := m.JointID(f.Joint)
	if err != nil {
		return err
	}
	var previous []multibody.FrameIndex
	if f.ParentFrame != "" {
		pf, err := m.FrameID(f.ParentFrame, multibody.MaskAll)
		if err != nil {
			return fmt.Errorf("parent_frame: %w", err)
		}
		previous = append(previous, pf)
	}

	if typ == multibody.Joint {
		if f.Name != "" && f.Name != f.Joint {
			return fmt.Errorf("%w: joint frame name %q must match its joint", ErrInvalidValue, f.Name)
		}
		if f.Placement != nil || f.Inertia != nil || f.MergeInertia {
			return fmt.Errorf("%w: joint frames take their placement from the joint", ErrInvalidValue)
		}
		_, err := m.AddJointFrame(joint, previous...)
		return err
	}

	placement, err := f.Placement.se3()
	if err != nil {
		return fmt.Errorf("placement: %w", err)
	}
	var in spatial.Inertia[float64]
	if f.Inertia != nil {
		if in, err = f.Inertia.inertia(); err != nil {
			return fmt.Errorf("inertia: %w", err)
		}
	} else if f.MergeInertia {
		return fmt.Errorf("%w: merge_inertia without inertia", ErrInvalidValue)
	}

	parentFrame := multibody.RootFrame
	if len(previous) > 0 {
		parentFrame = previous[0]
	}
	id, err := m.AddFrame(multibody.NewChainedFrame(f.Name, joint, parentFrame, placement, typ, in))
	if err != nil {
		return err
	}
	if f.MergeInertia {
		return m.MergeFrameInertia(id)
	}
	return nil
}

func vec3(name string, v []float64) (spatial.Vec3[float64], error) {
	if v == nil {
		return spatial.Vec3[float64]{}, nil
	}
	if len(v) != 3 {
		return spatial.Vec3[float64]{}, fmt.Errorf("%w: %s needs 3 values, got %d", ErrInvalidValue, name, len(v))
	}
	return spatial.V3(v[0], v[1], v[2]), nil
}

// se3 returns identity for a missing placement.
func (p *filePlacement) se3() (spatial.SE3[float64], error) {
	if p == nil {
		return spatial.Identity[float64](), nil
	}
	t, err := vec3("translation", p.Translation)
	if err != nil {
		return spatial.SE3[float64]{}, err
	}
	rpy, err := vec3("rpy", p.RPY)
	if err != nil {
		return spatial.SE3[float64]{}, err
	}
	return spatial.FromRPY(spatial.Deg(rpy.X), spatial.Deg(rpy.Y), spatial.Deg(rpy.Z), t), nil
}

func (fi *fileInertia) inertia() (spatial.Inertia[float64], error) {
	var in spatial.Inertia[float64]
	if fi.Mass < 0 {
		return in, fmt.Errorf("%w: negative mass %g", ErrInvalidValue, fi.Mass)
	}
	com, err := vec3("com", fi.COM)
	if err != nil {
		return in, err
	}

	shapes := 0
	if fi.Sphere != nil {
		shapes++
		in = spatial.InertiaFromSphere(fi.Mass, *fi.Sphere)
	}
	if fi.Box != nil {
		shapes++
		b, err := vec3("box", fi.Box)
		if err != nil {
			return in, err
		}
		in = spatial.InertiaFromBox(fi.Mass, b.X, b.Y, b.Z)
	}
	if fi.Cylinder != nil {
		shapes++
		if len(fi.Cylinder) != 2 {
			return in, fmt.Errorf("%w: cylinder needs radius and length", ErrInvalidValue)
		}
		in = spatial.InertiaFromCylinder(fi.Mass, fi.Cylinder[0], fi.Cylinder[1])
	}
	if fi.Diag != nil {
		shapes++
		d, err := vec3("diag", fi.Diag)
		if err != nil {
			return in, err
		}
		in = spatial.NewInertia(fi.Mass, com, spatial.Diag(d.X, d.Y, d.Z))
	}
	if fi.Rotational != nil {
		shapes++
		if len(fi.Rotational) != 6 {
			return in, fmt.Errorf("%w: rotational needs xx, xy, yy, xz, yz, zz", ErrInvalidValue)
		}
		var s spatial.Symmetric3[float64]
		copy(s[:], fi.Rotational)
		in = spatial.NewInertia(fi.Mass, com, s)
	}
	switch shapes {
	case 0:
		in = spatial.NewInertia(fi.Mass, com, spatial.Symmetric3[float64]{})
	case 1:
	default:
		return in, fmt.Errorf("%w: at most one of sphere, box, cylinder, diag, rotational", ErrInvalidValue)
	}
	in.Lever = com
	return in, nil
}
