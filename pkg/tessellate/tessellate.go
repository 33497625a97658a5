// Package tessellate turns the frames of a posed model into triangle meshes
// using a geometry kernel. One mesh is produced per selected frame.
package tessellate

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/ligament/pkg/kernel"
	"github.com/chazu/ligament/pkg/kinematics"
	"github.com/chazu/ligament/pkg/model"
	"github.com/chazu/ligament/pkg/multibody"
	"github.com/chazu/ligament/pkg/spatial"
)

// Defaults applied to zero-valued Options fields.
const (
	DefaultMarkerSize = 0.1
	DefaultDensity    = 1000.0
)

// ErrStaleData is returned when the kinematics data was computed for a
// model with a different number of joints or frames.
var ErrStaleData = errors.New("kinematics data does not match model")

// Options selects and sizes the frame markers.
type Options struct {
	// Mask selects frame types to render. Zero renders every frame.
	Mask multibody.FrameTypeMask
	// MarkerSize is the length of each axis of the triad.
	MarkerSize float64
	// Density converts a frame mass to the radius of its mass sphere.
	Density float64
}

func (o Options) withDefaults() Options {
	if o.Mask == 0 {
		o.Mask = multibody.MaskAll
	}
	if o.MarkerSize <= 0 {
		o.MarkerSize = DefaultMarkerSize
	}
	if o.Density <= 0 {
		o.Density = DefaultDensity
	}
	return o
}

// Frames produces one mesh per frame of m selected by opts.Mask, placed at
// its world placement in d. The tessellator is read-only and never mutates
// the model or the data.
func Frames(m *model.Model[float64], d *kinematics.Data[float64], k kernel.Kernel, opts Options) ([]*kernel.Mesh, error) {
	if m == nil {
		return nil, nil
	}
	if d == nil || len(d.OMi) != m.NJoints() || len(d.OMf) != m.NFrames() {
		return nil, fmt.Errorf("tessellate: %w", ErrStaleData)
	}
	opts = opts.withDefaults()

	var meshes []*kernel.Mesh
	for _, id := range m.FramesOfType(opts.Mask) {
		f := m.Frames[id]
		solid := k.Transform(marker(k, m, f, opts), d.OMf[id])

		mesh, err := k.ToMesh(solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for frame %q: %w", f.Name, err)
		}
		mesh.PartName = f.Name
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// marker builds the solid for one frame in its own coordinates: an axis
// triad, a cylinder along the motion axis of joint frames, and a sphere at
// the center of mass when the frame carries mass.
func marker(k kernel.Kernel, m *model.Model[float64], f multibody.Frame[float64], opts Options) kernel.Solid {
	l := opts.MarkerSize
	w := l / 10

	solid := k.Union(
		k.Transform(k.Box(l, w, w), spatial.Translation(l/2, 0, 0)),
		k.Transform(k.Box(w, l, w), spatial.Translation(0, l/2, 0)),
	)
	solid = k.Union(solid, k.Transform(k.Box(w, w, l), spatial.Translation(0, 0, l/2)))

	if f.Type == multibody.Joint && int(f.ParentJoint) < m.NJoints() {
		if axis := m.Joints[f.ParentJoint].Kind.Axis(); axis >= 0 {
			hub := k.Cylinder(0.8*l, 1.5*w)
			solid = k.Union(solid, k.Transform(hub, spatial.NewSE3(axisFromZ(axis), spatial.Vec3[float64]{})))
		}
	}

	if f.Inertia.Mass > 0 {
		c := f.Inertia.Lever
		sphere := k.Sphere(MassRadius(f.Inertia.Mass, opts.Density))
		solid = k.Union(solid, k.Transform(sphere, spatial.Translation(c.X, c.Y, c.Z)))
	}
	return solid
}

// axisFromZ returns the rotation taking the z axis onto the given principal
// axis.
func axisFromZ(axis int) spatial.Mat3[float64] {
	switch axis {
	case 0:
		return spatial.RotationAxis(1, math.Pi/2)
	case 1:
		return spatial.RotationAxis(0, -math.Pi/2)
	default:
		return spatial.Identity3[float64]()
	}
}

// MassRadius returns the radius of a sphere of the given mass and density.
func MassRadius(mass, density float64) float64 {
	return math.Cbrt(3 * mass / (4 * math.Pi * density))
}
