package main

import (
	"fmt"
	"io"
	"math"

	"github.com/chazu/ligament/pkg/kinematics"
	"github.com/chazu/ligament/pkg/model"
	"github.com/chazu/ligament/pkg/multibody"
	"github.com/chazu/ligament/pkg/spatial"
)

func writeSummary(w io.Writer, m *model.Model[float64]) {
	fmt.Fprintf(w, "model %s: %d joints, %d frames, nq %d\n", m.Name, m.NJoints(), m.NFrames(), m.NQ())
}

// writeFrames prints each frame selected by mask followed by its world
// placement in d.
func writeFrames(w io.Writer, m *model.Model[float64], d *kinematics.Data[float64], mask multibody.FrameTypeMask) {
	for _, id := range m.FramesOfType(mask) {
		f := m.Frames[id]
		fmt.Fprintf(w, "[%d] %s", id, f)
		if m.Merged(id) {
			fmt.Fprintln(w, "inertia merged into parent joint")
		}
		fmt.Fprintf(w, "world placement:\n%s\n", d.OMf[id])
	}
}

// float32Deviation poses a float32 copy of m at q and returns the largest
// absolute difference between its frame placements and those in d, along
// with the frame where it occurs.
func float32Deviation(m *model.Model[float64], d *kinematics.Data[float64], q []float64) (float64, string, error) {
	m32 := model.CastModel[float32](m)
	q32 := kinematics.Neutral(m32)
	for i := range q {
		q32[i] = float32(q[i])
	}
	d32 := kinematics.NewData(m32)
	if err := kinematics.FramesForwardKinematics(m32, d32, q32); err != nil {
		return 0, "", err
	}

	worst, name := -1.0, ""
	for i := range m.Frames {
		if dev := placementDeviation(d.OMf[i], spatial.CastSE3[float64](d32.OMf[i])); dev > worst {
			worst, name = dev, m.Frames[i].Name
		}
	}
	return worst, name, nil
}

func placementDeviation(a, b spatial.SE3[float64]) float64 {
	var dev float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			dev = math.Max(dev, math.Abs(a.Rotation[r][c]-b.Rotation[r][c]))
		}
	}
	dt := a.Translation.Sub(b.Translation)
	dev = math.Max(dev, math.Abs(dt.X))
	dev = math.Max(dev, math.Abs(dt.Y))
	dev = math.Max(dev, math.Abs(dt.Z))
	return dev
}
