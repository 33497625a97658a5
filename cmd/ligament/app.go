package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/chazu/ligament/pkg/engine"
	"github.com/chazu/ligament/pkg/kernel"
	"github.com/chazu/ligament/pkg/kernel/sdfx"
	"github.com/chazu/ligament/pkg/kinematics"
	"github.com/chazu/ligament/pkg/model"
	"github.com/chazu/ligament/pkg/modelfile"
	"github.com/chazu/ligament/pkg/multibody"
	"github.com/chazu/ligament/pkg/tessellate"
)

// typeColors assigns a display color to each frame category.
var typeColors = map[multibody.FrameType]string{
	multibody.OperationalFrame: "#E67E22",
	multibody.Joint:            "#4A90D9",
	multibody.FixedJoint:       "#9B59B6",
	multibody.Body:             "#2ECC71",
	multibody.Sensor:           "#E74C3C",
}

// App ties the front-ends, kinematics and the geometry kernel together.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
}

// MeshData is the JSON-serializable mesh format written by -mesh-out.
type MeshData struct {
	Vertices      []float32  `json:"vertices"`
	Normals       []float32  `json:"normals"`
	Indices       []uint32   `json:"indices"`
	Frame         string     `json:"frame"`
	Type          string     `json:"type"`
	Color         string     `json:"color"`
	VertexCount   int        `json:"vertexCount"`
	TriangleCount int        `json:"triangleCount"`
	Min           [3]float32 `json:"min"`
	Max           [3]float32 `json:"max"`
}

// EvalErrorData is a located model source error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

func (e EvalErrorData) String() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// LoadResult is the outcome of loading a model description. Model is nil
// whenever Errors is non-empty.
type LoadResult struct {
	Model  *model.Model[float64]
	Errors []EvalErrorData
}

// NewApp creates a new App with an engine and an sdfx kernel meshing at the
// given resolution.
func NewApp(cells int) *App {
	return &App{
		engine: engine.NewEngine(),
		kernel: sdfx.NewWithResolution(cells),
	}
}

// Load reads a model from a .toml description or from DSL source in any
// other file.
func (a *App) Load(path string) LoadResult {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		m, err := modelfile.Load(path)
		if err != nil {
			return LoadResult{Errors: []EvalErrorData{{Message: err.Error()}}}
		}
		return LoadResult{Model: m}
	}
	source, err := readFile(path)
	if err != nil {
		return LoadResult{Errors: []EvalErrorData{{Message: err.Error()}}}
	}
	return a.Evaluate(source)
}

// Evaluate builds a model from DSL source.
func (a *App) Evaluate(source string) LoadResult {
	m, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Error().Err(err).Msg("evaluate failed")
		return LoadResult{Errors: []EvalErrorData{{Message: err.Error()}}}
	}
	if len(evalErrs) > 0 {
		result := LoadResult{}
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}
	return LoadResult{Model: m}
}

// Pose runs forward kinematics at q, or at the neutral configuration when q
// is empty.
func (a *App) Pose(m *model.Model[float64], q []float64) (*kinematics.Data[float64], error) {
	if len(q) == 0 {
		q = kinematics.Neutral(m)
	}
	d := kinematics.NewData(m)
	if err := kinematics.FramesForwardKinematics(m, d, q); err != nil {
		return nil, err
	}
	return d, nil
}

// Mesh tessellates the frames selected by mask at the pose in d. A zero
// mask selects every frame.
func (a *App) Mesh(m *model.Model[float64], d *kinematics.Data[float64], mask multibody.FrameTypeMask) ([]MeshData, error) {
	if mask == 0 {
		mask = multibody.MaskAll
	}
	meshes, err := tessellate.Frames(m, d, a.kernel, tessellate.Options{Mask: mask})
	if err != nil {
		return nil, err
	}

	ids := m.FramesOfType(mask)
	out := make([]MeshData, 0, len(meshes))
	for i, mesh := range meshes {
		typ := m.Frames[ids[i]].Type
		lo, hi := mesh.Bounds()
		out = append(out, MeshData{
			Vertices:      mesh.Vertices,
			Normals:       mesh.Normals,
			Indices:       mesh.Indices,
			Frame:         mesh.PartName,
			Type:          typ.String(),
			Color:         typeColors[typ],
			VertexCount:   mesh.VertexCount(),
			TriangleCount: mesh.TriangleCount(),
			Min:           lo,
			Max:           hi,
		})
	}
	log.Debug().Int("meshes", len(out)).Msg("frames tessellated")
	return out, nil
}
