// Command ligament loads a kinematic model, poses it and reports its frames.
//
//	ligament -model examples/arm.lisp -q 0.5,-0.3 -types body,op-frame
//	ligament -model examples/arm.toml -validate
//	ligament -model examples/arm.toml -mesh-out arm.json
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/chazu/ligament/internal/logging"
	"github.com/chazu/ligament/pkg/kernel/sdfx"
	"github.com/chazu/ligament/pkg/model"
	"github.com/chazu/ligament/pkg/multibody"
)

// errInvalidModel is returned when loading or validation reports errors.
var errInvalidModel = errors.New("invalid model")

func main() {
	logging.ConfigureRuntime()
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal().Err(err).Msg("ligament failed")
	}
}

type options struct {
	model    string
	q        string
	types    string
	validate bool
	f32      bool
	mesh     bool
	meshOut  string
	cells    int
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("ligament", flag.ContinueOnError)
	fs.StringVar(&o.model, "model", "", "model description (.toml, or DSL source otherwise)")
	fs.StringVar(&o.q, "q", "", "comma-separated configuration (defaults to neutral)")
	fs.StringVar(&o.types, "types", "", "frame types to report: joint|fixed-joint|body|op-frame|sensor, separated by | or ,")
	fs.BoolVar(&o.validate, "validate", false, "validate the model and exit")
	fs.BoolVar(&o.f32, "f32", false, "report the placement error of a float32 copy of the model")
	fs.BoolVar(&o.mesh, "mesh", false, "tessellate frame markers and report triangle counts")
	fs.StringVar(&o.meshOut, "mesh-out", "", "write frame marker meshes as JSON to this path")
	fs.IntVar(&o.cells, "cells", sdfx.DefaultMeshCells, "marching cubes resolution for meshing")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.model == "" {
		return o, errors.New("-model is required")
	}
	return o, nil
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	mask, err := multibody.ParseFrameTypeMask(opts.types)
	if err != nil {
		return err
	}
	q, err := parseConfiguration(opts.q)
	if err != nil {
		return err
	}

	app := NewApp(opts.cells)
	loaded := app.Load(opts.model)
	if len(loaded.Errors) > 0 {
		for _, e := range loaded.Errors {
			fmt.Fprintln(stdout, e)
		}
		return fmt.Errorf("%w: %s", errInvalidModel, opts.model)
	}
	m := loaded.Model
	log.Info().Str("model", m.Name).Int("joints", m.NJoints()).Int("frames", m.NFrames()).Msg("model loaded")

	findings := model.Validate(m)
	for _, f := range findings {
		fmt.Fprintln(stdout, f)
	}
	if opts.validate {
		if model.HasErrors(findings) {
			return fmt.Errorf("%w: %d findings", errInvalidModel, len(findings))
		}
		fmt.Fprintf(stdout, "model %s is valid\n", m.Name)
		return nil
	}

	d, err := app.Pose(m, q)
	if err != nil {
		return err
	}
	writeSummary(stdout, m)
	writeFrames(stdout, m, d, mask)

	if opts.f32 {
		worst, name, err := float32Deviation(m, d, q)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "float32 max placement deviation: %.3g (frame %q)\n", worst, name)
	}

	if opts.mesh || opts.meshOut != "" {
		meshes, err := app.Mesh(m, d, mask)
		if err != nil {
			return err
		}
		if opts.mesh {
			for _, md := range meshes {
				fmt.Fprintf(stdout, "mesh %-16s %-12s %d vertices %d triangles bounds %v %v\n",
					md.Frame, md.Type, md.VertexCount, md.TriangleCount, md.Min, md.Max)
			}
		}
		if opts.meshOut != "" {
			if err := writeMeshes(opts.meshOut, meshes); err != nil {
				return err
			}
			log.Info().Str("path", opts.meshOut).Int("meshes", len(meshes)).Msg("meshes written")
		}
	}
	return nil
}

func parseConfiguration(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	q := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("configuration value %q: %w", p, err)
		}
		q = append(q, v)
	}
	return q, nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read model: %w", err)
	}
	return string(data), nil
}

func writeMeshes(path string, meshes []MeshData) error {
	data, err := json.Marshal(meshes)
	if err != nil {
		return fmt.Errorf("encode meshes: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write meshes: %w", err)
	}
	return nil
}
