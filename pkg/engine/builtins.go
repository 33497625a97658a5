package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/ligament/pkg/model"
	"github.com/chazu/ligament/pkg/multibody"
	"github.com/chazu/ligament/pkg/spatial"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms model source code before passing it to
// zygomys. It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: joint-frame -> joint_frame
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
//  3. Line comments: ; and ;; become //, which is what zygomys accepts.
//
// All transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a spatial.Vec3.
type sexpVec3 struct {
	vec spatial.Vec3[float64]
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpPlacement wraps a rigid placement.
type sexpPlacement struct {
	se3 spatial.SE3[float64]
}

func (p *sexpPlacement) SexpString(ps *zygo.PrintState) string {
	t := p.se3.Translation
	return fmt.Sprintf("(placement :at (vec3 %g %g %g))", t.X, t.Y, t.Z)
}
func (p *sexpPlacement) Type() *zygo.RegisteredType { return nil }

// sexpInertia wraps a spatial inertia.
type sexpInertia struct {
	in spatial.Inertia[float64]
}

func (i *sexpInertia) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(inertia :mass %g)", i.in.Mass)
}
func (i *sexpInertia) Type() *zygo.RegisteredType { return nil }

// sexpJointRef is returned by `joint` and accepted wherever a joint is.
type sexpJointRef struct {
	id   multibody.JointIndex
	name string
}

func (j *sexpJointRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(joint %q %d)", j.name, j.id)
}
func (j *sexpJointRef) Type() *zygo.RegisteredType { return nil }

// sexpFrameRef is returned by the frame builtins.
type sexpFrameRef struct {
	id   multibody.FrameIndex
	name string
}

func (f *sexpFrameRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(frame %q %d)", f.name, f.id)
}
func (f *sexpFrameRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
// A keyword whose value is itself a keyword, such as :type :body, keeps
// that keyword as its value.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toBool accepts true/false and treats a bare trailing flag as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toFloats extracts exactly n numbers from a list or array.
func toFloats(s zygo.Sexp, n int) ([]float64, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	if len(items) != n {
		return nil, fmt.Errorf("expected %d numbers, got %d", n, len(items))
	}
	out := make([]float64, n)
	for i, item := range items {
		if out[i], err = toFloat64(item); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// toVec3 extracts a Vec3 from a sexpVec3 or a three-element list/array.
func toVec3(s zygo.Sexp) (spatial.Vec3[float64], error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	f, err := toFloats(s, 3)
	if err != nil {
		return spatial.Vec3[float64]{}, fmt.Errorf("expected vec3: %w", err)
	}
	return spatial.V3(f[0], f[1], f[2]), nil
}

// toPlacement extracts a placement from a sexpPlacement. A bare vec3 is read
// as a pure translation.
func toPlacement(s zygo.Sexp) (spatial.SE3[float64], error) {
	switch v := s.(type) {
	case *sexpPlacement:
		return v.se3, nil
	case *sexpVec3:
		return spatial.NewSE3(spatial.Identity3[float64](), v.vec), nil
	}
	return spatial.SE3[float64]{}, fmt.Errorf("expected placement, got %T (%s)", s, s.SexpString(nil))
}

// toInertia extracts an inertia from a sexpInertia.
func toInertia(s zygo.Sexp) (spatial.Inertia[float64], error) {
	if v, ok := s.(*sexpInertia); ok {
		return v.in, nil
	}
	return spatial.Inertia[float64]{}, fmt.Errorf("expected inertia, got %T (%s)", s, s.SexpString(nil))
}

// toJoint resolves a joint reference, a joint name or a joint index.
func toJoint(m *model.Model[float64], s zygo.Sexp) (multibody.JointIndex, error) {
	switch v := s.(type) {
	case *sexpJointRef:
		return v.id, nil
	case *zygo.SexpInt:
		return multibody.JointIndex(v.Val), nil
	case *zygo.SexpStr:
		return m.JointID(v.S)
	}
	return 0, fmt.Errorf("expected joint, got %T (%s)", s, s.SexpString(nil))
}

// toFrame resolves a frame reference, a frame name or a frame index. Names
// resolve to the first frame of any type.
func toFrame(m *model.Model[float64], s zygo.Sexp) (multibody.FrameIndex, error) {
	switch v := s.(type) {
	case *sexpFrameRef:
		return v.id, nil
	case *zygo.SexpInt:
		return multibody.FrameIndex(v.Val), nil
	case *zygo.SexpStr:
		return m.FrameID(v.S, multibody.MaskAll)
	}
	return 0, fmt.Errorf("expected frame, got %T (%s)", s, s.SexpString(nil))
}

// frameRef builds the Sexp returned for a registered frame.
func frameRef(m *model.Model[float64], id multibody.FrameIndex) *sexpFrameRef {
	return &sexpFrameRef{id: id, name: m.Frames[id].Name}
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs all model DSL builtins into a zygomys
// environment. The builtins operate on the provided Model, populating it
// during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, m *model.Model[float64]) {

	// -----------------------------------------------------------------------
	// (defmodel "arm")
	// -----------------------------------------------------------------------
	env.AddFunction("defmodel", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("defmodel requires a name argument")
		}
		s, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defmodel: name: %w", err)
		}
		m.Name = s
		return &zygo.SexpStr{S: s}, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}

		return &sexpVec3{vec: spatial.V3(x, y, z)}, nil
	})

	// -----------------------------------------------------------------------
	// (placement :at (vec3 0 0 0.5) :rpy (vec3 0 0 90))
	//
	// :rpy is roll, pitch and yaw in degrees.
	// -----------------------------------------------------------------------
	env.AddFunction("placement", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var at, rpy spatial.Vec3[float64]

		if v, ok := pa.kw["at"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("placement: at: %w", err)
			}
			at = vec
		}
		if v, ok := pa.kw["rpy"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("placement: rpy: %w", err)
			}
			rpy = vec
		}

		se3 := spatial.FromRPY(spatial.Deg(rpy.X), spatial.Deg(rpy.Y), spatial.Deg(rpy.Z), at)
		return &sexpPlacement{se3: se3}, nil
	})

	// -----------------------------------------------------------------------
	// (inertia :mass 2 :com (vec3 0 0 0.1) :sphere 0.05)
	// (inertia :mass 2 :box [0.1 0.2 0.3])
	// (inertia :mass 2 :cylinder [0.05 0.4])     ; radius length, axis z
	// (inertia :mass 2 :diag [0.1 0.1 0.02])
	//
	// The shape gives the rotational inertia about the center of mass.
	// Without a shape the mass is a point at :com.
	// -----------------------------------------------------------------------
	env.AddFunction("inertia", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		v, ok := pa.kw["mass"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("inertia requires :mass")
		}
		mass, err := toFloat64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("inertia: mass: %w", err)
		}

		var com spatial.Vec3[float64]
		if v, ok := pa.kw["com"]; ok {
			if com, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("inertia: com: %w", err)
			}
		}

		var in spatial.Inertia[float64]
		shapes := 0
		if v, ok := pa.kw["sphere"]; ok {
			shapes++
			r, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("inertia: sphere: %w", err)
			}
			in = spatial.InertiaFromSphere(mass, r)
		}
		if v, ok := pa.kw["box"]; ok {
			shapes++
			size, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("inertia: box: %w", err)
			}
			in = spatial.InertiaFromBox(mass, size.X, size.Y, size.Z)
		}
		if v, ok := pa.kw["cylinder"]; ok {
			shapes++
			f, err := toFloats(v, 2)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("inertia: cylinder: %w", err)
			}
			in = spatial.InertiaFromCylinder(mass, f[0], f[1])
		}
		if v, ok := pa.kw["diag"]; ok {
			shapes++
			d, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("inertia: diag: %w", err)
			}
			in = spatial.NewInertia(mass, com, spatial.Diag(d.X, d.Y, d.Z))
		}
		switch shapes {
		case 0:
			in = spatial.NewInertia(mass, com, spatial.Symmetric3[float64]{})
		case 1:
		default:
			return zygo.SexpNull, fmt.Errorf("inertia: at most one of :sphere, :box, :cylinder, :diag")
		}
		in.Lever = com

		return &sexpInertia{in: in}, nil
	})

	// -----------------------------------------------------------------------
	// (joint "elbow" :kind :revolute-y :parent shoulder :placement p)
	//
	// :parent defaults to the universe; :placement to identity.
	// -----------------------------------------------------------------------
	env.AddFunction("joint", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("joint requires a name argument")
		}
		jointName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("joint: name: %w", err)
		}

		v, ok := pa.kw["kind"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("joint %q: missing :kind", jointName)
		}
		ks, err := toKeywordString(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("joint %q: kind: %w", jointName, err)
		}
		kind, err := model.ParseJointKind(ks)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("joint %q: %w", jointName, err)
		}

		var parent multibody.JointIndex
		if v, ok := pa.kw["parent"]; ok {
			if parent, err = toJoint(m, v); err != nil {
				return zygo.SexpNull, fmt.Errorf("joint %q: parent: %w", jointName, err)
			}
		}
		placement := spatial.Identity[float64]()
		if v, ok := pa.kw["placement"]; ok {
			if placement, err = toPlacement(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("joint %q: placement: %w", jointName, err)
			}
		}

		id, err := m.AddJoint(parent, kind, placement, jointName)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpJointRef{id: id, name: jointName}, nil
	})

	// -----------------------------------------------------------------------
	// (joint-frame elbow :previous shoulder-frame)
	//
	// Registered as "joint_frame"; the preprocessor rewrites the hyphen.
	// -----------------------------------------------------------------------
	env.AddFunction("joint_frame", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("joint-frame requires a joint argument")
		}
		j, err := toJoint(m, pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("joint-frame: %w", err)
		}
		var previous []multibody.FrameIndex
		if v, ok := pa.kw["previous"]; ok {
			f, err := toFrame(m, v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("joint-frame: previous: %w", err)
			}
			previous = append(previous, f)
		}
		id, err := m.AddJointFrame(j, previous...)
		if err != nil {
			return zygo.SexpNull, err
		}
		return frameRef(m, id), nil
	})

	// -----------------------------------------------------------------------
	// (frame "tool" :joint elbow :type :op-frame :parent-frame f
	//        :placement p :inertia i :merge true)
	//
	// :type defaults to op-frame, :parent-frame to the universe frame.
	// :merge folds the frame inertia into the parent joint after
	// registration; it is never implied by :type.
	// -----------------------------------------------------------------------
	env.AddFunction("frame", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("frame requires a name argument")
		}
		frameName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("frame: name: %w", err)
		}

		v, ok := pa.kw["joint"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("frame %q: missing :joint", frameName)
		}
		joint, err := toJoint(m, v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("frame %q: joint: %w", frameName, err)
		}

		typ := multibody.OperationalFrame
		if v, ok := pa.kw["type"]; ok {
			ts, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("frame %q: type: %w", frameName, err)
			}
			if typ, err = multibody.ParseFrameType(ts); err != nil {
				return zygo.SexpNull, fmt.Errorf("frame %q: %w", frameName, err)
			}
		}

		parentFrame := multibody.RootFrame
		if v, ok := pa.kw["parent-frame"]; ok {
			if parentFrame, err = toFrame(m, v); err != nil {
				return zygo.SexpNull, fmt.Errorf("frame %q: parent-frame: %w", frameName, err)
			}
		}
		placement := spatial.Identity[float64]()
		if v, ok := pa.kw["placement"]; ok {
			if placement, err = toPlacement(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("frame %q: placement: %w", frameName, err)
			}
		}
		var inertia spatial.Inertia[float64]
		if v, ok := pa.kw["inertia"]; ok {
			if inertia, err = toInertia(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("frame %q: inertia: %w", frameName, err)
			}
		}
		merge := false
		if v, ok := pa.kw["merge"]; ok {
			if merge, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("frame %q: merge: %w", frameName, err)
			}
		}

		f := multibody.NewChainedFrame(frameName, joint, parentFrame, placement, typ, inertia)
		id, err := m.AddFrame(f)
		if err != nil {
			return zygo.SexpNull, err
		}
		if merge {
			if err := m.MergeFrameInertia(id); err != nil {
				return zygo.SexpNull, err
			}
		}
		return frameRef(m, id), nil
	})

	// -----------------------------------------------------------------------
	// (body "forearm" elbow :placement p :inertia i :previous f)
	//
	// Appends the inertia to the joint at the placement, then registers a
	// Body frame there. The frame itself carries no inertia.
	// -----------------------------------------------------------------------
	env.AddFunction("body", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 2 {
			return zygo.SexpNull, fmt.Errorf("body requires a name and a joint")
		}
		bodyName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("body: name: %w", err)
		}
		joint, err := toJoint(m, pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("body %q: %w", bodyName, err)
		}

		placement := spatial.Identity[float64]()
		if v, ok := pa.kw["placement"]; ok {
			if placement, err = toPlacement(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("body %q: placement: %w", bodyName, err)
			}
		}
		var previous []multibody.FrameIndex
		if v, ok := pa.kw["previous"]; ok {
			f, err := toFrame(m, v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("body %q: previous: %w", bodyName, err)
			}
			previous = append(previous, f)
		}
		var inertia *spatial.Inertia[float64]
		if v, ok := pa.kw["inertia"]; ok {
			in, err := toInertia(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("body %q: inertia: %w", bodyName, err)
			}
			inertia = &in
		}

		// A repeated identical body resolves to the existing frame and must
		// not add its inertia again.
		n := multibody.FrameIndex(m.NFrames())
		id, err := m.AddBodyFrame(bodyName, joint, placement, previous...)
		if err != nil {
			return zygo.SexpNull, err
		}
		if inertia != nil && id == n {
			if err := m.AppendBodyToJoint(joint, *inertia, placement); err != nil {
				return zygo.SexpNull, err
			}
		}
		return frameRef(m, id), nil
	})

	// -----------------------------------------------------------------------
	// (merge-inertia payload)
	// -----------------------------------------------------------------------
	env.AddFunction("merge_inertia", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("merge-inertia requires a frame argument")
		}
		id, err := toFrame(m, args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("merge-inertia: %w", err)
		}
		if err := m.MergeFrameInertia(id); err != nil {
			return zygo.SexpNull, err
		}
		return frameRef(m, id), nil
	})

	// -----------------------------------------------------------------------
	// (frame-id "tool" :types "op-frame|sensor")
	// -----------------------------------------------------------------------
	env.AddFunction("frame_id", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("frame-id requires a name argument")
		}
		frameName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("frame-id: name: %w", err)
		}
		mask := multibody.MaskAll
		if v, ok := pa.kw["types"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("frame-id: types: %w", err)
			}
			if mask, err = multibody.ParseFrameTypeMask(s); err != nil {
				return zygo.SexpNull, fmt.Errorf("frame-id: %w", err)
			}
		}
		id, err := m.FrameID(frameName, mask)
		if err != nil {
			return zygo.SexpNull, err
		}
		return frameRef(m, id), nil
	})
}
