package engine

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/ligament/pkg/model"
	"github.com/chazu/ligament/pkg/multibody"
	"github.com/chazu/ligament/pkg/spatial"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(inertia :mass 2)`,
			expect: `(inertia "__kw_mass" 2)`,
		},
		{
			name:   "multiple keywords",
			input:  `(joint "j" :kind :revolute-z)`,
			expect: `(joint "j" "__kw_kind" "__kw_revolute-z")`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(joint-frame elbow :previous upper-arm)`,
			expect: `(joint_frame elbow "__kw_previous" upper_arm)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative number preserved",
			input:  `(vec3 0 -1 0)`,
			expect: `(vec3 0 -1 0)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:parent-frame`,
			expect: `"__kw_parent-frame"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Model construction
// ---------------------------------------------------------------------------

const armSource = `
(defmodel "arm")
(def shoulder (joint "shoulder" :kind :revolute-z :placement (placement :at (vec3 0 0 0.5))))
(def elbow (joint "elbow" :kind :revolute-y :parent shoulder
                  :placement (placement :at (vec3 0 0 0.4))))
(joint-frame shoulder)
(def elbow-frame (joint-frame elbow))
(frame "tool" :joint elbow :parent-frame elbow-frame
       :placement (placement :at (vec3 0 0 0.3)))
; payload mass is folded into the elbow explicitly
(frame "payload" :joint elbow :type :body :parent-frame elbow-frame
       :placement (placement :at (vec3 0 0 0.2))
       :inertia (inertia :mass 1.5 :sphere 0.05)
       :merge true)
`

// armModel builds the same model as armSource through the Go API.
func armModel(t *testing.T) *model.Model[float64] {
	t.Helper()
	m := model.New[float64]("arm")
	shoulder, err := m.AddJoint(0, model.JointRevoluteZ, spatial.Translation(0, 0, 0.5), "shoulder")
	if err != nil {
		t.Fatal(err)
	}
	elbow, err := m.AddJoint(shoulder, model.JointRevoluteY, spatial.Translation(0, 0, 0.4), "elbow")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.AddJointFrame(shoulder); err != nil {
		t.Fatal(err)
	}
	elbowFrame, err := m.AddJointFrame(elbow)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.AddFrame(multibody.NewChainedFrame("tool", elbow, elbowFrame, spatial.Translation(0, 0, 0.3), multibody.OperationalFrame)); err != nil {
		t.Fatal(err)
	}
	payload, err := m.AddFrame(multibody.NewChainedFrame("payload", elbow, elbowFrame, spatial.Translation(0, 0, 0.2), multibody.Body, spatial.InertiaFromSphere(1.5, 0.05)))
	if err != nil {
		t.Fatal(err)
	}
	if err := m.MergeFrameInertia(payload); err != nil {
		t.Fatal(err)
	}
	return m
}

func evalOK(t *testing.T, source string) *model.Model[float64] {
	t.Helper()
	m, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if m == nil {
		t.Fatal("expected non-nil model")
	}
	return m
}

func evalFails(t *testing.T, source, want string) {
	t.Helper()
	m, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if m != nil {
		t.Fatal("expected nil model on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}
	if !strings.Contains(evalErrs[0].Message, want) {
		t.Errorf("eval error %q does not mention %q", evalErrs[0].Message, want)
	}
}

func TestArmModel(t *testing.T) {
	m := evalOK(t, armSource)

	if m.Name != "arm" {
		t.Errorf("model name = %q, want arm", m.Name)
	}
	if m.NJoints() != 3 || m.NFrames() != 5 || m.NQ() != 2 {
		t.Fatalf("got %d joints, %d frames, nq %d", m.NJoints(), m.NFrames(), m.NQ())
	}
	if !m.Equal(armModel(t)) {
		t.Error("DSL model differs from the Go-built model")
	}

	tool, err := m.FrameID("tool", multibody.OperationalFrame.Mask())
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Frames[tool].ParentFrame; got != 2 {
		t.Errorf("tool parent frame = %d, want the elbow joint frame 2", got)
	}
	if got := m.Joints[2].Inertia.Mass; got != 1.5 {
		t.Errorf("elbow mass = %g, want 1.5 after merge", got)
	}
}

func TestVariableReference(t *testing.T) {
	m := evalOK(t, `
(def reach 0.75)
(def j (joint "slide" :kind :prismatic-x :placement (placement :at (vec3 reach 0 0))))
(frame "end" :joint j)
`)
	j, err := m.JointID("slide")
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Joints[j].Placement.Translation.X; got != 0.75 {
		t.Errorf("expected x=0.75 (from variable), got %g", got)
	}
	end, err := m.Frame("end", multibody.MaskAll)
	if err != nil {
		t.Fatal(err)
	}
	if end.Type != multibody.OperationalFrame || end.ParentFrame != multibody.RootFrame {
		t.Errorf("frame defaults: type %v, parent frame %d", end.Type, end.ParentFrame)
	}
}

func TestFrameWithoutMergeKeepsJointInertia(t *testing.T) {
	m := evalOK(t, `
(def j (joint "wrist" :kind :revolute-x))
(frame "payload" :joint j :type :body :inertia (inertia :mass 3 :box [0.1 0.2 0.3]))
`)
	if !m.Joints[1].Inertia.IsZero() {
		t.Errorf("registration merged inertia: %v", m.Joints[1].Inertia)
	}
	id, err := m.FrameID("payload", multibody.Body.Mask())
	if err != nil {
		t.Fatal(err)
	}
	if m.Merged(id) {
		t.Error("payload reported merged")
	}
	want := spatial.InertiaFromBox(3.0, 0.1, 0.2, 0.3)
	if !m.Frames[id].Inertia.Equal(want) {
		t.Errorf("payload inertia:\n%s\nwant\n%s", m.Frames[id].Inertia, want)
	}
}

func TestMergeInertiaBuiltin(t *testing.T) {
	m := evalOK(t, `
(def j (joint "wrist" :kind :revolute-x))
(def p (frame "payload" :joint j :type :body :placement (vec3 0 0 0.1)
              :inertia (inertia :mass 2 :com (vec3 0.1 0 0))))
(merge-inertia p)
`)
	got := m.Joints[1].Inertia
	if got.Mass != 2 || !got.Lever.IsApprox(spatial.V3(0.1, 0, 0.1), 1e-12) {
		t.Errorf("wrist inertia after merge:\n%s", got)
	}

	evalFails(t, `
(def j (joint "wrist" :kind :revolute-x))
(def p (frame "payload" :joint j :type :body :inertia (inertia :mass 2)))
(merge-inertia p)
(merge-inertia "payload")
`, "already merged")
}

func TestBodyAppendsToJoint(t *testing.T) {
	m := evalOK(t, `
(def j (joint "elbow" :kind :revolute-y))
(joint-frame j)
(body "forearm" j :placement (placement :at (vec3 0 0 0.2))
      :inertia (inertia :mass 1 :cylinder [0.03 0.4]))
`)
	if got := m.Joints[1].Inertia; got.Mass != 1 || !got.Lever.IsApprox(spatial.V3(0, 0, 0.2), 1e-12) {
		t.Errorf("elbow inertia:\n%s", got)
	}
	f, err := m.Frame("forearm", multibody.Body.Mask())
	if err != nil {
		t.Fatal(err)
	}
	if !f.Inertia.IsZero() {
		t.Error("body frame should not carry the appended inertia")
	}
	if f.ParentFrame != 1 {
		t.Errorf("forearm parent frame = %d, want the elbow joint frame 1", f.ParentFrame)
	}
}

func TestRepeatedBodyCountsInertiaOnce(t *testing.T) {
	m := evalOK(t, `
(def j (joint "elbow" :kind :revolute-y))
(joint-frame j)
(body "forearm" j :placement (placement :at (vec3 0 0 0.2))
      :inertia (inertia :mass 1 :cylinder [0.03 0.4]))
(body "forearm" j :placement (placement :at (vec3 0 0 0.2))
      :inertia (inertia :mass 1 :cylinder [0.03 0.4]))
`)
	if m.NFrames() != 3 {
		t.Errorf("expected 3 frames, got %d", m.NFrames())
	}
	if got := m.Joints[1].Inertia.Mass; got != 1 {
		t.Errorf("elbow mass = %v, want 1", got)
	}
}

func TestConflictingBodyIsRejected(t *testing.T) {
	evalFails(t, `
(def j (joint "elbow" :kind :revolute-y))
(body "forearm" j :placement (placement :at (vec3 0 0 0.2)) :inertia (inertia :mass 1))
(body "forearm" j :placement (placement :at (vec3 0 0 0.3)) :inertia (inertia :mass 1))
`, "forearm")
}

func TestPlacementDegrees(t *testing.T) {
	m := evalOK(t, `
(def j (joint "yawed" :kind :revolute-x :placement (placement :at (vec3 1 2 3) :rpy (vec3 0 0 90))))
`)
	p := m.Joints[1].Placement
	want := spatial.FromRPY(0, 0, math.Pi/2, spatial.V3(1.0, 2, 3))
	if !p.IsApprox(want, 1e-12) {
		t.Errorf("placement:\n%s\nwant\n%s", p, want)
	}
}

func TestFrameIDBuiltin(t *testing.T) {
	m := evalOK(t, armSource+`
(def f (frame-id "payload" :types "body"))
(frame "gauge" :joint "elbow" :type :sensor :parent-frame f)
`)
	gauge, err := m.Frame("gauge", multibody.Sensor.Mask())
	if err != nil {
		t.Fatal(err)
	}
	if gauge.ParentFrame != 4 {
		t.Errorf("gauge parent frame = %d, want payload 4", gauge.ParentFrame)
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "unknown joint kind",
			source: `(joint "j" :kind :spherical)`,
			want:   "invalid joint kind",
		},
		{
			name:   "missing kind",
			source: `(joint "j")`,
			want:   "missing :kind",
		},
		{
			name: "parent typo suggests name",
			source: `(joint "elbow" :kind :revolute-y)
(joint "wrist" :kind :revolute-x :parent "elbw")`,
			want: `did you mean "elbow"`,
		},
		{
			name: "duplicate joint",
			source: `(joint "elbow" :kind :revolute-y)
(joint "elbow" :kind :revolute-x)`,
			want: "duplicate joint name",
		},
		{
			name: "conflicting duplicate frame",
			source: `(joint "elbow" :kind :revolute-y)
(frame "tool" :joint "elbow" :placement (vec3 0 0 1))
(frame "tool" :joint "elbow" :placement (vec3 0 0 2))`,
			want: "duplicate frame",
		},
		{
			name:   "frame joint out of range",
			source: `(frame "tool" :joint 9)`,
			want:   "invalid joint index",
		},
		{
			name:   "unknown frame type",
			source: `(frame "tool" :joint 0 :type :camera)`,
			want:   "camera",
		},
		{
			name:   "two inertia shapes",
			source: `(inertia :mass 1 :sphere 0.1 :box [1 1 1])`,
			want:   "at most one",
		},
		{
			name:   "inertia without mass",
			source: `(inertia :sphere 0.1)`,
			want:   "requires :mass",
		},
		{
			name:   "vec3 arity",
			source: `(vec3 1 2)`,
			want:   "exactly 3 arguments",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evalFails(t, tt.source, tt.want)
		})
	}
}

func TestIdenticalFrameReturnsSameRef(t *testing.T) {
	m := evalOK(t, `
(joint "elbow" :kind :revolute-y)
(def a (frame "tool" :joint "elbow" :placement (vec3 0 0 1)))
(def b (frame "tool" :joint "elbow" :placement (vec3 0 0 1)))
(frame "check" :joint "elbow" :parent-frame b)
`)
	if m.NFrames() != 3 {
		t.Errorf("expected the identical frame to be registered once, got %d frames", m.NFrames())
	}
}

// ---------------------------------------------------------------------------
// Regressions
// ---------------------------------------------------------------------------

func TestEmptySourceStillWorks(t *testing.T) {
	m := evalOK(t, "")
	if m.NFrames() != 1 || m.NJoints() != 1 {
		t.Errorf("expected universe-only model, got %d joints and %d frames", m.NJoints(), m.NFrames())
	}
}

func TestArithmeticStillWorks(t *testing.T) {
	evalOK(t, "(+ 1 2)")
}
