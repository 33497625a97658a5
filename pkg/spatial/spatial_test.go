package spatial

import (
	"math"
	"strings"
	"testing"
)

func TestComposeInverse(t *testing.T) {
	m := FromRPY(0.3, -0.7, 1.2, V3(1.0, -2.0, 0.5))
	got := m.Compose(m.Inverse())
	if !got.IsApprox(Identity[float64](), 1e-12) {
		t.Fatalf("m * m^-1 = \n%s, want identity", got)
	}
	got = m.Inverse().Compose(m)
	if !got.IsApprox(Identity[float64](), 1e-12) {
		t.Fatalf("m^-1 * m = \n%s, want identity", got)
	}
}

func TestComposeActsInOrder(t *testing.T) {
	a := Translation(1.0, 0, 0)
	b := FromRPY(0, 0, math.Pi/2, Vec3[float64]{})
	p := V3(1.0, 0, 0)

	// b rotates first, then a translates.
	got := a.Compose(b).ActPoint(p)
	want := V3(1.0, 1.0, 0)
	if !got.IsApprox(want, 1e-12) {
		t.Errorf("ActPoint = %v, want %v", got, want)
	}
}

func TestRPYRoundTrip(t *testing.T) {
	tests := []struct {
		name             string
		roll, pitch, yaw float64
	}{
		{"zero", 0, 0, 0},
		{"roll only", 0.4, 0, 0},
		{"mixed", 0.3, -0.7, 1.2},
		{"negative yaw", -0.1, 0.2, -2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := FromRPY(tt.roll, tt.pitch, tt.yaw, Vec3[float64]{})
			r, p, y := m.RPY()
			if math.Abs(r-tt.roll) > 1e-12 || math.Abs(p-tt.pitch) > 1e-12 || math.Abs(y-tt.yaw) > 1e-12 {
				t.Errorf("RPY() = (%g, %g, %g), want (%g, %g, %g)", r, p, y, tt.roll, tt.pitch, tt.yaw)
			}
		})
	}
}

func TestRotationOrthonormal(t *testing.T) {
	m := FromRPY(0.3, -0.7, 1.2, V3(1.0, 2.0, 3.0))
	if !m.IsRotationOrthonormal(1e-12) {
		t.Error("rotation from RPY should be orthonormal")
	}
	bad := m
	bad.Rotation[0][0] = 2
	if bad.IsRotationOrthonormal(1e-6) {
		t.Error("scaled rotation reported orthonormal")
	}
	mirror := Identity[float64]()
	mirror.Rotation[2][2] = -1
	if mirror.IsRotationOrthonormal(1e-12) {
		t.Error("reflection reported as a rotation")
	}
}

func TestSE3EqualIsExact(t *testing.T) {
	a := FromRPY(0.1, 0.2, 0.3, V3(1.0, 2.0, 3.0))
	b := a
	if !a.Equal(b) {
		t.Fatal("copy should be equal")
	}
	b.Translation.X = math.Nextafter(b.Translation.X, 2)
	if a.Equal(b) {
		t.Error("one ulp difference should break exact equality")
	}
	if !a.IsApprox(b, 1e-9) {
		t.Error("one ulp difference should be approximately equal")
	}
}

func TestCastSE3(t *testing.T) {
	a := FromRPY(0.1, 0.2, 0.3, V3(1.0, 2.0, 3.0))
	if got := CastSE3[float64](a); !got.Equal(a) {
		t.Error("same-precision cast changed the transform")
	}
	narrow := CastSE3[float32](a)
	back := CastSE3[float64](narrow)
	if !back.IsApprox(a, 1e-6) {
		t.Errorf("float32 round trip drifted:\n%s\nvs\n%s", back, a)
	}
	if !CastSE3[float32](back).Equal(narrow) {
		t.Error("widening then narrowing should reproduce the float32 value")
	}
}

func TestInertiaAddMatchesCombinedBody(t *testing.T) {
	// Two point-ish spheres on the x axis.
	a := InertiaFromSphere(2.0, 0.1)
	b := InertiaFromSphere(2.0, 0.1)
	a.Lever = V3(-1.0, 0, 0)
	b.Lever = V3(1.0, 0, 0)

	sum := a.Add(b)
	if sum.Mass != 4 {
		t.Fatalf("mass = %g, want 4", sum.Mass)
	}
	if !sum.Lever.IsApprox(Vec3[float64]{}, 1e-15) {
		t.Errorf("lever = %v, want origin", sum.Lever)
	}
	sphere := 2.0 / 5 * 2 * 0.01
	// Parallel axis: each sphere contributes m d^2 = 2 about y and z.
	want := Diag(2*sphere, 2*sphere+4, 2*sphere+4)
	if !sum.Rotational.IsApprox(want, 1e-12) {
		t.Errorf("rotational = %v, want %v", sum.Rotational, want)
	}
}

func TestInertiaAddZero(t *testing.T) {
	a := InertiaFromBox(3.0, 1, 2, 3)
	a.Lever = V3(0.5, 0, 0)
	if got := a.Add(ZeroInertia[float64]()); !got.IsApprox(a, 1e-15) {
		t.Errorf("a + 0 = %v, want %v", got, a)
	}
	z := ZeroInertia[float64]().Add(ZeroInertia[float64]())
	if !z.IsZero() {
		t.Errorf("0 + 0 = %v, want zero", z)
	}
}

func TestActInertia(t *testing.T) {
	in := InertiaFromCylinder(1.0, 0.1, 1.0)
	m := FromRPY(math.Pi/2, 0, 0, V3(0, 0, 2.0))
	got := m.ActInertia(in)
	if got.Mass != in.Mass {
		t.Errorf("mass changed: %g", got.Mass)
	}
	if !got.Lever.IsApprox(V3(0, 0, 2.0), 1e-12) {
		t.Errorf("lever = %v", got.Lever)
	}
	// Rolling by 90 degrees swaps the y and z principal moments.
	if math.Abs(got.Rotational[2]-in.Rotational[5]) > 1e-12 || math.Abs(got.Rotational[5]-in.Rotational[2]) > 1e-12 {
		t.Errorf("rotational = %v, from %v", got.Rotational, in.Rotational)
	}
}

func TestStringRendering(t *testing.T) {
	s := Identity[float64]().String()
	if !strings.Contains(s, "R =") || !strings.Contains(s, "p = 0 0 0") {
		t.Errorf("unexpected SE3 string:\n%s", s)
	}
	s = InertiaFromSphere(1.5, 1.0).String()
	if !strings.Contains(s, "m = 1.5") {
		t.Errorf("unexpected inertia string:\n%s", s)
	}
}
