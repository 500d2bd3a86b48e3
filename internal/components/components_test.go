package components

import (
	"testing"

	"drivesim/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func TestRegisteredKinds(t *testing.T) {
	names := engine.RegisteredComponents()
	for _, want := range []string{KindBoxCollider, KindMeshRenderer, KindPlaneCollider, KindRigidbody, KindSphereCollider} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected %q to be registered", want)
		}
	}
}

func TestRigidbodyFromProps(t *testing.T) {
	c := engine.CreateComponent(KindRigidbody, map[string]any{
		"mass":       800,
		"useGravity": false,
		"particle":   true,
		"velocity":   []any{1, 0, 0.5},
	})
	rb, ok := c.(*Rigidbody)
	if !ok {
		t.Fatal("Expected *Rigidbody")
	}
	if rb.Mass != 800 {
		t.Errorf("Expected mass 800, got %f", rb.Mass)
	}
	if rb.UseGravity {
		t.Error("UseGravity should be false")
	}
	if !rb.Particle {
		t.Error("Particle should be true")
	}
	if rb.Velocity != (rl.Vector3{X: 1, Y: 0, Z: 0.5}) {
		t.Errorf("Expected velocity (1, 0, 0.5), got %v", rb.Velocity)
	}
	if rb.Friction != 1 {
		t.Errorf("Expected default friction 1, got %f", rb.Friction)
	}
}

func TestColliderRoundTrip(t *testing.T) {
	box := NewBoxCollider(rl.Vector3{X: 2, Y: 0.5, Z: 4})
	box.Offset = rl.Vector3{Y: 0.25}

	name, props, ok := engine.SerializeComponent(box)
	if !ok || name != KindBoxCollider {
		t.Fatalf("Expected %q, got %q (ok=%v)", KindBoxCollider, name, ok)
	}
	back := engine.CreateComponent(name, props).(*BoxCollider)
	if back.Size != box.Size || back.Offset != box.Offset {
		t.Errorf("Expected %v/%v, got %v/%v", box.Size, box.Offset, back.Size, back.Offset)
	}
}

func TestMeshRendererFromProps(t *testing.T) {
	c := engine.CreateComponent(KindMeshRenderer, map[string]any{
		"mesh":  "sphere",
		"color": []any{255, 0, 0},
		"size":  []any{0.4, 0.4, 0.4},
	})
	m := c.(*MeshRenderer)
	if m.MeshType != MeshSphere {
		t.Errorf("Expected sphere mesh, got %v", m.MeshType)
	}
	if m.Color.R != 255 || m.Color.G != 0 || m.Color.A != 255 {
		t.Errorf("Expected opaque red, got %v", m.Color)
	}
}

func TestSphereColliderCenterFollowsTransform(t *testing.T) {
	obj := engine.NewGameObject("Ball")
	obj.Transform.Position = rl.Vector3{X: 1, Y: 2, Z: 3}
	obj.Transform.Scale = rl.Vector3{X: 2, Y: 2, Z: 2}
	s := NewSphereCollider(0.5)
	s.Offset = rl.Vector3{Y: 1}
	obj.AddComponent(s)

	got := s.GetCenter()
	want := rl.Vector3{X: 1, Y: 4, Z: 3}
	if rl.Vector3Distance(got, want) > 1e-5 {
		t.Errorf("Expected center %v, got %v", want, got)
	}
}
