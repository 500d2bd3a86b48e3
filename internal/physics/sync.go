package physics

import (
	"slices"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Synchronizer copies body poses onto the spatials' local transforms after
// every step. Objects are processed ancestors first, and each parent's world
// transform is read from the scene graph at that moment, so a parent synced
// earlier in the same pass is already at its new pose.
type Synchronizer struct {
	BaseUpdateAction
	objects []*DynamicPhysicsObject
}

func NewSynchronizer() *Synchronizer {
	return &Synchronizer{}
}

func (s *Synchronizer) Register(o *DynamicPhysicsObject) {
	if slices.Contains(s.objects, o) {
		return
	}
	s.objects = append(s.objects, o)
}

func (s *Synchronizer) Unregister(o *DynamicPhysicsObject) {
	if i := slices.Index(s.objects, o); i >= 0 {
		s.objects = slices.Delete(s.objects, i, i+1)
	}
}

func (s *Synchronizer) Len() int { return len(s.objects) }

func (s *Synchronizer) AfterStep(*PhysicsWorld) {
	s.SyncAll()
}

// SyncAll writes every enabled object's body pose into its spatial.
func (s *Synchronizer) SyncAll() {
	slices.SortStableFunc(s.objects, func(a, b *DynamicPhysicsObject) int {
		return a.spatial.Depth() - b.spatial.Depth()
	})
	for _, o := range s.objects {
		if !o.enabled {
			continue
		}
		o.refreshScale()
		SyncToGraphical(o)
	}
}

// SyncToGraphical sets the spatial's local transform so that, composed with
// its parent's world transform, it reproduces the body's world pose:
// local position = R⁻¹·(p − P) ⊘ S and local rotation = R⁻¹·q.
func SyncToGraphical(o *DynamicPhysicsObject) {
	pos := o.Position()
	rot := rl.QuaternionNormalize(o.Rotation())
	spatial := o.spatial

	parent := spatial.Parent
	if parent == nil {
		spatial.Transform.Position = pos
		spatial.Transform.Rotation = rot
		return
	}

	inv := rl.QuaternionInvert(rl.QuaternionNormalize(parent.WorldRotation()))
	local := rl.Vector3RotateByQuaternion(rl.Vector3Subtract(pos, parent.WorldPosition()), inv)
	scale := parent.WorldScale()
	local = rl.Vector3{X: safeDiv(local.X, scale.X), Y: safeDiv(local.Y, scale.Y), Z: safeDiv(local.Z, scale.Z)}

	spatial.Transform.Position = local
	spatial.Transform.Rotation = rl.QuaternionNormalize(rl.QuaternionMultiply(inv, rot))
}

func safeDiv(a, b float32) float32 {
	if b == 0 {
		return a
	}
	return a / b
}
