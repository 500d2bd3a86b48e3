package engine

import (
	"sync/atomic"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var nextUID atomic.Uint64

type Transform struct {
	Position rl.Vector3
	Rotation rl.Quaternion
	Scale    rl.Vector3
}

// EulerDegrees returns the rotation as pitch/yaw/roll in degrees.
func (t Transform) EulerDegrees() rl.Vector3 {
	e := rl.QuaternionToEuler(t.Rotation)
	return rl.Vector3Scale(e, rl.Rad2deg)
}

// SetEulerDegrees sets the rotation from pitch/yaw/roll in degrees.
func (t *Transform) SetEulerDegrees(e rl.Vector3) {
	t.Rotation = rl.QuaternionFromEuler(e.X*rl.Deg2rad, e.Y*rl.Deg2rad, e.Z*rl.Deg2rad)
}

type GameObject struct {
	UID        uint64
	Name       string
	Tags       []string
	Transform  Transform
	Active     bool
	Scene      *Scene
	Parent     *GameObject
	Children   []*GameObject
	components []Component
	started    bool
}

func NewGameObject(name string) *GameObject {
	return &GameObject{
		UID:    nextUID.Add(1),
		Name:   name,
		Active: true,
		Transform: Transform{
			Position: rl.Vector3{},
			Rotation: rl.QuaternionIdentity(),
			Scale:    rl.Vector3{X: 1, Y: 1, Z: 1},
		},
		components: make([]Component, 0),
		Children:   make([]*GameObject, 0),
	}
}

func (g *GameObject) AddComponent(c Component) {
	c.SetGameObject(g)
	g.components = append(g.components, c)
}

// GetComponent returns the first component of type T, or the zero value.
func GetComponent[T Component](g *GameObject) T {
	var zero T
	for _, c := range g.components {
		if typed, ok := c.(T); ok {
			return typed
		}
	}
	return zero
}

func (g *GameObject) Start() {
	if g.started {
		return
	}
	for _, c := range g.components {
		c.Start()
	}
	g.started = true
}

func (g *GameObject) Update(deltaTime float32) {
	if !g.Active {
		return
	}
	for _, c := range g.components {
		c.Update(deltaTime)
	}
}

func (g *GameObject) Components() []Component {
	return g.components
}

func (g *GameObject) HasTag(tag string) bool {
	for _, t := range g.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (g *GameObject) AddChild(child *GameObject) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = g
	g.Children = append(g.Children, child)
}

func (g *GameObject) RemoveChild(child *GameObject) {
	for i, c := range g.Children {
		if c == child {
			g.Children = append(g.Children[:i], g.Children[i+1:]...)
			child.Parent = nil
			return
		}
	}
}

// Depth is the number of ancestors above the object.
func (g *GameObject) Depth() int {
	d := 0
	for p := g.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// WorldPosition composes the local position with every ancestor:
// parentPos + parentRot·(pos ⊙ parentScale).
func (g *GameObject) WorldPosition() rl.Vector3 {
	if g.Parent == nil {
		return g.Transform.Position
	}
	parentPos := g.Parent.WorldPosition()
	parentRot := g.Parent.WorldRotation()
	parentScale := g.Parent.WorldScale()

	scaled := rl.Vector3Multiply(g.Transform.Position, parentScale)
	rotated := rl.Vector3RotateByQuaternion(scaled, parentRot)
	return rl.Vector3Add(parentPos, rotated)
}

func (g *GameObject) WorldRotation() rl.Quaternion {
	if g.Parent == nil {
		return g.Transform.Rotation
	}
	return rl.QuaternionNormalize(rl.QuaternionMultiply(g.Parent.WorldRotation(), g.Transform.Rotation))
}

func (g *GameObject) WorldScale() rl.Vector3 {
	if g.Parent == nil {
		return g.Transform.Scale
	}
	return rl.Vector3Multiply(g.Parent.WorldScale(), g.Transform.Scale)
}

// WorldMatrix returns the full world transform, used by the renderer.
func (g *GameObject) WorldMatrix() rl.Matrix {
	s := g.WorldScale()
	p := g.WorldPosition()
	m := rl.MatrixScale(s.X, s.Y, s.Z)
	m = rl.MatrixMultiply(m, rl.QuaternionToMatrix(g.WorldRotation()))
	return rl.MatrixMultiply(m, rl.MatrixTranslate(p.X, p.Y, p.Z))
}
