package components

import (
	"drivesim/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type MeshType int

const (
	MeshCube MeshType = iota
	MeshSphere
	MeshPlane
)

func (m MeshType) String() string {
	switch m {
	case MeshSphere:
		return "sphere"
	case MeshPlane:
		return "plane"
	}
	return "cube"
}

func parseMeshType(s string) MeshType {
	switch s {
	case "sphere":
		return MeshSphere
	case "plane":
		return MeshPlane
	}
	return MeshCube
}

type MeshRenderer struct {
	engine.BaseComponent
	MeshType  MeshType
	Color     rl.Color
	Size      rl.Vector3 // cube size, sphere radius in X, plane extent in X/Z
	Wireframe bool
}

func NewMeshRenderer(meshType MeshType, color rl.Color, size rl.Vector3) *MeshRenderer {
	return &MeshRenderer{
		MeshType: meshType,
		Color:    color,
		Size:     size,
	}
}

// Draw renders the primitive with the object's full world transform. Must be
// called between BeginMode3D and EndMode3D.
func (m *MeshRenderer) Draw() {
	g := m.GetGameObject()
	if g == nil || !g.Active {
		return
	}

	pos := g.WorldPosition()
	scale := g.WorldScale()
	var axis rl.Vector3
	var angle float32
	rl.QuaternionToAxisAngle(g.WorldRotation(), &axis, &angle)

	rl.PushMatrix()
	rl.Translatef(pos.X, pos.Y, pos.Z)
	rl.Rotatef(angle*rl.Rad2deg, axis.X, axis.Y, axis.Z)
	rl.Scalef(scale.X, scale.Y, scale.Z)

	switch m.MeshType {
	case MeshCube:
		rl.DrawCubeV(rl.Vector3{}, m.Size, m.Color)
		rl.DrawCubeWiresV(rl.Vector3{}, m.Size, rl.Black)
	case MeshSphere:
		if m.Wireframe {
			rl.DrawSphereWires(rl.Vector3{}, m.Size.X, 8, 8, m.Color)
		} else {
			rl.DrawSphere(rl.Vector3{}, m.Size.X, m.Color)
		}
	case MeshPlane:
		rl.DrawPlane(rl.Vector3{}, rl.Vector2{X: m.Size.X, Y: m.Size.Z}, m.Color)
	}
	rl.PopMatrix()
}

func meshRendererFromProps(props map[string]any) engine.Component {
	s := engine.PropVector3(props, "size", [3]float32{1, 1, 1})
	c := engine.PropVector3(props, "color", [3]float32{200, 200, 200})
	m := NewMeshRenderer(
		parseMeshType(engine.PropString(props, "mesh", "cube")),
		rl.Color{R: uint8(c[0]), G: uint8(c[1]), B: uint8(c[2]), A: 255},
		rl.Vector3{X: s[0], Y: s[1], Z: s[2]},
	)
	m.Wireframe = engine.PropBool(props, "wireframe", false)
	return m
}

func meshRendererToProps(c engine.Component) map[string]any {
	m, ok := c.(*MeshRenderer)
	if !ok {
		return nil
	}
	return map[string]any{
		"mesh":      m.MeshType.String(),
		"color":     []float32{float32(m.Color.R), float32(m.Color.G), float32(m.Color.B)},
		"size":      []float32{m.Size.X, m.Size.Y, m.Size.Z},
		"wireframe": m.Wireframe,
	}
}
