package physics

import (
	"fmt"
	"math"

	"drivesim/internal/components"
	"drivesim/internal/dynamics"
	"drivesim/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// PhysicsObject pairs a game object with collision shapes. It is either a
// *StaticPhysicsObject or a *DynamicPhysicsObject.
type PhysicsObject interface {
	// Spatial returns the game object driven by (or driving) the physics state.
	Spatial() *engine.GameObject
	Enabled() bool
	SetEnabled(enabled bool)
	// InContact reports whether a contact touched the object in the last step.
	InContact() bool
	// Material returns the surface material, or nil when defaults apply.
	Material() *Material
	// SyncWithGraphical pushes the spatial's world pose into the physics state.
	SyncWithGraphical()

	base() *objectBase
}

// Material holds per-object surface properties offered to contact callbacks.
type Material struct {
	Friction float32
	Bounce   float32
}

type objectBase struct {
	spatial    *engine.GameObject
	shapes     []Shape
	geoms      []*dynamics.Geom
	builtScale rl.Vector3
	enabled    bool
	contact    bool
	material   *Material
	world      *PhysicsWorld

	warnedScale bool
}

func (o *objectBase) base() *objectBase { return o }

func (o *objectBase) Spatial() *engine.GameObject { return o.spatial }

func (o *objectBase) InContact() bool { return o.contact }

func (o *objectBase) Material() *Material { return o.material }

func (o *objectBase) SetMaterial(m *Material) { o.material = m }

func (o *objectBase) Enabled() bool { return o.enabled }

// Shapes returns the shape descriptors the geoms were built from.
func (o *objectBase) Shapes() []Shape { return o.shapes }

func (o *objectBase) setGeomsEnabled(enabled bool) {
	for _, g := range o.geoms {
		if enabled {
			g.Enable()
		} else {
			g.Disable()
		}
	}
}

func newObjectBase(spatial *engine.GameObject, shapes []Shape) (objectBase, error) {
	if spatial == nil {
		return objectBase{}, fmt.Errorf("nil spatial: %w", ErrNoBoundingVolume)
	}
	if len(shapes) == 0 {
		return objectBase{}, fmt.Errorf("%s: %w", spatial.Name, ErrNoBoundingVolume)
	}
	scale := spatial.WorldScale()
	for _, s := range shapes {
		if err := checkShape(s, scale); err != nil {
			return objectBase{}, fmt.Errorf("%s: %w", spatial.Name, err)
		}
	}
	return objectBase{
		spatial:    spatial,
		shapes:     shapes,
		builtScale: scale,
		enabled:    true,
	}, nil
}

func (o *objectBase) buildGeoms(owner PhysicsObject, body *dynamics.Body) {
	o.geoms = o.geoms[:0]
	for _, s := range o.shapes {
		g := buildGeom(s, o.builtScale)
		particle := false
		switch v := s.(type) {
		case SphereShape:
			particle = v.Particle
		case BoxShape:
			particle = v.Particle
		}
		g.Data = &geomInfo{object: owner, shape: s, particle: particle}
		if body != nil {
			g.SetBody(body)
			g.SetOffset(shapeOffset(s, o.builtScale))
		}
		o.geoms = append(o.geoms, g)
	}
}

// rescale rebuilds geom sizes when the spatial's world scale changed since
// the geoms were built. An invalid new scale is rejected and logged once.
func (o *objectBase) rescale() (bool, error) {
	scale := o.spatial.WorldScale()
	if rl.Vector3Distance(scale, o.builtScale) < scaleEpsilon {
		return false, nil
	}
	for _, s := range o.shapes {
		if err := checkShape(s, scale); err != nil {
			warnOnce(&o.warnedScale, "rejected scale change on %s: %v", o.spatial.Name, err)
			return false, err
		}
	}
	for i, s := range o.shapes {
		resizeGeom(o.geoms[i], s, scale)
		o.geoms[i].SetOffset(shapeOffset(s, scale))
	}
	o.builtScale = scale
	o.warnedScale = false
	return true, nil
}

// StaticPhysicsObject is immovable terrain: geoms without a body.
type StaticPhysicsObject struct {
	objectBase
}

func NewStaticPhysicsObject(spatial *engine.GameObject, shapes ...Shape) (*StaticPhysicsObject, error) {
	b, err := newObjectBase(spatial, shapes)
	if err != nil {
		return nil, err
	}
	o := &StaticPhysicsObject{objectBase: b}
	o.buildGeoms(o, nil)
	o.SyncWithGraphical()
	return o, nil
}

func (o *StaticPhysicsObject) SetEnabled(enabled bool) {
	o.enabled = enabled
	o.setGeomsEnabled(enabled)
}

func (o *StaticPhysicsObject) SyncWithGraphical() {
	o.rescale()
	pos := o.spatial.WorldPosition()
	rot := o.spatial.WorldRotation()
	for i, g := range o.geoms {
		if _, ok := o.shapes[i].(PlaneShape); ok {
			continue
		}
		off, offRot := shapeOffset(o.shapes[i], o.builtScale)
		g.SetPosition(toVec64(pos).Add(toQuat64(rot).Rotate(off)))
		g.SetRotation(toQuat64(rot).Mul(offRot))
	}
}

// DynamicPhysicsObject owns one rigid body for its whole life. The body is
// simulated only while the object is added to a PhysicsWorld.
type DynamicPhysicsObject struct {
	objectBase
	body *dynamics.Body
	mass float32

	warnedForce    bool
	warnedTorque   bool
	warnedVelocity bool
}

func NewDynamicPhysicsObject(spatial *engine.GameObject, mass float32, shapes ...Shape) (*DynamicPhysicsObject, error) {
	if !(mass > 0) || math.IsInf(float64(mass), 0) {
		return nil, fmt.Errorf("mass %v: %w", mass, ErrInvalidMass)
	}
	for _, s := range shapes {
		if _, ok := s.(PlaneShape); ok {
			return nil, ErrStaticPlane
		}
	}
	b, err := newObjectBase(spatial, shapes)
	if err != nil {
		return nil, err
	}
	o := &DynamicPhysicsObject{objectBase: b, body: dynamics.NewBody(), mass: mass}
	if err := o.body.SetMass(massOf(mass, shapes, b.builtScale)); err != nil {
		return nil, fmt.Errorf("%s: %w", spatial.Name, err)
	}
	o.body.Data = o
	o.buildGeoms(o, o.body)
	o.SyncWithGraphical()
	return o, nil
}

// FromGameObject builds a physics object from the object's collider
// components. A Rigidbody makes it dynamic; otherwise it is static.
func FromGameObject(g *engine.GameObject) (PhysicsObject, error) {
	var shapes []Shape
	for _, c := range g.Components() {
		switch col := c.(type) {
		case *components.SphereCollider:
			shapes = append(shapes, SphereShape{Radius: col.Radius, Offset: col.Offset, Particle: col.Particle})
		case *components.BoxCollider:
			shapes = append(shapes, BoxShape{Size: col.Size, Offset: col.Offset, Particle: col.Particle})
		case *components.PlaneCollider:
			shapes = append(shapes, PlaneShape{Normal: col.Normal, Distance: col.Distance})
		}
	}

	rb := engine.GetComponent[*components.Rigidbody](g)
	if rb == nil {
		o, err := NewStaticPhysicsObject(g, shapes...)
		if err != nil {
			return nil, err
		}
		return o, nil
	}
	if rb.Particle {
		for i, s := range shapes {
			switch v := s.(type) {
			case SphereShape:
				v.Particle = true
				shapes[i] = v
			case BoxShape:
				v.Particle = true
				shapes[i] = v
			}
		}
	}
	o, err := NewDynamicPhysicsObject(g, rb.Mass, shapes...)
	if err != nil {
		return nil, err
	}
	o.SetMaterial(&Material{Friction: rb.Friction, Bounce: rb.Bounciness})
	o.SetGravityEnabled(rb.UseGravity)
	o.body.SetDamping(float64(rb.LinearDamping), float64(rb.AngularDamping))
	o.SetLinearVelocity(rb.Velocity)
	return o, nil
}

func (o *DynamicPhysicsObject) Body() *dynamics.Body { return o.body }

func (o *DynamicPhysicsObject) Mass() float32 { return o.mass }

func (o *DynamicPhysicsObject) SetMass(mass float32) error {
	if !(mass > 0) || math.IsInf(float64(mass), 0) {
		return fmt.Errorf("mass %v: %w", mass, ErrInvalidMass)
	}
	if err := o.body.SetMass(massOf(mass, o.shapes, o.builtScale)); err != nil {
		return err
	}
	o.mass = mass
	return nil
}

// SetEnabled toggles the body and every geom, so a disabled object neither
// moves nor generates contacts.
func (o *DynamicPhysicsObject) SetEnabled(enabled bool) {
	o.enabled = enabled
	if enabled {
		o.body.Enable()
	} else {
		o.body.Disable()
	}
	o.setGeomsEnabled(enabled)
}

func (o *DynamicPhysicsObject) SyncWithGraphical() {
	o.refreshScale()
	o.body.SetPosition(toVec64(o.spatial.WorldPosition()))
	o.body.SetQuaternion(toQuat64(o.spatial.WorldRotation()))
}

// refreshScale rebuilds geoms and mass after a scale change of the spatial.
func (o *DynamicPhysicsObject) refreshScale() {
	changed, err := o.rescale()
	if err != nil || !changed {
		return
	}
	if err := o.body.SetMass(massOf(o.mass, o.shapes, o.builtScale)); err != nil {
		warnOnce(&o.warnedScale, "mass rebuild failed on %s: %v", o.spatial.Name, err)
	}
}

func (o *DynamicPhysicsObject) Position() rl.Vector3 { return fromVec64(o.body.Position()) }

func (o *DynamicPhysicsObject) Rotation() rl.Quaternion { return fromQuat64(o.body.Quaternion()) }

// Teleport moves the body to a world pose and clears its velocities.
func (o *DynamicPhysicsObject) Teleport(pos rl.Vector3, rot rl.Quaternion) {
	o.body.SetPosition(toVec64(pos))
	o.body.SetQuaternion(toQuat64(rot))
	o.ClearVelocities()
}

func (o *DynamicPhysicsObject) ClearVelocities() {
	o.body.SetLinearVel(toVec64(rl.Vector3{}))
	o.body.SetAngularVel(toVec64(rl.Vector3{}))
	o.body.SetForce(toVec64(rl.Vector3{}))
	o.body.SetTorque(toVec64(rl.Vector3{}))
}

func (o *DynamicPhysicsObject) LinearVelocity() rl.Vector3 { return fromVec64(o.body.LinearVel()) }

func (o *DynamicPhysicsObject) SetLinearVelocity(v rl.Vector3) {
	if !finite(v) {
		warnOnce(&o.warnedVelocity, "ignoring non-finite velocity on %s", o.spatial.Name)
		return
	}
	o.body.SetLinearVel(toVec64(v))
}

func (o *DynamicPhysicsObject) AngularVelocity() rl.Vector3 { return fromVec64(o.body.AngularVel()) }

func (o *DynamicPhysicsObject) SetAngularVelocity(v rl.Vector3) {
	if !finite(v) {
		warnOnce(&o.warnedVelocity, "ignoring non-finite velocity on %s", o.spatial.Name)
		return
	}
	o.body.SetAngularVel(toVec64(v))
}

func (o *DynamicPhysicsObject) Force() rl.Vector3 { return fromVec64(o.body.Force()) }

func (o *DynamicPhysicsObject) Torque() rl.Vector3 { return fromVec64(o.body.Torque()) }

// AddForce accumulates a world-space force for the next step. Non-finite
// forces are skipped and logged once.
func (o *DynamicPhysicsObject) AddForce(f rl.Vector3) {
	if !finite(f) {
		warnOnce(&o.warnedForce, "skipping non-finite force on %s", o.spatial.Name)
		return
	}
	o.body.AddForce(toVec64(f))
}

// AddForceAtPosition applies a world-space force at a world-space point.
func (o *DynamicPhysicsObject) AddForceAtPosition(f, p rl.Vector3) {
	if !finite(f) || !finite(p) {
		warnOnce(&o.warnedForce, "skipping non-finite force on %s", o.spatial.Name)
		return
	}
	o.body.AddForceAtPos(toVec64(f), toVec64(p))
}

func (o *DynamicPhysicsObject) AddTorque(t rl.Vector3) {
	if !finite(t) {
		warnOnce(&o.warnedTorque, "skipping non-finite torque on %s", o.spatial.Name)
		return
	}
	o.body.AddTorque(toVec64(t))
}

func (o *DynamicPhysicsObject) GravityEnabled() bool { return o.body.GravityEnabled() }

func (o *DynamicPhysicsObject) SetGravityEnabled(on bool) { o.body.SetGravityEnabled(on) }

// VectorToWorld rotates a body-local direction into world space.
func (o *DynamicPhysicsObject) VectorToWorld(v rl.Vector3) rl.Vector3 {
	return fromVec64(o.body.VectorToWorld(toVec64(v)))
}
