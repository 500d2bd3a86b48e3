package dynamics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type JointKind int

const (
	BallJoint JointKind = iota
	HingeJoint
	Hinge2Joint
	SliderJoint
	UniversalJoint
	AMotorJoint
	FixedJoint
)

func (k JointKind) String() string {
	switch k {
	case BallJoint:
		return "ball"
	case HingeJoint:
		return "hinge"
	case Hinge2Joint:
		return "hinge2"
	case SliderJoint:
		return "slider"
	case UniversalJoint:
		return "universal"
	case AMotorJoint:
		return "amotor"
	case FixedJoint:
		return "fixed"
	}
	return fmt.Sprintf("JointKind(%d)", int(k))
}

// Param identifies a joint parameter. Parameters of the second and third
// axis are offset by a fixed group size.
type Param int

const paramGroup = 0x100

const (
	ParamLoStop Param = iota
	ParamHiStop
	ParamVel
	ParamFMax
	ParamCFM
	ParamStopERP
	ParamStopCFM
	ParamSuspensionERP
	ParamSuspensionCFM
)

const (
	ParamLoStop2 = ParamLoStop + paramGroup
	ParamHiStop2 = ParamHiStop + paramGroup
	ParamVel2    = ParamVel + paramGroup
	ParamFMax2   = ParamFMax + paramGroup
	ParamCFM2    = ParamCFM + paramGroup

	ParamLoStop3 = ParamLoStop + 2*paramGroup
	ParamHiStop3 = ParamHiStop + 2*paramGroup
	ParamVel3    = ParamVel + 2*paramGroup
	ParamFMax3   = ParamFMax + 2*paramGroup
	ParamCFM3    = ParamCFM + 2*paramGroup
)

// AMotor axis frames.
const (
	FrameGlobal = iota
	FrameBody1
	FrameBody2
)

// axisParams are the motor and stop settings of one joint axis. Negative ERP
// and CFM values fall back to the world defaults.
type axisParams struct {
	loStop, hiStop float64
	vel, fmax      float64
	cfm            float64
	stopERP        float64
	stopCFM        float64
}

func defaultAxisParams() axisParams {
	return axisParams{
		loStop:  -Infinity,
		hiStop:  Infinity,
		cfm:     -1,
		stopERP: -1,
		stopCFM: -1,
	}
}

// Joint constrains the relative motion of two bodies. A nil body stands for
// the static world. Angles and rates measure body2 relative to body1.
type Joint struct {
	kind  JointKind
	world *World

	b1, b2   *Body
	attached bool

	anchor1, anchor2 mgl64.Vec3 // body-local anchors (world coordinates for a nil body)
	axis1, axis2     mgl64.Vec3 // axis1 in body1 frame, axis2 in body2 frame
	ref1, ref2       mgl64.Vec3 // angle references in body1 and body2 frames
	qrel             mgl64.Quat // rest rotation of body2 relative to body1
	c0               float64    // rest axis1·axis2

	amotorAxes   [3]mgl64.Vec3
	amotorFrames [3]int
	amotorNum    int

	params        [3]axisParams
	suspensionERP float64
	suspensionCFM float64

	Data any
}

func newJoint(w *World, kind JointKind) *Joint {
	j := &Joint{
		kind:          kind,
		world:         w,
		qrel:          mgl64.QuatIdent(),
		suspensionERP: w.erp,
		suspensionCFM: w.cfm,
	}
	for i := range j.params {
		j.params[i] = defaultAxisParams()
	}
	return j
}

func (j *Joint) Kind() JointKind { return j.kind }

func (j *Joint) Attached() bool { return j.attached }

func (j *Joint) Bodies() (*Body, *Body) { return j.b1, j.b2 }

// Attach binds the joint to two bodies; either may be nil for the world.
// Anchors and axes are reset to defaults at body1's position.
func (j *Joint) Attach(b1, b2 *Body) {
	if j.world == nil {
		return
	}
	j.Detach()
	if b1 == nil && b2 != nil {
		// keep body1 non-nil so axis frames live on a body
		b1, b2 = b2, nil
	}
	j.b1, j.b2 = b1, b2
	j.attached = true
	if b1 != nil {
		b1.joints = append(b1.joints, j)
	}
	if b2 != nil {
		b2.joints = append(b2.joints, j)
	}

	anchor := mgl64.Vec3{}
	if b1 != nil {
		anchor = b1.pos
	}
	switch j.kind {
	case FixedJoint, SliderJoint:
		if b2 != nil {
			anchor = b2.pos
		}
	}
	j.SetAnchor(anchor)
	switch j.kind {
	case HingeJoint, SliderJoint:
		j.SetAxis1(mgl64.Vec3{1, 0, 0})
	case Hinge2Joint:
		j.SetAxis1(mgl64.Vec3{0, 1, 0})
		j.SetAxis2(mgl64.Vec3{1, 0, 0})
	case UniversalJoint:
		j.SetAxis1(mgl64.Vec3{1, 0, 0})
		j.SetAxis2(mgl64.Vec3{0, 1, 0})
	}
	j.captureRelativeRotation()
}

// Detach releases both bodies; the joint can be attached again.
func (j *Joint) Detach() {
	if !j.attached {
		return
	}
	if j.b1 != nil {
		j.b1.detachJoint(j)
	}
	if j.b2 != nil {
		j.b2.detachJoint(j)
	}
	j.b1, j.b2 = nil, nil
	j.attached = false
}

// Destroy detaches the joint and removes it from its world.
func (j *Joint) Destroy() {
	j.Detach()
	if j.world != nil {
		j.world.removeJoint(j)
		j.world = nil
	}
}

func pointToWorld(b *Body, p mgl64.Vec3) mgl64.Vec3 {
	if b == nil {
		return p
	}
	return b.pos.Add(b.rot.Rotate(p))
}

func pointToLocal(b *Body, p mgl64.Vec3) mgl64.Vec3 {
	if b == nil {
		return p
	}
	return b.rot.Conjugate().Rotate(p.Sub(b.pos))
}

func vecToWorld(b *Body, v mgl64.Vec3) mgl64.Vec3 {
	if b == nil {
		return v
	}
	return b.rot.Rotate(v)
}

func vecToLocal(b *Body, v mgl64.Vec3) mgl64.Vec3 {
	if b == nil {
		return v
	}
	return b.rot.Conjugate().Rotate(v)
}

func bodyRot(b *Body) mgl64.Quat {
	if b == nil {
		return mgl64.QuatIdent()
	}
	return b.rot
}

func bodyAngVel(b *Body) mgl64.Vec3 {
	if b == nil {
		return mgl64.Vec3{}
	}
	return b.angVel
}

func bodyLinVel(b *Body) mgl64.Vec3 {
	if b == nil {
		return mgl64.Vec3{}
	}
	return b.linVel
}

// SetAnchor sets the joint anchor in world coordinates. Slider joints ignore it.
func (j *Joint) SetAnchor(p mgl64.Vec3) {
	j.anchor1 = pointToLocal(j.b1, p)
	j.anchor2 = pointToLocal(j.b2, p)
	if j.kind == Hinge2Joint || j.kind == UniversalJoint {
		j.updateRestDot()
	}
}

// Anchor returns the anchor point as seen from body1.
func (j *Joint) Anchor() mgl64.Vec3 { return pointToWorld(j.b1, j.anchor1) }

// Anchor2 returns the anchor point as seen from body2.
func (j *Joint) Anchor2() mgl64.Vec3 { return pointToWorld(j.b2, j.anchor2) }

// SetAxis1 sets the first axis in world coordinates: the hinge axis, the
// slider direction, or the steering axis of a hinge2.
func (j *Joint) SetAxis1(a mgl64.Vec3) {
	if a.Len() < 1e-9 {
		return
	}
	a = a.Normalize()
	j.axis1 = vecToLocal(j.b1, a)
	switch j.kind {
	case HingeJoint:
		j.axis2 = vecToLocal(j.b2, a)
		p, _ := planeSpace(a)
		j.ref1 = vecToLocal(j.b1, p)
		j.ref2 = vecToLocal(j.b2, p)
	case SliderJoint:
		if j.b2 != nil {
			j.anchor1 = pointToLocal(j.b1, j.b2.pos)
		} else {
			j.anchor1 = pointToLocal(j.b1, mgl64.Vec3{})
		}
		j.captureRelativeRotation()
	case Hinge2Joint, UniversalJoint:
		j.updateRestDot()
	}
}

// SetAxis2 sets the second axis in world coordinates: the wheel spin axis of
// a hinge2, or the second cross axis of a universal joint.
func (j *Joint) SetAxis2(a mgl64.Vec3) {
	if a.Len() < 1e-9 {
		return
	}
	a = a.Normalize()
	j.axis2 = vecToLocal(j.b2, a)
	j.updateRestDot()
}

func (j *Joint) Axis1() mgl64.Vec3 { return vecToWorld(j.b1, j.axis1) }

func (j *Joint) Axis2() mgl64.Vec3 { return vecToWorld(j.b2, j.axis2) }

func (j *Joint) updateRestDot() {
	if j.axis1.Len() == 0 || j.axis2.Len() == 0 {
		return
	}
	a1, a2 := j.Axis1(), j.Axis2()
	j.c0 = a1.Dot(a2)
	// steering reference: axis2 projected off axis1, fixed to body1
	p := a2.Sub(a1.Mul(a1.Dot(a2)))
	if p.Len() < 1e-9 {
		p, _ = planeSpace(a1)
	}
	j.ref1 = vecToLocal(j.b1, p.Normalize())
}

// SetFixed records the current relative pose as the one to hold.
func (j *Joint) SetFixed() {
	if j.b2 != nil {
		j.SetAnchor(j.b2.pos)
	}
	j.captureRelativeRotation()
}

func (j *Joint) captureRelativeRotation() {
	j.qrel = bodyRot(j.b1).Conjugate().Mul(bodyRot(j.b2)).Normalize()
}

// SetAMotorNumAxes sets how many axes an angular motor drives (0..3).
func (j *Joint) SetAMotorNumAxes(n int) {
	j.amotorNum = max(0, min(n, 3))
}

// SetAMotorAxis sets axis i of an angular motor in world coordinates, fixed
// to the given frame (FrameGlobal, FrameBody1 or FrameBody2).
func (j *Joint) SetAMotorAxis(i, frame int, a mgl64.Vec3) {
	checkAxis(i)
	a = a.Normalize()
	switch frame {
	case FrameBody1:
		a = vecToLocal(j.b1, a)
	case FrameBody2:
		a = vecToLocal(j.b2, a)
	}
	j.amotorAxes[i] = a
	j.amotorFrames[i] = frame
}

func (j *Joint) amotorAxis(i int) mgl64.Vec3 {
	switch j.amotorFrames[i] {
	case FrameBody1:
		return vecToWorld(j.b1, j.amotorAxes[i])
	case FrameBody2:
		return vecToWorld(j.b2, j.amotorAxes[i])
	}
	return j.amotorAxes[i]
}

func checkAxis(i int) {
	if i < 0 || i > 2 {
		panic(fmt.Sprintf("dynamics: joint axis %d out of range", i))
	}
}

// SetParam sets a motor, stop or suspension parameter.
func (j *Joint) SetParam(p Param, v float64) {
	switch p {
	case ParamSuspensionERP:
		j.suspensionERP = v
		return
	case ParamSuspensionCFM:
		j.suspensionCFM = v
		return
	}
	axis := int(p) / paramGroup
	checkAxis(axis)
	ap := &j.params[axis]
	switch Param(int(p) % paramGroup) {
	case ParamLoStop:
		ap.loStop = v
	case ParamHiStop:
		ap.hiStop = v
	case ParamVel:
		ap.vel = v
	case ParamFMax:
		ap.fmax = v
	case ParamCFM:
		ap.cfm = v
	case ParamStopERP:
		ap.stopERP = v
	case ParamStopCFM:
		ap.stopCFM = v
	}
}

func (j *Joint) Param(p Param) float64 {
	switch p {
	case ParamSuspensionERP:
		return j.suspensionERP
	case ParamSuspensionCFM:
		return j.suspensionCFM
	}
	axis := int(p) / paramGroup
	checkAxis(axis)
	ap := j.params[axis]
	switch Param(int(p) % paramGroup) {
	case ParamLoStop:
		return ap.loStop
	case ParamHiStop:
		return ap.hiStop
	case ParamVel:
		return ap.vel
	case ParamFMax:
		return ap.fmax
	case ParamCFM:
		return ap.cfm
	case ParamStopERP:
		return ap.stopERP
	case ParamStopCFM:
		return ap.stopCFM
	}
	return 0
}

// Angle returns the joint angle about axis i: hinge angle (0), hinge2
// steering angle (0), slider position (0). Other axes report 0.
func (j *Joint) Angle(i int) float64 {
	checkAxis(i)
	if !j.attached || i != 0 {
		return 0
	}
	switch j.kind {
	case HingeJoint:
		a := j.Axis1()
		r1, r2 := vecToWorld(j.b1, j.ref1), vecToWorld(j.b2, j.ref2)
		return math.Atan2(a.Dot(r1.Cross(r2)), r1.Dot(r2))
	case Hinge2Joint:
		a1 := j.Axis1()
		r1 := vecToWorld(j.b1, j.ref1)
		a2 := j.Axis2()
		r2 := a2.Sub(a1.Mul(a1.Dot(a2)))
		return math.Atan2(a1.Dot(r1.Cross(r2)), r1.Dot(r2))
	case SliderJoint:
		return j.sliderPosition()
	}
	return 0
}

// AngleRate returns the relative angular (or slider linear) rate about axis i.
func (j *Joint) AngleRate(i int) float64 {
	checkAxis(i)
	if !j.attached {
		return 0
	}
	rel := bodyAngVel(j.b2).Sub(bodyAngVel(j.b1))
	switch j.kind {
	case HingeJoint:
		if i == 0 {
			return j.Axis1().Dot(rel)
		}
	case Hinge2Joint, UniversalJoint:
		switch i {
		case 0:
			return j.Axis1().Dot(rel)
		case 1:
			return j.Axis2().Dot(rel)
		}
	case SliderJoint:
		if i == 0 {
			a := j.Axis1()
			p2 := j.sliderPoint()
			v1 := bodyLinVel(j.b1)
			if j.b1 != nil {
				v1 = j.b1.PointVel(p2)
			}
			return a.Dot(bodyLinVel(j.b2).Sub(v1))
		}
	case AMotorJoint:
		if i < j.amotorNum {
			return j.amotorAxis(i).Dot(rel)
		}
	}
	return 0
}

func (j *Joint) sliderPoint() mgl64.Vec3 {
	if j.b2 != nil {
		return j.b2.pos
	}
	return mgl64.Vec3{}
}

func (j *Joint) sliderPosition() float64 {
	p1 := pointToWorld(j.b1, j.anchor1)
	return j.Axis1().Dot(j.sliderPoint().Sub(p1))
}

func (j *Joint) erpCFM() (float64, float64) {
	if j.world == nil {
		return DefaultERP, DefaultCFM
	}
	return j.world.erp, j.world.cfm
}

// linearRow constrains the velocity of the point p2 (on body2, lever r2)
// relative to p1 (on body1, lever r1) along e.
func linearRow(b1, b2 *Body, e, r1, r2 mgl64.Vec3) row {
	return row{
		b1: b1, b2: b2,
		j1l: e.Mul(-1), j1a: r1.Cross(e).Mul(-1),
		j2l: e, j2a: r2.Cross(e),
		lo: -Infinity, hi: Infinity,
		friction: -1,
	}
}

// angularRow constrains the relative angular velocity of body2 about u.
func angularRow(b1, b2 *Body, u mgl64.Vec3) row {
	return row{
		b1: b1, b2: b2,
		j1a: u.Mul(-1), j2a: u,
		lo: -Infinity, hi: Infinity,
		friction: -1,
	}
}

func lever(b *Body, p mgl64.Vec3) mgl64.Vec3 {
	if b == nil {
		return mgl64.Vec3{}
	}
	return p.Sub(b.pos)
}

// anchorRows keeps the two anchors together along each of dirs.
func (j *Joint) anchorRows(rows []row, dirs []mgl64.Vec3, erp, cfm, dt float64) []row {
	p1 := pointToWorld(j.b1, j.anchor1)
	p2 := pointToWorld(j.b2, j.anchor2)
	r1, r2 := lever(j.b1, p1), lever(j.b2, p2)
	c := p2.Sub(p1)
	for _, e := range dirs {
		r := linearRow(j.b1, j.b2, e, r1, r2)
		r.rhs = -erp / dt * e.Dot(c)
		r.cfm = cfm / dt
		rows = append(rows, r)
	}
	return rows
}

var worldAxes = []mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// rotationRows locks the relative rotation to the captured rest rotation.
func (j *Joint) rotationRows(rows []row, erp, cfm, dt float64) []row {
	want := bodyRot(j.b1).Mul(j.qrel)
	e := bodyRot(j.b2).Mul(want.Conjugate())
	if e.W < 0 {
		e = e.Scale(-1)
	}
	theta := e.V.Mul(2)
	for k, u := range worldAxes {
		r := angularRow(j.b1, j.b2, u)
		r.rhs = -erp / dt * theta[k]
		r.cfm = cfm / dt
		rows = append(rows, r)
	}
	return rows
}

// dotRow keeps axis1·axis2 at its rest value while leaving rotation about
// both axes free.
func (j *Joint) dotRow(rows []row, erp, cfm, dt float64) []row {
	a1, a2 := j.Axis1(), j.Axis2()
	cross := a1.Cross(a2)
	s := cross.Len()
	if s < 1e-9 {
		return rows
	}
	r := angularRow(j.b1, j.b2, cross.Mul(1/s))
	r.rhs = erp / dt * (a1.Dot(a2) - j.c0) / s
	r.cfm = cfm / dt
	return append(rows, r)
}

// limitMotorRows adds the powered and stop rows of one axis. base carries the
// jacobian; pos is the current angle or position along it.
func (j *Joint) limitMotorRows(rows []row, base row, ap axisParams, pos float64, limited bool, dt float64) []row {
	erp, cfm := j.erpCFM()
	if ap.cfm >= 0 {
		cfm = ap.cfm
	}
	stopERP, stopCFM := erp, cfm
	if ap.stopERP >= 0 {
		stopERP = ap.stopERP
	}
	if ap.stopCFM >= 0 {
		stopCFM = ap.stopCFM
	}

	locked := limited && ap.loStop == ap.hiStop
	if ap.fmax > 0 && !locked {
		r := base
		r.rhs = ap.vel
		r.cfm = cfm / dt
		r.lo, r.hi = -ap.fmax*dt, ap.fmax*dt
		rows = append(rows, r)
	}
	if !limited {
		return rows
	}
	r := base
	r.cfm = stopCFM / dt
	switch {
	case locked:
		r.rhs = stopERP / dt * (ap.loStop - pos)
	case pos <= ap.loStop:
		r.rhs = stopERP / dt * (ap.loStop - pos)
		r.lo, r.hi = 0, Infinity
	case pos >= ap.hiStop:
		r.rhs = stopERP / dt * (ap.hiStop - pos)
		r.lo, r.hi = -Infinity, 0
	default:
		return rows
	}
	return append(rows, r)
}

func (j *Joint) appendRows(rows []row, dt float64) []row {
	if !j.attached || (!j.b1.movable() && !j.b2.movable()) {
		return rows
	}
	erp, cfm := j.erpCFM()

	switch j.kind {
	case BallJoint:
		rows = j.anchorRows(rows, worldAxes, erp, cfm, dt)

	case HingeJoint:
		rows = j.anchorRows(rows, worldAxes, erp, cfm, dt)
		a1, a2 := j.Axis1(), j.Axis2()
		misalign := a1.Cross(a2)
		p, q := planeSpace(a1)
		for _, u := range [2]mgl64.Vec3{p, q} {
			r := angularRow(j.b1, j.b2, u)
			r.rhs = -erp / dt * u.Dot(misalign)
			r.cfm = cfm / dt
			rows = append(rows, r)
		}
		rows = j.limitMotorRows(rows, angularRow(j.b1, j.b2, a1), j.params[0], j.Angle(0), true, dt)

	case Hinge2Joint:
		a1 := j.Axis1()
		p, q := planeSpace(a1)
		rows = j.anchorRows(rows, []mgl64.Vec3{a1}, j.suspensionERP, j.suspensionCFM, dt)
		rows = j.anchorRows(rows, []mgl64.Vec3{p, q}, erp, cfm, dt)
		rows = j.dotRow(rows, erp, cfm, dt)
		rows = j.limitMotorRows(rows, angularRow(j.b1, j.b2, a1), j.params[0], j.Angle(0), true, dt)
		rows = j.limitMotorRows(rows, angularRow(j.b1, j.b2, j.Axis2()), j.params[1], 0, false, dt)

	case SliderJoint:
		rows = j.rotationRows(rows, erp, cfm, dt)
		a := j.Axis1()
		p1 := pointToWorld(j.b1, j.anchor1)
		p2 := j.sliderPoint()
		r1 := lever(j.b1, p2)
		c := p2.Sub(p1)
		p, q := planeSpace(a)
		for _, e := range [2]mgl64.Vec3{p, q} {
			r := linearRow(j.b1, j.b2, e, r1, mgl64.Vec3{})
			r.rhs = -erp / dt * e.Dot(c)
			r.cfm = cfm / dt
			rows = append(rows, r)
		}
		rows = j.limitMotorRows(rows, linearRow(j.b1, j.b2, a, r1, mgl64.Vec3{}), j.params[0], a.Dot(c), true, dt)

	case UniversalJoint:
		rows = j.anchorRows(rows, worldAxes, erp, cfm, dt)
		rows = j.dotRow(rows, erp, cfm, dt)
		rows = j.limitMotorRows(rows, angularRow(j.b1, j.b2, j.Axis1()), j.params[0], 0, false, dt)
		rows = j.limitMotorRows(rows, angularRow(j.b1, j.b2, j.Axis2()), j.params[1], 0, false, dt)

	case FixedJoint:
		rows = j.anchorRows(rows, worldAxes, erp, cfm, dt)
		rows = j.rotationRows(rows, erp, cfm, dt)

	case AMotorJoint:
		for i := 0; i < j.amotorNum; i++ {
			rows = j.limitMotorRows(rows, angularRow(j.b1, j.b2, j.amotorAxis(i)), j.params[i], 0, false, dt)
		}
	}
	return rows
}
