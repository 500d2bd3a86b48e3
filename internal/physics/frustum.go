package physics

// FrustumPolicy disables dynamic objects that were not visible on the last
// rendered frame and re-enables them when they come back into view. It only
// ever re-enables objects it disabled itself.
type FrustumPolicy struct {
	disabled map[*DynamicPhysicsObject]bool
}

func NewFrustumPolicy() *FrustumPolicy {
	return &FrustumPolicy{disabled: make(map[*DynamicPhysicsObject]bool)}
}

// Observe reports the visibility of obj on the last frame. Static objects
// are ignored.
func (f *FrustumPolicy) Observe(obj PhysicsObject, visible bool) {
	d, ok := obj.(*DynamicPhysicsObject)
	if !ok {
		return
	}
	if visible {
		if f.disabled[d] {
			delete(f.disabled, d)
			d.SetEnabled(true)
		}
		return
	}
	if d.Enabled() {
		d.SetEnabled(false)
		f.disabled[d] = true
	}
}

// Forget stops tracking obj, re-enabling it if the policy had disabled it.
func (f *FrustumPolicy) Forget(obj PhysicsObject) {
	d, ok := obj.(*DynamicPhysicsObject)
	if !ok || !f.disabled[d] {
		return
	}
	delete(f.disabled, d)
	d.SetEnabled(true)
}

// Disabled returns how many objects the policy currently holds disabled.
func (f *FrustumPolicy) Disabled() int { return len(f.disabled) }
