package physics

// UpdateAction hooks into the PhysicsWorld loop. BeforeStep and AfterStep
// run once per solver step; BeforeUpdate and AfterUpdate once per Update.
type UpdateAction interface {
	BeforeUpdate(w *PhysicsWorld)
	BeforeStep(w *PhysicsWorld)
	AfterStep(w *PhysicsWorld)
	AfterUpdate(w *PhysicsWorld)
}

// BaseUpdateAction provides no-op hooks for embedding.
type BaseUpdateAction struct{}

func (BaseUpdateAction) BeforeUpdate(*PhysicsWorld) {}
func (BaseUpdateAction) BeforeStep(*PhysicsWorld)   {}
func (BaseUpdateAction) AfterStep(*PhysicsWorld)    {}
func (BaseUpdateAction) AfterUpdate(*PhysicsWorld)  {}
