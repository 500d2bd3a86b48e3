package components

import "drivesim/internal/engine"

// Scene file names of the built-in components.
const (
	KindRigidbody      = "rigidbody"
	KindBoxCollider    = "box_collider"
	KindSphereCollider = "sphere_collider"
	KindPlaneCollider  = "plane_collider"
	KindMeshRenderer   = "mesh_renderer"
)

func init() {
	engine.RegisterComponent(KindRigidbody, rigidbodyFromProps, rigidbodyToProps)
	engine.RegisterComponent(KindBoxCollider, boxColliderFromProps, boxColliderToProps)
	engine.RegisterComponent(KindSphereCollider, sphereColliderFromProps, sphereColliderToProps)
	engine.RegisterComponent(KindPlaneCollider, planeColliderFromProps, planeColliderToProps)
	engine.RegisterComponent(KindMeshRenderer, meshRendererFromProps, meshRendererToProps)
}
