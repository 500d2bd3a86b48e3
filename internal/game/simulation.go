package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"drivesim/internal/components"
	"drivesim/internal/config"
	"drivesim/internal/engine"
	"drivesim/internal/physics"
	"drivesim/internal/vehicle"
	"drivesim/internal/world"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	DefaultRespawnSteps   = 3
	DefaultRespawnTimeout = 2 * time.Second

	spawnClearance = 0.1
	// impactSpeed is the closing speed in m/s that counts as a crash.
	impactSpeed = 4
)

var ErrRespawnTimeout = errors.New("game: respawn timed out waiting for physics")

// Simulation owns the world and the car and steps them on its own goroutine.
// Every mutation happens under the scene's write lock; readers such as the
// viewer take the read lock.
type Simulation struct {
	World  *world.World
	Car    *vehicle.Car
	Config *config.Config

	// Interval is the wall-clock tick period of Run; zero means the
	// physics step size.
	Interval time.Duration

	RespawnSteps   int
	RespawnTimeout time.Duration
	pollInterval   time.Duration

	// OnRespawn fires after every Respawn, on the goroutine that called it.
	OnRespawn engine.Event

	steps   atomic.Uint64
	running atomic.Bool

	autopilot *Autopilot

	elapsed float32
	impacts int
	contact []rl.Vector3
}

// NewSimulation builds the physics world, loads the scene (or the built-in
// track when cfg.Scene is empty) and places the car at the spawn point.
func NewSimulation(cfg *config.Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pw := physics.NewPhysicsWorld()
	if err := cfg.World.Apply(pw); err != nil {
		return nil, err
	}
	pw.SetPhysicsCallback(physics.MaterialCallback)

	w := world.New("drivesim", pw)
	if cfg.Scene == "" {
		if err := world.BuildTrack(w, world.DefaultTrackOptions()); err != nil {
			return nil, err
		}
	} else if err := w.LoadScene(cfg.Scene); err != nil {
		return nil, err
	}

	s := &Simulation{
		World:          w,
		Config:         cfg,
		RespawnSteps:   DefaultRespawnSteps,
		RespawnTimeout: DefaultRespawnTimeout,
		pollInterval:   time.Millisecond,
	}

	pose := s.SpawnPose()
	car, err := vehicle.NewCar(pw, cfg.Car, pose.Position)
	if err != nil {
		w.Clear()
		pw.Cleanup()
		return nil, fmt.Errorf("spawn car: %w", err)
	}
	car.Teleport(pose.Position, pose.Rotation)
	s.Car = car
	dressCar(car)
	w.AttachPhysics(car.Chassis)
	for _, wheel := range car.Wheels {
		w.AttachPhysics(wheel)
	}

	pw.OnCollision.AddListener(s.recordCollision)
	w.Scene.Start()
	pw.WarmUp(cfg.World.WarmUpSteps)
	log.Printf("Sim: ready with %d bodies, car %s at (%.1f, %.1f, %.1f)",
		pw.NumberOfObjects(), cfg.Car.Name, pose.Position.X, pose.Position.Y, pose.Position.Z)
	return s, nil
}

var (
	carColor   = rl.Color{R: 200, G: 40, B: 40, A: 255}
	wheelColor = rl.Color{R: 30, G: 30, B: 30, A: 255}
)

// dressCar gives the car parts something to draw.
func dressCar(c *vehicle.Car) {
	p := c.Profile()
	size := rl.Vector3{X: p.ChassisSize[0], Y: p.ChassisSize[1], Z: p.ChassisSize[2]}
	c.Chassis.Spatial().AddComponent(components.NewMeshRenderer(components.MeshCube, carColor, size))
	for _, w := range c.Wheels {
		// wireframe so the spin is visible
		mr := components.NewMeshRenderer(components.MeshSphere, wheelColor, rl.Vector3{X: p.WheelRadius})
		mr.Wireframe = true
		w.Spatial().AddComponent(mr)
	}
}

func (s *Simulation) carObjects() []physics.PhysicsObject {
	if s.Car == nil {
		return nil
	}
	out := []physics.PhysicsObject{s.Car.Chassis}
	for _, w := range s.Car.Wheels {
		out = append(out, w)
	}
	return out
}

// SpawnPose lifts the scene's spawn point onto the ground below it, high
// enough for the wheels to hang free.
func (s *Simulation) SpawnPose() world.Pose {
	p := s.Config.Car
	pose := s.World.Spawn
	if ground, ok := s.World.GroundHeight(pose.Position, s.carObjects()...); ok {
		pose.Position.Y = ground
	}
	pose.Position.Y += p.WheelDrop + p.WheelRadius + spawnClearance
	return pose
}

func (s *Simulation) recordCollision(c physics.CollisionResult) {
	if len(s.contact) < 64 {
		s.contact = append(s.contact, c.Position)
	}
	v := c.RelativeBounceVelocity
	if (v > impactSpeed || v < -impactSpeed) && (isChassis(c.SpatialA) || isChassis(c.SpatialB)) {
		s.impacts++
	}
}

func isChassis(g *engine.GameObject) bool {
	return g != nil && g.HasTag("car") && !g.HasTag("wheel")
}

// Tick advances the scene and physics by dt seconds under the write lock.
func (s *Simulation) Tick(dt float32) physics.CollisionResults {
	pw := s.World.Physics
	s.World.Scene.Lock()
	defer s.World.Scene.Unlock()

	before := pw.Steps()
	s.contact = s.contact[:0]
	s.World.Scene.Update(dt)
	res := pw.Update(dt)
	ran := pw.Steps() - before
	s.elapsed += float32(ran) * pw.StepSize()
	s.steps.Add(ran)
	return res
}

// Steps returns how many physics steps ran since the simulation started.
func (s *Simulation) Steps() uint64 { return s.steps.Load() }

func (s *Simulation) Running() bool { return s.running.Load() }

// Run ticks the simulation until ctx is cancelled.
func (s *Simulation) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("game: simulation already running")
	}
	defer s.running.Store(false)

	interval := s.Interval
	if interval <= 0 {
		interval = time.Duration(float64(s.World.Physics.StepSize()) * float64(time.Second))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Sim: running every %v", interval)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Printf("Sim: stopped after %d steps", s.Steps())
			return ctx.Err()
		case now := <-ticker.C:
			s.Tick(float32(now.Sub(last).Seconds()))
			last = now
		}
	}
}

// Drive runs fn with the car under the write lock.
func (s *Simulation) Drive(fn func(c *vehicle.Car)) {
	s.World.Scene.Lock()
	defer s.World.Scene.Unlock()
	fn(s.Car)
}

// Respawn moves the car to pose. The teleport happens under the write lock,
// then the lock is released while the stepping goroutine runs RespawnSteps
// steps so the joints settle, and finally all velocities are cleared. When
// the steps do not arrive before RespawnTimeout or ctx ends, the velocities
// are still cleared and the error is returned.
func (s *Simulation) Respawn(ctx context.Context, pose world.Pose) error {
	s.World.Scene.Lock()
	s.Car.Teleport(pose.Position, pose.Rotation)
	start := s.steps.Load()
	s.World.Scene.Unlock()

	var err error
	deadline := time.Now().Add(s.RespawnTimeout)
	for s.steps.Load()-start < uint64(s.RespawnSteps) {
		if err = ctx.Err(); err != nil {
			break
		}
		if time.Now().After(deadline) {
			err = ErrRespawnTimeout
			log.Printf("Sim: respawn saw %d of %d steps", s.steps.Load()-start, s.RespawnSteps)
			break
		}
		time.Sleep(s.pollInterval)
	}

	s.World.Scene.Lock()
	s.Car.Stop()
	s.World.Scene.Unlock()
	s.OnRespawn.Invoke()
	return err
}

// RespawnAtSpawn respawns the car at the scene's spawn point.
func (s *Simulation) RespawnAtSpawn(ctx context.Context) error {
	s.World.Scene.RLock()
	pose := s.SpawnPose()
	s.World.Scene.RUnlock()
	return s.Respawn(ctx, pose)
}

// SetAutopilot hands the pedals to a, or back to the caller when a is nil.
func (s *Simulation) SetAutopilot(a *Autopilot) {
	s.World.Scene.Lock()
	defer s.World.Scene.Unlock()
	if s.autopilot != nil {
		s.World.Physics.RemoveUpdateAction(s.autopilot)
	}
	s.autopilot = a
	if a != nil {
		s.World.Physics.AddUpdateAction(a)
	}
}

// SetCruise changes the autopilot throttle, if one is engaged.
func (s *Simulation) SetCruise(throttle float32) {
	s.World.Scene.Lock()
	defer s.World.Scene.Unlock()
	if s.autopilot != nil {
		s.autopilot.Throttle = throttle
	}
}

func (s *Simulation) Autopilot() *Autopilot {
	s.World.Scene.RLock()
	defer s.World.Scene.RUnlock()
	return s.autopilot
}

// Retune applies new car settings, typically from a reloaded profile file.
func (s *Simulation) Retune(p vehicle.Profile) error {
	s.World.Scene.Lock()
	defer s.World.Scene.Unlock()
	return s.Car.Retune(p)
}

// Cull feeds camera visibility to the physics frustum policy. The car is
// always simulated.
func (s *Simulation) Cull(f *world.Frustum) int {
	s.World.Scene.Lock()
	defer s.World.Scene.Unlock()
	return s.World.Cull(f, s.carObjects()...)
}

// Close tears down the car, the scene and the physics world.
func (s *Simulation) Close() {
	s.World.Scene.Lock()
	defer s.World.Scene.Unlock()
	s.Car.Destroy()
	s.World.Clear()
	s.World.Physics.Cleanup()
}
