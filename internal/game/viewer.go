package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"drivesim/internal/audio"
	"drivesim/internal/camera"
	"drivesim/internal/config"
	"drivesim/internal/vehicle"
	"drivesim/internal/world"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Viewer opens a window on a running Simulation. Physics keeps stepping on
// its own goroutine; the viewer only takes the scene lock to send input and
// to read poses for drawing.
type Viewer struct {
	Sim      *Simulation
	Chase    *camera.ChaseCamera
	Free     *camera.FreeCamera
	Renderer *world.Renderer
	Audio    *audio.Manager

	// ProfilePath, when set, is watched and reloaded into the car.
	ProfilePath string

	DebugMode bool
	freeCam   bool
	cruise    float32

	ctx        context.Context
	respawning atomic.Bool
	respawned  atomic.Bool
	telemetry  Telemetry
	culled     int

	// Debug timing (ms)
	updateMs float64
	drawMs   float64
}

func NewViewer(s *Simulation) *Viewer {
	return &Viewer{
		Sim:      s,
		Chase:    camera.NewChase(8, 3),
		Free:     camera.NewFree(rl.Vector3{Y: 10, Z: -15}),
		Renderer: world.NewRenderer(),
		cruise:   0.5,
	}
}

// Run opens the window and blocks until it is closed or ctx ends.
func (v *Viewer) Run(ctx context.Context) error {
	rl.SetConfigFlags(rl.FlagWindowHighdpi | rl.FlagMsaa4xHint)
	rl.InitWindow(1280, 720, "drivesim - "+v.Sim.World.Scene.Name)
	defer rl.CloseWindow()
	rl.SetTargetFPS(120)
	initHUDStyle()

	v.Audio = audio.Init()
	defer v.Audio.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	v.ctx = ctx

	if v.ProfilePath != "" {
		w, err := config.WatchProfile(v.ProfilePath, func(p vehicle.Profile) {
			if err := v.Sim.Retune(p); err != nil {
				log.Printf("Sim: retune failed: %v", err)
			}
		})
		if err != nil {
			return err
		}
		defer w.Close()
	}

	v.Sim.World.Scene.RLock()
	v.Chase.Snap(v.Sim.Car.Chassis.Position(), v.Sim.Car.Forward())
	v.Sim.World.Scene.RUnlock()
	v.Sim.OnRespawn.AddListener(func() { v.respawned.Store(true) })
	defer v.Sim.OnRespawn.RemoveAllListeners()

	errc := make(chan error, 1)
	go func() { errc <- v.Sim.Run(ctx) }()

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		v.Update()
		v.Draw()
	}
	cancel()
	if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (v *Viewer) Update() {
	updateStart := time.Now()
	deltaTime := rl.GetFrameTime()

	if rl.IsKeyPressed(rl.KeyF1) {
		v.DebugMode = !v.DebugMode
		v.Renderer.ShowColliders = v.DebugMode
	}
	if rl.IsKeyPressed(rl.KeyC) {
		v.freeCam = !v.freeCam
		if v.freeCam {
			rl.DisableCursor()
		} else {
			rl.EnableCursor()
		}
	}
	if rl.IsKeyPressed(rl.KeyR) || rl.IsKeyPressed(rl.KeyBackspace) {
		v.respawn()
	}
	if rl.IsKeyPressed(rl.KeyP) {
		v.toggleAutopilot()
	}
	if rl.IsKeyPressed(rl.KeyM) {
		v.Audio.Muted = !v.Audio.Muted
	}

	if !v.freeCam && v.Sim.Autopilot() == nil {
		v.Sim.Drive(v.drive)
	}

	if v.freeCam {
		v.Free.Update(deltaTime)
	} else {
		v.Chase.HandleInput()
		v.Sim.World.Scene.RLock()
		pos, forward := v.Sim.Car.Chassis.Position(), v.Sim.Car.Forward()
		v.Sim.World.Scene.RUnlock()
		if v.respawned.Swap(false) {
			v.Chase.Snap(pos, forward)
		} else {
			v.Chase.Follow(pos, forward, deltaTime)
		}
	}

	f := v.frustum()
	v.culled = v.Sim.Cull(&f)
	v.telemetry = v.Sim.Snapshot()
	v.mix()

	v.updateMs = float64(time.Since(updateStart).Microseconds()) / 1000.0
}

func (v *Viewer) mix() {
	cam := v.camera()
	t := v.telemetry
	v.Audio.Update(audio.NewListener(cam.Position, rl.Vector3Subtract(cam.Target, cam.Position), cam.Up), audio.CarState{
		Position:    t.Position,
		RPMFraction: t.RPMFraction(),
		Throttle:    t.Gas,
		Skidding:    t.AnySkidding(),
		Impacts:     t.Impacts,
	})
}

// drive maps the keyboard onto the car controls.
func (v *Viewer) drive(c *vehicle.Car) {
	var gas, brake, steer float32
	if rl.IsKeyDown(rl.KeyW) || rl.IsKeyDown(rl.KeyUp) {
		gas = 1
	}
	if rl.IsKeyDown(rl.KeyS) || rl.IsKeyDown(rl.KeyDown) {
		brake = 1
	}
	if rl.IsKeyDown(rl.KeyA) || rl.IsKeyDown(rl.KeyLeft) {
		steer--
	}
	if rl.IsKeyDown(rl.KeyD) || rl.IsKeyDown(rl.KeyRight) {
		steer++
	}
	c.SetGasPedal(gas)
	c.SetBrakePedal(brake)
	c.SetSteeringWheel(steer)
	c.SetHandBrake(rl.IsKeyDown(rl.KeySpace))

	if rl.IsKeyDown(rl.KeyLeftShift) || rl.IsKeyDown(rl.KeyRightShift) {
		c.PressClutch()
	}
	if rl.IsKeyPressed(rl.KeyE) {
		c.ShiftUp()
	}
	if rl.IsKeyPressed(rl.KeyQ) {
		c.ShiftDown()
	}
}

// respawn runs the respawn handshake off the render loop so frames keep
// coming while the physics goroutine settles the car.
func (v *Viewer) respawn() {
	if !v.respawning.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer v.respawning.Store(false)
		if err := v.Sim.RespawnAtSpawn(v.ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Sim: respawn: %v", err)
		}
	}()
}

func (v *Viewer) toggleAutopilot() {
	if v.Sim.Autopilot() != nil {
		v.Sim.SetAutopilot(nil)
		return
	}
	v.Sim.SetAutopilot(NewAutopilot(v.Sim.Car, v.cruise))
}

func (v *Viewer) camera() rl.Camera3D {
	if v.freeCam {
		return v.Free.GetRaylibCamera()
	}
	return v.Chase.GetRaylibCamera()
}

func (v *Viewer) frustum() world.Frustum {
	aspect := float32(rl.GetScreenWidth()) / float32(max(rl.GetScreenHeight(), 1))
	return world.ExtractFrustum(v.camera(), aspect)
}

func (v *Viewer) Draw() {
	cam := v.camera()
	f := v.frustum()

	rl.BeginDrawing()
	rl.ClearBackground(rl.NewColor(20, 20, 30, 255))

	drawStart := time.Now()
	rl.BeginMode3D(cam)
	v.Sim.World.Scene.RLock()
	v.Renderer.Draw(v.Sim.World.Scene.GameObjects, &f)
	v.Sim.World.Scene.RUnlock()
	if v.DebugMode {
		v.Renderer.DrawContacts(v.telemetry.Contacts)
		rl.DrawGrid(40, 5)
	}
	rl.EndMode3D()
	v.drawMs = float64(time.Since(drawStart).Microseconds()) / 1000.0

	v.DrawUI()
	rl.EndDrawing()
}

func (v *Viewer) DrawUI() {
	t := v.telemetry
	rl.DrawText("W/S gas and brake, A/D steer, Space handbrake", 10, 10, 20, rl.LightGray)
	rl.DrawText("Shift clutch, E/Q gear, R respawn, C free camera, P autopilot, M mute, F1 debug", 10, 35, 20, rl.LightGray)
	rl.DrawFPS(10, 60)

	screenW := float32(rl.GetScreenWidth())
	screenH := float32(rl.GetScreenHeight())
	panel := rl.Rectangle{X: screenW - 250, Y: screenH - 190, Width: 240, Height: 180}
	rl.DrawRectangleRounded(panel, 0.08, 6, colorBgPanel)

	x, y := int32(panel.X)+12, int32(panel.Y)+10
	rl.DrawText(t.GearLabel(), x, y, 56, colorAccentLight)
	rl.DrawText(fmt.Sprintf("%3.0f km/h", t.SpeedKmh), x+60, y+4, 28, colorTextPrimary)
	rl.DrawText(fmt.Sprintf("%4.0f rpm", t.RPM), x+60, y+34, 20, colorTextSecondary)

	drawBar(x, y+64, 216, t.RPMFraction(), colorAccent)
	drawBar(x, y+78, 216, 1-t.Clutch, colorTextMuted)
	if t.AnySkidding() {
		rl.DrawText("SKID", x+170, y+4, 16, rl.Orange)
	}

	btn := rl.Rectangle{X: panel.X + 12, Y: panel.Y + 100, Width: 100, Height: 26}
	if gui.Button(btn, "Respawn") {
		v.respawn()
	}
	debug := gui.CheckBox(rl.Rectangle{X: panel.X + 124, Y: panel.Y + 105, Width: 16, Height: 16}, "Colliders", v.DebugMode)
	if debug != v.DebugMode {
		v.DebugMode = debug
		v.Renderer.ShowColliders = debug
	}

	auto := v.Sim.Autopilot() != nil
	if gui.CheckBox(rl.Rectangle{X: panel.X + 12, Y: panel.Y + 140, Width: 16, Height: 16}, "Autopilot", auto) != auto {
		v.toggleAutopilot()
	}
	cruise := gui.Slider(rl.Rectangle{X: panel.X + 110, Y: panel.Y + 140, Width: 90, Height: 16}, "", fmt.Sprintf("%.0f%%", v.cruise*100), v.cruise, 0, 1)
	if cruise != v.cruise {
		v.cruise = cruise
		v.Sim.SetCruise(cruise)
	}

	if v.DebugMode {
		rl.DrawText(fmt.Sprintf("Pos: (%.1f, %.1f, %.1f)", t.Position.X, t.Position.Y, t.Position.Z), 10, 85, 16, rl.Yellow)
		rl.DrawText(fmt.Sprintf("Steps: %d  Impacts: %d  Drive: %.0f N", t.Steps, t.Impacts, t.DriveForce), 10, 105, 16, rl.Yellow)
		rl.DrawText(fmt.Sprintf("Drawn: %d  Culled: %d  Frozen: %d", v.Renderer.Drawn, v.Renderer.Culled, v.culled), 10, 125, 16, rl.Green)
		rl.DrawText(fmt.Sprintf("Update:  %.2f ms", v.updateMs), 10, 145, 16, rl.Green)
		rl.DrawText(fmt.Sprintf("Draw:    %.2f ms", v.drawMs), 10, 165, 16, rl.Green)
	}
}

func drawBar(x, y, width int32, fill float32, color rl.Color) {
	fill = min(max(fill, 0), 1)
	rl.DrawRectangle(x, y, width, 8, colorBgElement)
	rl.DrawRectangle(x, y, int32(float32(width)*fill), 8, color)
}
