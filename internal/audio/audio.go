package audio

import (
	"encoding/binary"
	"log"
	"math"
	"math/rand/v2"
	"sync"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	sampleRate = 22050
	// engineBase is the tone at idle; one second of it holds a whole number
	// of cycles so the loop is seamless.
	engineBase = 55
)

// Listener represents the audio listener position and orientation
type Listener struct {
	Position rl.Vector3
	Forward  rl.Vector3
	Right    rl.Vector3
}

// NewListener normalizes forward and derives the right vector from up.
func NewListener(pos, forward, up rl.Vector3) Listener {
	l := Listener{Position: pos}

	// Normalize forward, default to -Z if zero
	fwdLen := rl.Vector3Length(forward)
	if fwdLen > 0.001 {
		l.Forward = rl.Vector3Scale(forward, 1.0/fwdLen)
	} else {
		l.Forward = rl.Vector3{X: 0, Y: 0, Z: -1}
	}

	// Calculate right vector (up × forward)
	right := rl.Vector3CrossProduct(up, l.Forward)
	rightLen := rl.Vector3Length(right)
	if rightLen > 0.001 {
		l.Right = rl.Vector3Scale(right, 1.0/rightLen)
	} else {
		l.Right = rl.Vector3{X: 1, Y: 0, Z: 0}
	}
	return l
}

// Spatialize returns the volume and pan (0 left, 0.5 center, 1 right) of a
// source at pos heard by l.
func Spatialize(l Listener, pos rl.Vector3, volume, maxDistance float32) (float32, float32) {
	toSource := rl.Vector3Subtract(pos, l.Position)
	distance := rl.Vector3Length(toSource)

	// Linear falloff
	var out float32
	if distance < maxDistance {
		out = volume * (1.0 - distance/maxDistance)
	}

	var pan float32 = 0.5
	if distance > 0.001 {
		direction := rl.Vector3Scale(toSource, 1.0/distance)
		pan = min(max(0.5+rl.Vector3DotProduct(direction, l.Right)*0.5, 0), 1)

		// sounds behind are slightly quieter
		frontDot := rl.Vector3DotProduct(direction, l.Forward)
		if frontDot < 0 {
			out *= 0.7 + 0.3*float32(math.Abs(float64(frontDot)))
		}
	}
	return out, pan
}

// EnginePitch maps the rev range onto a playback pitch for the engine loop.
func EnginePitch(rpmFraction float32) float32 {
	return 0.6 + 2.4*min(max(rpmFraction, 0), 1)
}

// CarState is what the mixer needs to know about the car each frame.
type CarState struct {
	Position    rl.Vector3
	RPMFraction float32
	Throttle    float32
	Skidding    bool
	Impacts     int
}

// Manager plays the car sounds. A Manager without an audio device is
// silent but safe to use.
type Manager struct {
	mu          sync.Mutex
	ready       bool
	Muted       bool
	MaxDistance float32

	engine rl.Sound
	skid   rl.Sound
	thud   rl.Sound

	lastImpacts int
}

// Init opens the audio device and synthesizes the car sounds.
func Init() *Manager {
	m := &Manager{MaxDistance: 60}
	rl.InitAudioDevice()
	if !rl.IsAudioDeviceReady() {
		log.Println("Audio: no device, running silent")
		return m
	}
	m.engine = load(engineWave(1))
	m.skid = load(noiseWave(1, 7))
	m.thud = load(thudWave(0.35))
	m.ready = true
	return m
}

func load(samples []int16) rl.Sound {
	data := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(s))
	}
	wave := rl.NewWave(uint32(len(samples)), sampleRate, 16, 1, data)
	return rl.LoadSoundFromWave(wave)
}

// Update mixes the car sounds for the listener.
func (m *Manager) Update(l Listener, car CarState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return
	}
	if m.Muted {
		rl.StopSound(m.engine)
		rl.StopSound(m.skid)
		m.lastImpacts = car.Impacts
		return
	}

	volume, pan := Spatialize(l, car.Position, 1, m.MaxDistance)

	if !rl.IsSoundPlaying(m.engine) {
		rl.PlaySound(m.engine)
	}
	rl.SetSoundPitch(m.engine, EnginePitch(car.RPMFraction))
	rl.SetSoundVolume(m.engine, volume*(0.35+0.4*min(max(car.Throttle, 0), 1)))
	rl.SetSoundPan(m.engine, pan)

	switch {
	case car.Skidding && !rl.IsSoundPlaying(m.skid):
		rl.PlaySound(m.skid)
	case !car.Skidding && rl.IsSoundPlaying(m.skid):
		rl.StopSound(m.skid)
	}
	rl.SetSoundVolume(m.skid, volume*0.5)
	rl.SetSoundPan(m.skid, pan)

	if car.Impacts > m.lastImpacts {
		rl.SetSoundVolume(m.thud, volume)
		rl.SetSoundPan(m.thud, pan)
		rl.PlaySound(m.thud)
	}
	m.lastImpacts = car.Impacts
}

// Close shuts down the audio system
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ready {
		rl.UnloadSound(m.engine)
		rl.UnloadSound(m.skid)
		rl.UnloadSound(m.thud)
		m.ready = false
	}
	rl.CloseAudioDevice()
}

// engineWave is a saw with a detuned second harmonic, seconds long.
func engineWave(seconds float64) []int16 {
	n := int(seconds * sampleRate)
	out := make([]int16, n)
	for i := range out {
		t := float64(i) / sampleRate
		saw := 2*math.Mod(t*engineBase, 1) - 1
		harm := math.Sin(2 * math.Pi * engineBase * 2 * t)
		out[i] = int16((0.6*saw + 0.3*harm) * math.MaxInt16 * 0.8)
	}
	return out
}

// noiseWave is low-passed white noise.
func noiseWave(seconds float64, seed uint64) []int16 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	n := int(seconds * sampleRate)
	out := make([]int16, n)
	var y float64
	for i := range out {
		y += 0.35 * (rng.Float64()*2 - 1 - y)
		out[i] = int16(y * math.MaxInt16 * 0.9)
	}
	return out
}

// thudWave is a decaying low sine.
func thudWave(seconds float64) []int16 {
	n := int(seconds * sampleRate)
	out := make([]int16, n)
	for i := range out {
		t := float64(i) / sampleRate
		out[i] = int16(math.Sin(2*math.Pi*60*t) * math.Exp(-12*t) * math.MaxInt16)
	}
	return out
}
