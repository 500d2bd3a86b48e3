package physics

import (
	"log"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
)

func toVec64(v rl.Vector3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v.X), float64(v.Y), float64(v.Z)}
}

func fromVec64(v mgl64.Vec3) rl.Vector3 {
	return rl.Vector3{X: float32(v[0]), Y: float32(v[1]), Z: float32(v[2])}
}

func toQuat64(q rl.Quaternion) mgl64.Quat {
	out := mgl64.Quat{W: float64(q.W), V: mgl64.Vec3{float64(q.X), float64(q.Y), float64(q.Z)}}
	if out.Len() == 0 {
		return mgl64.QuatIdent()
	}
	return out.Normalize()
}

func fromQuat64(q mgl64.Quat) rl.Quaternion {
	return rl.Quaternion{X: float32(q.V[0]), Y: float32(q.V[1]), Z: float32(q.V[2]), W: float32(q.W)}
}

func finite(v rl.Vector3) bool {
	for _, c := range [3]float32{v.X, v.Y, v.Z} {
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// warnOnce logs the message the first time flag is false and sets it.
func warnOnce(flag *bool, format string, args ...any) {
	if *flag {
		return
	}
	*flag = true
	log.Printf("Physics: "+format, args...)
}
