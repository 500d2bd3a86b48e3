package assets

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"drivesim/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Surface is a named ground material: how it looks and how it grips.
type Surface struct {
	Name     string
	Color    rl.Color
	Friction float32
	Bounce   float32
}

// Material returns the physics material for objects made of s.
func (s *Surface) Material() *physics.Material {
	return &physics.Material{Friction: s.Friction, Bounce: s.Bounce}
}

// surfaceDef is the JSON format for surface files
type surfaceDef struct {
	Name     string   `json:"name"`
	Color    string   `json:"color"`
	Friction *float32 `json:"friction"`
	Bounce   float32  `json:"bounce"`
}

// Color name mapping for surfaces
var colorByName = map[string]rl.Color{
	"Red":       rl.Red,
	"Blue":      rl.Blue,
	"Green":     rl.Green,
	"Purple":    rl.Purple,
	"Orange":    rl.Orange,
	"Yellow":    rl.Yellow,
	"Gold":      rl.Gold,
	"White":     rl.White,
	"Gray":      rl.Gray,
	"LightGray": rl.LightGray,
	"DarkGray":  rl.DarkGray,
	"Black":     rl.Black,
	"Pink":      rl.Pink,
	"Maroon":    rl.Maroon,
	"Brown":     rl.Brown,
	"Beige":     rl.Beige,
	"SkyBlue":   rl.SkyBlue,
	"DarkBlue":  rl.DarkBlue,
	"Lime":      rl.Lime,
	"DarkGreen": rl.DarkGreen,
}

// LookupColor returns a raylib color from a name string
func LookupColor(name string) rl.Color {
	if c, ok := colorByName[name]; ok {
		return c
	}
	return rl.White
}

// Library holds the surfaces a scene can refer to by name.
type Library struct {
	surfaces map[string]*Surface
}

func DefaultLibrary() *Library {
	l := &Library{surfaces: make(map[string]*Surface)}
	for _, s := range []Surface{
		{Name: "asphalt", Color: rl.DarkGray, Friction: 1.0},
		{Name: "concrete", Color: rl.Gray, Friction: 0.9},
		{Name: "dirt", Color: rl.Brown, Friction: 0.6},
		{Name: "grass", Color: rl.DarkGreen, Friction: 0.45},
		{Name: "ice", Color: rl.SkyBlue, Friction: 0.05},
		{Name: "rubber", Color: rl.Black, Friction: 1.1, Bounce: 0.6},
	} {
		l.Add(s)
	}
	return l
}

// Add registers s, replacing any surface with the same name.
func (l *Library) Add(s Surface) {
	l.surfaces[s.Name] = &s
}

func (l *Library) Get(name string) (*Surface, bool) {
	s, ok := l.surfaces[name]
	return s, ok
}

func (l *Library) Names() []string {
	names := make([]string, 0, len(l.surfaces))
	for name := range l.surfaces {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LoadLibrary reads a JSON array of surfaces on top of the defaults. A
// surface without friction gets 1.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read surfaces: %w", err)
	}
	var defs []surfaceDef
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse surfaces %s: %w", path, err)
	}

	l := DefaultLibrary()
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("surfaces %s: entry without a name", path)
		}
		friction := float32(1)
		if def.Friction != nil {
			friction = *def.Friction
		}
		if friction < 0 || def.Bounce < 0 || def.Bounce > 1 {
			return nil, fmt.Errorf("surfaces %s: %s has friction %v bounce %v", path, def.Name, friction, def.Bounce)
		}
		l.Add(Surface{
			Name:     def.Name,
			Color:    LookupColor(def.Color),
			Friction: friction,
			Bounce:   def.Bounce,
		})
	}
	return l, nil
}
