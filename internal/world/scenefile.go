package world

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"drivesim/internal/assets"
	"drivesim/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"
)

// --- YAML types ---

type SceneFile struct {
	Name string `yaml:"name"`
	// Surfaces is an optional surface library, relative to the scene file.
	Surfaces string      `yaml:"surfaces,omitempty"`
	Spawn    SpawnDef    `yaml:"spawn"`
	Objects  []ObjectDef `yaml:"objects"`
}

type SpawnDef struct {
	Position [3]float32 `yaml:"position"`
	Rotation [3]float32 `yaml:"rotation"` // euler degrees
}

type ObjectDef struct {
	Name       string           `yaml:"name"`
	Tags       []string         `yaml:"tags,omitempty"`
	Position   [3]float32       `yaml:"position"`
	Rotation   [3]float32       `yaml:"rotation"` // euler degrees
	Scale      [3]float32       `yaml:"scale"`
	Surface    string           `yaml:"surface,omitempty"`
	Components []map[string]any `yaml:"components,omitempty"`
	Children   []ObjectDef      `yaml:"children,omitempty"`
}

func vec(v [3]float32) rl.Vector3 { return rl.Vector3{X: v[0], Y: v[1], Z: v[2]} }

func arr(v rl.Vector3) [3]float32 { return [3]float32{v.X, v.Y, v.Z} }

// --- Loading ---

func ParseScene(data []byte) (*SceneFile, error) {
	var sf SceneFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	return &sf, nil
}

func (w *World) LoadScene(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scene: %w", err)
	}
	sf, err := ParseScene(data)
	if err != nil {
		return err
	}
	if sf.Surfaces != "" {
		file := filepath.Join(filepath.Dir(path), sf.Surfaces)
		lib, err := assets.LoadLibrary(file)
		if err != nil {
			return err
		}
		w.Surfaces, w.SurfacesFile = lib, file
	}
	if err := w.Apply(sf); err != nil {
		return fmt.Errorf("load scene %s: %w", path, err)
	}
	log.Printf("World: loaded %s (%d objects, %d bodies)", path, len(w.Scene.GameObjects), len(w.bodies))
	return nil
}

// Apply builds every object of sf into the world and sets the spawn pose.
func (w *World) Apply(sf *SceneFile) error {
	if sf.Name != "" {
		w.Scene.Name = sf.Name
	}
	w.Spawn = Pose{
		Position: vec(sf.Spawn.Position),
		Rotation: eulerQuat(sf.Spawn.Rotation),
	}
	for _, def := range sf.Objects {
		g := buildObject(def)
		if err := w.AddObject(g); err != nil {
			return err
		}
		w.applySurfaces(g, def)
	}
	return nil
}

// applySurfaces walks g alongside the definition it was built from.
func (w *World) applySurfaces(g *engine.GameObject, def ObjectDef) {
	if def.Surface != "" {
		if err := w.SetSurface(g, def.Surface); err != nil {
			log.Printf("World: %s: %v", def.Name, err)
		}
	}
	for i, child := range def.Children {
		w.applySurfaces(g.Children[i], child)
	}
}

func eulerQuat(deg [3]float32) rl.Quaternion {
	var t engine.Transform
	t.SetEulerDegrees(vec(deg))
	return t.Rotation
}

func buildObject(def ObjectDef) *engine.GameObject {
	g := engine.NewGameObject(def.Name)
	g.Tags = def.Tags
	g.Transform.Position = vec(def.Position)
	g.Transform.SetEulerDegrees(vec(def.Rotation))

	// Default scale to 1 if zero
	if def.Scale != ([3]float32{}) {
		g.Transform.Scale = vec(def.Scale)
	}

	for _, props := range def.Components {
		kind := engine.PropString(props, "type", "")
		c := engine.CreateComponent(kind, props)
		if c == nil {
			log.Printf("World: %s: skipping unknown component %q", def.Name, kind)
			continue
		}
		g.AddComponent(c)
	}
	for _, child := range def.Children {
		g.AddChild(buildObject(child))
	}
	return g
}

// --- Saving ---

// SaveScene writes the scene back out. Objects tagged "car" are built in code
// and skipped.
func (w *World) SaveScene(path string) error {
	sf := SceneFile{
		Name: w.Scene.Name,
		Spawn: SpawnDef{
			Position: arr(w.Spawn.Position),
			Rotation: arr(rl.Vector3Scale(rl.QuaternionToEuler(w.Spawn.Rotation), rl.Rad2deg)),
		},
	}
	if w.SurfacesFile != "" {
		rel, err := relativeTo(filepath.Dir(path), w.SurfacesFile)
		if err != nil {
			return fmt.Errorf("save scene: %w", err)
		}
		sf.Surfaces = rel
	}
	for _, g := range w.Scene.GameObjects {
		if g.Parent != nil || g.HasTag("car") {
			continue
		}
		sf.Objects = append(sf.Objects, w.objectDef(g))
	}

	data, err := yaml.Marshal(&sf)
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write scene: %w", err)
	}
	return nil
}

func relativeTo(dir, file string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	file, err = filepath.Abs(file)
	if err != nil {
		return "", err
	}
	return filepath.Rel(dir, file)
}

func (w *World) objectDef(g *engine.GameObject) ObjectDef {
	def := ObjectDef{
		Name:     g.Name,
		Tags:     g.Tags,
		Position: arr(g.Transform.Position),
		Rotation: arr(g.Transform.EulerDegrees()),
		Scale:    arr(g.Transform.Scale),
		Surface:  w.surfaces[g],
	}
	for _, c := range g.Components() {
		kind, props, ok := engine.SerializeComponent(c)
		if !ok {
			continue
		}
		props["type"] = kind
		def.Components = append(def.Components, props)
	}
	for _, child := range g.Children {
		def.Children = append(def.Children, w.objectDef(child))
	}
	return def
}
