package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"drivesim/internal/physics"
	"drivesim/internal/vehicle"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultStepSize    = 0.02
	DefaultUpdateRate  = 50
	DefaultIterations  = physics.DefaultIterations
	DefaultWarmUpSteps = 10
	DefaultDuration    = 10.0
	DefaultScene       = "assets/scenes/track.yaml"
)

var (
	ErrUnknownPreset = errors.New("config: unknown preset")
	ErrStepFunction  = errors.New("config: unknown step function")
	ErrInvalidWorld  = errors.New("config: invalid world settings")
	ErrEmptyProfile  = errors.New("config: empty profile file")
)

// Config is everything a run needs: the scene to load, the physics world
// settings and the car tuning.
type Config struct {
	Scene string `yaml:"scene" toml:"scene"`
	// Preset names the car the "car" section is applied on top of.
	Preset string `yaml:"preset" toml:"preset"`
	// Profile is an optional car profile file that replaces the "car" section.
	Profile  string          `yaml:"profile,omitempty" toml:"profile,omitempty"`
	Duration float32         `yaml:"duration" toml:"duration"`
	World    WorldConfig     `yaml:"world" toml:"world"`
	Car      vehicle.Profile `yaml:"car" toml:"car"`
}

type WorldConfig struct {
	Gravity      [3]float32 `yaml:"gravity" toml:"gravity"`
	StepSize     float32    `yaml:"stepSize" toml:"stepSize"`
	UpdateRate   float32    `yaml:"updateRate" toml:"updateRate"`
	Iterations   int        `yaml:"iterations" toml:"iterations"`
	StepFunction string     `yaml:"stepFunction" toml:"stepFunction"`
	WarmUpSteps  int        `yaml:"warmUpSteps" toml:"warmUpSteps"`
}

func DefaultConfig() *Config {
	return &Config{
		Scene:    DefaultScene,
		Preset:   "hatchback",
		Duration: DefaultDuration,
		World: WorldConfig{
			Gravity:      [3]float32{0, -9.81, 0},
			StepSize:     DefaultStepSize,
			UpdateRate:   DefaultUpdateRate,
			Iterations:   DefaultIterations,
			StepFunction: physics.StepQuick.String(),
			WarmUpSteps:  DefaultWarmUpSteps,
		},
		Car: vehicle.DefaultProfile(),
	}
}

type format int

const (
	formatYAML format = iota
	formatTOML
)

func formatOf(path string) format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return formatTOML
	}
	return formatYAML
}

func (f format) unmarshal(data []byte, v any) error {
	if f == formatTOML {
		return toml.Unmarshal(data, v)
	}
	return yaml.Unmarshal(data, v)
}

func (f format) marshal(v any) ([]byte, error) {
	if f == formatTOML {
		return toml.Marshal(v)
	}
	return yaml.Marshal(v)
}

// Load reads a YAML or TOML (by extension) config file. Settings missing from
// the file keep their defaults, and the "car" section overrides the named
// preset field by field.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f := formatOf(path)

	var head struct {
		Preset string `yaml:"preset" toml:"preset"`
	}
	if err := f.unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if head.Preset != "" {
		if cfg.Car, err = GetPreset(head.Preset); err != nil {
			return nil, err
		}
	}
	if err := f.unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.Profile != "" {
		p := cfg.Profile
		if !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(path), p)
		}
		if cfg.Car, err = LoadProfile(p); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := formatOf(path).marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadProfile reads a car profile file. A file whose name matches a preset
// starts from that preset, any other from the default profile.
func LoadProfile(path string) (vehicle.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return vehicle.Profile{}, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return vehicle.Profile{}, fmt.Errorf("%s: %w", path, ErrEmptyProfile)
	}
	f := formatOf(path)

	var head struct {
		Name string `yaml:"name" toml:"name"`
	}
	if err := f.unmarshal(data, &head); err != nil {
		return vehicle.Profile{}, fmt.Errorf("profile %s: %w", path, err)
	}
	p, err := GetPreset(head.Name)
	if err != nil {
		p = vehicle.DefaultProfile()
	}
	if err := f.unmarshal(data, &p); err != nil {
		return vehicle.Profile{}, fmt.Errorf("profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return vehicle.Profile{}, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

func SaveProfile(path string, p vehicle.Profile) error {
	data, err := formatOf(path).marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.World.Validate(); err != nil {
		return err
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration %v: %w", c.Duration, ErrInvalidWorld)
	}
	return c.Car.Validate()
}

func ParseStepFunction(s string) (physics.StepFunction, error) {
	for _, f := range []physics.StepFunction{physics.StepSimulation, physics.StepQuick, physics.StepFast} {
		if strings.EqualFold(s, f.String()) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrStepFunction)
}

func (w WorldConfig) Validate() error {
	if !(w.StepSize > 0) {
		return fmt.Errorf("step size %v: %w", w.StepSize, ErrInvalidWorld)
	}
	if w.UpdateRate < 0 {
		return fmt.Errorf("update rate %v: %w", w.UpdateRate, ErrInvalidWorld)
	}
	if w.Iterations < 1 {
		return fmt.Errorf("iterations %d: %w", w.Iterations, ErrInvalidWorld)
	}
	if w.WarmUpSteps < 0 {
		return fmt.Errorf("warm up steps %d: %w", w.WarmUpSteps, ErrInvalidWorld)
	}
	_, err := ParseStepFunction(w.StepFunction)
	return err
}

// Apply configures a physics world. Warm up is left to the caller since it
// has to run after the scene is populated.
func (w WorldConfig) Apply(pw *physics.PhysicsWorld) error {
	if err := w.Validate(); err != nil {
		return err
	}
	f, _ := ParseStepFunction(w.StepFunction)
	pw.SetGravity(rl.Vector3{X: w.Gravity[0], Y: w.Gravity[1], Z: w.Gravity[2]})
	pw.SetStepSize(w.StepSize)
	pw.SetUpdateRate(w.UpdateRate)
	pw.SetIterations(w.Iterations)
	pw.SetStepFunction(f)
	return nil
}
