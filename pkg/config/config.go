// pkg/config/config.go
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/opd-ai/go-kinetics/pkg/input"
	"github.com/opd-ai/go-kinetics/pkg/physics"
)

// EnvPrefix is prepended to every environment override, e.g.
// KINETICS_SIMULATION_TIMESTEP or KINETICS_RENDER_BACKEND.
const EnvPrefix = "KINETICS"

// Entity kinds
const (
	KindAvatar = "avatar"
	KindShip   = "ship"
)

// Render backends
const (
	BackendTerminal = "terminal"
	BackendEngo     = "engo"
	BackendEbiten   = "ebiten"
	BackendNull     = "null"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config contains the configuration for a simulation run
type Config struct {
	Simulation SimulationConfig `json:"simulation" mapstructure:"simulation"`
	Input      InputConfig      `json:"input" mapstructure:"input"`
	Entities   []EntityConfig   `json:"entities" mapstructure:"entities"`
	Render     RenderConfig     `json:"render" mapstructure:"render"`
	Logging    LoggingConfig    `json:"logging" mapstructure:"logging"`
}

// SimulationConfig contains integration settings
type SimulationConfig struct {
	// TimeStep is the fixed step in seconds used by frontends that do not
	// measure their own frame time.
	TimeStep            float64 `json:"timeStep" mapstructure:"timeStep"`
	PositionIntegration string  `json:"positionIntegration" mapstructure:"positionIntegration"`
}

// InputConfig contains key bindings by name, e.g. {"W": "MoveUp"}
type InputConfig struct {
	Bindings map[string]string `json:"bindings" mapstructure:"bindings"`
	// HoldTimeout is how long the terminal frontend treats a key as held
	// after its last press, since terminals report no releases.
	HoldTimeout time.Duration `json:"holdTimeout" mapstructure:"holdTimeout"`
	// RepeatDelay is how long a key counts as held after its first press,
	// before the terminal's auto-repeat starts. It should exceed the
	// terminal's repeat delay; HoldTimeout applies once repeats arrive.
	RepeatDelay time.Duration `json:"repeatDelay" mapstructure:"repeatDelay"`
}

// EntityConfig describes one entity to spawn
type EntityConfig struct {
	Name            string    `json:"name" mapstructure:"name"`
	Kind            string    `json:"kind" mapstructure:"kind"`
	X               float32   `json:"x" mapstructure:"x"`
	Y               float32   `json:"y" mapstructure:"y"`
	Z               float32   `json:"z" mapstructure:"z"`
	Color           []float32 `json:"color,omitempty" mapstructure:"color"`
	Size            float32   `json:"size" mapstructure:"size"`
	Speed           float32   `json:"speed,omitempty" mapstructure:"speed"`
	Mass            float64   `json:"mass,omitempty" mapstructure:"mass"`
	Thrust          float64   `json:"thrust,omitempty" mapstructure:"thrust"`
	MaxSpeed        float64   `json:"maxSpeed,omitempty" mapstructure:"maxSpeed"`
	RespondsToInput bool      `json:"respondsToInput" mapstructure:"respondsToInput"`
}

// RenderConfig selects and sizes the frontend
type RenderConfig struct {
	Backend    string    `json:"backend" mapstructure:"backend"`
	Width      int       `json:"width" mapstructure:"width"`
	Height     int       `json:"height" mapstructure:"height"`
	Fullscreen bool      `json:"fullscreen" mapstructure:"fullscreen"`
	Title      string    `json:"title" mapstructure:"title"`
	ClearColor []float32 `json:"clearColor" mapstructure:"clearColor"`
}

// LoggingConfig contains the log level name
type LoggingConfig struct {
	Level string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns a configuration with one input-driven avatar
// and one idle ship.
func DefaultConfig() *Config {
	return &Config{
		Simulation: SimulationConfig{
			TimeStep:            1.0 / 60.0,
			PositionIntegration: physics.ScaledPosition.String(),
		},
		Input: InputConfig{
			Bindings:    defaultBindingNames(),
			HoldTimeout: 150 * time.Millisecond,
			RepeatDelay: 600 * time.Millisecond,
		},
		Entities: []EntityConfig{
			{
				Name:            "player",
				Kind:            KindAvatar,
				Size:            0.1,
				Speed:           0.01,
				RespondsToInput: true,
			},
			{
				Name:     "drifter",
				Kind:     KindShip,
				X:        0.5,
				Y:        0.5,
				Color:    []float32{0.9, 0.4, 0.1},
				Size:     0.05,
				Mass:     2,
				Thrust:   4,
				MaxSpeed: 1,
			},
		},
		Render: RenderConfig{
			Backend:    BackendTerminal,
			Width:      800,
			Height:     600,
			Title:      "kinetics",
			ClearColor: []float32{0, 0, 0},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func defaultBindingNames() map[string]string {
	names := make(map[string]string)
	for k, c := range input.DefaultBindings() {
		names[k.String()] = c.String()
	}
	return names
}

// newViper returns a viper instance with defaults and the environment
// overlay registered. Maps and slices get no viper defaults because viper
// would merge them with the file's values key by key.
func newViper() *viper.Viper {
	def := DefaultConfig()
	v := viper.New()
	v.SetConfigType("json")

	v.SetDefault("simulation.timeStep", def.Simulation.TimeStep)
	v.SetDefault("simulation.positionIntegration", def.Simulation.PositionIntegration)
	v.SetDefault("input.holdTimeout", def.Input.HoldTimeout)
	v.SetDefault("input.repeatDelay", def.Input.RepeatDelay)
	v.SetDefault("render.backend", def.Render.Backend)
	v.SetDefault("render.width", def.Render.Width)
	v.SetDefault("render.height", def.Render.Height)
	v.SetDefault("render.fullscreen", def.Render.Fullscreen)
	v.SetDefault("render.title", def.Render.Title)
	v.SetDefault("logging.level", def.Logging.Level)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig loads a configuration from a JSON file, applies KINETICS_*
// environment overrides, and validates the result. An empty path loads
// only defaults and environment overrides.
func LoadConfig(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// fillDefaults supplies the collections that viper leaves empty.
func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if len(c.Input.Bindings) == 0 {
		c.Input.Bindings = def.Input.Bindings
	}
	if len(c.Entities) == 0 {
		c.Entities = def.Entities
	}
	if len(c.Render.ClearColor) == 0 {
		c.Render.ClearColor = def.Render.ClearColor
	}
}

// SaveConfig saves a configuration to a JSON file
func SaveConfig(config *Config, path string) error {
	data, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// PositionPolicy resolves the configured position integration policy.
func (c *Config) PositionPolicy() (physics.PositionIntegration, error) {
	return physics.ParsePositionIntegration(c.Simulation.PositionIntegration)
}

// KeyBindings resolves the configured key and command names.
func (c *Config) KeyBindings() (input.KeyBinding, error) {
	bindings := make(input.KeyBinding, len(c.Input.Bindings))
	for keyName, cmdName := range c.Input.Bindings {
		key, err := input.ParseKey(keyName)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", keyName, err)
		}
		cmd, err := input.ParseCommand(cmdName)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", keyName, err)
		}
		bindings[key] = cmd
	}
	return bindings, nil
}

// Validate checks the configuration for values the simulation cannot run
// with. Every failure wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	if math.IsNaN(c.Simulation.TimeStep) || math.IsInf(c.Simulation.TimeStep, 0) || c.Simulation.TimeStep <= 0 {
		return fmt.Errorf("%w: simulation.timeStep must be positive, got %v", ErrInvalidConfig, c.Simulation.TimeStep)
	}
	if _, err := c.PositionPolicy(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := c.KeyBindings(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Input.HoldTimeout < 0 {
		return fmt.Errorf("%w: input.holdTimeout must not be negative", ErrInvalidConfig)
	}
	if c.Input.RepeatDelay < 0 {
		return fmt.Errorf("%w: input.repeatDelay must not be negative", ErrInvalidConfig)
	}
	if len(c.Entities) == 0 {
		return fmt.Errorf("%w: at least one entity is required", ErrInvalidConfig)
	}

	names := make(map[string]bool, len(c.Entities))
	for i, e := range c.Entities {
		if err := e.validate(); err != nil {
			return fmt.Errorf("%w: entities[%d]: %v", ErrInvalidConfig, i, err)
		}
		if e.Name != "" {
			if names[e.Name] {
				return fmt.Errorf("%w: entities[%d]: duplicate name %q", ErrInvalidConfig, i, e.Name)
			}
			names[e.Name] = true
		}
	}

	switch c.Render.Backend {
	case BackendTerminal, BackendEngo, BackendEbiten, BackendNull:
	default:
		return fmt.Errorf("%w: unknown render.backend %q", ErrInvalidConfig, c.Render.Backend)
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("%w: render size must be positive, got %dx%d", ErrInvalidConfig, c.Render.Width, c.Render.Height)
	}
	if err := validateColor(c.Render.ClearColor); err != nil {
		return fmt.Errorf("%w: render.clearColor: %v", ErrInvalidConfig, err)
	}

	return nil
}

func (e EntityConfig) validate() error {
	switch e.Kind {
	case KindAvatar:
		if e.Speed < 0 {
			return fmt.Errorf("speed must not be negative")
		}
	case KindShip:
		if !(e.Mass > 0) || math.IsInf(e.Mass, 0) {
			return fmt.Errorf("mass must be positive, got %v", e.Mass)
		}
		if e.Thrust < 0 || e.MaxSpeed < 0 {
			return fmt.Errorf("thrust and maxSpeed must not be negative")
		}
	default:
		return fmt.Errorf("unknown kind %q", e.Kind)
	}
	if e.Size <= 0 {
		return fmt.Errorf("size must be positive")
	}
	return validateColor(e.Color)
}

func validateColor(rgb []float32) error {
	if len(rgb) == 0 {
		return nil
	}
	if len(rgb) != 3 {
		return fmt.Errorf("color needs 3 components, got %d", len(rgb))
	}
	for _, v := range rgb {
		if v < 0 || v > 1 {
			return fmt.Errorf("color component %v outside [0, 1]", v)
		}
	}
	return nil
}
