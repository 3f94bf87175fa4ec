package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/specialistvlad/sparsegrid/internal/coord"
	"github.com/specialistvlad/sparsegrid/internal/engine"
	"github.com/specialistvlad/sparsegrid/internal/grid"
	"gopkg.in/yaml.v3"
)

// ShapeConfig is the initial grid shape.
type ShapeConfig struct {
	Rows int `yaml:"rows" validate:"gt=0"`
	Cols int `yaml:"cols" validate:"gt=0"`
	Tabs int `yaml:"tabs" validate:"gt=0"`
}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	LogFormat string `yaml:"log_format" validate:"oneof=text json"`
	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`

	Shape        ShapeConfig `yaml:"shape"`
	MaxEvalDepth int         `yaml:"max_eval_depth" validate:"gt=0"`
	SafeMode     bool        `yaml:"safe_mode"`

	SheetPath string `yaml:"sheet_path" validate:"required_if=Watch true"`
	Watch     bool   `yaml:"watch"`

	HTTPPort    int    `yaml:"http_port" validate:"gte=0,lte=65535"`
	GatewayAddr string `yaml:"gateway_addr"`
}

var configValidate = validator.New()

// DefaultConfig returns the built-in defaults, the lowest-precedence
// configuration source.
func DefaultConfig() Config {
	return Config{
		LogFormat: "text",
		LogLevel:  "info",
		Shape: ShapeConfig{
			Rows: grid.DefaultShape.Rows,
			Cols: grid.DefaultShape.Cols,
			Tabs: grid.DefaultShape.Tabs,
		},
		MaxEvalDepth: engine.DefaultMaxDepth,
	}
}

// LoadConfigFile overlays the YAML file at path onto base. Keys missing
// from the file keep their value in base.
func LoadConfigFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if err := configValidate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, fmt.Errorf("invalid configuration: field %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// GridShape returns the configured shape.
func (c *Config) GridShape() coord.Shape {
	return coord.Shape{Rows: c.Shape.Rows, Cols: c.Shape.Cols, Tabs: c.Shape.Tabs}
}
