package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/replicator/internal/dynamo"
	"github.com/san-kum/replicator/internal/game"
	"github.com/san-kum/replicator/internal/replicator"
)

const (
	DefaultGame      = "rps"
	DefaultTotalTime = 30.0
	DefaultDataDir   = ".replicator"
	DefaultLogLevel  = "warn"
)

// Config is the on-disk description of one solve.
type Config struct {
	Game                 string      `yaml:"game"`
	Payoff               [][]float64 `yaml:"payoff"`
	InitialState         []float64   `yaml:"initial_state"`
	TotalTime            float64     `yaml:"total_time"`
	Integrator           string      `yaml:"integrator"`
	RelTol               float64     `yaml:"rel_tol,omitempty"`
	AbsTol               float64     `yaml:"abs_tol,omitempty"`
	Output               string      `yaml:"output"`
	DataDir              string      `yaml:"data_dir"`
	ValidateInitialState bool        `yaml:"validate_initial_state"`
	LogLevel             string      `yaml:"log_level"`
}

// Overrides are the environment variables that take precedence over a config
// file. Unset variables leave the file's values alone.
type Overrides struct {
	DataDir    string `env:"REPLICATOR_DATA_DIR"`
	Output     string `env:"REPLICATOR_OUTPUT"`
	Integrator string `env:"REPLICATOR_INTEGRATOR"`
	LogLevel   string `env:"REPLICATOR_LOG_LEVEL"`
}

func DefaultConfig() *Config {
	cfg := GetPreset(DefaultGame)
	cfg.Output = replicator.DefaultOutputPath
	cfg.DataDir = DefaultDataDir
	cfg.LogLevel = DefaultLogLevel
	return cfg
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.Merge(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge overlays the keys present in the YAML file at path onto c.
func (c *Config) Merge(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overlays the REPLICATOR_* environment variables onto c.
func (c *Config) ApplyEnv() error {
	var o Overrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.Integrator != "" {
		c.Integrator = o.Integrator
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	return nil
}

// PayoffMatrix validates the configured payoff.
func (c *Config) PayoffMatrix() (game.PayoffMatrix, error) {
	return game.NewPayoffMatrix(c.Payoff)
}

// Settings maps the file's solver fields onto replicator settings. Logger
// and Recorder are left for the caller.
func (c *Config) Settings() replicator.Settings {
	s := replicator.DefaultSettings()
	if c.Integrator != "" {
		s.Integrator = c.Integrator
	}
	if c.RelTol > 0 {
		s.RelTol = c.RelTol
	}
	if c.AbsTol > 0 {
		s.AbsTol = c.AbsTol
	}
	s.OutputPath = c.Output
	s.ValidateInitialState = c.ValidateInitialState
	return s
}

// Level parses LogLevel; an empty value is DefaultLogLevel.
func (c *Config) Level() (slog.Level, error) {
	name := c.LogLevel
	if name == "" {
		name = DefaultLogLevel
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return 0, dynamo.InvalidArgument("unknown log level %q", c.LogLevel)
	}
	return level, nil
}
