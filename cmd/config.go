package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	sim "github.com/nucsim/nucsim/sim"
	"github.com/nucsim/nucsim/sim/trace"
)

// RunConfig is the on-disk description of a run.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type RunConfig struct {
	Seed       int64            `yaml:"seed"`
	Steps      int              `yaml:"steps"`
	TimeStep   float64          `yaml:"dt"` // s
	TraceLevel string           `yaml:"trace_level"`
	Driver     LoadingDriver    `yaml:"driver"`
	Engine     sim.ConfigBundle `yaml:"engine"`
}

// envOverrides lists the settings that can be overridden from the
// environment. Fields keep their current value when the variable is unset.
type envOverrides struct {
	Seed        int64   `env:"NUCSIM_SEED"`
	Steps       int     `env:"NUCSIM_STEPS"`
	TimeStep    float64 `env:"NUCSIM_DT"`
	TraceLevel  string  `env:"NUCSIM_TRACE_LEVEL"`
	Temperature float64 `env:"NUCSIM_TEMPERATURE"`
	DomainID    int     `env:"NUCSIM_DOMAIN"`
}

// DefaultRunConfig returns a 1000-step run of the default pillar under a
// 0.1 GPa/ns tensile ramp at room temperature.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Seed:       8917346,
		Steps:      1000,
		TimeStep:   1e-10,
		TraceLevel: string(trace.TraceLevelNucleations),
		Driver: LoadingDriver{
			Temperature: 300,
			StressRate:  [6]float64{sim.ZZ: 1e17},
		},
	}
}

// LoadRunConfig returns DefaultRunConfig overlaid with the YAML file at
// path. An empty path yields the defaults. Unknown keys are errors.
func LoadRunConfig(path string) (RunConfig, error) {
	rc := DefaultRunConfig()
	if path == "" {
		return rc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return rc, fmt.Errorf("reading run config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&rc); err != nil {
		return rc, fmt.Errorf("parsing run config %s: %w", path, err)
	}
	return rc, nil
}

// ApplyEnv overlays NUCSIM_* environment variables onto rc.
func (rc *RunConfig) ApplyEnv() error {
	o := envOverrides{
		Seed:        rc.Seed,
		Steps:       rc.Steps,
		TimeStep:    rc.TimeStep,
		TraceLevel:  rc.TraceLevel,
		Temperature: rc.Driver.Temperature,
	}
	if d := rc.Engine.Domain.DomainID; d != nil {
		o.DomainID = *d
	}
	domain := o.DomainID
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parsing environment overrides: %w", err)
	}
	rc.Seed = o.Seed
	rc.Steps = o.Steps
	rc.TimeStep = o.TimeStep
	rc.TraceLevel = o.TraceLevel
	rc.Driver.Temperature = o.Temperature
	if o.DomainID != domain {
		rc.Engine.Domain.DomainID = &o.DomainID
	}
	return nil
}

// Validate checks run-level settings and the engine overrides.
func (rc RunConfig) Validate() error {
	if rc.Steps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", rc.Steps)
	}
	if rc.TimeStep <= 0 {
		return fmt.Errorf("dt must be positive, got %g", rc.TimeStep)
	}
	if !trace.IsValidTraceLevel(rc.TraceLevel) {
		return fmt.Errorf("unknown trace level %q", rc.TraceLevel)
	}
	return rc.Engine.Validate()
}

// EngineConfig returns sim.DefaultConfig with the engine overrides applied.
func (rc RunConfig) EngineConfig() sim.Config {
	cfg := sim.DefaultConfig()
	rc.Engine.Apply(&cfg)
	return cfg
}
