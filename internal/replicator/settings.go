package replicator

import (
	"log/slog"

	"github.com/san-kum/replicator/internal/dynamo"
	"github.com/san-kum/replicator/internal/integrators"
	"github.com/san-kum/replicator/internal/metrics"
)

const (
	// SampleRate is the number of output samples per unit of time.
	SampleRate = 100

	// MaxSamples caps the output grid so absurd horizons fail fast.
	MaxSamples = 10_000_000

	DefaultIntegrator = "rk45"
	DefaultOutputPath = "data.txt"
)

// Settings configures a Solver. The zero value is usable: empty or
// non-positive fields take the defaults listed below, except OutputPath
// where "" means no side-channel file.
type Settings struct {
	// Integrator is one of integrators.Names(). Default "rk45".
	Integrator string
	// RelTol and AbsTol bound the local error of "rk45". Default 1.49012e-8.
	RelTol float64
	AbsTol float64
	// MaxSteps caps internal step attempts between two samples. Default 500.
	MaxSteps int
	// MinStep is the smallest adaptive step before giving up. Default 1e-12.
	MinStep float64
	// FixedStep bounds the substep of "rk4" and "euler". Default 1e-3.
	FixedStep float64
	// OutputPath receives the trajectory after every successful solve.
	// DefaultSettings uses DefaultOutputPath.
	OutputPath string
	// ValidateInitialState rejects initial states off the simplex. Off by
	// default: any three-component state is integrated as given.
	ValidateInitialState bool
	// Logger receives debug and warning records. Nil discards.
	Logger *slog.Logger
	// Recorder collects Prometheus metrics. Nil disables them.
	Recorder *metrics.Recorder
}

func DefaultSettings() Settings {
	return Settings{
		Integrator: DefaultIntegrator,
		RelTol:     integrators.DefaultRelTol,
		AbsTol:     integrators.DefaultAbsTol,
		MaxSteps:   dynamo.DefaultMaxSteps,
		MinStep:    dynamo.DefaultMinStep,
		FixedStep:  dynamo.DefaultFixedStep,
		OutputPath: DefaultOutputPath,
	}
}

func (s Settings) withDefaults() Settings {
	if s.Integrator == "" {
		s.Integrator = DefaultIntegrator
	}
	if s.RelTol <= 0 {
		s.RelTol = integrators.DefaultRelTol
	}
	if s.AbsTol <= 0 {
		s.AbsTol = integrators.DefaultAbsTol
	}
	if s.MaxSteps <= 0 {
		s.MaxSteps = dynamo.DefaultMaxSteps
	}
	if s.MinStep <= 0 {
		s.MinStep = dynamo.DefaultMinStep
	}
	if s.FixedStep <= 0 {
		s.FixedStep = dynamo.DefaultFixedStep
	}
	return s
}

func (s Settings) driveConfig() dynamo.DriveConfig {
	return dynamo.DriveConfig{
		MinStep:   s.MinStep,
		MaxSteps:  s.MaxSteps,
		FixedStep: s.FixedStep,
	}
}

func (s Settings) tolerances() integrators.Tolerances {
	return integrators.Tolerances{RelTol: s.RelTol, AbsTol: s.AbsTol}
}
