package replicator

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/replicator/internal/dynamo"
	"github.com/san-kum/replicator/internal/game"
	"github.com/san-kum/replicator/internal/integrators"
	"github.com/san-kum/replicator/internal/metrics"
	"github.com/san-kum/replicator/internal/storage"
)

// Solver integrates the replicator equation and keeps the latest trajectory.
type Solver struct {
	settings Settings
	logger   *slog.Logger
	metrics  []dynamo.Metric
	current  *Trajectory
}

func New(settings Settings) *Solver {
	settings = settings.withDefaults()
	logger := settings.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Solver{
		settings: settings,
		logger:   logger,
		metrics:  make([]dynamo.Metric, 0),
	}
}

// AddMetric registers m to be fed every sample of each successful solve.
func (s *Solver) AddMetric(m dynamo.Metric) { s.metrics = append(s.metrics, m) }

// request is a validated Solve call.
type request struct {
	payoff    game.PayoffMatrix
	totalTime float64
	samples   int
	x0        dynamo.State
	integ     dynamo.Integrator
}

// Solve integrates the replicator dynamics of payoff from x0 over
// [0, totalTime] and returns floor(totalTime*SampleRate) samples, the first
// being x0 itself. Invalid arguments are rejected before any work is done
// and leave both the held trajectory and the output file untouched.
//
// On success the trajectory replaces the held one and, if OutputPath is set,
// is written there. A failed write returns an error matching
// dynamo.ErrIOFailure; the trajectory is still available from Results.
func (s *Solver) Solve(payoff [][]float64, totalTime float64, x0 []float64) (*Trajectory, error) {
	start := time.Now()
	rec := s.settings.Recorder
	name := s.settings.Integrator

	req, err := s.validate(payoff, totalTime, x0)
	if err != nil {
		rec.ObserveSolve(name, metrics.OutcomeInvalidArgument, time.Since(start), dynamo.Stats{}, 0)
		return nil, err
	}

	s.logger.Debug("solve start",
		"integrator", name,
		"total_time", req.totalTime,
		"samples", req.samples,
		"x0", []float64(req.x0),
	)

	grid := dynamo.Linspace(0, req.totalTime, req.samples)
	states, stats, err := dynamo.Integrate(NewDynamics(req.payoff), req.integ, req.x0, grid, s.settings.driveConfig())
	if err != nil {
		attrs := []any{"integrator", name, "error", err, "steps", stats.Steps, "rejected", stats.Rejected}
		var ie *dynamo.IntegrationError
		if errors.As(err, &ie) {
			attrs = append(attrs, "sample", ie.Step, "t", ie.Time)
		}
		s.logger.Warn("solve failed", attrs...)
		rec.ObserveSolve(name, metrics.OutcomeIntegrationFailure, time.Since(start), stats, 0)
		return nil, err
	}

	traj := &Trajectory{
		Times:   grid,
		States:  states,
		Stats:   stats,
		Metrics: s.evaluate(grid, states),
	}
	s.current = traj

	if path := s.settings.OutputPath; path != "" {
		if err := storage.WriteSamples(path, states); err != nil {
			s.logger.Warn("trajectory write failed", "path", path, "error", err)
			rec.ObserveSolve(name, metrics.OutcomeIOFailure, time.Since(start), stats, len(states))
			return nil, err
		}
	}

	elapsed := time.Since(start)
	s.logger.Debug("solve done",
		"integrator", name,
		"samples", len(states),
		"steps", stats.Steps,
		"rejected", stats.Rejected,
		"evaluations", stats.Evaluations,
		"elapsed", elapsed,
	)
	rec.ObserveSolve(name, metrics.OutcomeOK, elapsed, stats, len(states))

	return traj.Clone(), nil
}

// Results returns a copy of the latest trajectory, or ErrNotReady if no
// Solve has succeeded yet.
func (s *Solver) Results() (*Trajectory, error) {
	if s.current == nil {
		return nil, dynamo.ErrNotReady
	}
	return s.current.Clone(), nil
}

func (s *Solver) validate(payoff [][]float64, totalTime float64, x0 []float64) (*request, error) {
	if math.IsNaN(totalTime) || math.IsInf(totalTime, 0) || totalTime <= 0 {
		return nil, dynamo.InvalidArgument("total time must be positive and finite, got %v", totalTime)
	}
	samples := math.Floor(totalTime * SampleRate)
	if samples < 1 {
		return nil, dynamo.InvalidArgument("total time %v yields an empty time grid", totalTime)
	}
	if samples > MaxSamples {
		return nil, dynamo.InvalidArgument("total time %v yields more than %d samples", totalTime, MaxSamples)
	}

	a, err := game.NewPayoffMatrix(payoff)
	if err != nil {
		return nil, err
	}

	if len(x0) != game.Strategies {
		return nil, dynamo.InvalidArgument("initial state has %d components, want %d", len(x0), game.Strategies)
	}
	if s.settings.ValidateInitialState {
		if err := game.ValidateState(x0); err != nil {
			return nil, err
		}
	} else if !game.OnSimplex(x0) {
		s.logger.Warn("initial state is off the simplex", "x0", x0)
	}

	integ, err := integrators.New(s.settings.Integrator, s.settings.tolerances())
	if err != nil {
		return nil, err
	}

	return &request{
		payoff:    a,
		totalTime: totalTime,
		samples:   int(samples),
		x0:        dynamo.State(x0).Clone(),
		integ:     integ,
	}, nil
}

func (s *Solver) evaluate(times []float64, states []dynamo.State) map[string]float64 {
	values := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		m.Reset()
		for i, x := range states {
			m.Observe(x, times[i])
		}
		values[m.Name()] = m.Value()
	}
	return values
}
