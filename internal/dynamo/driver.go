package dynamo

import (
	"math"
)

const (
	DefaultMinStep   = 1e-12
	DefaultMaxSteps  = 500
	DefaultFixedStep = 1e-3
)

// DriveConfig bounds the internal stepping between two output samples.
type DriveConfig struct {
	// InitialStep seeds adaptive stepping; 0 picks one from the first derivative.
	InitialStep float64
	// MinStep is the smallest step an adaptive integrator may shrink to.
	MinStep float64
	// MaxSteps caps step attempts (accepted and rejected) per grid interval.
	MaxSteps int
	// FixedStep is the upper bound for substeps of non-adaptive integrators.
	FixedStep float64
}

func (c DriveConfig) withDefaults() DriveConfig {
	if c.MinStep <= 0 {
		c.MinStep = DefaultMinStep
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = DefaultMaxSteps
	}
	if c.FixedStep <= 0 {
		c.FixedStep = DefaultFixedStep
	}
	return c
}

// Stats summarises the work done by one Integrate call.
type Stats struct {
	Steps       int     `json:"steps"`
	Rejected    int     `json:"rejected"`
	Evaluations int     `json:"evaluations"`
	LastStep    float64 `json:"last_step"`
}

type countingSystem struct {
	System
	evaluations int
}

func (c *countingSystem) Derive(x State, t float64) State {
	c.evaluations++
	return c.System.Derive(x, t)
}

// Integrate advances x0 across grid and returns one state per grid point.
// The first returned state is a copy of x0.
func Integrate(dyn System, integ Integrator, x0 State, grid []float64, cfg DriveConfig) ([]State, Stats, error) {
	if len(grid) == 0 {
		return nil, Stats{}, InvalidArgument("empty time grid")
	}
	if len(x0) != dyn.StateDim() {
		return nil, Stats{}, InvalidArgument("state has %d components, system expects %d", len(x0), dyn.StateDim())
	}
	cfg = cfg.withDefaults()

	counter := &countingSystem{System: dyn}
	states := make([]State, len(grid))
	states[0] = x0.Clone()

	var stats Stats
	x := x0.Clone()

	adaptive, isAdaptive := integ.(AdaptiveIntegrator)
	h := cfg.InitialStep
	if isAdaptive && h <= 0 {
		h = initialStep(counter, x, grid)
	}

	for k := 1; k < len(grid); k++ {
		t0, t1 := grid[k-1], grid[k]

		var err error
		if isAdaptive {
			x, h, err = advanceAdaptive(adaptive, counter, x, t0, t1, h, cfg, &stats)
		} else {
			x, err = advanceFixed(integ, counter, x, t0, t1, cfg, &stats)
		}
		if err != nil {
			stats.Evaluations = counter.evaluations
			return nil, stats, &IntegrationError{
				Step:    k,
				Time:    t1,
				State:   states[k-1].Clone(),
				Wrapped: err,
			}
		}

		states[k] = x.Clone()
	}

	stats.Evaluations = counter.evaluations
	return states, stats, nil
}

func advanceAdaptive(integ AdaptiveIntegrator, dyn System, x State, t0, t1, h float64, cfg DriveConfig, stats *Stats) (State, float64, error) {
	t := t0
	for attempts := 0; t < t1; attempts++ {
		if attempts >= cfg.MaxSteps {
			return x, h, ErrStepBudget
		}

		remaining := t1 - t
		clipped := h >= remaining
		dt := h
		if clipped {
			dt = remaining
		}

		next, dtNext, accepted := integ.StepAdaptive(dyn, x, t, dt)
		if !accepted {
			stats.Rejected++
			if dtNext < cfg.MinStep || math.IsNaN(dtNext) {
				return x, h, ErrStepTooSmall
			}
			h = dtNext
			continue
		}
		if !next.IsValid() {
			return x, h, ErrInvalidState
		}

		stats.Steps++
		stats.LastStep = dt
		x = next
		if clipped {
			t = t1
			// a step shortened to hit the grid says little about the next one
			if dtNext > h {
				h = dtNext
			}
		} else {
			t += dt
			h = dtNext
		}
	}
	return x, h, nil
}

func advanceFixed(integ Integrator, dyn System, x State, t0, t1 float64, cfg DriveConfig, stats *Stats) (State, error) {
	span := t1 - t0
	n := int(math.Ceil(span/cfg.FixedStep - 1e-9))
	if n < 1 {
		n = 1
	}
	dt := span / float64(n)

	t := t0
	for i := 0; i < n; i++ {
		x = integ.Step(dyn, x, t, dt)
		if !x.IsValid() {
			return x, ErrInvalidState
		}
		stats.Steps++
		t = t0 + float64(i+1)*dt
	}
	stats.LastStep = dt
	return x, nil
}

// initialStep guesses a first step from the size of the state and its rate
// of change, never longer than the first grid interval.
func initialStep(dyn System, x State, grid []float64) float64 {
	if len(grid) < 2 {
		return DefaultFixedStep
	}
	h := grid[1] - grid[0]

	d0 := x.Norm()
	d1 := dyn.Derive(x, grid[0]).Norm()
	if d1 > 1e-10 {
		guess := 0.01 * math.Max(d0, 1e-5) / d1
		if guess < h {
			h = guess
		}
	}
	return h
}
