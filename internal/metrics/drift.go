package metrics

import (
	"math"

	"github.com/san-kum/replicator/internal/dynamo"
)

// SimplexDrift tracks the largest |sum(x) - 1| seen across a trajectory.
// The replicator flow keeps the sum at one exactly; anything observed here is
// discretisation error.
type SimplexDrift struct {
	name     string
	maxDrift float64
}

func NewSimplexDrift() *SimplexDrift {
	return &SimplexDrift{name: "simplex_drift"}
}

func (s *SimplexDrift) Name() string { return s.name }

func (s *SimplexDrift) Observe(x dynamo.State, t float64) {
	s.maxDrift = math.Max(s.maxDrift, math.Abs(x.Sum()-1))
}

func (s *SimplexDrift) Value() float64 {
	return s.maxDrift
}

func (s *SimplexDrift) Reset() {
	s.maxDrift = 0
}
