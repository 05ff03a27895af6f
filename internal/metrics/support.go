package metrics

import (
	"math"

	"github.com/san-kum/replicator/internal/dynamo"
	"github.com/san-kum/replicator/internal/game"
)

// MinComponent records the smallest strategy share seen. A negative value
// means the trajectory left the simplex.
type MinComponent struct {
	name string
	min  float64
	seen bool
}

func NewMinComponent() *MinComponent {
	return &MinComponent{name: "min_component"}
}

func (m *MinComponent) Name() string { return m.name }

func (m *MinComponent) Observe(x dynamo.State, t float64) {
	for _, v := range x {
		if !m.seen || v < m.min {
			m.min = v
			m.seen = true
		}
	}
}

func (m *MinComponent) Value() float64 {
	if !m.seen {
		return math.NaN()
	}
	return m.min
}

func (m *MinComponent) Reset() {
	m.min = 0
	m.seen = false
}

// PathLength sums the Euclidean distance between consecutive samples.
type PathLength struct {
	name   string
	prev   dynamo.State
	length float64
}

func NewPathLength() *PathLength {
	return &PathLength{name: "path_length"}
}

func (p *PathLength) Name() string { return p.name }

func (p *PathLength) Observe(x dynamo.State, t float64) {
	if p.prev != nil {
		p.length += x.Sub(p.prev).Norm()
	}
	p.prev = x.Clone()
}

func (p *PathLength) Value() float64 {
	return p.length
}

func (p *PathLength) Reset() {
	p.prev = nil
	p.length = 0
}

// Defaults returns the metrics attached to every CLI run.
func Defaults(payoff game.PayoffMatrix) []dynamo.Metric {
	return []dynamo.Metric{
		NewSimplexDrift(),
		NewMinComponent(),
		NewMeanFitness(payoff),
		NewPathLength(),
	}
}
