package metrics

import (
	"github.com/san-kum/replicator/internal/dynamo"
	"github.com/san-kum/replicator/internal/game"
)

// MeanFitness averages the population's mean payoff x.(Ax) over all samples.
type MeanFitness struct {
	name    string
	payoff  game.PayoffMatrix
	sum     float64
	samples int
}

func NewMeanFitness(payoff game.PayoffMatrix) *MeanFitness {
	return &MeanFitness{
		name:   "mean_fitness",
		payoff: payoff,
	}
}

func (m *MeanFitness) Name() string { return m.name }

func (m *MeanFitness) Observe(x dynamo.State, t float64) {
	if len(x) < game.Strategies {
		return
	}
	m.sum += m.payoff.MeanFitness(x)
	m.samples++
}

func (m *MeanFitness) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanFitness) Reset() {
	m.sum = 0
	m.samples = 0
}
