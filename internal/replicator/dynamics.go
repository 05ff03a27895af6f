package replicator

import (
	"github.com/san-kum/replicator/internal/dynamo"
	"github.com/san-kum/replicator/internal/game"
)

// Dynamics is the replicator vector field for a fixed payoff matrix.
type Dynamics struct {
	payoff game.PayoffMatrix
}

func NewDynamics(payoff game.PayoffMatrix) *Dynamics {
	return &Dynamics{payoff: payoff}
}

func (d *Dynamics) StateDim() int { return game.Strategies }

func (d *Dynamics) Derive(x dynamo.State, t float64) dynamo.State {
	f := d.payoff.Fitness(x)
	phi := x[0]*f[0] + x[1]*f[1] + x[2]*f[2]
	return dynamo.State{
		x[0] * (f[0] - phi),
		x[1] * (f[1] - phi),
		x[2] * (f[2] - phi),
	}
}
