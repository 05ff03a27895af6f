package replicator

import (
	"github.com/san-kum/replicator/internal/dynamo"
)

// Trajectory is the sampled solution of one Solve call. Times[i] is the time
// of States[i]; both are in increasing time order.
type Trajectory struct {
	Times   []float64
	States  []dynamo.State
	Stats   dynamo.Stats
	Metrics map[string]float64
}

func (t *Trajectory) Len() int { return len(t.States) }

func (t *Trajectory) Final() dynamo.State {
	if len(t.States) == 0 {
		return nil
	}
	return t.States[len(t.States)-1].Clone()
}

// Components splits the trajectory into one series per strategy.
func (t *Trajectory) Components() (x0, x1, x2 []float64) {
	x0 = make([]float64, len(t.States))
	x1 = make([]float64, len(t.States))
	x2 = make([]float64, len(t.States))
	for i, s := range t.States {
		x0[i], x1[i], x2[i] = s[0], s[1], s[2]
	}
	return x0, x1, x2
}

func (t *Trajectory) Clone() *Trajectory {
	c := &Trajectory{
		Times:   make([]float64, len(t.Times)),
		States:  make([]dynamo.State, len(t.States)),
		Stats:   t.Stats,
		Metrics: make(map[string]float64, len(t.Metrics)),
	}
	copy(c.Times, t.Times)
	for i, s := range t.States {
		c.States[i] = s.Clone()
	}
	for k, v := range t.Metrics {
		c.Metrics[k] = v
	}
	return c
}
