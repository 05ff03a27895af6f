// Package game holds the three-strategy payoff matrix and the simplex
// arithmetic the replicator equation is built from.
package game

import (
	"math"

	"github.com/san-kum/replicator/internal/dynamo"
)

// Strategies is the number of pure strategies.
const Strategies = 3

// SimplexTolerance bounds |sum-1| for a state to count as on the simplex.
const SimplexTolerance = 1e-6

// PayoffMatrix entry (i, j) is the payoff to strategy i meeting strategy j.
type PayoffMatrix [Strategies][Strategies]float64

// NewPayoffMatrix copies rows into a PayoffMatrix. Anything other than three
// rows of three finite numbers is rejected with ErrInvalidArgument.
func NewPayoffMatrix(rows [][]float64) (PayoffMatrix, error) {
	var a PayoffMatrix
	if len(rows) != Strategies {
		return a, dynamo.InvalidArgument("payoff matrix has %d rows, want %d", len(rows), Strategies)
	}
	for i, row := range rows {
		if len(row) != Strategies {
			return a, dynamo.InvalidArgument("payoff row %d has %d columns, want %d", i, len(row), Strategies)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return a, dynamo.InvalidArgument("payoff entry (%d,%d) is not finite", i, j)
			}
			a[i][j] = v
		}
	}
	return a, nil
}

func Identity() PayoffMatrix {
	return PayoffMatrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Rows returns a copy of the matrix as nested slices.
func (a PayoffMatrix) Rows() [][]float64 {
	rows := make([][]float64, Strategies)
	for i := range a {
		rows[i] = []float64{a[i][0], a[i][1], a[i][2]}
	}
	return rows
}

// Fitness returns A x: the expected payoff of each pure strategy against
// the population mix x.
func (a PayoffMatrix) Fitness(x dynamo.State) [Strategies]float64 {
	var f [Strategies]float64
	for i := 0; i < Strategies; i++ {
		f[i] = a[i][0]*x[0] + a[i][1]*x[1] + a[i][2]*x[2]
	}
	return f
}

// MeanFitness returns x . (A x).
func (a PayoffMatrix) MeanFitness(x dynamo.State) float64 {
	f := a.Fitness(x)
	return x[0]*f[0] + x[1]*f[1] + x[2]*f[2]
}

// OnSimplex reports whether x has three non-negative components summing to
// one within SimplexTolerance.
func OnSimplex(x []float64) bool {
	return ValidateState(x) == nil
}

// ValidateState explains why x is not a population state.
func ValidateState(x []float64) error {
	if len(x) != Strategies {
		return dynamo.InvalidArgument("state has %d components, want %d", len(x), Strategies)
	}
	sum := 0.0
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return dynamo.InvalidArgument("state component %d is not finite", i)
		}
		if v < 0 {
			return dynamo.InvalidArgument("state component %d is negative (%g)", i, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > SimplexTolerance {
		return dynamo.InvalidArgument("state sums to %g, want 1", sum)
	}
	return nil
}

// Barycenter is the uniform mix (1/3, 1/3, 1/3).
func Barycenter() dynamo.State {
	return dynamo.State{1.0 / 3, 1.0 / 3, 1.0 / 3}
}
