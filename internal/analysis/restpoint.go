package analysis

import (
	"math"

	"github.com/san-kum/replicator/internal/dynamo"
	"github.com/san-kum/replicator/internal/game"
	"github.com/san-kum/replicator/internal/replicator"
)

// IsRestPoint reports whether every component of the replicator vector
// field at x is within tol of zero.
func IsRestPoint(a game.PayoffMatrix, x dynamo.State, tol float64) bool {
	for _, v := range replicator.NewDynamics(a).Derive(x, 0) {
		if math.IsNaN(v) || math.Abs(v) > tol {
			return false
		}
	}
	return true
}

// NearestVertex returns the index of the dominant strategy in x and its
// distance from that vertex. Ties go to the lower index.
func NearestVertex(x dynamo.State) (int, float64) {
	best := 0
	for i := 1; i < len(x); i++ {
		if x[i] > x[best] {
			best = i
		}
	}
	vertex := make(dynamo.State, len(x))
	vertex[best] = 1
	return best, x.Sub(vertex).Norm()
}
