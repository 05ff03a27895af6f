package analysis

import (
	"math"

	"github.com/san-kum/replicator/internal/dynamo"
)

// Point is a position in the plane of the simplex triangle.
type Point struct {
	X, Y float64
}

// TriangleHeight is the height of the unit-edge simplex triangle.
var TriangleHeight = math.Sqrt(3) / 2

// Vertices of the triangle: strategy 1 at the origin, strategy 0 at (1, 0)
// and strategy 2 at the apex.
var Vertices = [3]Point{
	{X: 1, Y: 0},
	{X: 0, Y: 0},
	{X: 0.5, Y: TriangleHeight},
}

// ToCartesian maps a barycentric state to the triangle. States off the
// simplex map outside it.
func ToCartesian(x dynamo.State) Point {
	return Point{
		X: (x[0] + 1 - x[1]) / 2,
		Y: TriangleHeight * x[2],
	}
}

// Path maps every state of a trajectory.
func Path(states []dynamo.State) []Point {
	pts := make([]Point, len(states))
	for i, s := range states {
		pts[i] = ToCartesian(s)
	}
	return pts
}
