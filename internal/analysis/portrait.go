package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/replicator/internal/dynamo"
)

var (
	pathMarks  = []rune{'•', 'o', '+', 'x', '*', '#'}
	edgeMark   = '·'
	startMark  = '@'
	vertexMark = [3]rune{'0', '1', '2'}
)

// Portrait draws the simplex triangle and each trajectory in it as ASCII
// art. Trajectories use distinct marks in order; every start is drawn as
// '@' and the vertices carry their strategy index. Width and height below 3
// yield an empty string.
func Portrait(trajectories [][]dynamo.State, width, height int) string {
	if width < 3 || height < 3 {
		return ""
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	plot := func(p Point, mark rune, overwrite bool) {
		row, col, ok := cell(p, width, height)
		if !ok {
			return
		}
		if overwrite || canvas[row][col] == ' ' {
			canvas[row][col] = mark
		}
	}

	steps := 2 * (width + height)
	for v := 0; v < 3; v++ {
		a, b := Vertices[v], Vertices[(v+1)%3]
		for k := 0; k <= steps; k++ {
			f := float64(k) / float64(steps)
			plot(Point{X: a.X + f*(b.X-a.X), Y: a.Y + f*(b.Y-a.Y)}, edgeMark, false)
		}
	}

	for i, states := range trajectories {
		mark := pathMarks[i%len(pathMarks)]
		for _, p := range Path(states) {
			plot(p, mark, true)
		}
	}
	for _, states := range trajectories {
		if len(states) > 0 {
			plot(ToCartesian(states[0]), startMark, true)
		}
	}

	for v, p := range Vertices {
		plot(p, vertexMark[v], true)
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(strings.TrimRight(string(row), " "))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// cell maps a triangle point to a canvas position; the triangle fills the
// canvas exactly.
func cell(p Point, width, height int) (int, int, bool) {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) {
		return 0, 0, false
	}
	col := int(math.Round(p.X * float64(width-1)))
	row := height - 1 - int(math.Round(p.Y/TriangleHeight*float64(height-1)))
	if row < 0 || row >= height || col < 0 || col >= width {
		return 0, 0, false
	}
	return row, col, true
}
