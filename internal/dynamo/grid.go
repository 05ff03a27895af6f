package dynamo

// Linspace returns n evenly spaced samples over [start, stop], endpoint
// included. n == 1 yields [start]; n <= 0 yields nil.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	grid := make([]float64, n)
	grid[0] = start
	if n == 1 {
		return grid
	}
	step := (stop - start) / float64(n-1)
	for i := 1; i < n-1; i++ {
		grid[i] = start + float64(i)*step
	}
	grid[n-1] = stop
	return grid
}
