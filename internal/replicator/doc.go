// Package replicator integrates the three-strategy replicator equation
//
//	dx_i/dt = x_i ( (Ax)_i - x.(Ax) )
//
// over a uniform output grid of [SampleRate] samples per unit time and hands
// the result out as a [Trajectory].
//
// # Example
//
//	s := replicator.New(replicator.DefaultSettings())
//	traj, err := s.Solve(payoff, 10, []float64{0.33, 0.33, 0.34})
//	x0, x1, x2 := traj.Components()
//
// Every successful [Solver.Solve] also writes the trajectory to
// [Settings.OutputPath] in the plain-text sample format read by existing
// plotting tools; set the path to "" to skip the file.
//
// # Thread Safety
//
// A Solver holds one trajectory and is NOT safe for concurrent use. Run
// independent integrations on separate solvers, or use [Ensemble].
package replicator
