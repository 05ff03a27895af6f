// Package analysis inspects solved trajectories on the 2-simplex.
//
//   - [ToCartesian]: barycentric state to a point in the equilateral triangle
//   - [Portrait]: ASCII rendering of one or more trajectories in that triangle
//   - [IsRestPoint], [NearestVertex]: classify where a trajectory ends up
//   - [DominantPeriod]: cycle length of an oscillating strategy share
//
// Cycling games such as rock-paper-scissors orbit the barycenter:
//
//	x0, _, _ := traj.Components()
//	period := analysis.DominantPeriod(x0, traj.Times[1]-traj.Times[0])
package analysis
