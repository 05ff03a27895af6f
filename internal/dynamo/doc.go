// Package dynamo provides core primitives for integrating ordinary
// differential equations.
//
// The package defines the fundamental interfaces and types:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator], [AdaptiveIntegrator]: numerical steppers
//   - [Metric]: scalar observer fed once per output sample
//   - [Integrate]: drives a stepper across a fixed output grid
//
// # Example
//
//	grid := dynamo.Linspace(0, 10, 1000)
//	states, stats, err := dynamo.Integrate(dyn, integrators.NewRK45(), x0, grid, dynamo.DriveConfig{})
//
// Errors returned by this package match one of the sentinel errors in
// errors.go under errors.Is.
package dynamo
