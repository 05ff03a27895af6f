package integrators

import (
	"sort"

	"github.com/san-kum/replicator/internal/dynamo"
)

// Tolerances configures the adaptive integrator; fixed-step ones ignore it.
type Tolerances struct {
	RelTol float64
	AbsTol float64
}

var registry = map[string]func(Tolerances) dynamo.Integrator{
	"euler": func(Tolerances) dynamo.Integrator { return NewEuler() },
	"rk4":   func(Tolerances) dynamo.Integrator { return NewRK4() },
	"rk45": func(tol Tolerances) dynamo.Integrator {
		return NewRK45WithTolerance(tol.RelTol, tol.AbsTol)
	},
}

// New returns a fresh integrator by name. Integrators keep scratch buffers,
// so each solver needs its own instance.
func New(name string, tol Tolerances) (dynamo.Integrator, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, dynamo.InvalidArgument("unknown integrator: %s (available: %v)", name, Names())
	}
	return fn(tol), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
