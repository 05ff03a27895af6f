package config

import (
	"sort"

	"github.com/san-kum/replicator/internal/replicator"
)

// Presets are well-known three-strategy games with an initial state that
// shows their typical behaviour.
var Presets = map[string]*Config{
	"rps": {
		Game:         "rps",
		Payoff:       [][]float64{{0, -1, 1}, {1, 0, -1}, {-1, 1, 0}},
		InitialState: []float64{0.5, 0.3, 0.2},
		TotalTime:    DefaultTotalTime,
		Integrator:   replicator.DefaultIntegrator,
	},
	"coordination": {
		Game:         "coordination",
		Payoff:       [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		InitialState: []float64{0.4, 0.35, 0.25},
		TotalTime:    20,
		Integrator:   replicator.DefaultIntegrator,
	},
	"dominance": {
		Game:         "dominance",
		Payoff:       [][]float64{{3, 3, 3}, {1, 1, 1}, {0, 0, 0}},
		InitialState: []float64{0.33, 0.33, 0.34},
		TotalTime:    20,
		Integrator:   replicator.DefaultIntegrator,
	},
	// hawk, dove, retaliator
	"hawk_dove": {
		Game:         "hawk_dove",
		Payoff:       [][]float64{{-1, 2, -1}, {0, 1, 1}, {-1, 1, 1}},
		InitialState: []float64{0.2, 0.5, 0.3},
		TotalTime:    30,
		Integrator:   replicator.DefaultIntegrator,
	},
	// always cooperate, always defect, tit-for-tat
	"prisoners": {
		Game:         "prisoners",
		Payoff:       [][]float64{{3, 0, 3}, {5, 1, 1}, {3, 0.9, 3}},
		InitialState: []float64{0.3, 0.3, 0.4},
		TotalTime:    40,
		Integrator:   replicator.DefaultIntegrator,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	cfg.Payoff = make([][]float64, len(p.Payoff))
	for i, row := range p.Payoff {
		cfg.Payoff[i] = append([]float64(nil), row...)
	}
	cfg.InitialState = append([]float64(nil), p.InitialState...)
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
