package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/replicator/internal/config"
	"github.com/san-kum/replicator/internal/dynamo"
)

// solveFlags are the flags shared by every command that solves a game.
type solveFlags struct {
	preset     string
	configFile string
	payoff     string
	x0         string
	totalTime  float64
	integrator string
	relTol     float64
	absTol     float64
	output     string
	validate   bool
	metricsOut string
	saveConfig string

	plot bool
	save bool
}

func (f *solveFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.preset, "preset", "", "start from a built-in game (see presets)")
	fs.StringVar(&f.configFile, "config", "", "config file path (yaml)")
	fs.StringVar(&f.payoff, "payoff", "", "payoff matrix, rows separated by ';' (e.g. \"0,-1,1;1,0,-1;-1,1,0\")")
	fs.StringVar(&f.x0, "x0", "", "initial shares, e.g. \"0.5,0.3,0.2\"")
	fs.Float64Var(&f.totalTime, "time", config.DefaultTotalTime, "integration horizon")
	fs.StringVar(&f.integrator, "integrator", "rk45", "rk45, rk4 or euler")
	fs.Float64Var(&f.relTol, "rtol", 0, "relative tolerance (rk45)")
	fs.Float64Var(&f.absTol, "atol", 0, "absolute tolerance (rk45)")
	fs.StringVar(&f.output, "output", "data.txt", "sample file, empty to skip")
	fs.BoolVar(&f.validate, "validate", false, "reject initial states off the simplex")
	fs.StringVar(&f.metricsOut, "metrics-out", "", "write prometheus metrics to this file")
	fs.StringVar(&f.saveConfig, "save-config", "", "write the resolved config to this yaml file")
}

// resolve builds the effective config: preset, then config file, then
// environment, then flags the user actually set.
func (f *solveFlags) resolve(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if f.preset != "" {
		p := config.GetPreset(f.preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", f.preset, config.ListPresets())
		}
		p.Output, p.DataDir, p.LogLevel = cfg.Output, cfg.DataDir, cfg.LogLevel
		cfg = p
	}

	if f.configFile != "" {
		if err := cfg.Merge(f.configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("payoff") {
		rows, err := parseMatrix(f.payoff)
		if err != nil {
			return nil, err
		}
		cfg.Payoff = rows
		cfg.Game = "custom"
	}
	if flags.Changed("x0") {
		x0, err := parseVector(f.x0)
		if err != nil {
			return nil, err
		}
		cfg.InitialState = x0
	}
	if flags.Changed("time") {
		cfg.TotalTime = f.totalTime
	}
	if flags.Changed("integrator") {
		cfg.Integrator = f.integrator
	}
	if flags.Changed("rtol") {
		cfg.RelTol = f.relTol
	}
	if flags.Changed("atol") {
		cfg.AbsTol = f.absTol
	}
	if flags.Changed("output") {
		cfg.Output = f.output
	}
	if flags.Changed("validate") {
		cfg.ValidateInitialState = f.validate
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	return cfg, nil
}

// parseMatrix reads "a,b,c;d,e,f;g,h,i". Shape is checked by the solver.
func parseMatrix(s string) ([][]float64, error) {
	var rows [][]float64
	for _, part := range strings.Split(s, ";") {
		row, err := parseVector(part)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseVector(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	out := make([]float64, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, dynamo.InvalidArgument("bad number %q", field)
		}
		out = append(out, v)
	}
	return out, nil
}

// simplexGrid returns the strictly interior points (i/n, j/n, k/n) with
// i+j+k = n.
func simplexGrid(n int) [][]float64 {
	var points [][]float64
	for i := 1; i < n; i++ {
		for j := 1; i+j < n; j++ {
			k := n - i - j
			points = append(points, []float64{
				float64(i) / float64(n),
				float64(j) / float64(n),
				float64(k) / float64(n),
			})
		}
	}
	return points
}
