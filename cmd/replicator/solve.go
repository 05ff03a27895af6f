package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/replicator/internal/analysis"
	"github.com/san-kum/replicator/internal/config"
	"github.com/san-kum/replicator/internal/dynamo"
	"github.com/san-kum/replicator/internal/game"
	"github.com/san-kum/replicator/internal/metrics"
	"github.com/san-kum/replicator/internal/replicator"
	"github.com/san-kum/replicator/internal/storage"
)

var (
	heading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	faint   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

// session is everything a solving command needs after flag resolution.
type session struct {
	cfg      *config.Config
	payoff   game.PayoffMatrix
	logger   *slog.Logger
	recorder *metrics.Recorder
}

func newSession(cmd *cobra.Command, f *solveFlags) (*session, error) {
	cfg, err := f.resolve(cmd)
	if err != nil {
		return nil, err
	}
	if f.saveConfig != "" {
		if err := config.Save(f.saveConfig, cfg); err != nil {
			return nil, fmt.Errorf("save config: %w", err)
		}
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	payoff, err := cfg.PayoffMatrix()
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:      cfg,
		payoff:   payoff,
		logger:   logger,
		recorder: metrics.NewRecorder(),
	}, nil
}

func (s *session) settings() replicator.Settings {
	settings := s.cfg.Settings()
	settings.Logger = s.logger
	settings.Recorder = s.recorder
	return settings
}

func (s *session) save(x0 []float64, traj *replicator.Trajectory) (string, error) {
	dir := s.cfg.DataDir
	if dir == "" {
		dir = config.DefaultDataDir
	}
	st := storage.New(dir)
	if err := st.Init(); err != nil {
		return "", err
	}
	return st.Save(storage.RunMetadata{
		Game:         s.cfg.Game,
		Payoff:       s.payoff.Rows(),
		InitialState: x0,
		TotalTime:    s.cfg.TotalTime,
		Integrator:   s.cfg.Integrator,
		Stats:        traj.Stats,
		Metrics:      traj.Metrics,
	}, traj.Times, traj.States)
}

// flushMetrics writes the recorder when --metrics-out is set.
func (s *session) flushMetrics(path string) error {
	if path == "" {
		return nil
	}
	if err := s.recorder.WriteTextfile(path); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	s.logger.Info("metrics written", "path", path)
	return nil
}

func runSolve(cmd *cobra.Command, f *solveFlags) error {
	sess, err := newSession(cmd, f)
	if err != nil {
		return err
	}
	cfg := sess.cfg
	out := cmd.OutOrStdout()

	solver := replicator.New(sess.settings())
	for _, m := range metrics.Defaults(sess.payoff) {
		solver.AddMetric(m)
	}

	fmt.Fprintf(out, "solving %s with %s...\n", cfg.Game, cfg.Integrator)
	start := time.Now()

	written := cfg.Output != ""
	traj, err := solver.Solve(cfg.Payoff, cfg.TotalTime, cfg.InitialState)
	if errors.Is(err, dynamo.ErrIOFailure) {
		// The trajectory is still usable; report and carry on.
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		written = false
		traj, err = solver.Results()
	}
	if err != nil {
		return errors.Join(err, sess.flushMetrics(f.metricsOut))
	}
	elapsed := time.Since(start)

	fmt.Fprintf(out, "completed in %v\n", elapsed)
	if f.save {
		runID, err := sess.save(cfg.InitialState, traj)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "run id: %s\n", runID)
	}
	if written {
		fmt.Fprintf(out, "samples: %d -> %s\n", traj.Len(), cfg.Output)
	} else {
		fmt.Fprintf(out, "samples: %d\n", traj.Len())
	}
	fmt.Fprintf(out, "steps: %d (%d rejected, %d evaluations)\n",
		traj.Stats.Steps, traj.Stats.Rejected, traj.Stats.Evaluations)

	final := traj.Final()
	fmt.Fprintf(out, "final: %.6f %.6f %.6f\n", final[0], final[1], final[2])

	fmt.Fprintln(out, "\nmetrics:")
	for _, name := range sortedKeys(traj.Metrics) {
		fmt.Fprintf(out, "  %s: %.6f\n", name, traj.Metrics[name])
	}

	if f.plot {
		fmt.Fprintln(out)
		fmt.Fprintln(out, plotShares(traj.States, 80, 12, cfg.Game))
	}

	return sess.flushMetrics(f.metricsOut)
}

func runSweep(cmd *cobra.Command, f *solveFlags) error {
	sess, err := newSession(cmd, f)
	if err != nil {
		return err
	}
	cfg := sess.cfg

	inits := simplexGrid(gridSize)
	if len(inits) == 0 {
		return dynamo.InvalidArgument("grid %d has no interior points, use at least 3", gridSize)
	}

	ens := replicator.NewEnsemble(sess.settings(), workers, func() []dynamo.Metric {
		return metrics.Defaults(sess.payoff)
	})

	fmt.Printf("sweeping %s over %d initial states (%d workers)...\n", cfg.Game, len(inits), workers)
	start := time.Now()
	trajs, err := ens.Run(cfg.Payoff, cfg.TotalTime, inits)
	if err != nil {
		return errors.Join(err, sess.flushMetrics(f.metricsOut))
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tX0\tFINAL\tNEAREST\tDIST\tREST\tRUN")

	paths := make([][]dynamo.State, 0, len(trajs))
	for i, traj := range trajs {
		final := traj.Final()
		vertex, dist := analysis.NearestVertex(final)
		rest := analysis.IsRestPoint(sess.payoff, final, 1e-6)

		runID := "-"
		if f.save {
			runID, err = sess.save(inits[i], traj)
			if err != nil {
				return err
			}
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%.4f\t%v\t%s\n",
			i, formatState(inits[i]), formatState(final), vertex, dist, rest, runID)
		paths = append(paths, traj.States)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if f.plot {
		fmt.Println()
		fmt.Print(analysis.Portrait(paths, 61, 27))
	}

	return sess.flushMetrics(f.metricsOut)
}

func runCompare(cmd *cobra.Command, f *solveFlags, names []string) error {
	sess, err := newSession(cmd, f)
	if err != nil {
		return err
	}
	cfg := sess.cfg
	if len(names) == 0 {
		names = []string{"rk45", "rk4", "euler"}
	}

	fmt.Printf("comparing integrators for %s (T=%.2f)\n\n", cfg.Game, cfg.TotalTime)
	fmt.Printf("%-8s  %-30s  %-10s  %-8s  %-8s  %-10s\n", "integ", "final", "drift", "steps", "evals", "time_ms")
	fmt.Println(strings.Repeat("-", 84))

	for _, name := range names {
		settings := sess.settings()
		settings.Integrator = name
		settings.OutputPath = ""
		solver := replicator.New(settings)
		solver.AddMetric(metrics.NewSimplexDrift())

		start := time.Now()
		traj, err := solver.Solve(cfg.Payoff, cfg.TotalTime, cfg.InitialState)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("%-8s  error: %v\n", name, err)
			continue
		}

		fmt.Printf("%-8s  %-30s  %10.2e  %8d  %8d  %10.2f\n",
			name, formatState(traj.Final()), traj.Metrics["simplex_drift"],
			traj.Stats.Steps, traj.Stats.Evaluations, float64(elapsed.Microseconds())/1000)
	}

	return sess.flushMetrics(f.metricsOut)
}

func plotShares(states []dynamo.State, w, h int, caption string) string {
	x0 := make([]float64, len(states))
	x1 := make([]float64, len(states))
	x2 := make([]float64, len(states))
	for i, s := range states {
		x0[i], x1[i], x2[i] = s[0], s[1], s[2]
	}
	return asciigraph.PlotMany([][]float64{x0, x1, x2},
		asciigraph.Height(h),
		asciigraph.Width(w),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Yellow, asciigraph.Magenta),
		asciigraph.Caption(caption+": x0 green, x1 yellow, x2 magenta"),
	)
}

func formatState(x []float64) string {
	parts := make([]string, len(x))
	for i, v := range x {
		parts[i] = fmt.Sprintf("%.4f", v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
