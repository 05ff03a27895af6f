package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/san-kum/replicator/internal/config"
)

var (
	dataDir  string
	logLevel string

	// Plot and portrait sizes
	plotWidth      int
	plotHeight     int
	portraitWidth  int
	portraitHeight int
	// Export format
	format string
	// Sweep
	gridSize int
	workers  int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "replicator",
		Short:        "three-strategy replicator dynamics solver",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "run archive directory (default "+config.DefaultDataDir+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	sf := &solveFlags{}
	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "integrate one game from one initial state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, sf)
		},
	}
	sf.bind(solveCmd)
	solveCmd.Flags().BoolVar(&sf.plot, "plot", false, "plot the shares after solving")
	solveCmd.Flags().BoolVar(&sf.save, "save", true, "archive the run")

	wf := &solveFlags{}
	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "integrate one game from a grid of interior initial states",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, wf)
		},
	}
	wf.bind(sweepCmd)
	sweepCmd.Flags().IntVar(&gridSize, "grid", 5, "simplex subdivisions per edge")
	sweepCmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "concurrent solves")
	sweepCmd.Flags().BoolVar(&wf.save, "save", false, "archive every run")
	sweepCmd.Flags().BoolVar(&wf.plot, "portrait", true, "draw all trajectories in the simplex")

	cf := &solveFlags{}
	compareCmd := &cobra.Command{
		Use:   "compare [integrators...]",
		Short: "solve the same game with several integrators",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, cf, args)
		},
	}
	cf.bind(compareCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list archived runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	// Sample files read instead of, or next to, archived runs.
	var plotFile, portraitFile string

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the strategy shares of a run or sample file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return plotRun(cmd, args, plotFile)
		},
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 12, "plot height")
	plotCmd.Flags().StringVar(&plotFile, "file", "", "plot a sample file such as data.txt")

	portraitCmd := &cobra.Command{
		Use:   "portrait [run_id...]",
		Short: "draw runs or a sample file in the simplex triangle",
		RunE: func(cmd *cobra.Command, args []string) error {
			return portraitRuns(cmd, args, portraitFile)
		},
	}
	portraitCmd.Flags().IntVar(&portraitWidth, "width", 61, "portrait width")
	portraitCmd.Flags().IntVar(&portraitHeight, "height", 27, "portrait height")
	portraitCmd.Flags().StringVar(&portraitFile, "file", "", "add a sample file such as data.txt")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "cycle period and end state of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "write a run to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "json, csv or samples")

	watchCmd := &cobra.Command{
		Use:   "watch [run_id]",
		Short: "replay a run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  watchRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list the built-in games",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(solveCmd, sweepCmd, compareCmd, listCmd, plotCmd, portraitCmd, analyzeCmd, exportCmd, watchCmd, presetsCmd)
	return rootCmd
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

// archiveDir is the --data flag, then REPLICATOR_DATA_DIR, then the default.
func archiveDir() (string, error) {
	if dataDir != "" {
		return dataDir, nil
	}
	cfg := config.DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		return "", err
	}
	if cfg.DataDir == "" {
		return config.DefaultDataDir, nil
	}
	return cfg.DataDir, nil
}

func printHeading(title string) {
	fmt.Println(heading.Render(title))
}
