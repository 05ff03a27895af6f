package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/replicator/internal/analysis"
	"github.com/san-kum/replicator/internal/config"
	"github.com/san-kum/replicator/internal/dynamo"
	"github.com/san-kum/replicator/internal/game"
	"github.com/san-kum/replicator/internal/storage"
	"github.com/san-kum/replicator/internal/tui"
)

func openStore() (*storage.Store, error) {
	dir, err := archiveDir()
	if err != nil {
		return nil, err
	}
	return storage.New(dir), nil
}

func loadRun(runID string) (*storage.RunMetadata, []float64, []dynamo.State, error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, nil, err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	times, states, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(states) == 0 {
		return nil, nil, nil, fmt.Errorf("run %s has no samples", runID)
	}
	return meta, times, states, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tGAME\tTIME\tHORIZON\tSAMPLES\tINTEG\tX0")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d\t%s\t%s\n",
			run.ID,
			run.Game,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.TotalTime,
			run.Samples,
			run.Integrator,
			formatState(run.InitialState),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string, samplesFile string) error {
	if samplesFile != "" {
		states, err := storage.ReadSamplesFile(samplesFile)
		if err != nil {
			return err
		}
		if len(states) == 0 {
			return fmt.Errorf("%s has no samples", samplesFile)
		}
		printHeading(samplesFile)
		fmt.Printf("samples: %d\n\n", len(states))
		fmt.Println(plotShares(states, plotWidth, plotHeight, samplesFile))
		return nil
	}
	if len(args) == 0 {
		return dynamo.InvalidArgument("plot needs a run id or --file")
	}

	meta, _, states, err := loadRun(args[0])
	if err != nil {
		return err
	}

	printHeading("run " + meta.ID)
	fmt.Printf("game: %s\n", meta.Game)
	fmt.Printf("samples: %d\n\n", len(states))
	fmt.Println(plotShares(states, plotWidth, plotHeight, meta.Game))
	return nil
}

func portraitRuns(cmd *cobra.Command, args []string, samplesFile string) error {
	paths := make([][]dynamo.State, 0, len(args)+1)
	for _, runID := range args {
		_, _, states, err := loadRun(runID)
		if err != nil {
			return err
		}
		paths = append(paths, states)
	}
	if samplesFile != "" {
		states, err := storage.ReadSamplesFile(samplesFile)
		if err != nil {
			return err
		}
		paths = append(paths, states)
	}
	if len(paths) == 0 {
		return dynamo.InvalidArgument("portrait needs run ids or --file")
	}

	out := analysis.Portrait(paths, portraitWidth, portraitHeight)
	if out == "" {
		return dynamo.InvalidArgument("portrait needs width and height of at least 3")
	}
	fmt.Print(out)
	fmt.Println(faint.Render("@ start   0,1,2 pure strategies"))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, times, states, err := loadRun(args[0])
	if err != nil {
		return err
	}
	payoff, err := game.NewPayoffMatrix(meta.Payoff)
	if err != nil {
		return err
	}

	printHeading("analysis " + meta.ID)
	fmt.Printf("game: %s\n\n", meta.Game)

	dt := 0.0
	if len(times) > 1 {
		dt = times[1] - times[0]
	}
	x0 := make([]float64, len(states))
	for i, s := range states {
		x0[i] = s[0]
	}

	if len(x0) >= 4 {
		ps := analysis.PowerSpectrum(x0)
		if len(ps) > 4 {
			ps = ps[1 : len(ps)/4]
		}
		fmt.Println(asciigraph.Plot(ps,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum (x0)"),
		))
		fmt.Println()
	}

	if period := analysis.DominantPeriod(x0, dt); period > 0 {
		fmt.Printf("dominant period: %.3f\n", period)
	} else {
		fmt.Println("dominant period: none")
	}

	final := states[len(states)-1]
	vertex, dist := analysis.NearestVertex(final)
	fmt.Printf("final state: %s\n", formatState(final))
	fmt.Printf("nearest vertex: %d (distance %.6f)\n", vertex, dist)
	fmt.Printf("rest point: %v\n", analysis.IsRestPoint(payoff, final, 1e-6))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, times, states, err := loadRun(args[0])
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return storage.ExportJSON(os.Stdout, *meta, times, states)
	case "samples":
		return storage.EncodeSamples(os.Stdout, states)
	case "csv":
		return storage.EncodeCSV(os.Stdout, times, states)
	default:
		return dynamo.InvalidArgument("unknown format %q (json, csv, samples)", format)
	}
}

func watchRun(cmd *cobra.Command, args []string) error {
	meta, times, states, err := loadRun(args[0])
	if err != nil {
		return err
	}
	title := meta.Game
	if title == "" {
		title = meta.ID
	}
	return tui.RunPlayback(title, times, states)
}

func listPresets(cmd *cobra.Command, args []string) error {
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		printHeading(name)
		for _, row := range p.Payoff {
			fmt.Printf("  %v\n", row)
		}
		fmt.Printf("  %s\n", faint.Render(fmt.Sprintf("x0=%s T=%.0f", formatState(p.InitialState), p.TotalTime)))
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
