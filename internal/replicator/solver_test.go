package replicator_test

import (
	"bytes"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/replicator/internal/dynamo"
	"github.com/san-kum/replicator/internal/metrics"
	"github.com/san-kum/replicator/internal/replicator"
)

var (
	rockPaperScissors = [][]float64{{0, -1, 1}, {1, 0, -1}, {-1, 1, 0}}
	coordination      = [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	dominance         = [][]float64{{3, 3, 3}, {1, 1, 1}, {0, 0, 0}}
	hawkDove          = [][]float64{{-1, 2, 0}, {0, 1, 0.5}, {0.5, 1.5, 1}}
)

func tempDir() string {
	dir, err := os.MkdirTemp("", "replicator-test")
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(os.RemoveAll, dir)
	return dir
}

func quietSettings(dir string) replicator.Settings {
	s := replicator.DefaultSettings()
	s.OutputPath = filepath.Join(dir, "data.txt")
	return s
}

var _ = Describe("Solver", func() {
	var (
		dir    string
		solver *replicator.Solver
	)

	BeforeEach(func() {
		dir = tempDir()
		solver = replicator.New(quietSettings(dir))
	})

	Describe("Results", func() {
		It("fails with ErrNotReady before any solve", func() {
			traj, err := solver.Results()
			Expect(err).To(MatchError(dynamo.ErrNotReady))
			Expect(traj).To(BeNil())
		})

		It("returns an independent copy of the latest trajectory", func() {
			_, err := solver.Solve(rockPaperScissors, 1, []float64{0.5, 0.3, 0.2})
			Expect(err).NotTo(HaveOccurred())

			first, err := solver.Results()
			Expect(err).NotTo(HaveOccurred())
			first.States[0][0] = 42

			second, err := solver.Results()
			Expect(err).NotTo(HaveOccurred())
			Expect(second.States[0][0]).To(Equal(0.5))
		})

		It("is replaced by the next successful solve", func() {
			_, err := solver.Solve(rockPaperScissors, 1, []float64{0.5, 0.3, 0.2})
			Expect(err).NotTo(HaveOccurred())
			_, err = solver.Solve(coordination, 2, []float64{0.2, 0.3, 0.5})
			Expect(err).NotTo(HaveOccurred())

			traj, err := solver.Results()
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Len()).To(Equal(200))
			Expect(traj.States[0]).To(Equal(dynamo.State{0.2, 0.3, 0.5}))
		})
	})

	DescribeTable("trajectory length is floor(totalTime*100)",
		func(totalTime float64, expected int) {
			traj, err := solver.Solve(rockPaperScissors, totalTime, []float64{0.5, 0.3, 0.2})
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Len()).To(Equal(expected))
			Expect(traj.Times).To(HaveLen(expected))
		},
		Entry("one unit", 1.0, 100),
		Entry("fractional horizon", 2.5, 250),
		Entry("ten units", 10.0, 1000),
		Entry("single sample", 0.01, 1),
	)

	It("samples an endpoint-inclusive uniform grid", func() {
		traj, err := solver.Solve(rockPaperScissors, 2.5, []float64{0.5, 0.3, 0.2})
		Expect(err).NotTo(HaveOccurred())
		Expect(traj.Times[0]).To(Equal(0.0))
		Expect(traj.Times[traj.Len()-1]).To(Equal(2.5))
		Expect(traj.Times[1]).To(BeNumerically("~", 2.5/249, 1e-15))
	})

	DescribeTable("first sample is the initial state",
		func(payoff [][]float64, x0 []float64) {
			traj, err := solver.Solve(payoff, 3, x0)
			Expect(err).NotTo(HaveOccurred())
			for i := range x0 {
				Expect(traj.States[0][i]).To(BeNumerically("~", x0[i], 1e-9))
			}
		},
		Entry("rock-paper-scissors", rockPaperScissors, []float64{0.5, 0.3, 0.2}),
		Entry("coordination", coordination, []float64{0.2, 0.5, 0.3}),
		Entry("dominance", dominance, []float64{0.33, 0.33, 0.34}),
		Entry("vertex", hawkDove, []float64{0, 1, 0}),
	)

	DescribeTable("keeps the population on the simplex",
		func(payoff [][]float64, x0 []float64, totalTime float64) {
			traj, err := solver.Solve(payoff, totalTime, x0)
			Expect(err).NotTo(HaveOccurred())
			for _, s := range traj.States {
				Expect(s.Sum()).To(BeNumerically("~", 1, 1e-3))
				for _, v := range s {
					Expect(v).To(BeNumerically(">", -1e-6))
				}
			}
		},
		Entry("rock-paper-scissors", rockPaperScissors, []float64{0.5, 0.3, 0.2}, 100.0),
		Entry("coordination", coordination, []float64{0.2, 0.5, 0.3}, 50.0),
		Entry("dominance", dominance, []float64{0.33, 0.33, 0.34}, 100.0),
		Entry("hawk-dove-retaliator", hawkDove, []float64{0.4, 0.4, 0.2}, 100.0),
	)

	It("conserves x0*x1*x2 for rock-paper-scissors", func() {
		traj, err := solver.Solve(rockPaperScissors, 20, []float64{0.5, 0.3, 0.2})
		Expect(err).NotTo(HaveOccurred())
		initial := 0.5 * 0.3 * 0.2
		for _, s := range traj.States {
			Expect(s[0] * s[1] * s[2]).To(BeNumerically("~", initial, 1e-6))
		}
	})

	It("is idempotent", func() {
		x0 := []float64{0.5, 0.3, 0.2}
		first, err := solver.Solve(hawkDove, 10, x0)
		Expect(err).NotTo(HaveOccurred())
		second, err := solver.Solve(hawkDove, 10, x0)
		Expect(err).NotTo(HaveOccurred())
		third, err := replicator.New(quietSettings(tempDir())).Solve(hawkDove, 10, x0)
		Expect(err).NotTo(HaveOccurred())

		Expect(second.States).To(Equal(first.States))
		Expect(third.States).To(Equal(first.States))
	})

	It("leaves the barycenter of a coordination game at rest", func() {
		x0 := []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}
		traj, err := solver.Solve(coordination, 10, x0)
		Expect(err).NotTo(HaveOccurred())
		for _, s := range traj.States {
			for i := range s {
				Expect(s[i]).To(BeNumerically("~", 1.0/3, 1e-6))
			}
		}
	})

	It("drives a strictly dominant strategy to fixation", func() {
		traj, err := solver.Solve(dominance, 20, []float64{0.33, 0.33, 0.34})
		Expect(err).NotTo(HaveOccurred())

		x0, _, _ := traj.Components()
		for i := 1; i < len(x0); i++ {
			Expect(x0[i]).To(BeNumerically(">=", x0[i-1]-1e-12))
		}
		Expect(x0[len(x0)-1]).To(BeNumerically("~", 1, 1e-6))
	})

	It("does not check the initial state by default", func() {
		traj, err := solver.Solve(coordination, 1, []float64{0.5, 0.5, 0.5})
		Expect(err).NotTo(HaveOccurred())
		Expect(traj.States[0]).To(Equal(dynamo.State{0.5, 0.5, 0.5}))

		again, err := solver.Solve(coordination, 1, []float64{0.5, 0.5, 0.5})
		Expect(err).NotTo(HaveOccurred())
		Expect(again.States).To(Equal(traj.States))
	})

	Describe("invalid arguments", func() {
		const sentinel = "previous consumer data\n"

		BeforeEach(func() {
			Expect(os.WriteFile(filepath.Join(dir, "data.txt"), []byte(sentinel), 0644)).To(Succeed())
		})

		DescribeTable("are rejected before any work",
			func(payoff [][]float64, totalTime float64, x0 []float64) {
				traj, err := solver.Solve(payoff, totalTime, x0)
				Expect(err).To(MatchError(dynamo.ErrInvalidArgument))
				Expect(traj).To(BeNil())

				data, err := os.ReadFile(filepath.Join(dir, "data.txt"))
				Expect(err).NotTo(HaveOccurred())
				Expect(string(data)).To(Equal(sentinel))

				_, err = solver.Results()
				Expect(err).To(MatchError(dynamo.ErrNotReady))
			},
			Entry("zero time", rockPaperScissors, 0.0, []float64{0.5, 0.3, 0.2}),
			Entry("negative time", rockPaperScissors, -1.0, []float64{0.5, 0.3, 0.2}),
			Entry("NaN time", rockPaperScissors, math.NaN(), []float64{0.5, 0.3, 0.2}),
			Entry("infinite time", rockPaperScissors, math.Inf(1), []float64{0.5, 0.3, 0.2}),
			Entry("empty grid", rockPaperScissors, 0.005, []float64{0.5, 0.3, 0.2}),
			Entry("2x2 payoff", [][]float64{{1, 0}, {0, 1}}, 1.0, []float64{0.5, 0.3, 0.2}),
			Entry("ragged payoff", [][]float64{{1, 0, 0}, {0, 1}, {0, 0, 1}}, 1.0, []float64{0.5, 0.3, 0.2}),
			Entry("4x4 payoff", [][]float64{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}, 1.0, []float64{0.5, 0.3, 0.2}),
			Entry("short state", rockPaperScissors, 1.0, []float64{0.5, 0.5}),
		)

		It("keeps the previous trajectory", func() {
			_, err := solver.Solve(rockPaperScissors, 1, []float64{0.5, 0.3, 0.2})
			Expect(err).NotTo(HaveOccurred())

			_, err = solver.Solve(rockPaperScissors, -1, []float64{0.5, 0.3, 0.2})
			Expect(err).To(MatchError(dynamo.ErrInvalidArgument))

			traj, err := solver.Results()
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Len()).To(Equal(100))
		})

		It("rejects off-simplex states when validation is enabled", func() {
			settings := quietSettings(dir)
			settings.ValidateInitialState = true
			strict := replicator.New(settings)

			_, err := strict.Solve(coordination, 1, []float64{0.5, 0.5, 0.5})
			Expect(err).To(MatchError(dynamo.ErrInvalidArgument))

			_, err = strict.Solve(coordination, 1, []float64{1.2, -0.2, 0})
			Expect(err).To(MatchError(dynamo.ErrInvalidArgument))

			_, err = strict.Solve(coordination, 1, []float64{0.2, 0.3, 0.5})
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects an unknown integrator", func() {
			settings := quietSettings(dir)
			settings.Integrator = "leapfrog"
			_, err := replicator.New(settings).Solve(coordination, 1, []float64{0.2, 0.3, 0.5})
			Expect(err).To(MatchError(dynamo.ErrInvalidArgument))
		})
	})

	It("reports a diverging integration as an integration failure", func() {
		explosive := [][]float64{{-1, 0, 0}, {0, -1, 0}, {0, 0, -1}}
		traj, err := solver.Solve(explosive, 1, []float64{2, 0, 0})
		Expect(err).To(MatchError(dynamo.ErrIntegrationFailure))
		Expect(err).NotTo(MatchError(dynamo.ErrInvalidArgument))
		Expect(traj).To(BeNil())

		var ie *dynamo.IntegrationError
		Expect(err).To(BeAssignableToTypeOf(ie))

		_, err = solver.Results()
		Expect(err).To(MatchError(dynamo.ErrNotReady))
	})

	It("keeps the previous trajectory and file after an integration failure", func() {
		_, err := solver.Solve(rockPaperScissors, 1, []float64{0.5, 0.3, 0.2})
		Expect(err).NotTo(HaveOccurred())
		path := filepath.Join(dir, "data.txt")
		before, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())

		explosive := [][]float64{{-1, 0, 0}, {0, -1, 0}, {0, 0, -1}}
		_, err = solver.Solve(explosive, 1, []float64{2, 0, 0})
		Expect(err).To(MatchError(dynamo.ErrIntegrationFailure))

		traj, err := solver.Results()
		Expect(err).NotTo(HaveOccurred())
		Expect(traj.Len()).To(Equal(100))
		Expect(traj.States[0]).To(Equal(dynamo.State{0.5, 0.3, 0.2}))

		after, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(after).To(Equal(before))
	})

	Describe("side channel", func() {
		It("writes one fixed-point line per sample", func() {
			traj, err := solver.Solve(dominance, 1, []float64{0.33, 0.33, 0.34})
			Expect(err).NotTo(HaveOccurred())

			data, err := os.ReadFile(filepath.Join(dir, "data.txt"))
			Expect(err).NotTo(HaveOccurred())

			lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
			Expect(lines).To(HaveLen(traj.Len()))
			Expect(lines[0]).To(Equal("0.330000 0.330000 0.340000"))
			for _, line := range lines {
				Expect(line).To(MatchRegexp(`^-?\d+\.\d{6} -?\d+\.\d{6} -?\d+\.\d{6}$`))
			}
		})

		It("is overwritten by every solve", func() {
			_, err := solver.Solve(dominance, 2, []float64{0.33, 0.33, 0.34})
			Expect(err).NotTo(HaveOccurred())
			_, err = solver.Solve(dominance, 1, []float64{0.2, 0.3, 0.5})
			Expect(err).NotTo(HaveOccurred())

			data, err := os.ReadFile(filepath.Join(dir, "data.txt"))
			Expect(err).NotTo(HaveOccurred())
			Expect(strings.Count(string(data), "\n")).To(Equal(100))
			Expect(string(data)).To(HavePrefix("0.200000 0.300000 0.500000\n"))
		})

		It("is skipped when no output path is set", func() {
			settings := quietSettings(dir)
			settings.OutputPath = ""
			_, err := replicator.New(settings).Solve(dominance, 1, []float64{0.33, 0.33, 0.34})
			Expect(err).NotTo(HaveOccurred())
			Expect(filepath.Join(dir, "data.txt")).NotTo(BeAnExistingFile())
		})

		It("surfaces write failures as ErrIOFailure", func() {
			settings := quietSettings(dir)
			settings.OutputPath = filepath.Join(dir, "missing", "data.txt")
			s := replicator.New(settings)

			_, err := s.Solve(dominance, 1, []float64{0.33, 0.33, 0.34})
			Expect(err).To(MatchError(dynamo.ErrIOFailure))

			traj, err := s.Results()
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Len()).To(Equal(100))
		})
	})

	Describe("integrators", func() {
		It("agree between rk4 and rk45", func() {
			settings := quietSettings(dir)
			settings.Integrator = "rk4"
			fixed, err := replicator.New(settings).Solve(rockPaperScissors, 5, []float64{0.5, 0.3, 0.2})
			Expect(err).NotTo(HaveOccurred())

			adaptive, err := solver.Solve(rockPaperScissors, 5, []float64{0.5, 0.3, 0.2})
			Expect(err).NotTo(HaveOccurred())

			Expect(fixed.Len()).To(Equal(adaptive.Len()))
			for i := range fixed.States {
				Expect(fixed.States[i].Sub(adaptive.States[i]).Norm()).To(BeNumerically("<", 1e-6))
			}
		})

		It("runs with euler", func() {
			settings := quietSettings(dir)
			settings.Integrator = "euler"
			traj, err := replicator.New(settings).Solve(dominance, 1, []float64{0.33, 0.33, 0.34})
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Len()).To(Equal(100))
			Expect(traj.Final().Sum()).To(BeNumerically("~", 1, 1e-2))
		})

		It("records step statistics", func() {
			traj, err := solver.Solve(hawkDove, 10, []float64{0.4, 0.4, 0.2})
			Expect(err).NotTo(HaveOccurred())
			Expect(traj.Stats.Steps).To(BeNumerically(">=", traj.Len()-1))
			Expect(traj.Stats.Evaluations).To(BeNumerically(">", traj.Stats.Steps))
		})
	})

	It("evaluates registered metrics", func() {
		solver.AddMetric(metrics.NewSimplexDrift())
		solver.AddMetric(metrics.NewMinComponent())

		traj, err := solver.Solve(rockPaperScissors, 10, []float64{0.5, 0.3, 0.2})
		Expect(err).NotTo(HaveOccurred())
		Expect(traj.Metrics).To(HaveKey("simplex_drift"))
		Expect(traj.Metrics["simplex_drift"]).To(BeNumerically("<", 1e-6))
		Expect(traj.Metrics["min_component"]).To(BeNumerically(">", 0))
	})

	It("logs and records each solve", func() {
		var buf bytes.Buffer
		settings := quietSettings(dir)
		settings.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		settings.Recorder = metrics.NewRecorder()
		s := replicator.New(settings)

		_, err := s.Solve(rockPaperScissors, 1, []float64{0.5, 0.3, 0.2})
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Solve(rockPaperScissors, 0, []float64{0.5, 0.3, 0.2})
		Expect(err).To(HaveOccurred())

		Expect(buf.String()).To(ContainSubstring("solve done"))
		Expect(buf.String()).To(ContainSubstring("samples=100"))

		count, err := testutil.GatherAndCount(settings.Recorder.Registry(), "replicator_solves_total")
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(2))
	})

	It("warns about an off-simplex initial state it still integrates", func() {
		var buf bytes.Buffer
		settings := quietSettings(dir)
		settings.Logger = slog.New(slog.NewTextHandler(&buf, nil))
		s := replicator.New(settings)

		_, err := s.Solve(coordination, 1, []float64{0.2, 0.3, 0.5})
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).NotTo(ContainSubstring("off the simplex"))

		_, err = s.Solve(coordination, 1, []float64{0.5, 0.5, 0.5})
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("initial state is off the simplex"))
	})

	It("splits a trajectory into per-strategy series", func() {
		traj, err := solver.Solve(hawkDove, 1, []float64{0.4, 0.4, 0.2})
		Expect(err).NotTo(HaveOccurred())

		x0, x1, x2 := traj.Components()
		Expect(x0).To(HaveLen(traj.Len()))
		for i, s := range traj.States {
			Expect([]float64{x0[i], x1[i], x2[i]}).To(Equal([]float64(s)))
		}
	})
})
