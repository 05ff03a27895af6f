package replicator_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/replicator/internal/dynamo"
	"github.com/san-kum/replicator/internal/metrics"
	"github.com/san-kum/replicator/internal/replicator"
)

var _ = Describe("Ensemble", func() {
	inits := [][]float64{
		{0.5, 0.3, 0.2},
		{0.2, 0.5, 0.3},
		{0.3, 0.2, 0.5},
		{0.6, 0.2, 0.2},
		{0.1, 0.1, 0.8},
	}

	It("returns trajectories in input order", func() {
		dir := tempDir()
		ens := replicator.NewEnsemble(quietSettings(dir), 3, nil)

		trajs, err := ens.Run(rockPaperScissors, 2, inits)
		Expect(err).NotTo(HaveOccurred())
		Expect(trajs).To(HaveLen(len(inits)))
		for i, traj := range trajs {
			Expect(traj.Len()).To(Equal(200))
			Expect(traj.States[0]).To(Equal(dynamo.State(inits[i])))
		}

		entries, err := os.ReadDir(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})

	It("matches a single solver run for run", func() {
		ens := replicator.NewEnsemble(quietSettings(tempDir()), 2, nil)
		trajs, err := ens.Run(hawkDove, 3, inits)
		Expect(err).NotTo(HaveOccurred())

		single := replicator.New(quietSettings(tempDir()))
		for i, x0 := range inits {
			traj, err := single.Solve(hawkDove, 3, x0)
			Expect(err).NotTo(HaveOccurred())
			Expect(trajs[i].States).To(Equal(traj.States))
		}
	})

	It("gives each run its own metrics", func() {
		ens := replicator.NewEnsemble(quietSettings(tempDir()), 4, func() []dynamo.Metric {
			return []dynamo.Metric{metrics.NewMinComponent()}
		})
		trajs, err := ens.Run(coordination, 1, inits)
		Expect(err).NotTo(HaveOccurred())
		for i, traj := range trajs {
			Expect(traj.Metrics["min_component"]).To(BeNumerically("<=", minOf(inits[i])))
		}
	})

	It("reports the index of a failing run", func() {
		bad := append([][]float64{}, inits...)
		bad[3] = []float64{0.5, 0.5}

		ens := replicator.NewEnsemble(quietSettings(tempDir()), 2, nil)
		trajs, err := ens.Run(rockPaperScissors, 1, bad)
		Expect(err).To(MatchError(dynamo.ErrInvalidArgument))
		Expect(err.Error()).To(ContainSubstring("run 3"))
		Expect(trajs).To(BeNil())
	})

	It("accepts an empty batch", func() {
		trajs, err := replicator.NewEnsemble(quietSettings(tempDir()), 0, nil).Run(rockPaperScissors, 1, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(trajs).To(BeEmpty())
	})
})

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, v := range xs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
