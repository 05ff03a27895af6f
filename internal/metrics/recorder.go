package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/replicator/internal/dynamo"
)

// Solve outcomes used as the "outcome" label.
const (
	OutcomeOK                 = "ok"
	OutcomeInvalidArgument    = "invalid_argument"
	OutcomeIntegrationFailure = "integration_failure"
	OutcomeIOFailure          = "io_failure"
)

// Recorder exposes solver activity as Prometheus metrics on its own
// registry. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry    *prometheus.Registry
	solves      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	steps       *prometheus.CounterVec
	evaluations *prometheus.CounterVec
	samples     prometheus.Counter
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		solves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "replicator_solves_total",
				Help: "Solve calls by integrator and outcome.",
			},
			[]string{"integrator", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "replicator_solve_duration_seconds",
				Help:    "Wall time spent integrating, including the trajectory write.",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"integrator"},
		),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "replicator_integrator_steps_total",
				Help: "Internal integrator steps by result.",
			},
			[]string{"integrator", "result"},
		),
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "replicator_rhs_evaluations_total",
				Help: "Evaluations of the replicator vector field.",
			},
			[]string{"integrator"},
		),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "replicator_trajectory_samples_total",
			Help: "Trajectory samples produced by successful solves.",
		}),
	}
	r.registry.MustRegister(r.solves, r.duration, r.steps, r.evaluations, r.samples)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveSolve records one Solve call. samples is zero for failed solves.
func (r *Recorder) ObserveSolve(integrator, outcome string, elapsed time.Duration, stats dynamo.Stats, samples int) {
	if r == nil {
		return
	}
	r.solves.WithLabelValues(integrator, outcome).Inc()
	if outcome == OutcomeInvalidArgument {
		return
	}
	r.duration.WithLabelValues(integrator).Observe(elapsed.Seconds())
	r.steps.WithLabelValues(integrator, "accepted").Add(float64(stats.Steps))
	r.steps.WithLabelValues(integrator, "rejected").Add(float64(stats.Rejected))
	r.evaluations.WithLabelValues(integrator).Add(float64(stats.Evaluations))
	r.samples.Add(float64(samples))
}

// WriteTextfile dumps the registry in the text exposition format, suitable
// for the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
