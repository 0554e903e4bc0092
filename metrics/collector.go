package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder receives operational measurements. Implementations must be safe
// for concurrent use.
type Recorder interface {
	// RecordStep counts one execution of a named step and observes its duration.
	RecordStep(step string, err error, d time.Duration)
	// RecordGenerated counts generated records.
	RecordGenerated(n int)
	// RecordPresence publishes per-column presence statistics.
	RecordPresence(stats PresenceStats)
	// Flush pushes buffered measurements, if the backend needs it.
	Flush() error
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordStep(string, error, time.Duration) {}
func (Nop) RecordGenerated(int)                     {}
func (Nop) RecordPresence(PresenceStats)            {}
func (Nop) Flush() error                            { return nil }

// Multi fans measurements out to several recorders.
type Multi []Recorder

func (m Multi) RecordStep(step string, err error, d time.Duration) {
	for _, r := range m {
		r.RecordStep(step, err, d)
	}
}

func (m Multi) RecordGenerated(n int) {
	for _, r := range m {
		r.RecordGenerated(n)
	}
}

func (m Multi) RecordPresence(stats PresenceStats) {
	for _, r := range m {
		r.RecordPresence(stats)
	}
}

// Flush flushes every recorder and returns the first error.
func (m Multi) Flush() error {
	var first error
	for _, r := range m {
		if err := r.Flush(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// Collector is a Prometheus Recorder. Its registry is served by the API's
// /metrics route and can be pushed to a Pushgateway.
type Collector struct {
	reg *prometheus.Registry

	gatewayURL string
	jobName    string

	steps      *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	generated  prometheus.Counter
	chiSquare  *prometheus.GaugeVec
	presenceOK prometheus.Gauge
}

var _ Recorder = (*Collector)(nil)

// NewCollector registers the attemptgen metrics on a fresh registry. An empty
// gatewayURL disables Flush.
func NewCollector(jobName, gatewayURL string) (*Collector, error) {
	if jobName == "" {
		jobName = "attemptgen"
	}
	c := &Collector{
		reg:        prometheus.NewRegistry(),
		gatewayURL: gatewayURL,
		jobName:    jobName,
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attemptgen_step_total",
			Help: "Step executions, partitioned by step and status.",
		}, []string{"step", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "attemptgen_step_duration_seconds",
			Help:    "Step duration in seconds, partitioned by step and status.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"step", "status"}),
		generated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attemptgen_records_generated_total",
			Help: "Payment attempts generated.",
		}),
		chiSquare: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "attemptgen_presence_chi_square",
			Help: "Chi-square statistic of the presence rate of an optional column against 0.5.",
		}, []string{"column"}),
		presenceOK: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "attemptgen_presence_within_critical",
			Help: "1 when every optional column passed the last presence test.",
		}),
	}
	for _, col := range []prometheus.Collector{c.steps, c.durations, c.generated, c.chiSquare, c.presenceOK} {
		if err := c.reg.Register(col); err != nil {
			return nil, fmt.Errorf("metrics: register collector: %w", err)
		}
	}
	return c, nil
}

// Registry exposes the collector's registry for scraping.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) RecordStep(step string, err error, d time.Duration) {
	c.steps.WithLabelValues(step, status(err)).Inc()
	c.durations.WithLabelValues(step, status(err)).Observe(d.Seconds())
}

func (c *Collector) RecordGenerated(n int) {
	c.generated.Add(float64(n))
}

func (c *Collector) RecordPresence(stats PresenceStats) {
	for _, col := range stats.Columns {
		c.chiSquare.WithLabelValues(col.Column).Set(col.ChiSquare())
	}
	if len(stats.Failing(CriticalChiSquare)) == 0 {
		c.presenceOK.Set(1)
	} else {
		c.presenceOK.Set(0)
	}
}

// Flush pushes the registry to the Pushgateway when one is configured.
func (c *Collector) Flush() error {
	if c.gatewayURL == "" {
		return nil
	}
	if err := push.New(c.gatewayURL, c.jobName).Gatherer(c.reg).Push(); err != nil {
		return fmt.Errorf("metrics: push to %s: %w", c.gatewayURL, err)
	}
	return nil
}
