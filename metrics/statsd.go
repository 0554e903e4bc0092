package metrics

import (
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// StatsdClient is the part of the DogStatsD client a StatsdRecorder uses.
type StatsdClient interface {
	Count(name string, value int64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
	Gauge(name string, value float64, tags []string, rate float64) error
	Close() error
}

// StatsdRecorder sends measurements to a Datadog agent over DogStatsD.
type StatsdRecorder struct {
	client StatsdClient
}

var _ Recorder = (*StatsdRecorder)(nil)

// NewStatsdRecorder dials addr, e.g. "127.0.0.1:8125" or "unix:///var/run/datadog/dsd.socket".
func NewStatsdRecorder(addr, namespace string, tags ...string) (*StatsdRecorder, error) {
	if addr == "" {
		return nil, fmt.Errorf("statsd: address is required")
	}
	opts := []statsd.Option{statsd.WithTags(tags)}
	if namespace != "" {
		opts = append(opts, statsd.WithNamespace(namespace))
	}
	c, err := statsd.New(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("statsd: create client: %w", err)
	}
	return &StatsdRecorder{client: c}, nil
}

// NewStatsdRecorderWithClient wraps an existing client.
func NewStatsdRecorderWithClient(c StatsdClient) *StatsdRecorder {
	return &StatsdRecorder{client: c}
}

func (s *StatsdRecorder) RecordStep(step string, err error, d time.Duration) {
	tags := []string{"step:" + step, "status:" + status(err)}
	_ = s.client.Count("attemptgen.step", 1, tags, 1)
	_ = s.client.Histogram("attemptgen.step.duration", d.Seconds(), tags, 1)
}

func (s *StatsdRecorder) RecordGenerated(n int) {
	_ = s.client.Count("attemptgen.records.generated", int64(n), nil, 1)
}

func (s *StatsdRecorder) RecordPresence(stats PresenceStats) {
	for _, col := range stats.Columns {
		_ = s.client.Gauge("attemptgen.presence.chi_square", col.ChiSquare(), []string{"column:" + col.Column}, 1)
	}
}

// Flush closes the client, which sends anything still buffered.
func (s *StatsdRecorder) Flush() error {
	return s.client.Close()
}
