package event

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Sink receives events after the transaction that produced them commits.
// Sinks must not call back into the factory.
type Sink interface {
	Publish(entries []Entry)
}

// Multi fans entries out to several sinks in order.
type Multi []Sink

// Publish implements Sink.
func (m Multi) Publish(entries []Entry) {
	for _, s := range m {
		if s != nil {
			s.Publish(entries)
		}
	}
}

// LogSink writes one structured log line per event.
type LogSink struct {
	Logger zerolog.Logger
}

// Publish implements Sink.
func (s LogSink) Publish(entries []Entry) {
	for _, e := range entries {
		s.Logger.Info().
			Uint64("seq", e.Seq).
			Uint64("height", e.Height).
			Str("kind", e.Event.Kind()).
			Interface("event", e.Event).
			Msg("factory event")
	}
}

// MetricsSink counts events by kind and tracks the committed height.
type MetricsSink struct {
	events *prometheus.CounterVec
	height prometheus.Gauge
}

// NewMetricsSink creates the collectors and registers them with reg.
func NewMetricsSink(reg prometheus.Registerer) (*MetricsSink, error) {
	s := &MetricsSink{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "libfactory",
			Name:      "events_total",
			Help:      "Committed factory events by kind.",
		}, []string{"kind"}),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "libfactory",
			Name:      "height",
			Help:      "Height of the last committed factory transaction.",
		}),
	}
	for _, c := range []prometheus.Collector{s.events, s.height} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Publish implements Sink.
func (s *MetricsSink) Publish(entries []Entry) {
	for _, e := range entries {
		s.events.WithLabelValues(e.Event.Kind()).Inc()
		s.height.Set(float64(e.Height))
	}
}

// Recorder keeps every published entry in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Publish implements Sink.
func (r *Recorder) Publish(entries []Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entries...)
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns how many recorded events are of kind.
func (r *Recorder) Count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Event.Kind() == kind {
			n++
		}
	}
	return n
}
