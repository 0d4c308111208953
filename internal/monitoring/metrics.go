package monitoring

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stats holds the Prometheus counters and gauges for recording and replay.
// A nil *Stats is valid and records nothing.
type Stats struct {
	registry         *prometheus.Registry
	framesRecorded   prometheus.Counter
	framesReplayed   prometheus.Counter
	packetsSkipped   *prometheus.CounterVec
	actorsSpawned    prometheus.Counter
	commandsRejected *prometheus.CounterVec
	timeFactor       prometheus.Gauge
}

// NewStats creates and registers the metrics on a private registry.
func NewStats() *Stats {
	registry := prometheus.NewRegistry()

	framesRecorded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "drt_frames_recorded_total",
		Help: "Total number of frame groups written to a log",
	})
	framesReplayed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "drt_frames_replayed_total",
		Help: "Total number of frames presented during replay",
	})
	packetsSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drt_packets_skipped_total",
		Help: "Packets skipped while reading a log, by tag",
	}, []string{"tag"})
	actorsSpawned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "drt_custom_actors_spawned_total",
		Help: "Total number of custom actor bodies spawned",
	})
	commandsRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drt_commands_rejected_total",
		Help: "Session commands refused, by command",
	}, []string{"command"})
	timeFactor := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "drt_replay_time_factor",
		Help: "Current replay speed multiplier",
	})

	registry.MustRegister(
		framesRecorded,
		framesReplayed,
		packetsSkipped,
		actorsSpawned,
		commandsRejected,
		timeFactor,
	)

	return &Stats{
		registry:         registry,
		framesRecorded:   framesRecorded,
		framesReplayed:   framesReplayed,
		packetsSkipped:   packetsSkipped,
		actorsSpawned:    actorsSpawned,
		commandsRejected: commandsRejected,
		timeFactor:       timeFactor,
	}
}

var (
	statsMu      sync.RWMutex
	defaultStats = NewStats()
)

// Metrics returns the process-wide Stats.
func Metrics() *Stats {
	statsMu.RLock()
	defer statsMu.RUnlock()
	return defaultStats
}

// SetMetrics replaces the process-wide Stats. Passing nil disables metrics.
func SetMetrics(s *Stats) {
	statsMu.Lock()
	defer statsMu.Unlock()
	defaultStats = s
}

func (s *Stats) FrameRecorded() {
	if s != nil {
		s.framesRecorded.Inc()
	}
}

func (s *Stats) FrameReplayed() {
	if s != nil {
		s.framesReplayed.Inc()
	}
}

// PacketSkipped counts a packet the reader could not use.
func (s *Stats) PacketSkipped(tag string) {
	if s != nil {
		s.packetsSkipped.WithLabelValues(tag).Inc()
	}
}

func (s *Stats) ActorSpawned() {
	if s != nil {
		s.actorsSpawned.Inc()
	}
}

// CommandRejected counts a refused session command such as "seek".
func (s *Stats) CommandRejected(command string) {
	if s != nil {
		s.commandsRejected.WithLabelValues(command).Inc()
	}
}

func (s *Stats) SetTimeFactor(f float64) {
	if s != nil {
		s.timeFactor.Set(f)
	}
}

// Registry exposes the underlying registry for scraping in tests.
func (s *Stats) Registry() *prometheus.Registry { return s.registry }

// Handler returns an http.Handler that serves the metrics.
func (s *Stats) Handler() http.Handler {
	if s == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
