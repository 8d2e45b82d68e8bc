package spatial

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	indexLabel = "index"
)

var (
	indexSpriteCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "index_sprite_count",
		Help: "The number of sprites filed in the collision index.",
	}, []string{indexLabel})

	indexRelocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "index_relocations",
		Help: "The number of times a sprite moved to another tree node.",
	}, []string{indexLabel})

	indexTests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "index_narrow_phase_tests",
		Help: "The number of narrow-phase tests run by Process.",
	}, []string{indexLabel})

	indexCollisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "index_collisions",
		Help: "The number of colliding pairs reported by Process.",
	}, []string{indexLabel})

	indexProcessLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "index_process_latency",
		Help:    "The time to enumerate the colliding pairs of the whole tree.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{indexLabel})
)

func instrumentSpriteCount(name string, delta int) {
	indexSpriteCount.
		With(prometheus.Labels{indexLabel: name}).
		Add(float64(delta))
}

func instrumentRelocation(name string) {
	indexRelocations.
		With(prometheus.Labels{indexLabel: name}).
		Inc()
}

func instrumentProcess(name string, stats Stats, start time.Time) {
	labels := prometheus.Labels{indexLabel: name}

	indexTests.With(labels).Add(float64(stats.Tests))
	indexCollisions.With(labels).Add(float64(stats.Collisions))
	indexProcessLatency.With(labels).Observe(time.Since(start).Seconds())
}
