package models

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	worldLabel = "world"
)

var (
	worldSpriteCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "world_sprite_count",
		Help: "The number of live sprites.",
	}, []string{worldLabel})

	worldSpawnCountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "world_spawn_count_total",
		Help: "The total number of spawned sprites.",
	}, []string{worldLabel})

	worldFrameCountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "world_frame_count_total",
		Help: "The total number of simulated frames.",
	}, []string{worldLabel})

	worldFrameLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "world_frame_latency",
		Help:    "The time to move, relocate and process every sprite of a frame.",
		Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
	}, []string{worldLabel})

	worldCollisionCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "world_collision_count",
		Help: "The number of colliding pairs in the last frame.",
	}, []string{worldLabel})
)

func instrumentSpawn(world string) {
	labels := prometheus.Labels{worldLabel: world}
	worldSpriteCount.With(labels).Inc()
	worldSpawnCountTotal.With(labels).Inc()
}

func instrumentDespawn(world string) {
	worldSpriteCount.
		With(prometheus.Labels{worldLabel: world}).
		Dec()
}

func instrumentFrame(world string, collisions int, start time.Time) {
	labels := prometheus.Labels{worldLabel: world}
	worldFrameCountTotal.With(labels).Inc()
	worldCollisionCount.With(labels).Set(float64(collisions))
	worldFrameLatency.With(labels).Observe(time.Since(start).Seconds())
}
