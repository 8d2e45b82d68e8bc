package report

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	errTypeLabel = "error_type"
	worldLabel   = "world"
)

var (
	reportDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "report_dropped",
		Help: "The number of frame reports dropped because the summary queue was full.",
	}, []string{
		worldLabel,
	})

	indexVerificationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "index_verification_latency",
		Help: "The time to verify the collision index integrity.",
	}, []string{
		worldLabel,
	})

	indexVerificationError = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "index_verification_errors",
		Help: "The errors found while verifying the collision index integrity.",
	}, []string{
		worldLabel,
		errTypeLabel,
	})
)

func instrumentDroppedReport(world string) {
	reportDropped.With(prometheus.Labels{
		worldLabel: world,
	}).Inc()
}

func instrumentVerification(world string, verify func() error) error {
	start := time.Now()
	err := verify()

	indexVerificationLatency.With(prometheus.Labels{
		worldLabel: world,
	}).Observe(time.Since(start).Seconds())

	if err != nil {
		indexVerificationError.With(prometheus.Labels{
			worldLabel:   world,
			errTypeLabel: errors.Type(err),
		}).Inc()
	}
	return err
}
