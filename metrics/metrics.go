package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/web3tea/changesink/pkg/log"
)

var (
	MessagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "changesink_messages_fetched_total",
		Help: "Total number of messages fetched from the transport",
	})

	MutationsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "changesink_mutations_applied_total",
		Help: "Total number of mutations applied to the destination, by kind",
	}, []string{"kind"})

	MessagesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "changesink_messages_skipped_total",
		Help: "Total number of messages skipped, by reason",
	}, []string{"reason"})

	ApplyRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "changesink_apply_retries_total",
		Help: "Total number of destination write retries",
	})

	OffsetCommits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "changesink_offset_commits_total",
		Help: "Total number of committed offsets",
	})

	ApplyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "changesink_apply_duration_seconds",
		Help:    "Time taken to apply one message end to end",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	})
)

// Serve exposes /metrics on addr in the background.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	log.Infof("metrics listening on %s", addr)
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Errorf("metrics server stopped: %v", err)
		}
	}()
}
