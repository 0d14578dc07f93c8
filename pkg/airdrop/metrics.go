package airdrop

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters and histograms this receiver/sender exposes,
// registered against a private registry rather than the global default so
// multiple Identity instances (tests, multi-interface runs) never collide.
type Metrics struct {
	Registry *prometheus.Registry

	PeersDiscovered  prometheus.Counter
	DiscoverOutcomes *prometheus.CounterVec
	AskOutcomes      *prometheus.CounterVec
	UploadOutcomes   *prometheus.CounterVec
	BytesTransferred prometheus.Counter
	TransferDuration prometheus.Histogram
}

// NewMetrics builds and registers a fresh metrics set.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		PeersDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "opendrop",
			Name:      "peers_discovered_total",
			Help:      "mDNS service advertisements observed for the AirDrop service type.",
		}),
		DiscoverOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opendrop",
			Name:      "discover_outcomes_total",
			Help:      "Discover RPC outcomes, labeled ok/error.",
		}, []string{"outcome"}),
		AskOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opendrop",
			Name:      "ask_outcomes_total",
			Help:      "Ask RPC outcomes, labeled accepted/declined/error.",
		}, []string{"outcome"}),
		UploadOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opendrop",
			Name:      "upload_outcomes_total",
			Help:      "Upload RPC outcomes, labeled ok/error.",
		}, []string{"outcome"}),
		BytesTransferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "opendrop",
			Name:      "bytes_transferred_total",
			Help:      "Total bytes extracted from received Upload requests.",
		}),
		TransferDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "opendrop",
			Name:      "transfer_duration_seconds",
			Help:      "Wall-clock duration of completed Upload requests.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.PeersDiscovered,
		m.DiscoverOutcomes,
		m.AskOutcomes,
		m.UploadOutcomes,
		m.BytesTransferred,
		m.TransferDuration,
	)
	return m
}
