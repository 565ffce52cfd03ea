package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Shared collectors, registered on the default registry and exposed through
// the /metrics endpoint.
var ( //nolint:gochecknoglobals // Global for collectors
	SnapshotLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portfolio",
		Name:      "snapshot_loads_total",
		Help:      "Snapshot loads by result.",
	}, []string{"result"})

	SnapshotLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "portfolio",
		Name:      "snapshot_load_duration_seconds",
		Help:      "Wall time of a full snapshot load, fetches plus the price batch.",
		Buckets:   prometheus.DefBuckets,
	})

	HoldingFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portfolio",
		Name:      "holding_fetches_total",
		Help:      "Per-chain holding fetches by result.",
	}, []string{"chain", "result"})

	PriceBatchCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portfolio",
		Name:      "price_batch_calls_total",
		Help:      "Upstream price feed batch calls by result.",
	}, []string{"result"})

	NftResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portfolio",
		Name:      "nft_resolutions_total",
		Help:      "NFT metadata resolutions by per-record status.",
	}, []string{"status"})
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)
