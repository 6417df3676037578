package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rubika_bot"

// Skip reasons used as the items_skipped_total label.
const (
	SkipEmptyTitle    = "empty_title"
	SkipAlreadyPosted = "already_posted"
	SkipInvalidRow    = "invalid_row"
	SkipMissingCreds  = "missing_credentials"
)

// Recorder collects the counters of one run on a private registry so the
// result can be written as a node-exporter textfile when the job exits.
type Recorder struct {
	registry       *prometheus.Registry
	postsSent      prometheus.Counter
	postsFailed    prometheus.Counter
	itemsSkipped   *prometheus.CounterVec
	imageFallbacks prometheus.Counter
	lastRun        prometheus.Gauge
}

// NewRecorder creates a Recorder with all collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		postsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_sent_total",
			Help:      "Posts accepted by the bot API.",
		}),
		postsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_failed_total",
			Help:      "Posts rejected by the bot API or lost in transport.",
		}),
		itemsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_skipped_total",
			Help:      "Content rows skipped before publishing.",
		}, []string{"reason"}),
		imageFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_fallbacks_total",
			Help:      "Posts that used the placeholder image after a failed search.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
	r.registry.MustRegister(r.postsSent, r.postsFailed, r.itemsSkipped, r.imageFallbacks, r.lastRun)
	return r
}

func (r *Recorder) PostSent()      { r.postsSent.Inc() }
func (r *Recorder) PostFailed()    { r.postsFailed.Inc() }
func (r *Recorder) ImageFallback() { r.imageFallbacks.Inc() }

// Skipped counts one skipped row under reason.
func (r *Recorder) Skipped(reason string) { r.itemsSkipped.WithLabelValues(reason).Inc() }

// Finish stamps the run completion time.
func (r *Recorder) Finish(now time.Time) {
	r.lastRun.Set(float64(now.Unix()))
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes all metrics to path. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
