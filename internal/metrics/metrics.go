package metrics

import (
	"fmt"
	"time"

	"github.com/mikey/spam-risk-scorer/internal/core"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "spam_risk"

// Metrics records analysis outcomes as Prometheus collectors
type Metrics struct {
	analyzed      *prometheus.CounterVec
	spam          prometheus.Counter
	newSenders    prometheus.Counter
	trusted       prometheus.Counter
	storeFailures *prometheus.CounterVec
	duration      prometheus.Histogram
	overall       prometheus.Histogram
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		analyzed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_analyzed_total",
			Help:      "Total number of emails analyzed, by risk level",
		}, []string{"risk_level"}),
		spam: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spam_detected_total",
			Help:      "Total number of emails classified as spam",
		}),
		newSenders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "new_senders_total",
			Help:      "Total number of emails from senders without history",
		}),
		trusted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trusted_sender_total",
			Help:      "Total number of emails from trusted sender domains",
		}),
		storeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_store_failures_total",
			Help:      "Total number of failed history store operations",
		}, []string{"op"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent analyzing one email",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		overall: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "overall_score",
			Help:      "Distribution of overall risk scores",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
	}

	for _, c := range []prometheus.Collector{m.analyzed, m.spam, m.newSenders, m.trusted, m.storeFailures, m.duration, m.overall} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	return m, nil
}

// ObserveAnalysis implements core.MetricsRecorder
func (m *Metrics) ObserveAnalysis(result *core.SpamAnalysisResult, newSender bool, elapsed time.Duration) {
	m.analyzed.WithLabelValues(string(result.RiskLevel)).Inc()
	if result.IsSpam {
		m.spam.Inc()
	}
	if newSender {
		m.newSenders.Inc()
	}
	if result.Summary == core.SummaryTrusted {
		m.trusted.Inc()
	}
	m.duration.Observe(elapsed.Seconds())
	m.overall.Observe(result.OverallScore)
}

// StoreFailure implements core.MetricsRecorder
func (m *Metrics) StoreFailure(op string) {
	m.storeFailures.WithLabelValues(op).Inc()
}

// WriteTextfile dumps every metric of g to path in the node exporter textfile format
func WriteTextfile(g prometheus.Gatherer, path string) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
