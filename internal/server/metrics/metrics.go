// Package metrics exposes Prometheus collectors for mint and scan traffic.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
)

const namespace = "qrcodec"

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	mints        *prometheus.CounterVec
	verifies     *prometheus.CounterVec
	scans        *prometheus.CounterVec
	envelopeSize prometheus.Histogram
	imagesStored *prometheus.CounterVec
}

// New creates and registers all collectors, plus the Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		mints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mints_total",
			Help:      "Minted envelopes by record kind and outcome.",
		}, []string{"kind", "outcome"}),
		verifies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Envelope verifications by outcome.",
		}, []string{"outcome"}),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_validations_total",
			Help:      "Scan validations by outcome. Soft mismatches are reported as \"mismatch\".",
		}, []string{"outcome"}),
		envelopeSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "envelope_length_chars",
			Help:      "Length of minted envelope strings.",
			Buckets:   prometheus.ExponentialBuckets(128, 2, 8),
		}),
		imagesStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_published_total",
			Help:      "QR images uploaded to object storage by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.mints, m.verifies, m.scans, m.envelopeSize, m.imagesStored,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registerer returns the private registry.
func (m *Metrics) Registerer() prometheus.Registerer { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveMint records one mint call. kind is empty when the call failed
// before a record was built.
func (m *Metrics) ObserveMint(kind string, envelopeLen int, err error) {
	if kind == "" {
		kind = "unknown"
	}
	m.mints.WithLabelValues(kind, common.Classify(err)).Inc()
	if err == nil {
		m.envelopeSize.Observe(float64(envelopeLen))
	}
}

func (m *Metrics) ObserveVerify(err error) {
	m.verifies.WithLabelValues(common.Classify(err)).Inc()
}

// ObserveScan records one scan validation; valid is ignored when err is set.
func (m *Metrics) ObserveScan(valid bool, err error) {
	outcome := common.Classify(err)
	if err == nil && !valid {
		outcome = "mismatch"
	}
	m.scans.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveImagePublish(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.imagesStored.WithLabelValues(outcome).Inc()
}
