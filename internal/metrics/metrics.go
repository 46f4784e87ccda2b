// Package metrics exposes Prometheus collectors for extractions, engine loads
// and outbound API sends.
package metrics

import (
	"time"

	"github.com/Caia-Tech/caia-extractor/pkg/extractor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

const namespace = "caia_extractor"

const outcomeSuccess = "success"

// Collector records extraction, engine load and transport metrics.
type Collector struct {
	extractionsTotal   *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	engineLoadsTotal   *prometheus.CounterVec
	engineLoadDuration prometheus.Histogram
	transportTotal     *prometheus.CounterVec
}

// NewCollector creates the collectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		extractionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extractions_total",
				Help:      "Total number of extraction requests by file kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		extractionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "extraction_duration_seconds",
				Help:      "Duration of extraction requests",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"kind"},
		),
		engineLoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "engine_loads_total",
				Help:      "Total number of OCR engine load attempts",
			},
			[]string{"engine", "outcome"},
		),
		engineLoadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "engine_load_duration_seconds",
				Help:      "Duration of OCR engine loads",
			},
		),
		transportTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transport_requests_total",
				Help:      "Total number of payload sends by outcome",
			},
			[]string{"outcome"},
		),
	}

	for _, collector := range []prometheus.Collector{
		c.extractionsTotal,
		c.extractionDuration,
		c.engineLoadsTotal,
		c.engineLoadDuration,
		c.transportTotal,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// ObserveExtraction implements extractor.Observer.
func (c *Collector) ObserveExtraction(kind string, elapsed time.Duration, err error) {
	outcome := outcomeSuccess
	if err != nil {
		outcome = string(extractor.ClassifyError(err))
	}
	c.extractionsTotal.WithLabelValues(kind, outcome).Inc()
	c.extractionDuration.WithLabelValues(kind).Observe(elapsed.Seconds())

	log.Debug().
		Str("kind", kind).
		Str("outcome", outcome).
		Dur("elapsed", elapsed).
		Msg("Extraction metric recorded")
}

// ObserveEngineLoad matches ocr.LoadObserver.
func (c *Collector) ObserveEngineLoad(engine string, elapsed time.Duration, err error) {
	outcome := outcomeSuccess
	if err != nil {
		outcome = "failure"
	}
	c.engineLoadsTotal.WithLabelValues(engine, outcome).Inc()
	c.engineLoadDuration.Observe(elapsed.Seconds())
}

// ObserveSend records one payload send. Disabled sends are counted apart so
// dashboards show when forwarding is switched off.
func (c *Collector) ObserveSend(disabled bool, err error) {
	outcome := outcomeSuccess
	switch {
	case err != nil:
		outcome = "failure"
	case disabled:
		outcome = "disabled"
	}
	c.transportTotal.WithLabelValues(outcome).Inc()
}
