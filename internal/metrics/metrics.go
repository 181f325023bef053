// Package metrics exposes prometheus collectors for the intake service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "recruit_intake"

type Metrics struct {
	Registry *prometheus.Registry

	Submissions      *prometheus.CounterVec
	SubmitDuration   prometheus.Histogram
	ValidationBlocks *prometheus.CounterVec
	TagMutations     *prometheus.CounterVec
	LiveForms        prometheus.GaugeFunc
}

// New registers every collector on a fresh registry. liveForms may be nil.
func New(liveForms func() float64) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "submit",
				Name:      "attempts_total",
				Help:      "Submissions that reached the webhook, by outcome.",
			}, []string{"outcome"}),
		SubmitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "submit",
				Name:      "webhook_seconds",
				Help:      "Time spent waiting for the webhook.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			}),
		ValidationBlocks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "submit",
				Name:      "validation_blocked_total",
				Help:      "Submissions stopped before any request because a required field was empty.",
			}, []string{"field"}),
		TagMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "tags",
				Name:      "mutations_total",
				Help:      "Tag chips added or removed.",
			}, []string{"field", "op"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Submissions,
		m.SubmitDuration,
		m.ValidationBlocks,
		m.TagMutations,
	)
	if liveForms != nil {
		m.LiveForms = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "sessions",
			Name:      "live_forms",
			Help:      "Forms currently held in memory.",
		}, liveForms)
		m.Registry.MustRegister(m.LiveForms)
	}
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
