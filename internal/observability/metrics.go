package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	flowTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "limen",
		Name:      "flow_transitions_total",
		Help:      "Reflection flow transitions by source and target step.",
	}, []string{"from", "to"})

	generations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "limen",
		Name:      "generation_total",
		Help:      "Generator calls by kind and outcome (ok or fallback).",
	}, []string{"kind", "outcome"})

	saves = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "limen",
		Name:      "reflection_saves_total",
		Help:      "Reflection save attempts by outcome.",
	}, []string{"outcome"})
)

func init() {
	registry.MustRegister(flowTransitions, generations, saves)
}

func ObserveTransition(from, to string) {
	flowTransitions.WithLabelValues(from, to).Inc()
}

func ObserveGeneration(kind string, fellBack bool) {
	outcome := "ok"
	if fellBack {
		outcome = "fallback"
	}
	generations.WithLabelValues(kind, outcome).Inc()
}

func ObserveSave(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	saves.WithLabelValues(outcome).Inc()
}

// MetricsHandler exposes the service metrics in Prometheus format.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
