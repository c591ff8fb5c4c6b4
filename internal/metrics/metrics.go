package metrics

import (
	"context"
	"net/http"

	"github.com/AdamBeresnev/chesseirb/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chesseirb"

// Recorder counts tournament events. It is registered as an event publisher.
type Recorder struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	results  *prometheus.CounterVec
}

func NewRecorder(registry *prometheus.Registry) *Recorder {
	r := &Recorder{
		registry: registry,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tournament_events_total",
			Help:      "Tournament events published, by type.",
		}, []string{"type"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_results_total",
			Help:      "Match results submitted, by result.",
		}, []string{"result"}),
	}
	registry.MustRegister(r.events, r.results)
	return r
}

func (r *Recorder) Publish(_ context.Context, e events.Event) {
	r.events.WithLabelValues(string(e.Type)).Inc()
	if e.Type == events.ResultSubmitted {
		r.results.WithLabelValues(string(e.Result)).Inc()
	}
}

// Handler exposes the registry for scraping.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
