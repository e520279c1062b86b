package keepalive

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "TripWise Keep-Alive Service"

// Handler returns the HTTP surface of the standalone keep-alive service.
// Metrics are read from the state at scrape time and registered on reg.
func Handler(state *State, reg *prometheus.Registry) (http.Handler, error) {
	if err := registerMetrics(state, reg); err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"service":     serviceName,
			"status":      "running",
			"ping_status": state.Snapshot(),
		})
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "healthy"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return r, nil
}

func registerMetrics(state *State, reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "tripwise_keepalive_pings_total",
			Help: "Pings sent to the API.",
		}, func() float64 { return float64(state.Snapshot().PingCount) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "tripwise_keepalive_ping_successes_total",
			Help: "Pings answered with HTTP 200.",
		}, func() float64 { return float64(state.Snapshot().SuccessCount) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "tripwise_keepalive_ping_failures_total",
			Help: "Pings that failed or returned a non-200 status.",
		}, func() float64 { return float64(state.Snapshot().FailureCount) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "tripwise_keepalive_consecutive_failures",
			Help: "Failures since the last successful ping.",
		}, func() float64 { return float64(state.Snapshot().ConsecutiveFailures) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "tripwise_keepalive_last_ping_timestamp_seconds",
			Help: "Unix time of the last ping, 0 before the first one.",
		}, func() float64 {
			if t := state.Snapshot().LastPingTime; t != nil {
				return float64(t.Unix())
			}
			return 0
		}),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
