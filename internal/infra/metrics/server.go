package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PingFunc reports whether the storage backend is reachable.
type PingFunc func(ctx context.Context) error

// NewRouter serves /metrics from gatherer and /healthz backed by ping.
// A nil ping always reports healthy.
func NewRouter(gatherer prometheus.Gatherer, ping PingFunc) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/healthz", healthCheck(ping)).Methods(http.MethodGet)
	return r
}

func healthCheck(ping PingFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("degraded\n"))
				return
			}
		}
		_, _ = w.Write([]byte("ok\n"))
	}
}

func NewServer(addr string, gatherer prometheus.Gatherer, ping PingFunc) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewRouter(gatherer, ping),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
