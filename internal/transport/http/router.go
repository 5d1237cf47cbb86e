package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds the handlers the HTTP surface is assembled from.
type RouterConfig struct {
	WS         *WSHandler
	Progress   *ProgressHandler
	AdminToken string
}

// NewRouter serves /healthz, /metrics, /ws and the progress API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	if cfg.WS != nil {
		r.Get("/ws", cfg.WS.ServeWS)
	}
	if cfg.Progress != nil {
		r.Group(func(r chi.Router) {
			r.Use(RequireUser)
			cfg.Progress.Routes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(RequireAdminToken(cfg.AdminToken))
			cfg.Progress.AdminRoutes(r)
		})
	}
	return r
}
