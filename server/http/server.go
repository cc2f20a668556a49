// Package http assembles spec.md §6's REST surface: gorilla/mux routing,
// rs/cors for cross-origin browser consumers, and a Prometheus metrics
// middleware, wired against a server.Service built once at startup.
package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/Yundera/mesh-router-backend/server"
	"github.com/Yundera/mesh-router-backend/server/http/middleware"
)

// NewRouter builds the full mux.Router for svc, registering every endpoint
// in spec.md §6 plus a Prometheus /metrics endpoint.
func NewRouter(svc *server.Service, reg *prometheus.Registry) http.Handler {
	public := NewPublicHandlers(svc)
	resolve := NewResolveHandlers(svc)
	signed := NewSignedHandlers(svc)
	admin := NewAdminHandlers(svc)

	metrics := middleware.NewMetrics(reg)
	corsMiddleware := cors.AllowAll()

	router := mux.NewRouter()
	router.Use(middleware.RequestID, metrics.Handler, corsMiddleware.Handler)

	router.HandleFunc("/available/{label}", public.GetAvailable).Methods("GET", "OPTIONS")
	router.HandleFunc("/domain/{userId}", public.GetDomain).Methods("GET", "OPTIONS")
	router.HandleFunc("/verify/{userId}/{sig}", public.GetVerify).Methods("GET", "OPTIONS")
	router.HandleFunc("/status/{userId}", public.GetStatus).Methods("GET", "OPTIONS")
	router.HandleFunc("/resolve/v2/{label}", resolve.GetResolve).Methods("GET", "OPTIONS")
	router.HandleFunc("/routes/{userId}", resolve.GetRoutes).Methods("GET", "OPTIONS")
	router.HandleFunc("/ca-cert", resolve.GetCACert).Methods("GET", "OPTIONS")

	router.HandleFunc("/routes/{userId}/{sig}", signed.PostRoutes).Methods("POST", "OPTIONS")
	router.HandleFunc("/routes/{userId}/{sig}", signed.DeleteRoutes).Methods("DELETE", "OPTIONS")
	router.HandleFunc("/heartbeat/{userId}/{sig}", signed.PostHeartbeat).Methods("POST", "OPTIONS")
	router.HandleFunc("/cert/{userId}/{sig}", signed.PostCert).Methods("POST", "OPTIONS")

	router.HandleFunc("/domain", admin.PostDomain).Methods("POST", "OPTIONS")
	router.HandleFunc("/domain", admin.DeleteDomain).Methods("DELETE", "OPTIONS")
	router.HandleFunc("/admin/cleanup", admin.PostAdminCleanup).Methods("POST", "OPTIONS")

	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods("GET")

	return router
}
