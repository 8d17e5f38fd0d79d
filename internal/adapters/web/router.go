// Package web assembles FAST's HTTP surface (§6): the ingestion/search/sync
// API, the webhook exfiltration route, the dashboard websocket, and the
// metrics endpoint.
package web

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lcalzada-xor/fast/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/fast/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/fast/internal/adapters/web/websocket"
)

// exfiltrateRateLimit bounds how often a single webhook path may be posted
// to, independent of the global request volume (§6 "ANY /:webhookId").
const (
	exfiltrateRateLimit  = 30
	exfiltrateRateWindow = time.Minute
)

// NewRouter builds the full mux.Router, wiring Basic Auth over every route
// except the unauthenticated exfiltration webhook.
func NewRouter(h *handlers.Handlers, ws *websocket.Manager, password string) http.Handler {
	r := mux.NewRouter()

	auth := middleware.BasicAuth(password)
	limiter := middleware.NewRateLimiter(exfiltrateRateLimit, exfiltrateRateWindow)

	api := r.NewRoute().Subrouter()
	api.Use(auth)

	api.HandleFunc("/", h.HandleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/config", h.HandleGetConfig).Methods(http.MethodGet)
	api.HandleFunc("/sync", h.HandleSync).Methods(http.MethodGet)
	api.HandleFunc("/search", h.HandleSearch).Methods(http.MethodPost)

	api.HandleFunc("/enqueue", h.HandleEnqueue).Methods(http.MethodPost)
	api.HandleFunc("/enqueue-fallback", h.HandleEnqueueFallback).Methods(http.MethodPost)
	api.HandleFunc("/enqueue-manual", h.HandleEnqueueManual).Methods(http.MethodPost)
	api.HandleFunc("/vuln-report", h.HandleVulnReport).Methods(http.MethodPost)
	api.HandleFunc("/trigger-submit", h.HandleTriggerSubmit).Methods(http.MethodPost)
	api.HandleFunc("/flagstore-stats", h.HandleFlagstoreStats).Methods(http.MethodGet)
	api.HandleFunc("/exploit-analytics", h.HandleExploitAnalytics).Methods(http.MethodGet)

	api.HandleFunc("/webhooks", h.HandleListWebhooks).Methods(http.MethodGet)
	api.HandleFunc("/webhooks", h.HandleCreateWebhook).Methods(http.MethodPost)
	api.HandleFunc("/webhooks/{id}", h.HandleUpdateWebhook).Methods(http.MethodPut)

	api.HandleFunc("/ws", ws.HandleWebSocket)
	api.Handle("/metrics", promhttp.Handler())

	// The exfiltration callback is deliberately outside Basic Auth — the
	// webhook ID itself is the secret (§4.6) — but still rate-limited per
	// webhook path.
	r.PathPrefix("/{webhookId}").Handler(
		middleware.RateLimit(limiter)(http.HandlerFunc(h.HandleExfiltrate)),
	)

	return r
}
