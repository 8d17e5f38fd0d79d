// Package handlers implements the server's HTTP surface (§6).
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lcalzada-xor/fast/internal/config"
	"github.com/lcalzada-xor/fast/internal/core/domain"
	"github.com/lcalzada-xor/fast/internal/core/ports"
	"github.com/lcalzada-xor/fast/internal/core/services/ingestion"
	"github.com/lcalzada-xor/fast/internal/core/services/recovery"
	"github.com/lcalzada-xor/fast/internal/core/services/search"
	"github.com/lcalzada-xor/fast/internal/core/services/submission"
)

// TickSource is the live clock surface handlers need for /sync.
type TickSource interface {
	CurrentTick() int64
	TickDuration() time.Duration
	Elapsed() time.Duration
	Remaining() time.Duration
}

// Handlers bundles every dependency the HTTP surface needs.
type Handlers struct {
	Config     *config.ServerConfig
	Flags      ports.FlagStore
	Webhooks   ports.WebhookStore
	Ingestion  *ingestion.Service
	Scheduler  *submission.Scheduler
	Search     *search.Service
	Recovery   *recovery.Service
	Clock      TickSource
	Submitter  ports.Submitter
	Logger     *slog.Logger
	StartTick  int64     // tick at process start
	GameStart  time.Time // anchor instant, for interval-mode sync phase
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps the error taxonomy of §7 to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrWebhookDisabled):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
