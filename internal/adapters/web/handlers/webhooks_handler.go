package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/lcalzada-xor/fast/internal/core/domain"
)

type webhookRequest struct {
	Exploit  string `json:"exploit"`
	Player   string `json:"player"`
	Disabled bool   `json:"disabled,omitempty"`
}

// HandleListWebhooks implements GET /webhooks (§4.6).
func (h *Handlers) HandleListWebhooks(w http.ResponseWriter, r *http.Request) {
	hooks, err := h.Webhooks.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, hooks)
}

// HandleCreateWebhook implements POST /webhooks. The ID is server-generated
// and doubles as the unguessable /:webhookId path segment.
func (h *Handlers) HandleCreateWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrValidation)
		return
	}
	if err := (domain.DefaultValidator{}).PlayerName(req.Player); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	wh := domain.Webhook{
		ID:       uuid.NewString(),
		Exploit:  req.Exploit,
		Player:   req.Player,
		Disabled: req.Disabled,
	}
	if err := h.Webhooks.Create(r.Context(), wh); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, wh)
}

// HandleUpdateWebhook implements PUT /webhooks/{id} (e.g. toggling Disabled).
func (h *Handlers) HandleUpdateWebhook(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	existing, err := h.Webhooks.Get(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrValidation)
		return
	}
	existing.Exploit = req.Exploit
	existing.Player = req.Player
	existing.Disabled = req.Disabled

	if err := h.Webhooks.Update(r.Context(), existing); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

// HandleExfiltrate implements ANY /:webhookId (§4.6): a deliberately
// unauthenticated route an exploit's own webhook callback posts flags to.
func (h *Handlers) HandleExfiltrate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["webhookId"]
	wh, err := h.Webhooks.Get(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrValidation)
		return
	}

	result, err := h.Ingestion.Exfiltrate(r.Context(), wh, body)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
