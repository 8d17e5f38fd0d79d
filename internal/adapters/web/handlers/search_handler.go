package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/lcalzada-xor/fast/internal/core/domain"
)

func readBody(r *http.Request) (string, error) {
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// HandleSearch implements POST /search (§6).
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req domain.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrValidation)
		return
	}

	result, err := h.Search.Search(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
