package handlers

import "net/http"

// configResponse mirrors §6's "sans secret" contract for GET /config.
type configResponse struct {
	Game      interface{} `json:"game"`
	Submitter interface{} `json:"submitter"`
	Server    struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	} `json:"server"`
	Database interface{} `json:"database"`
}

// HandleGetConfig implements GET /config (§6).
func (h *Handlers) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	resp := configResponse{
		Game:      h.Config.Game,
		Submitter: h.Config.Submitter,
		Database:  h.Config.Database,
	}
	resp.Server.Host = h.Config.Server.Host
	resp.Server.Port = h.Config.Server.Port
	writeJSON(w, http.StatusOK, resp)
}
