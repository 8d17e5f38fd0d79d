package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/lcalzada-xor/fast/internal/core/domain"
	"github.com/lcalzada-xor/fast/internal/core/services/ingestion"
)

type enqueueRequest struct {
	Flags   []string `json:"flags"`
	Exploit string   `json:"exploit"`
	Target  string   `json:"target"`
	Player  string   `json:"player"`
}

// HandleEnqueue implements POST /enqueue (§4.6).
func (h *Handlers) HandleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrValidation)
		return
	}
	if err := (domain.DefaultValidator{}).PlayerName(req.Player); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	result, err := h.Ingestion.Enqueue(r.Context(), req.Flags, req.Exploit, req.Target, req.Player)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleEnqueueFallback implements POST /enqueue-fallback (§4.6).
func (h *Handlers) HandleEnqueueFallback(w http.ResponseWriter, r *http.Request) {
	var entries []domain.FallbackEntry
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrValidation)
		return
	}

	result, err := h.Ingestion.EnqueueFallback(r.Context(), entries)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type enqueueManualRequest struct {
	Flags  []string `json:"flags"`
	Player string   `json:"player"`
	Action string   `json:"action,omitempty"`
}

// HandleEnqueueManual implements POST /enqueue-manual (§4.6).
func (h *Handlers) HandleEnqueueManual(w http.ResponseWriter, r *http.Request) {
	var req enqueueManualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrValidation)
		return
	}
	if err := (domain.DefaultValidator{}).PlayerName(req.Player); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	result, err := h.Ingestion.EnqueueManual(r.Context(), req.Flags, req.Player, ingestion.ManualAction(req.Action), h.Submitter)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type vulnReportRequest struct {
	Exploit string `json:"exploit"`
	Target  string `json:"target"`
	Player  string `json:"player"`
}

// HandleVulnReport implements POST /vuln-report (§4.6).
func (h *Handlers) HandleVulnReport(w http.ResponseWriter, r *http.Request) {
	var req vulnReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrValidation)
		return
	}
	msg := h.Ingestion.VulnReport(req.Exploit, req.Target, req.Player)
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// HandleTriggerSubmit implements POST /trigger-submit (§4.8 "forced fire").
// It responds once the submission round has finished.
func (h *Handlers) HandleTriggerSubmit(w http.ResponseWriter, r *http.Request) {
	h.Scheduler.Fire(r.Context(), h.Clock.CurrentTick())
	writeJSON(w, http.StatusOK, map[string]string{"status": "submission completed"})
}

type flagstoreStatsResponse struct {
	Queued   int64 `json:"queued"`
	Accepted int64 `json:"accepted"`
	Rejected int64 `json:"rejected"`
	Delta    struct {
		Accepted int64 `json:"accepted"`
		Rejected int64 `json:"rejected"`
	} `json:"delta"`
}

// HandleFlagstoreStats implements GET /flagstore-stats (§4.7): overall
// counts plus a delta holding the counts of the current tick, for a live
// rate indicator on the dashboard.
func (h *Handlers) HandleFlagstoreStats(w http.ResponseWriter, r *http.Request) {
	overall, err := h.Flags.CountByStatus(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	thisTick, err := h.Flags.CountByStatusForTick(r.Context(), h.Clock.CurrentTick())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := flagstoreStatsResponse{
		Queued:   overall.Queued,
		Accepted: overall.Accepted,
		Rejected: overall.Rejected,
	}
	resp.Delta.Accepted = thisTick.Accepted
	resp.Delta.Rejected = thisTick.Rejected
	writeJSON(w, http.StatusOK, resp)
}

type analyticsQuery struct {
	Lo int64
	Hi int64
}

func parseAnalyticsQuery(r *http.Request) (analyticsQuery, error) {
	q := r.URL.Query()
	lo, hi := int64(0), int64(0)
	if v := q.Get("lo"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return analyticsQuery{}, domain.ErrValidation
		}
		lo = parsed
	}
	if v := q.Get("hi"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return analyticsQuery{}, domain.ErrValidation
		}
		hi = parsed
	}
	return analyticsQuery{Lo: lo, Hi: hi}, nil
}

type exploitSeries struct {
	Player  string           `json:"player"`
	Exploit string           `json:"exploit"`
	Data    map[string][]int64 `json:"data"`
}

type analyticsResponse struct {
	Ticks    []int64                  `json:"ticks"`
	Exploits map[string]*exploitSeries `json:"exploits"`
}

// HandleExploitAnalytics implements GET /exploit-analytics (§4.7): a
// per (player, exploit) accepted-count series across [lo, hi].
func (h *Handlers) HandleExploitAnalytics(w http.ResponseWriter, r *http.Request) {
	q, err := parseAnalyticsQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	hi := q.Hi
	if hi == 0 {
		hi = h.Clock.CurrentTick()
	}
	lo := q.Lo

	points, err := h.Flags.Analytics(r.Context(), lo, hi)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	width := int(hi-lo) + 1
	if width < 1 {
		width = 1
	}
	ticks := make([]int64, width)
	for i := range ticks {
		ticks[i] = lo + int64(i)
	}

	resp := analyticsResponse{Ticks: ticks, Exploits: make(map[string]*exploitSeries)}
	for _, p := range points {
		key := p.Player + "-" + p.Exploit
		series, ok := resp.Exploits[key]
		if !ok {
			series = &exploitSeries{
				Player:  p.Player,
				Exploit: p.Exploit,
				Data:    map[string][]int64{"accepted": make([]int64, width)},
			}
			resp.Exploits[key] = series
		}
		idx := int(p.Tick - lo)
		if idx >= 0 && idx < width {
			series.Data["accepted"][idx] = p.Count
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
