package handlers

import (
	"net/http"
	"time"

	"github.com/lcalzada-xor/fast/internal/core/services/recovery"
)

// HandleSync implements GET /sync (§4.9, §6).
func (h *Handlers) HandleSync(w http.ResponseWriter, r *http.Request) {
	mode := h.recoverySubmitterMode()
	writeJSON(w, http.StatusOK, h.Recovery.Sync(h.Clock, mode))
}

// recoverySubmitterMode translates the configured submitter mode and the
// live clock into the SubmitterMode Sync needs. Delay mode is phased against
// the current tick boundary; interval mode is phased against game_start.
func (h *Handlers) recoverySubmitterMode() recovery.SubmitterMode {
	sub := h.Config.Submitter
	if sub.IsDelayMode() {
		delay := time.Duration(sub.Delay * float64(time.Second))
		tickElapsed := h.Clock.Elapsed()

		var elapsed, remaining time.Duration
		if tickElapsed < delay {
			elapsed = tickElapsed
			remaining = delay - tickElapsed
		} else {
			elapsed = tickElapsed - delay
			remaining = h.Clock.TickDuration() - tickElapsed + delay
		}
		return recovery.SubmitterMode{Delay: delay, Elapsed: elapsed, Remaining: remaining}
	}

	interval := time.Duration(sub.Interval * float64(time.Second))
	sinceStart := time.Since(h.GameStart)
	if sinceStart < 0 {
		sinceStart = 0
	}
	elapsed := sinceStart % interval
	remaining := interval - elapsed
	return recovery.SubmitterMode{Interval: interval, Elapsed: elapsed, Remaining: remaining}
}
