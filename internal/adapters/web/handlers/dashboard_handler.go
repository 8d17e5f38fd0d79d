package handlers

import "net/http"

// HandleDashboard implements GET / (§6): a minimal status page. The
// dashboard's live data comes over the /ws websocket feed, not this route.
func (h *Handlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(dashboardHTML))
}

const dashboardHTML = `<!DOCTYPE html>
<html>
<head><title>FAST</title></head>
<body>
<h1>FAST &mdash; Flag Acquisition and Submission Tool</h1>
<p>Connect a dashboard client to <code>/ws</code> for live event updates.</p>
</body>
</html>
`
