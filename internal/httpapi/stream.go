package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"procura.io/internal/auth"
	"procura.io/internal/obs"
)

// streamHeartbeat keeps idle connections open through proxies.
const streamHeartbeat = 15 * time.Second

// Stream serves the caller company's award notifications as Server-Sent
// Events. Each event carries a sequence id local to the connection.
func (a *API) Stream(w http.ResponseWriter, r *http.Request) {
	if a.stream == nil {
		writeError(w, r, http.StatusServiceUnavailable, "streaming disabled")
		return
	}
	t, ok := auth.TenantFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	ctx := r.Context()
	events := a.stream.Subscribe(ctx, t.CompanyID)
	log := obs.FromContext(ctx).With(zap.String("company_id", t.CompanyID))
	log.Debug("stream opened", zap.Int("subscribers", a.stream.Subscribers()))

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	var seq uint64
	for {
		select {
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case n, open := <-events:
			if !open {
				log.Debug("stream closed")
				return
			}
			payload, err := json.Marshal(n)
			if err != nil {
				log.Warn("stream encode failed", zap.Error(err))
				continue
			}
			seq++
			fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", seq, n.Type, payload)
			flusher.Flush()
		}
	}
}
