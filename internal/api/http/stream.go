package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/groupnest/groupnest/internal/domain/presence"
)

// stream is the per-session SSE endpoint. The client opens it identified by
// (sessionId, userId), then fetches the full session state separately to
// seed its view; the stream carries only events. A second connection for
// the same pair replaces the first.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseUUIDParam(r, "sessionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid sessionId")
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "user_id required")
		return
	}

	// Only roster members may subscribe.
	state, err := s.negotiationSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	member := false
	for _, p := range state.Participants {
		if p.UserID == userID {
			member = true
			break
		}
	}
	if !member {
		respondError(w, http.StatusForbidden, "NOT_A_PARTICIPANT", "user is not on the session roster")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming not supported")
		return
	}

	client := presence.NewClient(sessionID, userID)
	s.hub.Register(client)
	defer s.hub.Unregister(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Initial comment flushes headers and keeps proxies from buffering.
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case event, open := <-client.EventChan:
			if !open || event == nil {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}
