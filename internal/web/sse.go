package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/suckyear/suckyear/internal/posts"
)

// HandlePostsEvents streams the rendered list fragment of the session's
// controller every time its state changes.
// GET /posts/events
func (s *Server) HandlePostsEvents(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	ctrl := s.controller(r)

	// Set headers for SSE.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(s.cfg.Heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-updates:
			if !ok {
				// Controller closed or evicted; the client reconnects.
				return
			}
			s.lists.Touch(sess.ID)
			if err := s.sendSnapshot(w, flusher, snap); err != nil {
				s.logger.Debug("sse client disconnected", "session", sess.ID, "error", err)
				return
			}
		case <-ticker.C:
			s.lists.Touch(sess.ID)
			if _, err := fmt.Fprintf(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) sendSnapshot(w http.ResponseWriter, flusher http.Flusher, snap posts.Snapshot) error {
	var buf bytes.Buffer
	if err := renderFragment(&buf, "list", listData(snap)); err != nil {
		return err
	}
	return sendSSEEvent(w, flusher, "posts", buf.String())
}

// sendSSEEvent writes one event. Multi-line data is split across data
// fields as the event stream format requires.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event, data string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", event)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", strings.TrimRight(line, "\r"))
	}
	b.WriteString("\n")

	if _, err := fmt.Fprint(w, b.String()); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
