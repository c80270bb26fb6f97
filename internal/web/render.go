package web

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/suckyear/suckyear/internal/prefs"
	"github.com/suckyear/suckyear/pkg/api"
)

const siteName = "SuckYear"

// page returns the template data every page shares.
func (s *Server) page(r *http.Request, title string) map[string]any {
	data := map[string]any{
		"Title":    title + " - " + siteName,
		"LoggedIn": false,
		"Dark":     false,
		"Username": "",
	}
	if p := prefs.FromContext(r.Context()); p != nil {
		data["Dark"] = p.Dark()
		if token := p.Token(); token != "" {
			data["LoggedIn"] = true
			data["Username"] = api.UsernameFromToken(token)
		}
	}
	return data
}

// render renders a page with status 200.
func (s *Server) render(w http.ResponseWriter, name string, data map[string]any) {
	s.renderStatus(w, http.StatusOK, name, data)
}

func (s *Server) renderStatus(w http.ResponseWriter, status int, name string, data map[string]any) {
	var buf bytes.Buffer
	if err := renderTemplate(&buf, name, data); err != nil {
		s.logger.Error("render template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := s.page(r, "Ошибка")
	data["Status"] = status
	data["Message"] = message
	s.renderStatus(w, status, "error", data)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound, MsgPageNotFound)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
