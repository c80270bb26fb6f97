package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/suckyear/suckyear/internal/prefs"
	"github.com/suckyear/suckyear/internal/theme"
)

// HandleThemeCSS serves the stylesheet of the session's theme.
// GET /theme.css
func (s *Server) HandleThemeCSS(w http.ResponseWriter, r *http.Request) {
	dark := false
	if p := prefs.FromContext(r.Context()); p != nil {
		dark = p.Dark()
	}

	css, err := theme.Stylesheet(theme.For(dark))
	if err != nil {
		s.logger.Error("build stylesheet", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(css))
}

// HandleThemeToggle flips between the light and dark theme.
// POST /theme
func (s *Server) HandleThemeToggle(w http.ResponseWriter, r *http.Request) {
	p := prefs.FromContext(r.Context())
	dark, err := p.ToggleTheme(r.Context())
	if err != nil {
		s.logger.Error("toggle theme failed", "error", err)
		s.renderError(w, r, http.StatusInternalServerError, MsgInvalidRequest)
		return
	}
	s.logger.Debug("theme toggled", "dark", dark)

	if isHTMX(r) {
		w.Header().Set("HX-Refresh", "true")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, sameHostPath(r, r.Referer()), http.StatusSeeOther)
}

// sameHostPath returns the path and query of ref when it points at this
// host, and "/" otherwise.
func sameHostPath(r *http.Request, ref string) string {
	u, err := url.Parse(ref)
	if err != nil || ref == "" {
		return "/"
	}
	if u.Host != "" && u.Host != r.Host {
		return "/"
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return "/"
	}
	p := u.EscapedPath()
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}
