package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/suckyear/suckyear/internal/posts"
	"github.com/suckyear/suckyear/internal/prefs"
	"github.com/suckyear/suckyear/pkg/api"
	"github.com/suckyear/suckyear/pkg/model"
)

// HandleLogin renders the login page.
// GET /login
func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if p := prefs.FromContext(r.Context()); p != nil && p.Token() != "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := s.page(r, "Вход")
	data["Error"] = r.URL.Query().Get("error")
	data["Form"] = model.LoginCredentials{Username: r.URL.Query().Get("username")}
	s.render(w, "login", data)
}

// HandleLoginPost exchanges the credentials for a token and stores it in
// the session's preferences.
// POST /login
func (s *Server) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/login?error="+url.QueryEscape(MsgInvalidRequest), http.StatusSeeOther)
		return
	}

	creds := model.LoginCredentials{
		Username: strings.TrimSpace(r.FormValue("username")),
		Password: r.FormValue("password"),
	}
	data := s.page(r, "Вход")
	data["Form"] = model.LoginCredentials{Username: creds.Username}

	if creds.Username == "" || creds.Password == "" {
		data["Error"] = MsgFieldsRequired
		s.renderStatus(w, http.StatusUnprocessableEntity, "login", data)
		return
	}

	result, err := s.backend.Login(r.Context(), creds)
	if err != nil {
		s.logger.Warn("login failed", "username", creds.Username, "error", err)
		data["Error"] = loginMessage(err)
		s.renderStatus(w, http.StatusUnauthorized, "login", data)
		return
	}

	p := prefs.FromContext(r.Context())
	if err := p.SetToken(r.Context(), result.AccessToken); err != nil {
		s.logger.Error("store token failed", "error", err)
		s.renderError(w, r, http.StatusInternalServerError, MsgAuthFailed)
		return
	}

	s.logger.Info("user logged in", "username", creds.Username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleRegister renders the registration page.
// GET /register
func (s *Server) HandleRegister(w http.ResponseWriter, r *http.Request) {
	data := s.page(r, "Регистрация")
	data["Form"] = model.RegisterRequest{}
	s.render(w, "register", data)
}

// HandleRegisterPost creates an account and sends the browser to login.
// POST /register
func (s *Server) HandleRegisterPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, MsgInvalidRequest)
		return
	}

	req := model.RegisterRequest{
		Username: strings.TrimSpace(r.FormValue("username")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	data := s.page(r, "Регистрация")
	data["Form"] = model.RegisterRequest{Username: req.Username, Email: req.Email}

	if err := req.Validate(); err != nil {
		data["Error"] = MsgFieldsRequired
		s.renderStatus(w, http.StatusUnprocessableEntity, "register", data)
		return
	}

	user, err := s.backend.Register(r.Context(), req)
	if err != nil {
		s.logger.Warn("register failed", "username", req.Username, "error", err)
		data["Error"] = MsgRegisterFailed + ": " + posts.Localize(err)
		s.renderStatus(w, http.StatusBadGateway, "register", data)
		return
	}

	s.logger.Info("user registered", "username", user.Username)
	http.Redirect(w, r, "/login?username="+url.QueryEscape(req.Username), http.StatusSeeOther)
}

// HandleLogout forgets the session's token. The theme is kept.
// GET|POST /logout
func (s *Server) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if p := prefs.FromContext(r.Context()); p != nil {
		if err := p.ClearToken(r.Context()); err != nil {
			s.logger.Error("clear token failed", "error", err)
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleProfile renders the current user's profile.
// GET /profile
func (s *Server) HandleProfile(w http.ResponseWriter, r *http.Request) {
	p := prefs.FromContext(r.Context())
	data := s.page(r, "Профиль")
	data["Expires"] = tokenExpiry(p.Token())

	profile, err := s.backend.GetProfile(r.Context(), p.Token())
	if err != nil {
		if s.dropRejectedToken(w, r, p, err) {
			return
		}
		s.logger.Warn("get profile failed", "error", err)
		data["Profile"] = model.Profile{}
		data["Error"] = MsgProfileLoad
		s.renderStatus(w, http.StatusBadGateway, "profile", data)
		return
	}

	data["Profile"] = profile
	s.render(w, "profile", data)
}

// HandleProfilePost updates the current user's profile.
// POST /profile
func (s *Server) HandleProfilePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, MsgInvalidRequest)
		return
	}

	p := prefs.FromContext(r.Context())
	profile := model.Profile{
		Username: strings.TrimSpace(r.FormValue("username")),
		Email:    strings.TrimSpace(r.FormValue("email")),
	}
	data := s.page(r, "Профиль")
	data["Expires"] = tokenExpiry(p.Token())
	data["Profile"] = profile

	if err := profile.Validate(); err != nil {
		data["Error"] = MsgProfileUpdate
		s.renderStatus(w, http.StatusUnprocessableEntity, "profile", data)
		return
	}

	user, err := s.backend.UpdateProfile(r.Context(), p.Token(), profile)
	if err != nil {
		if s.dropRejectedToken(w, r, p, err) {
			return
		}
		s.logger.Warn("update profile failed", "error", err)
		data["Error"] = MsgProfileUpdate
		s.renderStatus(w, http.StatusBadGateway, "profile", data)
		return
	}

	data["Profile"] = model.Profile{Username: user.Username, Email: user.Email}
	data["Success"] = MsgProfileUpdated
	s.render(w, "profile", data)
}

// dropRejectedToken clears a token the backend refused and redirects to
// the login page. It reports whether it handled the response.
func (s *Server) dropRejectedToken(w http.ResponseWriter, r *http.Request, p *prefs.Prefs, err error) bool {
	if !api.IsUnauthorized(err) {
		return false
	}
	if err := p.ClearToken(r.Context()); err != nil {
		s.logger.Error("clear token failed", "error", err)
	}
	http.Redirect(w, r, "/login?error="+url.QueryEscape(MsgSessionExpired), http.StatusSeeOther)
	return true
}

func tokenExpiry(token string) string {
	info, err := api.ParseAccessToken(token)
	if err != nil || info.Expiry.IsZero() {
		return ""
	}
	return humanize.Time(info.Expiry)
}
