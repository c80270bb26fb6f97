package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/suckyear/suckyear/internal/posts"
	"github.com/suckyear/suckyear/internal/prefs"
	"github.com/suckyear/suckyear/pkg/api"
	"github.com/suckyear/suckyear/pkg/model"
)

// renderWait bounds how long a full page render waits for an in-flight
// fetch, so browsers without JavaScript still see the result.
const renderWait = 3 * time.Second

// controller returns the posts list of the request's browser session,
// storing the session first so the browser comes back to the same list.
func (s *Server) controller(r *http.Request) *posts.Controller {
	sess, err := persistSession(r)
	if err != nil {
		s.logger.Warn("store session failed", "error", err)
	}
	return s.lists.Get(sess.ID)
}

// listData flattens a snapshot into the data of the "list" component.
func listData(snap posts.Snapshot) map[string]any {
	return map[string]any{
		"Generation":  snap.Generation,
		"Query":       snap.Query,
		"SearchText":  snap.SearchText,
		"State":       snap.State,
		"View":        snap.View.String(),
		"Pagination":  snap.Pagination,
		"Placeholder": posts.EmptyPlaceholder,
	}
}

func waitSettled(ctx context.Context, ctrl *posts.Controller) {
	ctx, cancel := context.WithTimeout(ctx, renderWait)
	defer cancel()
	_ = ctrl.Wait(ctx)
}

// HandlePosts renders the posts list page.
// GET /
func (s *Server) HandlePosts(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller(r)
	waitSettled(r.Context(), ctrl)

	data := s.page(r, "Посты")
	for k, v := range listData(ctrl.Snapshot()) {
		data[k] = v
	}
	s.render(w, "posts/index", data)
}

// HandlePostsList renders the current list fragment.
// GET /posts/list
func (s *Server) HandlePostsList(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller(r)
	if r.URL.Query().Get("wait") != "" {
		waitSettled(r.Context(), ctrl)
	}

	var buf bytes.Buffer
	if err := renderFragment(&buf, "list", listData(ctrl.Snapshot())); err != nil {
		s.logger.Error("render list", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// HandleSearch updates the search text. Keystrokes sent by htmx carry
// debounce=1 and are committed after the quiet period; a submitted form is
// committed at once.
// POST /posts/search
func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, MsgInvalidRequest)
		return
	}
	ctrl := s.controller(r)
	text := r.FormValue("q")

	var err error
	if isHTMX(r) && r.FormValue("debounce") != "" {
		err = ctrl.SetSearchText(text)
	} else {
		err = ctrl.CommitSearch(text)
	}
	s.intentDone(w, r, ctrl, err)
}

// HandleSort changes the sort field. The page is kept.
// POST /posts/sort
func (s *Server) HandleSort(w http.ResponseWriter, r *http.Request) {
	field, err := model.ParseSortField(r.FormValue("field"))
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, MsgInvalidRequest)
		return
	}
	ctrl := s.controller(r)
	s.intentDone(w, r, ctrl, ctrl.SetSort(field))
}

// HandlePage moves to another page. Out-of-range pages are ignored.
// POST /posts/page
func (s *Server) HandlePage(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.FormValue("page"))
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, MsgInvalidRequest)
		return
	}
	ctrl := s.controller(r)
	if !ctrl.SetPage(n) {
		s.logger.Debug("page out of range", "page", n)
	}
	s.intentDone(w, r, ctrl, nil)
}

// intentDone answers a list intent. htmx clients get the new state over the
// event stream; plain form posts are redirected back to the list.
func (s *Server) intentDone(w http.ResponseWriter, r *http.Request, ctrl *posts.Controller, err error) {
	if err != nil {
		if errors.Is(err, posts.ErrClosed) {
			s.renderError(w, r, http.StatusServiceUnavailable, MsgInvalidRequest)
			return
		}
		s.renderError(w, r, http.StatusBadRequest, MsgInvalidRequest)
		return
	}
	if isHTMX(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	waitSettled(r.Context(), ctrl)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandlePost renders a single post.
// GET /posts/{id}
func (s *Server) HandlePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	post, err := s.backend.GetPost(r.Context(), id)
	if err != nil {
		if api.IsNotFound(err) {
			s.renderError(w, r, http.StatusNotFound, MsgPostNotFound)
			return
		}
		s.logger.Warn("get post failed", "id", id, "error", err)
		s.renderError(w, r, http.StatusBadGateway, posts.Localize(err))
		return
	}

	data := s.page(r, post.Author)
	data["Post"] = post
	s.render(w, "posts/detail", data)
}

// HandleNewPost renders the post creation form.
// GET /posts/new
func (s *Server) HandleNewPost(w http.ResponseWriter, r *http.Request) {
	data := s.page(r, "Новый пост")
	data["Form"] = model.NewPost{}
	s.render(w, "posts/new", data)
}

// HandleNewPostPost creates a post with the session's token.
// POST /posts/new
func (s *Server) HandleNewPostPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, MsgInvalidRequest)
		return
	}
	form := model.NewPost{
		Title:   strings.TrimSpace(r.FormValue("title")),
		Content: strings.TrimSpace(r.FormValue("content")),
	}

	data := s.page(r, "Новый пост")
	data["Form"] = form

	if err := form.Validate(); err != nil {
		data["Error"] = newPostMessage(err)
		s.renderStatus(w, http.StatusUnprocessableEntity, "posts/new", data)
		return
	}

	p := prefs.FromContext(r.Context())
	post, err := s.backend.CreatePost(r.Context(), p.Token(), form)
	if err != nil {
		if api.IsUnauthorized(err) {
			if err := p.ClearToken(r.Context()); err != nil {
				s.logger.Error("clear token failed", "error", err)
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		s.logger.Warn("create post failed", "error", err)
		data["Error"] = posts.Localize(err)
		s.renderStatus(w, http.StatusBadGateway, "posts/new", data)
		return
	}

	s.logger.Info("post created", "id", post.ID)
	if err := s.controller(r).Refresh(); err != nil {
		s.logger.Debug("refresh after create", "error", err)
	}
	if post.ID != "" {
		http.Redirect(w, r, "/posts/"+url.PathEscape(string(post.ID)), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// newPostMessage maps a post validation failure to the form text.
func newPostMessage(err error) string {
	var ve *model.ValidationError
	if !errors.As(err, &ve) || len(ve.Details) == 0 {
		return MsgFieldsRequired
	}
	d := ve.Details[0]
	switch {
	case d.Message == "required":
		return MsgFieldsRequired
	case d.Field == "title":
		return MsgPostTitleTooLong
	default:
		return MsgPostTextTooLong
	}
}
