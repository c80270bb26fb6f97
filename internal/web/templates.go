package web

import (
	"fmt"
	"html/template"
	"io"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/suckyear/suckyear/internal/theme"
	"github.com/suckyear/suckyear/pkg/model"
)

// templateFuncs provides helper functions for templates.
var templateFuncs = template.FuncMap{
	"humanTime": func(ts model.Timestamp) string {
		if ts.IsZero() {
			return ""
		}
		return humanize.Time(ts.Time)
	},
	"isoTime": func(ts model.Timestamp) string {
		if ts.IsZero() {
			return ""
		}
		return ts.Format(time.RFC3339)
	},
	"rating": func(r float64) string {
		return humanize.FtoaWithDigits(r, 1)
	},
	"btn": func(kind string, active bool) (string, error) {
		k, err := theme.ParseKind(kind)
		if err != nil {
			return "", err
		}
		return theme.ButtonClass(k, active), nil
	},
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
}

// renderTemplate renders a page through the layout.
func renderTemplate(w io.Writer, name string, data map[string]any) error {
	content, ok := templates[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}

	layout, ok := templates["layout"]
	if !ok {
		return fmt.Errorf("layout template not found")
	}

	tmpl, err := template.New("layout").Funcs(templateFuncs).Parse(layout)
	if err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}

	if _, err := tmpl.New("content").Parse(content); err != nil {
		return fmt.Errorf("parse content: %w", err)
	}

	if err := parseComponents(tmpl); err != nil {
		return err
	}

	return tmpl.Execute(w, data)
}

// renderFragment renders a single shared component without the layout.
func renderFragment(w io.Writer, name string, data map[string]any) error {
	tmpl := template.New(name).Funcs(templateFuncs)
	if err := parseComponents(tmpl); err != nil {
		return err
	}
	if tmpl.Lookup(name) == nil {
		return fmt.Errorf("fragment not found: %s", name)
	}
	return tmpl.ExecuteTemplate(w, name, data)
}

func parseComponents(tmpl *template.Template) error {
	for compName, compContent := range templates {
		if strings.HasPrefix(compName, "components/") {
			if _, err := tmpl.New(path.Base(compName)).Parse(compContent); err != nil {
				return fmt.Errorf("parse component %s: %w", compName, err)
			}
		}
	}
	return nil
}

// templates holds all template content. Components are shared by every
// page and can be rendered alone as fragments.
var templates = map[string]string{
	"layout": `<!DOCTYPE html>
<html lang="ru">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <link rel="stylesheet" href="/theme.css">
    <script src="https://unpkg.com/htmx.org@1.9.10"></script>
    <script src="https://unpkg.com/htmx.org@1.9.10/dist/ext/sse.js"></script>
</head>
<body>
    <header class="site">
        <a href="/" class="logo">SuckYear</a>
        <nav>
            {{if .LoggedIn}}
            <a href="/posts/new">Новый пост</a>
            <a href="/profile">{{if .Username}}{{.Username}}{{else}}Профиль{{end}}</a>
            <form action="/logout" method="POST" class="inline">
                <button type="submit" class="{{btn "secondary" false}}">Выйти</button>
            </form>
            {{else}}
            <a href="/login">Войти</a>
            <a href="/register">Регистрация</a>
            {{end}}
            <form action="/theme" method="POST" class="inline">
                <button type="submit" class="{{btn "icon" false}}" title="Сменить тему">{{if .Dark}}☀{{else}}☾{{end}}</button>
            </form>
        </nav>
    </header>

    <main>
        {{template "content" .}}
    </main>
</body>
</html>`,

	"posts/index": `{{define "content"}}
<section class="posts">
    <form class="toolbar" action="/posts/search" method="POST"
          hx-post="/posts/search" hx-trigger="submit" hx-swap="none">
        <input class="search" type="search" name="q" value="{{.SearchText}}"
               placeholder="Поиск по постам" autocomplete="off"
               hx-post="/posts/search" hx-trigger="input changed" hx-vals='{"debounce": "1"}' hx-swap="none">
        {{template "sort" .}}
    </form>
    <div id="posts" hx-ext="sse" sse-connect="/posts/events" sse-swap="posts">
        {{template "list" .}}
    </div>
</section>
{{end}}`,

	"components/sort": `{{define "sort"}}
<div class="sort" id="sort">
    <button type="submit" formaction="/posts/sort" name="field" value="created_at"
            hx-post="/posts/sort" hx-vals='{"field": "created_at"}' hx-swap="none"
            class="{{btn "sort" (eq .Query.Sort "created_at")}}" title="По дате">📅</button>
    <button type="submit" formaction="/posts/sort" name="field" value="rating"
            hx-post="/posts/sort" hx-vals='{"field": "rating"}' hx-swap="none"
            class="{{btn "sort" (eq .Query.Sort "rating")}}" title="По рейтингу">★</button>
</div>
{{end}}`,

	"components/list": `{{define "list"}}
<div class="list" data-generation="{{.Generation}}" data-view="{{.View}}">
    {{if eq .View "searching" "loading"}}
    <div class="spinner" role="status" aria-label="Загрузка"></div>
    {{else if eq .View "error"}}
    <p class="error-text">{{.State.Error}}</p>
    {{else if eq .View "empty"}}
    <div class="placeholder">
        <div class="icon">{{.Placeholder.Icon}}</div>
        <h2>{{.Placeholder.Title}}</h2>
        <p>{{.Placeholder.Description}}</p>
    </div>
    {{else}}
    {{range .State.Posts}}
    <article class="card">
        <h2><a href="/posts/{{.ID}}">{{.Author}}</a></h2>
        <p>{{.Text}}</p>
        <p class="meta">
            <span class="rating">★ {{rating .Rating}}</span>
            <time datetime="{{isoTime .CreatedAt}}">{{humanTime .CreatedAt}}</time>
        </p>
    </article>
    {{end}}
    {{end}}
    {{template "pagination" .Pagination}}
</div>
{{end}}`,

	"components/pagination": `{{define "pagination"}}
<form class="pagination" action="/posts/page" method="POST">
    <button type="submit" name="page" value="{{sub .Current 1}}"
            hx-post="/posts/page" hx-vals='{"page": "{{sub .Current 1}}"}' hx-swap="none"
            class="{{btn "pagination" false}}"{{if .PrevDisabled}} disabled{{end}} title="Назад">‹</button>
    {{$current := .Current}}
    {{range .Numbers}}
    <button type="submit" name="page" value="{{.}}"
            hx-post="/posts/page" hx-vals='{"page": "{{.}}"}' hx-swap="none"
            class="{{btn "pagination" (eq . $current)}}">{{.}}</button>
    {{end}}
    <button type="submit" name="page" value="{{add .Current 1}}"
            hx-post="/posts/page" hx-vals='{"page": "{{add .Current 1}}"}' hx-swap="none"
            class="{{btn "pagination" false}}"{{if .NextDisabled}} disabled{{end}} title="Вперёд">›</button>
</form>
{{end}}`,

	"posts/detail": `{{define "content"}}
<article class="post">
    <h1>{{.Post.Author}}</h1>
    <p class="meta">Автор: {{.Post.Author}}</p>
    <p class="meta">Рейтинг: {{rating .Post.Rating}}</p>
    <p class="meta">Дата создания: <time datetime="{{isoTime .Post.CreatedAt}}">{{humanTime .Post.CreatedAt}}</time></p>
    <div class="post-body">{{.Post.Text}}</div>
    <p><a href="/">Вернуться на главную страницу</a></p>
</article>
{{end}}`,

	"posts/new": `{{define "content"}}
<form class="form" action="/posts/new" method="POST">
    <h1>Моя история неудачи</h1>
    {{if .Error}}<p class="error-text">{{.Error}}</p>{{end}}
    {{if .Success}}<p class="success-text">{{.Success}}</p>{{end}}
    <input type="text" name="title" placeholder="Название поста" value="{{.Form.Title}}"{{if .Error}} class="has-error"{{end}}>
    <textarea name="content" placeholder="Текст поста" rows="8"{{if .Error}} class="has-error"{{end}}>{{.Form.Content}}</textarea>
    <button type="submit" class="{{btn "primary" false}}">Отправить</button>
</form>
{{end}}`,

	"login": `{{define "content"}}
<form class="form" action="/login" method="POST">
    <h1>Вход в систему</h1>
    <input id="username" name="username" type="text" placeholder="Логин" value="{{.Form.Username}}" required{{if .Error}} class="has-error"{{end}}>
    <input id="password" name="password" type="password" placeholder="Пароль" required{{if .Error}} class="has-error"{{end}}>
    {{if .Error}}<p class="error-text">{{.Error}}</p>{{end}}
    <button type="submit" class="{{btn "primary" false}}">Войти</button>
    <p class="info-text"><a href="/register">Регистрация</a></p>
</form>
{{end}}`,

	"register": `{{define "content"}}
<form class="form" action="/register" method="POST">
    <h1>Регистрация нового пользователя</h1>
    <input id="username" name="username" type="text" placeholder="Имя" value="{{.Form.Username}}" required{{if .Error}} class="has-error"{{end}}>
    <input id="email" name="email" type="email" placeholder="Почта" value="{{.Form.Email}}" required{{if .Error}} class="has-error"{{end}}>
    <input id="password" name="password" type="password" placeholder="Пароль" required{{if .Error}} class="has-error"{{end}}>
    {{if .Error}}<p class="error-text">{{.Error}}</p>{{end}}
    <button type="submit" class="{{btn "primary" false}}">Зарегистрироваться</button>
</form>
{{end}}`,

	"profile": `{{define "content"}}
<form class="form" action="/profile" method="POST">
    <h1>Профиль</h1>
    {{if .Error}}<p class="error-text">{{.Error}}</p>{{end}}
    {{if .Success}}<p class="success-text">{{.Success}}</p>{{end}}
    <input name="username" type="text" placeholder="Имя" value="{{.Profile.Username}}">
    <input name="email" type="email" placeholder="Почта" value="{{.Profile.Email}}">
    {{if .Expires}}<p class="info-text">Токен действует до {{.Expires}}</p>{{end}}
    <button type="submit" class="{{btn "primary" false}}">Сохранить</button>
</form>
{{end}}`,

	"error": `{{define "content"}}
<div class="placeholder">
    <div class="icon">⚠</div>
    <h2>{{.Status}}</h2>
    <p>{{.Message}}</p>
    <p><a href="/">Вернуться на главную страницу</a></p>
</div>
{{end}}`,
}
