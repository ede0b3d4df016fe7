// Package web serves the embedded browser client.
//
// The client is a single page that walks through upload, analysis, recommendations and saving a playlist
// against the JSON API. It reads the auth_status and auth_error query parameters set by the OAuth callback
// redirect and reports them to the user.
//
// Routes
//
//	GET /          → index.html
//	GET /static/*  → app.js, style.css
package web

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"
)

//go:embed static
var staticFS embed.FS

var indexTemplate = template.Must(template.ParseFS(staticFS, "static/index.html"))

// PageData is rendered into index.html.
type PageData struct {
	Title        string
	LoginEnabled bool
	MaxUploadMB  int64
}

// Index renders the client page once and serves it from memory.
func Index(data PageData) (http.Handler, error) {
	if data.Title == "" {
		data.Title = "pixtape"
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	page := buf.Bytes()
	modified := time.Now()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeContent(w, r, "index.html", modified, bytes.NewReader(page))
	}), nil
}

// Assets serves the client's scripts and stylesheets under /static/.
func Assets() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}
