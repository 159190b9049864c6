package presentation

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed web/*
var webFS embed.FS

// MountStatic serves the result pages the submit handler redirects to.
// Both rejection kinds land on the same generic failure page.
func MountStatic(r chi.Router) {
	sub, _ := fs.Sub(webFS, "web")

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, sub, "index.html")
	})
	r.Get("/confirmation", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, sub, "confirmation.html")
	})
	r.Get("/order-failed", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, sub, "order-failed.html")
	})
}
