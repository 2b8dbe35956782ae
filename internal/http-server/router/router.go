package router

import (
	"net/http"

	"regenerate-thumbnails/internal/http-server/handler/admin"
	"regenerate-thumbnails/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	AdminHandler *admin.AdminHandler
}

func SetupRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				next.ServeHTTP(w, r)
			})
		})

		r.Route("/utilities", func(r chi.Router) {
			r.Get("/", h.AdminHandler.ListActive)
			r.Post("/{id}/activate", h.AdminHandler.Activate)
		})

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"ok"}`))
		})
	})

	r.Get("/admin/notices", h.AdminHandler.Notices)

	return r
}
