package server

import (
	"embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/djmwong/document-automation/internal/platform/middleware"
)

//go:embed web/index.html
var webFS embed.FS

// NewRouter wires the handler into a chi mux with the shared middleware
// chain.
func NewRouter(h *Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	r.Get("/", serveIndex)
	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/upload/passport", h.UploadPassport)
	r.Post("/upload/g28", h.UploadG28)
	r.Get("/extraction/{session_id}", h.GetExtraction)
	r.Delete("/session/{session_id}", h.DeleteSession)
	r.Post("/fill-form", h.FillForm)
	r.Post("/fill-form-sync", h.FillFormSync)

	return r
}

func serveIndex(w http.ResponseWriter, r *http.Request) {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		http.Error(w, "index unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}
