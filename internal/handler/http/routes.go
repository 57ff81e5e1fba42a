package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MKhiriev/go-farm-sync/internal/utils"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(h.withTraceID, h.withLogging, middleware.Recoverer, withGZip)
	if h.requestTimeout > 0 {
		router.Use(middleware.Timeout(h.requestTimeout))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	// routes without authorization
	router.Get("/api/health", h.health)

	router.Route("/api/collections/{collection}", func(r chi.Router) {
		r.Use(h.withAuth, h.withCollectionAccess)

		r.Get("/documents", h.listDocuments)
		r.Post("/documents", h.createDocument)
		r.Get("/documents/{id}", h.getDocument)
		r.Put("/documents/{id}", h.updateDocument)
		r.Delete("/documents/{id}", h.deleteDocument)
		r.Post("/query", h.queryDocuments)
	})

	return router
}
