package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-farm-sync/internal/utils"
	"github.com/MKhiriev/go-farm-sync/models"
)

func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documents.Get(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, "Handler.getDocument", err)
		return
	}

	utils.WriteJSON(w, doc, http.StatusOK)
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromRequest(r)
	if err != nil {
		writeServiceError(w, r, "Handler.listDocuments", err)
		return
	}

	list, err := h.documents.List(r.Context(), chi.URLParam(r, "collection"), page)
	if err != nil {
		writeServiceError(w, r, "Handler.listDocuments", err)
		return
	}

	utils.WriteJSON(w, list, http.StatusOK)
}

func (h *Handler) queryDocuments(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	var q models.Query
	if err := decodeBody(w, r, &q); err != nil {
		writeServiceError(w, r, "Handler.queryDocuments", err)
		return
	}
	if q.Collection != "" && q.Collection != collection {
		writeServiceError(w, r, "Handler.queryDocuments", ErrQueryCollection)
		return
	}
	q.Collection = collection

	list, err := h.documents.Query(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, "Handler.queryDocuments", err)
		return
	}

	utils.WriteJSON(w, list, http.StatusOK)
}

func (h *Handler) createDocument(w http.ResponseWriter, r *http.Request) {
	var write models.DocumentWrite
	if err := decodeBody(w, r, &write); err != nil {
		writeServiceError(w, r, "Handler.createDocument", err)
		return
	}

	doc, err := h.documents.Create(r.Context(), chi.URLParam(r, "collection"), write)
	if err != nil {
		writeServiceError(w, r, "Handler.createDocument", err)
		return
	}

	utils.WriteJSON(w, doc, http.StatusCreated)
}

func (h *Handler) updateDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var write models.DocumentWrite
	if err := decodeBody(w, r, &write); err != nil {
		writeServiceError(w, r, "Handler.updateDocument", err)
		return
	}
	if write.ID != "" && write.ID != id {
		writeServiceError(w, r, "Handler.updateDocument", ErrIDMismatch)
		return
	}
	write.ID = id

	doc, err := h.documents.Update(r.Context(), chi.URLParam(r, "collection"), write)
	if err != nil {
		writeServiceError(w, r, "Handler.updateDocument", err)
		return
	}

	utils.WriteJSON(w, doc, http.StatusOK)
}

// deleteDocument tombstones the document and returns the tombstone so the
// caller can adopt its version.
func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documents.Delete(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, "Handler.deleteDocument", err)
		return
	}

	utils.WriteJSON(w, doc, http.StatusOK)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	return nil
}

// pageFromRequest reads the optional limit and offset query parameters.
// Range checks are left to the service layer.
func pageFromRequest(r *http.Request) (models.Page, error) {
	var page models.Page

	values := r.URL.Query()
	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return page, fmt.Errorf("%w: limit %q", ErrInvalidPageParam, raw)
		}
		page.Limit = n
	}
	if raw := values.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return page, fmt.Errorf("%w: offset %q", ErrInvalidPageParam, raw)
		}
		page.Offset = n
	}

	return page, nil
}
