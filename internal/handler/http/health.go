package http

import (
	"net/http"

	"github.com/MKhiriev/go-farm-sync/internal/utils"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, healthResponse{Status: "ok", Version: h.version}, http.StatusOK)
}
