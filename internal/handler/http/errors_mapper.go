package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/internal/service"
	"github.com/MKhiriev/go-farm-sync/internal/utils"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided:     http.StatusBadRequest,
	service.ErrDocumentNotFound:        http.StatusNotFound,
	service.ErrDocumentExists:          http.StatusConflict,
	service.ErrTokenIsExpiredOrInvalid: http.StatusUnauthorized,
	service.ErrTokenCreationFailed:     http.StatusInternalServerError,

	ErrInvalidJSON:      http.StatusBadRequest,
	ErrInvalidPageParam: http.StatusBadRequest,
	ErrIDMismatch:       http.StatusBadRequest,
	ErrQueryCollection:  http.StatusBadRequest,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// writeServiceError maps err to a status code and writes it as a JSON error
// body. Internal failures are reported without details.
func writeServiceError(w http.ResponseWriter, r *http.Request, fn string, err error) {
	log := logger.FromRequest(r)
	status := statusFromError(err)

	if status >= http.StatusInternalServerError {
		log.Err(err).Str("func", fn).Msg("request failed")
		utils.WriteError(w, http.StatusText(status), status)
		return
	}

	log.Debug().Err(err).Str("func", fn).Int("status", status).Msg("request rejected")
	utils.WriteError(w, err.Error(), status)
}
