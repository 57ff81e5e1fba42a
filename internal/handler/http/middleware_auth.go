package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/internal/utils"
)

// withAuth is an HTTP middleware that enforces JWT-based authentication.
//
// It extracts the bearer token from the "Authorization" header, validates it
// via [service.AuthService.ParseToken] and stores the parsed token in the
// request context (see [utils.WithToken]). The request logger gains a
// "subject" field.
//
// Requests are rejected with 401 Unauthorized when the header is absent,
// malformed, or carries an expired or invalid token.
func (h *Handler) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Debug().Err(ErrEmptyAuthorizationHeader).Send()
			utils.WriteError(w, ErrEmptyAuthorizationHeader.Error(), http.StatusUnauthorized)
			return
		}

		tokenString, err := utils.ParseBearerToken(authHeader)
		if err != nil {
			log.Debug().Err(err).Send()
			utils.WriteError(w, ErrInvalidAuthorizationHeader.Error(), http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		token, err := h.tokens.ParseToken(ctx, tokenString)
		if err != nil {
			writeServiceError(w, r, "Handler.withAuth", err)
			return
		}

		l := log.GetChildLogger()
		l.UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("subject", token.Subject)
		})
		ctx = l.WithContext(utils.WithToken(ctx, &token))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withCollectionAccess rejects requests for collections outside the token
// scope with 403 Forbidden. It must run after withAuth.
func (h *Handler) withCollectionAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := utils.GetTokenFromContext(r.Context())
		if !ok {
			utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		collection := chi.URLParam(r, "collection")
		if !token.Allows(collection) {
			logger.FromRequest(r).Warn().
				Str("collection", collection).
				Strs("scope", token.Collections).
				Msg("collection access denied")
			utils.WriteError(w, ErrCollectionForbidden.Error(), http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
