package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-farm-sync/internal/config"
	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/internal/utils"
	"github.com/MKhiriev/go-farm-sync/models"
)

// authService is the concrete implementation of AuthService.
// It mints and verifies HMAC-SHA256 JWTs that name a node (the subject) and
// the collections the node may access.
type authService struct {
	// tokenSignKey is the HMAC secret used to sign and verify JWT tokens.
	tokenSignKey string

	// tokenIssuer is the "iss" claim embedded in every issued JWT.
	// Tokens whose issuer does not match this value are rejected during parsing.
	tokenIssuer string

	// tokenDuration controls how long a newly issued JWT remains valid.
	tokenDuration time.Duration

	logger *logger.Logger
}

// NewAuthService constructs a new AuthService populated with the token
// parameters from cfg.
//
// The returned service is safe for concurrent use; all state is read-only after
// construction.
func NewAuthService(cfg config.Auth, logger *logger.Logger) AuthService {
	return &authService{
		tokenSignKey:  cfg.TokenSignKey,
		tokenIssuer:   cfg.TokenIssuer,
		tokenDuration: cfg.TokenDuration,
		logger:        logger,
	}
}

// CreateToken issues a signed JWT for subject scoped to collections. An
// empty collection list or [models.ScopeAll] grants every collection.
//
// Returns ErrInvalidDataProvided for an empty subject or a wrapped
// ErrTokenCreationFailed if JWT generation fails.
func (a *authService) CreateToken(ctx context.Context, subject string, collections []string) (models.Token, error) {
	log := logger.FromContext(ctx)

	if subject == "" {
		log.Error().Str("func", "authService.CreateToken").Msg("empty token subject")
		return models.Token{}, ErrInvalidDataProvided
	}

	if len(collections) == 0 {
		collections = []string{models.ScopeAll}
	}

	token, err := utils.GenerateJWTToken(a.tokenIssuer, subject, collections, a.tokenDuration, a.tokenSignKey)
	if err != nil {
		log.Err(err).Str("func", "authService.CreateToken").Str("subject", subject).Msg("token generation failed")
		return models.Token{}, fmt.Errorf("%w: %w", ErrTokenCreationFailed, err)
	}

	return token, nil
}

// ParseToken validates and parses a raw JWT string.
//
// Any validation failure (expired, wrong issuer, malformed) is normalised to
// ErrTokenIsExpiredOrInvalid so that callers do not need to inspect
// low-level JWT errors.
func (a *authService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	token, err := utils.ValidateAndParseJWTToken(tokenString, a.tokenSignKey, a.tokenIssuer)
	if err != nil {
		logger.FromContext(ctx).Debug().Err(err).Str("func", "authService.ParseToken").Msg("token rejected")
		return models.Token{}, ErrTokenIsExpiredOrInvalid
	}

	return token, nil
}
