package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/MKhiriev/go-farm-sync/internal/config"
	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/internal/utils"
	"github.com/MKhiriev/go-farm-sync/models"
)

const (
	documentsPath = "/api/collections/{collection}/documents"
	documentPath  = "/api/collections/{collection}/documents/{id}"
	queryPath     = "/api/collections/{collection}/query"
	healthPath    = "/api/health"
)

type httpDocumentClient struct {
	client  *utils.HTTPClient
	limiter *rate.Limiter

	mu    sync.RWMutex
	token string

	logger *logger.Logger
}

// NewHTTPDocumentClient constructs a REST implementation of [DocumentClient].
// The base URL comes from cfg.HTTPAddress; cfg.RateLimit requests per second
// (with cfg.RateBurst burst) are let through, and a non-positive limit
// disables throttling. The client never retries a request.
func NewHTTPDocumentClient(cfg config.Adapter, logger *logger.Logger) (DocumentClient, error) {
	baseURL, err := normalizeBaseURL(cfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	client := utils.NewHTTPClient(baseURL, cfg.RequestTimeout)

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}

	h := &httpDocumentClient{
		client:  client,
		limiter: rate.NewLimiter(limit, max(cfg.RateBurst, 1)),
		logger:  logger,
	}
	h.SetToken(cfg.AuthToken)

	return h, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [DocumentClient].
func (h *httpDocumentClient) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token implements [DocumentClient].
func (h *httpDocumentClient) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Get implements [DocumentClient]. GET /api/collections/{collection}/documents/{id}.
func (h *httpDocumentClient) Get(ctx context.Context, collection, id string) (models.Document, error) {
	resp, err := h.do(ctx, "get document", func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParams(map[string]string{"collection": collection, "id": id}).Get(documentPath)
	})
	if err != nil {
		return models.Document{}, err
	}

	return decode[models.Document](resp, "get document")
}

// List implements [DocumentClient]. GET /api/collections/{collection}/documents.
func (h *httpDocumentClient) List(ctx context.Context, collection string, page models.Page) (models.DocumentList, error) {
	resp, err := h.do(ctx, "list documents", func(r *resty.Request) (*resty.Response, error) {
		r.SetPathParam("collection", collection)
		if page.Limit > 0 {
			r.SetQueryParam("limit", strconv.Itoa(page.Limit))
		}
		if page.Offset > 0 {
			r.SetQueryParam("offset", strconv.Itoa(page.Offset))
		}
		return r.Get(documentsPath)
	})
	if err != nil {
		return models.DocumentList{}, err
	}

	return decode[models.DocumentList](resp, "list documents")
}

// Query implements [DocumentClient]. POST /api/collections/{collection}/query.
func (h *httpDocumentClient) Query(ctx context.Context, q models.Query) (models.DocumentList, error) {
	resp, err := h.do(ctx, "query documents", func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParam("collection", q.Collection).
			SetHeader("Content-Type", "application/json").
			SetBody(q).
			Post(queryPath)
	})
	if err != nil {
		return models.DocumentList{}, err
	}

	return decode[models.DocumentList](resp, "query documents")
}

// Create implements [DocumentClient]. POST /api/collections/{collection}/documents.
func (h *httpDocumentClient) Create(ctx context.Context, collection string, write models.DocumentWrite) (models.Document, error) {
	resp, err := h.do(ctx, "create document", func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParam("collection", collection).
			SetHeader("Content-Type", "application/json").
			SetBody(write).
			Post(documentsPath)
	})
	if err != nil {
		return models.Document{}, err
	}

	return decode[models.Document](resp, "create document")
}

// Update implements [DocumentClient]. PUT /api/collections/{collection}/documents/{id}.
func (h *httpDocumentClient) Update(ctx context.Context, collection string, write models.DocumentWrite) (models.Document, error) {
	resp, err := h.do(ctx, "update document", func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParams(map[string]string{"collection": collection, "id": write.ID}).
			SetHeader("Content-Type", "application/json").
			SetBody(write).
			Put(documentPath)
	})
	if err != nil {
		return models.Document{}, err
	}

	return decode[models.Document](resp, "update document")
}

// Delete implements [DocumentClient]. DELETE /api/collections/{collection}/documents/{id}.
func (h *httpDocumentClient) Delete(ctx context.Context, collection, id string) (models.Document, error) {
	resp, err := h.do(ctx, "delete document", func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParams(map[string]string{"collection": collection, "id": id}).Delete(documentPath)
	})
	if err != nil {
		return models.Document{}, err
	}

	return decode[models.Document](resp, "delete document")
}

// Ping implements [DocumentClient]. GET /api/health.
func (h *httpDocumentClient) Ping(ctx context.Context) error {
	_, err := h.do(ctx, "ping", func(r *resty.Request) (*resty.Response, error) {
		return r.Get(healthPath)
	})
	return err
}

// do waits for the rate limiter, sends one authenticated request and maps a
// transport failure or non-2xx status onto the remote taxonomy.
func (h *httpDocumentClient) do(ctx context.Context, op string, send func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	log := logger.FromContext(ctx)

	if err := h.limiter.Wait(ctx); err != nil {
		log.Err(err).Str("func", "httpDocumentClient.do").Str("op", op).Msg("rate limiter wait failed")
		return nil, fmt.Errorf("%w: %s: %w", ErrRemoteTransient, op, err)
	}

	resp, err := send(h.authedRequest(ctx))
	if err != nil {
		log.Err(err).Str("func", "httpDocumentClient.do").Str("op", op).Msg("request failed")
		return nil, fmt.Errorf("%w: %s request: %w", ErrRemoteTransient, op, err)
	}

	if err = mapHTTPError(resp); err != nil {
		log.Debug().
			Str("func", "httpDocumentClient.do").
			Str("op", op).
			Int("status", resp.StatusCode()).
			Msg("server returned an error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return resp, nil
}

func (h *httpDocumentClient) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetAuthToken(token)
	}
	return req
}

func decode[T any](resp *resty.Response, op string) (T, error) {
	var v T
	if err := json.Unmarshal(resp.Body(), &v); err != nil {
		return v, fmt.Errorf("%w: decode %s response: %w", ErrRemoteTransient, op, err)
	}
	return v, nil
}
