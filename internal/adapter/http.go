package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/dishcraft/menusync/internal/config"
	"github.com/dishcraft/menusync/internal/logger"
	"github.com/dishcraft/menusync/models"
	"github.com/go-resty/resty/v2"
)

type httpRemoteGateway struct {
	client *resty.Client
	logger *logger.Logger
}

// NewHTTPRemoteGateway constructs an HTTP/REST implementation of
// [RemoteGateway]. It normalises and validates the base URL from
// cfg.ServerURL and configures the underlying client with the resolved base
// URL and request timeout. Retries are intentionally disabled on the client:
// the sync engine owns the retry policy.
//
// Returns an error if cfg.ServerURL is empty or cannot be parsed as a valid
// URL.
func NewHTTPRemoteGateway(cfg *config.ClientConfig, logger *logger.Logger) (RemoteGateway, error) {
	baseURL, err := normalizeBaseURL(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway base url: %w", err)
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.RequestTimeout)

	return &httpRemoteGateway{client: client, logger: logger}, nil
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

// UpsertItem implements [RemoteGateway]. It PUTs the full item state to
// PUT /api/items/{id}. Transport failures (including an elapsed timeout) are
// wrapped in [ErrNetwork]; non-2xx responses are mapped by mapHTTPError.
func (h *httpRemoteGateway) UpsertItem(ctx context.Context, item models.Item) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(item).
		SetPathParam("id", item.ID).
		Put("/api/items/{id}")
	if err != nil {
		return fmt.Errorf("%w: upsert request: %v", ErrNetwork, err)
	}

	return mapHTTPError(resp)
}

// DeleteItem implements [RemoteGateway]. It sends DELETE /api/items/{id}.
// A 404 response means the item is already gone remotely, which is exactly
// the state the caller wanted, so it is folded into success.
func (h *httpRemoteGateway) DeleteItem(ctx context.Context, id string) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Delete("/api/items/{id}")
	if err != nil {
		return fmt.Errorf("%w: delete request: %v", ErrNetwork, err)
	}

	if resp.StatusCode() == 404 {
		return nil
	}

	return mapHTTPError(resp)
}

// ListItems implements [RemoteGateway]. It GETs /api/items and decodes the
// response envelope.
func (h *httpRemoteGateway) ListItems(ctx context.Context) ([]models.Item, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		Get("/api/items")
	if err != nil {
		return nil, fmt.Errorf("%w: list request: %v", ErrNetwork, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var list models.ItemListResponse
	if err = json.Unmarshal(resp.Body(), &list); err != nil {
		return nil, fmt.Errorf("decode item list response: %w", err)
	}

	return list.Items, nil
}

// Health implements [RemoteGateway]. It GETs /api/health.
func (h *httpRemoteGateway) Health(ctx context.Context) error {
	resp, err := h.client.R().
		SetContext(ctx).
		Get("/api/health")
	if err != nil {
		return fmt.Errorf("%w: health request: %v", ErrNetwork, err)
	}

	return mapHTTPError(resp)
}
