package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/crosslist/backend/internal/domain/listing"
	"github.com/crosslist/backend/internal/domain/marketplace"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 1 * 1024 * 1024 // 1MB max response

// RESTAdapter implements MarketplaceAdapter against a marketplace's listing
// API. All supported marketplaces speak the same internal gateway contract,
// so one adapter type parameterized by config covers every platform.
type RESTAdapter struct {
	config     *RESTConfig
	httpClient *http.Client
}

// NewRESTAdapter creates a new REST adapter with the given configuration
func NewRESTAdapter(config *RESTConfig) (*RESTAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &RESTAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// PlatformCode returns the platform code this adapter handles
func (a *RESTAdapter) PlatformCode() marketplace.PlatformCode {
	return a.config.Code
}

// ---------------------------------------------------------------------------
// Listing Operations
// ---------------------------------------------------------------------------

// publishRequest is the wire form of a listing creation call
type publishRequest struct {
	SKU      string `json:"sku"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

// publishResponse carries the marketplace-assigned listing id
type publishResponse struct {
	ListingID string `json:"listing_id"`
}

// Publish creates the listing on the marketplace and returns the remote id
func (a *RESTAdapter) Publish(ctx context.Context, l *listing.Listing) (string, error) {
	body := publishRequest{
		SKU:      l.PublicID.String(),
		Title:    l.Title,
		Price:    l.Price.StringFixed(2),
		Quantity: l.Quantity,
	}

	respBody, err := a.doRequest(ctx, http.MethodPost, "/v1/listings", body)
	if err != nil {
		return "", err
	}

	var resp publishResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", marketplace.ErrAdapterInvalidResponse, err)
	}
	if resp.ListingID == "" {
		return "", fmt.Errorf("%w: missing listing_id", marketplace.ErrAdapterInvalidResponse)
	}

	return resp.ListingID, nil
}

// statusUpdateRequest is the wire form of a status change call
type statusUpdateRequest struct {
	Status string `json:"status"`
}

// UpdateStatus pushes a status change for an existing remote listing
func (a *RESTAdapter) UpdateStatus(ctx context.Context, remoteID string, status marketplace.ListingStatus) error {
	if remoteID == "" {
		return marketplace.ErrMissingRemoteListingID
	}

	path := fmt.Sprintf("/v1/listings/%s/status", remoteID)
	_, err := a.doRequest(ctx, http.MethodPut, path, statusUpdateRequest{Status: status.String()})
	return err
}

// Delist removes the remote listing. A listing already gone on the
// marketplace side counts as success, so retries stay safe.
func (a *RESTAdapter) Delist(ctx context.Context, remoteID string) error {
	if remoteID == "" {
		return marketplace.ErrMissingRemoteListingID
	}

	path := fmt.Sprintf("/v1/listings/%s", remoteID)
	_, err := a.doRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		if errors.Is(err, marketplace.ErrRemoteListingNotFound) {
			return nil
		}
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doRequest performs an HTTP request against the marketplace API
func (a *RESTAdapter) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marketplace: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(bodyBytes)
	}

	url := a.config.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("marketplace: failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", marketplace.ErrAdapterUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("marketplace: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%w: %s %s", marketplace.ErrRemoteListingNotFound, a.config.Code, path)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", marketplace.ErrAdapterUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d", marketplace.ErrAdapterRequestFailed, resp.StatusCode)
	}

	return body, nil
}

// Ensure RESTAdapter implements MarketplaceAdapter interface
var _ marketplace.MarketplaceAdapter = (*RESTAdapter)(nil)
