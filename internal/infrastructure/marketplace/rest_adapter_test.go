package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslist/backend/internal/domain/listing"
	"github.com/crosslist/backend/internal/domain/marketplace"
)

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestRESTConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *RESTConfig
		wantErr error
	}{
		{
			name: "valid config",
			config: &RESTConfig{
				Code:    marketplace.PlatformCodeEbay,
				BaseURL: "https://gateway.example.com/ebay",
				APIKey:  "test_api_key",
			},
			wantErr: nil,
		},
		{
			name: "invalid platform code",
			config: &RESTConfig{
				Code:    marketplace.PlatformCode("CRAIGSLIST"),
				BaseURL: "https://gateway.example.com",
				APIKey:  "test_api_key",
			},
			wantErr: ErrConfigInvalidCode,
		},
		{
			name: "missing base URL",
			config: &RESTConfig{
				Code:   marketplace.PlatformCodeEbay,
				APIKey: "test_api_key",
			},
			wantErr: ErrConfigMissingURL,
		},
		{
			name: "missing API key",
			config: &RESTConfig{
				Code:    marketplace.PlatformCodeEbay,
				BaseURL: "https://gateway.example.com",
			},
			wantErr: ErrConfigMissingAPIKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, DefaultAdapterTimeout, tt.config.Timeout)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Adapter Tests
// ---------------------------------------------------------------------------

func newTestAdapter(t *testing.T, handler http.HandlerFunc) (*RESTAdapter, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewRESTAdapter(&RESTConfig{
		Code:    marketplace.PlatformCodeEbay,
		BaseURL: server.URL,
		APIKey:  "test_api_key",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return adapter, server
}

func newTestListing(t *testing.T) *listing.Listing {
	t.Helper()
	l, err := listing.NewListing("Vintage Denim Jacket", decimal.NewFromFloat(45.50), 1, time.Now().UTC())
	require.NoError(t, err)
	return l
}

func TestRESTAdapter_Publish(t *testing.T) {
	t.Run("creates listing and returns remote id", func(t *testing.T) {
		var gotPath, gotAuth string
		var gotBody publishRequest
		adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.Method + " " + r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(publishResponse{ListingID: "ebay-123"})
		})

		remoteID, err := adapter.Publish(context.Background(), newTestListing(t))

		require.NoError(t, err)
		assert.Equal(t, "ebay-123", remoteID)
		assert.Equal(t, "POST /v1/listings", gotPath)
		assert.Equal(t, "Bearer test_api_key", gotAuth)
		assert.Equal(t, "Vintage Denim Jacket", gotBody.Title)
		assert.Equal(t, "45.50", gotBody.Price)
		assert.Equal(t, 1, gotBody.Quantity)
		assert.NotEmpty(t, gotBody.SKU)
	})

	t.Run("server error maps to unavailable", func(t *testing.T) {
		adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := adapter.Publish(context.Background(), newTestListing(t))
		assert.ErrorIs(t, err, marketplace.ErrAdapterUnavailable)
	})

	t.Run("client error maps to request failed", func(t *testing.T) {
		adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		})

		_, err := adapter.Publish(context.Background(), newTestListing(t))
		assert.ErrorIs(t, err, marketplace.ErrAdapterRequestFailed)
	})

	t.Run("malformed body maps to invalid response", func(t *testing.T) {
		adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		})

		_, err := adapter.Publish(context.Background(), newTestListing(t))
		assert.ErrorIs(t, err, marketplace.ErrAdapterInvalidResponse)
	})

	t.Run("missing listing id maps to invalid response", func(t *testing.T) {
		adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		})

		_, err := adapter.Publish(context.Background(), newTestListing(t))
		assert.ErrorIs(t, err, marketplace.ErrAdapterInvalidResponse)
	})

	t.Run("unreachable server maps to unavailable", func(t *testing.T) {
		adapter, server := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {})
		server.Close()

		_, err := adapter.Publish(context.Background(), newTestListing(t))
		assert.ErrorIs(t, err, marketplace.ErrAdapterUnavailable)
	})
}

func TestRESTAdapter_UpdateStatus(t *testing.T) {
	t.Run("pushes status change", func(t *testing.T) {
		var gotPath string
		var gotBody statusUpdateRequest
		adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.Method + " " + r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusOK)
		})

		err := adapter.UpdateStatus(context.Background(), "ebay-123", marketplace.ListingStatusCanceled)

		require.NoError(t, err)
		assert.Equal(t, "PUT /v1/listings/ebay-123/status", gotPath)
		assert.Equal(t, "canceled", gotBody.Status)
	})

	t.Run("rejects empty remote id", func(t *testing.T) {
		adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})

		err := adapter.UpdateStatus(context.Background(), "", marketplace.ListingStatusCanceled)
		assert.ErrorIs(t, err, marketplace.ErrMissingRemoteListingID)
	})

	t.Run("missing remote listing surfaces not found", func(t *testing.T) {
		adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		err := adapter.UpdateStatus(context.Background(), "gone", marketplace.ListingStatusCanceled)
		assert.ErrorIs(t, err, marketplace.ErrRemoteListingNotFound)
	})
}

func TestRESTAdapter_Delist(t *testing.T) {
	t.Run("removes remote listing", func(t *testing.T) {
		var gotPath string
		adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.Method + " " + r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		})

		err := adapter.Delist(context.Background(), "ebay-123")

		require.NoError(t, err)
		assert.Equal(t, "DELETE /v1/listings/ebay-123", gotPath)
	})

	t.Run("already gone counts as success", func(t *testing.T) {
		adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusGone)
		})

		err := adapter.Delist(context.Background(), "ebay-123")
		assert.NoError(t, err)
	})

	t.Run("server error surfaces", func(t *testing.T) {
		adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		err := adapter.Delist(context.Background(), "ebay-123")
		assert.ErrorIs(t, err, marketplace.ErrAdapterUnavailable)
	})

	t.Run("rejects empty remote id", func(t *testing.T) {
		adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})

		err := adapter.Delist(context.Background(), "")
		assert.ErrorIs(t, err, marketplace.ErrMissingRemoteListingID)
	})
}
