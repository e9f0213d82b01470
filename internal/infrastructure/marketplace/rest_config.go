package marketplace

import (
	"errors"
	"time"

	"github.com/crosslist/backend/internal/domain/marketplace"
)

// RESTConfig holds configuration for one marketplace REST adapter
type RESTConfig struct {
	// Code identifies the marketplace this adapter talks to
	Code marketplace.PlatformCode
	// BaseURL is the base URL of the marketplace API
	BaseURL string
	// APIKey is the bearer token for API authorization
	APIKey string
	// Timeout is the HTTP client timeout
	Timeout time.Duration
}

// DefaultAdapterTimeout bounds marketplace HTTP calls when no timeout is configured
const DefaultAdapterTimeout = 10 * time.Second

// Errors for REST adapter configuration
var (
	ErrConfigInvalidCode   = errors.New("marketplace: adapter config has invalid platform code")
	ErrConfigMissingURL    = errors.New("marketplace: adapter config base URL is required")
	ErrConfigMissingAPIKey = errors.New("marketplace: adapter config API key is required")
)

// Validate validates the adapter configuration and fills defaults
func (c *RESTConfig) Validate() error {
	if !c.Code.IsValid() {
		return ErrConfigInvalidCode
	}
	if c.BaseURL == "" {
		return ErrConfigMissingURL
	}
	if c.APIKey == "" {
		return ErrConfigMissingAPIKey
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultAdapterTimeout
	}
	return nil
}
