package marketplace

import (
	"fmt"

	"github.com/crosslist/backend/internal/domain/marketplace"
	"github.com/crosslist/backend/internal/infrastructure/config"
)

// Registry is a static adapter registry keyed by platform code.
type Registry struct {
	adapters map[marketplace.PlatformCode]marketplace.MarketplaceAdapter
}

// NewRegistry creates a registry holding the given adapters
func NewRegistry(adapters ...marketplace.MarketplaceAdapter) *Registry {
	r := &Registry{
		adapters: make(map[marketplace.PlatformCode]marketplace.MarketplaceAdapter, len(adapters)),
	}
	for _, a := range adapters {
		r.adapters[a.PlatformCode()] = a
	}
	return r
}

// NewRegistryFromConfig builds a REST adapter per configured marketplace.
// Unknown codes in the config are rejected rather than silently skipped.
func NewRegistryFromConfig(marketplaces map[string]config.MarketplaceConfig) (*Registry, error) {
	r := NewRegistry()
	for code, mc := range marketplaces {
		platformCode := marketplace.PlatformCode(code)
		if !platformCode.IsValid() {
			return nil, fmt.Errorf("%w: %s", marketplace.ErrInvalidPlatformCode, code)
		}
		adapter, err := NewRESTAdapter(&RESTConfig{
			Code:    platformCode,
			BaseURL: mc.BaseURL,
			APIKey:  mc.APIKey,
			Timeout: mc.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("marketplace: building %s adapter: %w", code, err)
		}
		r.adapters[platformCode] = adapter
	}
	return r, nil
}

// Get returns the adapter for the code, or ErrUnknownPlatform
func (r *Registry) Get(code marketplace.PlatformCode) (marketplace.MarketplaceAdapter, error) {
	adapter, ok := r.adapters[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", marketplace.ErrUnknownPlatform, code)
	}
	return adapter, nil
}

// List returns all registered adapters in stable platform order
func (r *Registry) List() []marketplace.MarketplaceAdapter {
	out := make([]marketplace.MarketplaceAdapter, 0, len(r.adapters))
	for _, code := range marketplace.AllPlatformCodes() {
		if adapter, ok := r.adapters[code]; ok {
			out = append(out, adapter)
		}
	}
	return out
}

// Ensure Registry implements AdapterRegistry interface
var _ marketplace.AdapterRegistry = (*Registry)(nil)
