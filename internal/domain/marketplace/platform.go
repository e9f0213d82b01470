package marketplace

import "errors"

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// Platform errors
	ErrUnknownPlatform         = errors.New("marketplace: unknown platform")
	ErrPlatformNotConfigured   = errors.New("marketplace: platform not configured")
	ErrAdapterUnavailable      = errors.New("marketplace: platform temporarily unavailable")
	ErrAdapterRequestFailed    = errors.New("marketplace: platform request failed")
	ErrAdapterInvalidResponse  = errors.New("marketplace: invalid platform response")
	ErrRemoteListingNotFound   = errors.New("marketplace: remote listing not found")
	ErrMissingRemoteListingID  = errors.New("marketplace: platform listing has no remote id")
	ErrInvalidPlatformCode     = errors.New("marketplace: invalid platform code")
	ErrInvalidPlatformStatus   = errors.New("marketplace: invalid platform listing status")

	// Platform listing errors
	ErrPlatformListingNotFound = errors.New("marketplace: platform listing not found")
	ErrPlatformListingExists   = errors.New("marketplace: platform listing already exists")
	ErrAlreadySold             = errors.New("marketplace: platform listing already sold")
	ErrInvalidTransition       = errors.New("marketplace: invalid status transition")
)

// ---------------------------------------------------------------------------
// PlatformCode
// ---------------------------------------------------------------------------

// PlatformCode identifies one external marketplace.
type PlatformCode string

const (
	// PlatformCodeEbay represents eBay
	PlatformCodeEbay PlatformCode = "EBAY"
	// PlatformCodePoshmark represents Poshmark
	PlatformCodePoshmark PlatformCode = "POSHMARK"
	// PlatformCodeMercari represents Mercari
	PlatformCodeMercari PlatformCode = "MERCARI"
	// PlatformCodeDepop represents Depop
	PlatformCodeDepop PlatformCode = "DEPOP"
	// PlatformCodeFacebook represents Facebook Marketplace
	PlatformCodeFacebook PlatformCode = "FACEBOOK"
)

// AllPlatformCodes returns every supported platform, in stable order.
func AllPlatformCodes() []PlatformCode {
	return []PlatformCode{
		PlatformCodeEbay,
		PlatformCodePoshmark,
		PlatformCodeMercari,
		PlatformCodeDepop,
		PlatformCodeFacebook,
	}
}

// IsValid returns true if the platform code is valid
func (c PlatformCode) IsValid() bool {
	switch c {
	case PlatformCodeEbay, PlatformCodePoshmark, PlatformCodeMercari,
		PlatformCodeDepop, PlatformCodeFacebook:
		return true
	default:
		return false
	}
}

// String returns the string representation of PlatformCode
func (c PlatformCode) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the platform
func (c PlatformCode) DisplayName() string {
	switch c {
	case PlatformCodeEbay:
		return "eBay"
	case PlatformCodePoshmark:
		return "Poshmark"
	case PlatformCodeMercari:
		return "Mercari"
	case PlatformCodeDepop:
		return "Depop"
	case PlatformCodeFacebook:
		return "Facebook Marketplace"
	default:
		return string(c)
	}
}
