package config

import (
	"os"
	"sort"

	"github.com/bazarghor/payments-gobackend/internal/models"
)

// Config is the full set of environment-derived settings used by the
// payment handlers. It is read once at startup; handlers never reach into
// the environment themselves.
type Config struct {
	APIBaseURL string // NEXT_PUBLIC_API_BASE_URL
	OwnerID    string // NEXT_PUBLIC_OWNER_ID
	BusinessID string // NEXT_PUBLIC_BUSINESS_ID
	SiteURL    string // NEXT_PUBLIC_SITE_URL

	StoreID       string // SSLCOMMERZ_STORE_ID
	StorePassword string // SSLCOMMERZ_STORE_PASSWORD
	GatewayAPIURL string // SSLCOMMERZ_API_URL

	AnalyticsURL string // ANALYTICS_URL, optional
}

// FallbackSiteURL is used for the backstop failure redirect when even the
// configured site URL is unavailable.
const FallbackSiteURL = "http://localhost:3000"

// Load reads the configuration from the process environment.
func Load() Config {
	return Config{
		APIBaseURL:    os.Getenv("NEXT_PUBLIC_API_BASE_URL"),
		OwnerID:       os.Getenv("NEXT_PUBLIC_OWNER_ID"),
		BusinessID:    os.Getenv("NEXT_PUBLIC_BUSINESS_ID"),
		SiteURL:       os.Getenv("NEXT_PUBLIC_SITE_URL"),
		StoreID:       os.Getenv("SSLCOMMERZ_STORE_ID"),
		StorePassword: os.Getenv("SSLCOMMERZ_STORE_PASSWORD"),
		GatewayAPIURL: os.Getenv("SSLCOMMERZ_API_URL"),
		AnalyticsURL:  os.Getenv("ANALYTICS_URL"),
	}
}

// ValidateCallback checks the settings every callback handler depends on.
// All missing keys are reported together.
func (c Config) ValidateCallback() error {
	missing := requireAll(map[string]string{
		"NEXT_PUBLIC_API_BASE_URL": c.APIBaseURL,
		"NEXT_PUBLIC_OWNER_ID":     c.OwnerID,
		"NEXT_PUBLIC_BUSINESS_ID":  c.BusinessID,
		"NEXT_PUBLIC_SITE_URL":     c.SiteURL,
	})
	if len(missing) > 0 {
		return &models.ConfigurationError{Missing: missing}
	}
	return nil
}

// ValidateInitiation checks everything ValidateCallback does plus the
// gateway credentials the initiation handler needs.
func (c Config) ValidateInitiation() error {
	missing := requireAll(map[string]string{
		"NEXT_PUBLIC_API_BASE_URL":  c.APIBaseURL,
		"NEXT_PUBLIC_OWNER_ID":      c.OwnerID,
		"NEXT_PUBLIC_BUSINESS_ID":   c.BusinessID,
		"NEXT_PUBLIC_SITE_URL":      c.SiteURL,
		"SSLCOMMERZ_STORE_ID":       c.StoreID,
		"SSLCOMMERZ_STORE_PASSWORD": c.StorePassword,
		"SSLCOMMERZ_API_URL":        c.GatewayAPIURL,
	})
	if len(missing) > 0 {
		return &models.ConfigurationError{Missing: missing}
	}
	return nil
}

func requireAll(keys map[string]string) []string {
	var missing []string
	for key, value := range keys {
		if value == "" {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}
