package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazarghor/payments-gobackend/internal/models"
)

func fullConfig() Config {
	return Config{
		APIBaseURL:    "https://api.example.com",
		OwnerID:       "owner-1",
		BusinessID:    "biz-1",
		SiteURL:       "https://shop.example.com",
		StoreID:       "teststore",
		StorePassword: "teststore@ssl",
		GatewayAPIURL: "https://sandbox.sslcommerz.com/gwprocess/v4/api.php",
	}
}

func TestValidateInitiationReportsEveryMissingKey(t *testing.T) {
	err := Config{}.ValidateInitiation()

	var configErr *models.ConfigurationError
	require.ErrorAs(t, err, &configErr)
	assert.ElementsMatch(t, []string{
		"NEXT_PUBLIC_API_BASE_URL",
		"NEXT_PUBLIC_OWNER_ID",
		"NEXT_PUBLIC_BUSINESS_ID",
		"NEXT_PUBLIC_SITE_URL",
		"SSLCOMMERZ_STORE_ID",
		"SSLCOMMERZ_STORE_PASSWORD",
		"SSLCOMMERZ_API_URL",
	}, configErr.Missing)
}

func TestValidateInitiationNamesOnlyTheAbsentKeys(t *testing.T) {
	cfg := fullConfig()
	cfg.StorePassword = ""
	cfg.GatewayAPIURL = ""

	err := cfg.ValidateInitiation()

	var configErr *models.ConfigurationError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, []string{"SSLCOMMERZ_API_URL", "SSLCOMMERZ_STORE_PASSWORD"}, configErr.Missing)
}

func TestValidateCallbackIgnoresGatewayCredentials(t *testing.T) {
	cfg := fullConfig()
	cfg.StoreID = ""
	cfg.StorePassword = ""
	cfg.GatewayAPIURL = ""

	assert.NoError(t, cfg.ValidateCallback())
}

func TestValidateCallbackRequiresSiteURL(t *testing.T) {
	cfg := fullConfig()
	cfg.SiteURL = ""

	err := cfg.ValidateCallback()

	var configErr *models.ConfigurationError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, []string{"NEXT_PUBLIC_SITE_URL"}, configErr.Missing)
}

func TestFullConfigValidates(t *testing.T) {
	assert.NoError(t, fullConfig().ValidateInitiation())
	assert.NoError(t, fullConfig().ValidateCallback())
}
