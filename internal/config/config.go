package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Shopify     ShopifyConfig
	Variants    VariantsConfig
	Admin       AdminConfig
	LogLevel    string
	TokenEncKey string // TOKEN_ENC_KEY_B64: base64 32-byte key; empty means tokens stored in plaintext
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ShopifyConfig holds the app credentials used for the OAuth install flow
// and Admin API calls.
type ShopifyConfig struct {
	APIKey     string
	APISecret  string
	Scopes     string // comma-separated, e.g. "read_products,write_products"
	AppURL     string // public base URL of this app, used for the OAuth redirect
	APIVersion string
}

// VariantsConfig bounds variant slot usage per product. Defaults match the
// Shopify platform limit of 100 variants per product.
type VariantsConfig struct {
	MaxPerProduct      int  // hard platform ceiling
	CleanupThreshold   int  // evict when count reaches this
	CleanupBatchSize   int  // oldest variants removed per eviction pass
	RequireCustomPrice bool // reject requests without custom_price when true
}

type AdminConfig struct {
	APIKeyHash string // bcrypt hash of the admin API key; empty disables admin routes
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "customcheckout"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Shopify: ShopifyConfig{
			APIKey:     strings.TrimSpace(getEnvOrViper("SHOPIFY_API_KEY", "")),
			APISecret:  strings.TrimSpace(getEnvOrViper("SHOPIFY_API_SECRET", "")),
			Scopes:     strings.TrimSpace(getEnvOrViper("SHOPIFY_SCOPES", "read_products,write_products")),
			AppURL:     strings.TrimSuffix(strings.TrimSpace(getEnvOrViper("APP_URL", "")), "/"),
			APIVersion: getEnvOrViper("SHOPIFY_API_VERSION", "2023-07"),
		},
		Variants: VariantsConfig{
			MaxPerProduct:      getIntEnvOrViper("VARIANTS_MAX_PER_PRODUCT", 100),
			CleanupThreshold:   getIntEnvOrViper("VARIANTS_CLEANUP_THRESHOLD", 95),
			CleanupBatchSize:   getIntEnvOrViper("VARIANTS_CLEANUP_BATCH", 10),
			RequireCustomPrice: getBoolEnvOrViper("REQUIRE_CUSTOM_PRICE", false),
		},
		Admin: AdminConfig{
			APIKeyHash: strings.TrimSpace(getEnvOrViper("ADMIN_API_KEY_HASH", "")),
		},
		LogLevel:    getEnvOrViper("LOG_LEVEL", "info"),
		TokenEncKey: strings.TrimSpace(getEnvOrViper("TOKEN_ENC_KEY_B64", "")),
	}

	// Validate required fields
	if cfg.Shopify.APIKey == "" {
		return nil, fmt.Errorf("SHOPIFY_API_KEY is required")
	}
	if cfg.Shopify.APISecret == "" {
		return nil, fmt.Errorf("SHOPIFY_API_SECRET is required")
	}
	if cfg.Shopify.AppURL == "" {
		return nil, fmt.Errorf("APP_URL is required")
	}
	if cfg.Variants.CleanupThreshold > cfg.Variants.MaxPerProduct {
		return nil, fmt.Errorf("VARIANTS_CLEANUP_THRESHOLD cannot exceed VARIANTS_MAX_PER_PRODUCT")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func getIntEnvOrViper(key string, defaultValue int) int {
	raw := getEnvOrViper(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return n
}

func getBoolEnvOrViper(key string, defaultValue bool) bool {
	raw := getEnvOrViper(key, "")
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return b
}
