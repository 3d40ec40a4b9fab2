package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config holds application configuration.
type Config struct {
	Port          string
	IsProduction  bool
	StorageDriver string
	DatabaseURL   string
	EnableDBCheck bool
	RedisURL      string

	BusinessRulesPath string

	// Reconciliation
	ReconcileFetchTimeout time.Duration
	ReconcileInterval     time.Duration
	ReconcileChannels     []string
	SupplierFeedURL       string
	ChannelFeedURL        string
	DeductionFeedURL      string
	InvoiceFeedURL        string

	// HTTP
	RateLimit          string
	CORSAllowedOrigins []string
	BatchConcurrency   int
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("STORAGE_DRIVER", StorageMemory)
	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("BUSINESS_RULES_PATH", "config/business_rules.yaml")
	viper.SetDefault("RECONCILE_FETCH_TIMEOUT", "10s")
	viper.SetDefault("RECONCILE_INTERVAL", "1h")
	viper.SetDefault("RECONCILE_CHANNELS", "alipay,wechat,card")
	viper.SetDefault("SUPPLIER_FEED_URL", "")
	viper.SetDefault("CHANNEL_FEED_URL", "")
	viper.SetDefault("DEDUCTION_FEED_URL", "")
	viper.SetDefault("INVOICE_FEED_URL", "")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("BATCH_CONCURRENCY", 4)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.StorageDriver = strings.ToLower(viper.GetString("STORAGE_DRIVER"))
	switch cfg.StorageDriver {
	case StorageMemory, StoragePostgres:
	default:
		log.Printf("Warning: unknown STORAGE_DRIVER ('%s'). Defaulting to %s.\n", cfg.StorageDriver, StorageMemory)
		cfg.StorageDriver = StorageMemory
	}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.StorageDriver == StoragePostgres && cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.RedisURL = viper.GetString("REDIS_URL")
	cfg.BusinessRulesPath = viper.GetString("BUSINESS_RULES_PATH")

	cfg.ReconcileFetchTimeout = durationOrDefault("RECONCILE_FETCH_TIMEOUT", 10*time.Second)
	cfg.ReconcileInterval = durationOrDefault("RECONCILE_INTERVAL", time.Hour)
	cfg.ReconcileChannels = splitList(viper.GetString("RECONCILE_CHANNELS"))
	cfg.SupplierFeedURL = viper.GetString("SUPPLIER_FEED_URL")
	cfg.ChannelFeedURL = viper.GetString("CHANNEL_FEED_URL")
	cfg.DeductionFeedURL = viper.GetString("DEDUCTION_FEED_URL")
	cfg.InvoiceFeedURL = viper.GetString("INVOICE_FEED_URL")

	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	cfg.CORSAllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.BatchConcurrency = viper.GetInt("BATCH_CONCURRENCY")
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 4
		log.Printf("Warning: BATCH_CONCURRENCY must be positive. Defaulting to %d.\n", cfg.BatchConcurrency)
	}

	return cfg, nil
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def.String())
		}
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
