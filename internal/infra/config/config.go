package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Storage drivers accepted in STORAGE_DRIVER.
const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageMemory   = "memory"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	StorageDriver         string
	DatabaseURL           string
	SQLitePath            string
	MembersFile           string
	LogLevel              string
	Environment           string
	TelegramToken         string // empty disables the staff bot
	StaffTelegramID       int64
	CronSpecOverdueReport string
	MetricsAddr           string // empty disables the metrics endpoint
	DefaultPurchaseBudget decimal.Decimal
	RecommendationTopN    int
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.StorageDriver = strings.ToLower(os.Getenv("STORAGE_DRIVER"))
	if cfg.StorageDriver == "" {
		cfg.StorageDriver = StorageSQLite
	}
	switch cfg.StorageDriver {
	case StoragePostgres:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
	case StorageSQLite, StorageMemory:
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q, expected postgres, sqlite or memory", cfg.StorageDriver)
	}

	cfg.SQLitePath = os.Getenv("SQLITE_PATH")
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = "./data/bicycle_rental.db"
	}

	cfg.MembersFile = os.Getenv("MEMBERS_FILE")
	if cfg.MembersFile == "" {
		cfg.MembersFile = "./data/members.txt"
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken != "" {
		staffIDStr := os.Getenv("STAFF_TELEGRAM_ID")
		if staffIDStr == "" {
			return nil, fmt.Errorf("STAFF_TELEGRAM_ID is not set")
		}
		cfg.StaffTelegramID, err = strconv.ParseInt(staffIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid STAFF_TELEGRAM_ID: %w", err)
		}
	}

	cfg.CronSpecOverdueReport = os.Getenv("CRON_SPEC_OVERDUE_REPORT")
	if cfg.CronSpecOverdueReport == "" {
		cfg.CronSpecOverdueReport = "0 9 * * *" // Default: 9 AM daily
	}

	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")
	if _, set := os.LookupEnv("METRICS_ADDR"); !set {
		cfg.MetricsAddr = ":9090"
	}

	cfg.DefaultPurchaseBudget = decimal.NewFromInt(5000)
	if budgetStr := os.Getenv("DEFAULT_PURCHASE_BUDGET"); budgetStr != "" {
		cfg.DefaultPurchaseBudget, err = decimal.NewFromString(budgetStr)
		if err != nil || cfg.DefaultPurchaseBudget.IsNegative() {
			return nil, fmt.Errorf("invalid DEFAULT_PURCHASE_BUDGET %q", budgetStr)
		}
	}

	cfg.RecommendationTopN = 10
	if topNStr := os.Getenv("RECOMMENDATION_TOP_N"); topNStr != "" {
		cfg.RecommendationTopN, err = strconv.Atoi(topNStr)
		if err != nil || cfg.RecommendationTopN < 1 {
			return nil, fmt.Errorf("invalid RECOMMENDATION_TOP_N %q", topNStr)
		}
	}

	return cfg, nil
}

// BotEnabled reports whether the staff bot should be started.
func (c *AppConfig) BotEnabled() bool { return c.TelegramToken != "" }
