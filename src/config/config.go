package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port         string
	DatabasePath string
	LogLevel     string

	// Tax rules. TaxFreeLimit is the annual non-exempt proceeds threshold in
	// CZK; ExemptionYears is the holding period after which a lot's gains are
	// unconditionally exempt.
	TaxFreeLimit   float64
	ExemptionYears int

	// Input validation bounds.
	MaxStockNameLength int
	MaxPrice           float64
	MaxQuantity        int
	MaxFees            float64

	PriceFetchTimeout time.Duration
}

var Cfg *AppConfig

func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", err)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./akciefolio.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		TaxFreeLimit:   getEnvAsFloat("TAX_FREE_LIMIT", 100000),
		ExemptionYears: getEnvAsInt("EXEMPTION_YEARS", 3),

		MaxStockNameLength: getEnvAsInt("MAX_STOCK_NAME_LENGTH", 100),
		MaxPrice:           getEnvAsFloat("MAX_PRICE", 10000000),
		MaxQuantity:        getEnvAsInt("MAX_QUANTITY", 1000000),
		MaxFees:            getEnvAsFloat("MAX_FEES", 1000000),

		PriceFetchTimeout: getEnvAsDuration("PRICE_FETCH_TIMEOUT", 20*time.Second),
	}

	if Cfg.TaxFreeLimit <= 0 {
		log.Fatalf("FATAL: TAX_FREE_LIMIT must be positive, got %f", Cfg.TaxFreeLimit)
	}
	if Cfg.ExemptionYears <= 0 {
		log.Fatalf("FATAL: EXEMPTION_YEARS must be positive, got %d", Cfg.ExemptionYears)
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, TaxFreeLimit=%.0f, ExemptionYears=%d",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.TaxFreeLimit, Cfg.ExemptionYears)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid numeric value for %s ('%s'), using default: %f", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
