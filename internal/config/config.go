// Package config reads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/service"
)

// Config holds the server's runtime settings.
type Config struct {
	// Addr is the listen address (ADDR, default ":8080").
	Addr string

	// DBPath is the SQLite database file (DB_PATH, default "./data/tally.db").
	DBPath string

	// LogLevel is the slog level name (LOG_LEVEL, default "info").
	LogLevel string

	// Rates is the static FX rate table parsed from FX_RATES, e.g.
	// "EUR/USD=1.10,GBP/USD=1.27" meaning one EUR is 1.10 USD.
	Rates service.StaticRates
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	rates, err := parseRates(os.Getenv("FX_RATES"))
	if err != nil {
		return Config{}, err
	}
	return Config{
		Addr:     getEnv("ADDR", ":8080"),
		DBPath:   getEnv("DB_PATH", "./data/tally.db"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Rates:    rates,
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseRates parses "EUR/USD=1.10,GBP/USD=1.27" into a rate table.
func parseRates(raw string) (service.StaticRates, error) {
	rates := service.StaticRates{}
	if raw == "" {
		return rates, nil
	}
	for _, entry := range strings.Split(raw, ",") {
		pair, value, ok := strings.Cut(strings.TrimSpace(entry), "=")
		if !ok {
			return nil, fmt.Errorf("bad FX_RATES entry %q: want PAIR=RATE", entry)
		}
		rate, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("bad FX_RATES rate %q: %w", value, err)
		}
		if rate.Sign() <= 0 {
			return nil, fmt.Errorf("bad FX_RATES rate %q: must be positive", value)
		}
		rates[pair] = rate
	}
	return rates, nil
}
