// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds every tunable of the command line tool.
type AppConfig struct {
	ReportingCurrency string   // currency all totals are expressed in
	Method            string   // default cost basis method: fifo or average
	DatabasePath      string   // sqlite file the store persists to
	LogLevel          string   // debug, info, warn or error
	CashBrokers       []string // sources whose accounts are fully cash-tracked
}

var Cfg *AppConfig

// Load reads the environment into Cfg. A missing .env file is not an error;
// OS environment variables and defaults apply.
func Load() {
	if err := godotenv.Load(); err == nil {
		log.Println(".env file loaded")
	}

	Cfg = &AppConfig{
		ReportingCurrency: getEnv("LOTLEDGER_CURRENCY", "EUR"),
		Method:            getEnv("LOTLEDGER_METHOD", "fifo"),
		DatabasePath:      getEnv("LOTLEDGER_DB_PATH", "lotledger.db"),
		LogLevel:          getEnv("LOTLEDGER_LOG_LEVEL", "info"),
		CashBrokers:       getEnvAsList("LOTLEDGER_CASH_BROKERS"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// getEnvAsList splits a comma-separated variable; empty means "use defaults".
func getEnvAsList(key string) []string {
	value := getEnv(key, "")
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
