// Package server wires the directory's components together and exposes
// the HTTP transport.
package server

import (
	"fmt"
	"os"
	"strconv"
)

// Config is loaded once at startup from the process environment.
type Config struct {
	Port int

	ServerDomain string
	StoreURL     string // Redis connection URL for the ephemeral store
	DatabaseURL  string // Postgres DSN for the identity document store

	RoutesTTLSeconds  int
	InactiveDomainDays int
	DomainLogPath     string
	CleanupCronSchedule string

	CACertPath        string
	CAKeyPath         string
	CertValidityHours int

	ServiceAPIKey string
	JWTSigningKey string

	LogLevel string
}

// LoadConfig reads Config from the process environment, applying its defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:                8192,
		ServerDomain:        os.Getenv("SERVER_DOMAIN"),
		StoreURL:            os.Getenv("STORE_URL"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RoutesTTLSeconds:    600,
		InactiveDomainDays:  30,
		DomainLogPath:       "logs/domain-events.log",
		CleanupCronSchedule: "0 3 * * *",
		CACertPath:          envOrDefault("CA_CERT_PATH", "ca-cert.pem"),
		CAKeyPath:           envOrDefault("CA_KEY_PATH", "ca-key.pem"),
		CertValidityHours:   72,
		ServiceAPIKey:       os.Getenv("SERVICE_API_KEY"),
		JWTSigningKey:       os.Getenv("JWT_SIGNING_KEY"),
		LogLevel:            envOrDefault("LOG_LEVEL", "info"),
	}

	if cfg.ServerDomain == "" {
		return nil, fmt.Errorf("SERVER_DOMAIN is required")
	}
	if cfg.StoreURL == "" {
		return nil, fmt.Errorf("STORE_URL is required")
	}

	if v := os.Getenv("ROUTES_TTL_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("ROUTES_TTL_SECONDS must be a positive integer, got %q", v)
		}
		cfg.RoutesTTLSeconds = n
	}
	if v := os.Getenv("INACTIVE_DOMAIN_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("INACTIVE_DOMAIN_DAYS must be a positive integer, got %q", v)
		}
		cfg.InactiveDomainDays = n
	}
	if v := os.Getenv("DOMAIN_LOG_PATH"); v != "" {
		cfg.DomainLogPath = v
	}
	if v := os.Getenv("CLEANUP_CRON_SCHEDULE"); v != "" {
		cfg.CleanupCronSchedule = v
	}
	if v := os.Getenv("CERT_VALIDITY_HOURS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("CERT_VALIDITY_HOURS must be a positive integer, got %q", v)
		}
		cfg.CertValidityHours = n
	}
	if v := os.Getenv("PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n > 0 {
			cfg.Port = n
		}
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
