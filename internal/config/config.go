package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration. Everything is injected through the
// environment; in particular the JWT signing secret is never hardcoded.
type Config struct {
	HTTPAddr    string
	PostgresURL string

	// Kafka cluster (comma separated brokers). Empty brokers disable event
	// publishing, matching a local setup without kafka.
	KafkaBrokers  []string
	ConsumerGroup string

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// Load reads and validates configuration, applying defaults where a value is
// optional.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		PostgresURL:   os.Getenv("POSTGRES_URL"),
		KafkaBrokers:  splitCSV(os.Getenv("KAFKA_BROKERS")),
		ConsumerGroup: getEnv("KAFKA_GROUP_ID", "gamestore-notifier"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenTTL:      30 * time.Minute,
		BcryptCost:    10,
	}

	if cfg.PostgresURL == "" {
		return Config{}, fmt.Errorf("POSTGRES_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	ttlMin, err := getEnvInt("TOKEN_TTL_MINUTES", int(cfg.TokenTTL.Minutes()))
	if err != nil {
		return Config{}, fmt.Errorf("invalid TOKEN_TTL_MINUTES: %w", err)
	}
	if ttlMin <= 0 {
		return Config{}, fmt.Errorf("TOKEN_TTL_MINUTES must be > 0")
	}
	cfg.TokenTTL = time.Duration(ttlMin) * time.Minute

	cost, err := getEnvInt("BCRYPT_COST", cfg.BcryptCost)
	if err != nil {
		return Config{}, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}
	if cost < 4 || cost > 31 {
		return Config{}, fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}
	cfg.BcryptCost = cost

	return cfg, nil
}

func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
