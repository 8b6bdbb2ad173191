package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("fails without POSTGRES_URL", func(t *testing.T) {
		t.Setenv("POSTGRES_URL", "")
		t.Setenv("JWT_SECRET", "s3cret")

		if _, err := Load(); err == nil {
			t.Fatal("expected error for missing POSTGRES_URL")
		}
	})

	t.Run("fails without JWT_SECRET", func(t *testing.T) {
		t.Setenv("POSTGRES_URL", "postgres://localhost/gamestore")
		t.Setenv("JWT_SECRET", "")

		if _, err := Load(); err == nil {
			t.Fatal("expected error for missing JWT_SECRET")
		}
	})

	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("POSTGRES_URL", "postgres://localhost/gamestore")
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("KAFKA_BROKERS", "")
		t.Setenv("TOKEN_TTL_MINUTES", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.HTTPAddr != ":8080" {
			t.Errorf("expected default addr :8080, got %s", cfg.HTTPAddr)
		}
		if cfg.TokenTTL != 30*time.Minute {
			t.Errorf("expected 30m token TTL, got %s", cfg.TokenTTL)
		}
		if len(cfg.KafkaBrokers) != 0 {
			t.Errorf("expected no brokers, got %v", cfg.KafkaBrokers)
		}
	})

	t.Run("parses broker list", func(t *testing.T) {
		t.Setenv("POSTGRES_URL", "postgres://localhost/gamestore")
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
			t.Errorf("unexpected brokers: %v", cfg.KafkaBrokers)
		}
	})

	t.Run("rejects non-positive token TTL", func(t *testing.T) {
		t.Setenv("POSTGRES_URL", "postgres://localhost/gamestore")
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("TOKEN_TTL_MINUTES", "0")

		if _, err := Load(); err == nil {
			t.Fatal("expected error for zero TTL")
		}
	})

	t.Run("rejects out-of-range bcrypt cost", func(t *testing.T) {
		t.Setenv("POSTGRES_URL", "postgres://localhost/gamestore")
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("BCRYPT_COST", "40")

		if _, err := Load(); err == nil {
			t.Fatal("expected error for bcrypt cost 40")
		}
	})
}
