package config

import (
	"strings"
	"testing"
	"time"
)

type envTestConfig struct {
	Retries int           `env:"CLOUDSIM_TEST_RETRIES" envDefault:"3"`
	Timeout time.Duration `env:"CLOUDSIM_TEST_TIMEOUT" envDefault:"30s"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Retries != 3 {
		t.Fatalf("retries: want=3 got=%d", cfg.Retries)
	}
	if cfg.Timeout != 30*time.Second {
		t.Fatalf("timeout: want=30s got=%s", cfg.Timeout)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("CLOUDSIM_TEST_RETRIES", "many")
	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
