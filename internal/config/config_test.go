package config

import (
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTPPort != "8081" {
		t.Fatalf("HTTPPort = %q, want 8081", cfg.HTTPPort)
	}
	if cfg.SessionTTL != 10*time.Minute {
		t.Fatalf("SessionTTL = %s, want 10m", cfg.SessionTTL)
	}
	if !cfg.TrustAllSignals {
		t.Fatal("TrustAllSignals should default to true")
	}
	if cfg.TotalStudents != 30 {
		t.Fatalf("TotalStudents = %d, want 30", cfg.TotalStudents)
	}
	if cfg.ClassroomID != 1 {
		t.Fatalf("ClassroomID = %d, want 1", cfg.ClassroomID)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("CORSOrigins = %v, want [*]", cfg.CORSOrigins)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("SESSION_TTL", "90s")
	t.Setenv("TRUST_ALL_SIGNALS", "false")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.SessionTTL != 90*time.Second {
		t.Fatalf("SessionTTL = %s", cfg.SessionTTL)
	}
	if cfg.TrustAllSignals {
		t.Fatal("TrustAllSignals should be false")
	}
	if cfg.StoreBackend != "memory" {
		t.Fatalf("StoreBackend = %q", cfg.StoreBackend)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "store backend", key: "STORE_BACKEND", val: "mongo"},
		{name: "queue backend", key: "QUEUE_BACKEND", val: "kafka"},
		{name: "face store", key: "FACE_STORE", val: "s3"},
		{name: "session ttl", key: "SESSION_TTL", val: "-1m"},
		{name: "bad duration", key: "ACCESS_TTL", val: "soon"},
		{name: "zero rate limit", key: "RATE_LIMIT_PER_MIN", val: "0"},
		{name: "negative rate limit", key: "RATE_LIMIT_PER_MIN", val: "-5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Parse(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestProduction(t *testing.T) {
	for env, want := range map[string]bool{"production": true, "prod": true, "dev": false} {
		if got := (App{Env: env}).Production(); got != want {
			t.Fatalf("Production(%q) = %v, want %v", env, got, want)
		}
	}
}
