package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.MessageTTL != time.Second {
		t.Errorf("MessageTTL = %v want 1s", cfg.MessageTTL)
	}
	if cfg.StorageType != "none" {
		t.Errorf("StorageType = %q want none", cfg.StorageType)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.PredictorsFile != "" {
		t.Errorf("PredictorsFile = %q want empty", cfg.PredictorsFile)
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Errorf("TrustedProxies = %v want none", cfg.TrustedProxies)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", "127.0.0.1:9999")
	t.Setenv("MESSAGE_TTL_MS", "250")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9999" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.MessageTTL != 250*time.Millisecond {
		t.Errorf("MessageTTL = %v", cfg.MessageTTL)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
}

func TestLoadSplitsTrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", " 127.0.0.1, 10.0.0.0/8,,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[0] != "127.0.0.1" || cfg.TrustedProxies[1] != "10.0.0.0/8" {
		t.Errorf("TrustedProxies = %v", cfg.TrustedProxies)
	}
}

func TestLoadRejectsNonPositiveDurations(t *testing.T) {
	t.Setenv("MESSAGE_TTL_MS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero message_ttl_ms")
	}
}
