package config

import "testing"

type mapEnv map[string]string

func (m mapEnv) Getenv(key string) string { return m[key] }

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadConfigFromEnv(mapEnv{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Port != 3456 {
		t.Fatalf("expected default port 3456, got %d", cfg.Port)
	}
	if cfg.MaxLoginAttempts != 5 {
		t.Fatalf("expected default MaxLoginAttempts 5, got %d", cfg.MaxLoginAttempts)
	}
	if cfg.LockoutMinutes != 15 {
		t.Fatalf("expected default LockoutMinutes 15, got %d", cfg.LockoutMinutes)
	}
}

func TestLoadConfigFromEnv_PortOverride(t *testing.T) {
	cfg, err := LoadConfigFromEnv(mapEnv{"PORT": "1234"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Port != 1234 {
		t.Fatalf("expected port 1234, got %d", cfg.Port)
	}
}

func TestLoadConfigFromEnv_InvalidPort(t *testing.T) {
	_, err := LoadConfigFromEnv(mapEnv{"PORT": "not-a-number"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadConfigFromEnv_LoginAttemptsOverride(t *testing.T) {
	cfg, err := LoadConfigFromEnv(mapEnv{"MAX_LOGIN_ATTEMPTS": "3", "LOCKOUT_MINUTES": "30"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.MaxLoginAttempts != 3 || cfg.LockoutMinutes != 30 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}
