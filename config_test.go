package mfagate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mfagate/mfagate/credstore"
)

func TestConfigValidateDefaults(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad scrypt N", func(c *Config) { c.Password.N = 1000 }},
		{"digits too small", func(c *Config) { c.TOTP.Digits = 4 }},
		{"digits too large", func(c *Config) { c.TOTP.Digits = 12 }},
		{"zero period", func(c *Config) { c.TOTP.Period = 0 }},
		{"negative skew", func(c *Config) { c.TOTP.Skew = -1 }},
		{"short totp secret", func(c *Config) { c.TOTP.SecretLength = 8 }},
		{"unknown algorithm", func(c *Config) { c.TOTP.Algorithm = "MD5" }},
		{"zero compare timeout", func(c *Config) { c.Face.CompareTimeout = 0 }},
		{"tokens without ttl", func(c *Config) {
			c.SessionToken.Enabled = true
			c.SessionToken.SigningMethod = "hs256"
		}},
		{"tokens bad method", func(c *Config) {
			c.SessionToken.Enabled = true
			c.SessionToken.TTL = time.Hour
			c.SessionToken.SigningMethod = "rs512"
		}},
		{"audit zero buffer", func(c *Config) { c.Audit.BufferSize = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestBuilderRequiresStore(t *testing.T) {
	_, err := New().WithConfig(engineTestConfig()).Build()
	if err == nil {
		t.Fatal("expected build to fail without a store")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithConfig(engineTestConfig()).WithStore(credstore.NewMemoryStore())
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestBuilderClonesKeyMaterial(t *testing.T) {
	cfg := engineTestConfig()
	secret := []byte("0123456789abcdef0123456789abcdef")
	cfg.SessionToken = SessionTokenConfig{
		Enabled:       true,
		TTL:           time.Hour,
		SigningMethod: "hs256",
		PrivateKey:    secret,
	}

	engine, err := New().
		WithConfig(cfg).
		WithStore(credstore.NewMemoryStore()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	// Zeroing the caller's slice must not break the engine.
	for i := range secret {
		secret[i] = 0
	}

	acct, err := engine.CreateAccount(context.Background(), "alice", "pw-one-two")
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	token, err := engine.IssueSessionToken(acct)
	if err != nil {
		t.Fatalf("IssueSessionToken failed: %v", err)
	}
	if _, err := engine.ParseSessionToken(token); err != nil {
		t.Fatalf("ParseSessionToken failed: %v", err)
	}
}

func TestNilEngineReturnsNotReady(t *testing.T) {
	var engine *Engine

	if _, err := engine.Authenticate(context.Background(), LoginAttempt{}); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if _, err := engine.CreateAccount(context.Background(), "a", "b"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if _, err := engine.BeginTOTPEnrollment(context.Background(), 1); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}
