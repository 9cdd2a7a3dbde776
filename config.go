package mfagate

import (
	"fmt"
	"time"

	"github.com/mfagate/mfagate/face"
	"github.com/mfagate/mfagate/jwt"
	"github.com/mfagate/mfagate/password"
)

// Config is the top-level engine configuration.
//
// Config instances are intended to be set during initialization and then
// treated as immutable. Builder.Build deep-copies key material, so the
// caller's slices can be zeroed afterwards.
type Config struct {
	Password     password.Config
	TOTP         TOTPConfig
	Face         FaceConfig
	SessionToken SessionTokenConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

// TOTPConfig tunes secret provisioning and code verification.
type TOTPConfig struct {
	// Issuer is embedded in provisioning URIs.
	Issuer string
	// Digits is the code length. Authenticator apps expect 6.
	Digits int
	// Period is the time step in seconds.
	Period int
	// Skew is how many adjacent time steps are accepted on each side.
	Skew int
	// SecretLength is the provisioned secret size in bytes.
	SecretLength int
	// Algorithm is the HOTP hash: SHA1, SHA256 or SHA512.
	Algorithm string
}

// FaceConfig tunes the face verification factor.
type FaceConfig struct {
	// Compare carries the PixelComparer parameters, used when no custom
	// Comparer is wired.
	Compare face.Config
	// CompareTimeout bounds a single comparison, including any external
	// recognizer call.
	CompareTimeout time.Duration
}

// SessionTokenConfig enables signed session tokens for authenticated
// accounts. When Enabled is false, IssueSessionToken returns
// ErrSessionTokensDisabled and no key material is required.
type SessionTokenConfig struct {
	Enabled       bool
	TTL           time.Duration
	SigningMethod string
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
}

// AuditConfig tunes the async audit pipeline.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking the caller when the
	// buffer is full.
	DropIfFull bool
}

// MetricsConfig tunes in-process counters.
type MetricsConfig struct {
	Enabled bool
	// EnableLatencyHistograms additionally records Authenticate latency.
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Password: password.DefaultConfig(),
		TOTP: TOTPConfig{
			Issuer:       "mfagate",
			Digits:       6,
			Period:       30,
			Skew:         1,
			SecretLength: 20,
			Algorithm:    "SHA1",
		},
		Face: FaceConfig{
			Compare:        face.DefaultConfig(),
			CompareTimeout: 5 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if err := c.Password.Validate(); err != nil {
		return err
	}
	if c.TOTP.Digits < 6 || c.TOTP.Digits > 10 {
		return fmt.Errorf("%w: totp digits must be between 6 and 10", ErrMalformedInput)
	}
	if c.TOTP.Period <= 0 {
		return fmt.Errorf("%w: totp period must be positive", ErrMalformedInput)
	}
	if c.TOTP.Skew < 0 {
		return fmt.Errorf("%w: totp skew must not be negative", ErrMalformedInput)
	}
	if c.TOTP.SecretLength < 16 {
		return fmt.Errorf("%w: totp secret length must be at least 16 bytes", ErrMalformedInput)
	}
	switch c.TOTP.Algorithm {
	case "SHA1", "SHA256", "SHA512":
	default:
		return fmt.Errorf("%w: unknown totp algorithm %q", ErrMalformedInput, c.TOTP.Algorithm)
	}
	if c.Face.CompareTimeout <= 0 {
		return fmt.Errorf("%w: face compare timeout must be positive", ErrMalformedInput)
	}
	if c.SessionToken.Enabled {
		if c.SessionToken.TTL <= 0 {
			return fmt.Errorf("%w: session token TTL must be positive", ErrMalformedInput)
		}
		switch jwt.SigningMethod(c.SessionToken.SigningMethod) {
		case jwt.SigningMethodHS256, jwt.SigningMethodEd25519:
		default:
			return fmt.Errorf("%w: unknown session token signing method %q", ErrMalformedInput, c.SessionToken.SigningMethod)
		}
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("%w: audit buffer size must be positive", ErrMalformedInput)
	}
	return nil
}

// cloneConfig deep-copies the key slices so the engine owns its material.
func cloneConfig(c Config) Config {
	out := c
	if c.SessionToken.PrivateKey != nil {
		out.SessionToken.PrivateKey = append([]byte(nil), c.SessionToken.PrivateKey...)
	}
	if c.SessionToken.PublicKey != nil {
		out.SessionToken.PublicKey = append([]byte(nil), c.SessionToken.PublicKey...)
	}
	return out
}
