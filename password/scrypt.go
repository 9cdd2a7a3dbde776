package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	minSaltLength = 16
	minKeyLength  = 16
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("password: invalid scrypt configuration")

// Config holds the scrypt cost parameters and output sizes.
//
// Config instances are intended to be set once during initialization and
// then treated as immutable.
type Config struct {
	// N is the CPU/memory cost. Must be a power of two greater than 1.
	N int
	// R is the block size parameter.
	R int
	// P is the parallelism parameter.
	P int
	// SaltLength is the random salt size in bytes. Minimum 16.
	SaltLength int
	// KeyLength is the derived key size in bytes. Minimum 16.
	KeyLength int
}

// DefaultConfig returns interactive-login scrypt parameters.
func DefaultConfig() Config {
	return Config{
		N:          32768,
		R:          8,
		P:          1,
		SaltLength: 16,
		KeyLength:  64,
	}
}

// Validate checks cost parameters and output sizes.
func (c Config) Validate() error {
	if c.N <= 1 || c.N&(c.N-1) != 0 {
		return fmt.Errorf("%w: N must be a power of two > 1, got %d", ErrInvalidConfig, c.N)
	}
	if c.R <= 0 {
		return fmt.Errorf("%w: R must be positive, got %d", ErrInvalidConfig, c.R)
	}
	if c.P <= 0 {
		return fmt.Errorf("%w: P must be positive, got %d", ErrInvalidConfig, c.P)
	}
	if c.SaltLength < minSaltLength {
		return fmt.Errorf("%w: salt length must be at least %d bytes, got %d", ErrInvalidConfig, minSaltLength, c.SaltLength)
	}
	if c.KeyLength < minKeyLength {
		return fmt.Errorf("%w: key length must be at least %d bytes, got %d", ErrInvalidConfig, minKeyLength, c.KeyLength)
	}
	return nil
}

// Scrypt hashes and verifies passwords. Safe for concurrent use.
type Scrypt struct {
	cfg Config
}

// NewScrypt validates cfg and returns a hasher.
func NewScrypt(cfg Config) (*Scrypt, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scrypt{cfg: cfg}, nil
}

// Hash derives a credential for the given password with a fresh random salt.
func (s *Scrypt) Hash(password string) (string, error) {
	salt := make([]byte, s.cfg.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("password: generating salt: %w", err)
	}

	key, err := scrypt.Key([]byte(password), salt, s.cfg.N, s.cfg.R, s.cfg.P, s.cfg.KeyLength)
	if err != nil {
		return "", fmt.Errorf("password: deriving key: %w", err)
	}

	return hex.EncodeToString(key) + "." + hex.EncodeToString(salt), nil
}

// Verify reports whether password matches the stored credential.
//
// A malformed credential verifies as false with a nil error; only key
// derivation failures surface as errors. The comparison over the derived
// key is constant-time.
func (s *Scrypt) Verify(password, credential string) (bool, error) {
	keyHex, saltHex, ok := strings.Cut(credential, ".")
	if !ok {
		return false, nil
	}

	storedKey, err := hex.DecodeString(keyHex)
	if err != nil {
		return false, nil
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false, nil
	}
	if len(storedKey) < minKeyLength || len(salt) == 0 {
		return false, nil
	}

	// Derive with the stored key's length so credentials hashed under an
	// older KeyLength still verify.
	key, err := scrypt.Key([]byte(password), salt, s.cfg.N, s.cfg.R, s.cfg.P, len(storedKey))
	if err != nil {
		return false, fmt.Errorf("password: deriving key: %w", err)
	}

	return subtle.ConstantTimeCompare(key, storedKey) == 1, nil
}
