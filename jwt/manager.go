package jwt

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the token signature algorithm.
type SigningMethod string

const (
	// SigningMethodHS256 signs with HMAC-SHA256 using a shared secret.
	SigningMethodHS256 SigningMethod = "hs256"
	// SigningMethodEd25519 signs with an Ed25519 private key.
	SigningMethodEd25519 SigningMethod = "ed25519"
)

var (
	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("jwt: invalid configuration")
	// ErrInvalidToken is returned when a token fails signature or claims
	// validation.
	ErrInvalidToken = errors.New("jwt: invalid token")
)

// Config holds the session-token signing material.
//
// For HS256, PrivateKey is the shared secret and PublicKey is unused.
// For Ed25519, PrivateKey and PublicKey hold the keys either raw
// (ed25519.PrivateKeySize / ed25519.PublicKeySize bytes) or PEM encoded
// (PKCS#8 / PKIX).
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
}

// SessionClaims are the claims carried by a session token.
type SessionClaims struct {
	UID      int64  `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Manager signs and parses session tokens. Safe for concurrent use.
type Manager struct {
	cfg       Config
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	validAlgs []string
}

// NewManager validates cfg and prepares the signing keys.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("%w: TTL must be positive", ErrInvalidConfig)
	}

	m := &Manager{cfg: cfg}
	switch cfg.SigningMethod {
	case SigningMethodHS256:
		if len(cfg.PrivateKey) < 32 {
			return nil, fmt.Errorf("%w: HS256 secret must be at least 32 bytes", ErrInvalidConfig)
		}
		m.method = jwt.SigningMethodHS256
		m.signKey = cfg.PrivateKey
		m.verifyKey = cfg.PrivateKey
		m.validAlgs = []string{jwt.SigningMethodHS256.Alg()}
	case SigningMethodEd25519:
		priv, err := parseEdPrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		pub, err := parseEdPublicKey(cfg.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		m.method = jwt.SigningMethodEdDSA
		m.signKey = priv
		m.verifyKey = pub
		m.validAlgs = []string{jwt.SigningMethodEdDSA.Alg()}
	default:
		return nil, fmt.Errorf("%w: unknown signing method %q", ErrInvalidConfig, cfg.SigningMethod)
	}

	return m, nil
}

// CreateSession signs a session token for the account.
func (m *Manager) CreateSession(uid int64, username string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UID:      uid,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(uid, 10),
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TTL)),
		},
	}

	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.signKey)
	if err != nil {
		return "", fmt.Errorf("jwt: signing session token: %w", err)
	}
	return signed, nil
}

// ParseSession verifies the token signature and standard claims and
// returns the session claims.
func (m *Manager) ParseSession(token string) (*SessionClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods(m.validAlgs)}
	if m.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.cfg.Issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{}, func(*jwt.Token) (any, error) {
		return m.verifyKey, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func parseEdPrivateKey(data []byte) (ed25519.PrivateKey, error) {
	if len(data) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(data), nil
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("private key is neither raw ed25519 nor PEM")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("PEM private key is not ed25519")
	}
	return priv, nil
}

func parseEdPublicKey(data []byte) (ed25519.PublicKey, error) {
	if len(data) == ed25519.PublicKeySize {
		return ed25519.PublicKey(data), nil
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("public key is neither raw ed25519 nor PEM")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("PEM public key is not ed25519")
	}
	return pub, nil
}
