package mfagate

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/mfagate/mfagate/credstore"
	"github.com/mfagate/mfagate/face"
	"github.com/mfagate/mfagate/jwt"
	"github.com/mfagate/mfagate/password"
)

// Builder assembles an Engine. A Builder is single-use: Build consumes it.
type Builder struct {
	config   Config
	store    credstore.Store
	comparer face.Comparer

	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the credential store. Required.
func (b *Builder) WithStore(store credstore.Store) *Builder {
	b.store = store
	return b
}

// WithFaceComparer replaces the default PixelComparer, typically with an
// ExternalComparer backed by a real recognizer.
func (b *Builder) WithFaceComparer(c face.Comparer) *Builder {
	b.comparer = c
	return b
}

// WithAuditSink sets the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the Authenticate latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.store == nil {
		return nil, errors.New("credential store required")
	}

	engine := &Engine{
		config: cfg,
		store:  b.store,
	}

	ph, err := password.NewScrypt(cfg.Password)
	if err != nil {
		return nil, err
	}
	engine.passwordHash = ph

	// A credential for a throwaway password. Unknown usernames verify the
	// submitted password against it so lookups that miss cost the same as
	// lookups that hit.
	decoyPlain := make([]byte, 32)
	if _, err := rand.Read(decoyPlain); err != nil {
		return nil, fmt.Errorf("generating decoy credential: %w", err)
	}
	decoy, err := ph.Hash(string(decoyPlain))
	if err != nil {
		return nil, fmt.Errorf("hashing decoy credential: %w", err)
	}
	engine.decoyCredential = decoy

	engine.totp = newTOTPManager(cfg.TOTP)

	if b.comparer != nil {
		engine.faces = b.comparer
	} else {
		engine.faces = face.NewPixelComparer(cfg.Face.Compare)
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	if cfg.SessionToken.Enabled {
		tm, err := jwt.NewManager(jwt.Config{
			TTL:           cfg.SessionToken.TTL,
			SigningMethod: jwt.SigningMethod(cfg.SessionToken.SigningMethod),
			PrivateKey:    cfg.SessionToken.PrivateKey,
			PublicKey:     cfg.SessionToken.PublicKey,
			Issuer:        cfg.SessionToken.Issuer,
		})
		if err != nil {
			return nil, err
		}
		engine.tokens = tm
	}

	b.built = true

	return engine, nil
}
