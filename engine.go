package mfagate

import (
	"context"
	"errors"
	"time"

	"github.com/mfagate/mfagate/credstore"
	"github.com/mfagate/mfagate/face"
	"github.com/mfagate/mfagate/jwt"
	"github.com/mfagate/mfagate/password"
)

// Engine runs the multi-factor authentication pipeline: password, then
// TOTP if enrolled, then face verification if enrolled. All methods are
// safe for concurrent use.
type Engine struct {
	config          Config
	store           credstore.Store
	passwordHash    *password.Scrypt
	decoyCredential string
	totp            *totpManager
	faces           face.Comparer
	tokens          *jwt.Manager
	audit           *auditDispatcher
	metrics         *Metrics
}

// Close flushes buffered audit events and stops background workers.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were lost to a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Authenticate evaluates one login attempt against the full pipeline and
// returns the account on success.
//
// Stages run in a fixed order and the first failing stage decides the
// error: ErrInvalidCredentials for username or password, then
// ErrTOTPRequired / ErrTOTPInvalid when the account has TOTP enrolled,
// then ErrFaceRequired / ErrFaceMismatch when face verification is
// enabled. Factor inputs the account has not enrolled are ignored, and a
// later stage never runs before every earlier stage has passed.
func (e *Engine) Authenticate(ctx context.Context, attempt LoginAttempt) (*credstore.Account, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	acct, err := e.authenticate(ctx, attempt)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
	}
	return acct, err
}

func (e *Engine) authenticate(ctx context.Context, attempt LoginAttempt) (*credstore.Account, error) {
	if attempt.Username == "" || attempt.Password == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, 0, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	acct, err := e.store.Lookup(ctx, attempt.Username)
	if err != nil {
		if errors.Is(err, credstore.ErrAccountNotFound) {
			// Burn a verification anyway so unknown usernames are not
			// distinguishable from wrong passwords by response time.
			_, _ = e.passwordHash.Verify(attempt.Password, e.decoyCredential)
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, 0, ErrInvalidCredentials, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := e.passwordHash.Verify(attempt.Password, acct.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, acct.ID, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	if err := e.verifyTOTPGate(ctx, acct, attempt.TOTPCode); err != nil {
		return nil, err
	}

	if err := e.verifyFaceGate(ctx, acct, attempt.FaceImage); err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, acct.ID, nil, nil)

	return acct, nil
}

// CreateAccount hashes the password and stores a new account with no
// optional factors enrolled.
func (e *Engine) CreateAccount(ctx context.Context, username, plainPassword string) (*credstore.Account, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if username == "" || plainPassword == "" {
		return nil, ErrMalformedInput
	}

	hashed, err := e.passwordHash.Hash(plainPassword)
	if err != nil {
		return nil, err
	}

	acct, err := e.store.Create(ctx, username, hashed)
	if err != nil {
		if errors.Is(err, credstore.ErrDuplicateUsername) {
			e.metricInc(MetricAccountDuplicate)
			e.emitAudit(ctx, auditEventAccountCreationDuplicate, false, 0, ErrAccountExists, nil)
			return nil, ErrAccountExists
		}
		e.emitAudit(ctx, auditEventAccountCreationFailure, false, 0, err, nil)
		return nil, err
	}

	e.metricInc(MetricAccountCreated)
	e.emitAudit(ctx, auditEventAccountCreationSuccess, true, acct.ID, nil, nil)

	return acct, nil
}

// IssueSessionToken signs a session token for an account that has already
// passed Authenticate. Returns ErrSessionTokensDisabled when the engine
// was built without session tokens.
func (e *Engine) IssueSessionToken(acct *credstore.Account) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if e.tokens == nil {
		return "", ErrSessionTokensDisabled
	}
	if acct == nil {
		return "", ErrMalformedInput
	}

	token, err := e.tokens.CreateSession(acct.ID, acct.Username)
	if err != nil {
		return "", err
	}

	e.metricInc(MetricSessionTokenIssued)
	e.emitAudit(context.Background(), auditEventSessionTokenIssued, true, acct.ID, nil, nil)

	return token, nil
}

// ParseSessionToken verifies a token issued by IssueSessionToken.
func (e *Engine) ParseSessionToken(token string) (*jwt.SessionClaims, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if e.tokens == nil {
		return nil, ErrSessionTokensDisabled
	}
	return e.tokens.ParseSession(token)
}
