package mfagate

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/mfagate/mfagate/credstore"
)

// verifyTOTPGate is the TOTP stage of the login pipeline. Accounts
// without a confirmed enrollment skip the stage entirely; a code
// submitted for them is ignored, and a pending secret is never consulted
// at login.
func (e *Engine) verifyTOTPGate(ctx context.Context, acct *credstore.Account, code string) error {
	if acct.TOTP.State != credstore.TOTPEnrolled {
		return nil
	}

	if code == "" {
		e.metricInc(MetricTOTPRequired)
		e.emitAudit(ctx, auditEventTOTPFailure, false, acct.ID, ErrTOTPRequired, nil)
		return ErrTOTPRequired
	}

	ok, err := e.totp.VerifyCode(acct.TOTP.Secret, code, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		e.metricInc(MetricTOTPFailure)
		e.emitAudit(ctx, auditEventTOTPFailure, false, acct.ID, ErrTOTPInvalid, nil)
		return ErrTOTPInvalid
	}

	e.metricInc(MetricTOTPSuccess)
	e.emitAudit(ctx, auditEventTOTPSuccess, true, acct.ID, nil, nil)
	return nil
}

// BeginTOTPEnrollment provisions a fresh secret for the account and
// stores it as pending. The factor is not required at login until the
// secret is confirmed. Calling it again replaces the previous pending
// secret; for an already enrolled account it returns
// ErrTOTPAlreadyEnrolled.
func (e *Engine) BeginTOTPEnrollment(ctx context.Context, accountID int64) (*TOTPSetup, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	secret, secretBase32, err := e.totp.GenerateSecret()
	if err != nil {
		return nil, err
	}

	acct, err := e.store.Update(ctx, accountID, func(a *credstore.Account) error {
		if a.TOTP.State == credstore.TOTPEnrolled {
			return ErrTOTPAlreadyEnrolled
		}
		a.TOTP = credstore.TOTPEnrollment{
			State:  credstore.TOTPPendingConfirmation,
			Secret: secret,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, credstore.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	e.emitAudit(ctx, auditEventTOTPSetupRequested, true, acct.ID, nil, nil)

	return &TOTPSetup{
		SecretBase32: secretBase32,
		URI:          e.totp.ProvisionURI(secretBase32, acct.Username),
	}, nil
}

// ConfirmTOTPEnrollment checks a code against the pending secret and, on
// success, promotes the enrollment so the factor becomes required at
// login. A wrong code leaves the pending secret in place for another try.
func (e *Engine) ConfirmTOTPEnrollment(ctx context.Context, accountID int64, code string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	acct, err := e.store.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, credstore.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	if acct.TOTP.State != credstore.TOTPPendingConfirmation {
		return ErrTOTPNotConfigured
	}

	ok, err := e.totp.VerifyCode(acct.TOTP.Secret, code, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		e.metricInc(MetricTOTPFailure)
		e.emitAudit(ctx, auditEventTOTPFailure, false, acct.ID, ErrTOTPInvalid, nil)
		return ErrTOTPInvalid
	}

	pending := acct.TOTP.Secret
	_, err = e.store.Update(ctx, accountID, func(a *credstore.Account) error {
		// The pending secret may have been replaced or confirmed by a
		// concurrent call since the read above.
		if a.TOTP.State != credstore.TOTPPendingConfirmation || !bytes.Equal(a.TOTP.Secret, pending) {
			return ErrTOTPNotConfigured
		}
		a.TOTP = credstore.TOTPEnrollment{
			State:  credstore.TOTPEnrolled,
			Secret: a.TOTP.Secret,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, credstore.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	e.metricInc(MetricTOTPEnrolled)
	e.emitAudit(ctx, auditEventTOTPEnabled, true, accountID, nil, nil)
	return nil
}

// DisableTOTP removes the factor and discards any confirmed or pending
// secret. Idempotent.
func (e *Engine) DisableTOTP(ctx context.Context, accountID int64) error {
	if e == nil {
		return ErrEngineNotReady
	}

	_, err := e.store.Update(ctx, accountID, func(a *credstore.Account) error {
		a.TOTP = credstore.TOTPEnrollment{}
		return nil
	})
	if err != nil {
		if errors.Is(err, credstore.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	e.metricInc(MetricTOTPDisabled)
	e.emitAudit(ctx, auditEventTOTPDisabled, true, accountID, nil, nil)
	return nil
}
