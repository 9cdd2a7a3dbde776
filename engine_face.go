package mfagate

import (
	"context"
	"errors"

	"github.com/mfagate/mfagate/credstore"
	"github.com/mfagate/mfagate/face"
)

// verifyFaceGate is the face stage of the login pipeline, reached only
// after password and TOTP have passed. A comparer failure counts as a
// mismatch so a broken recognizer can never let a login through.
func (e *Engine) verifyFaceGate(ctx context.Context, acct *credstore.Account, image string) error {
	if !acct.FaceEnabled {
		return nil
	}

	if image == "" {
		e.metricInc(MetricFaceRequired)
		e.emitAudit(ctx, auditEventFaceFailure, false, acct.ID, ErrFaceRequired, nil)
		return ErrFaceRequired
	}

	cctx, cancel := context.WithTimeout(ctx, e.config.Face.CompareTimeout)
	defer cancel()

	ok, err := e.faces.Compare(cctx, acct.FaceReference, image)
	if err != nil || !ok {
		e.metricInc(MetricFaceFailure)
		e.emitAudit(ctx, auditEventFaceFailure, false, acct.ID, ErrFaceMismatch, func() map[string]string {
			if err == nil || errors.Is(err, face.ErrMalformedImage) {
				return nil
			}
			return map[string]string{"compare_error": err.Error()}
		})
		return ErrFaceMismatch
	}

	e.metricInc(MetricFaceSuccess)
	e.emitAudit(ctx, auditEventFaceSuccess, true, acct.ID, nil, nil)
	return nil
}

// EnrollFace stores the reference image and enables the factor in one
// step. Unlike TOTP there is no confirmation round trip; the image the
// client submits is the reference all future logins compare against.
func (e *Engine) EnrollFace(ctx context.Context, accountID int64, image string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if image == "" {
		return ErrFaceImageRequired
	}

	_, err := e.store.Update(ctx, accountID, func(a *credstore.Account) error {
		a.FaceEnabled = true
		a.FaceReference = image
		return nil
	})
	if err != nil {
		if errors.Is(err, credstore.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	e.metricInc(MetricFaceEnrolled)
	e.emitAudit(ctx, auditEventFaceEnrolled, true, accountID, nil, nil)
	return nil
}

// DisableFace removes the factor and discards the reference image.
// Idempotent.
func (e *Engine) DisableFace(ctx context.Context, accountID int64) error {
	if e == nil {
		return ErrEngineNotReady
	}

	_, err := e.store.Update(ctx, accountID, func(a *credstore.Account) error {
		a.FaceEnabled = false
		a.FaceReference = ""
		return nil
	})
	if err != nil {
		if errors.Is(err, credstore.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	e.metricInc(MetricFaceDisabled)
	e.emitAudit(ctx, auditEventFaceDisabled, true, accountID, nil, nil)
	return nil
}
