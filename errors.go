package mfagate

import "errors"

// Sentinel errors returned by the engine. Callers dispatch on them with
// errors.Is; any other error is an internal failure (store outage,
// misconfiguration) and must not be shown to the end user verbatim.
var (
	// ErrInvalidCredentials is returned when the username is unknown or
	// the password does not match. The two cases are deliberately not
	// distinguishable.
	ErrInvalidCredentials = errors.New("mfagate: invalid credentials")

	// ErrTOTPRequired is returned when the account has TOTP enrolled and
	// the attempt carried no code.
	ErrTOTPRequired = errors.New("mfagate: totp code required")

	// ErrTOTPInvalid is returned when a submitted TOTP code does not
	// verify against the account secret.
	ErrTOTPInvalid = errors.New("mfagate: invalid totp code")

	// ErrFaceRequired is returned when the account has face verification
	// enabled and the attempt carried no image.
	ErrFaceRequired = errors.New("mfagate: face image required")

	// ErrFaceMismatch is returned when the submitted face image does not
	// match the enrolled reference.
	ErrFaceMismatch = errors.New("mfagate: face verification failed")

	// ErrTOTPNotConfigured is returned by enrollment operations that need
	// a pending or confirmed secret the account does not have.
	ErrTOTPNotConfigured = errors.New("mfagate: totp not configured")

	// ErrTOTPAlreadyEnrolled is returned by BeginTOTPEnrollment when the
	// account already has a confirmed secret. Disable it first.
	ErrTOTPAlreadyEnrolled = errors.New("mfagate: totp already enrolled")

	// ErrAccountExists is returned by CreateAccount when the username is taken.
	ErrAccountExists = errors.New("mfagate: account already exists")

	// ErrAccountNotFound is returned by enrollment operations for an
	// unknown account id.
	ErrAccountNotFound = errors.New("mfagate: account not found")

	// ErrFaceImageRequired is returned by EnrollFace when no image was supplied.
	ErrFaceImageRequired = errors.New("mfagate: face image required for enrollment")

	// ErrSessionTokensDisabled is returned by IssueSessionToken when the
	// engine was built without session tokens.
	ErrSessionTokensDisabled = errors.New("mfagate: session tokens disabled")

	// ErrEngineNotReady is returned when the engine is used before Build
	// or after Close.
	ErrEngineNotReady = errors.New("mfagate: engine not ready")

	// ErrMalformedInput is returned when a required input is empty or
	// structurally invalid.
	ErrMalformedInput = errors.New("mfagate: malformed input")
)
