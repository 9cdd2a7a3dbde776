package mfagate

import "errors"

// LoginAttempt carries everything a client submitted for one login.
// Factor fields the account has not enrolled are ignored.
type LoginAttempt struct {
	Username string
	Password string
	// TOTPCode is the six-digit code, required only when the account has
	// TOTP enrolled.
	TOTPCode string
	// FaceImage is a base64 image payload (optionally a data URI),
	// required only when the account has face verification enabled.
	FaceImage string
}

// TOTPSetup is handed to the client after BeginTOTPEnrollment so it can
// render a QR code and collect the confirmation code.
type TOTPSetup struct {
	// SecretBase32 is the provisioned secret, base32 without padding.
	SecretBase32 string
	// URI is the otpauth:// provisioning URI for authenticator apps.
	URI string
}

// RejectReason is a stable machine-readable label for an authentication
// rejection, for transports that map errors to response bodies.
type RejectReason string

const (
	ReasonInvalidCredentials RejectReason = "invalid_credentials"
	ReasonTOTPRequired       RejectReason = "totp_required"
	ReasonTOTPInvalid        RejectReason = "invalid_totp"
	ReasonFaceRequired       RejectReason = "face_required"
	ReasonFaceMismatch       RejectReason = "face_mismatch"
)

// ReasonForError maps an Authenticate error to its RejectReason. The
// second return is false for errors that are not pipeline rejections,
// such as store failures.
func ReasonForError(err error) (RejectReason, bool) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return ReasonInvalidCredentials, true
	case errors.Is(err, ErrTOTPRequired):
		return ReasonTOTPRequired, true
	case errors.Is(err, ErrTOTPInvalid):
		return ReasonTOTPInvalid, true
	case errors.Is(err, ErrFaceRequired):
		return ReasonFaceRequired, true
	case errors.Is(err, ErrFaceMismatch):
		return ReasonFaceMismatch, true
	default:
		return "", false
	}
}
