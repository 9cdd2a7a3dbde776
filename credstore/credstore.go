package credstore

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrAccountNotFound is returned when an account id or username does not exist.
	ErrAccountNotFound = errors.New("credstore: account not found")
	// ErrDuplicateUsername is returned by Create when the username is already taken.
	ErrDuplicateUsername = errors.New("credstore: username already exists")
)

// TOTPState is the explicit enrollment state machine for the TOTP factor.
type TOTPState uint8

const (
	// TOTPUnenrolled means the account has never confirmed a TOTP secret.
	TOTPUnenrolled TOTPState = iota
	// TOTPPendingConfirmation means a secret was provisioned but not yet
	// confirmed with a valid code. The factor is not required at login.
	TOTPPendingConfirmation
	// TOTPEnrolled means the secret was confirmed once and the factor is
	// required at login.
	TOTPEnrolled
)

// TOTPEnrollment pairs the enrollment state with the one secret that is
// meaningful in that state: the pending secret in TOTPPendingConfirmation,
// the confirmed secret in TOTPEnrolled. A record can never carry both.
type TOTPEnrollment struct {
	State  TOTPState
	Secret []byte
}

// Account is the identity record the authentication pipeline evaluates.
// ID and Username are immutable after creation.
type Account struct {
	ID            int64
	Username      string
	PasswordHash  string
	TOTP          TOTPEnrollment
	FaceEnabled   bool
	FaceReference string
}

// TOTPEnabled reports whether the TOTP factor is required at login.
func (a *Account) TOTPEnabled() bool {
	return a != nil && a.TOTP.State == TOTPEnrolled
}

// Clone returns a deep copy so callers can mutate without aliasing store state.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	if a.TOTP.Secret != nil {
		out.TOTP.Secret = append([]byte(nil), a.TOTP.Secret...)
	}
	return &out
}

// accountRecord is the persisted shape. Field names are the durable storage
// contract and must survive backend migrations unchanged.
type accountRecord struct {
	ID                int64  `json:"id"`
	Username          string `json:"username"`
	PasswordHash      string `json:"passwordHash"`
	TOTPSecret        []byte `json:"totpSecret,omitempty"`
	TOTPEnabled       bool   `json:"totpEnabled"`
	PendingTOTPSecret []byte `json:"pendingTotpSecret,omitempty"`
	FaceEnabled       bool   `json:"faceEnabled"`
	FaceReference     string `json:"faceReference,omitempty"`
}

// MarshalJSON flattens the enrollment state machine into the durable
// nullable-field shape.
func (a Account) MarshalJSON() ([]byte, error) {
	rec := accountRecord{
		ID:            a.ID,
		Username:      a.Username,
		PasswordHash:  a.PasswordHash,
		FaceEnabled:   a.FaceEnabled,
		FaceReference: a.FaceReference,
	}
	switch a.TOTP.State {
	case TOTPEnrolled:
		rec.TOTPEnabled = true
		rec.TOTPSecret = a.TOTP.Secret
	case TOTPPendingConfirmation:
		rec.PendingTOTPSecret = a.TOTP.Secret
	}
	return json.Marshal(rec)
}

// UnmarshalJSON rebuilds the state machine from the durable shape. A record
// claiming to be enabled without a secret deserializes as unenrolled rather
// than producing an account that can never pass its own factor.
func (a *Account) UnmarshalJSON(data []byte) error {
	var rec accountRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	a.ID = rec.ID
	a.Username = rec.Username
	a.PasswordHash = rec.PasswordHash
	a.FaceEnabled = rec.FaceEnabled
	a.FaceReference = rec.FaceReference
	switch {
	case rec.TOTPEnabled && len(rec.TOTPSecret) > 0:
		a.TOTP = TOTPEnrollment{State: TOTPEnrolled, Secret: rec.TOTPSecret}
	case len(rec.PendingTOTPSecret) > 0:
		a.TOTP = TOTPEnrollment{State: TOTPPendingConfirmation, Secret: rec.PendingTOTPSecret}
	default:
		a.TOTP = TOTPEnrollment{}
	}
	return nil
}

// Store is the credential-store contract the engine depends on.
//
// Update runs mutate against the current record and persists the result as
// one atomic step relative to other updates of the same id. When mutate
// returns an error the record is left untouched and the error is returned
// verbatim.
type Store interface {
	Lookup(ctx context.Context, username string) (*Account, error)
	Get(ctx context.Context, id int64) (*Account, error)
	Create(ctx context.Context, username, passwordHash string) (*Account, error)
	Update(ctx context.Context, id int64, mutate func(*Account) error) (*Account, error)
}
