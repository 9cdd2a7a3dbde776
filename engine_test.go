package mfagate

import (
	"context"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mfagate/mfagate/credstore"
	"github.com/mfagate/mfagate/password"
)

// Small scrypt N keeps the suite fast without touching verification logic.
func engineTestConfig() Config {
	cfg := defaultConfig()
	cfg.Password = password.Config{N: 1024, R: 8, P: 1, SaltLength: 16, KeyLength: 64}
	return cfg
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *credstore.MemoryStore) {
	t.Helper()
	store := credstore.NewMemoryStore()
	engine, err := New().
		WithConfig(cfg).
		WithStore(store).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, store
}

func createTestAccount(t *testing.T, engine *Engine, username, pw string) *credstore.Account {
	t.Helper()
	acct, err := engine.CreateAccount(context.Background(), username, pw)
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	return acct
}

func codeForNow(t *testing.T, secret string, cfg TOTPConfig) string {
	t.Helper()
	return codeForOffset(t, secret, cfg, 0)
}

func codeForOffset(t *testing.T, secret string, cfg TOTPConfig, offset int64) string {
	t.Helper()
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(secret))
	if err != nil {
		t.Fatalf("decode secret failed: %v", err)
	}
	counter := (time.Now().Unix() / int64(cfg.Period)) + offset
	code, err := hotpCode(key, counter, cfg.Digits, cfg.Algorithm)
	if err != nil {
		t.Fatalf("hotpCode failed: %v", err)
	}
	return code
}

func faceImage(t *testing.T, size int, offset int) string {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte((i*7 + offset) % 256)
	}
	return base64.StdEncoding.EncodeToString(data)
}

func TestAuthenticatePasswordOnly(t *testing.T) {
	engine, _ := newTestEngine(t, engineTestConfig())
	created := createTestAccount(t, engine, "alice", "correct-password-123")

	acct, err := engine.Authenticate(context.Background(), LoginAttempt{
		Username: "alice",
		Password: "correct-password-123",
	})
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if acct.ID != created.ID || acct.Username != "alice" {
		t.Fatalf("unexpected account returned: %+v", acct)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	engine, _ := newTestEngine(t, engineTestConfig())
	createTestAccount(t, engine, "alice", "correct-password-123")

	_, err := engine.Authenticate(context.Background(), LoginAttempt{
		Username: "alice",
		Password: "wrong",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateUnknownUserSameVerdict(t *testing.T) {
	engine, _ := newTestEngine(t, engineTestConfig())
	createTestAccount(t, engine, "alice", "correct-password-123")

	_, unknownErr := engine.Authenticate(context.Background(), LoginAttempt{
		Username: "ghost",
		Password: "whatever",
	})
	_, wrongErr := engine.Authenticate(context.Background(), LoginAttempt{
		Username: "alice",
		Password: "wrong",
	})
	if !errors.Is(unknownErr, ErrInvalidCredentials) || !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("expected identical verdicts, got %v and %v", unknownErr, wrongErr)
	}
}

func TestAuthenticateEmptyInputs(t *testing.T) {
	engine, _ := newTestEngine(t, engineTestConfig())
	createTestAccount(t, engine, "alice", "correct-password-123")

	for _, attempt := range []LoginAttempt{
		{},
		{Username: "alice"},
		{Password: "correct-password-123"},
	} {
		_, err := engine.Authenticate(context.Background(), attempt)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for %+v, got %v", attempt, err)
		}
	}
}

func TestAuthenticatePasswordFailureWinsOverMissingTOTP(t *testing.T) {
	cfg := engineTestConfig()
	engine, _ := newTestEngine(t, cfg)
	acct := createTestAccount(t, engine, "alice", "correct-password-123")
	enrollTOTP(t, engine, acct.ID, cfg.TOTP)

	// Wrong password and missing TOTP code at once: the earlier stage decides.
	_, err := engine.Authenticate(context.Background(), LoginAttempt{
		Username: "alice",
		Password: "wrong",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateIgnoresCodeWhenTOTPUnenrolled(t *testing.T) {
	engine, _ := newTestEngine(t, engineTestConfig())
	createTestAccount(t, engine, "alice", "correct-password-123")

	acct, err := engine.Authenticate(context.Background(), LoginAttempt{
		Username: "alice",
		Password: "correct-password-123",
		TOTPCode: "000000",
	})
	if err != nil {
		t.Fatalf("expected stray code to be ignored, got %v", err)
	}
	if acct == nil {
		t.Fatal("expected account")
	}
}

func TestAuthenticateIgnoresImageWhenFaceDisabled(t *testing.T) {
	engine, _ := newTestEngine(t, engineTestConfig())
	createTestAccount(t, engine, "alice", "correct-password-123")

	if _, err := engine.Authenticate(context.Background(), LoginAttempt{
		Username:  "alice",
		Password:  "correct-password-123",
		FaceImage: "garbage-not-even-base64!!!",
	}); err != nil {
		t.Fatalf("expected stray image to be ignored, got %v", err)
	}
}

func TestCreateAccountDuplicate(t *testing.T) {
	engine, _ := newTestEngine(t, engineTestConfig())
	createTestAccount(t, engine, "alice", "pw-one")

	_, err := engine.CreateAccount(context.Background(), "alice", "pw-two")
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestCreateAccountEmptyInputs(t *testing.T) {
	engine, _ := newTestEngine(t, engineTestConfig())

	if _, err := engine.CreateAccount(context.Background(), "", "pw"); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
	if _, err := engine.CreateAccount(context.Background(), "alice", ""); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
}

func TestCreateAccountStoresHashedPassword(t *testing.T) {
	engine, store := newTestEngine(t, engineTestConfig())
	acct := createTestAccount(t, engine, "alice", "correct-password-123")

	stored, err := store.Get(context.Background(), acct.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.PasswordHash == "correct-password-123" {
		t.Fatal("password stored in plaintext")
	}
	if !strings.Contains(stored.PasswordHash, ".") {
		t.Fatalf("expected key.salt credential, got %q", stored.PasswordHash)
	}
}

func TestReasonForError(t *testing.T) {
	cases := []struct {
		err    error
		reason RejectReason
	}{
		{ErrInvalidCredentials, ReasonInvalidCredentials},
		{ErrTOTPRequired, ReasonTOTPRequired},
		{ErrTOTPInvalid, ReasonTOTPInvalid},
		{ErrFaceRequired, ReasonFaceRequired},
		{ErrFaceMismatch, ReasonFaceMismatch},
	}
	for _, tc := range cases {
		reason, ok := ReasonForError(tc.err)
		if !ok || reason != tc.reason {
			t.Fatalf("ReasonForError(%v) = %q, %v", tc.err, reason, ok)
		}
	}

	if _, ok := ReasonForError(errors.New("store down")); ok {
		t.Fatal("internal errors must not map to a reject reason")
	}
}

func TestIssueSessionTokenDisabled(t *testing.T) {
	engine, _ := newTestEngine(t, engineTestConfig())
	acct := createTestAccount(t, engine, "alice", "pw-one")

	if _, err := engine.IssueSessionToken(acct); !errors.Is(err, ErrSessionTokensDisabled) {
		t.Fatalf("expected ErrSessionTokensDisabled, got %v", err)
	}
}

func TestIssueSessionTokenRoundTrip(t *testing.T) {
	cfg := engineTestConfig()
	cfg.SessionToken = SessionTokenConfig{
		Enabled:       true,
		TTL:           time.Hour,
		SigningMethod: "hs256",
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
		Issuer:        "mfagate-test",
	}
	engine, _ := newTestEngine(t, cfg)
	acct := createTestAccount(t, engine, "alice", "correct-password-123")

	token, err := engine.IssueSessionToken(acct)
	if err != nil {
		t.Fatalf("IssueSessionToken failed: %v", err)
	}

	claims, err := engine.ParseSessionToken(token)
	if err != nil {
		t.Fatalf("ParseSessionToken failed: %v", err)
	}
	if claims.UID != acct.ID || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthenticateMetrics(t *testing.T) {
	engine, _ := newTestEngine(t, engineTestConfig())
	createTestAccount(t, engine, "alice", "correct-password-123")

	if _, err := engine.Authenticate(context.Background(), LoginAttempt{
		Username: "alice", Password: "correct-password-123",
	}); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if _, err := engine.Authenticate(context.Background(), LoginAttempt{
		Username: "alice", Password: "wrong",
	}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("expected 1 login success, got %d", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricLoginFailure] != 1 {
		t.Fatalf("expected 1 login failure, got %d", snap.Counters[MetricLoginFailure])
	}
	if snap.Counters[MetricAccountCreated] != 1 {
		t.Fatalf("expected 1 account created, got %d", snap.Counters[MetricAccountCreated])
	}
}

// enrollTOTP walks an account through the full enrollment flow and
// returns the confirmed secret.
func enrollTOTP(t *testing.T, engine *Engine, accountID int64, cfg TOTPConfig) string {
	t.Helper()
	setup, err := engine.BeginTOTPEnrollment(context.Background(), accountID)
	if err != nil {
		t.Fatalf("BeginTOTPEnrollment failed: %v", err)
	}
	code := codeForNow(t, setup.SecretBase32, cfg)
	if err := engine.ConfirmTOTPEnrollment(context.Background(), accountID, code); err != nil {
		t.Fatalf("ConfirmTOTPEnrollment failed: %v", err)
	}
	return setup.SecretBase32
}
