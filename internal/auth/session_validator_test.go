package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	testSessionSigningSecret = "secret"
	testSessionCookieName    = "linkrot_session"
	testSessionUserName      = "alice"
	testSessionUserEmail     = "alice@example.com"
)

func signTestToken(t *testing.T, claims SessionClaims, secret string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func newTestValidator(t *testing.T, clockNow time.Time) *SessionValidator {
	t.Helper()
	validator, err := NewSessionValidator(SessionValidatorConfig{
		SigningSecret: []byte(testSessionSigningSecret),
		CookieName:    testSessionCookieName,
		Clock: func() time.Time {
			return clockNow
		},
	})
	if err != nil {
		t.Fatalf("failed to construct validator: %v", err)
	}
	return validator
}

func TestSessionValidatorValidateToken(t *testing.T) {
	clockNow := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	validator := newTestValidator(t, clockNow)

	signed := signTestToken(t, SessionClaims{
		UserName:  testSessionUserName,
		UserEmail: testSessionUserEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    defaultSessionIssuer,
			Subject:   testSessionUserName,
			IssuedAt:  jwt.NewNumericDate(clockNow.Add(-time.Minute)),
			NotBefore: jwt.NewNumericDate(clockNow.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(clockNow.Add(time.Hour)),
		},
	}, testSessionSigningSecret)

	claims, err := validator.ValidateToken(signed)
	if err != nil {
		t.Fatalf("unexpected validation failure: %v", err)
	}
	if claims.Editor() != testSessionUserName {
		t.Fatalf("unexpected editor: %s", claims.Editor())
	}
}

func TestSessionValidatorRejectsBadTokens(t *testing.T) {
	clockNow := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	validator := newTestValidator(t, clockNow)
	valid := jwt.RegisteredClaims{
		Issuer:    defaultSessionIssuer,
		Subject:   testSessionUserName,
		IssuedAt:  jwt.NewNumericDate(clockNow.Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(clockNow.Add(time.Hour)),
	}

	expired := valid
	expired.IssuedAt = jwt.NewNumericDate(clockNow.Add(-2 * time.Hour))
	expired.ExpiresAt = jwt.NewNumericDate(clockNow.Add(-time.Hour))

	foreign := valid
	foreign.Issuer = "someone-else"

	anonymous := valid
	anonymous.Subject = ""

	testCases := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "empty", token: "  ", wantErr: ErrMissingSessionToken},
		{name: "expired", token: signTestToken(t, SessionClaims{UserName: testSessionUserName, RegisteredClaims: expired}, testSessionSigningSecret), wantErr: ErrExpiredSessionToken},
		{name: "wrong-secret", token: signTestToken(t, SessionClaims{UserName: testSessionUserName, RegisteredClaims: valid}, "other"), wantErr: ErrInvalidSessionToken},
		{name: "wrong-issuer", token: signTestToken(t, SessionClaims{UserName: testSessionUserName, RegisteredClaims: foreign}, testSessionSigningSecret), wantErr: ErrInvalidSessionToken},
		{name: "no-editor", token: signTestToken(t, SessionClaims{RegisteredClaims: anonymous}, testSessionSigningSecret), wantErr: ErrMissingSessionSubject},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := validator.ValidateToken(testCase.token); !errors.Is(err, testCase.wantErr) {
				t.Fatalf("expected %v, got %v", testCase.wantErr, err)
			}
		})
	}
}

func TestSessionValidatorValidateRequestUsesCookie(t *testing.T) {
	validator, err := NewSessionValidator(SessionValidatorConfig{
		SigningSecret: []byte(testSessionSigningSecret),
		CookieName:    testSessionCookieName,
	})
	if err != nil {
		t.Fatalf("failed to construct validator: %v", err)
	}

	signed := signTestToken(t, SessionClaims{
		UserName: testSessionUserName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    defaultSessionIssuer,
			Subject:   testSessionUserName,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			NotBefore: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, testSessionSigningSecret)

	request := httptest.NewRequest(http.MethodPost, "/save/Example", http.NoBody)
	request.AddCookie(&http.Cookie{
		Name:  testSessionCookieName,
		Value: signed,
	})

	claims, err := validator.ValidateRequest(request)
	if err != nil {
		t.Fatalf("validation failed: %v", err)
	}
	if claims.UserName != testSessionUserName {
		t.Fatalf("unexpected user name: %s", claims.UserName)
	}

	bare := httptest.NewRequest(http.MethodPost, "/save/Example", http.NoBody)
	if _, err := validator.ValidateRequest(bare); !errors.Is(err, ErrMissingSessionToken) {
		t.Fatalf("expected missing token, got %v", err)
	}
}

func TestNewSessionValidatorRequiresSecretAndCookie(t *testing.T) {
	if _, err := NewSessionValidator(SessionValidatorConfig{CookieName: testSessionCookieName}); !errors.Is(err, ErrMissingSessionSigningKey) {
		t.Fatalf("expected missing key, got %v", err)
	}
	if _, err := NewSessionValidator(SessionValidatorConfig{SigningSecret: []byte("x")}); !errors.Is(err, ErrMissingSessionCookieName) {
		t.Fatalf("expected missing cookie name, got %v", err)
	}
}
