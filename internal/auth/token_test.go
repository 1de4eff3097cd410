package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
)

func tokenTestService(now time.Time) *Service {
	return &Service{
		secret:    []byte("test-secret"),
		accessTTL: 15 * time.Minute,
		now:       func() time.Time { return now },
		signer:    jwa.HS256,
		validator: TokenValidator{
			Issuer:    "backend-store",
			Audience:  "luvbricks-storefront",
			Algorithm: jwa.HS256,
		},
		issuer:   "backend-store",
		audience: "luvbricks-storefront",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := tokenTestService(now)

	token, expiry, err := svc.signAccessToken("user-42")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !expiry.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("expiry: %v", expiry)
	}

	userID, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if userID != "user-42" {
		t.Fatalf("subject: got %q", userID)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := tokenTestService(now)

	token, _, err := svc.signAccessToken("user-42")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	svc.now = func() time.Time { return now.Add(16 * time.Minute) }
	if _, err := svc.ParseAccessToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := tokenTestService(now)
	token, _, err := svc.signAccessToken("user-42")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	other := tokenTestService(now)
	other.secret = []byte("different-secret")
	if _, err := other.ParseAccessToken(token); err == nil {
		t.Fatal("expected forged token to be rejected")
	}
}

func TestEmptyTokenRejected(t *testing.T) {
	svc := tokenTestService(time.Now())
	if _, err := svc.ParseAccessToken(""); err == nil {
		t.Fatal("expected empty token to be rejected")
	}
}
