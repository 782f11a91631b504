package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	token, err := GenerateJWT("a@b.com")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	email, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if email != "a@b.com" {
		t.Fatalf("email = %q; want a@b.com", email)
	}
}

func TestJWTTampered(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	token, err := GenerateJWT("a@b.com")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}
	tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]

	if _, err := ParseJWT(tampered); err == nil {
		t.Fatal("tampered token accepted")
	}
}

func TestJWTWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "first-secret")
	InitJWT()
	token, err := GenerateJWT("a@b.com")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	t.Setenv("JWT_SECRET", "second-secret")
	InitJWT()
	if _, err := ParseJWT(token); err == nil {
		t.Fatal("token signed with another secret accepted")
	}
}

func signClaims(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestJWTClaimValidation(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"expired", jwt.MapClaims{
			"email": "a@b.com",
			"exp":   time.Now().Add(-time.Hour).Unix(),
		}},
		{"no expiry", jwt.MapClaims{
			"email": "a@b.com",
		}},
		{"not yet valid", jwt.MapClaims{
			"email": "a@b.com",
			"exp":   time.Now().Add(time.Hour).Unix(),
			"nbf":   time.Now().Add(time.Hour).Unix(),
		}},
		{"missing email", jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseJWT(signClaims(t, tt.claims)); err == nil {
				t.Fatal("token accepted")
			}
		})
	}
}

func TestJWTRejectsOtherAlgorithms(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	claims := jwt.MapClaims{
		"email": "a@b.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseJWT(tok); err == nil {
		t.Fatal("token signed with a different algorithm accepted")
	}
}

func TestJWTGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := ParseJWT(tok); err == nil {
			t.Fatalf("garbage token %q accepted", tok)
		}
	}
}
