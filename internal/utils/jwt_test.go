package utils

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken(secret, Claims{SSOID: "emp-001", Role: "ADMIN", Username: "somchai"}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.SSOID != "emp-001" || claims.Role != "ADMIN" || claims.Username != "somchai" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejects(t *testing.T) {
	secret := []byte("test-secret")
	valid, err := GenerateToken(secret, Claims{SSOID: "emp-001"}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	expired, err := GenerateToken(secret, Claims{SSOID: "emp-001"}, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	noSubject, err := GenerateToken(secret, Claims{Role: "ADMIN"}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tests := []struct {
		name   string
		secret []byte
		token  string
	}{
		{name: "wrong secret", secret: []byte("other"), token: valid},
		{name: "expired", secret: secret, token: expired},
		{name: "missing sso id", secret: secret, token: noSubject},
		{name: "garbage", secret: secret, token: "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(tt.secret, tt.token); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
