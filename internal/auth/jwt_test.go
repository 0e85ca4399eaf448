package auth

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := SignAccessToken(42, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	claims, err := VerifyAccessToken(token, "test-secret")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.UID != 42 {
		t.Fatalf("expected uid 42, got %d", claims.UID)
	}
}

func TestVerifyAccessTokenRejections(t *testing.T) {
	valid, err := SignAccessToken(1, "right-secret", time.Hour)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	expired, err := SignAccessToken(1, "right-secret", -time.Minute)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	cases := []struct {
		name   string
		token  string
		secret string
	}{
		{name: "empty token", token: "", secret: "right-secret"},
		{name: "wrong secret", token: valid, secret: "wrong-secret"},
		{name: "expired", token: expired, secret: "right-secret"},
		{name: "garbage", token: "not.a.jwt", secret: "right-secret"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := VerifyAccessToken(tc.token, tc.secret); err == nil {
				t.Fatalf("expected verification to fail")
			}
		})
	}
}

func TestParseBearerToken(t *testing.T) {
	cases := []struct {
		name     string
		header   string
		expected string
	}{
		{name: "standard", header: "Bearer abc.def.ghi", expected: "abc.def.ghi"},
		{name: "lowercase scheme", header: "bearer abc", expected: "abc"},
		{name: "missing scheme", header: "abc.def.ghi", expected: ""},
		{name: "wrong scheme", header: "Basic abc", expected: ""},
		{name: "empty", header: "", expected: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseBearerToken(tc.header); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}
