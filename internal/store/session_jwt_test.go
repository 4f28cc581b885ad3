package store

import (
	"testing"
	"time"
)

func TestJWTSessionRoundTrip(t *testing.T) {
	s := NewJWTSessionStore("test-secret", time.Hour)
	token, err := s.NewSession("u-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	uid, ok, err := s.GetUserIDByToken(token)
	if err != nil || !ok {
		t.Fatalf("get user id: ok=%v err=%v", ok, err)
	}
	if uid != "u-1" {
		t.Fatalf("uid = %q, want u-1", uid)
	}
}

func TestJWTSessionRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTSessionStore("secret-a", time.Hour)
	verifier := NewJWTSessionStore("secret-b", time.Hour)
	token, err := issuer.NewSession("u-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, err := verifier.GetUserIDByToken(token); err != nil || ok {
		t.Fatalf("wrong-secret token: ok=%v err=%v", ok, err)
	}
}

func TestJWTSessionRejectsExpiredToken(t *testing.T) {
	s := NewJWTSessionStore("test-secret", -time.Minute)
	token, err := s.NewSession("u-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, err := s.GetUserIDByToken(token); err != nil || ok {
		t.Fatalf("expired token: ok=%v err=%v", ok, err)
	}
}

func TestJWTSessionRejectsGarbage(t *testing.T) {
	s := NewJWTSessionStore("test-secret", time.Hour)
	if _, ok, err := s.GetUserIDByToken("not-a-jwt"); err != nil || ok {
		t.Fatalf("garbage token: ok=%v err=%v", ok, err)
	}
}
