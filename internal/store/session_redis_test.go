package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisSessionLifecycle(t *testing.T) {
	redisSrv := miniredis.RunT(t)
	s := NewRedisSessionStore(redisSrv.Addr(), "", time.Hour)

	token, err := s.NewSession("u-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if token == "" {
		t.Fatalf("empty session token")
	}

	uid, ok, err := s.GetUserIDByToken(token)
	if err != nil || !ok {
		t.Fatalf("get user id: ok=%v err=%v", ok, err)
	}
	if uid != "u-1" {
		t.Fatalf("uid = %q, want u-1", uid)
	}

	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, err := s.GetUserIDByToken(token); err != nil || ok {
		t.Fatalf("deleted token: ok=%v err=%v", ok, err)
	}
}

func TestRedisSessionExpires(t *testing.T) {
	redisSrv := miniredis.RunT(t)
	s := NewRedisSessionStore(redisSrv.Addr(), "", time.Minute)

	token, err := s.NewSession("u-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	redisSrv.FastForward(2 * time.Minute)
	if _, ok, err := s.GetUserIDByToken(token); err != nil || ok {
		t.Fatalf("expired token: ok=%v err=%v", ok, err)
	}
}
