package store

import (
	"path/filepath"
	"testing"
	"time"

	"ieltsprep/pkg/domain"
)

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()
	s, err := NewGormStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("new gorm store: %v", err)
	}
	return s
}

func TestGormStoreUserRoundTrip(t *testing.T) {
	s := newTestGormStore(t)
	user := domain.User{
		ID:           "u-1",
		Username:     "alice",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	if err := s.SaveUser(user); err != nil {
		t.Fatalf("save user: %v", err)
	}

	taken, err := s.HasUsername("alice")
	if err != nil || !taken {
		t.Fatalf("HasUsername(alice) = %v, %v", taken, err)
	}
	taken, err = s.HasUsername("bob")
	if err != nil || taken {
		t.Fatalf("HasUsername(bob) = %v, %v", taken, err)
	}

	got, ok, err := s.GetUserByUsername("alice")
	if err != nil || !ok {
		t.Fatalf("get by username: ok=%v err=%v", ok, err)
	}
	if got.ID != "u-1" || got.PasswordHash != "hash" {
		t.Fatalf("got %+v", got)
	}

	got, ok, err = s.GetUserByID("u-1")
	if err != nil || !ok {
		t.Fatalf("get by id: ok=%v err=%v", ok, err)
	}
	if got.Username != "alice" {
		t.Fatalf("got %+v", got)
	}

	if _, ok, err := s.GetUserByID("missing"); err != nil || ok {
		t.Fatalf("missing user: ok=%v err=%v", ok, err)
	}
}

func TestGormStoreSaveUserUpsertsByID(t *testing.T) {
	s := newTestGormStore(t)
	if err := s.SaveUser(domain.User{ID: "u-1", Username: "alice", PasswordHash: "old"}); err != nil {
		t.Fatalf("save user: %v", err)
	}
	if err := s.SaveUser(domain.User{ID: "u-1", Username: "alice", PasswordHash: "new"}); err != nil {
		t.Fatalf("resave user: %v", err)
	}
	got, _, err := s.GetUserByID("u-1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.PasswordHash != "new" {
		t.Fatalf("password hash = %q, want new", got.PasswordHash)
	}
}

func TestGormStoreProgressUpsertAndOrdering(t *testing.T) {
	s := newTestGormStore(t)
	base := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

	first := domain.Progress{
		UserID:        "u-1",
		PracticeSetID: "set-1",
		ScoreFITB:     "3/5",
		DateAttempted: base,
	}
	if err := s.SaveProgress(first); err != nil {
		t.Fatalf("save progress: %v", err)
	}
	second := domain.Progress{
		UserID:        "u-1",
		PracticeSetID: "set-2",
		ScoreTFNG:     "4/5",
		DateAttempted: base.Add(time.Hour),
	}
	if err := s.SaveProgress(second); err != nil {
		t.Fatalf("save progress: %v", err)
	}

	// Same (user, set) pair overwrites rather than appending.
	first.ScoreFITB = "5/5"
	first.DateAttempted = base.Add(2 * time.Hour)
	if err := s.SaveProgress(first); err != nil {
		t.Fatalf("upsert progress: %v", err)
	}

	got, ok, err := s.GetProgress("u-1", "set-1")
	if err != nil || !ok {
		t.Fatalf("get progress: ok=%v err=%v", ok, err)
	}
	if got.ScoreFITB != "5/5" {
		t.Fatalf("score = %q, want 5/5", got.ScoreFITB)
	}

	list, err := s.ListProgressByUser("u-1")
	if err != nil {
		t.Fatalf("list progress: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list length = %d, want 2", len(list))
	}
	if list[0].PracticeSetID != "set-1" || list[1].PracticeSetID != "set-2" {
		t.Fatalf("expected newest attempt first, got %+v", list)
	}

	other, err := s.ListProgressByUser("u-2")
	if err != nil {
		t.Fatalf("list progress for other user: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("other user progress = %+v", other)
	}
}
