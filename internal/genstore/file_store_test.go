package genstore

import (
	"testing"
	"time"

	"ieltsprep/pkg/domain"
)

func TestFileStoreJobRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	job := domain.Job{
		ID:        "job-1",
		Status:    domain.JobPending,
		CreatedAt: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := s.PutJob(job); err != nil {
		t.Fatalf("put job: %v", err)
	}
	got, ok, err := s.GetJob("job-1")
	if err != nil || !ok {
		t.Fatalf("get job: ok=%v err=%v", ok, err)
	}
	if got != job {
		t.Fatalf("got %+v, want %+v", got, job)
	}

	if _, ok, err := s.GetJob("missing"); err != nil || ok {
		t.Fatalf("missing job: ok=%v err=%v", ok, err)
	}
}

func TestFileStoreUpdateJobMergesFields(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := s.PutJob(domain.Job{ID: "job-1", Status: domain.JobPending}); err != nil {
		t.Fatalf("put job: %v", err)
	}
	err = s.UpdateJob("job-1", JobUpdate{Status: domain.JobCompleted, PracticeSetID: "set-1"})
	if err != nil {
		t.Fatalf("update job: %v", err)
	}
	got, _, err := s.GetJob("job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != domain.JobCompleted || got.PracticeSetID != "set-1" || got.Error != "" {
		t.Fatalf("merged job = %+v", got)
	}
	if !got.Terminal() {
		t.Fatalf("completed job should be terminal")
	}
}

func TestFileStoreUpdateMissingJobIsNoOp(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := s.UpdateJob("missing", JobUpdate{Status: domain.JobFailed, Error: "boom"}); err != nil {
		t.Fatalf("update missing job should not error: %v", err)
	}
	if _, ok, _ := s.GetJob("missing"); ok {
		t.Fatalf("update must not create a job record")
	}
}

func TestFileStoreLatestPracticeSetPointer(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if id := s.LatestPracticeSetID(); id != "" {
		t.Fatalf("empty store latest = %q", id)
	}
	for _, id := range []string{"set-1", "set-2"} {
		ps := domain.PracticeSet{
			ID:      id,
			Kind:    domain.KindFITBTFNG,
			Passage: "passage",
			Questions: []domain.Question{
				{ID: 1, Type: domain.QuestionFITB, Question: "q", Answer: "a"},
			},
		}
		if err := s.PutPracticeSet(ps); err != nil {
			t.Fatalf("put practice set %s: %v", id, err)
		}
	}
	if id := s.LatestPracticeSetID(); id != "set-2" {
		t.Fatalf("latest = %q, want set-2", id)
	}
	got, ok, err := s.GetPracticeSet("set-1")
	if err != nil || !ok {
		t.Fatalf("get practice set: ok=%v err=%v", ok, err)
	}
	if got.Passage != "passage" || len(got.Questions) != 1 {
		t.Fatalf("round-tripped set = %+v", got)
	}
	if _, ok, _ := s.GetPracticeSet("missing"); ok {
		t.Fatalf("missing practice set reported as found")
	}
}
