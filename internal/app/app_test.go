package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"ieltsprep/internal/genstore"
	"ieltsprep/internal/store"
	"ieltsprep/pkg/ai"
	"ieltsprep/pkg/domain"
	"ieltsprep/pkg/prompt"
)

// mixedSetReply is a full ten-question reply in the shape the generation
// prompt asks for: questions 1-5 FITB, 6-10 TFNG.
var mixedSetReply = "```json\n" + buildMixedSetJSON() + "\n```"

func buildMixedSetJSON() string {
	var b strings.Builder
	b.WriteString(`{"passage": "A passage about glaciers.", "question_type": "mixed_fitb_tfng", "questions": [`)
	for i := 1; i <= 10; i++ {
		if i > 1 {
			b.WriteString(",")
		}
		if i <= 5 {
			fmt.Fprintf(&b, `{"id": %d, "question_type": "FITB", "question": "Blank number %d is _____.", "answer": "ice", "source_sentence": "Glaciers are made of ice."}`, i, i)
		} else {
			fmt.Fprintf(&b, `{"id": %d, "question_type": "TFNG", "statement": "Statement number %d.", "answer": "False", "relevant_passage": "Glaciers shrink in summer."}`, i, i)
		}
	}
	b.WriteString(`]}`)
	return b.String()
}

type stubGenerator struct {
	reply string
	err   error
	// prompts records what the application asked for.
	prompts []string
}

func (g *stubGenerator) GenerateText(_ context.Context, _ string, userPrompt string) (string, error) {
	g.prompts = append(g.prompts, userPrompt)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func newTestApp(t *testing.T, gen *stubGenerator, defaultKey string) (*App, *genstore.MemoryStore) {
	t.Helper()
	generation := genstore.NewMemoryStore()
	a, err := New(Config{
		DefaultAPIKey: defaultKey,
		Generation:    generation,
		Store:         store.NewMemoryStore(),
		Sessions:      store.NewMemorySessionStore(),
		NewGenerator: func(apiKey, model string, cfg ai.GenerationConfig) (ai.TextGenerator, error) {
			return gen, nil
		},
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a, generation
}

func waitForTerminalJob(t *testing.T, a *App, jobID string) domain.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := a.JobStatus(jobID)
		if err != nil {
			t.Fatalf("job status: %v", err)
		}
		if job.Terminal() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", jobID)
	return domain.Job{}
}

func TestStartGenerationCompletesJob(t *testing.T) {
	gen := &stubGenerator{reply: mixedSetReply}
	a, generation := newTestApp(t, gen, "default-key")

	jobID, err := a.StartGeneration(prompt.KindFITBTFNG, "")
	if err != nil {
		t.Fatalf("start generation: %v", err)
	}
	if jobID == "" {
		t.Fatalf("empty job id")
	}

	job := waitForTerminalJob(t, a, jobID)
	if job.Status != domain.JobCompleted {
		t.Fatalf("job status = %q, error = %q", job.Status, job.Error)
	}
	if job.PracticeSetID == "" {
		t.Fatalf("completed job carries no practice set id")
	}

	ps, err := a.PracticeSet(job.PracticeSetID)
	if err != nil {
		t.Fatalf("practice set: %v", err)
	}
	if ps.Kind != domain.KindFITBTFNG || len(ps.Questions) != 10 {
		t.Fatalf("stored set = %+v", ps)
	}
	var fitb, tfng int
	for _, q := range ps.Questions {
		switch q.Type {
		case domain.QuestionFITB:
			fitb++
		case domain.QuestionTFNG:
			tfng++
		}
	}
	if fitb != 5 || tfng != 5 {
		t.Fatalf("question split = %d FITB / %d TFNG", fitb, tfng)
	}
	if ps.CreatedAt.IsZero() {
		t.Fatalf("created_at not stamped")
	}

	// Empty id falls back to the most recent set.
	latest, err := a.PracticeSet("")
	if err != nil {
		t.Fatalf("latest practice set: %v", err)
	}
	if latest.ID != ps.ID {
		t.Fatalf("latest id = %q, want %q", latest.ID, ps.ID)
	}
	if generation.PracticeSetCount() != 1 {
		t.Fatalf("practice set count = %d", generation.PracticeSetCount())
	}
}

// blockingGenerator holds the background goroutine until released, so the test
// can observe the job before its terminal transition.
type blockingGenerator struct {
	release chan struct{}
	reply   string
}

func (g *blockingGenerator) GenerateText(context.Context, string, string) (string, error) {
	<-g.release
	return g.reply, nil
}

func TestJobIsPendingUntilGenerationFinishes(t *testing.T) {
	gen := &blockingGenerator{release: make(chan struct{}), reply: mixedSetReply}
	generation := genstore.NewMemoryStore()
	a, err := New(Config{
		DefaultAPIKey: "k",
		Generation:    generation,
		Store:         store.NewMemoryStore(),
		Sessions:      store.NewMemorySessionStore(),
		NewGenerator: func(string, string, ai.GenerationConfig) (ai.TextGenerator, error) {
			return gen, nil
		},
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	jobID, err := a.StartGeneration(prompt.KindFITBTFNG, "")
	if err != nil {
		t.Fatalf("start generation: %v", err)
	}
	job, err := a.JobStatus(jobID)
	if err != nil {
		t.Fatalf("job status: %v", err)
	}
	if job.Status != domain.JobPending || job.Terminal() {
		t.Fatalf("job before release = %+v", job)
	}

	close(gen.release)
	first := waitForTerminalJob(t, a, jobID)
	second, err := a.JobStatus(jobID)
	if err != nil {
		t.Fatalf("re-read job: %v", err)
	}
	// Terminal records never change; repeated polling is an idempotent read.
	if first != second {
		t.Fatalf("terminal job changed between reads: %+v vs %+v", first, second)
	}
}

func TestStartGenerationRecordsFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("upstream unavailable")}
	a, generation := newTestApp(t, gen, "default-key")

	jobID, err := a.StartGeneration(prompt.KindFITBTFNG, "")
	if err != nil {
		t.Fatalf("start generation: %v", err)
	}
	job := waitForTerminalJob(t, a, jobID)
	if job.Status != domain.JobFailed {
		t.Fatalf("job status = %q", job.Status)
	}
	if !strings.Contains(job.Error, "upstream unavailable") {
		t.Fatalf("job error = %q", job.Error)
	}
	if job.PracticeSetID != "" {
		t.Fatalf("failed job should carry no practice set id")
	}
	if generation.PracticeSetCount() != 0 {
		t.Fatalf("failed generation stored a practice set")
	}
}

func TestStartGenerationFailsOnUnparseableReply(t *testing.T) {
	gen := &stubGenerator{reply: "sorry, I cannot help with that"}
	a, _ := newTestApp(t, gen, "default-key")

	jobID, err := a.StartGeneration(prompt.KindFITBTFNG, "")
	if err != nil {
		t.Fatalf("start generation: %v", err)
	}
	job := waitForTerminalJob(t, a, jobID)
	if job.Status != domain.JobFailed || job.Error == "" {
		t.Fatalf("job = %+v", job)
	}
}

func TestStartGenerationRequiresAPIKey(t *testing.T) {
	gen := &stubGenerator{reply: mixedSetReply}
	a, generation := newTestApp(t, gen, "")

	if _, err := a.StartGeneration(prompt.KindFITBTFNG, ""); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
	// No key means no job record either.
	if generation.PracticeSetCount() != 0 {
		t.Fatalf("practice set stored without key")
	}

	// A request-supplied key satisfies the credential rule.
	jobID, err := a.StartGeneration(prompt.KindFITBTFNG, "request-key")
	if err != nil {
		t.Fatalf("start with request key: %v", err)
	}
	job := waitForTerminalJob(t, a, jobID)
	if job.Status != domain.JobCompleted {
		t.Fatalf("job status = %q", job.Status)
	}
}

func TestStartGenerationUsesKindPrompt(t *testing.T) {
	gen := &stubGenerator{err: errors.New("stop early")}
	a, _ := newTestApp(t, gen, "k")

	jobID, err := a.StartGeneration(prompt.KindMatchingHeadings, "")
	if err != nil {
		t.Fatalf("start generation: %v", err)
	}
	waitForTerminalJob(t, a, jobID)
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "Matching Headings") {
		t.Fatalf("generator got prompts %q", gen.prompts)
	}
}

func TestPracticeSetNotFound(t *testing.T) {
	a, _ := newTestApp(t, &stubGenerator{}, "k")
	if _, err := a.PracticeSet(""); !errors.Is(err, ErrNoPracticeSets) {
		t.Fatalf("expected ErrNoPracticeSets, got %v", err)
	}
	if _, err := a.PracticeSet("missing"); !errors.Is(err, ErrPracticeSetNotFound) {
		t.Fatalf("expected ErrPracticeSetNotFound, got %v", err)
	}
	if _, err := a.JobStatus("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestTranslate(t *testing.T) {
	gen := &stubGenerator{reply: "  kelime\n"}
	a, _ := newTestApp(t, gen, "default-key")

	got, err := a.Translate(context.Background(), "word", "")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got != "kelime" {
		t.Fatalf("translation = %q", got)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "'word'") {
		t.Fatalf("generator got prompts %q", gen.prompts)
	}

	if _, err := a.Translate(context.Background(), "   ", ""); !errors.Is(err, ErrWordRequired) {
		t.Fatalf("expected ErrWordRequired, got %v", err)
	}
}

func TestTranslateRequiresAPIKey(t *testing.T) {
	a, _ := newTestApp(t, &stubGenerator{reply: "x"}, "")
	if _, err := a.Translate(context.Background(), "word", ""); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	a, _ := newTestApp(t, &stubGenerator{}, "k")

	user, err := a.Register("alice", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == "" || user.PasswordHash == "secret" {
		t.Fatalf("stored user = %+v", user)
	}

	if _, err := a.Register("alice", "other"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate username: %v", err)
	}
	if _, err := a.Register("  ", "pw"); !errors.Is(err, ErrCredentialsRequired) {
		t.Fatalf("blank username: %v", err)
	}
	if _, err := a.Register("bob", ""); !errors.Is(err, ErrCredentialsRequired) {
		t.Fatalf("blank password: %v", err)
	}

	logged, token, err := a.Login("alice", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != user.ID || token == "" {
		t.Fatalf("login result = %+v token=%q", logged, token)
	}

	if _, _, err := a.Login("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, _, err := a.Login("nobody", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: %v", err)
	}

	resolved, ok := a.UserFromToken(token)
	if !ok || resolved.Username != "alice" {
		t.Fatalf("user from token: ok=%v user=%+v", ok, resolved)
	}

	if err := a.Logout(token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := a.UserFromToken(token); ok {
		t.Fatalf("token still valid after logout")
	}
}

func TestSaveProgressMergesScores(t *testing.T) {
	a, _ := newTestApp(t, &stubGenerator{}, "k")

	err := a.SaveProgress("u-1", domain.Progress{PracticeSetID: "set-1", ScoreFITB: "3/5"})
	if err != nil {
		t.Fatalf("save progress: %v", err)
	}
	// A later attempt that only reports TFNG keeps the earlier FITB score.
	err = a.SaveProgress("u-1", domain.Progress{PracticeSetID: "set-1", ScoreTFNG: "4/5"})
	if err != nil {
		t.Fatalf("resave progress: %v", err)
	}

	list, err := a.ListProgress("u-1")
	if err != nil {
		t.Fatalf("list progress: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("progress records = %d, want 1", len(list))
	}
	got := list[0]
	if got.ScoreFITB != "3/5" || got.ScoreTFNG != "4/5" {
		t.Fatalf("merged progress = %+v", got)
	}
	if got.DateAttempted.IsZero() {
		t.Fatalf("date_attempted not stamped")
	}

	if err := a.SaveProgress("u-1", domain.Progress{}); !errors.Is(err, ErrPracticeSetIDRequired) {
		t.Fatalf("missing practice set id: %v", err)
	}
}
