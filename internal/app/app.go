// Package app wires the generation stores, the text generator and the account
// store into the application core consumed by the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ieltsprep/internal/genstore"
	"ieltsprep/internal/store"
	"ieltsprep/pkg/ai"
	"ieltsprep/pkg/auth"
	"ieltsprep/pkg/domain"
	"ieltsprep/pkg/prompt"
)

// GeneratorFactory builds a TextGenerator bound to one API key, model and
// sampling config. Replaced in tests with a stub.
type GeneratorFactory func(apiKey, model string, cfg ai.GenerationConfig) (ai.TextGenerator, error)

// Config holds runtime configuration for the core application.
type Config struct {
	// generation store: object-backed when MinioEndpoint is set, otherwise
	// one file per record under DataDir.
	DataDir        string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	DatabasePath string

	Provider       string
	OpenAIBaseURL  string
	DefaultAPIKey  string
	GenerateModel  string
	TranslateModel string

	JWTSecret     string
	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration

	// test seams
	Generation   genstore.Store
	Store        store.Store
	Sessions     store.SessionStore
	NewGenerator GeneratorFactory
}

// App is the application core: job orchestration, translation, accounts and
// progress tracking.
type App struct {
	generation genstore.Store
	store      store.Store
	sessions   store.SessionStore

	newGenerator   GeneratorFactory
	defaultAPIKey  string
	generateModel  string
	translateModel string
}

// Sampling settings mirror what the browser client's exercises were tuned
// against: creative for passage generation, near-deterministic and short for
// single-word translation.
var (
	practiceGenConfig  = ai.GenerationConfig{Temperature: 0.7, TopP: 0.95, TopK: 40}
	translateGenConfig = ai.GenerationConfig{Temperature: 0.2, TopP: 0.95, MaxOutputTokens: 50}
)

// New constructs the application.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}

	generation := cfg.Generation
	if generation == nil {
		var err error
		if cfg.MinioEndpoint != "" {
			generation, err = genstore.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		} else {
			generation, err = genstore.NewFileStore(cfg.DataDir)
		}
		if err != nil {
			return nil, fmt.Errorf("init generation store: %w", err)
		}
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabasePath == "" {
			return nil, fmt.Errorf("database path required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		switch {
		case cfg.JWTSecret != "":
			sessionStore = store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL)
		case cfg.RedisAddr != "":
			sessionStore = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
		default:
			return nil, fmt.Errorf("session store required (jwtSecret or redisAddr)")
		}
	}

	newGenerator := cfg.NewGenerator
	if newGenerator == nil {
		newGenerator = providerFactory(cfg.Provider, cfg.OpenAIBaseURL)
	}

	return &App{
		generation:     generation,
		store:          dataStore,
		sessions:       sessionStore,
		newGenerator:   newGenerator,
		defaultAPIKey:  strings.TrimSpace(cfg.DefaultAPIKey),
		generateModel:  cfg.GenerateModel,
		translateModel: cfg.TranslateModel,
	}, nil
}

func providerFactory(provider, openAIBaseURL string) GeneratorFactory {
	if provider == "openai" {
		return func(apiKey, model string, cfg ai.GenerationConfig) (ai.TextGenerator, error) {
			return ai.NewOpenAICompatGenerator(openAIBaseURL, apiKey, model, cfg), nil
		}
	}
	return func(apiKey, model string, cfg ai.GenerationConfig) (ai.TextGenerator, error) {
		client, err := ai.NewGeminiClient(apiKey)
		if err != nil {
			return nil, err
		}
		return ai.NewGeminiGenerator(client, model, cfg), nil
	}
}

// resolveAPIKey applies the credential rule shared by generation and
// translation: a per-request key overrides the configured default.
func (a *App) resolveAPIKey(requestKey string) (string, error) {
	if key := strings.TrimSpace(requestKey); key != "" {
		return key, nil
	}
	if a.defaultAPIKey != "" {
		return a.defaultAPIKey, nil
	}
	return "", ErrNoAPIKey
}

// StartGeneration creates a pending job, launches generation in the
// background and returns the job id immediately. It never blocks on the
// external call.
func (a *App) StartGeneration(kind prompt.Kind, requestKey string) (string, error) {
	key, err := a.resolveAPIKey(requestKey)
	if err != nil {
		return "", err
	}
	gen, err := a.newGenerator(key, a.generateModel, practiceGenConfig)
	if err != nil {
		return "", err
	}
	job := domain.Job{
		ID:        uuid.NewString(),
		Status:    domain.JobPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.generation.PutJob(job); err != nil {
		return "", fmt.Errorf("save job: %w", err)
	}
	go a.runGeneration(job.ID, gen, kind)
	return job.ID, nil
}

// runGeneration is the single background writer for its job id. Every failure
// is contained here and converted into the job's terminal failed state.
func (a *App) runGeneration(jobID string, gen ai.TextGenerator, kind prompt.Kind) {
	reply, err := gen.GenerateText(context.Background(), "", prompt.Build(kind))
	if err != nil {
		a.failJob(jobID, fmt.Errorf("generation error: %w", err))
		return
	}
	payload, err := ai.ExtractJSON(reply)
	if err != nil {
		a.failJob(jobID, err)
		return
	}
	ps, err := domain.ParsePracticeSet(payload)
	if err != nil {
		a.failJob(jobID, err)
		return
	}
	ps.ID = uuid.NewString()
	ps.CreatedAt = time.Now().UTC()
	ps.ShareURL = "/?id=" + ps.ID
	if err := a.generation.PutPracticeSet(ps); err != nil {
		a.failJob(jobID, fmt.Errorf("save practice set: %w", err))
		return
	}
	if err := a.generation.UpdateJob(jobID, genstore.JobUpdate{
		Status:        domain.JobCompleted,
		PracticeSetID: ps.ID,
	}); err != nil {
		slog.Error("complete job", "job_id", jobID, "err", err)
		return
	}
	slog.Info("generation job completed", "job_id", jobID, "practice_set_id", ps.ID, "kind", string(kind))
}

func (a *App) failJob(jobID string, cause error) {
	slog.Error("generation job failed", "job_id", jobID, "err", cause)
	if err := a.generation.UpdateJob(jobID, genstore.JobUpdate{
		Status: domain.JobFailed,
		Error:  cause.Error(),
	}); err != nil {
		slog.Error("record job failure", "job_id", jobID, "err", err)
	}
}

// JobStatus returns the stored job record.
func (a *App) JobStatus(jobID string) (domain.Job, error) {
	job, ok, err := a.generation.GetJob(jobID)
	if err != nil {
		return domain.Job{}, fmt.Errorf("load job: %w", err)
	}
	if !ok {
		return domain.Job{}, ErrJobNotFound
	}
	return job, nil
}

// PracticeSet returns a practice set by id, or the most recently generated
// one when id is empty.
func (a *App) PracticeSet(id string) (domain.PracticeSet, error) {
	if id == "" {
		id = a.generation.LatestPracticeSetID()
		if id == "" {
			return domain.PracticeSet{}, ErrNoPracticeSets
		}
	}
	ps, ok, err := a.generation.GetPracticeSet(id)
	if err != nil {
		return domain.PracticeSet{}, fmt.Errorf("load practice set: %w", err)
	}
	if !ok {
		return domain.PracticeSet{}, ErrPracticeSetNotFound
	}
	return ps, nil
}

// Translate resolves the credential, calls the generator with the fixed
// translation prompt and returns the trimmed reply.
func (a *App) Translate(ctx context.Context, word, requestKey string) (string, error) {
	if strings.TrimSpace(word) == "" {
		return "", ErrWordRequired
	}
	key, err := a.resolveAPIKey(requestKey)
	if err != nil {
		return "", err
	}
	gen, err := a.newGenerator(key, a.translateModel, translateGenConfig)
	if err != nil {
		return "", err
	}
	reply, err := gen.GenerateText(ctx, "", prompt.Translation(word))
	if err != nil {
		return "", fmt.Errorf("translation error: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// Register creates a new account.
func (a *App) Register(username, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, ErrCredentialsRequired
	}
	taken, err := a.store.HasUsername(username)
	if err != nil {
		return domain.User{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return domain.User{}, ErrUsernameTaken
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// Login validates credentials and issues a session token.
func (a *App) Login(username, password string) (domain.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, "", ErrCredentialsRequired
	}
	user, ok, err := a.store.GetUserByUsername(username)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session: %w", err)
	}
	return user, token, nil
}

// UserFromToken resolves a user from a session token.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(uid)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

// Logout removes a session token.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}

// SaveProgress upserts the user's scores for one practice set. Scores absent
// from the incoming record keep their stored values; the attempt timestamp is
// always refreshed.
func (a *App) SaveProgress(userID string, incoming domain.Progress) error {
	if strings.TrimSpace(incoming.PracticeSetID) == "" {
		return ErrPracticeSetIDRequired
	}
	merged := incoming
	merged.UserID = userID
	existing, ok, err := a.store.GetProgress(userID, incoming.PracticeSetID)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	if ok {
		if merged.ScoreFITB == "" {
			merged.ScoreFITB = existing.ScoreFITB
		}
		if merged.ScoreTFNG == "" {
			merged.ScoreTFNG = existing.ScoreTFNG
		}
		if merged.ScoreMH == "" {
			merged.ScoreMH = existing.ScoreMH
		}
	}
	merged.DateAttempted = time.Now().UTC()
	if err := a.store.SaveProgress(merged); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// ListProgress returns the user's progress records, newest attempt first.
func (a *App) ListProgress(userID string) ([]domain.Progress, error) {
	return a.store.ListProgressByUser(userID)
}

// IsNotFound reports whether err maps to a not-found response.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrJobNotFound) ||
		errors.Is(err, ErrPracticeSetNotFound) ||
		errors.Is(err, ErrNoPracticeSets)
}
