// Package server exposes the HTTP surface consumed by the browser client.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"ieltsprep/internal/app"
	"ieltsprep/internal/ratelimit"
	"ieltsprep/internal/util"
	"ieltsprep/pkg/domain"
	"ieltsprep/pkg/prompt"
)

const sessionCookieName = "ielts_session"

// Config wires required dependencies for the HTTP server. Limiters may be nil,
// in which case the corresponding endpoint is not throttled.
type Config struct {
	App              *app.App
	GenerateLimiter  *ratelimit.FixedWindowLimiter
	TranslateLimiter *ratelimit.FixedWindowLimiter
	LoginLimiter     *ratelimit.FixedWindowLimiter
}

// Server exposes HTTP endpoints for the practice service.
type Server struct {
	app              *app.App
	mux              *http.ServeMux
	generateLimiter  *ratelimit.FixedWindowLimiter
	translateLimiter *ratelimit.FixedWindowLimiter
	loginLimiter     *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:              cfg.App,
		mux:              http.NewServeMux(),
		generateLimiter:  cfg.GenerateLimiter,
		translateLimiter: cfg.TranslateLimiter,
		loginLimiter:     cfg.LoginLimiter,
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(s.mux))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// generation
	s.mux.HandleFunc("/api/generate", s.handleGenerate)
	s.mux.HandleFunc("/api/job-status", s.handleJobStatus)
	s.mux.HandleFunc("/api/practice-set", s.handlePracticeSet)
	s.mux.HandleFunc("/api/translate", s.handleTranslate)

	// accounts & progress
	s.mux.HandleFunc("/api/register", s.handleRegister)
	s.mux.HandleFunc("/api/login", s.handleLogin)
	s.mux.HandleFunc("/api/logout", s.handleLogout)
	s.mux.HandleFunc("/api/current_user", s.handleCurrentUser)
	s.mux.Handle("/api/save_progress", s.authenticated(s.handleSaveProgress))
	s.mux.Handle("/api/get_progress", s.authenticated(s.handleGetProgress))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type generateRequest struct {
	APIKey       string `json:"apiKey"`
	QuestionType string `json:"question_type"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.generateLimiter, "too many generation requests") {
		return
	}
	var req generateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	jobID, err := s.app.StartGeneration(prompt.ParseKind(req.QuestionType), req.APIKey)
	if err != nil {
		if errors.Is(err, app.ErrNoAPIKey) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		slog.Error("start generation", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to start generation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"job_id": jobID,
		"status": string(domain.JobPending),
	})
}

type jobStatusResponse struct {
	domain.Job
	PracticeSet *domain.PracticeSet `json:"practice_set,omitempty"`
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "no job ID provided")
		return
	}
	job, err := s.app.JobStatus(jobID)
	if err != nil {
		if app.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		slog.Error("job status", "job_id", jobID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	resp := jobStatusResponse{Job: job}
	// A completed job embeds its practice set so the client can render
	// without a second round trip.
	if job.Status == domain.JobCompleted && job.PracticeSetID != "" {
		ps, err := s.app.PracticeSet(job.PracticeSetID)
		if err == nil {
			ps.ShareURL = shareURL(r, ps.ID)
			resp.PracticeSet = &ps
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePracticeSet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	ps, err := s.app.PracticeSet(r.URL.Query().Get("id"))
	if err != nil {
		if app.IsNotFound(err) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		slog.Error("practice set", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load practice set")
		return
	}
	ps.ShareURL = shareURL(r, ps.ID)
	writeJSON(w, http.StatusOK, ps)
}

type translateRequest struct {
	Word   string `json:"word"`
	APIKey string `json:"apiKey"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.translateLimiter, "too many translation requests") {
		return
	}
	var req translateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	translation, err := s.app.Translate(r.Context(), req.Word, req.APIKey)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrWordRequired):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrNoAPIKey):
			writeError(w, http.StatusInternalServerError, err.Error())
		default:
			slog.Error("translate", "err", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"word":        req.Word,
		"translation": translation,
	})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "too many registration attempts") {
		return
	}
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if _, err := s.app.Register(req.Username, req.Password); err != nil {
		switch {
		case errors.Is(err, app.ErrCredentialsRequired):
			writeMessage(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrUsernameTaken):
			writeMessage(w, http.StatusConflict, err.Error())
		default:
			slog.Error("register", "err", err)
			writeMessage(w, http.StatusInternalServerError, "registration failed due to a server error")
		}
		return
	}
	writeMessage(w, http.StatusCreated, "user registered successfully")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts") {
		return
	}
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := s.app.Login(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrCredentialsRequired):
			writeMessage(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrInvalidCredentials):
			writeMessage(w, http.StatusUnauthorized, err.Error())
		default:
			slog.Error("login", "err", err)
			writeMessage(w, http.StatusInternalServerError, "login failed due to a server error")
		}
		return
	}
	setSessionCookie(w, r, token)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "login successful",
		"user":    map[string]string{"username": user.Username},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, ok := sessionToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if _, ok := s.app.UserFromToken(token); !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := s.app.Logout(token); err != nil {
		slog.Error("logout", "err", err)
	}
	clearSessionCookie(w, r)
	writeMessage(w, http.StatusOK, "logout successful")
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	user, ok := s.sessionUser(r)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"isLoggedIn": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"isLoggedIn": true,
		"user":       map[string]string{"username": user.Username},
	})
}

type saveProgressRequest struct {
	PracticeSetID string `json:"practice_set_id"`
	ScoreFITB     string `json:"score_fitb"`
	ScoreTFNG     string `json:"score_tfng"`
	ScoreMH       string `json:"score_mh"`
}

func (s *Server) handleSaveProgress(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req saveProgressRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	err := s.app.SaveProgress(user.ID, domain.Progress{
		PracticeSetID: req.PracticeSetID,
		ScoreFITB:     req.ScoreFITB,
		ScoreTFNG:     req.ScoreTFNG,
		ScoreMH:       req.ScoreMH,
	})
	if err != nil {
		if errors.Is(err, app.ErrPracticeSetIDRequired) {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("save progress", "user_id", user.ID, "err", err)
		writeMessage(w, http.StatusInternalServerError, "failed to save progress due to a server error")
		return
	}
	writeMessage(w, http.StatusOK, "progress saved successfully")
}

type progressResponse struct {
	PracticeSetID string `json:"practice_set_id"`
	ScoreFITB     string `json:"score_fitb,omitempty"`
	ScoreTFNG     string `json:"score_tfng,omitempty"`
	ScoreMH       string `json:"score_mh,omitempty"`
	DateAttempted string `json:"date_attempted"`
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	records, err := s.app.ListProgress(user.ID)
	if err != nil {
		slog.Error("list progress", "user_id", user.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load progress")
		return
	}
	res := make([]progressResponse, 0, len(records))
	for _, p := range records {
		res = append(res, progressResponse{
			PracticeSetID: p.PracticeSetID,
			ScoreFITB:     p.ScoreFITB,
			ScoreTFNG:     p.ScoreTFNG,
			ScoreMH:       p.ScoreMH,
			DateAttempted: p.DateAttempted.Format("2006-01-02 15:04:05"),
		})
	}
	writeJSON(w, http.StatusOK, res)
}

// session plumbing

type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.sessionUser(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) sessionUser(r *http.Request) (domain.User, bool) {
	token, ok := sessionToken(r)
	if !ok {
		return domain.User{}, false
	}
	return s.app.UserFromToken(token)
}

func sessionToken(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return "", false
	}
	return cookie.Value, true
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// helpers

func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	if limiter == nil {
		return true
	}
	key := r.URL.Path + "|" + clientIP(r)
	if limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

func clientIP(r *http.Request) string {
	if xfwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xfwd != "" {
		parts := strings.Split(xfwd, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

func isSecure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}

// shareURL derives the shareable link from the request's own origin.
func shareURL(r *http.Request, id string) string {
	scheme := "http"
	if isSecure(r) {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/?id=" + id
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
